package auth

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const testSecret = "test-secret-at-least-32-characters-long"

func testUser() *User {
	return &User{
		ID:    "usr-abc12345",
		Email: "admin@iot-dashboard.com",
		Role:  RoleAdmin,
	}
}

func TestGenerateAndParseToken(t *testing.T) {
	token, err := GenerateAccessToken(testUser(), testSecret, 60)
	if err != nil {
		t.Fatalf("GenerateAccessToken() error = %v", err)
	}

	claims, err := ParseToken(token, testSecret)
	if err != nil {
		t.Fatalf("ParseToken() error = %v", err)
	}

	if claims.Subject != "usr-abc12345" {
		t.Errorf("subject = %q, want %q", claims.Subject, "usr-abc12345")
	}
	if claims.Email != "admin@iot-dashboard.com" {
		t.Errorf("email = %q, want %q", claims.Email, "admin@iot-dashboard.com")
	}
	if claims.Role != RoleAdmin {
		t.Errorf("role = %q, want %q", claims.Role, RoleAdmin)
	}
	if claims.ID == "" {
		t.Error("token has no jti")
	}

	ttl := time.Until(claims.ExpiresAt.Time)
	if ttl < 59*time.Minute || ttl > 61*time.Minute {
		t.Errorf("ttl = %v, want ~60m", ttl)
	}
}

func TestParseToken_WrongSecret(t *testing.T) {
	token, err := GenerateAccessToken(testUser(), testSecret, 60)
	if err != nil {
		t.Fatalf("GenerateAccessToken() error = %v", err)
	}

	if _, err := ParseToken(token, "a-completely-different-signing-secret!!"); !errors.Is(err, ErrTokenInvalid) {
		t.Errorf("ParseToken() error = %v, want ErrTokenInvalid", err)
	}
}

func TestParseToken_Expired(t *testing.T) {
	claims := CustomClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "usr-abc12345",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Hour)),
		},
		Role: RoleUser,
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	if err != nil {
		t.Fatalf("signing token: %v", err)
	}

	if _, err := ParseToken(token, testSecret); !errors.Is(err, ErrTokenInvalid) {
		t.Errorf("ParseToken() error = %v, want ErrTokenInvalid", err)
	}
}

func TestParseToken_RejectsOtherSigningMethods(t *testing.T) {
	claims := CustomClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "usr-abc12345",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
		Role: RoleUser,
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS512, claims).SignedString([]byte(testSecret))
	if err != nil {
		t.Fatalf("signing token: %v", err)
	}

	if _, err := ParseToken(token, testSecret); !errors.Is(err, ErrTokenInvalid) {
		t.Errorf("ParseToken() error = %v, want ErrTokenInvalid", err)
	}
}

func TestParseToken_MissingFields(t *testing.T) {
	tests := []struct {
		name   string
		claims CustomClaims
	}{
		{
			name: "missing subject",
			claims: CustomClaims{
				RegisteredClaims: jwt.RegisteredClaims{
					ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
				},
				Role: RoleUser,
			},
		},
		{
			name: "missing role",
			claims: CustomClaims{
				RegisteredClaims: jwt.RegisteredClaims{
					Subject:   "usr-abc12345",
					ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
				},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, tt.claims).SignedString([]byte(testSecret))
			if err != nil {
				t.Fatalf("signing token: %v", err)
			}

			if _, err := ParseToken(token, testSecret); !errors.Is(err, ErrTokenInvalid) {
				t.Errorf("ParseToken() error = %v, want ErrTokenInvalid", err)
			}
		})
	}
}

func TestGenerateAccessToken_DefaultTTL(t *testing.T) {
	token, err := GenerateAccessToken(testUser(), testSecret, 0)
	if err != nil {
		t.Fatalf("GenerateAccessToken() error = %v", err)
	}

	claims, err := ParseToken(token, testSecret)
	if err != nil {
		t.Fatalf("ParseToken() error = %v", err)
	}

	ttl := time.Until(claims.ExpiresAt.Time)
	if ttl < 59*time.Minute || ttl > 61*time.Minute {
		t.Errorf("default ttl = %v, want ~60m", ttl)
	}
}
