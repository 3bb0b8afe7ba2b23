package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/sensorgrid/telemetry-core/internal/auth"
)

// loginRequest is the request body for POST /auth/login.
type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// loginResponse is the response body for POST /auth/login.
type loginResponse struct {
	AccessToken string     `json:"accessToken"`
	TokenType   string     `json:"tokenType"`
	ExpiresIn   int        `json:"expiresIn"`
	User        *auth.User `json:"user"`
}

// handleLogin authenticates an account and returns a JWT access token.
//
// Unknown email and wrong password return the same 401; the response
// must not reveal which accounts exist.
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}
	if req.Email == "" || req.Password == "" {
		writeBadRequest(w, "email and password are required")
		return
	}

	user, err := s.users.GetByEmail(r.Context(), req.Email)
	if err != nil {
		if errors.Is(err, auth.ErrUserNotFound) {
			writeUnauthorized(w, "invalid credentials")
			return
		}
		s.logger.Error("login lookup failed", "error", err)
		writeInternalError(w, "login failed")
		return
	}

	ok, err := auth.VerifyPassword(req.Password, user.PasswordHash)
	if err != nil {
		s.logger.Error("password verification failed", "user_id", user.ID, "error", err)
		writeInternalError(w, "login failed")
		return
	}
	if !ok {
		writeUnauthorized(w, "invalid credentials")
		return
	}

	ttl := s.secCfg.JWT.AccessTokenTTL
	token, err := auth.GenerateAccessToken(user, s.secCfg.JWT.Secret, ttl)
	if err != nil {
		s.logger.Error("token generation failed", "user_id", user.ID, "error", err)
		writeInternalError(w, "login failed")
		return
	}

	// Best effort; a login must not fail because the timestamp write did.
	if touchErr := s.users.TouchLastLogin(r.Context(), user.ID); touchErr != nil {
		s.logger.Warn("recording last login failed", "user_id", user.ID, "error", touchErr)
	} else {
		now := time.Now().UTC()
		user.LastLogin = &now
	}

	s.logger.Info("login", "user_id", user.ID, "email", user.Email, "role", user.Role)
	writeData(w, http.StatusOK, loginResponse{
		AccessToken: token,
		TokenType:   "Bearer",
		ExpiresIn:   ttl * 60, // seconds
		User:        user,
	})
}

// handleLogout acknowledges a logout.
//
// Access tokens are stateless, so there is nothing to revoke server-side:
// the client discards the token and the TTL bounds any copy that leaks.
func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	claims := claimsFromContext(r.Context())
	if claims != nil {
		s.logger.Info("logout", "user_id", claims.Subject)
	}
	writeData(w, http.StatusOK, map[string]string{"status": "logged out"})
}
