package auth

import (
	"context"
	"testing"

	"github.com/sensorgrid/telemetry-core/internal/infrastructure/logging"
)

func TestSeedAccounts_FirstBoot(t *testing.T) {
	repo := newTestUserRepo(t)
	ctx := context.Background()

	credentials, err := SeedAccounts(ctx, repo, logging.Default())
	if err != nil {
		t.Fatalf("SeedAccounts() error = %v", err)
	}
	if len(credentials) != 2 {
		t.Fatalf("credentials = %d, want 2", len(credentials))
	}

	admin, err := repo.GetByEmail(ctx, SeedAdminEmail)
	if err != nil {
		t.Fatalf("admin account missing: %v", err)
	}
	if admin.Role != RoleAdmin {
		t.Errorf("admin role = %q, want %q", admin.Role, RoleAdmin)
	}

	user, err := repo.GetByEmail(ctx, SeedUserEmail)
	if err != nil {
		t.Fatalf("user account missing: %v", err)
	}
	if user.Role != RoleUser {
		t.Errorf("user role = %q, want %q", user.Role, RoleUser)
	}

	// The generated passwords must actually log in.
	for _, cred := range credentials {
		account, err := repo.GetByEmail(ctx, cred.Email)
		if err != nil {
			t.Fatalf("seeded account %s missing: %v", cred.Email, err)
		}
		ok, err := VerifyPassword(cred.Password, account.PasswordHash)
		if err != nil {
			t.Fatalf("verifying seed password: %v", err)
		}
		if !ok {
			t.Errorf("seed password for %s does not verify", cred.Email)
		}
	}
}

func TestSeedAccounts_SkipsWhenUsersExist(t *testing.T) {
	repo := newTestUserRepo(t)
	ctx := context.Background()

	createTestUser(t, repo, "existing@example.com", RoleAdmin)

	credentials, err := SeedAccounts(ctx, repo, logging.Default())
	if err != nil {
		t.Fatalf("SeedAccounts() error = %v", err)
	}
	if credentials != nil {
		t.Errorf("credentials = %v, want nil (seed skipped)", credentials)
	}

	count, err := repo.Count(ctx)
	if err != nil {
		t.Fatalf("Count() error = %v", err)
	}
	if count != 1 {
		t.Errorf("Count() = %d, want 1 (no accounts added)", count)
	}
}
