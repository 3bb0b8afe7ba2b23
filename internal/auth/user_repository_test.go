package auth

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/sensorgrid/telemetry-core/internal/infrastructure/database"
	_ "github.com/sensorgrid/telemetry-core/migrations" // register embedded migrations
)

// newTestUserRepo opens a migrated SQLite database in a temp directory.
func newTestUserRepo(t *testing.T) *SQLiteUserRepository {
	t.Helper()
	ctx := context.Background()

	db, err := database.Open(ctx, database.Config{
		Path:        filepath.Join(t.TempDir(), "test.db"),
		WALMode:     true,
		BusyTimeout: 5,
	})
	if err != nil {
		t.Fatalf("opening test database: %v", err)
	}
	t.Cleanup(func() { db.Close() }) //nolint:errcheck

	if err := db.Migrate(ctx); err != nil {
		t.Fatalf("migrating test database: %v", err)
	}

	return NewUserRepository(db.DB)
}

// createTestUser inserts an account and returns it.
func createTestUser(t *testing.T, repo *SQLiteUserRepository, email string, role Role) *User {
	t.Helper()
	user := &User{
		Email:        email,
		Name:         "Test Account",
		PasswordHash: "$argon2id$v=19$m=65536,t=3,p=1$c2FsdHNhbHRzYWx0c2FsdA$aGFzaGhhc2hoYXNoaGFzaGhhc2hoYXNoaGFzaGhhc2g",
		Role:         role,
	}
	if err := repo.Create(context.Background(), user); err != nil {
		t.Fatalf("creating test user: %v", err)
	}
	return user
}

func TestUserRepository_CreateAndGet(t *testing.T) {
	repo := newTestUserRepo(t)
	ctx := context.Background()

	user := createTestUser(t, repo, "admin@example.com", RoleAdmin)

	if !strings.HasPrefix(user.ID, "usr-") {
		t.Errorf("generated id = %q, want usr- prefix", user.ID)
	}

	got, err := repo.GetByID(ctx, user.ID)
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if got.Email != "admin@example.com" {
		t.Errorf("email = %q, want %q", got.Email, "admin@example.com")
	}
	if got.Role != RoleAdmin {
		t.Errorf("role = %q, want %q", got.Role, RoleAdmin)
	}
	if got.PasswordHash != user.PasswordHash {
		t.Error("password hash not persisted")
	}
	if got.CreatedAt.IsZero() || got.UpdatedAt.IsZero() {
		t.Error("timestamps not persisted")
	}
}

func TestUserRepository_GetByEmail_CaseInsensitive(t *testing.T) {
	repo := newTestUserRepo(t)
	ctx := context.Background()

	createTestUser(t, repo, "Admin@Example.COM", RoleAdmin)

	got, err := repo.GetByEmail(ctx, "ADMIN@example.com")
	if err != nil {
		t.Fatalf("GetByEmail() error = %v", err)
	}
	if got.Email != "admin@example.com" {
		t.Errorf("stored email = %q, want lowercased", got.Email)
	}
}

func TestUserRepository_DuplicateEmail(t *testing.T) {
	repo := newTestUserRepo(t)

	createTestUser(t, repo, "dup@example.com", RoleUser)

	err := repo.Create(context.Background(), &User{
		Email:        "dup@example.com",
		PasswordHash: "hash",
		Role:         RoleUser,
	})
	if !errors.Is(err, ErrEmailExists) {
		t.Errorf("Create() error = %v, want ErrEmailExists", err)
	}
}

func TestUserRepository_GetMissing(t *testing.T) {
	repo := newTestUserRepo(t)
	ctx := context.Background()

	if _, err := repo.GetByID(ctx, "usr-missing1"); !errors.Is(err, ErrUserNotFound) {
		t.Errorf("GetByID() error = %v, want ErrUserNotFound", err)
	}
	if _, err := repo.GetByEmail(ctx, "nobody@example.com"); !errors.Is(err, ErrUserNotFound) {
		t.Errorf("GetByEmail() error = %v, want ErrUserNotFound", err)
	}
}

func TestUserRepository_List(t *testing.T) {
	repo := newTestUserRepo(t)
	ctx := context.Background()

	users, err := repo.List(ctx)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(users) != 0 {
		t.Errorf("empty repo List() = %d users, want 0 (non-nil)", len(users))
	}

	createTestUser(t, repo, "a@example.com", RoleAdmin)
	createTestUser(t, repo, "b@example.com", RoleUser)

	users, err = repo.List(ctx)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(users) != 2 {
		t.Fatalf("List() = %d users, want 2", len(users))
	}
	for _, u := range users {
		if u.PasswordHash == "" {
			t.Error("List() omitted password hash; callers rely on it for login")
		}
	}
}

func TestUserRepository_UpdatePassword(t *testing.T) {
	repo := newTestUserRepo(t)
	ctx := context.Background()

	user := createTestUser(t, repo, "rotate@example.com", RoleUser)

	if err := repo.UpdatePassword(ctx, user.ID, "new-hash"); err != nil {
		t.Fatalf("UpdatePassword() error = %v", err)
	}

	got, err := repo.GetByID(ctx, user.ID)
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if got.PasswordHash != "new-hash" {
		t.Errorf("hash = %q, want %q", got.PasswordHash, "new-hash")
	}

	if err := repo.UpdatePassword(ctx, "usr-missing1", "x"); !errors.Is(err, ErrUserNotFound) {
		t.Errorf("UpdatePassword() error = %v, want ErrUserNotFound", err)
	}
}

func TestUserRepository_TouchLastLogin(t *testing.T) {
	repo := newTestUserRepo(t)
	ctx := context.Background()

	user := createTestUser(t, repo, "active@example.com", RoleUser)
	if user.LastLogin != nil {
		t.Errorf("LastLogin = %v before any login, want nil", user.LastLogin)
	}

	before := time.Now().UTC().Add(-time.Second)
	if err := repo.TouchLastLogin(ctx, user.ID); err != nil {
		t.Fatalf("TouchLastLogin() error = %v", err)
	}

	got, err := repo.GetByID(ctx, user.ID)
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if got.LastLogin == nil {
		t.Fatal("LastLogin = nil after login")
	}
	if got.LastLogin.Before(before) {
		t.Errorf("LastLogin = %v, want at or after %v", got.LastLogin, before)
	}

	if err := repo.TouchLastLogin(ctx, "usr-missing1"); !errors.Is(err, ErrUserNotFound) {
		t.Errorf("TouchLastLogin() error = %v, want ErrUserNotFound", err)
	}
}

func TestUserRepository_Delete(t *testing.T) {
	repo := newTestUserRepo(t)
	ctx := context.Background()

	user := createTestUser(t, repo, "gone@example.com", RoleUser)

	if err := repo.Delete(ctx, user.ID); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if _, err := repo.GetByID(ctx, user.ID); !errors.Is(err, ErrUserNotFound) {
		t.Errorf("GetByID() after delete error = %v, want ErrUserNotFound", err)
	}
	if err := repo.Delete(ctx, user.ID); !errors.Is(err, ErrUserNotFound) {
		t.Errorf("repeat Delete() error = %v, want ErrUserNotFound", err)
	}
}

func TestUserRepository_Count(t *testing.T) {
	repo := newTestUserRepo(t)
	ctx := context.Background()

	count, err := repo.Count(ctx)
	if err != nil {
		t.Fatalf("Count() error = %v", err)
	}
	if count != 0 {
		t.Errorf("Count() = %d, want 0", count)
	}

	createTestUser(t, repo, "one@example.com", RoleUser)

	count, err = repo.Count(ctx)
	if err != nil {
		t.Fatalf("Count() error = %v", err)
	}
	if count != 1 {
		t.Errorf("Count() = %d, want 1", count)
	}
}
