package auth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"

	"github.com/sensorgrid/telemetry-core/internal/infrastructure/logging"
)

// seedPasswordBytes is the number of random bytes per seed password.
const seedPasswordBytes = 16

// Seed account identities created on first boot.
const (
	SeedAdminEmail = "admin@iot-dashboard.com"
	SeedUserEmail  = "user@iot-dashboard.com"
)

// Credential pairs a seeded email with its generated password.
type Credential struct {
	Email    string
	Password string
}

// SeedAccounts creates the initial admin and user accounts on first boot
// if no users exist. The generated passwords are logged — they must be
// changed immediately. Returns nil credentials if seeding was skipped.
func SeedAccounts(ctx context.Context, repo UserRepository, logger *logging.Logger) ([]Credential, error) {
	count, err := repo.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("checking user count: %w", err)
	}

	if count > 0 {
		logger.Info("users exist, skipping account seed")
		return nil, nil
	}

	seeds := []struct {
		email string
		name  string
		role  Role
	}{
		{SeedAdminEmail, "Administrator", RoleAdmin},
		{SeedUserEmail, "Dashboard User", RoleUser},
	}

	var credentials []Credential
	for _, seed := range seeds {
		password, err := generatePassword()
		if err != nil {
			return nil, err
		}

		hash, err := HashPassword(password)
		if err != nil {
			return nil, fmt.Errorf("hashing seed password: %w", err)
		}

		user := &User{
			Email:        seed.email,
			Name:         seed.name,
			PasswordHash: hash,
			Role:         seed.role,
		}
		if err := repo.Create(ctx, user); err != nil {
			return nil, fmt.Errorf("creating seed account %s: %w", seed.email, err)
		}

		credentials = append(credentials, Credential{Email: seed.email, Password: password})
		logger.Warn("seed account created",
			"email", seed.email,
			"role", string(seed.role),
			"password", password,
			"action_required", "change this password immediately",
		)
	}

	return credentials, nil
}

// generatePassword returns a random hex password.
func generatePassword() (string, error) {
	b := make([]byte, seedPasswordBytes)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generating seed password: %w", err)
	}
	return hex.EncodeToString(b), nil
}
