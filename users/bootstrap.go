package users

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"time"
)

const DefaultAdminName = "System Administrator"

// SeedAdmin makes sure an ADMIN account exists for email. When password is
// empty a random one is generated and returned so the caller can show it
// once. An existing account (soft-deleted included) is left untouched and
// an empty password is returned.
func SeedAdmin(ctx context.Context, repo UserRepo, hasher PasswordHasher, email, password string, now time.Time) (generatedPassword string, err error) {
	email = NormaliseEmail(email)
	if email == "" {
		return "", fmt.Errorf("seed admin: email is required")
	}

	exists, err := repo.ExistsByEmail(ctx, email)
	if err != nil {
		return "", fmt.Errorf("seed admin: exists check: %w", err)
	}
	if exists {
		return "", nil
	}

	if password == "" {
		passwordBytes := make([]byte, 16)
		if _, err := rand.Read(passwordBytes); err != nil {
			return "", fmt.Errorf("seed admin: generate password: %w", err)
		}
		password = base64.URLEncoding.EncodeToString(passwordBytes)
		generatedPassword = password
	}

	hash, err := hasher.Hash(password)
	if err != nil {
		return "", fmt.Errorf("seed admin: hash password: %w", err)
	}

	admin := &User{
		Email:        email,
		PasswordHash: hash,
		Name:         DefaultAdminName,
		Role:         RoleAdmin,
		CreatedAt:    now,
		UpdatedAt:    now,
		Staff:        &StaffProfile{Position: "Administrator"},
	}
	if err := repo.Upsert(ctx, admin); err != nil {
		return "", fmt.Errorf("seed admin: upsert: %w", err)
	}
	return generatedPassword, nil
}
