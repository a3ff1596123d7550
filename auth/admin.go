package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"reviewcms/config"
	"reviewcms/database"
	"reviewcms/models"

	"go.mongodb.org/mongo-driver/bson"
)

// EnsureAdmin makes sure the configured admin account exists with the admin
// role. It reports whether the account was created by this call.
func EnsureAdmin(ctx context.Context, users database.Repository[models.User], seed config.AdminSeed) (*models.User, bool, error) {
	email := strings.ToLower(strings.TrimSpace(seed.Email))
	if email == "" || seed.Password == "" {
		return nil, false, errors.New("ADMIN_EMAIL and ADMIN_PASSWORD are required to seed an admin")
	}

	existing, err := users.FindOne(ctx, "email", email)
	if err == nil {
		if existing.IsAdmin() {
			return existing, false, nil
		}
		promoted, err := users.Update(ctx, existing.ID, bson.M{"role": models.RoleAdmin})
		return promoted, false, err
	}
	if !errors.Is(err, database.ErrNotFound) {
		return nil, false, fmt.Errorf("find admin: %w", err)
	}

	hash, err := HashPassword(seed.Password)
	if err != nil {
		return nil, false, fmt.Errorf("hash admin password: %w", err)
	}
	admin := &models.User{
		FirstName: seed.FirstName,
		LastName:  seed.LastName,
		Email:     email,
		Password:  hash,
		Role:      models.RoleAdmin,
	}
	admin.ApplyDefaults()
	if err := users.Create(ctx, admin); err != nil {
		return nil, false, fmt.Errorf("create admin: %w", err)
	}
	return admin, true, nil
}
