package store

import (
	"context"
	"errors"
	"time"

	"bfstats/internal/models"
)

// SeedAdmin creates the roles and, unless a user with email exists, an
// active administrator with the given bcrypt hash.
func SeedAdmin(ctx context.Context, st Store, email, passwordHash string) (bool, error) {
	if err := st.EnsureRoles(ctx, models.RoleAdministrator, models.RoleOperator); err != nil {
		return false, err
	}
	_, err := st.UserByEmail(ctx, email)
	switch {
	case err == nil:
		return false, nil
	case !errors.Is(err, ErrNotFound):
		return false, err
	}
	u := &models.User{Email: email, PasswordHash: passwordHash, IsActive: true, CreatedAt: time.Now(), UpdatedAt: time.Now()}
	if err := st.CreateUser(ctx, u, []string{models.RoleAdministrator}); err != nil {
		return false, err
	}
	return true, nil
}
