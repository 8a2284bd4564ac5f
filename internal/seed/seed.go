package seed

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/youlead/youlead-backend/internal/repository"
	"github.com/youlead/youlead-backend/internal/types"
)

// Admin makes sure a development administrator exists. An existing account
// with the same email is left untouched.
func Admin(ctx context.Context, users repository.UserRepository, email, password string, log *zap.Logger) error {
	existing, err := users.FindByEmail(ctx, email)
	if err != nil {
		return fmt.Errorf("lookup seed admin: %w", err)
	}
	if existing != nil {
		log.Debug("[Seed] Admin already present", zap.String("email", email))
		return nil
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash seed password: %w", err)
	}

	admin := &repository.User{
		Name:          "Administrator",
		Email:         email,
		Password:      string(hash),
		Role:          types.RoleAdmin,
		AccountStatus: types.AccountActive,
	}
	if err := users.Create(ctx, admin); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil
		}
		return fmt.Errorf("create seed admin: %w", err)
	}

	log.Info("[Seed] Created admin account", zap.String("email", email), zap.String("id", admin.ID))
	return nil
}
