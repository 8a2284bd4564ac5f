package service

import (
	"context"
	"strings"

	"github.com/youlead/youlead-backend/internal/repository"
	"github.com/youlead/youlead-backend/internal/types"
)

// ============================================
// User Service
// ============================================

type UserService interface {
	// Me returns the user with derived task and project counters.
	Me(ctx context.Context, userID string) (*repository.User, *MemberCounters, error)
	UpdateProfile(ctx context.Context, userID string, name, phone, picture *string) (*repository.User, error)
	SetAccountStatus(ctx context.Context, actorID, targetID string, status types.AccountStatus) (*repository.User, error)
}

type userService struct {
	userRepo  repository.UserRepository
	analytics AnalyticsService
}

func NewUserService(userRepo repository.UserRepository, analytics AnalyticsService) UserService {
	return &userService{userRepo: userRepo, analytics: analytics}
}

func (s *userService) Me(ctx context.Context, userID string) (*repository.User, *MemberCounters, error) {
	user, err := loadUser(ctx, s.userRepo, userID)
	if err != nil {
		return nil, nil, err
	}
	counters, err := s.analytics.MemberCounters(ctx, []string{userID})
	if err != nil {
		return nil, nil, err
	}
	return user, counters[userID], nil
}

func (s *userService) UpdateProfile(ctx context.Context, userID string, name, phone, picture *string) (*repository.User, error) {
	user, err := loadUser(ctx, s.userRepo, userID)
	if err != nil {
		return nil, err
	}

	if name != nil {
		trimmed := strings.TrimSpace(*name)
		if trimmed == "" {
			return nil, invalid(ErrInvalidInput, "name must not be empty")
		}
		user.Name = trimmed
	}
	if phone != nil {
		user.Phone = phone
	}
	if picture != nil {
		user.Picture = picture
	}

	if err := s.userRepo.UpdateProfile(ctx, user); err != nil {
		return nil, storeError("update profile", err)
	}
	return user, nil
}

func (s *userService) SetAccountStatus(ctx context.Context, actorID, targetID string, status types.AccountStatus) (*repository.User, error) {
	if !status.IsValid() {
		return nil, invalid(ErrInvalidInput, "unknown account status")
	}
	actor, err := loadUser(ctx, s.userRepo, actorID)
	if err != nil {
		return nil, err
	}
	if actor.Role != types.RoleAdmin {
		return nil, ErrForbidden
	}
	target, err := loadUser(ctx, s.userRepo, targetID)
	if err != nil {
		return nil, err
	}

	if err := s.userRepo.UpdateAccountStatus(ctx, target.ID, status); err != nil {
		return nil, storeError("update account status", err)
	}
	target.AccountStatus = status
	if status == types.AccountInactive {
		if err := s.userRepo.DeleteUserRefreshTokens(ctx, target.ID); err != nil {
			return nil, storeError("revoke refresh tokens", err)
		}
	}
	return target, nil
}
