package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/youlead/youlead-backend/internal/config"
	"github.com/youlead/youlead-backend/internal/models"
	"github.com/youlead/youlead-backend/internal/repository"
	"github.com/youlead/youlead-backend/internal/types"
)

// ============================================
// Auth Service
// ============================================

type AuthService interface {
	Register(ctx context.Context, name, email, password string, phone *string) (*repository.User, string, string, error)
	Login(ctx context.Context, email, password string) (*repository.User, string, string, error)
	RefreshToken(ctx context.Context, refreshToken string) (string, string, error)
	Logout(ctx context.Context, refreshToken string) error
	ValidateToken(token string) (*jwt.Token, error)
	GetUserIDFromToken(token *jwt.Token) (string, error)
}

type authService struct {
	cfg          *config.Config
	userRepo     repository.UserRepository
	activityRepo repository.ActivityRepository
	log          *zap.Logger
}

func NewAuthService(cfg *config.Config, userRepo repository.UserRepository, activityRepo repository.ActivityRepository, log *zap.Logger) AuthService {
	return &authService{cfg: cfg, userRepo: userRepo, activityRepo: activityRepo, log: log}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// recordAuth appends an auth activity. Sign-in never fails because the audit write did.
func (s *authService) recordAuth(ctx context.Context, user *repository.User, typ models.AuthActivityType) {
	activity := models.NewActivity(user.ID, user.TeamID, models.AuthActivity{Type: typ, Email: user.Email})
	if err := s.activityRepo.Create(ctx, activity); err != nil {
		s.log.Warn("auth activity not recorded", zap.String("type", string(typ)), zap.String("user", user.ID), zap.Error(err))
	}
}

func (s *authService) Register(ctx context.Context, name, email, password string, phone *string) (*repository.User, string, string, error) {
	email = normalizeEmail(email)

	existingUser, err := s.userRepo.FindByEmail(ctx, email)
	if err != nil {
		return nil, "", "", storeError("find user", err)
	}
	if existingUser != nil {
		return nil, "", "", ErrUserExists
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, "", "", fmt.Errorf("failed to hash password: %w", err)
	}

	user := &repository.User{
		Name:          strings.TrimSpace(name),
		Email:         email,
		Password:      string(hashedPassword),
		Phone:         phone,
		Role:          types.RoleUnassigned,
		AccountStatus: types.AccountActive,
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, "", "", ErrUserExists
		}
		return nil, "", "", storeError("create user", err)
	}
	s.recordAuth(ctx, user, models.AuthRegistered)

	accessToken, refreshToken, err := s.generateTokens(ctx, user.ID)
	if err != nil {
		return nil, "", "", fmt.Errorf("failed to generate tokens: %w", err)
	}

	return user, accessToken, refreshToken, nil
}

func (s *authService) Login(ctx context.Context, email, password string) (*repository.User, string, string, error) {
	user, err := s.userRepo.FindByEmail(ctx, normalizeEmail(email))
	if err != nil {
		return nil, "", "", storeError("find user", err)
	}
	if user == nil {
		return nil, "", "", ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return nil, "", "", ErrInvalidCredentials
	}
	if user.AccountStatus != types.AccountActive {
		return nil, "", "", ErrAccountInactive
	}

	if err := s.userRepo.UpdateLastActive(ctx, user.ID); err != nil {
		s.log.Warn("last active not updated", zap.String("user", user.ID), zap.Error(err))
	}
	s.recordAuth(ctx, user, models.AuthLoggedIn)

	accessToken, refreshToken, err := s.generateTokens(ctx, user.ID)
	if err != nil {
		return nil, "", "", fmt.Errorf("failed to generate tokens: %w", err)
	}

	return user, accessToken, refreshToken, nil
}

func (s *authService) RefreshToken(ctx context.Context, refreshToken string) (string, string, error) {
	rt, err := s.userRepo.FindRefreshToken(ctx, refreshToken)
	if err != nil {
		return "", "", storeError("find refresh token", err)
	}
	if rt == nil {
		return "", "", ErrInvalidToken
	}

	// refresh tokens are single use
	if err := s.userRepo.DeleteRefreshToken(ctx, refreshToken); err != nil {
		return "", "", storeError("delete refresh token", err)
	}
	if time.Now().After(rt.ExpiresAt) {
		return "", "", ErrInvalidToken
	}

	user, err := loadUser(ctx, s.userRepo, rt.UserID)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return "", "", ErrInvalidToken
		}
		return "", "", err
	}
	if user.AccountStatus != types.AccountActive {
		return "", "", ErrAccountInactive
	}
	if err := s.userRepo.UpdateLastActive(ctx, rt.UserID); err != nil {
		s.log.Warn("last active not updated", zap.String("user", rt.UserID), zap.Error(err))
	}

	accessToken, newRefreshToken, err := s.generateTokens(ctx, rt.UserID)
	if err != nil {
		return "", "", fmt.Errorf("failed to generate tokens: %w", err)
	}

	return accessToken, newRefreshToken, nil
}

func (s *authService) Logout(ctx context.Context, refreshToken string) error {
	rt, err := s.userRepo.FindRefreshToken(ctx, refreshToken)
	if err != nil {
		return storeError("find refresh token", err)
	}
	if rt == nil {
		return nil
	}
	if err := s.userRepo.DeleteRefreshToken(ctx, refreshToken); err != nil {
		return storeError("delete refresh token", err)
	}
	if user, err := s.userRepo.FindByID(ctx, rt.UserID); err == nil && user != nil {
		s.recordAuth(ctx, user, models.AuthLoggedOut)
	}
	return nil
}

func (s *authService) ValidateToken(tokenString string) (*jwt.Token, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.cfg.JWTSecret), nil
	})
	if err != nil {
		return nil, &Error{Kind: KindUnauthorized, Code: ErrInvalidToken.Code, Message: ErrInvalidToken.Message, cause: err}
	}
	return token, nil
}

func (s *authService) GetUserIDFromToken(token *jwt.Token) (string, error) {
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return "", ErrInvalidToken
	}
	userID, ok := claims["sub"].(string)
	if !ok || userID == "" {
		return "", ErrInvalidToken
	}
	return userID, nil
}

func (s *authService) generateTokens(ctx context.Context, userID string) (string, string, error) {
	now := time.Now()
	accessToken := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": userID,
		"exp": now.Add(time.Hour * time.Duration(s.cfg.JWTExpiry)).Unix(),
		"iat": now.Unix(),
	})

	accessTokenString, err := accessToken.SignedString([]byte(s.cfg.JWTSecret))
	if err != nil {
		return "", "", err
	}

	rt := &repository.RefreshToken{
		Token:     uuid.New().String(),
		UserID:    userID,
		ExpiresAt: now.Add(time.Hour * 24 * time.Duration(s.cfg.RefreshExpiry)),
	}

	if err := s.userRepo.SaveRefreshToken(ctx, rt); err != nil {
		return "", "", storeError("save refresh token", err)
	}

	return accessTokenString, rt.Token, nil
}
