package service

import (
	"context"

	"github.com/youlead/youlead-backend/internal/models"
	"github.com/youlead/youlead-backend/internal/repository"
	"github.com/youlead/youlead-backend/internal/types"
)

// ============================================
// Activity Service
// ============================================

// ActivityService reads the audit log. Entries are written by the engine
// that performs the action, inside the action's transaction.
type ActivityService interface {
	TeamFeed(ctx context.Context, actorID, teamID string, filter *types.ActivityContext, limit int) ([]*models.Activity, error)
	MyFeed(ctx context.Context, actorID string, limit int) ([]*models.Activity, error)
}

type activityService struct {
	activityRepo repository.ActivityRepository
	userRepo     repository.UserRepository
}

// NewActivityService creates a new activity service
func NewActivityService(activityRepo repository.ActivityRepository, userRepo repository.UserRepository) ActivityService {
	return &activityService{activityRepo: activityRepo, userRepo: userRepo}
}

func feedLimit(limit int) int {
	if limit <= 0 || limit > 200 {
		return 50
	}
	return limit
}

func (s *activityService) TeamFeed(ctx context.Context, actorID, teamID string, filter *types.ActivityContext, limit int) ([]*models.Activity, error) {
	if filter != nil && !filter.IsValid() {
		return nil, invalid(ErrInvalidInput, "unknown activity context")
	}
	actor, err := loadUser(ctx, s.userRepo, actorID)
	if err != nil {
		return nil, err
	}
	if !actor.OnTeam(teamID) && actor.Role != types.RoleAdmin {
		return nil, ErrForbidden
	}

	activities, err := s.activityRepo.FindByTeam(ctx, teamID, filter, feedLimit(limit))
	if err != nil {
		return nil, storeError("list activities", err)
	}
	if activities == nil {
		activities = []*models.Activity{}
	}
	return activities, nil
}

func (s *activityService) MyFeed(ctx context.Context, actorID string, limit int) ([]*models.Activity, error) {
	activities, err := s.activityRepo.FindByActor(ctx, actorID, feedLimit(limit))
	if err != nil {
		return nil, storeError("list activities", err)
	}
	if activities == nil {
		activities = []*models.Activity{}
	}
	return activities, nil
}
