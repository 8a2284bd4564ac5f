package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/youlead/youlead-backend/internal/models"
	"github.com/youlead/youlead-backend/internal/repository"
	"github.com/youlead/youlead-backend/internal/socket"
	"github.com/youlead/youlead-backend/internal/types"
)

// ============================================
// Team Service
// ============================================

// TeamService owns team membership: who is on which team in which role.
type TeamService interface {
	Create(ctx context.Context, actorID, name string, organization *string) (*repository.Team, error)
	Get(ctx context.Context, teamID string) (*repository.TeamSummary, error)
	ListMembers(ctx context.Context, actorID, teamID string) ([]*repository.User, error)
	Join(ctx context.Context, actorID, teamID string) (*repository.Team, error)
	RemoveMember(ctx context.Context, actorID, teamID, userID string) error
	Leave(ctx context.Context, actorID string) error
	Promote(ctx context.Context, actorID, teamID, userID string, role types.Role) error
}

type teamService struct {
	teamRepo  repository.TeamRepository
	userRepo  repository.UserRepository
	publisher Publisher
	cache     Cache
	cacheTTL  time.Duration
	log       *zap.Logger
}

// NewTeamService creates a new team service
func NewTeamService(
	teamRepo repository.TeamRepository,
	userRepo repository.UserRepository,
	publisher Publisher,
	cache Cache,
	cacheTTL time.Duration,
	log *zap.Logger,
) TeamService {
	return &teamService{
		teamRepo:  teamRepo,
		userRepo:  userRepo,
		publisher: publisher,
		cache:     cache,
		cacheTTL:  cacheTTL,
		log:       log,
	}
}

func teamSummaryKey(teamID string) string { return "team:summary:" + teamID }

// invalidateTeam drops the cached summary after a membership change.
func invalidateTeam(ctx context.Context, cache Cache, log *zap.Logger, teamID string) {
	if err := cache.DeleteCache(ctx, teamSummaryKey(teamID)); err != nil {
		log.Warn("team summary not invalidated", zap.String("team", teamID), zap.Error(err))
	}
}

func (s *teamService) Create(ctx context.Context, actorID, name string, organization *string) (*repository.Team, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, invalid(ErrInvalidInput, "team name is required")
	}
	actor, err := loadUser(ctx, s.userRepo, actorID)
	if err != nil {
		return nil, err
	}
	if actor.Role == types.RoleAdmin {
		return nil, ErrForbidden
	}
	if actor.TeamID != nil {
		return nil, ErrAlreadyOnTeam
	}

	team := &repository.Team{
		ID:           uuid.NewString(),
		Name:         name,
		Organization: organization,
		TeamLeaderID: actor.ID,
	}
	activity := models.NewActivity(actor.ID, teamIDPtr(team.ID), models.TeamActivity{
		Type:     models.TeamCreated,
		TeamID:   team.ID,
		TeamName: team.Name,
		MemberID: actor.ID,
		Role:     types.RoleTeamLeader,
	})

	if err := s.teamRepo.CreateWithLeader(ctx, team, activity); err != nil {
		if errors.Is(err, repository.ErrUserOnTeam) {
			return nil, ErrAlreadyOnTeam
		}
		return nil, storeError("create team", err)
	}

	s.log.Info("team created", zap.String("team", team.ID), zap.String("leader", actor.ID))
	return team, nil
}

func (s *teamService) Get(ctx context.Context, teamID string) (*repository.TeamSummary, error) {
	var cached repository.TeamSummary
	if err := s.cache.GetCache(ctx, teamSummaryKey(teamID), &cached); err == nil && cached.ID == teamID {
		return &cached, nil
	}

	summary, err := s.teamRepo.FindSummary(ctx, teamID)
	if err != nil {
		return nil, storeError("load team", err)
	}
	if summary == nil {
		return nil, ErrTeamNotFound
	}

	if err := s.cache.SetCache(ctx, teamSummaryKey(teamID), summary, s.cacheTTL); err != nil {
		s.log.Debug("team summary not cached", zap.String("team", teamID), zap.Error(err))
	}
	return summary, nil
}

func (s *teamService) ListMembers(ctx context.Context, actorID, teamID string) ([]*repository.User, error) {
	actor, err := loadUser(ctx, s.userRepo, actorID)
	if err != nil {
		return nil, err
	}
	if _, err := loadTeam(ctx, s.teamRepo, teamID); err != nil {
		return nil, err
	}
	if !actor.OnTeam(teamID) && actor.Role != types.RoleAdmin {
		return nil, ErrForbidden
	}

	members, err := s.userRepo.FindByTeam(ctx, teamID)
	if err != nil {
		return nil, storeError("list members", err)
	}
	return members, nil
}

func (s *teamService) Join(ctx context.Context, actorID, teamID string) (*repository.Team, error) {
	actor, err := loadUser(ctx, s.userRepo, actorID)
	if err != nil {
		return nil, err
	}
	if actor.Role == types.RoleAdmin {
		return nil, ErrForbidden
	}
	if actor.TeamID != nil {
		return nil, ErrAlreadyOnTeam
	}
	team, err := loadTeam(ctx, s.teamRepo, teamID)
	if err != nil {
		return nil, err
	}

	role := types.RoleTeamMember
	if team.TeamLeaderID == actor.ID {
		role = types.RoleTeamLeader
	}
	activity := models.NewActivity(actor.ID, teamIDPtr(team.ID), models.TeamActivity{
		Type:     models.TeamJoined,
		TeamID:   team.ID,
		TeamName: team.Name,
		MemberID: actor.ID,
		Role:     role,
	})

	if err := s.teamRepo.AddMember(ctx, team.ID, actor.ID, role, activity); err != nil {
		if errors.Is(err, repository.ErrUserOnTeam) {
			return nil, ErrAlreadyOnTeam
		}
		return nil, storeError("join team", err)
	}

	invalidateTeam(ctx, s.cache, s.log, team.ID)
	s.publisher.BroadcastTeamEvent(team.ID, socket.MessageTeamMemberAdded, map[string]interface{}{
		"teamId": team.ID,
		"userId": actor.ID,
		"role":   role,
	})
	return team, nil
}

func (s *teamService) RemoveMember(ctx context.Context, actorID, teamID, userID string) error {
	team, err := loadTeam(ctx, s.teamRepo, teamID)
	if err != nil {
		return err
	}
	actor, err := loadUser(ctx, s.userRepo, actorID)
	if err != nil {
		return err
	}
	if err := requireTeamManager(actor, teamID); err != nil {
		return err
	}

	target, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return storeError("load user", err)
	}
	if target == nil || !target.OnTeam(teamID) {
		return ErrNotAMember
	}
	if target.ID == team.TeamLeaderID {
		return ErrForbidden
	}

	activity := models.NewActivity(actor.ID, teamIDPtr(teamID), models.TeamActivity{
		Type:     models.TeamMemberRemoved,
		TeamID:   teamID,
		TeamName: team.Name,
		MemberID: target.ID,
	})
	return s.detach(ctx, team, target.ID, activity)
}

func (s *teamService) Leave(ctx context.Context, actorID string) error {
	actor, err := loadUser(ctx, s.userRepo, actorID)
	if err != nil {
		return err
	}
	if actor.TeamID == nil {
		return ErrNotAMember
	}
	team, err := loadTeam(ctx, s.teamRepo, *actor.TeamID)
	if err != nil {
		return err
	}
	if team.TeamLeaderID == actor.ID {
		return ErrLeaderCannotLeave
	}

	activity := models.NewActivity(actor.ID, teamIDPtr(team.ID), models.TeamActivity{
		Type:     models.TeamLeft,
		TeamID:   team.ID,
		TeamName: team.Name,
		MemberID: actor.ID,
	})
	return s.detach(ctx, team, actor.ID, activity)
}

// detach clears a non-leader's membership and announces it.
func (s *teamService) detach(ctx context.Context, team *repository.Team, userID string, activity *models.Activity) error {
	if err := s.teamRepo.RemoveMember(ctx, team.ID, userID, activity); err != nil {
		if errors.Is(err, repository.ErrStaleWrite) {
			return ErrNotAMember
		}
		return storeError("remove member", err)
	}

	invalidateTeam(ctx, s.cache, s.log, team.ID)
	s.publisher.BroadcastTeamEvent(team.ID, socket.MessageTeamMemberRemoved, map[string]interface{}{
		"teamId": team.ID,
		"userId": userID,
	})
	return nil
}

// canPromote lists the only role changes a leader may make.
func canPromote(from, to types.Role) bool {
	return (from == types.RoleTeamMember && to == types.RoleCoLeader) ||
		(from == types.RoleCoLeader && to == types.RoleTeamMember)
}

func (s *teamService) Promote(ctx context.Context, actorID, teamID, userID string, role types.Role) error {
	team, err := loadTeam(ctx, s.teamRepo, teamID)
	if err != nil {
		return err
	}
	if team.TeamLeaderID != actorID {
		return ErrForbidden
	}

	target, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return storeError("load user", err)
	}
	if target == nil || !target.OnTeam(teamID) {
		return ErrNotAMember
	}
	if !canPromote(target.Role, role) {
		return ErrInvalidRoleTransition
	}

	activity := models.NewActivity(actorID, teamIDPtr(teamID), models.TeamActivity{
		Type:     models.TeamPromoted,
		TeamID:   teamID,
		TeamName: team.Name,
		MemberID: target.ID,
		Role:     role,
	})
	if err := s.teamRepo.UpdateMemberRole(ctx, teamID, target.ID, target.Role, role, activity); err != nil {
		if errors.Is(err, repository.ErrStaleWrite) {
			return ErrInvalidRoleTransition
		}
		return storeError("update member role", err)
	}

	s.publisher.BroadcastTeamEvent(teamID, socket.MessageTeamMemberRoleUpdated, map[string]interface{}{
		"teamId": teamID,
		"userId": target.ID,
		"role":   role,
	})
	return nil
}
