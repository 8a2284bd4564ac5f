package service

import (
	"context"
	"errors"
	"time"

	"github.com/badoux/checkmail"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/youlead/youlead-backend/internal/models"
	"github.com/youlead/youlead-backend/internal/repository"
	"github.com/youlead/youlead-backend/internal/socket"
	"github.com/youlead/youlead-backend/internal/types"
)

// ============================================
// Invitation Service
// ============================================

type InvitationService interface {
	Create(ctx context.Context, actorID, teamID, email string) (*repository.Invitation, error)
	Respond(ctx context.Context, actorID, invitationID string, decision models.Decision) (*repository.Invitation, error)
	Cancel(ctx context.Context, actorID, invitationID string) (*repository.Invitation, error)
	ListForInvitee(ctx context.Context, actorID string) ([]*repository.InvitationWithTeam, error)
	ListForTeam(ctx context.Context, actorID, teamID string) ([]*repository.Invitation, error)
	// ExpireStale withdraws open invitations older than ttl and returns how many it moved.
	ExpireStale(ctx context.Context, ttl time.Duration) (int, error)
}

type invitationService struct {
	invitationRepo repository.InvitationRepository
	teamRepo       repository.TeamRepository
	userRepo       repository.UserRepository
	notifier       Notifier
	publisher      Publisher
	cache          Cache
	log            *zap.Logger
	now            func() time.Time
}

func NewInvitationService(
	invitationRepo repository.InvitationRepository,
	teamRepo repository.TeamRepository,
	userRepo repository.UserRepository,
	notifier Notifier,
	publisher Publisher,
	cache Cache,
	log *zap.Logger,
) InvitationService {
	return &invitationService{
		invitationRepo: invitationRepo,
		teamRepo:       teamRepo,
		userRepo:       userRepo,
		notifier:       notifier,
		publisher:      publisher,
		cache:          cache,
		log:            log,
		now:            time.Now,
	}
}

func invitationActivity(actorID string, inv *repository.Invitation, typ models.InvitationActivityType) *models.Activity {
	return models.NewActivity(actorID, teamIDPtr(inv.TeamID), models.InvitationActivity{
		Type:         typ,
		InvitationID: inv.ID,
		TeamID:       inv.TeamID,
		InviteeEmail: inv.InviteeEmail,
	})
}

func (s *invitationService) loadInvitation(ctx context.Context, id string) (*repository.Invitation, error) {
	inv, err := s.invitationRepo.FindByID(ctx, id)
	if err != nil {
		return nil, storeError("load invitation", err)
	}
	if inv == nil {
		return nil, ErrInvitationNotFound
	}
	return inv, nil
}

func (s *invitationService) Create(ctx context.Context, actorID, teamID, email string) (*repository.Invitation, error) {
	actor, err := loadUser(ctx, s.userRepo, actorID)
	if err != nil {
		return nil, err
	}
	if err := requireTeamManager(actor, teamID); err != nil {
		return nil, err
	}

	email = normalizeEmail(email)
	if err := checkmail.ValidateFormat(email); err != nil {
		return nil, invalid(ErrInvalidEmail, err.Error())
	}

	team, err := loadTeam(ctx, s.teamRepo, teamID)
	if err != nil {
		return nil, err
	}

	open, err := s.invitationRepo.HasOpen(ctx, teamID, email)
	if err != nil {
		return nil, storeError("check open invitation", err)
	}
	if open {
		return nil, ErrDuplicateInvitation
	}

	inv := &repository.Invitation{
		ID:           uuid.NewString(),
		InviteeEmail: email,
		TeamID:       teamID,
		InvitedBy:    actor.ID,
	}
	if err := s.invitationRepo.Create(ctx, inv, invitationActivity(actor.ID, inv, models.InvitationInvited)); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrDuplicateInvitation
		}
		return nil, storeError("create invitation", err)
	}

	s.notifier.InvitationCreated(ctx, inv, team, actor)
	return inv, nil
}

func (s *invitationService) Respond(ctx context.Context, actorID, invitationID string, decision models.Decision) (*repository.Invitation, error) {
	if !decision.IsValid() {
		return nil, invalid(ErrInvalidInput, "decision must be accepted or rejected")
	}
	inv, err := s.loadInvitation(ctx, invitationID)
	if err != nil {
		return nil, err
	}
	actor, err := loadUser(ctx, s.userRepo, actorID)
	if err != nil {
		return nil, err
	}
	if normalizeEmail(actor.Email) != normalizeEmail(inv.InviteeEmail) {
		return nil, ErrForbidden
	}

	if inv.State == models.StateWithdrawn {
		return nil, ErrInvitationWithdrawn
	}
	next, ok := inv.State.Respond(decision)
	if !ok {
		return nil, ErrAlreadyResolved
	}

	team, err := loadTeam(ctx, s.teamRepo, inv.TeamID)
	if err != nil {
		return nil, err
	}

	if decision == models.DecisionAccepted {
		if err := s.accept(ctx, inv, actor, team); err != nil {
			return nil, err
		}
	} else {
		err := s.invitationRepo.Transition(ctx, inv, next, invitationActivity(actor.ID, inv, models.InvitationDeclined))
		if err != nil {
			if errors.Is(err, repository.ErrStaleWrite) {
				return nil, ErrAlreadyResolved
			}
			return nil, storeError("decline invitation", err)
		}
	}

	s.notifier.InvitationResolved(ctx, inv, team)
	return inv, nil
}

// accept joins the team and resolves the invitation in one transaction.
func (s *invitationService) accept(ctx context.Context, inv *repository.Invitation, actor *repository.User, team *repository.Team) error {
	if actor.Role == types.RoleAdmin {
		return ErrForbidden
	}
	if actor.TeamID != nil {
		return ErrAlreadyOnTeam
	}

	role := types.RoleTeamMember
	if team.TeamLeaderID == actor.ID {
		role = types.RoleTeamLeader
	}

	err := s.invitationRepo.Accept(ctx, inv, actor.ID, role, invitationActivity(actor.ID, inv, models.InvitationAccepted))
	switch {
	case errors.Is(err, repository.ErrStaleWrite):
		return ErrAlreadyResolved
	case errors.Is(err, repository.ErrUserOnTeam):
		return ErrAlreadyOnTeam
	case err != nil:
		return storeError("accept invitation", err)
	}

	invalidateTeam(ctx, s.cache, s.log, team.ID)
	s.publisher.BroadcastTeamEvent(team.ID, socket.MessageTeamMemberAdded, map[string]interface{}{
		"teamId": team.ID,
		"userId": actor.ID,
		"role":   role,
	})
	return nil
}

func (s *invitationService) Cancel(ctx context.Context, actorID, invitationID string) (*repository.Invitation, error) {
	inv, err := s.loadInvitation(ctx, invitationID)
	if err != nil {
		return nil, err
	}
	actor, err := loadUser(ctx, s.userRepo, actorID)
	if err != nil {
		return nil, err
	}
	if err := requireTeamManager(actor, inv.TeamID); err != nil {
		return nil, err
	}

	next, ok := inv.State.Withdraw()
	if !ok {
		return nil, ErrAlreadyResolved
	}
	if err := s.invitationRepo.Transition(ctx, inv, next, invitationActivity(actor.ID, inv, models.InvitationCanceled)); err != nil {
		if errors.Is(err, repository.ErrStaleWrite) {
			return nil, ErrAlreadyResolved
		}
		return nil, storeError("cancel invitation", err)
	}
	return inv, nil
}

func (s *invitationService) ListForInvitee(ctx context.Context, actorID string) ([]*repository.InvitationWithTeam, error) {
	actor, err := loadUser(ctx, s.userRepo, actorID)
	if err != nil {
		return nil, err
	}
	invitations, err := s.invitationRepo.FindActiveByEmail(ctx, actor.Email)
	if err != nil {
		return nil, storeError("list invitations", err)
	}
	return invitations, nil
}

func (s *invitationService) ListForTeam(ctx context.Context, actorID, teamID string) ([]*repository.Invitation, error) {
	actor, err := loadUser(ctx, s.userRepo, actorID)
	if err != nil {
		return nil, err
	}
	if err := requireTeamManager(actor, teamID); err != nil {
		return nil, err
	}
	invitations, err := s.invitationRepo.FindByTeam(ctx, teamID)
	if err != nil {
		return nil, storeError("list invitations", err)
	}
	return invitations, nil
}

func (s *invitationService) ExpireStale(ctx context.Context, ttl time.Duration) (int, error) {
	stale, err := s.invitationRepo.FindOpenCreatedBefore(ctx, s.now().Add(-ttl))
	if err != nil {
		return 0, storeError("find stale invitations", err)
	}

	expired := 0
	for _, inv := range stale {
		next, ok := inv.State.Withdraw()
		if !ok {
			continue
		}
		err := s.invitationRepo.Transition(ctx, inv, next, invitationActivity(inv.InvitedBy, inv, models.InvitationExpired))
		if errors.Is(err, repository.ErrStaleWrite) {
			continue
		}
		if err != nil {
			return expired, storeError("expire invitation", err)
		}
		expired++
	}
	return expired, nil
}
