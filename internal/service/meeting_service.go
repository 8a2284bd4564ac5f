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
	"github.com/youlead/youlead-backend/internal/types"
)

// ============================================
// Meeting Service
// ============================================

type ScheduleMeetingInput struct {
	Title           string
	Agenda          *string
	StartsAt        time.Time
	DurationMinutes int
	Attendees       []string
}

type MeetingService interface {
	Schedule(ctx context.Context, actorID, teamID string, input *ScheduleMeetingInput) (*repository.Meeting, error)
	// List returns the team's meetings starting at or after from.
	List(ctx context.Context, actorID, teamID string, from time.Time) ([]*repository.Meeting, error)
	Cancel(ctx context.Context, actorID, meetingID string) (*repository.Meeting, error)
}

type meetingService struct {
	meetingRepo repository.MeetingRepository
	teamRepo    repository.TeamRepository
	userRepo    repository.UserRepository
	notifier    Notifier
	log         *zap.Logger
	now         func() time.Time
}

func NewMeetingService(
	meetingRepo repository.MeetingRepository,
	teamRepo repository.TeamRepository,
	userRepo repository.UserRepository,
	notifier Notifier,
	log *zap.Logger,
) MeetingService {
	return &meetingService{
		meetingRepo: meetingRepo,
		teamRepo:    teamRepo,
		userRepo:    userRepo,
		notifier:    notifier,
		log:         log,
		now:         time.Now,
	}
}

func meetingActivity(actorID string, m *repository.Meeting, typ models.MeetingActivityType) *models.Activity {
	return models.NewActivity(actorID, teamIDPtr(m.TeamID), models.MeetingActivity{
		Type:      typ,
		MeetingID: m.ID,
		Title:     m.Title,
		StartsAt:  m.StartsAt,
	})
}

func (s *meetingService) Schedule(ctx context.Context, actorID, teamID string, input *ScheduleMeetingInput) (*repository.Meeting, error) {
	title := strings.TrimSpace(input.Title)
	if title == "" {
		return nil, invalid(ErrInvalidInput, "title is required")
	}
	if input.DurationMinutes <= 0 {
		return nil, invalid(ErrInvalidInput, "duration must be positive")
	}
	if input.StartsAt.Before(s.now()) {
		return nil, invalid(ErrInvalidInput, "meeting must start in the future")
	}

	actor, err := loadUser(ctx, s.userRepo, actorID)
	if err != nil {
		return nil, err
	}
	if err := requireTeamManager(actor, teamID); err != nil {
		return nil, err
	}
	team, err := loadTeam(ctx, s.teamRepo, teamID)
	if err != nil {
		return nil, err
	}

	attendees := dedupe(input.Attendees)
	if len(attendees) == 0 {
		members, err := s.userRepo.FindByTeam(ctx, teamID)
		if err != nil {
			return nil, storeError("list members", err)
		}
		for _, m := range members {
			attendees = append(attendees, m.ID)
		}
	} else if err := requireTeammates(ctx, s.userRepo, teamID, attendees); err != nil {
		return nil, err
	}

	meeting := &repository.Meeting{
		ID:              uuid.NewString(),
		TeamID:          teamID,
		Title:           title,
		Agenda:          input.Agenda,
		StartsAt:        input.StartsAt.UTC(),
		DurationMinutes: input.DurationMinutes,
		Attendees:       attendees,
		CreatedBy:       actor.ID,
	}
	if err := s.meetingRepo.Create(ctx, meeting, meetingActivity(actor.ID, meeting, models.MeetingScheduled)); err != nil {
		return nil, storeError("schedule meeting", err)
	}

	s.log.Info("meeting scheduled", zap.String("meeting", meeting.ID), zap.String("team", teamID), zap.Time("startsAt", meeting.StartsAt))
	s.notifier.MeetingScheduled(ctx, meeting, team, actor)
	return meeting, nil
}

func (s *meetingService) List(ctx context.Context, actorID, teamID string, from time.Time) ([]*repository.Meeting, error) {
	actor, err := loadUser(ctx, s.userRepo, actorID)
	if err != nil {
		return nil, err
	}
	if !actor.OnTeam(teamID) && actor.Role != types.RoleAdmin {
		return nil, ErrForbidden
	}
	if from.IsZero() {
		from = s.now()
	}

	meetings, err := s.meetingRepo.ListByTeam(ctx, teamID, from)
	if err != nil {
		return nil, storeError("list meetings", err)
	}
	if meetings == nil {
		meetings = []*repository.Meeting{}
	}
	return meetings, nil
}

func (s *meetingService) Cancel(ctx context.Context, actorID, meetingID string) (*repository.Meeting, error) {
	if _, err := uuid.Parse(meetingID); err != nil {
		return nil, ErrMeetingNotFound
	}
	meeting, err := s.meetingRepo.FindByID(ctx, meetingID)
	if err != nil {
		return nil, storeError("load meeting", err)
	}
	if meeting == nil {
		return nil, ErrMeetingNotFound
	}
	actor, err := loadUser(ctx, s.userRepo, actorID)
	if err != nil {
		return nil, err
	}
	if actor.ID != meeting.CreatedBy {
		if err := requireTeamManager(actor, meeting.TeamID); err != nil {
			return nil, err
		}
	}
	if meeting.Canceled {
		return nil, ErrMeetingCanceled
	}

	if err := s.meetingRepo.Cancel(ctx, meeting, meetingActivity(actor.ID, meeting, models.MeetingCanceled)); err != nil {
		if errors.Is(err, repository.ErrStaleWrite) {
			return nil, ErrMeetingCanceled
		}
		return nil, storeError("cancel meeting", err)
	}

	s.notifier.MeetingCanceled(ctx, meeting)
	return meeting, nil
}
