package notification

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/youlead/youlead-backend/internal/email"
	"github.com/youlead/youlead-backend/internal/repository"
	"github.com/youlead/youlead-backend/internal/socket"
)

// Mailer queues templated emails.
type Mailer interface {
	Enqueue(to []string, subject, templateName string, data interface{})
}

// Pusher delivers real-time events to users.
type Pusher interface {
	NotifyUsers(userIDs []string, msgType socket.MessageType, payload interface{})
}

// Service fans domain events out to email and websocket. Every method is
// best-effort: failures are logged and never returned.
type Service struct {
	userRepo    repository.UserRepository
	mailer      Mailer
	pusher      Pusher
	frontendURL string
	ttlDays     int
	log         *zap.Logger
}

// NewService creates a new notification service. mailer and pusher may be nil.
func NewService(
	userRepo repository.UserRepository,
	mailer Mailer,
	pusher Pusher,
	frontendURL string,
	ttlDays int,
	log *zap.Logger,
) *Service {
	return &Service{
		userRepo:    userRepo,
		mailer:      mailer,
		pusher:      pusher,
		frontendURL: frontendURL,
		ttlDays:     ttlDays,
		log:         log,
	}
}

func (s *Service) enqueue(to, subject, templateName string, data interface{}) {
	if s.mailer == nil || to == "" {
		return
	}
	s.mailer.Enqueue([]string{to}, subject, templateName, data)
}

func (s *Service) push(userIDs []string, msgType socket.MessageType, payload interface{}) {
	if s.pusher == nil || len(userIDs) == 0 {
		return
	}
	s.pusher.NotifyUsers(userIDs, msgType, payload)
}

// ============================================
// Invitation Notifications
// ============================================

// InvitationCreated emails the invitee and pushes to them if they already have an account.
func (s *Service) InvitationCreated(ctx context.Context, inv *repository.Invitation, team *repository.Team, inviter *repository.User) {
	data := email.TeamInvitationData{
		InviterName:   inviter.Name,
		TeamName:      team.Name,
		InviteURL:     fmt.Sprintf("%s/invitations", s.frontendURL),
		ExpiresInDays: s.ttlDays,
	}
	if team.Organization != nil {
		data.Organization = *team.Organization
	}
	s.enqueue(inv.InviteeEmail, email.TeamInvitationSubject(data), email.TemplateTeamInvitation, data)

	invitee, err := s.userRepo.FindByEmail(ctx, inv.InviteeEmail)
	if err != nil {
		s.log.Warn("notification: invitee lookup failed", zap.String("invitation", inv.ID), zap.Error(err))
		return
	}
	if invitee == nil {
		return
	}
	s.push([]string{invitee.ID}, socket.MessageInvitationReceived, map[string]interface{}{
		"invitationId": inv.ID,
		"teamId":       team.ID,
		"teamName":     team.Name,
		"invitedBy":    inviter.ID,
	})
}

// InvitationResolved tells the team leader how the invitee answered.
func (s *Service) InvitationResolved(ctx context.Context, inv *repository.Invitation, team *repository.Team) {
	decision := string(inv.State.InvitationStatus())

	s.push([]string{team.TeamLeaderID, inv.InvitedBy}, socket.MessageInvitationResolved, map[string]interface{}{
		"invitationId": inv.ID,
		"teamId":       team.ID,
		"inviteeEmail": inv.InviteeEmail,
		"decision":     decision,
	})

	leader, err := s.userRepo.FindByID(ctx, team.TeamLeaderID)
	if err != nil || leader == nil {
		s.log.Warn("notification: leader lookup failed", zap.String("team", team.ID), zap.Error(err))
		return
	}
	data := email.InvitationResolvedData{
		LeaderName:   leader.Name,
		InviteeEmail: inv.InviteeEmail,
		TeamName:     team.Name,
		Decision:     decision,
		TeamURL:      fmt.Sprintf("%s/teams/%s", s.frontendURL, team.ID),
	}
	s.enqueue(leader.Email, email.InvitationResolvedSubject(data), email.TemplateInvitationResolved, data)
}

// ============================================
// Task / Project Notifications
// ============================================

// MembersAssigned notifies users newly added to a task or project.
func (s *Service) MembersAssigned(ctx context.Context, item *repository.WorkItem, assigner *repository.User, uids []string) {
	s.push(uids, socket.MessageWorkItemAssigned, map[string]interface{}{
		"kind":       item.Kind,
		"id":         item.ID,
		"name":       item.Name,
		"teamId":     item.TeamID,
		"assignedBy": assigner.ID,
	})

	users, err := s.userRepo.FindByIDs(ctx, uids)
	if err != nil {
		s.log.Warn("notification: assignee lookup failed", zap.String("item", item.ID), zap.Error(err))
		return
	}

	base := email.WorkItemAssignedData{
		Kind:         string(item.Kind),
		AssignerName: assigner.Name,
		Name:         item.Name,
		Description:  item.Description,
		URL:          fmt.Sprintf("%s/%ss/%s", s.frontendURL, item.Kind, item.ID),
	}
	if item.Priority != nil {
		base.Priority = string(*item.Priority)
	}
	if d, ok := item.Deadlines.Current(); ok {
		base.Deadline = d.Format(time.RFC1123)
	}

	for _, u := range users {
		data := base
		data.AssigneeName = u.Name
		s.enqueue(u.Email, email.WorkItemAssignedSubject(data), email.TemplateWorkItemAssigned, data)
	}
}

// MembersUnassigned pushes a removal event to users taken off a task or project.
func (s *Service) MembersUnassigned(ctx context.Context, item *repository.WorkItem, uids []string) {
	s.push(uids, socket.MessageWorkItemUnassigned, map[string]interface{}{
		"kind":   item.Kind,
		"id":     item.ID,
		"teamId": item.TeamID,
	})
}

// StatusChanged pushes a status change to the item's members.
func (s *Service) StatusChanged(ctx context.Context, item *repository.WorkItem) {
	s.push(item.Members, socket.MessageWorkItemStatusChanged, map[string]interface{}{
		"kind":   item.Kind,
		"id":     item.ID,
		"status": item.Status,
	})
}

// ============================================
// Meeting Notifications
// ============================================

// MeetingScheduled notifies the attendees, or the whole team when none are listed.
func (s *Service) MeetingScheduled(ctx context.Context, m *repository.Meeting, team *repository.Team, organizer *repository.User) {
	var (
		users []*repository.User
		err   error
	)
	if len(m.Attendees) > 0 {
		users, err = s.userRepo.FindByIDs(ctx, m.Attendees)
	} else {
		users, err = s.userRepo.FindByTeam(ctx, team.ID)
	}
	if err != nil {
		s.log.Warn("notification: attendee lookup failed", zap.String("meeting", m.ID), zap.Error(err))
		return
	}

	ids := make([]string, 0, len(users))
	for _, u := range users {
		if u.ID != organizer.ID {
			ids = append(ids, u.ID)
		}
	}
	s.push(ids, socket.MessageMeetingScheduled, map[string]interface{}{
		"meetingId": m.ID,
		"teamId":    team.ID,
		"title":     m.Title,
		"startsAt":  m.StartsAt,
	})

	for _, u := range users {
		if u.ID == organizer.ID {
			continue
		}
		data := email.MeetingScheduledData{
			AttendeeName:    u.Name,
			OrganizerName:   organizer.Name,
			TeamName:        team.Name,
			Title:           m.Title,
			StartsAt:        m.StartsAt.Format(time.RFC1123),
			DurationMinutes: m.DurationMinutes,
		}
		if m.Agenda != nil {
			data.Agenda = *m.Agenda
		}
		s.enqueue(u.Email, email.MeetingScheduledSubject(data), email.TemplateMeetingScheduled, data)
	}
}

// MeetingCanceled pushes a cancellation to the team room members.
func (s *Service) MeetingCanceled(ctx context.Context, m *repository.Meeting) {
	users, err := s.userRepo.FindByTeam(ctx, m.TeamID)
	if err != nil {
		s.log.Warn("notification: team lookup failed", zap.String("meeting", m.ID), zap.Error(err))
		return
	}
	ids := make([]string, 0, len(users))
	for _, u := range users {
		ids = append(ids, u.ID)
	}
	s.push(ids, socket.MessageMeetingCanceled, map[string]interface{}{
		"meetingId": m.ID,
		"teamId":    m.TeamID,
	})
}
