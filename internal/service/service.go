package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/youlead/youlead-backend/internal/config"
	"github.com/youlead/youlead-backend/internal/repository"
	"github.com/youlead/youlead-backend/internal/socket"
)

// ============================================
// Collaborators
// ============================================

// Publisher delivers real-time events. Implemented by socket.Broadcaster.
type Publisher interface {
	IsUserOnline(userID string) bool
	BroadcastChat(room string, recipients []string, msgType socket.MessageType, payload interface{})
	BroadcastTeamEvent(teamID string, msgType socket.MessageType, payload interface{})
}

// Notifier runs best-effort side effects after a write commits.
// Implemented by notification.Service.
type Notifier interface {
	InvitationCreated(ctx context.Context, inv *repository.Invitation, team *repository.Team, inviter *repository.User)
	InvitationResolved(ctx context.Context, inv *repository.Invitation, team *repository.Team)
	MembersAssigned(ctx context.Context, item *repository.WorkItem, assigner *repository.User, uids []string)
	MembersUnassigned(ctx context.Context, item *repository.WorkItem, uids []string)
	StatusChanged(ctx context.Context, item *repository.WorkItem)
	MeetingScheduled(ctx context.Context, m *repository.Meeting, team *repository.Team, organizer *repository.User)
	MeetingCanceled(ctx context.Context, m *repository.Meeting)
}

// Cache is a JSON value cache. Implemented by db.RedisDB.
type Cache interface {
	SetCache(ctx context.Context, key string, value interface{}, expiration time.Duration) error
	GetCache(ctx context.Context, key string, dest interface{}) error
	DeleteCache(ctx context.Context, keys ...string) error
}

// PendingQueue holds direct-message ids for offline recipients.
// Implemented by db.RedisDB.
type PendingQueue interface {
	PushPending(ctx context.Context, userID, messageID string) error
	DrainPending(ctx context.Context, userID string) ([]string, error)
}

type nopPublisher struct{}

func (nopPublisher) IsUserOnline(string) bool { return false }
func (nopPublisher) BroadcastChat(string, []string, socket.MessageType, interface{}) {}
func (nopPublisher) BroadcastTeamEvent(string, socket.MessageType, interface{}) {}

type nopNotifier struct{}

func (nopNotifier) InvitationCreated(context.Context, *repository.Invitation, *repository.Team, *repository.User) {
}
func (nopNotifier) InvitationResolved(context.Context, *repository.Invitation, *repository.Team) {}
func (nopNotifier) MembersAssigned(context.Context, *repository.WorkItem, *repository.User, []string) {
}
func (nopNotifier) MembersUnassigned(context.Context, *repository.WorkItem, []string) {}
func (nopNotifier) StatusChanged(context.Context, *repository.WorkItem) {}
func (nopNotifier) MeetingScheduled(context.Context, *repository.Meeting, *repository.Team, *repository.User) {
}
func (nopNotifier) MeetingCanceled(context.Context, *repository.Meeting) {}

type nopCache struct{}

func (nopCache) SetCache(context.Context, string, interface{}, time.Duration) error { return nil }
func (nopCache) GetCache(context.Context, string, interface{}) error { return errCacheMiss }
func (nopCache) DeleteCache(context.Context, ...string) error { return nil }

type nopPending struct{}

func (nopPending) PushPending(context.Context, string, string) error { return nil }
func (nopPending) DrainPending(context.Context, string) ([]string, error) { return nil, nil }

var errCacheMiss = errors.New("cache miss")

// ============================================
// Services Container
// ============================================

type Services struct {
	Auth       AuthService
	User       UserService
	Team       TeamService
	Invitation InvitationService
	Task       WorkItemService
	Project    WorkItemService
	Chat       ChatService
	Meeting    MeetingService
	Activity   ActivityService
	Analytics  AnalyticsService
}

// ServiceDeps contains all dependencies needed to create services.
// Publisher, Notifier, Cache and Pending are optional.
type ServiceDeps struct {
	Config    *config.Config
	Logger    *zap.Logger
	Repos     *repository.Repositories
	Publisher Publisher
	Notifier  Notifier
	Cache     Cache
	Pending   PendingQueue
}

func (d *ServiceDeps) withDefaults() *ServiceDeps {
	out := *d
	if out.Logger == nil {
		out.Logger = zap.NewNop()
	}
	if out.Publisher == nil {
		out.Publisher = nopPublisher{}
	}
	if out.Notifier == nil {
		out.Notifier = nopNotifier{}
	}
	if out.Cache == nil {
		out.Cache = nopCache{}
	}
	if out.Pending == nil {
		out.Pending = nopPending{}
	}
	return &out
}

func NewServices(deps *ServiceDeps) *Services {
	d := deps.withDefaults()
	repos := d.Repos

	analytics := NewAnalyticsService(repos.AnalyticsRepo, repos.TeamRepo, repos.UserRepo)

	return &Services{
		Auth:       NewAuthService(d.Config, repos.UserRepo, repos.ActivityRepo, d.Logger),
		User:       NewUserService(repos.UserRepo, analytics),
		Team:       NewTeamService(repos.TeamRepo, repos.UserRepo, d.Publisher, d.Cache, d.Config.CacheTTL, d.Logger),
		Invitation: NewInvitationService(repos.InvitationRepo, repos.TeamRepo, repos.UserRepo, d.Notifier, d.Publisher, d.Cache, d.Logger),
		Task:       NewTaskService(repos.TaskRepo, repos.ProjectRepo, repos.UserRepo, d.Notifier, d.Logger),
		Project:    NewProjectService(repos.ProjectRepo, repos.UserRepo, d.Notifier, d.Logger),
		Chat:       NewChatService(repos.MessageRepo, repos.UserRepo, repos.TaskRepo, repos.ProjectRepo, d.Publisher, d.Pending, d.Logger),
		Meeting:    NewMeetingService(repos.MeetingRepo, repos.TeamRepo, repos.UserRepo, d.Notifier, d.Logger),
		Activity:   NewActivityService(repos.ActivityRepo, repos.UserRepo),
		Analytics:  analytics,
	}
}

// ============================================
// Shared helpers
// ============================================

// loadUser returns the user or ErrUserNotFound.
func loadUser(ctx context.Context, users repository.UserRepository, id string) (*repository.User, error) {
	user, err := users.FindByID(ctx, id)
	if err != nil {
		return nil, storeError("load user", err)
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	return user, nil
}

// loadTeam returns the team or ErrTeamNotFound.
func loadTeam(ctx context.Context, teams repository.TeamRepository, id string) (*repository.Team, error) {
	team, err := teams.FindByID(ctx, id)
	if err != nil {
		return nil, storeError("load team", err)
	}
	if team == nil {
		return nil, ErrTeamNotFound
	}
	return team, nil
}

// requireTeamManager checks that actor leads or co-leads teamID.
func requireTeamManager(actor *repository.User, teamID string) error {
	if !actor.OnTeam(teamID) || !actor.Role.CanManageTeam() {
		return ErrForbidden
	}
	return nil
}

func teamIDPtr(id string) *string { return &id }

// checkIDs rejects ids that cannot name a stored row.
func checkIDs(ids []string) error {
	for _, id := range ids {
		if _, err := uuid.Parse(id); err != nil {
			return invalid(ErrInvalidInput, "malformed id "+id)
		}
	}
	return nil
}

// requireTeammates checks every uid is an existing member of teamID.
func requireTeammates(ctx context.Context, users repository.UserRepository, teamID string, uids []string) error {
	if len(uids) == 0 {
		return nil
	}
	if err := checkIDs(uids); err != nil {
		return err
	}
	found, err := users.FindByIDs(ctx, uids)
	if err != nil {
		return storeError("load members", err)
	}
	onTeam := make(map[string]bool, len(found))
	for _, u := range found {
		onTeam[u.ID] = u.OnTeam(teamID)
	}
	for _, uid := range uids {
		if !onTeam[uid] {
			return ErrNotAMember
		}
	}
	return nil
}
