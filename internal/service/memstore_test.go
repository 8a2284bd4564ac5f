package service

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/youlead/youlead-backend/internal/models"
	"github.com/youlead/youlead-backend/internal/repository"
	"github.com/youlead/youlead-backend/internal/socket"
	"github.com/youlead/youlead-backend/internal/types"
)

// memStore is an in-memory datastore with the same conditional-write
// contract as the postgres repositories. Reads return copies.
type memStore struct {
	mu          sync.Mutex
	users       map[string]*repository.User
	tokens      map[string]*repository.RefreshToken
	teams       map[string]*repository.Team
	invitations map[string]*repository.Invitation
	items       map[types.EntityKind]map[string]*repository.WorkItem
	activities  []*models.Activity
	messages    []*repository.Message
	reads       map[string][]string
	meetings    map[string]*repository.Meeting
	seq         int64
	// now stamps created rows
	now func() time.Time
}

func newMemStore() *memStore {
	return &memStore{
		users:       map[string]*repository.User{},
		tokens:      map[string]*repository.RefreshToken{},
		teams:       map[string]*repository.Team{},
		invitations: map[string]*repository.Invitation{},
		items: map[types.EntityKind]map[string]*repository.WorkItem{
			types.KindTask:    {},
			types.KindProject: {},
		},
		reads:    map[string][]string{},
		meetings: map[string]*repository.Meeting{},
		now:      time.Now,
	}
}

func (m *memStore) repos() *repository.Repositories {
	return &repository.Repositories{
		UserRepo:       memUsers{m},
		TeamRepo:       memTeams{m},
		InvitationRepo: memInvitations{m},
		TaskRepo:       memItems{m, types.KindTask},
		ProjectRepo:    memItems{m, types.KindProject},
		ActivityRepo:   memActivities{m},
		MessageRepo:    memMessages{m},
		MeetingRepo:    memMeetings{m},
		AnalyticsRepo:  memAnalytics{m},
	}
}

// addUser seeds a user; teamID may be empty.
func (m *memStore) addUser(name string, role types.Role, teamID string) *repository.User {
	m.mu.Lock()
	defer m.mu.Unlock()
	u := &repository.User{
		ID:            uuid.NewString(),
		Name:          name,
		Email:         strings.ToLower(name) + "@example.com",
		Role:          role,
		AccountStatus: types.AccountActive,
		CreatedAt:     time.Now(),
	}
	if teamID != "" {
		u.TeamID = &teamID
	}
	m.users[u.ID] = u
	cp := *u
	return &cp
}

// addTeam seeds a team led by a new user and returns both.
func (m *memStore) addTeam(name string) (*repository.Team, *repository.User) {
	teamID := uuid.NewString()
	leader := m.addUser(name+"Leader", types.RoleTeamLeader, teamID)
	m.mu.Lock()
	defer m.mu.Unlock()
	team := &repository.Team{ID: teamID, Name: name, TeamLeaderID: leader.ID, CreatedAt: time.Now()}
	m.teams[teamID] = team
	cp := *team
	return &cp, leader
}

func (m *memStore) user(id string) *repository.User {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *m.users[id]
	return &cp
}

func (m *memStore) activitiesOf(ctx types.ActivityContext) []*models.Activity {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*models.Activity
	for _, a := range m.activities {
		if a.Context() == ctx {
			out = append(out, a)
		}
	}
	return out
}

func (m *memStore) appendActivity(a *models.Activity) {
	if a == nil {
		return
	}
	cp := *a
	cp.ID = uuid.NewString()
	cp.CreatedAt = time.Now()
	m.activities = append(m.activities, &cp)
}

// ============================================
// Users
// ============================================

type memUsers struct{ *memStore }

func (r memUsers) Create(_ context.Context, user *repository.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if strings.EqualFold(u.Email, user.Email) {
			return repository.ErrDuplicate
		}
	}
	user.ID = uuid.NewString()
	user.CreatedAt = time.Now()
	user.UpdatedAt = user.CreatedAt
	cp := *user
	r.users[user.ID] = &cp
	return nil
}

func (r memUsers) FindByID(_ context.Context, id string) (*repository.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return nil, nil
	}
	cp := *u
	return &cp, nil
}

func (r memUsers) FindByEmail(_ context.Context, email string) (*repository.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if strings.EqualFold(u.Email, email) {
			cp := *u
			return &cp, nil
		}
	}
	return nil, nil
}

func (r memUsers) FindByIDs(_ context.Context, ids []string) ([]*repository.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*repository.User
	for _, id := range ids {
		if u, ok := r.users[id]; ok {
			cp := *u
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r memUsers) FindByTeam(_ context.Context, teamID string) ([]*repository.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*repository.User
	for _, u := range r.users {
		if u.OnTeam(teamID) {
			cp := *u
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r memUsers) UpdateProfile(_ context.Context, user *repository.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[user.ID]
	if !ok {
		return repository.ErrStaleWrite
	}
	u.Name, u.Phone, u.Picture = user.Name, user.Phone, user.Picture
	return nil
}

func (r memUsers) UpdateAccountStatus(_ context.Context, id string, status types.AccountStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return repository.ErrStaleWrite
	}
	u.AccountStatus = status
	return nil
}

func (r memUsers) UpdateLastActive(context.Context, string) error { return nil }

func (r memUsers) SaveRefreshToken(_ context.Context, token *repository.RefreshToken) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *token
	r.tokens[token.Token] = &cp
	return nil
}

func (r memUsers) FindRefreshToken(_ context.Context, token string) (*repository.RefreshToken, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tokens[token]
	if !ok {
		return nil, nil
	}
	cp := *t
	return &cp, nil
}

func (r memUsers) DeleteRefreshToken(_ context.Context, token string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.tokens, token)
	return nil
}

func (r memUsers) DeleteUserRefreshTokens(_ context.Context, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for k, t := range r.tokens {
		if t.UserID == userID {
			delete(r.tokens, k)
		}
	}
	return nil
}

// ============================================
// Teams
// ============================================

type memTeams struct{ *memStore }

// assign is the conditional team assignment shared by every membership write.
func (r memTeams) assign(userID, teamID string, role types.Role) error {
	u, ok := r.users[userID]
	if !ok || u.TeamID != nil || u.Role == types.RoleAdmin {
		return repository.ErrUserOnTeam
	}
	u.TeamID = &teamID
	u.Role = role
	return nil
}

func (r memTeams) CreateWithLeader(_ context.Context, team *repository.Team, activity *models.Activity) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.assign(team.TeamLeaderID, team.ID, types.RoleTeamLeader); err != nil {
		return err
	}
	team.CreatedAt = time.Now()
	cp := *team
	r.teams[team.ID] = &cp
	r.appendActivity(activity)
	return nil
}

func (r memTeams) FindByID(_ context.Context, id string) (*repository.Team, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.teams[id]
	if !ok {
		return nil, nil
	}
	cp := *t
	return &cp, nil
}

func (r memTeams) FindSummary(_ context.Context, id string) (*repository.TeamSummary, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.teams[id]
	if !ok {
		return nil, nil
	}
	summary := &repository.TeamSummary{Team: *t}
	if leader, ok := r.users[t.TeamLeaderID]; ok {
		summary.LeaderName = leader.Name
	}
	for _, u := range r.users {
		if u.OnTeam(id) {
			summary.MemberCount++
		}
	}
	return summary, nil
}

func (r memTeams) AddMember(_ context.Context, teamID, userID string, role types.Role, activity *models.Activity) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.assign(userID, teamID, role); err != nil {
		return err
	}
	r.appendActivity(activity)
	return nil
}

func (r memTeams) RemoveMember(_ context.Context, teamID, userID string, activity *models.Activity) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[userID]
	if !ok || !u.OnTeam(teamID) || (u.Role != types.RoleTeamMember && u.Role != types.RoleCoLeader) {
		return repository.ErrStaleWrite
	}
	u.TeamID = nil
	u.Role = types.RoleUnassigned
	for _, inv := range r.invitations {
		if inv.TeamID == teamID && strings.EqualFold(inv.InviteeEmail, u.Email) &&
			inv.State.InvitationStatus() == models.InvitationStatusAccepted {
			inv.InviteeLeft = true
		}
	}
	r.appendActivity(activity)
	return nil
}

func (r memTeams) UpdateMemberRole(_ context.Context, teamID, userID string, from, to types.Role, activity *models.Activity) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[userID]
	if !ok || !u.OnTeam(teamID) || u.Role != from {
		return repository.ErrStaleWrite
	}
	u.Role = to
	r.appendActivity(activity)
	return nil
}

// ============================================
// Invitations
// ============================================

type memInvitations struct{ *memStore }

func (r memInvitations) Create(_ context.Context, inv *repository.Invitation, activity *models.Activity) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.invitations {
		if existing.State == models.StateOpen && existing.TeamID == inv.TeamID &&
			strings.EqualFold(existing.InviteeEmail, inv.InviteeEmail) {
			return repository.ErrDuplicate
		}
	}
	inv.State = models.StateOpen
	inv.CreatedAt = time.Now()
	inv.UpdatedAt = inv.CreatedAt
	cp := *inv
	r.invitations[inv.ID] = &cp
	r.appendActivity(activity)
	return nil
}

func (r memInvitations) FindByID(_ context.Context, id string) (*repository.Invitation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	inv, ok := r.invitations[id]
	if !ok {
		return nil, nil
	}
	cp := *inv
	return &cp, nil
}

func (r memInvitations) HasOpen(_ context.Context, teamID, email string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, inv := range r.invitations {
		if inv.State == models.StateOpen && inv.TeamID == teamID && strings.EqualFold(inv.InviteeEmail, email) {
			return true, nil
		}
	}
	return false, nil
}

func (r memInvitations) sorted(keep func(*repository.Invitation) bool) []*repository.Invitation {
	var out []*repository.Invitation
	for _, inv := range r.invitations {
		if keep(inv) {
			cp := *inv
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

func (r memInvitations) FindActiveByEmail(_ context.Context, email string) ([]*repository.InvitationWithTeam, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*repository.InvitationWithTeam
	for _, inv := range r.sorted(func(inv *repository.Invitation) bool {
		return inv.State.IsActive() && strings.EqualFold(inv.InviteeEmail, email)
	}) {
		var summary *repository.TeamSummary
		if t, ok := r.teams[inv.TeamID]; ok {
			summary = &repository.TeamSummary{Team: *t}
		}
		out = append(out, &repository.InvitationWithTeam{Invitation: inv, Team: summary})
	}
	return out, nil
}

func (r memInvitations) FindByTeam(_ context.Context, teamID string) ([]*repository.Invitation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.sorted(func(inv *repository.Invitation) bool { return inv.TeamID == teamID }), nil
}

func (r memInvitations) FindOpenCreatedBefore(_ context.Context, cutoff time.Time) ([]*repository.Invitation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.sorted(func(inv *repository.Invitation) bool {
		return inv.State == models.StateOpen && inv.CreatedAt.Before(cutoff)
	}), nil
}

// swap is the compare-and-swap on the stored state.
func (r memInvitations) swap(inv *repository.Invitation, to models.InvitationState) error {
	stored, ok := r.invitations[inv.ID]
	if !ok || stored.State != inv.State {
		return repository.ErrStaleWrite
	}
	stored.State = to
	stored.UpdatedAt = time.Now()
	if !to.IsPending() {
		now := time.Now()
		stored.RespondedAt = &now
	}
	*inv = *stored
	return nil
}

func (r memInvitations) Accept(_ context.Context, inv *repository.Invitation, userID string, role types.Role, activity *models.Activity) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.invitations[inv.ID]
	if !ok || stored.State != inv.State || inv.State != models.StateOpen {
		return repository.ErrStaleWrite
	}
	if err := (memTeams{r.memStore}).assign(userID, inv.TeamID, role); err != nil {
		return err
	}
	if err := r.swap(inv, models.StateAcceptedArchived); err != nil {
		return err
	}
	r.appendActivity(activity)
	return nil
}

func (r memInvitations) Transition(_ context.Context, inv *repository.Invitation, to models.InvitationState, activity *models.Activity) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.swap(inv, to); err != nil {
		return err
	}
	r.appendActivity(activity)
	return nil
}

// ============================================
// Work items
// ============================================

type memItems struct {
	*memStore
	kind types.EntityKind
}

func copyItem(item *repository.WorkItem) *repository.WorkItem {
	cp := *item
	cp.Members = append([]string{}, item.Members...)
	cp.Deadlines = append(models.Deadlines{}, item.Deadlines...)
	return &cp
}

func (r memItems) Kind() types.EntityKind { return r.kind }

func (r memItems) Create(_ context.Context, item *repository.WorkItem, activity *models.Activity) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if item.Members == nil {
		item.Members = []string{}
	}
	item.CreatedAt = r.now()
	item.UpdatedAt = item.CreatedAt
	r.items[r.kind][item.ID] = copyItem(item)
	r.appendActivity(activity)
	return nil
}

func (r memItems) FindByID(_ context.Context, id string) (*repository.WorkItem, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	item, ok := r.items[r.kind][id]
	if !ok {
		return nil, nil
	}
	return copyItem(item), nil
}

func (r memItems) List(_ context.Context, filter repository.WorkItemFilter) ([]*repository.WorkItem, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*repository.WorkItem
	for _, item := range r.items[r.kind] {
		if item.TeamID != filter.TeamID {
			continue
		}
		if filter.MemberID != nil && !item.HasMember(*filter.MemberID) {
			continue
		}
		if filter.Status != nil && item.Status != *filter.Status {
			continue
		}
		if filter.ProjectID != nil && (item.ProjectID == nil || *item.ProjectID != *filter.ProjectID) {
			continue
		}
		out = append(out, copyItem(item))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r memItems) UpdateStatus(_ context.Context, id string, from, to types.EntityStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	item, ok := r.items[r.kind][id]
	if !ok || item.Status != from || item.Status == types.StatusCompleted {
		return repository.ErrStaleWrite
	}
	item.Status = to
	return nil
}

func (r memItems) MarkComplete(_ context.Context, item *repository.WorkItem, activity *models.Activity) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.items[r.kind][item.ID]
	if !ok || stored.Status == types.StatusCompleted {
		return repository.ErrStaleWrite
	}
	now := time.Now()
	stored.Status = types.StatusCompleted
	stored.CompletedAt = &now
	*item = *copyItem(stored)
	r.appendActivity(activity)
	return nil
}

func (r memItems) PrependDeadline(_ context.Context, item *repository.WorkItem, deadline time.Time, status types.EntityStatus, activity *models.Activity) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.items[r.kind][item.ID]
	if !ok {
		return repository.ErrStaleWrite
	}
	stored.Deadlines = stored.Deadlines.Prepend(deadline)
	if stored.Status != types.StatusCompleted {
		stored.Status = status
	}
	*item = *copyItem(stored)
	r.appendActivity(activity)
	return nil
}

func (r memItems) AddMembers(_ context.Context, item *repository.WorkItem, uids []string, activity *models.Activity) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.items[r.kind][item.ID]
	if !ok {
		return repository.ErrStaleWrite
	}
	for _, uid := range uids {
		if stored.HasMember(uid) {
			return repository.ErrStaleWrite
		}
	}
	stored.Members = append(stored.Members, uids...)
	*item = *copyItem(stored)
	r.appendActivity(activity)
	return nil
}

func (r memItems) RemoveMembers(_ context.Context, item *repository.WorkItem, uids []string, activity *models.Activity) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.items[r.kind][item.ID]
	if !ok {
		return repository.ErrStaleWrite
	}
	drop := map[string]bool{}
	for _, uid := range uids {
		if !stored.HasMember(uid) {
			return repository.ErrStaleWrite
		}
		drop[uid] = true
	}
	kept := []string{}
	for _, m := range stored.Members {
		if !drop[m] {
			kept = append(kept, m)
		}
	}
	stored.Members = kept
	*item = *copyItem(stored)
	r.appendActivity(activity)
	return nil
}

func (r memItems) MarkPastDue(_ context.Context, now time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for _, item := range r.items[r.kind] {
		if d, ok := item.Deadlines.Current(); ok && item.Status == types.StatusPending && d.Before(now) {
			item.Status = types.StatusPastDue
			n++
		}
	}
	return n, nil
}

// ============================================
// Activities
// ============================================

type memActivities struct{ *memStore }

func (r memActivities) Create(_ context.Context, activity *models.Activity) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.appendActivity(activity)
	return nil
}

func (r memActivities) FindByTeam(_ context.Context, teamID string, filter *types.ActivityContext, limit int) ([]*models.Activity, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.Activity
	for i := len(r.activities) - 1; i >= 0 && len(out) < limit; i-- {
		a := r.activities[i]
		if a.TeamID == nil || *a.TeamID != teamID {
			continue
		}
		if filter != nil && a.Context() != *filter {
			continue
		}
		out = append(out, a)
	}
	return out, nil
}

func (r memActivities) FindByActor(_ context.Context, actorID string, limit int) ([]*models.Activity, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.Activity
	for i := len(r.activities) - 1; i >= 0 && len(out) < limit; i-- {
		if r.activities[i].ActorID == actorID {
			out = append(out, r.activities[i])
		}
	}
	return out, nil
}

// ============================================
// Messages
// ============================================

type memMessages struct{ *memStore }

// load copies a message with its read set joined in.
func (r memMessages) load(msg *repository.Message) *repository.Message {
	cp := *msg
	cp.ReadBy = models.ReadSet{}
	for _, uid := range r.reads[msg.ID] {
		p := models.ReaderProfile{UID: uid}
		if u, ok := r.users[uid]; ok {
			p.Name, p.Picture = u.Name, u.Picture
		}
		cp.ReadBy, _ = cp.ReadBy.Add(p)
	}
	return &cp
}

func (r memMessages) Create(_ context.Context, msg *repository.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq++
	msg.ID = uuid.NewString()
	msg.Seq = r.seq
	msg.ReadBy = models.ReadSet{}
	msg.CreatedAt = time.Now()
	msg.UpdatedAt = msg.CreatedAt
	cp := *msg
	r.messages = append(r.messages, &cp)
	return nil
}

func (r memMessages) FindByID(_ context.Context, id string) (*repository.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, msg := range r.messages {
		if msg.ID == id {
			return r.load(msg), nil
		}
	}
	return nil, nil
}

func (r memMessages) FindByIDs(_ context.Context, ids []string) ([]*repository.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	want := map[string]bool{}
	for _, id := range ids {
		want[id] = true
	}
	var out []*repository.Message
	for _, msg := range r.messages {
		if want[msg.ID] {
			out = append(out, r.load(msg))
		}
	}
	return out, nil
}

func (r memMessages) ListConversation(_ context.Context, q repository.ConversationQuery) ([]*repository.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*repository.Message
	for _, msg := range r.messages {
		if msg.SentIn != q.SentIn || (q.BeforeSeq > 0 && msg.Seq >= q.BeforeSeq) {
			continue
		}
		if q.SentIn == types.ChatDM {
			forward := msg.SentBy == q.Peer && msg.ReceivedBy == q.ReceivedBy
			backward := msg.SentBy == q.ReceivedBy && msg.ReceivedBy == q.Peer
			if !forward && !backward {
				continue
			}
		} else if msg.ReceivedBy != q.ReceivedBy {
			continue
		}
		out = append(out, r.load(msg))
	}
	if q.Limit > 0 && len(out) > q.Limit {
		out = out[len(out)-q.Limit:]
	}
	return out, nil
}

func (r memMessages) AddReader(_ context.Context, messageID, readerID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, uid := range r.reads[messageID] {
		if uid == readerID {
			return false, nil
		}
	}
	r.reads[messageID] = append(r.reads[messageID], readerID)
	return true, nil
}

func (r memMessages) UpdateContent(_ context.Context, id, content string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, msg := range r.messages {
		if msg.ID == id {
			msg.MsgContent = content
			msg.Editted = true
			return nil
		}
	}
	return repository.ErrStaleWrite
}

// ============================================
// Meetings
// ============================================

type memMeetings struct{ *memStore }

func (r memMeetings) Create(_ context.Context, meeting *repository.Meeting, activity *models.Activity) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	meeting.CreatedAt = time.Now()
	cp := *meeting
	r.meetings[meeting.ID] = &cp
	r.appendActivity(activity)
	return nil
}

func (r memMeetings) FindByID(_ context.Context, id string) (*repository.Meeting, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.meetings[id]
	if !ok {
		return nil, nil
	}
	cp := *m
	return &cp, nil
}

func (r memMeetings) ListByTeam(_ context.Context, teamID string, from time.Time) ([]*repository.Meeting, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*repository.Meeting
	for _, m := range r.meetings {
		if m.TeamID == teamID && !m.StartsAt.Before(from) {
			cp := *m
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartsAt.Before(out[j].StartsAt) })
	return out, nil
}

func (r memMeetings) Cancel(_ context.Context, meeting *repository.Meeting, activity *models.Activity) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.meetings[meeting.ID]
	if !ok || m.Canceled {
		return repository.ErrStaleWrite
	}
	m.Canceled = true
	meeting.Canceled = true
	r.appendActivity(activity)
	return nil
}

// ============================================
// Analytics
// ============================================

type memAnalytics struct{ *memStore }

func (r memAnalytics) TeamStatusCounts(_ context.Context, kind types.EntityKind, teamID string) ([]repository.StatusCount, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	counts := map[types.EntityStatus]int{}
	for _, item := range r.items[kind] {
		if item.TeamID == teamID {
			counts[item.Status]++
		}
	}
	var out []repository.StatusCount
	for status, n := range counts {
		out = append(out, repository.StatusCount{Status: status, Count: n})
	}
	return out, nil
}

func (r memAnalytics) MemberStatusCounts(_ context.Context, kind types.EntityKind, memberIDs []string) ([]repository.MemberStatusCount, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []repository.MemberStatusCount
	for _, id := range memberIDs {
		counts := map[types.EntityStatus]int{}
		for _, item := range r.items[kind] {
			if item.HasMember(id) {
				counts[item.Status]++
			}
		}
		for status, n := range counts {
			out = append(out, repository.MemberStatusCount{MemberID: id, Status: status, Count: n})
		}
	}
	return out, nil
}

// ============================================
// Collaborator fakes
// ============================================

type publishedEvent struct {
	Room       string
	Recipients []string
	Type       socket.MessageType
	Payload    interface{}
}

// recordingPublisher records every event in publish order.
type recordingPublisher struct {
	mu     sync.Mutex
	online map[string]bool
	events []publishedEvent
}

func (p *recordingPublisher) IsUserOnline(userID string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.online[userID]
}

func (p *recordingPublisher) BroadcastChat(room string, recipients []string, msgType socket.MessageType, payload interface{}) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, publishedEvent{room, recipients, msgType, payload})
}

func (p *recordingPublisher) BroadcastTeamEvent(teamID string, msgType socket.MessageType, payload interface{}) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, publishedEvent{Room: socket.TeamRoom(teamID), Type: msgType, Payload: payload})
}

func (p *recordingPublisher) ofType(t socket.MessageType) []publishedEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []publishedEvent
	for _, e := range p.events {
		if e.Type == t {
			out = append(out, e)
		}
	}
	return out
}

type memPending struct {
	mu    sync.Mutex
	queue map[string][]string
}

func (q *memPending) PushPending(_ context.Context, userID, messageID string) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.queue == nil {
		q.queue = map[string][]string{}
	}
	q.queue[userID] = append(q.queue[userID], messageID)
	return nil
}

func (q *memPending) DrainPending(_ context.Context, userID string) ([]string, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	ids := q.queue[userID]
	delete(q.queue, userID)
	return ids, nil
}

// countingNotifier counts side effects by name.
type countingNotifier struct {
	mu    sync.Mutex
	calls map[string]int
}

func (n *countingNotifier) inc(name string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.calls == nil {
		n.calls = map[string]int{}
	}
	n.calls[name]++
}

func (n *countingNotifier) count(name string) int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.calls[name]
}

func (n *countingNotifier) InvitationCreated(context.Context, *repository.Invitation, *repository.Team, *repository.User) {
	n.inc("InvitationCreated")
}

func (n *countingNotifier) InvitationResolved(context.Context, *repository.Invitation, *repository.Team) {
	n.inc("InvitationResolved")
}

func (n *countingNotifier) MembersAssigned(context.Context, *repository.WorkItem, *repository.User, []string) {
	n.inc("MembersAssigned")
}

func (n *countingNotifier) MembersUnassigned(context.Context, *repository.WorkItem, []string) {
	n.inc("MembersUnassigned")
}

func (n *countingNotifier) StatusChanged(context.Context, *repository.WorkItem) {
	n.inc("StatusChanged")
}

func (n *countingNotifier) MeetingScheduled(context.Context, *repository.Meeting, *repository.Team, *repository.User) {
	n.inc("MeetingScheduled")
}

func (n *countingNotifier) MeetingCanceled(context.Context, *repository.Meeting) {
	n.inc("MeetingCanceled")
}
