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
// Work Item Service (tasks and projects)
// ============================================

type CreateWorkItemInput struct {
	Name        string
	Description string
	ProjectID   *string
	Priority    *types.Priority
	Deadline    *string
	Members     []string
}

type ListWorkItemsInput struct {
	TeamID    string
	ProjectID *string
	MemberID  *string
	Status    *types.EntityStatus
	Limit     int
	Offset    int
}

// WorkItemService is the status engine for one kind of work item.
type WorkItemService interface {
	Kind() types.EntityKind
	Create(ctx context.Context, actorID string, input *CreateWorkItemInput) (*repository.WorkItem, error)
	// Get derives the status at read time and persists it when it changed.
	Get(ctx context.Context, actorID, id string) (*repository.WorkItem, error)
	List(ctx context.Context, actorID string, input *ListWorkItemsInput) ([]*repository.WorkItem, error)
	MarkComplete(ctx context.Context, actorID, id string) (*repository.WorkItem, error)
	ChangeDeadline(ctx context.Context, actorID, id, deadline string) (*repository.WorkItem, error)
	AssignMembers(ctx context.Context, actorID, id string, uids []string) (*repository.WorkItem, error)
	UnassignMembers(ctx context.Context, actorID, id string, uids []string) (*repository.WorkItem, error)
	// SweepPastDue moves every pending item whose deadline elapsed to pastDue.
	SweepPastDue(ctx context.Context) (int64, error)
}

type workItemService struct {
	kind        types.EntityKind
	repo        repository.WorkItemRepository
	projectRepo repository.WorkItemRepository
	userRepo    repository.UserRepository
	notifier    Notifier
	log         *zap.Logger
	now         func() time.Time
}

// NewTaskService creates the status engine for tasks. projectRepo resolves a
// task's parent project.
func NewTaskService(
	taskRepo repository.WorkItemRepository,
	projectRepo repository.WorkItemRepository,
	userRepo repository.UserRepository,
	notifier Notifier,
	log *zap.Logger,
) WorkItemService {
	return &workItemService{
		kind:        types.KindTask,
		repo:        taskRepo,
		projectRepo: projectRepo,
		userRepo:    userRepo,
		notifier:    notifier,
		log:         log,
		now:         time.Now,
	}
}

// NewProjectService creates the status engine for projects.
func NewProjectService(
	projectRepo repository.WorkItemRepository,
	userRepo repository.UserRepository,
	notifier Notifier,
	log *zap.Logger,
) WorkItemService {
	return &workItemService{
		kind:     types.KindProject,
		repo:     projectRepo,
		userRepo: userRepo,
		notifier: notifier,
		log:      log,
		now:      time.Now,
	}
}

func (s *workItemService) Kind() types.EntityKind { return s.kind }

func (s *workItemService) notFound() error {
	if s.kind == types.KindProject {
		return ErrProjectNotFound
	}
	return ErrTaskNotFound
}

func (s *workItemService) activity(actorID string, item *repository.WorkItem, typ models.WorkItemActivityType, members []string, deadline *time.Time) *models.Activity {
	return models.NewActivity(actorID, teamIDPtr(item.TeamID), models.WorkItemActivity{
		Kind:      s.kind,
		Type:      typ,
		ItemID:    item.ID,
		ItemName:  item.Name,
		ProjectID: item.ProjectID,
		Members:   members,
		Deadline:  deadline,
	})
}

// load returns the item if actor may see it. Admins see every team.
func (s *workItemService) load(ctx context.Context, actor *repository.User, id string) (*repository.WorkItem, error) {
	item, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, storeError("load "+string(s.kind), err)
	}
	if item == nil {
		return nil, s.notFound()
	}
	if !actor.OnTeam(item.TeamID) && actor.Role != types.RoleAdmin {
		return nil, ErrForbidden
	}
	return item, nil
}

// canModify allows the creator, a member, or a leader of the item's team.
func canModify(actor *repository.User, item *repository.WorkItem) bool {
	if !actor.OnTeam(item.TeamID) {
		return false
	}
	return actor.ID == item.CreatedBy || item.HasMember(actor.ID) || actor.Role.CanManageTeam()
}

// canAssign allows the creator or a leader of the item's team.
func canAssign(actor *repository.User, item *repository.WorkItem) bool {
	if !actor.OnTeam(item.TeamID) {
		return false
	}
	return actor.ID == item.CreatedBy || actor.Role.CanManageTeam()
}

// refresh applies the status policy and persists a changed status. A lost
// race leaves the stored value alone; the next read derives again.
func (s *workItemService) refresh(ctx context.Context, item *repository.WorkItem) {
	derived := models.DeriveStatus(item.Status, item.Deadlines, s.now())
	if derived == item.Status {
		return
	}
	err := s.repo.UpdateStatus(ctx, item.ID, item.Status, derived)
	switch {
	case err == nil:
		item.Status = derived
		s.notifier.StatusChanged(ctx, item)
	case errors.Is(err, repository.ErrStaleWrite):
		s.log.Debug("status already moved", zap.String("kind", string(s.kind)), zap.String("id", item.ID))
	default:
		s.log.Warn("derived status not persisted", zap.String("kind", string(s.kind)), zap.String("id", item.ID), zap.Error(err))
		item.Status = derived
	}
}

// dedupe drops blanks and repeats while keeping order.
func dedupe(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

func (s *workItemService) Create(ctx context.Context, actorID string, input *CreateWorkItemInput) (*repository.WorkItem, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, invalid(ErrInvalidInput, "name is required")
	}
	actor, err := loadUser(ctx, s.userRepo, actorID)
	if err != nil {
		return nil, err
	}
	if actor.TeamID == nil {
		return nil, ErrForbidden
	}
	teamID := *actor.TeamID
	if s.kind == types.KindProject && !actor.Role.CanManageTeam() {
		return nil, ErrForbidden
	}

	item := &repository.WorkItem{
		Kind:        s.kind,
		ID:          uuid.NewString(),
		CreatedBy:   actor.ID,
		TeamID:      teamID,
		Name:        name,
		Description: strings.TrimSpace(input.Description),
		Members:     dedupe(input.Members),
	}

	if s.kind == types.KindTask {
		if input.Priority != nil && !input.Priority.IsValid() {
			return nil, invalid(ErrInvalidInput, "unknown priority")
		}
		item.Priority = input.Priority
		if input.ProjectID != nil {
			if err := checkIDs([]string{*input.ProjectID}); err != nil {
				return nil, err
			}
			project, err := s.projectRepo.FindByID(ctx, *input.ProjectID)
			if err != nil {
				return nil, storeError("load project", err)
			}
			if project == nil {
				return nil, ErrProjectNotFound
			}
			if project.TeamID != teamID {
				return nil, ErrForbidden
			}
			item.ProjectID = &project.ID
		}
	}

	now := s.now()
	if input.Deadline != nil {
		deadline, err := models.ParseDeadline(*input.Deadline)
		if err != nil || !models.DeadlineAllowed(deadline, now) {
			return nil, ErrInvalidDeadline
		}
		item.Deadlines = models.Deadlines{deadline}
	}
	item.Status = models.DeriveStatus(types.StatusPending, item.Deadlines, now)

	if err := requireTeammates(ctx, s.userRepo, teamID, item.Members); err != nil {
		return nil, err
	}

	if err := s.repo.Create(ctx, item, s.activity(actor.ID, item, models.WorkItemCreated, item.Members, nil)); err != nil {
		return nil, storeError("create "+string(s.kind), err)
	}

	s.log.Info("work item created", zap.String("kind", string(s.kind)), zap.String("id", item.ID), zap.String("team", teamID))
	if len(item.Members) > 0 {
		s.notifier.MembersAssigned(ctx, item, actor, item.Members)
	}
	return item, nil
}

func (s *workItemService) Get(ctx context.Context, actorID, id string) (*repository.WorkItem, error) {
	actor, err := loadUser(ctx, s.userRepo, actorID)
	if err != nil {
		return nil, err
	}
	item, err := s.load(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	s.refresh(ctx, item)
	return item, nil
}

func (s *workItemService) List(ctx context.Context, actorID string, input *ListWorkItemsInput) ([]*repository.WorkItem, error) {
	actor, err := loadUser(ctx, s.userRepo, actorID)
	if err != nil {
		return nil, err
	}

	teamID := input.TeamID
	if teamID == "" && actor.TeamID != nil {
		teamID = *actor.TeamID
	}
	if teamID == "" {
		return []*repository.WorkItem{}, nil
	}
	if !actor.OnTeam(teamID) && actor.Role != types.RoleAdmin {
		return nil, ErrForbidden
	}
	if input.Status != nil && !input.Status.IsValid() {
		return nil, invalid(ErrInvalidInput, "unknown status")
	}

	limit := input.Limit
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	offset := input.Offset
	if offset < 0 {
		offset = 0
	}

	items, err := s.repo.List(ctx, repository.WorkItemFilter{
		TeamID:    teamID,
		ProjectID: input.ProjectID,
		MemberID:  input.MemberID,
		Status:    input.Status,
		Limit:     limit,
		Offset:    offset,
	})
	if err != nil {
		return nil, storeError("list "+string(s.kind)+"s", err)
	}
	for _, item := range items {
		s.refresh(ctx, item)
	}
	return items, nil
}

func (s *workItemService) MarkComplete(ctx context.Context, actorID, id string) (*repository.WorkItem, error) {
	actor, err := loadUser(ctx, s.userRepo, actorID)
	if err != nil {
		return nil, err
	}
	item, err := s.load(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if !canModify(actor, item) {
		return nil, ErrForbidden
	}
	if item.Status == types.StatusCompleted {
		return nil, ErrAlreadyCompleted
	}

	if err := s.repo.MarkComplete(ctx, item, s.activity(actor.ID, item, models.WorkItemCompleted, nil, nil)); err != nil {
		if errors.Is(err, repository.ErrStaleWrite) {
			return nil, ErrAlreadyCompleted
		}
		return nil, storeError("complete "+string(s.kind), err)
	}

	s.notifier.StatusChanged(ctx, item)
	return item, nil
}

func (s *workItemService) ChangeDeadline(ctx context.Context, actorID, id, raw string) (*repository.WorkItem, error) {
	actor, err := loadUser(ctx, s.userRepo, actorID)
	if err != nil {
		return nil, err
	}
	item, err := s.load(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if !canModify(actor, item) {
		return nil, ErrForbidden
	}

	deadline, err := models.ParseDeadline(raw)
	if err != nil {
		return nil, invalid(ErrInvalidDeadline, err.Error())
	}
	if !models.DeadlineAllowed(deadline, item.CreatedAt) {
		return nil, invalid(ErrInvalidDeadline, "deadline is before the item was created")
	}

	previous := item.Status
	deadlines := item.Deadlines.Prepend(deadline)
	status := models.DeriveStatus(item.Status, deadlines, s.now())

	err = s.repo.PrependDeadline(ctx, item, deadline, status, s.activity(actor.ID, item, models.WorkItemDeadline, nil, &deadline))
	if errors.Is(err, repository.ErrStaleWrite) {
		return nil, s.notFound()
	}
	if err != nil {
		return nil, storeError("change deadline", err)
	}

	if item.Status != previous {
		s.notifier.StatusChanged(ctx, item)
	}
	return item, nil
}

func (s *workItemService) AssignMembers(ctx context.Context, actorID, id string, uids []string) (*repository.WorkItem, error) {
	uids = dedupe(uids)
	if len(uids) == 0 {
		return nil, invalid(ErrInvalidInput, "members are required")
	}
	actor, err := loadUser(ctx, s.userRepo, actorID)
	if err != nil {
		return nil, err
	}
	item, err := s.load(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if !canAssign(actor, item) {
		return nil, ErrForbidden
	}
	for _, uid := range uids {
		if item.HasMember(uid) {
			return nil, ErrDuplicateMember
		}
	}
	if err := requireTeammates(ctx, s.userRepo, item.TeamID, uids); err != nil {
		return nil, err
	}

	if err := s.repo.AddMembers(ctx, item, uids, s.activity(actor.ID, item, models.WorkItemAssigned, uids, nil)); err != nil {
		if errors.Is(err, repository.ErrStaleWrite) {
			return nil, ErrDuplicateMember
		}
		return nil, storeError("assign members", err)
	}

	s.notifier.MembersAssigned(ctx, item, actor, uids)
	return item, nil
}

func (s *workItemService) UnassignMembers(ctx context.Context, actorID, id string, uids []string) (*repository.WorkItem, error) {
	uids = dedupe(uids)
	if len(uids) == 0 {
		return nil, invalid(ErrInvalidInput, "members are required")
	}
	actor, err := loadUser(ctx, s.userRepo, actorID)
	if err != nil {
		return nil, err
	}
	item, err := s.load(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if !canAssign(actor, item) {
		return nil, ErrForbidden
	}
	for _, uid := range uids {
		if !item.HasMember(uid) {
			return nil, ErrNotAMember
		}
	}

	if err := s.repo.RemoveMembers(ctx, item, uids, s.activity(actor.ID, item, models.WorkItemUnassigned, uids, nil)); err != nil {
		if errors.Is(err, repository.ErrStaleWrite) {
			return nil, ErrNotAMember
		}
		return nil, storeError("unassign members", err)
	}

	s.notifier.MembersUnassigned(ctx, item, uids)
	return item, nil
}

func (s *workItemService) SweepPastDue(ctx context.Context) (int64, error) {
	n, err := s.repo.MarkPastDue(ctx, s.now())
	if err != nil {
		return 0, storeError("sweep "+string(s.kind)+"s", err)
	}
	return n, nil
}
