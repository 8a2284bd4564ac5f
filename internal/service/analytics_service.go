package service

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/youlead/youlead-backend/internal/models"
	"github.com/youlead/youlead-backend/internal/repository"
	"github.com/youlead/youlead-backend/internal/types"
)

// ============================================
// Analytics Service
// ============================================

// MemberCounters are the derived task and project histograms of one user.
type MemberCounters struct {
	Tasks    models.StatusCounts
	Projects models.StatusCounts
}

// AnalyticsService computes counters from the task and project tables.
// Nothing here is stored.
type AnalyticsService interface {
	MemberCounters(ctx context.Context, userIDs []string) (map[string]*MemberCounters, error)
	TeamOverview(ctx context.Context, actorID, teamID string) (*models.TeamOverviewResponse, error)
}

type analyticsService struct {
	analyticsRepo repository.AnalyticsRepository
	teamRepo      repository.TeamRepository
	userRepo      repository.UserRepository
}

func NewAnalyticsService(
	analyticsRepo repository.AnalyticsRepository,
	teamRepo repository.TeamRepository,
	userRepo repository.UserRepository,
) AnalyticsService {
	return &analyticsService{
		analyticsRepo: analyticsRepo,
		teamRepo:      teamRepo,
		userRepo:      userRepo,
	}
}

func addCount(c *models.StatusCounts, status types.EntityStatus, n int) {
	switch status {
	case types.StatusPending:
		c.Pending += n
	case types.StatusCompleted:
		c.Completed += n
	case types.StatusPastDue:
		c.PastDue += n
	}
}

func (s *analyticsService) MemberCounters(ctx context.Context, userIDs []string) (map[string]*MemberCounters, error) {
	out := make(map[string]*MemberCounters, len(userIDs))
	for _, id := range userIDs {
		out[id] = &MemberCounters{}
	}

	for _, kind := range []types.EntityKind{types.KindTask, types.KindProject} {
		rows, err := s.analyticsRepo.MemberStatusCounts(ctx, kind, userIDs)
		if err != nil {
			return nil, storeError("member status counts", err)
		}
		for _, row := range rows {
			counters, ok := out[row.MemberID]
			if !ok {
				continue
			}
			if kind == types.KindTask {
				addCount(&counters.Tasks, row.Status, row.Count)
			} else {
				addCount(&counters.Projects, row.Status, row.Count)
			}
		}
	}
	return out, nil
}

func (s *analyticsService) TeamOverview(ctx context.Context, actorID, teamID string) (*models.TeamOverviewResponse, error) {
	actor, err := loadUser(ctx, s.userRepo, actorID)
	if err != nil {
		return nil, err
	}
	summary, err := s.teamRepo.FindSummary(ctx, teamID)
	if err != nil {
		return nil, storeError("load team", err)
	}
	if summary == nil {
		return nil, ErrTeamNotFound
	}
	if !actor.OnTeam(teamID) && actor.Role != types.RoleAdmin {
		return nil, ErrForbidden
	}

	overview := &models.TeamOverviewResponse{
		TeamID:      teamID,
		MemberCount: summary.MemberCount,
	}
	for _, kind := range []types.EntityKind{types.KindTask, types.KindProject} {
		rows, err := s.analyticsRepo.TeamStatusCounts(ctx, kind, teamID)
		if err != nil {
			return nil, storeError("team status counts", err)
		}
		target := &overview.Tasks
		if kind == types.KindProject {
			target = &overview.Projects
		}
		for _, row := range rows {
			addCount(target, row.Status, row.Count)
		}
	}

	overview.CompletionRate = CompletionRate(overview.Tasks, overview.Projects).StringFixed(2)
	return overview, nil
}

// CompletionRate is the completed share of all items, as a percentage.
func CompletionRate(counts ...models.StatusCounts) decimal.Decimal {
	var completed, total int64
	for _, c := range counts {
		completed += int64(c.Completed)
		total += int64(c.Pending + c.Completed + c.PastDue)
	}
	if total == 0 {
		return decimal.Zero
	}
	return decimal.NewFromInt(completed).
		Mul(decimal.NewFromInt(100)).
		DivRound(decimal.NewFromInt(total), 2)
}
