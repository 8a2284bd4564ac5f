package service

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"

	"github.com/youlead/youlead-backend/internal/models"
	"github.com/youlead/youlead-backend/internal/types"
)

func TestCompletionRate(t *testing.T) {
	tests := []struct {
		name   string
		counts []models.StatusCounts
		want   string
	}{
		{"empty", nil, "0"},
		{"nothing done", []models.StatusCounts{{Pending: 3}}, "0"},
		{"all done", []models.StatusCounts{{Completed: 4}}, "100"},
		{"one third", []models.StatusCounts{{Pending: 1, Completed: 1, PastDue: 1}}, "33.33"},
		{"across kinds", []models.StatusCounts{{Completed: 1}, {Pending: 1}}, "50"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CompletionRate(tt.counts...).String(); got != tt.want {
				t.Errorf("got %s, want %s", got, tt.want)
			}
		})
	}
}

func TestTeamOverviewAndMemberCounters(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	repos := store.repos()
	team, leader := store.addTeam("Alpha")
	member := store.addUser("Member", types.RoleTeamMember, team.ID)
	outsider := store.addUser("Outsider", types.RoleUnassigned, "")

	tasks := NewTaskService(repos.TaskRepo, repos.ProjectRepo, repos.UserRepo, nopNotifier{}, zap.NewNop())
	for _, name := range []string{"one", "two", "three"} {
		if _, err := tasks.Create(ctx, leader.ID, &CreateWorkItemInput{Name: name, Members: []string{member.ID}}); err != nil {
			t.Fatalf("create %s: %v", name, err)
		}
	}
	list, _ := tasks.List(ctx, leader.ID, &ListWorkItemsInput{})
	if _, err := tasks.MarkComplete(ctx, leader.ID, list[0].ID); err != nil {
		t.Fatalf("complete: %v", err)
	}

	svc := NewAnalyticsService(repos.AnalyticsRepo, repos.TeamRepo, repos.UserRepo)
	overview, err := svc.TeamOverview(ctx, member.ID, team.ID)
	if err != nil {
		t.Fatalf("overview: %v", err)
	}
	if overview.MemberCount != 2 || overview.Tasks.Completed != 1 || overview.Tasks.Pending != 2 {
		t.Errorf("overview: %+v", overview)
	}
	if overview.CompletionRate != "33.33" {
		t.Errorf("completion rate: got %s", overview.CompletionRate)
	}

	if _, err := svc.TeamOverview(ctx, outsider.ID, team.ID); !errors.Is(err, ErrForbidden) {
		t.Errorf("outsider: got %v, want ErrForbidden", err)
	}

	counters, err := svc.MemberCounters(ctx, []string{member.ID, outsider.ID})
	if err != nil {
		t.Fatalf("member counters: %v", err)
	}
	if c := counters[member.ID].Tasks; c.Pending != 2 || c.Completed != 1 {
		t.Errorf("member task counters: %+v", c)
	}
	if c := counters[outsider.ID]; c.Tasks != (models.StatusCounts{}) || c.Projects != (models.StatusCounts{}) {
		t.Errorf("outsider counters: %+v", c)
	}
}
