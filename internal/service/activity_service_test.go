package service

import (
	"context"
	"errors"
	"testing"

	"github.com/youlead/youlead-backend/internal/models"
	"github.com/youlead/youlead-backend/internal/types"
)

func TestActivityFeeds(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	repos := store.repos()
	team, leader := store.addTeam("Alpha")
	member := store.addUser("Member", types.RoleTeamMember, team.ID)
	outsider := store.addUser("Outsider", types.RoleUnassigned, "")
	admin := store.addUser("Admin", types.RoleAdmin, "")

	entries := []*models.Activity{
		models.NewActivity(leader.ID, &team.ID, models.TeamActivity{Type: models.TeamJoined, TeamID: team.ID, MemberID: member.ID}),
		models.NewActivity(leader.ID, &team.ID, models.InvitationActivity{Type: models.InvitationInvited}),
		models.NewActivity(member.ID, &team.ID, models.TeamActivity{Type: models.TeamPromoted, TeamID: team.ID, MemberID: member.ID}),
		models.NewActivity(outsider.ID, nil, models.AuthActivity{Type: models.AuthLoggedIn}),
	}
	for _, a := range entries {
		if err := repos.ActivityRepo.Create(ctx, a); err != nil {
			t.Fatalf("seed activity: %v", err)
		}
	}

	svc := NewActivityService(repos.ActivityRepo, repos.UserRepo)
	teamCtx, bogus := types.ContextTeam, types.ActivityContext("sprint")

	tests := []struct {
		name    string
		actor   string
		filter  *types.ActivityContext
		want    int
		wantErr error
	}{
		{"member sees the whole team", member.ID, nil, 3, nil},
		{"filtered by context", member.ID, &teamCtx, 2, nil},
		{"admin may read any team", admin.ID, nil, 3, nil},
		{"outsider is forbidden", outsider.ID, nil, 0, ErrForbidden},
		{"unknown context", member.ID, &bogus, 0, ErrInvalidInput},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			feed, err := svc.TeamFeed(ctx, tt.actor, team.ID, tt.filter, 0)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("err: got %v, want %v", err, tt.wantErr)
			}
			if len(feed) != tt.want {
				t.Errorf("entries: got %d, want %d", len(feed), tt.want)
			}
		})
	}

	mine, err := svc.MyFeed(ctx, outsider.ID, 10)
	if err != nil {
		t.Fatalf("my feed: %v", err)
	}
	if len(mine) != 1 || mine[0].Context() != types.ContextAuth {
		t.Errorf("my feed: %+v", mine)
	}

	empty, err := svc.MyFeed(ctx, admin.ID, 10)
	if err != nil || empty == nil || len(empty) != 0 {
		t.Errorf("empty feed: %v, %v", empty, err)
	}
}

func TestFeedLimit(t *testing.T) {
	tests := []struct{ in, want int }{
		{0, 50}, {-3, 50}, {10, 10}, {200, 200}, {201, 50},
	}
	for _, tt := range tests {
		if got := feedLimit(tt.in); got != tt.want {
			t.Errorf("feedLimit(%d) = %d, want %d", tt.in, got, tt.want)
		}
	}
}
