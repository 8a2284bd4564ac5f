package service

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"

	"github.com/youlead/youlead-backend/internal/types"
)

func newUserService(store *memStore) UserService {
	repos := store.repos()
	return NewUserService(repos.UserRepo, NewAnalyticsService(repos.AnalyticsRepo, repos.TeamRepo, repos.UserRepo))
}

func TestUserMeIncludesCounters(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	repos := store.repos()
	team, leader := store.addTeam("Alpha")
	member := store.addUser("Member", types.RoleTeamMember, team.ID)

	tasks := NewTaskService(repos.TaskRepo, repos.ProjectRepo, repos.UserRepo, nopNotifier{}, zap.NewNop())
	if _, err := tasks.Create(ctx, leader.ID, &CreateWorkItemInput{Name: "write docs", Members: []string{member.ID}}); err != nil {
		t.Fatalf("create: %v", err)
	}

	user, counters, err := newUserService(store).Me(ctx, member.ID)
	if err != nil {
		t.Fatalf("me: %v", err)
	}
	if user.ID != member.ID {
		t.Errorf("user: got %s, want %s", user.ID, member.ID)
	}
	if counters == nil || counters.Tasks.Pending != 1 || counters.Projects.Pending != 0 {
		t.Errorf("counters: %+v", counters)
	}

	if _, _, err := newUserService(store).Me(ctx, "missing"); !errors.Is(err, ErrUserNotFound) {
		t.Errorf("missing user: got %v, want ErrUserNotFound", err)
	}
}

func TestUserUpdateProfile(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	user := store.addUser("Ada", types.RoleUnassigned, "")
	svc := newUserService(store)

	blank := "   "
	if _, err := svc.UpdateProfile(ctx, user.ID, &blank, nil, nil); KindOf(err) != KindInvalidInput {
		t.Errorf("blank name: got %v, want InvalidInput", err)
	}

	name, phone := "  Ada Lovelace ", "+4915112345678"
	updated, err := svc.UpdateProfile(ctx, user.ID, &name, &phone, nil)
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Name != "Ada Lovelace" || updated.Phone == nil || *updated.Phone != phone {
		t.Errorf("updated: name %q phone %v", updated.Name, updated.Phone)
	}
}

func TestUserSetAccountStatus(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	admin := store.addUser("Admin", types.RoleAdmin, "")
	user := store.addUser("Ada", types.RoleUnassigned, "")
	svc := newUserService(store)

	tests := []struct {
		name    string
		actor   string
		target  string
		status  types.AccountStatus
		wantErr error
	}{
		{"unknown status", admin.ID, user.ID, "suspended", ErrInvalidInput},
		{"not an admin", user.ID, admin.ID, types.AccountInactive, ErrForbidden},
		{"unknown target", admin.ID, "missing", types.AccountInactive, ErrUserNotFound},
		{"deactivate", admin.ID, user.ID, types.AccountInactive, nil},
		{"reactivate", admin.ID, user.ID, types.AccountActive, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := svc.SetAccountStatus(ctx, tt.actor, tt.target, tt.status)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("err: got %v, want %v", err, tt.wantErr)
			}
			if err != nil {
				return
			}
			if got.AccountStatus != tt.status || store.user(tt.target).AccountStatus != tt.status {
				t.Errorf("status: got %q, stored %q, want %q", got.AccountStatus, store.user(tt.target).AccountStatus, tt.status)
			}
		})
	}
}
