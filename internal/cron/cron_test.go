package cron

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/youlead/youlead-backend/internal/types"
)

type fakeSweeper struct {
	kind  types.EntityKind
	n     int64
	err   error
	calls int
}

func (f *fakeSweeper) Kind() types.EntityKind { return f.kind }

func (f *fakeSweeper) SweepPastDue(context.Context) (int64, error) {
	f.calls++
	return f.n, f.err
}

type fakeExpirer struct {
	ttl   time.Duration
	calls int
}

func (f *fakeExpirer) ExpireStale(_ context.Context, ttl time.Duration) (int, error) {
	f.calls++
	f.ttl = ttl
	return 1, nil
}

func TestSweepStatusesRunsEveryKind(t *testing.T) {
	tasks := &fakeSweeper{kind: types.KindTask, err: errors.New("db down")}
	projects := &fakeSweeper{kind: types.KindProject, n: 3}
	s := NewScheduler(Config{}, nil, zap.NewNop(), tasks, projects)

	s.sweepStatuses()

	if tasks.calls != 1 || projects.calls != 1 {
		t.Errorf("calls: tasks %d projects %d, want 1 each", tasks.calls, projects.calls)
	}
}

func TestExpireInvitationsUsesTTL(t *testing.T) {
	expirer := &fakeExpirer{}
	s := NewScheduler(Config{InvitationTTL: 72 * time.Hour}, expirer, zap.NewNop())

	s.expireInvitations()

	if expirer.calls != 1 || expirer.ttl != 72*time.Hour {
		t.Errorf("expirer: calls %d ttl %v", expirer.calls, expirer.ttl)
	}
}

func TestStart(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
		jobs    int
	}{
		{"both jobs", Config{StatusSweepSchedule: "*/15 * * * *", InvitationSchedule: "0 3 * * *"}, false, 2},
		{"sweep only", Config{StatusSweepSchedule: "@hourly"}, false, 1},
		{"nothing scheduled", Config{}, false, 0},
		{"bad sweep schedule", Config{StatusSweepSchedule: "every now and then"}, true, 0},
		{"bad invitation schedule", Config{InvitationSchedule: "61 * * * *"}, true, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewScheduler(tt.cfg, &fakeExpirer{}, zap.NewNop(), &fakeSweeper{kind: types.KindTask})
			err := s.Start()
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil {
				return
			}
			defer s.Stop()
			if got := len(s.cron.Entries()); got != tt.jobs {
				t.Errorf("jobs: got %d, want %d", got, tt.jobs)
			}
		})
	}
}
