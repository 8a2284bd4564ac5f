package models

import (
	"testing"
	"time"

	"github.com/youlead/youlead-backend/internal/types"
)

func TestDeriveStatus(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name      string
		current   types.EntityStatus
		deadlines Deadlines
		want      types.EntityStatus
	}{
		{"no deadline", types.StatusPending, nil, types.StatusPending},
		{"future deadline", types.StatusPending, Deadlines{now.Add(time.Hour)}, types.StatusPending},
		{"elapsed deadline", types.StatusPending, Deadlines{now.Add(-time.Second)}, types.StatusPastDue},
		{"extended past due", types.StatusPastDue, Deadlines{now.Add(time.Hour), now.Add(-time.Hour)}, types.StatusPending},
		{"only first counts", types.StatusPending, Deadlines{now.Add(-time.Hour), now.Add(time.Hour)}, types.StatusPastDue},
		{"completed never downgrades", types.StatusCompleted, Deadlines{now.Add(-time.Hour)}, types.StatusCompleted},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DeriveStatus(tt.current, tt.deadlines, now); got != tt.want {
				t.Errorf("DeriveStatus: got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestDeadlinesPrepend(t *testing.T) {
	first := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	second := first.Add(48 * time.Hour)

	history := Deadlines{first}
	next := history.Prepend(second)

	if len(next) != 2 || !next[0].Equal(second) || !next[1].Equal(first) {
		t.Fatalf("Prepend: got %v", next)
	}
	if len(history) != 1 || !history[0].Equal(first) {
		t.Errorf("Prepend mutated the receiver: %v", history)
	}
	if cur, ok := next.Current(); !ok || !cur.Equal(second) {
		t.Errorf("Current: got %v, want %v", cur, second)
	}
}

func TestParseDeadline(t *testing.T) {
	tests := []struct {
		raw     string
		want    time.Time
		wantErr bool
	}{
		{"2026-05-01T10:00:00Z", time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC), false},
		{"2026-05-01", time.Date(2026, 5, 1, 23, 59, 59, 0, time.UTC), false},
		{"tomorrow", time.Time{}, true},
		{"", time.Time{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, err := ParseDeadline(tt.raw)
			if (err != nil) != tt.wantErr {
				t.Fatalf("err: got %v, wantErr %v", err, tt.wantErr)
			}
			if !got.Equal(tt.want) {
				t.Errorf("ParseDeadline(%q): got %v, want %v", tt.raw, got, tt.want)
			}
		})
	}
}

func TestDeadlineAllowed(t *testing.T) {
	created := time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)

	if !DeadlineAllowed(created.Add(-time.Hour), created) {
		t.Error("a deadline earlier the same day should be allowed")
	}
	if DeadlineAllowed(created.Add(-48*time.Hour), created) {
		t.Error("a deadline two days before creation should be rejected")
	}
}
