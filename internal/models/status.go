package models

import (
	"errors"
	"strings"
	"time"

	"github.com/youlead/youlead-backend/internal/types"
)

// DeadlineGrace is how far before an entity's creation a deadline may fall.
const DeadlineGrace = 24 * time.Hour

var errUnparseableDeadline = errors.New("deadline is not a valid date")

// Deadlines is a deadline history, newest first. The first element is the
// current deadline.
type Deadlines []time.Time

// Current returns the deadline in force, if any.
func (d Deadlines) Current() (time.Time, bool) {
	if len(d) == 0 {
		return time.Time{}, false
	}
	return d[0], true
}

// Prepend returns a new history with t as the current deadline.
func (d Deadlines) Prepend(t time.Time) Deadlines {
	out := make(Deadlines, 0, len(d)+1)
	out = append(out, t)
	return append(out, d...)
}

// DeriveStatus is the status policy shared by tasks and projects.
func DeriveStatus(current types.EntityStatus, deadlines Deadlines, now time.Time) types.EntityStatus {
	if current == types.StatusCompleted {
		return current
	}
	deadline, ok := deadlines.Current()
	if !ok {
		return types.StatusPending
	}
	if deadline.Before(now) {
		return types.StatusPastDue
	}
	return types.StatusPending
}

// ParseDeadline accepts RFC 3339 timestamps and YYYY-MM-DD dates. A bare date
// means the end of that day in UTC.
func ParseDeadline(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, errUnparseableDeadline
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t.UTC(), nil
	}
	if d, err := time.Parse("2006-01-02", raw); err == nil {
		return d.Add(24*time.Hour - time.Second), nil
	}
	return time.Time{}, errUnparseableDeadline
}

// DeadlineAllowed reports whether deadline may be set on an entity created at createdAt.
func DeadlineAllowed(deadline, createdAt time.Time) bool {
	return !deadline.Before(createdAt.Add(-DeadlineGrace))
}
