package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/youlead/youlead-backend/internal/types"
)

// StatusCount is one row of a status histogram.
type StatusCount struct {
	Status types.EntityStatus `db:"status"`
	Count  int                `db:"count"`
}

// MemberStatusCount is a status histogram row for one member.
type MemberStatusCount struct {
	MemberID string             `db:"member_id"`
	Status   types.EntityStatus `db:"status"`
	Count    int                `db:"count"`
}

// AnalyticsRepository answers read-side projections. Counters are always
// computed from the task and project tables, never stored.
type AnalyticsRepository interface {
	TeamStatusCounts(ctx context.Context, kind types.EntityKind, teamID string) ([]StatusCount, error)
	MemberStatusCounts(ctx context.Context, kind types.EntityKind, memberIDs []string) ([]MemberStatusCount, error)
}

type sqlAnalyticsRepository struct {
	db *sqlx.DB
}

func NewAnalyticsRepository(db *sqlx.DB) AnalyticsRepository {
	return &sqlAnalyticsRepository{db: db}
}

func tableFor(kind types.EntityKind) (string, error) {
	switch kind {
	case types.KindTask:
		return "tasks", nil
	case types.KindProject:
		return "projects", nil
	}
	return "", fmt.Errorf("unknown entity kind %q", kind)
}

func (r *sqlAnalyticsRepository) TeamStatusCounts(ctx context.Context, kind types.EntityKind, teamID string) ([]StatusCount, error) {
	table, err := tableFor(kind)
	if err != nil {
		return nil, err
	}
	query := fmt.Sprintf(`
		SELECT status, COUNT(*) AS count
		FROM %s WHERE team_id = $1
		GROUP BY status
		ORDER BY status
	`, table)

	var counts []StatusCount
	if err := r.db.SelectContext(ctx, &counts, query, teamID); err != nil {
		return nil, err
	}
	return counts, nil
}

func (r *sqlAnalyticsRepository) MemberStatusCounts(ctx context.Context, kind types.EntityKind, memberIDs []string) ([]MemberStatusCount, error) {
	if len(memberIDs) == 0 {
		return nil, nil
	}
	table, err := tableFor(kind)
	if err != nil {
		return nil, err
	}
	query := fmt.Sprintf(`
		SELECT m AS member_id, status, COUNT(*) AS count
		FROM %s, unnest(members) AS m
		WHERE m = ANY($1)
		GROUP BY m, status
		ORDER BY m, status
	`, table)

	var counts []MemberStatusCount
	if err := r.db.SelectContext(ctx, &counts, query, pq.Array(memberIDs)); err != nil {
		return nil, err
	}
	return counts, nil
}
