package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/youlead/youlead-backend/internal/models"
	"github.com/youlead/youlead-backend/internal/types"
)

// ActivityRepository is append-only: there is no update or delete.
type ActivityRepository interface {
	Create(ctx context.Context, activity *models.Activity) error
	FindByTeam(ctx context.Context, teamID string, context *types.ActivityContext, limit int) ([]*models.Activity, error)
	FindByActor(ctx context.Context, actorID string, limit int) ([]*models.Activity, error)
}

type pgActivityRepository struct {
	pool *pgxpool.Pool
}

func NewActivityRepository(pool *pgxpool.Pool) ActivityRepository {
	return &pgActivityRepository{pool: pool}
}

func (r *pgActivityRepository) Create(ctx context.Context, activity *models.Activity) error {
	return insertActivity(ctx, r.pool, activity)
}

func (r *pgActivityRepository) FindByTeam(ctx context.Context, teamID string, context *types.ActivityContext, limit int) ([]*models.Activity, error) {
	query := `
		SELECT id, context, actor_id, team_id, payload, created_at
		FROM activities
		WHERE team_id = $1 AND ($2::text IS NULL OR context = $2)
		ORDER BY created_at DESC, id ASC
		LIMIT $3
	`
	var filter *string
	if context != nil {
		c := string(*context)
		filter = &c
	}
	rows, err := r.pool.Query(ctx, query, teamID, filter, limit)
	if err != nil {
		return nil, err
	}
	return collectActivities(rows)
}

func (r *pgActivityRepository) FindByActor(ctx context.Context, actorID string, limit int) ([]*models.Activity, error) {
	query := `
		SELECT id, context, actor_id, team_id, payload, created_at
		FROM activities WHERE actor_id = $1
		ORDER BY created_at DESC, id ASC
		LIMIT $2
	`
	rows, err := r.pool.Query(ctx, query, actorID, limit)
	if err != nil {
		return nil, err
	}
	return collectActivities(rows)
}

func collectActivities(rows pgx.Rows) ([]*models.Activity, error) {
	defer rows.Close()

	var activities []*models.Activity
	for rows.Next() {
		activity := &models.Activity{}
		var context types.ActivityContext
		var payload []byte
		if err := rows.Scan(
			&activity.ID, &context, &activity.ActorID, &activity.TeamID, &payload, &activity.CreatedAt,
		); err != nil {
			return nil, err
		}
		decoded, err := models.DecodeActivityPayload(context, payload)
		if err != nil {
			return nil, err
		}
		activity.Payload = decoded
		activities = append(activities, activity)
	}
	return activities, rows.Err()
}
