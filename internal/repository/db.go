package repository

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/youlead/youlead-backend/internal/models"
)

// Conditional-write failures. Callers translate them into domain errors.
var (
	// ErrDuplicate is returned when a unique index rejects the write.
	ErrDuplicate = errors.New("repository: duplicate record")
	// ErrStaleWrite is returned when a compare-and-swap matched no row.
	ErrStaleWrite = errors.New("repository: record changed concurrently")
	// ErrUserOnTeam is returned when a team assignment finds the user already on a team.
	ErrUserOnTeam = errors.New("repository: user already belongs to a team")
)

const uniqueViolation = "23505"

// querier is satisfied by both *pgxpool.Pool and pgx.Tx.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}

// expectOne turns a zero-row conditional update into failure.
func expectOne(tag pgconn.CommandTag, err error, failure error) error {
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return failure
	}
	return nil
}

// insertActivity appends an audit entry using q, which is usually the
// transaction of the write the entry describes. A nil activity is skipped.
func insertActivity(ctx context.Context, q querier, a *models.Activity) error {
	if a == nil {
		return nil
	}
	payload, err := json.Marshal(a.Payload)
	if err != nil {
		return err
	}
	query := `
		INSERT INTO activities (context, type, actor_id, team_id, payload)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at
	`
	return q.QueryRow(ctx, query,
		string(a.Context()), a.Type(), a.ActorID, a.TeamID, payload,
	).Scan(&a.ID, &a.CreatedAt)
}

// assignTeam sets team and role together, only for a user who has no team.
func assignTeam(ctx context.Context, q querier, userID, teamID, role string) error {
	query := `
		UPDATE users SET team_id = $2, role = $3, updated_at = NOW()
		WHERE id = $1 AND team_id IS NULL AND role = 'unAssigned'
	`
	tag, err := q.Exec(ctx, query, userID, teamID, role)
	return expectOne(tag, err, ErrUserOnTeam)
}
