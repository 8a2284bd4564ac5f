package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/youlead/youlead-backend/internal/models"
)

type Meeting struct {
	ID              string
	TeamID          string
	Title           string
	Agenda          *string
	StartsAt        time.Time
	DurationMinutes int
	Attendees       []string
	CreatedBy       string
	Canceled        bool
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

type MeetingRepository interface {
	Create(ctx context.Context, meeting *Meeting, activity *models.Activity) error
	FindByID(ctx context.Context, id string) (*Meeting, error)
	ListByTeam(ctx context.Context, teamID string, from time.Time) ([]*Meeting, error)
	// Cancel returns ErrStaleWrite if the meeting is already canceled.
	Cancel(ctx context.Context, meeting *Meeting, activity *models.Activity) error
}

type pgMeetingRepository struct {
	pool *pgxpool.Pool
}

func NewMeetingRepository(pool *pgxpool.Pool) MeetingRepository {
	return &pgMeetingRepository{pool: pool}
}

const meetingColumns = `id, team_id, title, agenda, starts_at, duration_minutes, attendees,
	created_by, canceled, created_at, updated_at`

func scanMeeting(row pgx.Row) (*Meeting, error) {
	m := &Meeting{}
	err := row.Scan(
		&m.ID, &m.TeamID, &m.Title, &m.Agenda, &m.StartsAt, &m.DurationMinutes, &m.Attendees,
		&m.CreatedBy, &m.Canceled, &m.CreatedAt, &m.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return m, nil
}

func (r *pgMeetingRepository) Create(ctx context.Context, meeting *Meeting, activity *models.Activity) error {
	if meeting.Attendees == nil {
		meeting.Attendees = []string{}
	}
	return pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		err := tx.QueryRow(ctx, `
			INSERT INTO meetings (id, team_id, title, agenda, starts_at, duration_minutes, attendees, created_by)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
			RETURNING created_at, updated_at
		`, meeting.ID, meeting.TeamID, meeting.Title, meeting.Agenda, meeting.StartsAt,
			meeting.DurationMinutes, meeting.Attendees, meeting.CreatedBy,
		).Scan(&meeting.CreatedAt, &meeting.UpdatedAt)
		if err != nil {
			return err
		}
		return insertActivity(ctx, tx, activity)
	})
}

func (r *pgMeetingRepository) FindByID(ctx context.Context, id string) (*Meeting, error) {
	m, err := scanMeeting(r.pool.QueryRow(ctx, `SELECT `+meetingColumns+` FROM meetings WHERE id = $1`, id))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	return m, err
}

func (r *pgMeetingRepository) ListByTeam(ctx context.Context, teamID string, from time.Time) ([]*Meeting, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+meetingColumns+` FROM meetings
		WHERE team_id = $1 AND starts_at >= $2
		ORDER BY starts_at ASC, id ASC
	`, teamID, from)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var meetings []*Meeting
	for rows.Next() {
		m, err := scanMeeting(rows)
		if err != nil {
			return nil, err
		}
		meetings = append(meetings, m)
	}
	return meetings, rows.Err()
}

func (r *pgMeetingRepository) Cancel(ctx context.Context, meeting *Meeting, activity *models.Activity) error {
	return pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, `
			UPDATE meetings SET canceled = TRUE, updated_at = NOW()
			WHERE id = $1 AND canceled = FALSE
		`, meeting.ID)
		if err := expectOne(tag, err, ErrStaleWrite); err != nil {
			return err
		}
		meeting.Canceled = true
		return insertActivity(ctx, tx, activity)
	})
}
