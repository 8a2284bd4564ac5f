package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/youlead/youlead-backend/internal/models"
	"github.com/youlead/youlead-backend/internal/types"
)

// ============================================
// Team Models
// ============================================

type Team struct {
	ID           string
	Name         string
	Organization *string
	TeamLeaderID string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// TeamSummary is a team with its leader's name and head count.
type TeamSummary struct {
	Team
	LeaderName  string
	MemberCount int
}

// TeamRepository keeps users.team_id and users.role in step. Every write
// that touches membership also appends its activity in the same transaction.
type TeamRepository interface {
	// CreateWithLeader inserts the team and makes its leader a member.
	// Returns ErrUserOnTeam if the leader already has a team.
	CreateWithLeader(ctx context.Context, team *Team, activity *models.Activity) error
	FindByID(ctx context.Context, id string) (*Team, error)
	FindSummary(ctx context.Context, id string) (*TeamSummary, error)
	// AddMember returns ErrUserOnTeam if the user already has a team.
	AddMember(ctx context.Context, teamID, userID string, role types.Role, activity *models.Activity) error
	// RemoveMember clears a non-leader's membership and flags their accepted
	// invitation as left. Returns ErrStaleWrite if the user is not removable.
	RemoveMember(ctx context.Context, teamID, userID string, activity *models.Activity) error
	// UpdateMemberRole swaps from for to. Returns ErrStaleWrite if the
	// member's role is no longer from.
	UpdateMemberRole(ctx context.Context, teamID, userID string, from, to types.Role, activity *models.Activity) error
}

type pgTeamRepository struct {
	pool *pgxpool.Pool
}

func NewTeamRepository(pool *pgxpool.Pool) TeamRepository {
	return &pgTeamRepository{pool: pool}
}

func (r *pgTeamRepository) CreateWithLeader(ctx context.Context, team *Team, activity *models.Activity) error {
	return pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		query := `
			INSERT INTO teams (id, name, organization, team_leader_id)
			VALUES ($1, $2, $3, $4)
			RETURNING created_at, updated_at
		`
		err := tx.QueryRow(ctx, query, team.ID, team.Name, team.Organization, team.TeamLeaderID).
			Scan(&team.CreatedAt, &team.UpdatedAt)
		if isUniqueViolation(err) {
			return ErrUserOnTeam
		}
		if err != nil {
			return err
		}
		if err := assignTeam(ctx, tx, team.TeamLeaderID, team.ID, string(types.RoleTeamLeader)); err != nil {
			return err
		}
		return insertActivity(ctx, tx, activity)
	})
}

func (r *pgTeamRepository) FindByID(ctx context.Context, id string) (*Team, error) {
	query := `
		SELECT id, name, organization, team_leader_id, created_at, updated_at
		FROM teams WHERE id = $1
	`
	team := &Team{}
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&team.ID, &team.Name, &team.Organization, &team.TeamLeaderID,
		&team.CreatedAt, &team.UpdatedAt,
	)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return team, nil
}

const teamSummarySelect = `
	SELECT t.id, t.name, t.organization, t.team_leader_id, t.created_at, t.updated_at,
		l.name,
		(SELECT COUNT(*) FROM users m WHERE m.team_id = t.id)
	FROM teams t
	JOIN users l ON l.id = t.team_leader_id
`

func scanTeamSummary(row pgx.Row) (*TeamSummary, error) {
	s := &TeamSummary{}
	err := row.Scan(
		&s.ID, &s.Name, &s.Organization, &s.TeamLeaderID, &s.CreatedAt, &s.UpdatedAt,
		&s.LeaderName, &s.MemberCount,
	)
	if err != nil {
		return nil, err
	}
	return s, nil
}

func (r *pgTeamRepository) FindSummary(ctx context.Context, id string) (*TeamSummary, error) {
	summary, err := scanTeamSummary(r.pool.QueryRow(ctx, teamSummarySelect+` WHERE t.id = $1`, id))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	return summary, err
}

func (r *pgTeamRepository) AddMember(ctx context.Context, teamID, userID string, role types.Role, activity *models.Activity) error {
	return pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		if err := assignTeam(ctx, tx, userID, teamID, string(role)); err != nil {
			return err
		}
		return insertActivity(ctx, tx, activity)
	})
}

func (r *pgTeamRepository) RemoveMember(ctx context.Context, teamID, userID string, activity *models.Activity) error {
	return pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		var email string
		err := tx.QueryRow(ctx, `
			UPDATE users SET team_id = NULL, role = 'unAssigned', updated_at = NOW()
			WHERE id = $1 AND team_id = $2 AND role IN ('teamMember', 'coLeader')
			RETURNING email
		`, userID, teamID).Scan(&email)
		if err == pgx.ErrNoRows {
			return ErrStaleWrite
		}
		if err != nil {
			return err
		}

		_, err = tx.Exec(ctx, `
			UPDATE invitations SET invitee_left = TRUE, updated_at = NOW()
			WHERE team_id = $1 AND LOWER(invitee_email) = LOWER($2)
				AND invitation_status = 'accepted' AND invitee_left = FALSE
		`, teamID, email)
		if err != nil {
			return err
		}
		return insertActivity(ctx, tx, activity)
	})
}

func (r *pgTeamRepository) UpdateMemberRole(ctx context.Context, teamID, userID string, from, to types.Role, activity *models.Activity) error {
	return pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, `
			UPDATE users SET role = $4, updated_at = NOW()
			WHERE id = $1 AND team_id = $2 AND role = $3
		`, userID, teamID, string(from), string(to))
		if err := expectOne(tag, err, ErrStaleWrite); err != nil {
			return err
		}
		return insertActivity(ctx, tx, activity)
	})
}
