package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/youlead/youlead-backend/internal/models"
	"github.com/youlead/youlead-backend/internal/types"
)

type Invitation struct {
	ID           string
	InviteeEmail string
	TeamID       string
	InvitedBy    string
	State        models.InvitationState
	InviteeLeft  bool
	RespondedAt  *time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// InvitationWithTeam is an invitation joined with its team summary.
type InvitationWithTeam struct {
	*Invitation
	Team *TeamSummary
}

type InvitationRepository interface {
	// Create returns ErrDuplicate if an open invitation exists for the pair.
	Create(ctx context.Context, inv *Invitation, activity *models.Activity) error
	FindByID(ctx context.Context, id string) (*Invitation, error)
	HasOpen(ctx context.Context, teamID, email string) (bool, error)
	// FindActiveByEmail lists records with status = active, newest first, id as tie-break.
	FindActiveByEmail(ctx context.Context, email string) ([]*InvitationWithTeam, error)
	FindByTeam(ctx context.Context, teamID string) ([]*Invitation, error)
	FindOpenCreatedBefore(ctx context.Context, cutoff time.Time) ([]*Invitation, error)
	// Accept moves an open invitation to accepted/inactive and puts userID on
	// the team in one transaction. ErrStaleWrite means the invitation was no
	// longer open; ErrUserOnTeam means the user already had a team.
	Accept(ctx context.Context, inv *Invitation, userID string, role types.Role, activity *models.Activity) error
	// Transition is a compare-and-swap from one state to another.
	Transition(ctx context.Context, inv *Invitation, to models.InvitationState, activity *models.Activity) error
}

type pgInvitationRepository struct {
	pool *pgxpool.Pool
}

func NewInvitationRepository(pool *pgxpool.Pool) InvitationRepository {
	return &pgInvitationRepository{pool: pool}
}

const invitationColumns = `id, invitee_email, team_id, invited_by, invitation_status, status,
	invitee_left, responded_at, created_at, updated_at`

// scanInvitation reads invitationColumns followed by any extra destinations.
func scanInvitation(row pgx.Row, extra ...any) (*Invitation, error) {
	inv := &Invitation{}
	var decision models.InvitationStatus
	var record models.RecordStatus
	dest := append([]any{
		&inv.ID, &inv.InviteeEmail, &inv.TeamID, &inv.InvitedBy, &decision, &record,
		&inv.InviteeLeft, &inv.RespondedAt, &inv.CreatedAt, &inv.UpdatedAt,
	}, extra...)
	if err := row.Scan(dest...); err != nil {
		return nil, err
	}
	state, err := models.ParseInvitationState(decision, record)
	if err != nil {
		return nil, err
	}
	inv.State = state
	return inv, nil
}

func (r *pgInvitationRepository) Create(ctx context.Context, inv *Invitation, activity *models.Activity) error {
	inv.State = models.StateOpen
	return pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		query := `
			INSERT INTO invitations (id, invitee_email, team_id, invited_by, invitation_status, status)
			VALUES ($1, $2, $3, $4, $5, $6)
			RETURNING created_at, updated_at
		`
		err := tx.QueryRow(ctx, query,
			inv.ID, inv.InviteeEmail, inv.TeamID, inv.InvitedBy,
			string(inv.State.InvitationStatus()), string(inv.State.RecordStatus()),
		).Scan(&inv.CreatedAt, &inv.UpdatedAt)
		if isUniqueViolation(err) {
			return ErrDuplicate
		}
		if err != nil {
			return err
		}
		return insertActivity(ctx, tx, activity)
	})
}

func (r *pgInvitationRepository) FindByID(ctx context.Context, id string) (*Invitation, error) {
	query := `SELECT ` + invitationColumns + ` FROM invitations WHERE id = $1`
	inv, err := scanInvitation(r.pool.QueryRow(ctx, query, id))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	return inv, err
}

func (r *pgInvitationRepository) HasOpen(ctx context.Context, teamID, email string) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM invitations
			WHERE team_id = $1 AND LOWER(invitee_email) = LOWER($2)
				AND invitation_status = 'pending' AND status = 'active'
		)
	`
	var exists bool
	err := r.pool.QueryRow(ctx, query, teamID, email).Scan(&exists)
	return exists, err
}

func (r *pgInvitationRepository) FindActiveByEmail(ctx context.Context, email string) ([]*InvitationWithTeam, error) {
	query := `
		SELECT i.id, i.invitee_email, i.team_id, i.invited_by, i.invitation_status, i.status,
			i.invitee_left, i.responded_at, i.created_at, i.updated_at,
			t.name, t.organization, t.team_leader_id, t.created_at, t.updated_at, l.name,
			(SELECT COUNT(*) FROM users m WHERE m.team_id = t.id)
		FROM invitations i
		JOIN teams t ON t.id = i.team_id
		JOIN users l ON l.id = t.team_leader_id
		WHERE LOWER(i.invitee_email) = LOWER($1) AND i.status = 'active'
		ORDER BY i.created_at DESC, i.id ASC
	`
	rows, err := r.pool.Query(ctx, query, email)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []*InvitationWithTeam
	for rows.Next() {
		team := &TeamSummary{}
		inv, err := scanInvitation(rows,
			&team.Name, &team.Organization, &team.TeamLeaderID, &team.CreatedAt, &team.UpdatedAt,
			&team.LeaderName, &team.MemberCount,
		)
		if err != nil {
			return nil, err
		}
		team.ID = inv.TeamID
		result = append(result, &InvitationWithTeam{Invitation: inv, Team: team})
	}
	return result, rows.Err()
}

func (r *pgInvitationRepository) FindByTeam(ctx context.Context, teamID string) ([]*Invitation, error) {
	query := `
		SELECT ` + invitationColumns + ` FROM invitations
		WHERE team_id = $1
		ORDER BY created_at DESC, id ASC
	`
	return r.list(ctx, query, teamID)
}

func (r *pgInvitationRepository) FindOpenCreatedBefore(ctx context.Context, cutoff time.Time) ([]*Invitation, error) {
	query := `
		SELECT ` + invitationColumns + ` FROM invitations
		WHERE invitation_status = 'pending' AND status = 'active' AND created_at < $1
		ORDER BY created_at ASC
	`
	return r.list(ctx, query, cutoff)
}

func (r *pgInvitationRepository) list(ctx context.Context, query string, args ...any) ([]*Invitation, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var invitations []*Invitation
	for rows.Next() {
		inv, err := scanInvitation(rows)
		if err != nil {
			return nil, err
		}
		invitations = append(invitations, inv)
	}
	return invitations, rows.Err()
}

// swapState updates the state columns only if they still hold inv.State.
func swapState(ctx context.Context, q querier, inv *Invitation, to models.InvitationState) error {
	var respondedAt *time.Time
	if !to.IsPending() {
		now := time.Now()
		respondedAt = &now
	}
	var updatedAt time.Time
	err := q.QueryRow(ctx, `
		UPDATE invitations
		SET invitation_status = $4, status = $5,
			responded_at = COALESCE($6, responded_at), updated_at = NOW()
		WHERE id = $1 AND invitation_status = $2 AND status = $3
		RETURNING updated_at
	`,
		inv.ID,
		string(inv.State.InvitationStatus()), string(inv.State.RecordStatus()),
		string(to.InvitationStatus()), string(to.RecordStatus()),
		respondedAt,
	).Scan(&updatedAt)
	if err == pgx.ErrNoRows {
		return ErrStaleWrite
	}
	if err != nil {
		return err
	}
	inv.State = to
	inv.UpdatedAt = updatedAt
	if respondedAt != nil {
		inv.RespondedAt = respondedAt
	}
	return nil
}

func (r *pgInvitationRepository) Accept(ctx context.Context, inv *Invitation, userID string, role types.Role, activity *models.Activity) error {
	snapshot := *inv
	err := pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		if err := swapState(ctx, tx, inv, models.StateAcceptedArchived); err != nil {
			return err
		}
		if err := assignTeam(ctx, tx, userID, inv.TeamID, string(role)); err != nil {
			return err
		}
		return insertActivity(ctx, tx, activity)
	})
	if err != nil {
		*inv = snapshot
	}
	return err
}

func (r *pgInvitationRepository) Transition(ctx context.Context, inv *Invitation, to models.InvitationState, activity *models.Activity) error {
	snapshot := *inv
	err := pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		if err := swapState(ctx, tx, inv, to); err != nil {
			return err
		}
		return insertActivity(ctx, tx, activity)
	})
	if err != nil {
		*inv = snapshot
	}
	return err
}
