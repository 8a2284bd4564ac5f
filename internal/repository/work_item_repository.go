package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/youlead/youlead-backend/internal/models"
	"github.com/youlead/youlead-backend/internal/types"
)

// WorkItem is a task or a project. Both kinds share one shape; ProjectID and
// Priority are only stored for tasks.
type WorkItem struct {
	Kind        types.EntityKind
	ID          string
	CreatedBy   string
	TeamID      string
	ProjectID   *string
	Name        string
	Description string
	Members     []string
	Deadlines   models.Deadlines
	Status      types.EntityStatus
	Priority    *types.Priority
	CompletedAt *time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// HasMember reports whether uid is on the item's member list.
func (w *WorkItem) HasMember(uid string) bool {
	for _, m := range w.Members {
		if m == uid {
			return true
		}
	}
	return false
}

type WorkItemFilter struct {
	TeamID    string
	ProjectID *string
	MemberID  *string
	Status    *types.EntityStatus
	Limit     int
	Offset    int
}

// WorkItemRepository persists one kind of work item. Writes that change
// status or membership append their activity in the same transaction.
type WorkItemRepository interface {
	Kind() types.EntityKind
	Create(ctx context.Context, item *WorkItem, activity *models.Activity) error
	FindByID(ctx context.Context, id string) (*WorkItem, error)
	List(ctx context.Context, filter WorkItemFilter) ([]*WorkItem, error)
	// UpdateStatus persists a derived status. Returns ErrStaleWrite if the
	// stored status is no longer from, or is completed.
	UpdateStatus(ctx context.Context, id string, from, to types.EntityStatus) error
	// MarkComplete returns ErrStaleWrite if the item is already completed.
	MarkComplete(ctx context.Context, item *WorkItem, activity *models.Activity) error
	// PrependDeadline makes deadline current and stores status unless the
	// item is completed.
	PrependDeadline(ctx context.Context, item *WorkItem, deadline time.Time, status types.EntityStatus, activity *models.Activity) error
	// AddMembers returns ErrStaleWrite if any uid is already a member.
	AddMembers(ctx context.Context, item *WorkItem, uids []string, activity *models.Activity) error
	// RemoveMembers returns ErrStaleWrite if any uid is not a member.
	RemoveMembers(ctx context.Context, item *WorkItem, uids []string, activity *models.Activity) error
	// MarkPastDue moves pending items whose current deadline is before now.
	MarkPastDue(ctx context.Context, now time.Time) (int64, error)
}

type pgWorkItemRepository struct {
	pool  *pgxpool.Pool
	kind  types.EntityKind
	table string
	// select expressions for the task-only columns
	extraCols string
}

func NewTaskRepository(pool *pgxpool.Pool) WorkItemRepository {
	return &pgWorkItemRepository{pool: pool, kind: types.KindTask, table: "tasks", extraCols: "project_id::text, priority"}
}

func NewProjectRepository(pool *pgxpool.Pool) WorkItemRepository {
	return &pgWorkItemRepository{pool: pool, kind: types.KindProject, table: "projects", extraCols: "NULL::text, NULL::text"}
}

func (r *pgWorkItemRepository) Kind() types.EntityKind { return r.kind }

func (r *pgWorkItemRepository) columns() string {
	return `id, created_by, team_id, ` + r.extraCols + `, name, description, members, deadlines,
		status, completed_at, created_at, updated_at`
}

func (r *pgWorkItemRepository) scan(row pgx.Row) (*WorkItem, error) {
	item := &WorkItem{Kind: r.kind}
	var deadlines []time.Time
	err := row.Scan(
		&item.ID, &item.CreatedBy, &item.TeamID, &item.ProjectID, &item.Priority,
		&item.Name, &item.Description, &item.Members, &deadlines,
		&item.Status, &item.CompletedAt, &item.CreatedAt, &item.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	item.Deadlines = models.Deadlines(deadlines)
	return item, nil
}

func (r *pgWorkItemRepository) Create(ctx context.Context, item *WorkItem, activity *models.Activity) error {
	if item.Members == nil {
		item.Members = []string{}
	}
	deadlines := []time.Time(item.Deadlines)
	if deadlines == nil {
		deadlines = []time.Time{}
	}
	return pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		var row pgx.Row
		if r.kind == types.KindTask {
			var priority *string
			if item.Priority != nil {
				p := string(*item.Priority)
				priority = &p
			}
			row = tx.QueryRow(ctx, `
				INSERT INTO tasks (id, created_by, team_id, project_id, name, description,
					members, deadlines, status, priority)
				VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
				RETURNING created_at, updated_at
			`, item.ID, item.CreatedBy, item.TeamID, item.ProjectID, item.Name, item.Description,
				item.Members, deadlines, string(item.Status), priority)
		} else {
			row = tx.QueryRow(ctx, `
				INSERT INTO projects (id, created_by, team_id, name, description,
					members, deadlines, status)
				VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
				RETURNING created_at, updated_at
			`, item.ID, item.CreatedBy, item.TeamID, item.Name, item.Description,
				item.Members, deadlines, string(item.Status))
		}
		if err := row.Scan(&item.CreatedAt, &item.UpdatedAt); err != nil {
			return err
		}
		return insertActivity(ctx, tx, activity)
	})
}

func (r *pgWorkItemRepository) FindByID(ctx context.Context, id string) (*WorkItem, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE id = $1`, r.columns(), r.table)
	item, err := r.scan(r.pool.QueryRow(ctx, query, id))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	return item, err
}

func (r *pgWorkItemRepository) List(ctx context.Context, filter WorkItemFilter) ([]*WorkItem, error) {
	where := []string{"team_id = $1"}
	args := []any{filter.TeamID}

	if filter.ProjectID != nil && r.kind == types.KindTask {
		args = append(args, *filter.ProjectID)
		where = append(where, fmt.Sprintf("project_id = $%d", len(args)))
	}
	if filter.MemberID != nil {
		args = append(args, *filter.MemberID)
		where = append(where, fmt.Sprintf("$%d = ANY(members)", len(args)))
	}
	if filter.Status != nil {
		args = append(args, string(*filter.Status))
		where = append(where, fmt.Sprintf("status = $%d", len(args)))
	}

	limit := filter.Limit
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	args = append(args, limit, filter.Offset)

	query := fmt.Sprintf(`
		SELECT %s FROM %s
		WHERE %s
		ORDER BY created_at DESC, id ASC
		LIMIT $%d OFFSET $%d
	`, r.columns(), r.table, strings.Join(where, " AND "), len(args)-1, len(args))

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []*WorkItem
	for rows.Next() {
		item, err := r.scan(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

func (r *pgWorkItemRepository) UpdateStatus(ctx context.Context, id string, from, to types.EntityStatus) error {
	query := fmt.Sprintf(`
		UPDATE %s SET status = $3, updated_at = NOW()
		WHERE id = $1 AND status = $2 AND status <> 'completed'
	`, r.table)
	tag, err := r.pool.Exec(ctx, query, id, string(from), string(to))
	return expectOne(tag, err, ErrStaleWrite)
}

func (r *pgWorkItemRepository) MarkComplete(ctx context.Context, item *WorkItem, activity *models.Activity) error {
	return pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		query := fmt.Sprintf(`
			UPDATE %s SET status = 'completed', completed_at = NOW(), updated_at = NOW()
			WHERE id = $1 AND status <> 'completed'
			RETURNING completed_at, updated_at
		`, r.table)
		err := tx.QueryRow(ctx, query, item.ID).Scan(&item.CompletedAt, &item.UpdatedAt)
		if err == pgx.ErrNoRows {
			return ErrStaleWrite
		}
		if err != nil {
			return err
		}
		item.Status = types.StatusCompleted
		return insertActivity(ctx, tx, activity)
	})
}

func (r *pgWorkItemRepository) PrependDeadline(ctx context.Context, item *WorkItem, deadline time.Time, status types.EntityStatus, activity *models.Activity) error {
	return pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		query := fmt.Sprintf(`
			UPDATE %s
			SET deadlines = array_prepend($2::timestamptz, deadlines),
				status = CASE WHEN status = 'completed' THEN status ELSE $3 END,
				updated_at = NOW()
			WHERE id = $1
			RETURNING deadlines, status, updated_at
		`, r.table)
		var deadlines []time.Time
		err := tx.QueryRow(ctx, query, item.ID, deadline, string(status)).
			Scan(&deadlines, &item.Status, &item.UpdatedAt)
		if err == pgx.ErrNoRows {
			return ErrStaleWrite
		}
		if err != nil {
			return err
		}
		item.Deadlines = models.Deadlines(deadlines)
		return insertActivity(ctx, tx, activity)
	})
}

func (r *pgWorkItemRepository) AddMembers(ctx context.Context, item *WorkItem, uids []string, activity *models.Activity) error {
	return r.updateMembers(ctx, item, fmt.Sprintf(`
		UPDATE %s SET members = members || $2::text[], updated_at = NOW()
		WHERE id = $1 AND NOT (members && $2::text[])
		RETURNING members, updated_at
	`, r.table), uids, activity)
}

func (r *pgWorkItemRepository) RemoveMembers(ctx context.Context, item *WorkItem, uids []string, activity *models.Activity) error {
	return r.updateMembers(ctx, item, fmt.Sprintf(`
		UPDATE %s
		SET members = ARRAY(SELECT m FROM unnest(members) AS m WHERE NOT m = ANY($2::text[])),
			updated_at = NOW()
		WHERE id = $1 AND members @> $2::text[]
		RETURNING members, updated_at
	`, r.table), uids, activity)
}

func (r *pgWorkItemRepository) updateMembers(ctx context.Context, item *WorkItem, query string, uids []string, activity *models.Activity) error {
	return pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		err := tx.QueryRow(ctx, query, item.ID, uids).Scan(&item.Members, &item.UpdatedAt)
		if err == pgx.ErrNoRows {
			return ErrStaleWrite
		}
		if err != nil {
			return err
		}
		return insertActivity(ctx, tx, activity)
	})
}

func (r *pgWorkItemRepository) MarkPastDue(ctx context.Context, now time.Time) (int64, error) {
	query := fmt.Sprintf(`
		UPDATE %s SET status = 'pastDue', updated_at = NOW()
		WHERE status = 'pending' AND cardinality(deadlines) > 0 AND deadlines[1] < $1
	`, r.table)
	tag, err := r.pool.Exec(ctx, query, now)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
