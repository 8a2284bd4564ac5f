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
// Message Models
// ============================================

type Message struct {
	ID         string
	Seq        int64
	SentBy     string
	SentIn     types.ChatType
	ReceivedBy string
	ReadBy     models.ReadSet
	FileID     *string
	Editted    bool
	MsgContent string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

func (m *Message) Address() models.Address {
	return models.Address{SentIn: m.SentIn, ReceivedBy: m.ReceivedBy}
}

// ConversationQuery selects one conversation. Peer is the other participant
// of a direct-message pair and is ignored for other contexts.
type ConversationQuery struct {
	SentIn     types.ChatType
	ReceivedBy string
	Peer       string
	BeforeSeq  int64
	Limit      int
}

type MessageRepository interface {
	// Create assigns ID, Seq and timestamps. Seq orders messages as persisted.
	Create(ctx context.Context, msg *Message) error
	FindByID(ctx context.Context, id string) (*Message, error)
	// FindByIDs returns the found messages ordered by Seq.
	FindByIDs(ctx context.Context, ids []string) ([]*Message, error)
	// ListConversation returns up to Limit messages before BeforeSeq, oldest first.
	ListConversation(ctx context.Context, q ConversationQuery) ([]*Message, error)
	// AddReader records a read receipt; added is false if it already existed.
	AddReader(ctx context.Context, messageID, readerID string) (added bool, err error)
	// UpdateContent replaces the body and sets editted permanently.
	UpdateContent(ctx context.Context, id, content string) error
}

type pgMessageRepository struct {
	pool *pgxpool.Pool
}

func NewMessageRepository(pool *pgxpool.Pool) MessageRepository {
	return &pgMessageRepository{pool: pool}
}

const messageColumns = `id, seq, sent_by, sent_in, received_by, file_id, editted, msg_content, created_at, updated_at`

func scanMessage(row pgx.Row) (*Message, error) {
	msg := &Message{}
	err := row.Scan(
		&msg.ID, &msg.Seq, &msg.SentBy, &msg.SentIn, &msg.ReceivedBy, &msg.FileID,
		&msg.Editted, &msg.MsgContent, &msg.CreatedAt, &msg.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return msg, nil
}

func (r *pgMessageRepository) Create(ctx context.Context, msg *Message) error {
	query := `
		INSERT INTO messages (sent_by, sent_in, received_by, file_id, msg_content)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, seq, created_at, updated_at
	`
	msg.ReadBy = models.ReadSet{}
	return r.pool.QueryRow(ctx, query,
		msg.SentBy, string(msg.SentIn), msg.ReceivedBy, msg.FileID, msg.MsgContent,
	).Scan(&msg.ID, &msg.Seq, &msg.CreatedAt, &msg.UpdatedAt)
}

func (r *pgMessageRepository) FindByID(ctx context.Context, id string) (*Message, error) {
	msg, err := scanMessage(r.pool.QueryRow(ctx, `SELECT `+messageColumns+` FROM messages WHERE id = $1`, id))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if err := r.loadReaders(ctx, []*Message{msg}); err != nil {
		return nil, err
	}
	return msg, nil
}

func (r *pgMessageRepository) FindByIDs(ctx context.Context, ids []string) ([]*Message, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	query := `SELECT ` + messageColumns + ` FROM messages WHERE id = ANY($1::text[]::uuid[]) ORDER BY seq`
	return r.list(ctx, query, ids)
}

func (r *pgMessageRepository) ListConversation(ctx context.Context, q ConversationQuery) ([]*Message, error) {
	limit := q.Limit
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	before := q.BeforeSeq
	if before <= 0 {
		before = 1<<63 - 1
	}

	var query string
	var args []any
	if q.SentIn == types.ChatDM {
		query = `
			SELECT * FROM (
				SELECT ` + messageColumns + ` FROM messages
				WHERE sent_in = 'dm' AND seq < $3
					AND ((sent_by::text = $1 AND received_by = $2) OR (sent_by::text = $2 AND received_by = $1))
				ORDER BY seq DESC
				LIMIT $4
			) page ORDER BY seq ASC
		`
		args = []any{q.Peer, q.ReceivedBy, before, limit}
	} else {
		query = `
			SELECT * FROM (
				SELECT ` + messageColumns + ` FROM messages
				WHERE sent_in = $1 AND received_by = $2 AND seq < $3
				ORDER BY seq DESC
				LIMIT $4
			) page ORDER BY seq ASC
		`
		args = []any{string(q.SentIn), q.ReceivedBy, before, limit}
	}
	return r.list(ctx, query, args...)
}

func (r *pgMessageRepository) list(ctx context.Context, query string, args ...any) ([]*Message, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var messages []*Message
	for rows.Next() {
		msg, err := scanMessage(rows)
		if err != nil {
			return nil, err
		}
		messages = append(messages, msg)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if err := r.loadReaders(ctx, messages); err != nil {
		return nil, err
	}
	return messages, nil
}

func (r *pgMessageRepository) loadReaders(ctx context.Context, messages []*Message) error {
	if len(messages) == 0 {
		return nil
	}
	byID := make(map[string]*Message, len(messages))
	ids := make([]string, len(messages))
	for i, m := range messages {
		m.ReadBy = models.ReadSet{}
		byID[m.ID] = m
		ids[i] = m.ID
	}

	rows, err := r.pool.Query(ctx, `
		SELECT r.message_id, u.id, u.name, u.picture
		FROM message_reads r
		JOIN users u ON u.id = r.reader_id
		WHERE r.message_id = ANY($1::text[]::uuid[])
		ORDER BY r.read_at, u.id
	`, ids)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var messageID string
		var p models.ReaderProfile
		if err := rows.Scan(&messageID, &p.UID, &p.Name, &p.Picture); err != nil {
			return err
		}
		if m := byID[messageID]; m != nil {
			m.ReadBy, _ = m.ReadBy.Add(p)
		}
	}
	return rows.Err()
}

func (r *pgMessageRepository) AddReader(ctx context.Context, messageID, readerID string) (bool, error) {
	tag, err := r.pool.Exec(ctx, `
		INSERT INTO message_reads (message_id, reader_id)
		VALUES ($1, $2)
		ON CONFLICT (message_id, reader_id) DO NOTHING
	`, messageID, readerID)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

func (r *pgMessageRepository) UpdateContent(ctx context.Context, id, content string) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE messages SET msg_content = $2, editted = TRUE, updated_at = NOW()
		WHERE id = $1
	`, id, content)
	return expectOne(tag, err, ErrStaleWrite)
}
