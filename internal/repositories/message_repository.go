package repositories

import (
	"context"

	"github.com/jmoiron/sqlx"

	"boardhub/internal/models"
)

const messageColumns = `id::text AS id, content, user_id, username, created_at`

// MessageRepository is the append-only chat message store.
type MessageRepository interface {
	CreateMessage(ctx context.Context, content, userID, username string) (models.ChatMessage, error)
	ListRecent(ctx context.Context, limit, offset int) ([]models.ChatMessage, error)
	CountMessages(ctx context.Context) (int, error)
}

// MessageRepo is a sqlx-backed repository.
type MessageRepo struct {
	db *sqlx.DB
}

// NewMessageRepo constructs MessageRepo.
func NewMessageRepo(db *sqlx.DB) *MessageRepo {
	return &MessageRepo{db: db}
}

// CreateMessage appends a message and returns the stored row.
func (r *MessageRepo) CreateMessage(ctx context.Context, content, userID, username string) (models.ChatMessage, error) {
	var msg models.ChatMessage
	err := r.db.QueryRowxContext(ctx, `INSERT INTO chat_messages (content, user_id, username) VALUES ($1, $2, $3) RETURNING `+messageColumns, content, userID, username).
		StructScan(&msg)
	return msg, err
}

// ListRecent returns messages newest first. Ties on created_at are broken by id.
func (r *MessageRepo) ListRecent(ctx context.Context, limit, offset int) ([]models.ChatMessage, error) {
	msgs := []models.ChatMessage{}
	err := r.db.SelectContext(ctx, &msgs, `SELECT `+messageColumns+` FROM chat_messages
        ORDER BY created_at DESC, id DESC
        LIMIT $1 OFFSET $2`, limit, offset)
	return msgs, err
}

// CountMessages returns the total number of stored messages.
func (r *MessageRepo) CountMessages(ctx context.Context) (int, error) {
	var total int
	err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM chat_messages`)
	return total, err
}
