package repository

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/spec-kit/skilllink-support/internal/domain"
	"github.com/spec-kit/skilllink-support/internal/persistence"
)

// ChatRepository stores live-chat transcripts.
type ChatRepository interface {
	Append(ctx context.Context, msg *domain.ChatMessage) error
	ListBySession(ctx context.Context, sessionID string) ([]domain.ChatMessage, error)
}

type chatRepository struct {
	db *sqlx.DB
}

// NewChatRepository instantiates repository.
func NewChatRepository(db *sqlx.DB) ChatRepository {
	return &chatRepository{db: db}
}

func (r *chatRepository) Append(ctx context.Context, msg *domain.ChatMessage) error {
	const query = `INSERT INTO chat_messages (session_id, message, is_user, created_at) VALUES (?, ?, ?, ?)`

	now := persistence.FormatTime(time.Now())
	res, err := r.db.ExecContext(ctx, query, msg.SessionID, msg.Message, msg.IsUser, now)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	msg.ID = id
	msg.CreatedAt, _ = persistence.ParseTime(now)
	return nil
}

func (r *chatRepository) ListBySession(ctx context.Context, sessionID string) ([]domain.ChatMessage, error) {
	const query = `
        SELECT id, session_id, message, is_user, created_at
        FROM chat_messages
        WHERE session_id = ?
        ORDER BY created_at ASC, id ASC`

	var rows []struct {
		ID        int64  `db:"id"`
		SessionID string `db:"session_id"`
		Message   string `db:"message"`
		IsUser    bool   `db:"is_user"`
		CreatedAt string `db:"created_at"`
	}
	if err := r.db.SelectContext(ctx, &rows, query, sessionID); err != nil {
		return nil, err
	}

	result := make([]domain.ChatMessage, 0, len(rows))
	for _, row := range rows {
		createdAt, err := persistence.ParseTime(row.CreatedAt)
		if err != nil {
			return nil, err
		}
		result = append(result, domain.ChatMessage{
			ID:        row.ID,
			SessionID: row.SessionID,
			Message:   row.Message,
			IsUser:    row.IsUser,
			CreatedAt: createdAt,
		})
	}
	return result, nil
}
