package repository

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/spec-kit/skilllink-support/internal/domain"
	"github.com/spec-kit/skilllink-support/internal/persistence"
)

// TicketHistoryRepository reads the status audit trail.
type TicketHistoryRepository interface {
	ListByTicket(ctx context.Context, ticketID int64) ([]domain.TicketHistory, error)
}

type ticketHistoryRepository struct {
	db *sqlx.DB
}

// NewTicketHistoryRepository builds repository.
func NewTicketHistoryRepository(db *sqlx.DB) TicketHistoryRepository {
	return &ticketHistoryRepository{db: db}
}

// insertHistory runs inside the status update transaction.
func insertHistory(ctx context.Context, tx *sqlx.Tx, ticketID int64, oldStatus, newStatus domain.TicketStatus, createdAt string) error {
	const query = `
        INSERT INTO ticket_history (ticket_id, old_status, new_status, created_at)
        VALUES (?, ?, ?, ?)`
	_, err := tx.ExecContext(ctx, query, ticketID, oldStatus, newStatus, createdAt)
	return err
}

func (r *ticketHistoryRepository) ListByTicket(ctx context.Context, ticketID int64) ([]domain.TicketHistory, error) {
	const query = `
        SELECT id, ticket_id, old_status, new_status, created_at
        FROM ticket_history WHERE ticket_id = ? ORDER BY id ASC`

	var rows []struct {
		ID        int64  `db:"id"`
		TicketID  int64  `db:"ticket_id"`
		OldStatus string `db:"old_status"`
		NewStatus string `db:"new_status"`
		CreatedAt string `db:"created_at"`
	}
	if err := r.db.SelectContext(ctx, &rows, query, ticketID); err != nil {
		return nil, err
	}

	result := make([]domain.TicketHistory, 0, len(rows))
	for _, row := range rows {
		createdAt, err := persistence.ParseTime(row.CreatedAt)
		if err != nil {
			return nil, err
		}
		result = append(result, domain.TicketHistory{
			ID:        row.ID,
			TicketID:  row.TicketID,
			OldStatus: domain.TicketStatus(row.OldStatus),
			NewStatus: domain.TicketStatus(row.NewStatus),
			CreatedAt: createdAt,
		})
	}
	return result, nil
}
