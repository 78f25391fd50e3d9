package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/spec-kit/skilllink-support/internal/domain"
	"github.com/spec-kit/skilllink-support/internal/persistence"
)

var (
	// ErrTicketNotFound is returned when no ticket has the requested number.
	ErrTicketNotFound = errors.New("ticket not found")
	// ErrDuplicateTicketNumber is returned when the generated number is already taken.
	ErrDuplicateTicketNumber = errors.New("duplicate ticket number")
	// ErrStatusConflict is returned when the status changed between read and write.
	ErrStatusConflict = errors.New("ticket status changed concurrently")
)

// StatusDrift records a ledger row that disagreed with the ticket table.
type StatusDrift struct {
	Status domain.TicketStatus
	Ledger int64
	Actual int64
}

// TicketRepository encapsulates ticket persistence and the per-status ledger.
// Every mutation adjusts ticket_stats inside the same transaction.
type TicketRepository interface {
	Create(ctx context.Context, ticket *domain.Ticket) error
	GetByNumber(ctx context.Context, ticketNumber string) (*domain.Ticket, error)
	UpdateStatus(ctx context.Context, ticketNumber string, status domain.TicketStatus) (*domain.StatusTransition, error)
	StatusCounts(ctx context.Context) ([]domain.StatusCount, error)
	ReconcileStatusCounts(ctx context.Context) ([]StatusDrift, error)
}

type ticketRepository struct {
	db *sqlx.DB
}

// NewTicketRepository instantiates repository.
func NewTicketRepository(db *sqlx.DB) TicketRepository {
	return &ticketRepository{db: db}
}

type ticketRow struct {
	ID           int64  `db:"id"`
	TicketNumber string `db:"ticket_number"`
	Name         string `db:"name"`
	Email        string `db:"email"`
	Subject      string `db:"subject"`
	Priority     string `db:"priority"`
	Department   string `db:"department"`
	Message      string `db:"message"`
	Status       string `db:"status"`
	CreatedAt    string `db:"created_at"`
	UpdatedAt    string `db:"updated_at"`
}

func (r ticketRow) toDomain() (*domain.Ticket, error) {
	createdAt, err := persistence.ParseTime(r.CreatedAt)
	if err != nil {
		return nil, err
	}
	updatedAt, err := persistence.ParseTime(r.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &domain.Ticket{
		ID:           r.ID,
		TicketNumber: r.TicketNumber,
		Name:         r.Name,
		Email:        r.Email,
		Subject:      r.Subject,
		Priority:     domain.TicketPriority(r.Priority),
		Department:   r.Department,
		Message:      r.Message,
		Status:       domain.TicketStatus(r.Status),
		CreatedAt:    createdAt,
		UpdatedAt:    updatedAt,
	}, nil
}

func (r *ticketRepository) Create(ctx context.Context, ticket *domain.Ticket) error {
	const query = `
        INSERT INTO tickets (ticket_number, name, email, subject, priority, department, message, status, created_at, updated_at)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	now := persistence.FormatTime(time.Now())

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback() //nolint:errcheck

	res, err := tx.ExecContext(ctx, query,
		ticket.TicketNumber,
		ticket.Name,
		ticket.Email,
		ticket.Subject,
		ticket.Priority,
		ticket.Department,
		ticket.Message,
		ticket.Status,
		now,
		now,
	)
	if err != nil {
		if persistence.IsUniqueViolation(err) {
			return ErrDuplicateTicketNumber
		}
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	if err := adjustStatusCount(ctx, tx, ticket.Status, 1); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}

	stamp, _ := persistence.ParseTime(now)
	ticket.ID = id
	ticket.CreatedAt = stamp
	ticket.UpdatedAt = stamp
	return nil
}

func (r *ticketRepository) GetByNumber(ctx context.Context, ticketNumber string) (*domain.Ticket, error) {
	const query = `
        SELECT id, ticket_number, name, email, subject, priority, department, message, status, created_at, updated_at
        FROM tickets WHERE ticket_number = ?`

	var row ticketRow
	if err := r.db.GetContext(ctx, &row, query, ticketNumber); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTicketNotFound
		}
		return nil, err
	}
	return row.toDomain()
}

// UpdateStatus captures the current status before touching the row, then
// applies the row update, ledger adjustment and history entry as one unit.
func (r *ticketRepository) UpdateStatus(ctx context.Context, ticketNumber string, status domain.TicketStatus) (*domain.StatusTransition, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback() //nolint:errcheck

	var current struct {
		ID     int64  `db:"id"`
		Status string `db:"status"`
	}
	if err := tx.GetContext(ctx, &current, `SELECT id, status FROM tickets WHERE ticket_number = ?`, ticketNumber); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTicketNotFound
		}
		return nil, err
	}

	oldStatus := domain.TicketStatus(current.Status)
	now := persistence.FormatTime(time.Now())

	res, err := tx.ExecContext(ctx,
		`UPDATE tickets SET status = ?, updated_at = ? WHERE id = ? AND status = ?`,
		status, now, current.ID, oldStatus)
	if err != nil {
		return nil, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return nil, err
	}
	if affected == 0 {
		return nil, ErrStatusConflict
	}

	if oldStatus != status {
		if err := adjustStatusCount(ctx, tx, oldStatus, -1); err != nil {
			return nil, err
		}
		if err := adjustStatusCount(ctx, tx, status, 1); err != nil {
			return nil, err
		}
		if err := insertHistory(ctx, tx, current.ID, oldStatus, status, now); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	updatedAt, _ := persistence.ParseTime(now)
	return &domain.StatusTransition{
		TicketNumber: ticketNumber,
		From:         oldStatus,
		To:           status,
		UpdatedAt:    updatedAt,
	}, nil
}

func (r *ticketRepository) StatusCounts(ctx context.Context) ([]domain.StatusCount, error) {
	counts, err := ledgerCounts(ctx, r.db)
	if err != nil {
		return nil, err
	}
	result := make([]domain.StatusCount, 0, len(domain.TicketStatuses))
	for _, status := range domain.TicketStatuses {
		result = append(result, domain.StatusCount{Status: status, Count: counts[status]})
	}
	return result, nil
}

// ReconcileStatusCounts rewrites ledger rows that disagree with COUNT(*) over tickets.
func (r *ticketRepository) ReconcileStatusCounts(ctx context.Context) ([]StatusDrift, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback() //nolint:errcheck

	ledger, err := ledgerCounts(ctx, tx)
	if err != nil {
		return nil, err
	}

	var rows []struct {
		Status string `db:"status"`
		Count  int64  `db:"count"`
	}
	if err := tx.SelectContext(ctx, &rows, `SELECT status, COUNT(*) AS count FROM tickets GROUP BY status`); err != nil {
		return nil, err
	}
	actual := make(map[domain.TicketStatus]int64, len(rows))
	for _, row := range rows {
		actual[domain.TicketStatus(row.Status)] = row.Count
	}

	var drift []StatusDrift
	for _, status := range domain.TicketStatuses {
		if ledger[status] == actual[status] {
			continue
		}
		drift = append(drift, StatusDrift{Status: status, Ledger: ledger[status], Actual: actual[status]})
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO ticket_stats (status, count) VALUES (?, ?)
             ON CONFLICT(status) DO UPDATE SET count = excluded.count`,
			status, actual[status]); err != nil {
			return nil, fmt.Errorf("reset ledger for %s: %w", status, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return drift, nil
}

func adjustStatusCount(ctx context.Context, tx *sqlx.Tx, status domain.TicketStatus, delta int) error {
	const query = `
        INSERT INTO ticket_stats (status, count) VALUES (?, ?)
        ON CONFLICT(status) DO UPDATE SET count = ticket_stats.count + excluded.count`
	if _, err := tx.ExecContext(ctx, query, status, delta); err != nil {
		return fmt.Errorf("adjust ledger for %s: %w", status, err)
	}
	return nil
}

func ledgerCounts(ctx context.Context, q sqlx.QueryerContext) (map[domain.TicketStatus]int64, error) {
	var rows []struct {
		Status string `db:"status"`
		Count  int64  `db:"count"`
	}
	if err := sqlx.SelectContext(ctx, q, &rows, `SELECT status, count FROM ticket_stats`); err != nil {
		return nil, err
	}
	counts := make(map[domain.TicketStatus]int64, len(rows))
	for _, row := range rows {
		counts[domain.TicketStatus(row.Status)] = row.Count
	}
	return counts, nil
}
