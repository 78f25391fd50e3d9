package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/skilllink-support/internal/domain"
)

// PassportRepository persists minted passports.
type PassportRepository interface {
	Create(ctx context.Context, record *domain.PassportRecord) error
	ListByUser(ctx context.Context, userID string) ([]domain.PassportRecord, error)
}

type passportRepository struct {
	pool *pgxpool.Pool
}

// NewPassportRepository returns a Postgres-backed implementation.
func NewPassportRepository(pool *pgxpool.Pool) PassportRepository {
	return &passportRepository{pool: pool}
}

func (r *passportRepository) Create(ctx context.Context, record *domain.PassportRecord) error {
	const query = `
        INSERT INTO passports (id, user_id, wallet_address, metadata, transaction_hash)
        VALUES ($1, $2::uuid, $3, $4, $5)
        RETURNING created_at`

	if record.ID == "" {
		record.ID = uuid.NewString()
	}

	return r.pool.QueryRow(ctx, query,
		record.ID,
		record.UserID,
		record.WalletAddress,
		string(record.Metadata),
		record.TransactionHash,
	).Scan(&record.CreatedAt)
}

func (r *passportRepository) ListByUser(ctx context.Context, userID string) ([]domain.PassportRecord, error) {
	const query = `
        SELECT id::text, user_id::text, wallet_address, metadata::text, transaction_hash, created_at
        FROM passports WHERE user_id = $1::uuid ORDER BY created_at DESC`

	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []domain.PassportRecord
	for rows.Next() {
		var (
			record   domain.PassportRecord
			metadata string
		)
		if err := rows.Scan(
			&record.ID,
			&record.UserID,
			&record.WalletAddress,
			&metadata,
			&record.TransactionHash,
			&record.CreatedAt,
		); err != nil {
			return nil, err
		}
		record.Metadata = []byte(metadata)
		records = append(records, record)
	}
	return records, rows.Err()
}
