package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/skilllink-support/internal/domain"
)

// ErrProfileNotFound is returned when no profile has the requested id.
var ErrProfileNotFound = errors.New("profile not found")

// ProfileRepository reads profiles from the hosted database.
type ProfileRepository interface {
	GetByID(ctx context.Context, id string) (*domain.Profile, error)
	List(ctx context.Context, limit int) ([]domain.Profile, error)
	CountUsers(ctx context.Context) (int64, error)
	CountCertificates(ctx context.Context) (int64, error)
}

type profileRepository struct {
	pool *pgxpool.Pool
}

// NewProfileRepository returns a Postgres-backed implementation.
func NewProfileRepository(pool *pgxpool.Pool) ProfileRepository {
	return &profileRepository{pool: pool}
}

const profileColumns = `id::text, full_name, email, role, wallet_address, COALESCE(skills, '{}'::text[]), created_at`

func scanProfile(row pgx.Row) (*domain.Profile, error) {
	var profile domain.Profile
	if err := row.Scan(
		&profile.ID,
		&profile.FullName,
		&profile.Email,
		&profile.Role,
		&profile.WalletAddress,
		&profile.Skills,
		&profile.CreatedAt,
	); err != nil {
		return nil, err
	}
	return &profile, nil
}

func (r *profileRepository) GetByID(ctx context.Context, id string) (*domain.Profile, error) {
	query := `SELECT ` + profileColumns + ` FROM profiles WHERE id = $1::uuid`

	profile, err := scanProfile(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrProfileNotFound
		}
		return nil, err
	}
	return profile, nil
}

func (r *profileRepository) List(ctx context.Context, limit int) ([]domain.Profile, error) {
	query := `SELECT ` + profileColumns + ` FROM profiles ORDER BY created_at DESC LIMIT $1`

	rows, err := r.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var profiles []domain.Profile
	for rows.Next() {
		profile, err := scanProfile(rows)
		if err != nil {
			return nil, err
		}
		profiles = append(profiles, *profile)
	}
	return profiles, rows.Err()
}

func (r *profileRepository) CountUsers(ctx context.Context) (int64, error) {
	var count int64
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM profiles`).Scan(&count)
	return count, err
}

func (r *profileRepository) CountCertificates(ctx context.Context) (int64, error) {
	var count int64
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM certificates`).Scan(&count)
	return count, err
}
