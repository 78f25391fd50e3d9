package persistence_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/skilllink-support/internal/persistence"
	"github.com/spec-kit/skilllink-support/internal/persistence/persistencetest"
)

func TestMigrationsCreateLedgerRows(t *testing.T) {
	db := persistencetest.NewSupportDB(t)

	var statuses []string
	require.NoError(t, db.DB.Select(&statuses, `SELECT status FROM ticket_stats ORDER BY status`))
	assert.ElementsMatch(t, []string{"Pending", "In Progress", "Resolved", "Closed"}, statuses)

	var total int64
	require.NoError(t, db.DB.Get(&total, `SELECT COALESCE(SUM(count), 0) FROM ticket_stats`))
	assert.Zero(t, total)
}

func TestMigrationsAreIdempotent(t *testing.T) {
	db := persistencetest.NewSupportDB(t)
	assert.NoError(t, persistence.RunMigrations(db, zap.NewNop()))
}

func TestSeedDoesNotDuplicate(t *testing.T) {
	db := persistencetest.NewSupportDB(t)
	ctx := context.Background()

	require.NoError(t, persistence.SeedSupportContent(ctx, db, zap.NewNop()))

	content, err := persistence.LoadSeedContent()
	require.NoError(t, err)

	var faqs, articles int
	require.NoError(t, db.DB.Get(&faqs, `SELECT COUNT(*) FROM faqs`))
	require.NoError(t, db.DB.Get(&articles, `SELECT COUNT(*) FROM knowledge_base`))
	assert.Equal(t, len(content.FAQs), faqs)
	assert.Equal(t, len(content.Articles), articles)
}

func TestTicketNumberUniqueConstraint(t *testing.T) {
	db := persistencetest.NewSupportDB(t)
	now := persistence.FormatTime(time.Now())
	insert := `INSERT INTO tickets (ticket_number, name, email, message, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?)`

	_, err := db.DB.Exec(insert, "GLOW-123456789", "A", "a@x.com", "help", now, now)
	require.NoError(t, err)
	_, err = db.DB.Exec(insert, "GLOW-123456789", "B", "b@x.com", "help", now, now)
	require.Error(t, err)
	assert.True(t, persistence.IsUniqueViolation(err))
}

func TestIsUniqueViolation(t *testing.T) {
	assert.False(t, persistence.IsUniqueViolation(nil))
	assert.False(t, persistence.IsUniqueViolation(errors.New("disk full")))
	assert.True(t, persistence.IsUniqueViolation(errors.New("UNIQUE constraint failed: tickets.ticket_number")))
}

func TestTimestampRoundTrip(t *testing.T) {
	ts := time.Date(2024, 3, 9, 14, 5, 6, 789000000, time.UTC)
	formatted := persistence.FormatTime(ts)
	assert.Equal(t, "2024-03-09T14:05:06.789000Z", formatted)

	parsed, err := persistence.ParseTime(formatted)
	require.NoError(t, err)
	assert.True(t, ts.Equal(parsed))

	legacy, err := persistence.ParseTime("2024-03-09 14:05:06")
	require.NoError(t, err)
	assert.Equal(t, 2024, legacy.Year())

	_, err = persistence.ParseTime("yesterday")
	assert.Error(t, err)
}

func TestSupportDBPing(t *testing.T) {
	var missing *persistence.SupportDB
	assert.Error(t, missing.Ping(context.Background()))
	assert.NoError(t, persistencetest.NewSupportDB(t).Ping(context.Background()))
}
