package persistence

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/tursodatabase/libsql-client-go/libsql"
	"go.uber.org/zap"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/spec-kit/skilllink-support/internal/config"
)

// TimestampLayout is the fixed-width UTC format stored in TEXT timestamp columns.
// Fixed width keeps lexical and chronological order identical.
const TimestampLayout = "2006-01-02T15:04:05.000000Z"

var localPragmas = []string{
	"PRAGMA foreign_keys=ON;",
	"PRAGMA journal_mode=WAL;",
	"PRAGMA busy_timeout=5000;",
}

// SupportDB wraps the embedded support database shared by all handlers.
type SupportDB struct {
	DB *sqlx.DB
}

// OpenSupportDB opens the support database. A configured URL selects a remote
// libsql (Turso) database; otherwise the local SQLite file at Path is used.
func OpenSupportDB(ctx context.Context, cfg config.SupportDBConfig, logger *zap.Logger) (*SupportDB, error) {
	if cfg.URL != "" {
		return openRemote(ctx, cfg.URL, cfg.AuthToken, logger)
	}
	return OpenLocalSQLite(ctx, cfg.Path, logger)
}

// OpenLocalSQLite opens a SQLite file, or an in-memory database for ":memory:".
// A single connection serializes writers, so multi-statement transactions never
// race each other for the write lock.
func OpenLocalSQLite(ctx context.Context, path string, logger *zap.Logger) (*SupportDB, error) {
	db, err := sqlx.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	for _, pragma := range localPragmas {
		if path == ":memory:" && strings.Contains(pragma, "journal_mode") {
			continue
		}
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply %q: %w", pragma, err)
		}
	}

	logger.Info("connected to sqlite", zap.String("path", path))
	return &SupportDB{DB: db}, nil
}

func openRemote(ctx context.Context, url, token string, logger *zap.Logger) (*SupportDB, error) {
	connStr := url
	if token != "" {
		sep := "?"
		if strings.Contains(url, "?") {
			sep = "&"
		}
		connStr = url + sep + "authToken=" + token
	}

	db, err := sqlx.Open("libsql", connStr)
	if err != nil {
		return nil, fmt.Errorf("open libsql: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping libsql: %w", err)
	}

	logger.Info("connected to libsql", zap.String("url", url))
	return &SupportDB{DB: db}, nil
}

// Close releases the database handle.
func (s *SupportDB) Close() {
	if s != nil && s.DB != nil {
		_ = s.DB.Close()
	}
}

// Ping verifies database connectivity.
func (s *SupportDB) Ping(ctx context.Context) error {
	if s == nil || s.DB == nil {
		return errors.New("support database not configured")
	}
	return s.DB.PingContext(ctx)
}

// Handle returns the underlying sqlx handle.
func (s *SupportDB) Handle() *sqlx.DB {
	if s == nil {
		return nil
	}
	return s.DB
}

// FormatTime renders t in TimestampLayout.
func FormatTime(t time.Time) string {
	return t.UTC().Format(TimestampLayout)
}

// ParseTime parses a stored timestamp, accepting SQLite's CURRENT_TIMESTAMP form too.
func ParseTime(val string) (time.Time, error) {
	for _, layout := range []string{TimestampLayout, time.RFC3339Nano, "2006-01-02 15:04:05"} {
		if t, err := time.Parse(layout, val); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp %q", val)
}

// IsUniqueViolation reports whether err is a UNIQUE or PRIMARY KEY constraint failure.
func IsUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	var sqliteErr *sqlite.Error
	if errors.As(err, &sqliteErr) {
		code := sqliteErr.Code()
		return code == sqlite3.SQLITE_CONSTRAINT_UNIQUE || code == sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}
