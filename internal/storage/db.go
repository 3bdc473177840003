// Package storage persists conversation sessions, submitted questionnaires
// and booked consultations in SQLite.
package storage

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite" // SQLite driver for database/sql
)

// MemoryPath opens a private in-memory database.
const MemoryPath = ":memory:"

// slowQueryThreshold marks operations worth a warning log.
const slowQueryThreshold = 100 * time.Millisecond

// DB wraps the SQLite database connection
type DB struct {
	conn       *sql.DB
	path       string
	sessionTTL time.Duration // Idle time after which a session may be purged
	now        func() time.Time
}

// connectionPragmas run on every new pooled connection. foreign_keys backs
// the ON DELETE CASCADE from sessions to responses and meetings.
var connectionPragmas = []string{
	"journal_mode(WAL)",
	"busy_timeout(5000)",
	"foreign_keys(1)",
	"synchronous(NORMAL)",
}

// dsn builds a modernc URI that applies connectionPragmas per connection.
func dsn(dbPath string) string {
	params := make([]string, len(connectionPragmas))
	for i, p := range connectionPragmas {
		params[i] = "_pragma=" + p
	}
	return "file:" + dbPath + "?" + strings.Join(params, "&")
}

// New opens the database at dbPath, applies connection pragmas and creates
// the schema. sessionTTL bounds how long an idle session is kept.
func New(ctx context.Context, dbPath string, sessionTTL time.Duration) (*DB, error) {
	// Ensure directory exists (skip for in-memory database)
	if dbPath != MemoryPath {
		dir := filepath.Dir(dbPath)
		if dir != "" && dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("failed to create database directory: %w", err)
			}
		}
	}

	conn, err := sql.Open("sqlite", dsn(dbPath))
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if dbPath == MemoryPath {
		// Every connection to :memory: is a separate database
		conn.SetMaxOpenConns(1)
	} else {
		conn.SetMaxOpenConns(4)
		conn.SetMaxIdleConns(2)
	}
	conn.SetConnMaxLifetime(0)

	if err := conn.PingContext(ctx); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if err := InitSchema(ctx, conn); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return &DB{
		conn:       conn,
		path:       dbPath,
		sessionTTL: sessionTTL,
		now:        time.Now,
	}, nil
}

// NewTestDB creates an in-memory database for testing with a one-day
// session TTL.
func NewTestDB(ctx context.Context) (*DB, error) {
	return New(ctx, MemoryPath, 24*time.Hour)
}

// Close closes the database connection
func (db *DB) Close() error {
	if db.conn != nil {
		return db.conn.Close()
	}
	return nil
}

// Ping verifies the database is reachable.
func (db *DB) Ping(ctx context.Context) error {
	return db.conn.PingContext(ctx)
}

// Path returns the database file path
func (db *DB) Path() string {
	return db.path
}

// SessionTTL returns the configured idle session lifetime.
func (db *DB) SessionTTL() time.Duration {
	return db.sessionTTL
}
