package storage

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/genocem/Edumond-AI-portal/internal/conversation"
)

// setupTestDB opens an in-memory database closed at test end.
func setupTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := NewTestDB(context.Background())
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

// TestNew_FileSystemDatabase tests database creation with file system persistence
func TestNew_FileSystemDatabase(t *testing.T) {
	t.Parallel()
	dbPath := filepath.Join(t.TempDir(), "test.db")

	ctx := context.Background()
	db, err := New(ctx, dbPath, time.Hour)
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	_, err = os.Stat(dbPath)
	require.NoError(t, err, "database file not created")

	sess := conversation.NewSession("s1", time.Now())
	require.NoError(t, db.SaveSession(ctx, sess))

	// WAL file appears after the first write
	_, err = os.Stat(dbPath + "-wal")
	assert.NoError(t, err)
	assert.Equal(t, dbPath, db.Path())
	assert.Equal(t, time.Hour, db.SessionTTL())
}

// TestNew_NestedDirectory tests database creation with nested directory path
func TestNew_NestedDirectory(t *testing.T) {
	t.Parallel()
	dbPath := filepath.Join(t.TempDir(), "sub1", "sub2", "test.db")

	db, err := New(context.Background(), dbPath, time.Hour)
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	_, err = os.Stat(dbPath)
	assert.NoError(t, err)
}

func TestPing(t *testing.T) {
	t.Parallel()
	db := setupTestDB(t)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	assert.NoError(t, db.Ping(ctx))
}

// TestClose_Reopen checks data survives a clean close.
func TestClose_Reopen(t *testing.T) {
	t.Parallel()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	ctx := context.Background()

	db, err := New(ctx, dbPath, time.Hour)
	require.NoError(t, err)
	require.NoError(t, db.SaveSession(ctx, conversation.NewSession("s1", time.Now())))
	require.NoError(t, db.Close())

	db2, err := New(ctx, dbPath, time.Hour)
	require.NoError(t, err)
	defer func() { _ = db2.Close() }()

	got, err := db2.LoadSession(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, "s1", got.ID)
}

func TestInitSchema_Idempotent(t *testing.T) {
	t.Parallel()
	db := setupTestDB(t)
	assert.NoError(t, InitSchema(context.Background(), db.conn))
}

func TestDSN(t *testing.T) {
	t.Parallel()
	assert.Equal(t,
		"file:/data/edumond.db?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)&_pragma=synchronous(NORMAL)",
		dsn("/data/edumond.db"))
}

// TestNew_PragmasOnEveryConnection holds two pooled connections at once so
// the second one is opened fresh by the driver.
func TestNew_PragmasOnEveryConnection(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	db, err := New(ctx, filepath.Join(t.TempDir(), "pool.db"), time.Hour)
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	first, err := db.conn.Conn(ctx)
	require.NoError(t, err)
	defer func() { _ = first.Close() }()
	second, err := db.conn.Conn(ctx)
	require.NoError(t, err)
	defer func() { _ = second.Close() }()

	for i, c := range []*sql.Conn{first, second} {
		var foreignKeys, busyTimeout int
		var journalMode string
		require.NoError(t, c.QueryRowContext(ctx, "PRAGMA foreign_keys").Scan(&foreignKeys))
		require.NoError(t, c.QueryRowContext(ctx, "PRAGMA busy_timeout").Scan(&busyTimeout))
		require.NoError(t, c.QueryRowContext(ctx, "PRAGMA journal_mode").Scan(&journalMode))
		assert.Equal(t, 1, foreignKeys, "connection %d", i)
		assert.Equal(t, 5000, busyTimeout, "connection %d", i)
		assert.Equal(t, "wal", journalMode, "connection %d", i)
	}
}
