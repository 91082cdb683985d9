package store

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"

	_ "modernc.org/sqlite"

	"github.com/skritek/switchboard/core"
	"github.com/skritek/switchboard/logging"
)

// SQLiteOptions configures a SQLiteStore instance.
type SQLiteOptions struct {
	// Logger receives load/skip diagnostics. Defaults to NoOpLogger.
	Logger logging.Logger
}

// SQLiteStore implements core.ContextStore and core.MemoryStore on a single
// SQLite database. Context records are additionally cached in an atomically
// swapped in-memory snapshot so Get never touches the database on the request
// path.
type SQLiteStore struct {
	db       *sql.DB
	logger   logging.Logger
	mu       sync.Mutex // serializes Load and Create snapshot publication
	contexts atomic.Pointer[map[string]*core.Context]
}

// Compile-time interface assertions.
var (
	_ core.ContextStore = (*SQLiteStore)(nil)
	_ core.MemoryStore  = (*SQLiteStore)(nil)
)

// NewSQLiteStore opens (or creates) a SQLite store at the given path, creates
// the schema if needed, ensures the default context exists and loads the
// context snapshot. Parent directories are created if needed.
func NewSQLiteStore(path string, optFns ...func(o *SQLiteOptions)) (*SQLiteStore, error) {
	opts := SQLiteOptions{Logger: logging.NoOpLogger{}}
	for _, fn := range optFns {
		fn(&opts)
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// WAL improves concurrent read performance
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling WAL mode: %w", err)
	}

	s := &SQLiteStore{db: db, logger: opts.Logger}
	empty := map[string]*core.Context{}
	s.contexts.Store(&empty)

	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	if err := s.ensureDefaultContext(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ensuring default context: %w", err)
	}
	if err := s.Load(); err != nil {
		db.Close()
		return nil, err
	}

	s.logger.Info("sqlite store initialized", "path", path)
	return s, nil
}

// createSchema creates the database tables if they don't exist.
func (s *SQLiteStore) createSchema() error {
	schema := `
		CREATE TABLE IF NOT EXISTS contexts (
			guid TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			agents TEXT NOT NULL DEFAULT '["*"]',
			skills TEXT NOT NULL DEFAULT '["*"]',
			system_prompt TEXT NOT NULL DEFAULT '',
			config TEXT NOT NULL DEFAULT '{}',
			created_at DATETIME NOT NULL,
			updated_at DATETIME NOT NULL
		);

		CREATE TABLE IF NOT EXISTS user_memory (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			user_guid TEXT NOT NULL,
			content TEXT NOT NULL,
			created_at DATETIME NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_user_memory_user
			ON user_memory(user_guid, id);

		CREATE TABLE IF NOT EXISTS session_memory (
			session_guid TEXT PRIMARY KEY,
			transcript TEXT NOT NULL,
			updated_at DATETIME NOT NULL
		);
	`
	if _, err := s.db.Exec(schema); err != nil {
		return err
	}
	return nil
}

// Close releases the underlying database handle.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
