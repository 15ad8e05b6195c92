package store

import (
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

//go:embed schema.sql
var schemaSQL string

// ErrNotFound is returned when a keyed row does not exist.
var ErrNotFound = errors.New("not found")

// migration upgrades the schema from version-1 to version.
type migration struct {
	version int
	name    string
	stmt    string
}

// migrations run in order against databases whose user_version is lower.
// Databases created from schema.sql still run them; every statement is
// idempotent.
var migrations = []migration{
	{
		version: 1,
		name:    "journal type index",
		stmt:    `CREATE INDEX IF NOT EXISTS idx_grid_events_type ON grid_events(session, type)`,
	},
}

// SchemaVersion is the user_version of a fully migrated database.
func SchemaVersion() int {
	return migrations[len(migrations)-1].version
}

// Store holds table rows, row limits and the grid event journal in one
// SQLite database.
type Store struct {
	db *sql.DB
}

// Option configures Open.
type Option func(*config)

type config struct {
	busyTimeout time.Duration
}

// WithBusyTimeout sets how long a connection waits on a locked database.
// The default is five seconds.
func WithBusyTimeout(d time.Duration) Option {
	return func(c *config) { c.busyTimeout = d }
}

// Open opens or creates the database at path and brings its schema up to
// date. The connection runs in WAL mode with foreign keys on.
func Open(path string, opts ...Option) (*Store, error) {
	cfg := config{busyTimeout: 5 * time.Second}
	for _, opt := range opts {
		opt(&cfg)
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	// One writer; a second connection would also see a different
	// in-memory database.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := setup(db, cfg); err != nil {
		db.Close()
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	return &Store{db: db}, nil
}

// OpenMemory opens a private in-memory database.
func OpenMemory(opts ...Option) (*Store, error) {
	return Open("file::memory:?cache=private", opts...)
}

// Close closes the database.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// DB exposes the connection for queries the Store has no method for.
func (s *Store) DB() *sql.DB {
	return s.db
}

// Pragma returns the current value of a SQLite pragma as text.
func (s *Store) Pragma(name string) (string, error) {
	var value string
	if err := s.db.QueryRow("PRAGMA " + name).Scan(&value); err != nil {
		return "", fmt.Errorf("pragma %s: %w", name, err)
	}
	return value, nil
}

func setup(db *sql.DB, cfg config) error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		fmt.Sprintf("PRAGMA busy_timeout = %d", cfg.busyTimeout.Milliseconds()),
		"PRAGMA foreign_keys = ON",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return fmt.Errorf("%s: %w", p, err)
		}
	}

	if _, err := db.Exec(schemaSQL); err != nil {
		return fmt.Errorf("schema: %w", err)
	}
	return migrate(db)
}

func migrate(db *sql.DB) error {
	var current int
	if err := db.QueryRow("PRAGMA user_version").Scan(&current); err != nil {
		return fmt.Errorf("read user_version: %w", err)
	}
	for _, m := range migrations {
		if m.version <= current {
			continue
		}
		if _, err := db.Exec(m.stmt); err != nil {
			return fmt.Errorf("migration %d (%s): %w", m.version, m.name, err)
		}
		// PRAGMA does not take bound parameters.
		if _, err := db.Exec(fmt.Sprintf("PRAGMA user_version = %d", m.version)); err != nil {
			return fmt.Errorf("migration %d: set user_version: %w", m.version, err)
		}
	}
	return nil
}
