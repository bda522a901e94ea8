// ABOUTME: SQLite database connection and lifecycle management
// ABOUTME: Uses modernc.org/sqlite for pure-Go SQLite with FTS5
package sqlite

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/adrg/xdg"
	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// DB wraps a SQLite database connection. Every store built on the same DB
// shares its clock, logger and schema repair path.
type DB struct {
	conn   *sql.DB
	path   string
	logger *log.Logger
	now    func() time.Time

	repairMu sync.Mutex // held by Reconcile
}

// Option customises Open behaviour.
type Option func(*DB)

// WithLogger sets the logger used for migrations and repairs.
func WithLogger(l *log.Logger) Option { return func(db *DB) { db.logger = l } }

// WithClock replaces time.Now, mainly for tests.
func WithClock(now func() time.Time) Option { return func(db *DB) { db.now = now } }

// DefaultDataDir returns the default data directory following the XDG spec.
func DefaultDataDir() string {
	dataHome := os.Getenv("XDG_DATA_HOME")
	if dataHome == "" {
		dataHome = xdg.DataHome
	}
	return filepath.Join(dataHome, "marginalia")
}

// DefaultDBPath returns the default database file path
func DefaultDBPath() string {
	return filepath.Join(DefaultDataDir(), "marginalia.db")
}

// Open opens or creates a SQLite database at the given path, migrates it to
// the current schema version and repairs any missing objects.
func Open(path string, opts ...Option) (*DB, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	conn, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=foreign_keys(ON)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := conn.Ping(); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return initialize(conn, path, opts)
}

// OpenInMemory creates an in-memory SQLite database (for testing).
// Each connection to ":memory:" is a separate database, so the pool is
// limited to a single connection.
func OpenInMemory(opts ...Option) (*DB, error) {
	conn, err := sql.Open("sqlite", ":memory:?_pragma=foreign_keys(ON)")
	if err != nil {
		return nil, fmt.Errorf("failed to open in-memory database: %w", err)
	}
	conn.SetMaxOpenConns(1)

	return initialize(conn, ":memory:", opts)
}

func initialize(conn *sql.DB, path string, opts []Option) (*DB, error) {
	db := &DB{
		conn:   conn,
		path:   path,
		logger: log.Default(),
		now:    time.Now,
	}
	for _, o := range opts {
		o(db)
	}

	if _, err := db.Migrate(); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to migrate schema: %w", err)
	}
	if _, err := db.Reconcile(); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to verify schema: %w", err)
	}

	return db, nil
}

// Close closes the database connection
func (db *DB) Close() error {
	if db.conn != nil {
		return db.conn.Close()
	}
	return nil
}

// Conn returns the underlying sql.DB connection for advanced usage
func (db *DB) Conn() *sql.DB {
	return db.conn
}

// Path returns the database file path
func (db *DB) Path() string {
	return db.path
}

// Exec executes a query without returning rows
func (db *DB) Exec(query string, args ...interface{}) (sql.Result, error) {
	return db.conn.Exec(query, args...)
}

// Query executes a query that returns rows
func (db *DB) Query(query string, args ...interface{}) (*sql.Rows, error) {
	return db.conn.Query(query, args...)
}

// QueryRow executes a query that returns at most one row
func (db *DB) QueryRow(query string, args ...interface{}) *sql.Row {
	return db.conn.QueryRow(query, args...)
}

// nowMillis is the current time in epoch milliseconds.
func (db *DB) nowMillis() int64 {
	return db.now().UnixMilli()
}

func newID() string {
	return uuid.New().String()
}

// querier is satisfied by *sql.DB and *sql.Tx so scan helpers work in both.
type querier interface {
	Exec(query string, args ...interface{}) (sql.Result, error)
	Query(query string, args ...interface{}) (*sql.Rows, error)
	QueryRow(query string, args ...interface{}) *sql.Row
}

// inTx runs fn inside a transaction, rolling back on any error.
func (db *DB) inTx(fn func(tx *sql.Tx) error) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}
