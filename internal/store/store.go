package store

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"strings"

	_ "github.com/mattn/go-sqlite3"
)

//go:embed schema.sql
var schemaSQL string

// Schema version tracking:
// 0 - Empty database
// 1 - ec_class_map registry
// 2 - class_id_column on ec_class_map
const currentSchemaVersion = 2

const defaultMaxOpenConns = 4

// Store reads and writes mapped instance rows in SQLite.
// Uses WAL mode so readers proceed while a writer holds the lock.
type Store struct {
	db   *sql.DB
	path string
}

// Option configures Open.
type Option func(*openConfig)

type openConfig struct {
	maxOpenConns int
}

// WithMaxOpenConns sets the connection pool size. In-memory databases are
// always limited to one connection because each connection would otherwise
// see its own empty database.
func WithMaxOpenConns(n int) Option {
	return func(c *openConfig) {
		if n > 0 {
			c.maxOpenConns = n
		}
	}
}

// DSN returns the data source name Open uses for path, with the store's
// pragma set attached. Other sql.DB handles onto the same file (for example
// one opened through a driver with registered SQL functions) should use it
// too.
func DSN(path string) string {
	params := []string{
		"_busy_timeout=5000",
		"_foreign_keys=on",
		"_synchronous=NORMAL",
	}
	if !isMemory(path) {
		params = append(params, "_journal_mode=WAL")
	}
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	return path + sep + strings.Join(params, "&")
}

func isMemory(path string) bool {
	return path == ":memory:" || strings.Contains(path, "mode=memory")
}

// Open creates or opens a SQLite database at the given path.
// Applies required pragmas and migrations automatically.
//
// This function is idempotent - safe to call multiple times.
func Open(path string, opts ...Option) (*Store, error) {
	cfg := openConfig{maxOpenConns: defaultMaxOpenConns}
	for _, opt := range opts {
		opt(&cfg)
	}
	if isMemory(path) {
		cfg.maxOpenConns = 1
	}

	db, err := sql.Open("sqlite3", DSN(path))
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	db.SetMaxOpenConns(cfg.maxOpenConns)
	db.SetMaxIdleConns(cfg.maxOpenConns)

	if err := applySchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}

	return &Store{db: db, path: path}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// DB returns the underlying sql.DB for direct queries.
// Use with caution - prefer using Store methods when available.
func (s *Store) DB() *sql.DB {
	return s.db
}

// Path returns the path the store was opened with.
func (s *Store) Path() string {
	return s.path
}

// applySchema creates the registry if it doesn't exist and runs migrations.
func applySchema(db *sql.DB) error {
	var version int
	if err := db.QueryRow("PRAGMA user_version").Scan(&version); err != nil {
		return fmt.Errorf("get user_version: %w", err)
	}

	if version == 0 {
		// Fresh database: schema.sql is already at the current version.
		if _, err := db.Exec(schemaSQL); err != nil {
			return fmt.Errorf("failed to execute schema: %w", err)
		}
	} else if version < 2 {
		if err := migrateToV2(db); err != nil {
			return err
		}
	}

	if _, err := db.Exec(fmt.Sprintf("PRAGMA user_version = %d", currentSchemaVersion)); err != nil {
		return fmt.Errorf("set user_version: %w", err)
	}
	return nil
}

// migrateToV2 adds the discriminator column name to the registry.
func migrateToV2(db *sql.DB) error {
	_, err := db.Exec(`ALTER TABLE ec_class_map ADD COLUMN class_id_column TEXT NOT NULL DEFAULT ''`)
	if err != nil {
		return fmt.Errorf("migrate to v2: %w", err)
	}
	return nil
}

// verifyPragma checks that a pragma is set to the expected value.
// Used for testing.
func (s *Store) verifyPragma(name, expected string) error {
	var value string
	if err := s.db.QueryRow(fmt.Sprintf("PRAGMA %s", name)).Scan(&value); err != nil {
		return fmt.Errorf("failed to query %s: %w", name, err)
	}
	if value != expected {
		return fmt.Errorf("%s = %q, expected %q", name, value, expected)
	}
	return nil
}

// ReadRow runs a single-row query and scans the result into dest.
// Returns false (and no error) when the query yields no row.
func (s *Store) ReadRow(ctx context.Context, query string, args []any, dest []any) (bool, error) {
	err := s.db.QueryRowContext(ctx, query, args...).Scan(dest...)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("read row: %w", err)
	}
	return true, nil
}
