package store

import (
	"database/sql"
	"fmt"
	"log/slog"

	_ "github.com/mattn/go-sqlite3"
)

// querier is the subset of *sql.DB / *sql.Tx the data-access methods need,
// so the same code runs inside and outside a transaction.
type querier interface {
	Exec(query string, args ...any) (sql.Result, error)
	Query(query string, args ...any) (*sql.Rows, error)
	QueryRow(query string, args ...any) *sql.Row
}

// conn carries the data-access methods shared by Store and Tx.
type conn struct {
	q   querier
	log *slog.Logger
}

// Store is the SQLite data access layer for the code-structure graph:
// entities, relations, observations, and the file analysis cache.
type Store struct {
	conn
	db *sql.DB
}

// NewStore opens (or creates) a SQLite database at dbPath with WAL mode and
// foreign-key enforcement enabled. Cascade deletes depend on the latter.
func NewStore(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_foreign_keys=ON&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return &Store{conn: conn{q: db, log: slog.Default()}, db: db}, nil
}

// SetLogger replaces the logger used for resolution-miss diagnostics.
func (s *Store) SetLogger(log *slog.Logger) {
	if log != nil {
		s.conn.log = log
	}
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// DB returns the underlying *sql.DB. Intended for tests and diagnostics.
func (s *Store) DB() *sql.DB {
	return s.db
}

// Migrate creates the four tables and their indexes. Idempotent.
func (s *Store) Migrate() error {
	if _, err := s.db.Exec(schemaDDL); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}

const schemaDDL = `
CREATE TABLE IF NOT EXISTS entities (
  id          TEXT PRIMARY KEY,
  name        TEXT NOT NULL,
  kind        TEXT NOT NULL,
  file_path   TEXT NOT NULL,
  start_line  INTEGER NOT NULL,
  end_line    INTEGER NOT NULL,
  description TEXT NOT NULL DEFAULT '',
  metadata    TEXT NOT NULL DEFAULT '{}',
  created_at  TIMESTAMP NOT NULL,
  updated_at  TIMESTAMP NOT NULL,
  UNIQUE(file_path, name, kind, start_line)
);

CREATE TABLE IF NOT EXISTS relations (
  id               TEXT PRIMARY KEY,
  source_entity_id TEXT NOT NULL REFERENCES entities(id) ON DELETE CASCADE,
  target_entity_id TEXT NOT NULL REFERENCES entities(id) ON DELETE CASCADE,
  verb             TEXT NOT NULL,
  metadata         TEXT NOT NULL DEFAULT '{}',
  created_at       TIMESTAMP NOT NULL,
  UNIQUE(source_entity_id, target_entity_id, verb)
);

CREATE TABLE IF NOT EXISTS observations (
  id         TEXT PRIMARY KEY,
  entity_id  TEXT NOT NULL REFERENCES entities(id) ON DELETE CASCADE,
  content    TEXT NOT NULL,
  created_at TIMESTAMP NOT NULL,
  updated_at TIMESTAMP NOT NULL
);

CREATE TABLE IF NOT EXISTS file_cache (
  file_path    TEXT PRIMARY KEY,
  content_hash TEXT NOT NULL,
  analyzed_at  TIMESTAMP NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_entities_name ON entities(name);
CREATE INDEX IF NOT EXISTS idx_entities_file ON entities(file_path);
CREATE INDEX IF NOT EXISTS idx_entities_kind ON entities(kind);
CREATE INDEX IF NOT EXISTS idx_relations_source ON relations(source_entity_id);
CREATE INDEX IF NOT EXISTS idx_relations_target ON relations(target_entity_id);
CREATE INDEX IF NOT EXISTS idx_relations_verb ON relations(verb);
CREATE INDEX IF NOT EXISTS idx_observations_entity ON observations(entity_id);
`

// Tx exposes the same data-access methods as Store, bound to an open
// transaction. Obtain one through WithTransaction.
type Tx struct {
	conn
}

// WithTransaction runs fn inside BEGIN/COMMIT, rolling back and returning
// the error if fn fails.
func (s *Store) WithTransaction(fn func(*Tx) error) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	if err := fn(&Tx{conn{q: tx, log: s.conn.log}}); err != nil {
		tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}
