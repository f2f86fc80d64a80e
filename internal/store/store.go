package store

import (
	"database/sql"
	"fmt"
	"sync"

	_ "modernc.org/sqlite"
)

// Store persists accounts, groups, institutions and balance history in a
// SQLite database. All writes that can affect the balance dependency graph
// (formulas, membership, archival) run under a single writer lock so that
// validate-then-persist is serialized: two concurrent edits can never
// slip a cycle past two independently passing validations.
type Store struct {
	db     *sql.DB
	mu     sync.Mutex
	strict bool // reject dangling formula references at save time
}

// Open opens (or creates) the database at path and runs migrations.
// strict enables the save-time dangling-reference policy.
func Open(path string, strict bool) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// WAL mode so balance reads don't block the writer.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}

	s := &Store{db: db, strict: strict}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

func (s *Store) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS groups (
			id          INTEGER PRIMARY KEY AUTOINCREMENT,
			name        TEXT NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			color       TEXT NOT NULL DEFAULT '',
			is_archived INTEGER NOT NULL DEFAULT 0
		)`,

		`CREATE TABLE IF NOT EXISTS institutions (
			id          INTEGER PRIMARY KEY AUTOINCREMENT,
			name        TEXT NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			color       TEXT NOT NULL DEFAULT '',
			is_archived INTEGER NOT NULL DEFAULT 0
		)`,

		`CREATE TABLE IF NOT EXISTS accounts (
			id             INTEGER PRIMARY KEY AUTOINCREMENT,
			name           TEXT NOT NULL,
			info           TEXT NOT NULL DEFAULT '',
			balance        TEXT NOT NULL DEFAULT '0',
			is_archived    INTEGER NOT NULL DEFAULT 0,
			group_id       INTEGER REFERENCES groups(id),
			institution_id INTEGER REFERENCES institutions(id),
			is_calculated  INTEGER NOT NULL DEFAULT 0,
			formula        TEXT,
			created_at     INTEGER NOT NULL,
			updated_at     INTEGER NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_accounts_group ON accounts(group_id)`,
		`CREATE INDEX IF NOT EXISTS idx_accounts_institution ON accounts(institution_id)`,

		`CREATE TABLE IF NOT EXISTS balance_history (
			id            INTEGER PRIMARY KEY AUTOINCREMENT,
			account_id    INTEGER NOT NULL,
			name_snapshot TEXT NOT NULL,
			balance       TEXT NOT NULL,
			recorded_at   INTEGER NOT NULL,
			batch_id      TEXT NOT NULL DEFAULT ''
		)`,
		`CREATE INDEX IF NOT EXISTS idx_history_account ON balance_history(account_id)`,
		`CREATE INDEX IF NOT EXISTS idx_history_recorded ON balance_history(recorded_at)`,
	}

	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("exec %q: %w", stmt[:40], err)
		}
	}
	return nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}
