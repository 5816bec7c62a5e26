// Package sqlite implements the account and history repositories on top of a
// single SQLite file. Every statement goes through one connection, which makes
// each repository call atomic with respect to the others.
package sqlite

import (
	"database/sql"
	stderrors "errors"
	"fmt"
	"groupchat/errors"
	"groupchat/repositories"
	"log/slog"
	"path/filepath"
	"strings"

	_ "modernc.org/sqlite"
)

type Store struct {
	db    *sql.DB
	log   *slog.Logger
	limit int
}

// Open opens (or creates) the database at path and runs migrations.
func Open(path string, log *slog.Logger, limit int) (*Store, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, stderrors.New("sqlite path is required")
	}
	if limit <= 0 {
		limit = repositories.DefaultReplayLimit
	}

	dsn := "file:" + filepath.ToSlash(path) +
		"?_pragma=busy_timeout(5000)" +
		"&_pragma=journal_mode(WAL)"

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, err
	}

	s := &Store{db: db, log: log, limit: limit}
	if err := s.migrate(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) Accounts() repositories.IAccountRepository {
	return AccountRepository{db: s.db}
}

func (s *Store) History() repositories.IHistoryRepository {
	return HistoryRepository{db: s.db, log: s.log, limit: s.limit}
}

func (s *Store) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS accounts (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			nickname TEXT UNIQUE NOT NULL,
			password_hash TEXT NOT NULL,
			online INTEGER NOT NULL DEFAULT 0,
			created_at TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS messages (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			nickname TEXT NOT NULL,
			payload TEXT NOT NULL,
			type TEXT NOT NULL DEFAULT 'text',
			timestamp TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS preferences (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			nickname TEXT UNIQUE NOT NULL,
			last_cleared_message_id INTEGER NOT NULL DEFAULT 0
		);`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}

func storageErr(err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%w: %v", errors.ErrStorage, err)
}
