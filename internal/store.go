package internal

import (
	"fmt"
	"groupchat/repositories"
	"groupchat/repositories/sqlite"
	"log/slog"
	"strings"

	"github.com/dgraph-io/badger/v4"
)

const (
	DriverBadger = "badger"
	DriverSqlite = "sqlite"
)

type StoreConfig struct {
	Driver         string
	BadgerFilepath string
	SqliteFilepath string
	HistoryLimit   int
}

// Store bundles both repositories over one backend.
type Store struct {
	Accounts repositories.IAccountRepository
	History  repositories.IHistoryRepository
	close    func() error
}

func (s *Store) Close() error {
	return s.close()
}

func OpenStore(cfg StoreConfig, log *slog.Logger) (*Store, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Driver)) {
	case "", DriverBadger:
		db, err := badger.Open(badger.DefaultOptions(cfg.BadgerFilepath).
			WithLoggingLevel(badger.WARNING))
		if err != nil {
			return nil, fmt.Errorf("badger opening failed: %w", err)
		}
		return &Store{
			Accounts: repositories.NewAccountRepository(db),
			History:  repositories.NewHistoryRepository(db, log, cfg.HistoryLimit),
			close:    db.Close,
		}, nil
	case DriverSqlite:
		store, err := sqlite.Open(cfg.SqliteFilepath, log, cfg.HistoryLimit)
		if err != nil {
			return nil, fmt.Errorf("sqlite opening failed: %w", err)
		}
		return &Store{
			Accounts: store.Accounts(),
			History:  store.History(),
			close:    store.Close,
		}, nil
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.Driver)
	}
}

func (c Config) Store() StoreConfig {
	return StoreConfig{
		Driver:         c.StoreDriver,
		BadgerFilepath: c.BadgerFilepath,
		SqliteFilepath: c.SqliteFilepath,
		HistoryLimit:   c.HistoryLimit,
	}
}
