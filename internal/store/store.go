package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/achapweske/silvernote/internal/logging"
	"github.com/achapweske/silvernote/internal/model"
)

// Clock supplies the timestamps the store stamps on notes.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now().UTC() }

// Options configure Open. The zero value is usable.
type Options struct {
	// User is recorded on the root row of a new store.
	User string

	// Secret unlocks a store protected by SetSecret.
	Secret string

	// Schema defaults to DefaultSchema().
	Schema *Schema

	Clock  Clock
	Logger logging.Logger
}

// Store is a SQLite repository of notebooks, notes, categories and clipart.
// A Store owns a single connection; callers that need concurrency open one
// Store each.
type Store struct {
	db    *sql.DB
	clock Clock
	log   logging.Logger
}

// Open creates or opens the SQLite database at path (":memory:" for a
// private in-memory store), brings its schema to the declared version and
// checks the secret.
//
// The database is configured with:
//   - WAL journal
//   - NORMAL synchronous mode
//   - 5-second busy timeout
func Open(ctx context.Context, path string, opts Options) (*Store, error) {
	if opts.Schema == nil {
		opts.Schema = DefaultSchema()
	}
	if opts.Clock == nil {
		opts.Clock = systemClock{}
	}
	if opts.Logger == nil {
		opts.Logger = logging.Nop()
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("connect to database: %w", err)
	}

	// One connection per store.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := applyPragmas(ctx, db); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply pragmas: %w", err)
	}

	log := opts.Logger.With("store", path)
	seed := Seed{UUID: model.NewRepositoryUUID(), UserID: opts.User}
	if err := opts.Schema.Apply(ctx, db, seed, log); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}

	s := &Store{db: db, clock: opts.Clock, log: log}
	if err := s.unlock(ctx, opts.Secret); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// DB returns the underlying handle.
func (s *Store) DB() *sql.DB {
	return s.db
}

func (s *Store) now() time.Time {
	return s.clock.Now().UTC().Truncate(time.Second)
}

func applyPragmas(ctx context.Context, db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			return fmt.Errorf("execute %q: %w", pragma, err)
		}
	}
	return nil
}
