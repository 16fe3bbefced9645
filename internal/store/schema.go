// Package store is the SQLite-backed note engine: canonical note records,
// typed content, the derived search index and paginated queries over them.
package store

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"log/slog"
	"time"

	"github.com/avast/retry-go/v4"
	_ "github.com/mattn/go-sqlite3"
	"github.com/pressly/goose/v3"
)

//go:embed migrations/*.sql
var migrations embed.FS

// DB wraps a sql.DB with the store's clock and transaction plumbing. It is
// the single storage handle passed to every component constructor.
type DB struct {
	conn  *sql.DB
	clock *clock
}

// OpenOptions tune how the database is opened.
type OpenOptions struct {
	// RetryAttempts is the number of ping attempts before giving up. Zero
	// means a single attempt.
	RetryAttempts uint
	Logger        *slog.Logger
}

// Open opens (or creates) the SQLite database at path and applies pending
// migrations.
func Open(ctx context.Context, path string, opts OpenOptions) (*DB, error) {
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.DiscardHandler)
	}
	attempts := opts.RetryAttempts
	if attempts == 0 {
		attempts = 1
	}

	dsn := path + "?_journal_mode=WAL&_synchronous=NORMAL&_busy_timeout=5000&_foreign_keys=on&_txlock=immediate"
	conn, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("store: open db: %w", err)
	}

	err = retry.Do(
		func() error { return conn.PingContext(ctx) },
		retry.Context(ctx),
		retry.Attempts(attempts),
		retry.Delay(300*time.Millisecond),
		retry.LastErrorOnly(true),
		retry.OnRetry(func(attempt uint, err error) {
			opts.Logger.Warn("store: ping failed",
				slog.Uint64("attempt", uint64(attempt)),
				slog.String("error", err.Error()))
		}),
	)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("store: ping: %w", err)
	}

	if err := migrate(ctx, conn); err != nil {
		conn.Close()
		return nil, err
	}
	if err := initFTS(conn); err != nil {
		conn.Close()
		return nil, fmt.Errorf("store: apply fts schema: %w", err)
	}
	return &DB{conn: conn, clock: newClock(time.Now)}, nil
}

func migrate(ctx context.Context, conn *sql.DB) error {
	fsys, err := fs.Sub(migrations, "migrations")
	if err != nil {
		return fmt.Errorf("store: migrations fs: %w", err)
	}
	provider, err := goose.NewProvider(goose.DialectSQLite3, conn, fsys)
	if err != nil {
		return fmt.Errorf("store: migration provider: %w", err)
	}
	if _, err := provider.Up(ctx); err != nil {
		return fmt.Errorf("store: migrate: %w", err)
	}
	return nil
}

// Close closes the underlying database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

// Now returns the next timestamp from the store clock.
func (db *DB) Now() time.Time {
	return db.clock.Now()
}
