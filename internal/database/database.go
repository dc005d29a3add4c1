// Package database is the PostgreSQL implementation of core.Store.
//
// The Store is created before any connection exists and answers
// core.ErrStoreNotReady until a pool is attached, so the HTTP server can
// start while the database is still unreachable. Connect and Migrate are
// run by ConnectWithRetry in the background; a successful run attaches the
// pool.
package database

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"sync/atomic"
	"time"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/JonMunkholm/SentinelAdmin/internal/config"
	"github.com/JonMunkholm/SentinelAdmin/internal/core"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Store implements core.Store on a pgx pool.
type Store struct {
	pool         atomic.Pointer[pgxpool.Pool]
	queryTimeout time.Duration
}

// NewStore returns a Store with no pool attached. Every statement is bounded
// by queryTimeout when it is positive.
func NewStore(queryTimeout time.Duration) *Store {
	return &Store{queryTimeout: queryTimeout}
}

// Attach makes the store usable. A previously attached pool is closed.
func (s *Store) Attach(pool *pgxpool.Pool) {
	if old := s.pool.Swap(pool); old != nil && old != pool {
		old.Close()
	}
}

// Ready reports whether a pool is attached.
func (s *Store) Ready() bool {
	return s.pool.Load() != nil
}

// Close detaches and closes the pool.
func (s *Store) Close() {
	if p := s.pool.Swap(nil); p != nil {
		p.Close()
	}
}

func (s *Store) conn() (*pgxpool.Pool, error) {
	p := s.pool.Load()
	if p == nil {
		return nil, core.ErrStoreNotReady
	}
	return p, nil
}

func (s *Store) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.queryTimeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, s.queryTimeout)
}

// Connect opens a pool sized from cfg and verifies it with a ping.
func Connect(ctx context.Context, cfg config.DatabaseConfig) (*pgxpool.Pool, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}

	poolConfig.MaxConns = int32(cfg.MaxConns)
	poolConfig.MinConns = int32(cfg.MinConns)
	poolConfig.MaxConnLifetime = cfg.MaxConnLifetime
	poolConfig.MaxConnIdleTime = cfg.MaxConnIdleTime

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return pool, nil
}

// Migrate applies the embedded migrations. Running it on an up-to-date
// schema is a no-op.
func Migrate(databaseURL string) error {
	source, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("open migrations: %w", err)
	}

	target, err := migrateURL(databaseURL)
	if err != nil {
		return err
	}

	m, err := migrate.NewWithSourceInstance("iofs", source, target)
	if err != nil {
		return fmt.Errorf("init migrations: %w", err)
	}
	defer m.Close()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("apply migrations: %w", err)
	}

	version, dirty, _ := m.Version()
	slog.Info("migrations applied", "version", version, "dirty", dirty)
	return nil
}

// migrateURL rewrites a postgres:// URL to the pgx5:// scheme golang-migrate
// registers for the pgx v5 driver.
func migrateURL(databaseURL string) (string, error) {
	u, err := url.Parse(databaseURL)
	if err != nil {
		return "", fmt.Errorf("parse database url: %w", err)
	}
	switch strings.ToLower(u.Scheme) {
	case "postgres", "postgresql", "pgx5":
		u.Scheme = "pgx5"
		return u.String(), nil
	default:
		return "", fmt.Errorf("database url must use the postgres:// scheme, got %q", u.Scheme)
	}
}

// ConnectWithRetry connects, migrates and attaches the pool to store,
// retrying every cfg.ConnectRetryInterval until it succeeds or ctx ends.
func ConnectWithRetry(ctx context.Context, cfg config.DatabaseConfig, store *Store) error {
	interval := cfg.ConnectRetryInterval
	if interval <= 0 {
		interval = 5 * time.Second
	}

	for attempt := 1; ; attempt++ {
		err := connectOnce(ctx, cfg, store)
		if err == nil {
			if u, perr := url.Parse(cfg.URL); perr == nil {
				slog.Info("connected to database", "name", strings.TrimPrefix(u.Path, "/"), "attempt", attempt)
			}
			return nil
		}

		slog.Warn("database not available, retrying",
			"attempt", attempt,
			"retry_in", interval,
			"error", err,
		)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(interval):
		}
	}
}

func connectOnce(ctx context.Context, cfg config.DatabaseConfig, store *Store) error {
	pool, err := Connect(ctx, cfg)
	if err != nil {
		return err
	}
	if err := Migrate(cfg.URL); err != nil {
		pool.Close()
		return err
	}
	store.Attach(pool)
	return nil
}
