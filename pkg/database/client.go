// Package database provides the PostgreSQL client and embedded schema
// migrations shared by every persistence-backed component (budget,
// graph, sync, approval, notes).
package database

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"time"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/pgx/v5" // registers the "pgx5://" scheme
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/kikokikok/aeterna-sub003/pkg/apperr"
)

//go:embed migrations
var migrationsFS embed.FS

// Config holds database connection and pooling settings.
type Config struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
	SSLMode  string

	MaxConns          int32
	MinConns          int32
	MaxConnLifetime   time.Duration
	MaxConnIdleTime   time.Duration
	HealthCheckPeriod time.Duration
}

// DSN builds the libpq connection string for this config.
func (c Config) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode,
	)
}

// Client wraps a pgx connection pool. Every component-level store
// (budget, graph, sync, approval, notes) holds one of these rather
// than its own pool.
type Client struct {
	pool *pgxpool.Pool
}

// Pool returns the underlying pgx pool for direct query execution.
func (c *Client) Pool() *pgxpool.Pool {
	return c.pool
}

// Close releases all pooled connections.
func (c *Client) Close() {
	c.pool.Close()
}

// NewClient opens a connection pool, applies pending embedded
// migrations, and returns a ready Client.
func NewClient(ctx context.Context, cfg Config) (*Client, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN())
	if err != nil {
		return nil, apperr.Wrap(apperr.KindConfig, "parse database dsn", err)
	}

	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = cfg.MaxConns
	}
	if cfg.MinConns > 0 {
		poolCfg.MinConns = cfg.MinConns
	}
	if cfg.MaxConnLifetime > 0 {
		poolCfg.MaxConnLifetime = cfg.MaxConnLifetime
	}
	if cfg.MaxConnIdleTime > 0 {
		poolCfg.MaxConnIdleTime = cfg.MaxConnIdleTime
	}
	if cfg.HealthCheckPeriod > 0 {
		poolCfg.HealthCheckPeriod = cfg.HealthCheckPeriod
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindStorage, "open database pool", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, apperr.Wrap(apperr.KindStorage, "ping database", err)
	}

	if err := runMigrations(cfg); err != nil {
		pool.Close()
		return nil, err
	}

	return &Client{pool: pool}, nil
}

// runMigrations applies every embedded *.up.sql migration that hasn't
// run yet, using golang-migrate's pgx/v5 database driver directly
// against cfg's DSN (migrate manages its own connection, separate
// from the pool used at runtime).
func runMigrations(cfg Config) error {
	hasMigrations, err := hasEmbeddedMigrations()
	if err != nil {
		return apperr.Wrap(apperr.KindStorage, "check embedded migrations", err)
	}
	if !hasMigrations {
		return apperr.New(apperr.KindConfig, "no embedded migration files found")
	}

	sourceDriver, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return apperr.Wrap(apperr.KindStorage, "create migration source", err)
	}

	m, err := migrate.NewWithSourceInstance("iofs", sourceDriver, "pgx5://"+cfg.DSN())
	if err != nil {
		return apperr.Wrap(apperr.KindStorage, "create migrate instance", err)
	}

	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		return apperr.Wrap(apperr.KindStorage, "apply migrations", err)
	}

	sourceErr, dbErr := m.Close()
	if sourceErr != nil {
		return apperr.Wrap(apperr.KindStorage, "close migration source", sourceErr)
	}
	if dbErr != nil {
		return apperr.Wrap(apperr.KindStorage, "close migration db handle", dbErr)
	}

	return nil
}

func hasEmbeddedMigrations() (bool, error) {
	entries, err := fs.ReadDir(migrationsFS, "migrations")
	if err != nil {
		return false, err
	}
	for _, entry := range entries {
		name := entry.Name()
		if !entry.IsDir() && len(name) > 7 && name[len(name)-7:] == ".up.sql" {
			return true, nil
		}
	}
	return false, nil
}
