// Package database opens the PostgreSQL pool and applies migrations.
package database

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/tracelog"
	pgxzerolog "github.com/jackc/pgx-zerolog"
	"github.com/jackc/tern/v2/migrate"
	"github.com/newrelic/go-agent/v3/integrations/nrpgx5"
	"github.com/rs/zerolog"

	"github.com/openrangelabs/middleware/internal/config"
	"github.com/openrangelabs/middleware/pkg/repository"
)

const versionTable = "schema_version"

// NewPool opens a pool and pings it. Statements are traced through New Relic
// when it is enabled and logged through zerolog otherwise.
func NewPool(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (*pgxpool.Pool, error) {
	pcfg, err := pgxpool.ParseConfig(cfg.Database.DSN())
	if err != nil {
		return nil, fmt.Errorf("parse database config: %w", err)
	}
	pcfg.MaxConns = cfg.Database.MaxConns
	pcfg.MinConns = cfg.Database.MinConns
	if cfg.Database.ConnMaxLifetime > 0 {
		pcfg.MaxConnLifetime = cfg.Database.ConnMaxLifetime
	}
	if cfg.Database.ConnMaxIdleTime > 0 {
		pcfg.MaxConnIdleTime = cfg.Database.ConnMaxIdleTime
	}

	if cfg.Observability.NewRelicEnabled() {
		pcfg.ConnConfig.Tracer = nrpgx5.NewTracer()
	} else {
		pcfg.ConnConfig.Tracer = &tracelog.TraceLog{
			Logger:   pgxzerolog.NewLogger(logger.With().Str("component", "pgx").Logger()),
			LogLevel: traceLevel(cfg.Observability.DBLogLevel),
		}
	}

	pool, err := pgxpool.NewWithConfig(ctx, pcfg)
	if err != nil {
		return nil, fmt.Errorf("create database pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return pool, nil
}

func traceLevel(s string) tracelog.LogLevel {
	if s == "" {
		return tracelog.LogLevelWarn
	}
	lvl, err := tracelog.LogLevelFromString(strings.ToLower(s))
	if err != nil {
		return tracelog.LogLevelWarn
	}
	return lvl
}

// Migrate brings the schema up to the latest embedded migration.
func Migrate(ctx context.Context, pool *pgxpool.Pool, logger zerolog.Logger) error {
	conn, err := pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection for migrations: %w", err)
	}
	defer conn.Release()

	m, err := migrate.NewMigrator(ctx, conn.Conn(), versionTable)
	if err != nil {
		return fmt.Errorf("create migrator: %w", err)
	}
	if err := m.LoadMigrations(repository.Migrations()); err != nil {
		return fmt.Errorf("load migrations: %w", err)
	}
	from, err := m.GetCurrentVersion(ctx)
	if err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}
	if err := m.Migrate(ctx); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	logger.Info().Int32("from", from).Int("to", len(m.Migrations)).Msg("database migrated")
	return nil
}
