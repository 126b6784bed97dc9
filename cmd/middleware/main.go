package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/newrelic/go-agent/v3/newrelic"
	"github.com/rs/zerolog"

	"github.com/openrangelabs/middleware/internal/config"
	"github.com/openrangelabs/middleware/internal/database"
	"github.com/openrangelabs/middleware/internal/logger"
	"github.com/openrangelabs/middleware/internal/server"
	"github.com/openrangelabs/middleware/pkg/repository"
	"github.com/openrangelabs/middleware/pkg/repository/memory"
)

func main() {
	// .env is optional; real environment variables win.
	_ = godotenv.Load()

	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	log := logger.New(cfg.Observability, cfg.Primary.Env)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Error().Err(err).Msg("server exited")
		os.Exit(1)
	}
	log.Info().Msg("server stopped")
}

func run(ctx context.Context, cfg *config.Config, log zerolog.Logger) error {
	var nr *newrelic.Application
	if cfg.Observability.NewRelicEnabled() {
		appName := cfg.Observability.NewRelic.AppName
		if appName == "" {
			appName = cfg.Observability.ServiceName
		}
		app, err := newrelic.NewApplication(
			newrelic.ConfigAppName(appName),
			newrelic.ConfigLicense(cfg.Observability.NewRelic.LicenseKey),
			newrelic.ConfigDistributedTracerEnabled(true),
		)
		if err != nil {
			return fmt.Errorf("new relic: %w", err)
		}
		defer app.Shutdown(10 * time.Second)
		nr = app
	}

	stores, closeStores, err := openStores(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer closeStores()

	srv, err := server.New(cfg, stores, log, nr)
	if err != nil {
		return err
	}
	return srv.Run(ctx)
}

func openStores(ctx context.Context, cfg *config.Config, log zerolog.Logger) (server.Stores, func(), error) {
	if cfg.Database.InMemory {
		log.Warn().Msg("using in-memory stores, data is lost on exit")
		return server.Stores{
			UserLogs:    memory.NewUserLogs(),
			SystemLogs:  memory.NewSystemLogs(),
			PortalUsers: memory.NewPortalUsers(),
		}, func() {}, nil
	}

	pool, err := database.NewPool(ctx, cfg, log)
	if err != nil {
		return server.Stores{}, nil, err
	}
	if cfg.Database.Migrate {
		if err := database.Migrate(ctx, pool, log); err != nil {
			pool.Close()
			return server.Stores{}, nil, err
		}
	}
	return server.Stores{
		UserLogs:    repository.NewUserLogRepository(pool),
		SystemLogs:  repository.NewSystemLogRepository(pool),
		PortalUsers: repository.NewPortalUserRepository(pool),
		DB:          pool,
	}, pool.Close, nil
}
