// Package server initializes and runs the order display backend: it builds
// the configured source adapters and completion store, wires the aggregator
// and HTTP layer, and handles graceful shutdown.
package server

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/brewkit/orderboard/internal/clock"
	"github.com/brewkit/orderboard/internal/logging"
	"github.com/brewkit/orderboard/internal/server/aggregator"
	"github.com/brewkit/orderboard/internal/server/config"
	transporthttp "github.com/brewkit/orderboard/internal/server/http"
	"github.com/brewkit/orderboard/internal/server/migrations"
	"github.com/brewkit/orderboard/internal/server/repositories/completions"
	"github.com/brewkit/orderboard/internal/server/services"
	"github.com/brewkit/orderboard/internal/server/upstream"
	"github.com/brewkit/orderboard/internal/server/upstream/custombackend"
	"github.com/brewkit/orderboard/internal/server/upstream/zettle"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	"github.com/sethvargo/go-retry"
	_ "modernc.org/sqlite"
)

type App struct {
	config *config.Config
	logger logging.Logger
	server *transporthttp.Server
	db     *sql.DB
}

func NewApp(ctx context.Context, cfg *config.Config) (*App, error) {
	logger := logging.NewSlogLogger(slog.New(slog.NewJSONHandler(os.Stdout, nil)))

	loc, err := time.LoadLocation(cfg.ShopTimezone)
	if err != nil {
		return nil, fmt.Errorf("load shop time zone %q: %w", cfg.ShopTimezone, err)
	}

	clk := clock.NewSystem()
	httpClient := &http.Client{Timeout: cfg.UpstreamTimeout}

	var sources []upstream.Source
	if cfg.ZettleEnabled {
		tokens := zettle.NewTokenProvider(httpClient, cfg.ZettleTokenURL, cfg.ZettleClientID, cfg.ZettleClientSecret, clk)
		sources = append(sources, zettle.NewSource(httpClient, cfg.ZettlePurchasesURL, tokens, loc, clk, logger))
	}
	if cfg.CustomEnabled {
		sources = append(sources, custombackend.NewSource(httpClient, cfg.CustomBaseURL, cfg.CustomAPIKey, loc, clk, logger))
	}
	if len(sources) == 0 {
		logger.Warn(ctx, "no upstream sources enabled, serving empty order lists")
	}

	app := &App{config: cfg, logger: logger}

	store, err := app.buildStore(ctx)
	if err != nil {
		return nil, err
	}

	agg := aggregator.New(sources, cfg.UpstreamTimeout, logger)
	completion := services.NewCompletionService(store, sources, clk, logger)
	app.server = transporthttp.NewServer(agg, completion, clk, logger, cfg.CORSOrigins)

	return app, nil
}

func (app *App) buildStore(ctx context.Context) (completions.Repository, error) {
	cfg := app.config

	switch cfg.StoreKind {
	case "memory":
		return completions.NewMemoryRepository(), nil

	case "sqlite":
		db, err := sql.Open("sqlite", cfg.SQLitePath)
		if err != nil {
			return nil, fmt.Errorf("open sqlite store: %w", err)
		}
		app.db = db
		repo := completions.NewSQLiteRepository(db)
		if err := repo.Bootstrap(ctx); err != nil {
			return nil, err
		}
		return repo, nil

	case "postgres":
		db, err := sql.Open("pgx", cfg.DatabaseDSN)
		if err != nil {
			return nil, fmt.Errorf("open postgres store: %w", err)
		}
		app.db = db

		// The database may still be coming up alongside us.
		backoff := retry.WithMaxRetries(5, retry.NewFibonacci(500*time.Millisecond))
		err = retry.Do(ctx, backoff, func(ctx context.Context) error {
			if err := db.PingContext(ctx); err != nil {
				return retry.RetryableError(err)
			}
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("postgres ping: %w", err)
		}

		goose.SetBaseFS(migrations.Migrations)
		if err := goose.SetDialect("pgx"); err != nil {
			return nil, fmt.Errorf("goose dialect: %w", err)
		}
		if err := goose.UpContext(ctx, db, "."); err != nil {
			return nil, fmt.Errorf("apply migrations: %w", err)
		}
		return completions.NewPostgresRepository(db), nil

	case "s3":
		return completions.NewS3Repository(ctx, completions.S3Settings{
			Bucket:       cfg.S3Bucket,
			Region:       cfg.S3Region,
			AccessKey:    cfg.S3AccessKey,
			SecretKey:    cfg.S3SecretKey,
			BaseEndpoint: cfg.S3BaseEndpoint,
		})

	default:
		return nil, fmt.Errorf("unknown store kind %q", cfg.StoreKind)
	}
}

// Run serves HTTP until SIGINT/SIGTERM, then shuts down gracefully.
func (app *App) Run(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)
	defer stop()

	if app.db != nil {
		defer func() { _ = app.db.Close() }()
	}

	app.logger.Info(ctx, "starting orderboard",
		"addr", app.config.HTTPAddr,
		"timezone", app.config.ShopTimezone,
		"store", app.config.StoreKind,
	)

	return app.server.Run(ctx, app.config.HTTPAddr, app.config.ShutdownTimeout)
}
