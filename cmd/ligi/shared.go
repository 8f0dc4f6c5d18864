package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/jkaninda/ligi/internal/auth"
	"github.com/jkaninda/ligi/internal/config"
	"github.com/jkaninda/ligi/internal/observability"
	"github.com/jkaninda/ligi/internal/storage"
	pgstore "github.com/jkaninda/ligi/internal/storage/postgres"
	sqlitestore "github.com/jkaninda/ligi/internal/storage/sqlite"
)

// SharedComponents holds all initialized subsystems the serve, provision,
// and deprovision commands require. Built once by initShared, torn down
// by Cleanup.
type SharedComponents struct {
	Config *config.Config
	Logger *slog.Logger
	Store  storage.Store // Unified store (SQLite or PostgreSQL).
	Obs    *observability.Observability
	Gate   *auth.Gate // nil when the identity backend is unavailable.
	Tokens *auth.TokenService

	cleanups []func()
}

// Cleanup runs all deferred cleanup functions in reverse order.
func (sc *SharedComponents) Cleanup() {
	for i := len(sc.cleanups) - 1; i >= 0; i-- {
		sc.cleanups[i]()
	}
}

func (sc *SharedComponents) addCleanup(fn func()) {
	sc.cleanups = append(sc.cleanups, fn)
}

// newLogger creates the JSON logger all commands share.
func newLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
}

// initShared performs all common initialization shared between commands.
// Callers must call sc.Cleanup() when done.
func initShared(cfg *config.Config, logger *slog.Logger) (*SharedComponents, error) {
	sc := &SharedComponents{
		Config: cfg,
		Logger: logger,
	}

	// Ensure data directory exists.
	if err := os.MkdirAll(cfg.DataDir, 0750); err != nil {
		return nil, fmt.Errorf("creating data directory %s: %w", cfg.DataDir, err)
	}

	// Observability.
	obs, err := observability.New(cfg.Observability, logger)
	if err != nil {
		return nil, fmt.Errorf("initializing observability: %w", err)
	}
	sc.Obs = obs
	sc.addCleanup(func() {
		if obs != nil {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			obs.Shutdown(shutdownCtx)
		}
	})

	// Storage.
	store, err := initStore(cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("initializing storage: %w", err)
	}
	sc.Store = store
	sc.addCleanup(func() {
		if err := store.Close(); err != nil {
			logger.Warn("closing store", slog.String("error", err.Error()))
		}
	})

	ctx := context.Background()
	if err := store.Migrate(ctx); err != nil {
		return nil, fmt.Errorf("migrating storage: %w", err)
	}
	if cfg.Server.SeedDemoData {
		if err := store.SeedDemo(ctx); err != nil {
			return nil, fmt.Errorf("seeding demo data: %w", err)
		}
	}

	// Request gate. In open mode no verifier is needed; otherwise tokens
	// are HMAC-signed with the configured secret.
	switch cfg.Auth.GateMode() {
	case auth.ModeOpen:
		sc.Gate = auth.NewGate(auth.ModeOpen, nil, logger)
		logger.Warn("request gate is open, protected routes accept unauthenticated requests")
	default:
		sc.Tokens = auth.NewTokenService(cfg.Auth.TokenSecret, cfg.Auth.TokenTTL())
		sc.Gate = auth.NewGate(auth.ModeRequired, sc.Tokens, logger)
	}
	if obs != nil && obs.Metrics != nil {
		sc.Gate = sc.Gate.WithMetrics(obs.Metrics)
	}

	// Health checks for the readiness probe.
	if obs != nil && obs.Health != nil {
		includeDB := cfg.Observability.Health == nil || cfg.Observability.Health.IncludeDB
		if includeDB {
			obs.Health.AddCheck("database", func(ctx context.Context) error {
				_, err := store.Teams().Count(ctx)
				return err
			})
		}
	}

	return sc, nil
}

// initStore creates the appropriate storage backend from config.
func initStore(cfg *config.Config, logger *slog.Logger) (storage.Store, error) {
	switch driver := cfg.Storage.StorageDriver(); driver {
	case storage.DriverPostgres:
		pg := cfg.Storage.Postgres
		return pgstore.Open(pgstore.Config{
			DSN:             pg.DSN,
			BcryptCost:      cfg.Auth.BcryptCost,
			MaxOpenConns:    pg.MaxOpenConns,
			MaxIdleConns:    pg.MaxIdleConns,
			ConnMaxLifetime: time.Duration(pg.ConnMaxLifetimeS) * time.Second,
		}, logger)
	case storage.DriverSQLite:
		journalMode := ""
		if cfg.Storage != nil && cfg.Storage.SQLite != nil {
			journalMode = cfg.Storage.SQLite.JournalMode
		}
		return sqlitestore.Open(sqlitestore.Config{
			Path:        cfg.SQLitePath(),
			JournalMode: journalMode,
			BcryptCost:  cfg.Auth.BcryptCost,
		}, logger)
	default:
		return nil, fmt.Errorf("unknown storage driver: %q", driver)
	}
}
