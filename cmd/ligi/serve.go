package main

import (
	"context"
	"log/slog"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	goutils "github.com/jkaninda/go-utils"

	"github.com/jkaninda/ligi/internal/config"
	"github.com/jkaninda/ligi/internal/gateway/httpapi"
	"github.com/jkaninda/ligi/internal/provision"
)

var (
	serveConfigPath string
	serveAddr       string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API gateway",
	RunE:  runServe,
}

func init() {
	// Register flags on both root and serve so that
	// `ligi --config path` and `ligi serve --config path` both work.
	for _, cmd := range []*cobra.Command{rootCmd, serveCmd} {
		cmd.Flags().StringVar(&serveConfigPath, "config", config.DefaultConfigPath(), "path to config file")
		cmd.Flags().StringVar(&serveAddr, "addr", "", "override HTTP listen address (e.g. :8080)")
	}
}

// runServe starts the HTTP gateway, with optional scheduled roster re-sync.
func runServe(_ *cobra.Command, _ []string) error {
	logger := newLogger()

	cfg, err := config.Load(goutils.Env("LIGI_CONFIG", serveConfigPath))
	if err != nil {
		return err
	}
	if serveAddr != "" {
		cfg.Server.ListenAddr = serveAddr
	}

	logger.Info("starting in serve mode", slog.String("addr", cfg.Server.Addr()))

	sc, err := initShared(cfg, logger)
	if err != nil {
		return err
	}
	defer sc.Cleanup()

	// Signal-aware context.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Scheduled roster re-sync (optional).
	if schedule := cfg.Provisioning.SyncSchedule; schedule != "" {
		provisioner := provision.NewProvisioner(sc.Store.Identities(), sc.Store.Documents(), logger)
		scheduler := provision.NewSyncScheduler(provisioner, provision.BuildRoster(&cfg.Roster), schedule, logger)
		stopSync, err := scheduler.Start(ctx)
		if err != nil {
			return err
		}
		defer stopSync()
		logger.Info("roster re-sync scheduled", slog.String("schedule", schedule))
	}

	gwCfg := httpapi.Config{
		ListenAddr:     cfg.Server.Addr(),
		EnableDocs:     cfg.Server.EnableDocs,
		MaxRequestSize: cfg.Server.MaxRequestSizeBytes,
		EmailDomain:    cfg.Roster.Domain(),
	}
	if sc.Obs != nil {
		if sc.Obs.Metrics != nil {
			gwCfg.MetricsRegistry = sc.Obs.Metrics.Registry
			gwCfg.Metrics = sc.Obs.Metrics
			if cfg.Observability.Metrics != nil {
				gwCfg.MetricsPath = cfg.Observability.Metrics.Path
			}
		}
		if sc.Obs.Tracer != nil {
			gwCfg.Tracer = sc.Obs.Tracer.Tracer()
		}
		gwCfg.HealthChecker = sc.Obs.Health
	}

	gw := httpapi.NewGateway(gwCfg, sc.Store, sc.Gate, sc.Tokens, sc.Store.Identities(), logger)

	errCh := make(chan error, 1)
	go func() {
		errCh <- gw.Start(ctx)
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return gw.Stop(shutdownCtx)
	case err := <-errCh:
		return err
	}
}
