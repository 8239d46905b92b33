package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"reflect"
	"time"

	"github.com/spf13/cobra"

	"tork-hq/governance/pkg/cli"
	"tork-hq/governance/pkg/config"
	"tork-hq/governance/pkg/evidence"
	"tork-hq/governance/pkg/evidence/recorder"
	"tork-hq/governance/pkg/evidence/retention"
	"tork-hq/governance/pkg/middleware"
	"tork-hq/governance/pkg/server"
	"tork-hq/governance/pkg/telemetry/health"
	"tork-hq/governance/pkg/telemetry/metrics"
	"tork-hq/governance/pkg/telemetry/tracing"
	"tork-hq/governance/pkg/tork"
)

const (
	healthCheckTimeout  = 2 * time.Second
	receiptWriteTimeout = 5 * time.Second
	watchDebounce       = 500 * time.Millisecond
)

func newServeCmd(root *rootOptions) *cobra.Command {
	var (
		listen  string
		noWatch bool
		dryRun  bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the governance HTTP server",
		Long: `Serve the governance API over HTTP.

Endpoints:
  POST /v1/govern         govern {"text", "region", "industry"}
  POST /v1/detect         detect without a policy decision
  GET  /v1/stats          counters since start or last reset
  POST /v1/stats/reset    reset counters
  GET  /health /ready     liveness and readiness
  GET  /metrics           Prometheus metrics (when enabled)
  *    /api/...           echo endpoint behind the governance middleware

The governance section is reloaded when the config file changes or on
SIGHUP. Stats survive a reload.

Examples:
  tork serve --config tork.yaml
  tork serve --listen 0.0.0.0:8080`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := root.loadConfig()
			if err != nil {
				return err
			}
			if listen != "" {
				cfg.Server.ListenAddress = listen
			}
			logger, err := root.newLogger(cfg, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			slog.SetDefault(logger)
			for _, w := range config.Warnings(cfg) {
				logger.Warn("configuration warning", "warning", w)
			}

			a, err := newApp(cfg, logger)
			if err != nil {
				return err
			}
			defer a.close()

			if dryRun {
				fmt.Fprintln(cmd.OutOrStdout(), "✓ Configuration valid")
				return nil
			}

			ctx, stop := cli.SetupSignalHandler(cmd.Context())
			defer stop()

			watchPath := root.configPath
			if noWatch {
				watchPath = ""
			}
			return a.run(ctx, watchPath)
		},
	}

	cmd.Flags().StringVarP(&listen, "listen", "l", "", "override listen address")
	cmd.Flags().BoolVar(&noWatch, "no-watch", false, "do not reload the config file when it changes")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "validate config and build the server without starting it")
	return cmd
}

// app is the assembled server and everything it owns.
type app struct {
	cfg       *config.Config
	applied   *config.Holder
	logger    *slog.Logger
	tracer    *tracing.Tracer
	collector *metrics.Collector
	instance  *server.Instance
	handler   http.Handler

	store    evidence.Storage
	recorder *recorder.Recorder
	pruner   *retention.Pruner

	certs *server.CertReloader
}

func newApp(cfg *config.Config, logger *slog.Logger) (*app, error) {
	tracer, err := tracing.New(&cfg.Tracing, tracing.WithServiceVersion(Version))
	if err != nil {
		return nil, cli.NewConfigError("tracing", err.Error())
	}

	a := &app{
		cfg:       cfg,
		applied:   config.NewHolder(cfg),
		logger:    logger,
		tracer:    tracer,
		collector: metrics.NewCollector(&cfg.Metrics, nil),
	}

	if cfg.Server.TLS.Enabled {
		if a.certs, err = server.NewCertReloader(cfg.Server.TLS.CertFile, cfg.Server.TLS.KeyFile, logger); err != nil {
			return nil, cli.NewConfigError("server.tls", err.Error())
		}
	}

	t, err := a.buildTork(cfg, nil)
	if err != nil {
		return nil, err
	}
	a.instance = server.NewInstance(t)
	if cfg.Metrics.Enabled {
		if err := a.collector.RegisterStats(t.Tracker()); err != nil {
			return nil, fmt.Errorf("failed to register stats collector: %w", err)
		}
		if err := a.collector.RegisterRuntime(); err != nil {
			return nil, fmt.Errorf("failed to register runtime collectors: %w", err)
		}
	}

	checker := health.New(healthCheckTimeout)
	checker.RegisterCheck("patterns", health.PatternsCheck(func() int {
		return a.instance.Get().Registry().Len()
	}))

	if a.store, err = openStorage(cfg.Receipts); err != nil {
		return nil, err
	}
	if a.store != nil {
		checker.RegisterCheck("receipts", health.StorageCheck(a.store))
		a.recorder = recorder.NewRecorder(a.store, &recorder.Config{
			Enabled:      true,
			AsyncBuffer:  cfg.Receipts.AsyncBuffer,
			WriteTimeout: receiptWriteTimeout,
			OnWrite:      a.collector.ObserveReceiptStored,
		})
		a.pruner = retention.NewPruner(a.store, retentionConfig(cfg.Receipts.Retention, a.collector.ObservePrune))
	}

	deps := server.Deps{
		Instance:   a.instance,
		Health:     checker,
		Version:    health.NewVersionInfo(Version, GitCommit, BuildDate),
		Tracer:     tracer,
		Middleware: middleware.ConfigFromServer(cfg.Server, cfg.Governance),
		Logger:     logger,
	}
	if cfg.Metrics.Enabled {
		deps.Metrics = a.collector
		deps.MetricsPath = cfg.Metrics.Path
	}
	if len(cfg.Server.APIKeys) > 0 {
		deps.APIKeys = middleware.NewAPIKeyValidator(cfg.Server.APIKeys)
	}
	if a.recorder != nil {
		deps.Recorder = a.recorder
	}
	a.handler = server.NewRouter(deps)

	return a, nil
}

// retentionConfig converts the retention section. A negative day count
// keeps receipts forever.
func retentionConfig(rc config.RetentionConfig, onRun func(int64, error)) *retention.Config {
	days := rc.Days
	if days < 0 {
		days = 0
	}
	return &retention.Config{
		RetentionDays:       days,
		PruneSchedule:       rc.PruneSchedule,
		ArchiveBeforeDelete: rc.ArchiveBeforeDelete,
		ArchivePath:         rc.ArchivePath,
		MaxReceipts:         rc.MaxReceipts,
		OnRun:               onRun,
	}
}

// buildTork creates an instance for cfg. A non-nil previous instance
// hands over its stats tracker.
func (a *app) buildTork(cfg *config.Config, previous *tork.Tork) (*tork.Tork, error) {
	opts := []tork.Option{
		tork.WithTracer(a.tracer),
		tork.WithObserver(a.collector),
	}
	if previous != nil {
		opts = append(opts, tork.WithTracker(previous.Tracker()))
	}
	return newTork(cfg.Governance, cfg.Governance.EngineConfig(), a.logger, opts...)
}

// reload swaps in an instance built from the governance section of cfg.
// Other sections only take effect after a restart.
func (a *app) reload(cfg *config.Config) error {
	if sections := restartSections(a.applied.Get(), cfg); len(sections) > 0 {
		a.logger.Warn("configuration changes need a restart to take effect", "sections", sections)
	}
	t, err := a.buildTork(cfg, a.instance.Get())
	if err != nil {
		return err
	}
	a.instance.Swap(t)
	a.applied.Set(cfg)
	a.logger.Info("governance configuration reloaded",
		"policy_version", t.Config().PolicyVersion,
		"default_action", t.Config().DefaultAction,
		"patterns", t.Registry().Len(),
	)
	return nil
}

// restartSections names the sections that differ between prev and next
// and are not applied by a reload.
func restartSections(prev, next *config.Config) []string {
	var changed []string
	for _, s := range []struct {
		name       string
		prev, next any
	}{
		{"logging", prev.Logging, next.Logging},
		{"metrics", prev.Metrics, next.Metrics},
		{"tracing", prev.Tracing, next.Tracing},
		{"server", prev.Server, next.Server},
		{"receipts", prev.Receipts, next.Receipts},
	} {
		if !reflect.DeepEqual(s.prev, s.next) {
			changed = append(changed, s.name)
		}
	}
	return changed
}

// run serves until ctx is cancelled. When configPath is set the file is
// watched for changes; SIGHUP reloads it as well.
func (a *app) run(ctx context.Context, configPath string) error {
	a.tracer.Install()

	if a.pruner != nil && a.cfg.Receipts.Retention.PruneSchedule != "" {
		if err := a.pruner.Start(ctx); err != nil {
			a.logger.Warn("failed to start retention scheduler", "error", err)
		} else {
			defer a.pruner.Stop()
			if next := a.pruner.NextPruning(); next != nil {
				a.logger.Info("receipt retention scheduler started", "next_pruning", next)
			}
		}
	}

	if configPath != "" {
		watcher, err := config.NewWatcher(configPath, watchDebounce, a.logger)
		if err != nil {
			a.logger.Warn("config watcher unavailable, reload with SIGHUP only", "error", err)
		} else {
			defer watcher.Stop()
			go func() {
				err := watcher.Watch(ctx, a.onConfigChange, nil)
				if err != nil {
					a.logger.Error("config watcher stopped", "error", err)
				}
			}()
		}

		hup, stopHUP := cli.ReloadSignals()
		defer stopHUP()
		go a.reloadOnSignal(ctx, hup, configPath)
	}

	srv := server.NewServer(&a.cfg.Server, a.handler, a.logger)
	if a.certs != nil {
		srv.UseTLS(server.TLSConfig(a.cfg.Server.TLS, a.certs))
		go a.certs.Watch(ctx, a.cfg.Server.TLS.ReloadInterval)
	}
	if err := srv.Start(ctx); err != nil {
		return cli.NewCommandError("serve", err)
	}
	return nil
}

func (a *app) onConfigChange(cfg *config.Config) {
	if err := a.reload(cfg); err != nil {
		a.logger.Error("config reload rejected, keeping previous configuration", "error", err)
	}
}

func (a *app) reloadOnSignal(ctx context.Context, hup <-chan os.Signal, configPath string) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-hup:
			a.logger.Info("reload signal received", "path", configPath)
			cfg, err := config.LoadConfigWithEnvOverrides(configPath)
			if err != nil {
				a.logger.Error("config reload failed, keeping previous configuration", "error", err)
				continue
			}
			a.onConfigChange(cfg)
		}
	}
}

// close drains the recorder and releases storage and the tracer.
func (a *app) close() {
	var errs []error
	if a.recorder != nil {
		errs = append(errs, a.recorder.Close())
	}
	if a.store != nil {
		errs = append(errs, a.store.Close())
	}
	ctx, cancel := context.WithTimeout(context.Background(), a.cfg.Server.ShutdownTimeout)
	defer cancel()
	errs = append(errs, a.tracer.Shutdown(ctx))

	if err := errors.Join(errs...); err != nil {
		a.logger.Error("shutdown cleanup failed", "error", err)
	}
}
