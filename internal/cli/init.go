// Package cli provides the process bootstrap shared by cmd/finanzas and
// cmd/finanzas-worker: .env loading, logging, configuration, the store with
// its backend, and graceful shutdown.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"finanzas/internal/amqp"
	"finanzas/internal/backend"
	"finanzas/internal/cache"
	"finanzas/internal/config"
	applog "finanzas/internal/log"
	"finanzas/internal/seed"
	"finanzas/internal/store"
	"finanzas/internal/views"
)

// SetupLogger builds a text logger at the given level writing to out and
// installs it as the slog default. Unknown levels fall back to info.
func SetupLogger(out io.Writer, level, component string) *applog.Logger {
	lvl, err := applog.ParseLevel(level)
	logger := applog.New(applog.Config{Level: lvl, Component: component, Output: out})
	if err != nil {
		logger.Warn("Unknown log level, using info", "level", level)
	}
	applog.SetDefault(logger)
	return logger
}

// LoadEnvFile loads the .env file for local development.
// Errors are ignored silently as this is optional in production.
func LoadEnvFile() {
	_ = godotenv.Load()
}

// LoadAndValidateConfig loads configuration from the environment and
// validates it.
func LoadAndValidateConfig(logger *applog.Logger) (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", applog.FieldError, err)
		return nil, err
	}
	return cfg, nil
}

// App holds the long-lived components of a process.
type App struct {
	Config   *config.Config
	Logger   *applog.Logger
	Store    *store.Store
	Views    *views.Views
	Caches   *cache.Manager
	Notifier *amqp.Client
	Seeded   seed.Result

	closers []func() error
}

// Bootstrap opens the configured snapshot backend and the store on top of
// it, connects the change publisher when AMQP is configured, seeds empty
// collections when enabled and starts the view cache cleanup.
func Bootstrap(ctx context.Context, cfg *config.Config, logger *applog.Logger) (*App, error) {
	if logger == nil {
		logger = applog.Discard()
	}
	app := &App{Config: cfg, Logger: logger}

	bcfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		return nil, err
	}
	res, err := backend.NewFactory(logger).Create(ctx, bcfg)
	if err != nil {
		return nil, err
	}
	app.closers = append(app.closers, res.Cleanup)

	opts := []store.Option{
		store.WithSnapshotKey(cfg.SnapshotKey),
		store.WithLogger(logger),
	}
	if cfg.AMQPEnabled() {
		client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, logger)
		if err != nil {
			// Notifications are best effort; the store works without them.
			logger.WarnContext(ctx, "AMQP unavailable, change notifications disabled", applog.FieldError, err)
		} else {
			app.Notifier = client
			app.closers = append(app.closers, client.Close)
			opts = append(opts, store.WithNotifier(client))
		}
	}

	app.Store, err = store.Open(ctx, res.Persister, opts...)
	if err != nil {
		app.Close()
		return nil, fmt.Errorf("open store: %w", err)
	}

	if cfg.SeedOnStart {
		app.Seeded, err = seed.NewLoader(seed.Default(), logger).Load(ctx, app.Store)
		if err != nil {
			app.Close()
			return nil, err
		}
	}

	app.Views = views.New(app.Store,
		views.WithCache(cfg.ViewCacheSize, cfg.ViewCacheTTL),
		views.WithLogger(logger))
	app.Caches = cache.NewManager(logger)
	app.Caches.Register(app.Views.Cache())
	app.Caches.StartCleanup(ctx, cfg.ViewCacheTTL)

	logger.InfoContext(ctx, "Store ready",
		applog.FieldOperation, applog.OpStartup,
		applog.FieldBackend, string(res.Type),
		applog.FieldKey, cfg.SnapshotKey,
		"seeded", app.Seeded.Total())
	return app, nil
}

// Close stops the cache cleanup and releases the backend and the AMQP
// connection.
func (a *App) Close() error {
	if a.Caches != nil {
		a.Caches.Stop()
	}
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}

// GracefulShutdown sets up signal handling for graceful shutdown.
// Returns a context that will be cancelled on shutdown signals,
// and a channel that signals when shutdown is complete.
func GracefulShutdown(logger *applog.Logger, timeout time.Duration, cleanup func()) (context.Context, <-chan struct{}) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		defer signal.Stop(sigChan)
		sig := <-sigChan
		logger.Info("Shutdown signal received", "signal", sig.String(), applog.FieldOperation, applog.OpShutdown)

		finished := make(chan struct{})
		go func() {
			cancel()
			if cleanup != nil {
				cleanup()
			}
			close(finished)
		}()

		select {
		case <-time.After(timeout):
			logger.Warn("Shutdown timeout reached")
		case <-finished:
			logger.Info("Shutdown complete")
		}
		close(done)
	}()

	return ctx, done
}

// WaitForShutdown blocks until the context is cancelled.
func WaitForShutdown(ctx context.Context, done <-chan struct{}) {
	<-ctx.Done()
	<-done
}
