// Package cli provides common initialization shared by cmd/kantong and
// cmd/kantong-worker.
package cli

import (
	"context"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"kantong/internal/backend"
	"kantong/internal/config"
	klog "kantong/internal/log"
)

// SetupLogger initializes structured logging at the given level (debug, info,
// warn or error) and sets it as the default logger. Unknown levels fall back to info.
func SetupLogger(level, component string, out io.Writer) *klog.Logger {
	lvl, err := config.ParseLogLevel(level)
	if err != nil {
		lvl = slog.LevelInfo
	}
	if out == nil {
		out = os.Stderr
	}
	logger := klog.New(klog.Config{
		Level:     lvl,
		Component: component,
		Output:    out,
	})
	klog.SetDefault(logger)
	return logger
}

// LoadEnvFile loads the .env file for local development.
// Errors are ignored silently as this is optional in production.
func LoadEnvFile() {
	_ = godotenv.Load()
}

// LoadAndValidateConfig loads configuration and validates it.
// Returns the config or exits the process on validation failure.
func LoadAndValidateConfig(logger *klog.Logger) *config.Config {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", klog.FieldError, err,
			"error_type", klog.ErrorTypeConfiguration)
		os.Exit(1)
	}
	return cfg
}

// InitStore opens the KV backend selected by DATA_BACKEND.
func InitStore(ctx context.Context, logger *klog.Logger, cfg *config.Config) (*backend.BackendResult, error) {
	backendCfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		return nil, err
	}
	result, err := backend.NewFactory(logger.WithComponent(klog.ComponentStorage).Logger).CreateBackend(ctx, backendCfg)
	if err != nil {
		logger.Error("Failed to initialize storage backend",
			klog.FieldError, err,
			klog.FieldBackend, cfg.DataBackend,
			"error_type", klog.ErrorTypeDatabase)
		return nil, err
	}
	return result, nil
}

// GracefulShutdown sets up signal handling for graceful shutdown.
// Returns a context that will be cancelled on shutdown signals,
// and a channel that signals when shutdown is complete.
func GracefulShutdown(logger *klog.Logger, timeout time.Duration, cleanup func()) (context.Context, <-chan struct{}) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigChan
		logger.Info("Shutdown signal received", "signal", sig.String(), klog.FieldOperation, klog.OpShutdown)

		cancel()

		finished := make(chan struct{})
		go func() {
			if cleanup != nil {
				cleanup()
			}
			close(finished)
		}()

		select {
		case <-finished:
			logger.Info("Shutdown complete")
		case <-time.After(timeout):
			logger.Warn("Shutdown timeout reached")
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
