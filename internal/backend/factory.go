package backend

import (
	"context"
	"fmt"
	"log/slog"

	"kantong/internal/config"
	"kantong/internal/storage/bolt"
	"kantong/internal/storage/memory"
	"kantong/internal/storage/sqlite"
)

// DefaultFactory implements the Factory interface
type DefaultFactory struct {
	logger *slog.Logger
}

// NewFactory creates a new backend factory
func NewFactory(logger *slog.Logger) Factory {
	if logger == nil {
		logger = slog.Default()
	}
	return &DefaultFactory{
		logger: logger,
	}
}

// FromAppConfig converts the application config to backend config
func FromAppConfig(appConfig *config.Config) (Config, error) {
	if appConfig == nil {
		return Config{}, fmt.Errorf("app config is nil")
	}

	backendType := BackendType(appConfig.DataBackend)
	if !backendType.IsValid() {
		return Config{}, fmt.Errorf("invalid backend type in config: %s", appConfig.DataBackend)
	}

	return Config{
		Type:         backendType,
		BoltDBPath:   appConfig.BoltDBPath,
		SQLiteDBPath: appConfig.SQLiteDBPath,
	}, nil
}

// CreateBackend implements Factory.CreateBackend
func (f *DefaultFactory) CreateBackend(ctx context.Context, config Config) (*BackendResult, error) {
	if !config.Type.IsValid() {
		return nil, fmt.Errorf("invalid backend type: %s", config.Type)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	switch config.Type {
	case MemoryBackend:
		f.logger.Info("Initialized memory backend")
		return &BackendResult{Store: memory.New()}, nil

	case BoltBackend:
		if config.BoltDBPath == "" {
			return nil, fmt.Errorf("bolt database path is required for bolt backend")
		}
		store, err := bolt.Open(config.BoltDBPath)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize bolt store: %w", err)
		}
		f.logger.Info("Initialized bolt backend", "db_path", config.BoltDBPath)
		return &BackendResult{Store: store, Cleanup: store.Close}, nil

	case SQLiteBackend:
		if config.SQLiteDBPath == "" {
			return nil, fmt.Errorf("SQLite database path is required for sqlite backend")
		}
		repo, err := sqlite.NewRepository(config.SQLiteDBPath)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize SQLite repository: %w", err)
		}
		f.logger.Info("Initialized SQLite backend", "db_path", config.SQLiteDBPath)
		return &BackendResult{Store: repo, Cleanup: repo.Close}, nil

	default:
		return nil, fmt.Errorf("unsupported backend type: %s", config.Type)
	}
}
