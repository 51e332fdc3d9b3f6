package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"pokestate/internal/config"
	"pokestate/internal/logger"
	"pokestate/internal/metrics"
	"pokestate/internal/save"
	"pokestate/internal/save/filestore"
	"pokestate/internal/save/postgres"
	"pokestate/internal/save/sqlite"
)

// runtime is what every data-touching subcommand opens first.
type runtime struct {
	cfg   *config.ProjectConfig
	log   *logger.Logger
	store save.Store
	saves *save.Service
}

// openRuntime loads config and opens the configured save backend. Info and
// debug lines go to out.
func openRuntime(ctx context.Context, m *metrics.Collector, out io.Writer) (*runtime, error) {
	cfg, err := config.LoadOrDefault(configPath)
	if err != nil {
		return nil, err
	}
	log := logger.NewWithWriters(logger.ParseLevel(cfg.Log.Level), out, os.Stderr)

	store, err := openSaveStore(ctx, cfg)
	if err != nil {
		return nil, err
	}
	if err := store.EnsureSchema(ctx); err != nil {
		store.Close(ctx)
		return nil, fmt.Errorf("ensure schema: %w", err)
	}
	log.Debugf("using %s save backend", cfg.Storage.Backend)

	return &runtime{
		cfg:   cfg,
		log:   log,
		store: store,
		saves: save.NewService(store, save.WithLogger(log), save.WithMetrics(m)),
	}, nil
}

func (rt *runtime) Close(ctx context.Context) {
	if err := rt.store.Close(ctx); err != nil {
		rt.log.Warnf("closing save store: %v", err)
	}
}

func openSaveStore(ctx context.Context, cfg *config.ProjectConfig) (save.Store, error) {
	switch cfg.Storage.Backend {
	case config.BackendSQLite:
		return sqlite.New(ctx, cfg.Storage.DSN)
	case config.BackendPostgres:
		return postgres.New(ctx, cfg.Storage.DSN)
	case config.BackendFile:
		return filestore.New(cfg.Storage.SavesDir)
	default:
		return nil, fmt.Errorf("unknown storage backend: %q", cfg.Storage.Backend)
	}
}
