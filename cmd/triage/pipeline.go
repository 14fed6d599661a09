package main

import (
	"context"
	"fmt"

	"github.com/splitlight/triage/internal/analyzer"
	"github.com/splitlight/triage/internal/classification"
	"github.com/splitlight/triage/internal/config"
	"github.com/splitlight/triage/internal/engine"
	"github.com/splitlight/triage/internal/executor"
	"github.com/splitlight/triage/internal/router"
	"github.com/splitlight/triage/internal/storage"
)

// buildPipeline opens the storage and wires the full pipeline from
// configuration. Callers own closing the returned storage.
func buildPipeline(ctx context.Context, cfg config.Config) (*engine.Orchestrator, *storage.SQLiteStorage, error) {
	store, err := storage.NewSQLiteStorage(cfg.Database.Path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := store.Migrate(ctx); err != nil {
		_ = store.Close()
		return nil, nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	classifier := classification.New(store, cfg.JSON.AmountWarn)

	analyzers := analyzer.Registry(
		analyzer.NewEmail(store),
		analyzer.NewJSON(store, cfg.JSON),
		analyzer.NewDocument(store, cfg.Document),
	)

	exec := executor.NewSimulated(cfg.Executor.Latency)
	actionRouter := router.New(store, exec, cfg.Executor.Timeout)

	return engine.New(store, classifier, analyzers, actionRouter), store, nil
}
