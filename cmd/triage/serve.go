package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/sync/errgroup"

	"github.com/splitlight/triage/internal/config"
	"github.com/splitlight/triage/internal/server"
)

func serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the triage HTTP server",
		Long: `Start the HTTP intake server. Text and file submissions run through the
full pipeline; every session's audit trail is readable back over the API.`,
		RunE: runServe,
	}

	cmd.Flags().String("addr", "", "listen address (default :8080)")
	_ = viper.BindPFlag("server.addr", cmd.Flags().Lookup("addr"))

	return cmd
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	ctx := cmd.Context()

	orchestrator, store, err := buildPipeline(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	httpServer := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           server.NewServer(orchestrator, store, nil),
		ReadHeaderTimeout: 10 * time.Second,
	}

	group, groupCtx := errgroup.WithContext(ctx)

	group.Go(func() error {
		slog.Info("HTTP server listening", "addr", cfg.Server.Addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server failed: %w", err)
		}
		return nil
	})

	group.Go(func() error {
		<-groupCtx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("http shutdown failed: %w", err)
		}

		// Let in-flight background actions record their outcomes and
		// close their sessions before the store goes away.
		orchestrator.Wait()
		return nil
	})

	if err := group.Wait(); err != nil {
		return err
	}

	slog.Info("Server stopped")
	return nil
}
