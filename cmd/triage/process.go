package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/splitlight/triage/internal/config"
	"github.com/splitlight/triage/internal/engine"
)

func processCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "process [file]",
		Short: "Run one input through the pipeline",
		Long: `Process a single input end to end and print the result. Content is read
from the given file, or from stdin when no file is provided. Unlike the
HTTP server, this command waits for the queued action to complete before
exiting.`,
		Args: cobra.MaximumNArgs(1),
		RunE: runProcess,
	}

	cmd.Flags().String("content-type", "", "declared content type hint (e.g. application/json)")

	return cmd
}

func runProcess(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	var (
		content  []byte
		filename string
	)
	if len(args) == 1 {
		filename = filepath.Base(args[0])
		content, err = os.ReadFile(args[0])
		if err != nil {
			return fmt.Errorf("failed to read input file: %w", err)
		}
	} else {
		content, err = io.ReadAll(os.Stdin)
		if err != nil {
			return fmt.Errorf("failed to read stdin: %w", err)
		}
	}

	hint, _ := cmd.Flags().GetString("content-type")
	if hint == "" {
		hint = filename
	}

	ctx := cmd.Context()

	orchestrator, store, err := buildPipeline(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	result, err := orchestrator.Process(ctx, engine.Intake{
		Content:     string(content),
		ContentHint: hint,
		Filename:    filename,
		Source:      "cli",
	})
	if err != nil {
		return err
	}

	// One-shot mode: block until the action result is recorded so the
	// printed audit trail is complete.
	orchestrator.Wait()

	events, err := store.ReadSession(ctx, result.SessionID)
	if err != nil {
		return fmt.Errorf("failed to read session trail: %w", err)
	}

	out := struct {
		Result *engine.Result `json:"result"`
		Events int            `json:"audit_events"`
	}{Result: result, Events: len(events)}

	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(out)
}
