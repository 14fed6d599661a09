package main

import (
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/splitlight/triage/internal/config"
	"github.com/splitlight/triage/internal/storage"
)

func sessionsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sessions",
		Short: "Inspect processed sessions",
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List recent sessions",
		RunE:  runSessionsList,
	}
	listCmd.Flags().Int("limit", 50, "maximum number of sessions to show")

	showCmd := &cobra.Command{
		Use:   "show <session-id>",
		Short: "Show a session and its audit trail",
		Args:  cobra.ExactArgs(1),
		RunE:  runSessionsShow,
	}

	cmd.AddCommand(listCmd)
	cmd.AddCommand(showCmd)

	return cmd
}

func openStorage(cmd *cobra.Command) (*storage.SQLiteStorage, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	store, err := storage.NewSQLiteStorage(cfg.Database.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := store.Migrate(cmd.Context()); err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return store, nil
}

func runSessionsList(cmd *cobra.Command, _ []string) error {
	store, err := openStorage(cmd)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	limit, _ := cmd.Flags().GetInt("limit")

	sessions, err := store.ListSessions(cmd.Context(), limit)
	if err != nil {
		return err
	}

	if len(sessions) == 0 {
		fmt.Println("No sessions recorded.")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tSOURCE\tSTATUS\tCREATED\tCLOSED")
	for _, session := range sessions {
		closed := "-"
		if session.ClosedAt != nil {
			closed = session.ClosedAt.Format("2006-01-02 15:04:05")
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
			session.ID,
			session.Source,
			session.Status,
			session.CreatedAt.Format("2006-01-02 15:04:05"),
			closed,
		)
	}
	return w.Flush()
}

func runSessionsShow(cmd *cobra.Command, args []string) error {
	store, err := openStorage(cmd)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	ctx := cmd.Context()
	sessionID := args[0]

	session, err := store.GetSession(ctx, sessionID)
	if err != nil {
		return err
	}

	events, err := store.ReadSession(ctx, sessionID)
	if err != nil {
		return err
	}

	out := struct {
		Session any `json:"session"`
		Events  any `json:"events"`
	}{Session: session, Events: events}

	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(out)
}
