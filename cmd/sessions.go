package cmd

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/armaan-p22/hybrid-context-ai/internal/config"
	"github.com/armaan-p22/hybrid-context-ai/internal/log"
	"github.com/armaan-p22/hybrid-context-ai/internal/session"
)

func newSessionsCmd() *cobra.Command {
	sessionsCmd := &cobra.Command{
		Use:   "sessions",
		Short: "Inspect and manage persisted chat sessions",
	}
	sessionsCmd.AddCommand(newSessionsListCmd())
	sessionsCmd.AddCommand(newSessionsShowCmd())
	sessionsCmd.AddCommand(newSessionsDeleteCmd())
	return sessionsCmd
}

func newSessionsListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List sessions, newest first",
		RunE: func(*cobra.Command, []string) error {
			store, err := openStore()
			if err != nil {
				return err
			}
			active := store.ActiveID()
			for _, s := range store.Sessions() {
				marker := " "
				if s.ID == active {
					marker = "*"
				}
				fmt.Printf("%s %s  %-33s %3d messages  %s\n",
					marker, s.ID, s.Title, len(s.Messages),
					s.CreatedAt.Format("2006-01-02 15:04"))
			}
			return nil
		},
	}
}

func newSessionsShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <session-id>",
		Short: "Print a session's messages",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			store, err := openStore()
			if err != nil {
				return err
			}
			id, err := uuid.Parse(args[0])
			if err != nil {
				return fmt.Errorf("invalid session id %q: %w", args[0], err)
			}
			msgs, err := store.Messages(id)
			if err != nil {
				return err
			}
			for _, m := range msgs {
				fmt.Printf("[%s]\n%s\n\n", m.Role, m.Content)
			}
			return nil
		},
	}
}

func newSessionsDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <session-id>",
		Short: "Delete a session",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			store, err := openStore()
			if err != nil {
				return err
			}
			id, err := uuid.Parse(args[0])
			if err != nil {
				return fmt.Errorf("invalid session id %q: %w", args[0], err)
			}
			if err := store.Delete(id); err != nil {
				return err
			}
			fmt.Println("deleted", id)
			return nil
		},
	}
}

// openStore loads config and opens the session store against the durable
// snapshot, without starting the engine.
func openStore() (*session.Store, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	logger := log.New(log.Config{Level: log.ParseLevel(cfg.LogLevel), JSON: cfg.LogJSON})

	dataDir, err := cfg.ResolveDataDir()
	if err != nil {
		return nil, err
	}
	return session.NewStore(session.NewFileSnapshot(dataDir, logger), logger)
}
