package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/benvon/bobbys-store/internal/config"
	"github.com/benvon/bobbys-store/internal/database"
	"github.com/spf13/cobra"
)

// NewDBCmd creates the db command with the ping subcommand.
func NewDBCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "db",
		Short: "Check the document store",
	}
	cmd.AddCommand(newDBPingCmd())
	return cmd
}

func newDBPingCmd() *cobra.Command {
	var timeout time.Duration

	cmd := &cobra.Command{
		Use:   "ping",
		Short: "Connect to MONGODB_URI once and ping the primary",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
			defer cancel()

			start := time.Now()
			client, err := database.Dial(ctx, cfg.Mongo.URI)
			if err != nil {
				return fmt.Errorf("ping %s: %w", config.RedactURI(cfg.Mongo.URI), err)
			}
			defer func() { _ = client.Disconnect(context.Background()) }()

			fmt.Fprintf(cmd.OutOrStdout(), "Connected to %s (database %q) in %s\n",
				config.RedactURI(cfg.Mongo.URI), cfg.Mongo.Database, time.Since(start).Round(time.Millisecond))
			return nil
		},
	}

	cmd.Flags().DurationVar(&timeout, "timeout", 10*time.Second, "Connect and ping timeout")
	return cmd
}
