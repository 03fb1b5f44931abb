package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hongminglow/fraudpulse-be/internal/accounts"
	"github.com/hongminglow/fraudpulse-be/internal/config"
	"github.com/hongminglow/fraudpulse-be/internal/storage/backend"
)

func initDBCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init-db",
		Short: "Create tables and the bootstrap administrator",
		Long: `Create the employees and prediction_logs tables if they are missing and
ensure the bootstrap administrator exists. Safe to run repeatedly.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			logger := newLogger(cfg)
			ctx := context.Background()

			store, err := backend.Open(ctx, cfg.DatabaseURL)
			if err != nil {
				return fmt.Errorf("init database: %w", err)
			}
			defer store.Close()

			created, err := accounts.NewService(store, logger).
				EnsureBootstrapAdmin(ctx, cfg.BootstrapAdminUsername, cfg.BootstrapAdminPassword)
			if err != nil {
				return fmt.Errorf("bootstrap admin: %w", err)
			}
			if created {
				fmt.Fprintf(cmd.OutOrStdout(), "Database initialized; admin user %q created.\n", cfg.BootstrapAdminUsername)
			} else {
				fmt.Fprintf(cmd.OutOrStdout(), "Database initialized; admin user %q already exists.\n", cfg.BootstrapAdminUsername)
			}
			return nil
		},
	}
}
