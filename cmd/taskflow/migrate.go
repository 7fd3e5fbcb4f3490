package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/nlechev/taskflow/internal/model"
	"github.com/nlechev/taskflow/internal/realtime"
	"github.com/nlechev/taskflow/internal/store"
	"github.com/nlechev/taskflow/internal/sweep"
	"github.com/nlechev/taskflow/internal/telemetry"
)

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending schema migrations and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := model.LoadConfig(configPath)
			if err != nil {
				return err
			}

			// Opening the store runs any outstanding migrations.
			st, err := store.NewSQLiteStore(cfg.Store.Path)
			if err != nil {
				return fmt.Errorf("migrating %s: %w", cfg.Store.Path, err)
			}
			defer st.Close()

			fmt.Printf("Database %s is up to date\n", cfg.Store.Path)
			return nil
		},
	}
}

func sweepCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sweep",
		Short: "Run a single deadline sweep pass and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := model.LoadConfig(configPath)
			if err != nil {
				return err
			}

			st, err := store.NewSQLiteStore(cfg.Store.Path)
			if err != nil {
				return fmt.Errorf("opening store: %w", err)
			}
			defer st.Close()

			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()

			sweeper := sweep.New(st, realtime.NewHub(), telemetry.Logger(), cfg.SweepInterval())
			created, err := sweeper.RunOnce(ctx)
			if err != nil {
				return err
			}

			fmt.Printf("Sweep complete, %d notification(s) created\n", created)
			return nil
		},
	}
}
