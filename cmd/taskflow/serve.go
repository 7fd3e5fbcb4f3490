package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/nlechev/taskflow/internal/api"
	"github.com/nlechev/taskflow/internal/auth"
	"github.com/nlechev/taskflow/internal/model"
	"github.com/nlechev/taskflow/internal/realtime"
	"github.com/nlechev/taskflow/internal/store"
	"github.com/nlechev/taskflow/internal/sweep"
	"github.com/nlechev/taskflow/internal/telemetry"
	"github.com/nlechev/taskflow/internal/tracker"
)

func serveCmd() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API server and the deadline sweep",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := model.LoadConfig(configPath)
			if err != nil {
				return err
			}
			if addr != "" {
				cfg.Server.Addr = addr
			}
			if cfg.Auth.JWTSecret == "" {
				return fmt.Errorf("auth.jwt_secret must be set (config file or TASKFLOW_AUTH_JWT_SECRET)")
			}
			return runServe(cfg)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (overrides config)")

	return cmd
}

func runServe(cfg *model.AppConfig) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	otelShutdown, err := telemetry.SetupOTelSDK(context.Background())
	if err != nil {
		return fmt.Errorf("setting up OTel SDK: %w", err)
	}
	defer func() {
		// Flush telemetry before exiting.
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := otelShutdown(shutdownCtx); err != nil {
			fmt.Fprintf(os.Stderr, "OTel shutdown error: %v\n", err)
		}
	}()

	logger := telemetry.Logger()

	st, err := store.NewSQLiteStore(cfg.Store.Path)
	if err != nil {
		return fmt.Errorf("opening store: %w", err)
	}
	defer st.Close()

	hub := realtime.NewHub()
	tr := tracker.New(st, hub)
	am := auth.NewManager(cfg.Auth.JWTSecret, cfg.TokenTTL())

	sweeper := sweep.New(st, hub, logger, cfg.SweepInterval())
	sweeper.Start()
	defer sweeper.Stop()

	server := api.NewServer(st, tr, hub, am, logger)
	handler := otelhttp.NewHandler(server.SetupRouter(), "taskflow-api")

	httpServer := &http.Server{
		Addr:    cfg.Server.Addr,
		Handler: handler,
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("API server starting", "addr", cfg.Server.Addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	select {
	case err := <-serverErr:
		return fmt.Errorf("server startup failed: %w", err)
	case <-ctx.Done():
		logger.Info("shutdown signal received, closing server")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		logger.Info("server exited cleanly")
	}

	return nil
}
