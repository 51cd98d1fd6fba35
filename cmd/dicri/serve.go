package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/erazemk/dicri/internal/api"
	"github.com/erazemk/dicri/internal/store"
	"github.com/erazemk/dicri/internal/web"
	"github.com/erazemk/dicri/internal/workflow"
)

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return serve(cmd.Context(), appFrom(cmd))
		},
	}
	cmd.Flags().StringP("addr", "a", ":8080", "listen address")
	return cmd
}

func serve(ctx context.Context, a *app) error {
	cfg := a.cfg

	// First start: create the database and the initial coordinator.
	if _, err := os.Stat(cfg.DB); errors.Is(err, os.ErrNotExist) {
		if err := initDatabase(ctx, cfg.DB, defaultCoordinator); err != nil {
			return err
		}
		fmt.Println()
	}

	database, err := openDB(ctx, cfg.DB)
	if err != nil {
		return err
	}
	defer database.Close()
	slog.Info("database ready", "path", cfg.DB)

	secret := cfg.JWTSecret
	if secret == "" {
		if secret, err = store.GetJWTSecret(ctx, database); err != nil {
			return err
		}
	}

	engine := workflow.New(database, workflow.WithLogger(slog.Default()))

	// One limiter for both login endpoints.
	loginLimiter := api.NewRateLimiter(cfg.LoginRate.PerMinute, cfg.LoginRate.Burst)

	apiRouter := api.NewRouter(engine, api.Options{
		JWTSecret:    secret,
		TokenExpiry:  cfg.TokenExpiry,
		LoginLimiter: loginLimiter,
	})
	webRouter, err := web.NewRouter(engine, web.Options{
		JWTSecret:    secret,
		TokenExpiry:  cfg.TokenExpiry,
		LoginLimiter: loginLimiter,
	})
	if err != nil {
		return fmt.Errorf("setting up web router: %w", err)
	}

	// API, health and metrics take priority; pages handle the rest.
	mux := http.NewServeMux()
	mux.Handle("/api/", apiRouter)
	mux.Handle("/health", apiRouter)
	mux.Handle("/metrics", apiRouter)
	mux.Handle("/", api.LoggingMiddleware(webRouter))

	server := &http.Server{
		Addr:              cfg.Addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		slog.Info("server started", "addr", cfg.Addr)
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server: %w", err)
		}
	case <-ctx.Done():
		slog.Info("shutdown signal received")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("server forced to shutdown", "error", err)
		}
	}

	slog.Info("server stopped, closing database")
	return nil
}
