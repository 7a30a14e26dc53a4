package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/cloud-ru/moneycalc-go/internal/server"
	"github.com/cloud-ru/moneycalc-go/internal/tools"
	"github.com/cloud-ru/moneycalc-go/internal/tracing"
)

const shutdownTimeout = 10 * time.Second

func serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Запускает HTTP API калькуляторов",
		RunE:  runServe,
	}
	cmd.Flags().Int("port", 0, "порт HTTP сервера (по умолчанию PORT)")
	return cmd
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	if port, _ := cmd.Flags().GetInt("port"); port > 0 {
		cfg.Port = port
	}

	provider, err := tracing.InitTracing(ctx, logger, cfg.OTELServiceName, cfg.OTELEndpoint)
	if err != nil {
		return fmt.Errorf("failed to init tracing: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := provider.Shutdown(shutdownCtx); err != nil {
			logger.Warn("tracing shutdown failed", zap.Error(err))
		}
	}()

	store, closeStore, err := openStore(ctx)
	if err != nil {
		return fmt.Errorf("failed to open preference store: %w", err)
	}
	defer func() {
		if err := closeStore(); err != nil {
			logger.Warn("preference store close failed", zap.Error(err))
		}
	}()

	handler := server.NewHandler(tools.Deps{
		Config: cfg,
		Tracer: provider.Tracer,
		Logger: logger,
		Store:  store,
	})

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      handler.Router(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("server started",
			zap.String("addr", srv.Addr),
			zap.String("store", cfg.PrefStore))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	select {
	case err := <-serverErr:
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
		logger.Info("shutting down server")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}
	logger.Info("server exited")
	return nil
}
