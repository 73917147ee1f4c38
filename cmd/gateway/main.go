// Command gateway serves the storefront admin API: privileged account
// deletion and role management backed by Supabase.
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

	"github.com/VJ-Laxmi/my-Shop/internal/config"
	"github.com/VJ-Laxmi/my-Shop/internal/gateway"
	"github.com/VJ-Laxmi/my-Shop/internal/logging"
	"github.com/VJ-Laxmi/my-Shop/internal/metrics"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.NewDefault(gateway.ServiceName).WithError(err).Fatal("Failed to load configuration")
	}

	logger := logging.New(gateway.ServiceName, cfg.LogLevel, cfg.LogFormat)
	if err := run(cfg, logger); err != nil {
		logger.WithError(err).Error("Gateway exited")
		os.Exit(1)
	}
	logger.Info("Gateway stopped")
}

func run(cfg *config.Config, logger *logging.Logger) error {
	logger.WithFields(cfg.LogFields()).Info("Configuration loaded")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app, err := buildApp(ctx, cfg, logger, metrics.New("storefront"))
	if err != nil {
		return fmt.Errorf("initialize gateway: %w", err)
	}
	defer app.Close()

	// A request makes at most three sequential upstream calls.
	server := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           app.Handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      3*cfg.SupabaseTimeout + 5*time.Second,
		IdleTimeout:       120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.WithField("addr", cfg.ListenAddr).Info("Gateway listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		logger.Info("Shutting down...")
	case err := <-errCh:
		return fmt.Errorf("serve: %w", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
