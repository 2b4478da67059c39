package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/chris/agent-wallet-ledger/pkg/app"
	"github.com/chris/agent-wallet-ledger/pkg/config"
	"github.com/chris/agent-wallet-ledger/pkg/handlers"
	"github.com/chris/agent-wallet-ledger/pkg/websockets"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}

	logger := cfg.NewLogger(os.Stdout)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Connected admin UIs receive every synchronized balance.
	hub := websockets.NewHub()

	a, err := app.Build(ctx, cfg, app.WithPublisher(hub), app.WithMigrations())
	if err != nil {
		log.Fatalf("failed to initialise: %v", err)
	}
	defer a.Close()

	server := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           handlers.NewRouter(a.Engine, hub, logger),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("graceful shutdown failed", "error", err)
		}
	}()

	slog.Info("Starting server", "port", cfg.HTTPPort, "storage_backend", cfg.StorageBackend)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatalf("Failed to start server: %v", err)
	}
}
