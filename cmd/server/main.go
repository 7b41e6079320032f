// Package main is the entry point for the freight quotation service.
// The service builds ShipSmart quotation requests from form state, forwards
// them to the provider and ranks the returned carrier offers.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aristath/freightquote/internal/config"
	"github.com/aristath/freightquote/internal/di"
	"github.com/aristath/freightquote/internal/server"
	"github.com/aristath/freightquote/pkg/logger"
)

// main orchestrates startup:
// 1. Loads configuration from the environment (.env supported)
// 2. Initializes logging
// 3. Wires databases, repositories, services and jobs
// 4. Starts the HTTP server and the job scheduler
// 5. Waits for a shutdown signal and stops everything gracefully
func main() {
	cfg, err := config.Load()
	if err != nil {
		fallbackLog := logger.New(logger.Config{
			Level:  "info",
			Pretty: true,
		})
		fallbackLog.Fatal().Err(err).Msg("Failed to load configuration")
	}

	log := logger.New(logger.Config{
		Level:   cfg.LogLevel,
		Pretty:  cfg.DevMode,
		Service: "freightquote",
	})

	log.Info().Str("data_dir", cfg.DataDir).Msg("Starting freight quotation service")

	// Settings overrides are applied during wiring so the provider client
	// starts with the effective credentials.
	container, _, err := di.Wire(cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to wire dependencies")
	}
	defer container.Close()

	srv := server.New(server.Config{
		Log:       log,
		Config:    cfg,
		Port:      cfg.Port,
		DevMode:   cfg.DevMode,
		Container: container,
	})

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	log.Info().Int("port", cfg.Port).Msg("Server started successfully")

	container.Scheduler.Start()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	container.Scheduler.Stop()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server stopped")
}
