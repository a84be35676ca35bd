package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/stepbuddy/backend/src/app"
)

// @title           StepBuddy Backend API
// @description     Staking-backed step challenge service: enrollment, daily verification, tally and reward withdrawal.

// @host      localhost:8080
// @BasePath  /api/v1

const (
	AppName    = "StepBuddy Backend"
	AppVersion = "0.1.0"
)

func main() {
	// Load .env file if it exists (optional in production)
	if _, err := os.Stat(".env"); err == nil {
		err := godotenv.Overload(".env")
		if err != nil {
			log.Fatalf("Error loading .env file: %v", err)
		}
	}

	config := app.NewAppConfig()

	// Create root logger
	logger := app.InitLogger(*config.LogLevel)

	// Create root context
	rootCtx, rootCancel := context.WithCancel(context.Background())
	rootCtx = logger.WithContext(rootCtx)

	logger.Info().
		Str("version", AppVersion).
		Str("environment", *config.Environment).
		Msgf("Launching %s", AppName)

	// ================================
	// Start application
	// ================================

	application, err := app.NewApplication(rootCtx, *config)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to initialize application")
		return
	}

	wg := sync.WaitGroup{}

	wg.Add(1)
	go application.RunHTTPServer(rootCtx, &wg)

	wg.Add(1)
	go application.RunTallyWorker(rootCtx, &wg)

	// ================================

	// Setup signal handling for graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	// Wait for shutdown signal
	sig := <-sigChan
	logger.Info().Str("signal", sig.String()).Msg("Received shutdown signal")

	// Cancel root context to signal all workers to stop
	rootCancel()

	// Wait for all workers to complete with timeout
	waitChan := make(chan struct{})
	go func() {
		wg.Wait()
		close(waitChan)
	}()

	select {
	case <-waitChan:
		logger.Info().Msg("All workers shut down gracefully")
	case <-time.After(15 * time.Second):
		logger.Error().Msg("Timeout waiting for workers to shut down")
	}

	// Shutdown application
	application.Shutdown(rootCtx)

	logger.Info().Msg("Application shutdown complete")
}
