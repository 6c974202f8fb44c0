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

	"dispatch/cmd"

	"github.com/labstack/echo/v4"
	"github.com/labstack/gommon/log"
)

const shutdownTimeout = 15 * time.Second

func main() {
	configs, err := cmd.LoadConfig(os.Args[1:])
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := cmd.NewCompositionRoot(ctx, configs, logger)
	if err != nil {
		log.Fatalf("Failed to initialise: %v", err)
	}
	defer func() {
		if closeErr := app.Close(); closeErr != nil {
			logger.Error("Shutdown finished with errors", "error", closeErr)
		}
	}()

	monitor := app.CreatePendingTaskMonitor()
	jobManager := app.CreateJobManager(monitor)
	if err = jobManager.StartAll(); err != nil {
		logger.Error("Failed to start jobs", "error", err)
		return
	}
	defer jobManager.StopAll()

	consumer, err := app.CreateTaskEventsConsumer(monitor)
	if err != nil {
		logger.Error("Failed to create task events consumer", "error", err)
		return
	}
	defer func() {
		if closeErr := consumer.Close(); closeErr != nil {
			logger.Error("Failed to close task events consumer", "error", closeErr)
		}
	}()
	go func() {
		if runErr := consumer.Run(ctx); runErr != nil && !errors.Is(runErr, context.Canceled) {
			logger.Error("Task events consumer stopped", "error", runErr)
		}
	}()

	e, err := app.CreateHTTPServer(ctx)
	if err != nil {
		logger.Error("Failed to create HTTP server", "error", err)
		return
	}
	startWebServer(ctx, e, configs.HTTPPort, logger)
}

// startWebServer serves until ctx is cancelled, then drains in-flight requests.
func startWebServer(ctx context.Context, e *echo.Echo, port string, logger *slog.Logger) {
	served := make(chan error, 1)
	go func() {
		served <- e.Start(fmt.Sprintf("0.0.0.0:%s", port))
	}()

	select {
	case err := <-served:
		if !errors.Is(err, http.ErrServerClosed) {
			logger.Error("HTTP server failed", "error", err)
		}
		return
	case <-ctx.Done():
	}
	logger.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP server shutdown failed", "error", err)
	}
}
