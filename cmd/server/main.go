package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"leetrace/internal/app"
	"leetrace/internal/config"
	"leetrace/internal/problems"
	"leetrace/internal/sandbox"
	httpTransport "leetrace/internal/transport/http"
)

func main() {
	// Load configuration
	cfg := config.Load()

	// Set up logger
	var logger *slog.Logger
	logOpts := &slog.HandlerOptions{
		Level: parseLogLevel(cfg.Logging.Level),
	}

	if cfg.Logging.Format == "json" {
		logger = slog.New(slog.NewJSONHandler(os.Stdout, logOpts))
	} else {
		logger = slog.New(slog.NewTextHandler(os.Stdout, logOpts))
	}

	slog.SetDefault(logger)

	logger.Info("starting leetrace server",
		"env", cfg.Server.Env,
		"port", cfg.Server.Port,
	)

	// Problem dataset
	store := problems.NewStore(cfg.Game.ProblemsDir)
	if len(store.Index()) == 0 {
		logger.Warn("problem index is empty, rooms will not be able to start",
			"dir", cfg.Game.ProblemsDir,
		)
	}

	// Code execution sandbox
	runner := sandbox.NewRunner(sandbox.Config{
		PythonBin:     cfg.Sandbox.PythonBin,
		Timeout:       time.Duration(cfg.Sandbox.TimeoutSeconds) * time.Second,
		MaxConcurrent: cfg.Sandbox.MaxConcurrent,
		CPUSeconds:    cfg.Sandbox.CPUSeconds,
		MemoryBytes:   cfg.Sandbox.MemoryMB * 1024 * 1024,
		FileSizeBytes: 1024 * 1024,
	}, logger)

	// Room registry
	hub := app.NewHub(store, runner, cfg.Game, logger)
	defer hub.Close()

	// HTTP server
	server := httpTransport.NewServer(cfg, hub, store, logger)

	// Start server in goroutine
	go func() {
		if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")

	// Graceful shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
	}

	logger.Info("server stopped")
}

func parseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
