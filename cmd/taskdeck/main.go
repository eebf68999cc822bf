package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"taskdeck/internal/api"
	"taskdeck/internal/config"
	"taskdeck/internal/logging"
	"taskdeck/internal/storage"
	"taskdeck/internal/ui"
	"taskdeck/internal/workspace"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "taskdeck: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	configPath := config.ResolveConfigPath()
	cfg, err := config.LoadOrCreate(configPath)
	if err != nil {
		return fmt.Errorf("load config %s: %w", configPath, err)
	}

	logger, logFile, err := logging.New(cfg.LogPath, cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("open log: %w", err)
	}
	defer logFile.Close()
	logger.Info("starting", "config", configPath, "api", cfg.APIBaseURL)

	state, err := storage.Open(cfg.StatePath)
	if err != nil {
		return fmt.Errorf("open state database: %w", err)
	}
	defer state.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	client := api.New(cfg.APIBaseURL,
		api.WithTimeout(cfg.Timeout()),
		api.WithLogger(logger),
	)
	ws := workspace.New(client, state, logger)
	ws.Session.Restore()

	if err := ui.Run(ctx, ws, cfg, logger); err != nil {
		return fmt.Errorf("run ui: %w", err)
	}
	logger.Info("exiting")
	return nil
}
