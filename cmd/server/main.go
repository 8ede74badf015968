// Package main is the entry point for the blog API server.
//
// MAIN PACKAGE IN GO:
// Every Go program starts execution in the main() function of the "main" package.
// The main package should be kept minimal: its job is to:
// 1. Read configuration (from env vars and an optional .env file)
// 2. Create dependencies (the logger)
// 3. Start the application
//
// All actual logic lives in imported packages (internal/server, internal/handler, etc.).
package main

import (
	"log/slog"
	"os"

	"github.com/tahircanyildiz/blog-website/internal/config"
	"github.com/tahircanyildiz/blog-website/internal/server"
)

func main() {
	// === 1. READ CONFIGURATION ===
	// config.Load reads .env (if present) and the environment through viper,
	// applies defaults and validates the result. A bad config is fatal.
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// === 2. SET UP LOGGING ===
	// Text logs are easier to read in a terminal; JSON logs are easier for a
	// log collector to parse. The level comes from LOG_LEVEL.
	opts := &slog.HandlerOptions{Level: cfg.LogLevel}
	var logger *slog.Logger
	if cfg.IsProduction() {
		logger = slog.New(slog.NewJSONHandler(os.Stdout, opts))
	} else {
		logger = slog.New(slog.NewTextHandler(os.Stdout, opts))
	}
	slog.SetDefault(logger)

	// === 3. CREATE AND START THE SERVER ===
	srv, err := server.New(cfg, logger)
	if err != nil {
		logger.Error("failed to create server", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Start() blocks until the server is shut down (via Ctrl+C or SIGTERM)
	if err := srv.Start(); err != nil {
		logger.Error("server error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
