// Package main is the entry point for the mentorship platform API.
//
// main stays small: read configuration, build the logger, make sure the
// database directory exists, then hand everything to internal/server.
package main

import (
	"log/slog"
	"os"
	"path/filepath"

	"github.com/sakif/mentorship-platform/internal/config"
	"github.com/sakif/mentorship-platform/internal/logger"
	"github.com/sakif/mentorship-platform/internal/server"
)

func main() {
	cfg := config.New()
	log := logger.New(os.Stdout, cfg)

	if err := cfg.Validate(); err != nil {
		log.Error("invalid configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// SQLite creates the file but not its parent directories.
	if cfg.DB.Path != ":memory:" {
		dir := filepath.Dir(cfg.DB.Path)
		if err := os.MkdirAll(dir, 0o755); err != nil {
			log.Error("failed to create database directory",
				slog.String("dir", dir),
				slog.String("error", err.Error()),
			)
			os.Exit(1)
		}
	}

	srv, err := server.New(cfg, log)
	if err != nil {
		log.Error("failed to create server", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Start blocks until SIGINT/SIGTERM.
	if err := srv.Start(); err != nil {
		log.Error("server error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
