// Command server runs the PulseLink API: athlete training logs, coach and
// family dashboards, and shareable read-only snapshots.
package main

import (
	"flag"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/perfpulse/pulselink/internal/server"
)

func main() {
	configPath := flag.String("config", "", "path to YAML config file")
	flag.Parse()

	cfg, err := LoadConfig(*configPath)
	if err != nil {
		slog.Error("loading config", slog.String("error", err.Error()))
		os.Exit(1)
	}

	logger := SetupLogger(cfg)

	if cfg.Auth.JWTSecret == "" {
		logger.Error("auth.jwt_secret is required; set PULSELINK_AUTH_JWT_SECRET")
		os.Exit(1)
	}

	if dir := filepath.Dir(cfg.Database.Path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			logger.Error("creating database directory",
				slog.String("dir", dir),
				slog.String("error", err.Error()),
			)
			os.Exit(1)
		}
	}

	srv, err := server.New(server.Config{
		Port:      cfg.Server.Port,
		DBPath:    cfg.Database.Path,
		JWTSecret: cfg.Auth.JWTSecret,
	}, logger)
	if err != nil {
		logger.Error("creating server", slog.String("error", err.Error()))
		os.Exit(1)
	}

	if err := srv.Start(); err != nil {
		logger.Error("server error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
