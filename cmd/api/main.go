package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"callcoach-backend/internal/bootstrap"
	"callcoach-backend/internal/shared/config"
	"callcoach-backend/internal/shared/telemetry"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}
	telemetry.Init(cfg.Env, cfg.LogFormat)

	if err := run(cfg); err != nil {
		reportExit(err)
		os.Exit(1)
	}
	telemetry.Sync()
}

// reportExit logs err and flushes the logger. os.Exit skips deferred calls.
func reportExit(err error) {
	telemetry.Error("api.exit", map[string]any{"error": err.Error()})
	telemetry.Sync()
}

func run(cfg config.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.Build(ctx, cfg)
	if err != nil {
		return err
	}
	return bootstrap.Serve(ctx, app)
}
