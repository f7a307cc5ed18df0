package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/templui/goaltracker/internal/app"
	"github.com/templui/goaltracker/internal/config"
	"github.com/templui/goaltracker/internal/logger"
	"github.com/templui/goaltracker/internal/worker"
)

func main() {
	cfg := config.Load()

	logger.Init(cfg.IsDevelopment(), cfg.SentryDSN)
	defer logger.Flush()

	if cfg.RedisURL == "" {
		slog.Error("REDIS_URL is required to run the worker")
		os.Exit(1)
	}

	ctx := context.Background()

	app, err := app.New(ctx, cfg)
	if err != nil {
		slog.Error("failed to initialize app", "error", err)
		os.Exit(1)
	}
	defer app.Close()

	rdb, err := worker.NewRedisClient(ctx, cfg.RedisURL)
	if err != nil {
		slog.Error("failed to connect to redis", "error", err)
		os.Exit(1)
	}
	defer rdb.Close()

	stopScheduler, err := worker.StartScheduler(cfg)
	if err != nil {
		slog.Error("failed to start scheduler", "error", err)
		os.Exit(1)
	}
	defer stopScheduler()

	// Run blocks until SIGINT or SIGTERM.
	notifier := app.NotificationService(worker.NewRedisDeduper(rdb))
	if err := worker.Run(cfg, notifier, app.AuthService); err != nil {
		slog.Error("worker stopped", "error", err)
	}
}
