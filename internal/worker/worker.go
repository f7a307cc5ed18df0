package worker

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"
	"github.com/templui/goaltracker/internal/config"
	"github.com/templui/goaltracker/internal/service"
)

// asynqLoggerAdapter wraps slog.Logger to implement asynq.Logger interface
type asynqLoggerAdapter struct {
	logger *slog.Logger
}

func (a *asynqLoggerAdapter) Debug(args ...any) {
	a.logger.Debug(fmt.Sprint(args...))
}

func (a *asynqLoggerAdapter) Info(args ...any) {
	a.logger.Info(fmt.Sprint(args...))
}

func (a *asynqLoggerAdapter) Warn(args ...any) {
	a.logger.Warn(fmt.Sprint(args...))
}

func (a *asynqLoggerAdapter) Error(args ...any) {
	a.logger.Error(fmt.Sprint(args...))
}

func (a *asynqLoggerAdapter) Fatal(args ...any) {
	a.logger.Error(fmt.Sprint(args...))
	panic(fmt.Sprint(args...))
}

// Run starts the Asynq worker server and blocks until shutdown signal.
func Run(cfg *config.Config, notifier Notifier, cleaner TokenCleaner) error {
	redisOpt, err := asynq.ParseRedisURI(cfg.RedisURL)
	if err != nil {
		return fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	logger := slog.Default().With("component", "worker")

	srv := asynq.NewServer(
		redisOpt,
		asynq.Config{
			Concurrency:     2,
			ShutdownTimeout: 30 * time.Second,
			ErrorHandler:    asynq.ErrorHandlerFunc(makeErrorHandler(logger)),
			Logger:          &asynqLoggerAdapter{logger: logger},
		},
	)

	logger.Info("worker starting", "concurrency", 2)
	return srv.Run(NewServeMux(logger, notifier, cleaner))
}

// NewServeMux routes every task type to its handler.
func NewServeMux(logger *slog.Logger, notifier Notifier, cleaner TokenCleaner) *asynq.ServeMux {
	mux := asynq.NewServeMux()
	mux.HandleFunc(TaskMilestoneReminders, handleNotification(logger, "milestone reminders", notifier.SendMilestoneReminders))
	mux.HandleFunc(TaskWeeklyDigest, handleNotification(logger, "weekly digest", notifier.SendWeeklyDigests))
	mux.HandleFunc(TaskTokenCleanup, handleTokenCleanup(logger, cleaner))
	return mux
}

func handleTokenCleanup(logger *slog.Logger, cleaner TokenCleaner) func(context.Context, *asynq.Task) error {
	return func(ctx context.Context, task *asynq.Task) error {
		logger.Info("processing task", "task_type", task.Type())

		n, err := cleaner.CleanupTokens(ctx)
		if err != nil {
			return fmt.Errorf("token cleanup: %w", err)
		}

		logger.Info("task completed", "task_type", task.Type(), "deleted", n)
		return nil
	}
}

// handleNotification runs one pass. Per-user delivery failures are counted in
// the report and never retried; only a failure to list users is.
func handleNotification(
	logger *slog.Logger,
	name string,
	run func(ctx context.Context) (service.RunReport, error),
) func(context.Context, *asynq.Task) error {
	return func(ctx context.Context, task *asynq.Task) error {
		logger.Info("processing task", "task_type", task.Type())

		report, err := run(ctx)
		if err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}

		logger.Info("task completed",
			"task_type", task.Type(),
			"users", report.Users,
			"sent", report.Sent,
			"skipped", report.Skipped,
			"failed", report.Failed,
		)
		return nil
	}
}

func makeErrorHandler(logger *slog.Logger) func(context.Context, *asynq.Task, error) {
	return func(ctx context.Context, task *asynq.Task, err error) {
		retried, _ := asynq.GetRetryCount(ctx)
		maxRetry, _ := asynq.GetMaxRetry(ctx)

		logger.Error("task execution failed",
			"task_type", task.Type(),
			"error", err,
			"retry_count", retried,
			"max_retry", maxRetry,
		)

		if retried >= maxRetry {
			logger.Error("task moved to archive (all retries exhausted)", "task_type", task.Type())
		}
	}
}
