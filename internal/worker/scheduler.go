package worker

import (
	"fmt"
	"log/slog"

	"github.com/hibiken/asynq"
	"github.com/templui/goaltracker/internal/config"
)

// StartScheduler registers the reminder, digest and token cleanup schedules and starts an
// Asynq Scheduler. Returns a stop function for graceful shutdown.
func StartScheduler(cfg *config.Config) (stop func(), err error) {
	redisOpt, err := asynq.ParseRedisURI(cfg.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	logger := slog.Default().With("component", "scheduler")

	scheduler := asynq.NewScheduler(
		redisOpt,
		&asynq.SchedulerOpts{
			Location: cfg.Location(),
			LogLevel: asynq.InfoLevel,
			Logger:   &asynqLoggerAdapter{logger: logger},
		},
	)

	entries := []struct {
		spec string
		task *asynq.Task
	}{
		{cfg.ReminderSchedule, NewReminderTask()},
		{cfg.DigestSchedule, NewDigestTask()},
		{cfg.TokenCleanupSchedule, NewTokenCleanupTask()},
	}
	for _, e := range entries {
		entryID, err := scheduler.Register(e.spec, e.task)
		if err != nil {
			return nil, fmt.Errorf("failed to register %s schedule %q: %w", e.task.Type(), e.spec, err)
		}
		logger.Info("schedule registered", "task_type", e.task.Type(), "spec", e.spec, "entry_id", entryID)
	}

	// Start scheduler (non-blocking)
	if err := scheduler.Start(); err != nil {
		return nil, fmt.Errorf("failed to start scheduler: %w", err)
	}

	logger.Info("scheduler started", "timezone", cfg.Location().String())

	return func() { scheduler.Shutdown() }, nil
}
