package worker

import (
	"context"
	"time"

	"github.com/hibiken/asynq"
	"github.com/templui/goaltracker/internal/service"
)

// Task type constants
const (
	TaskMilestoneReminders = "notify:milestone_reminders"
	TaskWeeklyDigest       = "notify:weekly_digest"
	TaskTokenCleanup       = "maintenance:token_cleanup"
)

// Notifier runs one notification pass over all opted-in users.
type Notifier interface {
	SendMilestoneReminders(ctx context.Context) (service.RunReport, error)
	SendWeeklyDigests(ctx context.Context) (service.RunReport, error)
}

// TokenCleaner purges used and expired one-time tokens.
type TokenCleaner interface {
	CleanupTokens(ctx context.Context) (int64, error)
}

// NewReminderTask builds the daily reminder task. The payload is empty: the
// handler queries every opted-in user.
func NewReminderTask() *asynq.Task {
	return asynq.NewTask(
		TaskMilestoneReminders,
		nil,
		asynq.MaxRetry(3),
		asynq.Timeout(10*time.Minute),
		asynq.Retention(24*time.Hour),
		asynq.Unique(time.Hour), // Prevent duplicate if scheduler runs twice
	)
}

func NewDigestTask() *asynq.Task {
	return asynq.NewTask(
		TaskWeeklyDigest,
		nil,
		asynq.MaxRetry(3),
		asynq.Timeout(10*time.Minute),
		asynq.Retention(24*time.Hour),
		asynq.Unique(time.Hour),
	)
}

func NewTokenCleanupTask() *asynq.Task {
	return asynq.NewTask(
		TaskTokenCleanup,
		nil,
		asynq.MaxRetry(3),
		asynq.Timeout(5*time.Minute),
		asynq.Retention(24*time.Hour),
		asynq.Unique(time.Hour),
	)
}
