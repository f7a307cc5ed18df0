package cmd

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/hibiken/asynq"
	"github.com/spf13/cobra"
	"github.com/templui/goaltracker/internal/app"
	"github.com/templui/goaltracker/internal/config"
	"github.com/templui/goaltracker/internal/logger"
	"github.com/templui/goaltracker/internal/service"
	"github.com/templui/goaltracker/internal/worker"
)

func NotifyCmd() *cobra.Command {
	var enqueue bool

	cmd := &cobra.Command{
		Use:   "notify",
		Short: "Send milestone reminders or weekly digests now",
	}
	cmd.PersistentFlags().BoolVar(&enqueue, "enqueue", false, "hand the run to the worker instead of sending inline")

	cmd.AddCommand(
		&cobra.Command{
			Use:   "reminders",
			Short: "E-mail users about milestones due soon",
			RunE: func(cmd *cobra.Command, args []string) error {
				return runNotify(cmd.Context(), enqueue, worker.NewReminderTask(), worker.Notifier.SendMilestoneReminders)
			},
		},
		&cobra.Command{
			Use:   "digest",
			Short: "E-mail users their weekly goal summary",
			RunE: func(cmd *cobra.Command, args []string) error {
				return runNotify(cmd.Context(), enqueue, worker.NewDigestTask(), worker.Notifier.SendWeeklyDigests)
			},
		},
	)
	return cmd
}

func runNotify(
	ctx context.Context,
	enqueue bool,
	task *asynq.Task,
	send func(worker.Notifier, context.Context) (service.RunReport, error),
) error {
	cfg := config.Load()
	logger.Init(cfg.IsDevelopment(), cfg.SentryDSN)
	defer logger.Flush()

	if enqueue {
		return enqueueTask(cfg, task)
	}

	a, err := app.New(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	var deduper service.Deduper
	if cfg.RedisURL != "" {
		rdb, err := worker.NewRedisClient(ctx, cfg.RedisURL)
		if err != nil {
			return err
		}
		defer rdb.Close()
		deduper = worker.NewRedisDeduper(rdb)
	}

	report, err := send(a.NotificationService(deduper), ctx)
	if err != nil {
		return err
	}

	fmt.Printf("users=%d sent=%d skipped=%d failed=%d\n", report.Users, report.Sent, report.Skipped, report.Failed)
	return nil
}

func enqueueTask(cfg *config.Config, task *asynq.Task) error {
	if cfg.RedisURL == "" {
		return fmt.Errorf("--enqueue needs REDIS_URL")
	}
	redisOpt, err := asynq.ParseRedisURI(cfg.RedisURL)
	if err != nil {
		return fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	client := asynq.NewClient(redisOpt)
	defer client.Close()

	info, err := client.Enqueue(task)
	if err != nil {
		return fmt.Errorf("failed to enqueue %s: %w", task.Type(), err)
	}
	slog.Info("task enqueued", "task_type", task.Type(), "task_id", info.ID, "queue", info.Queue)
	return nil
}
