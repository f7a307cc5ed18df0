package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/templui/goaltracker/internal/analytics"
	"github.com/templui/goaltracker/internal/metrics"
	"github.com/templui/goaltracker/internal/model"
	"github.com/templui/goaltracker/internal/repository"
)

const (
	NotificationReminder = "milestone_reminder"
	NotificationDigest   = "weekly_digest"
)

// Deduper claims a key once within ttl so repeated job runs do not send the
// same e-mail twice. Release gives a claim back after a failed send.
type Deduper interface {
	Claim(ctx context.Context, key string, ttl time.Duration) (bool, error)
	Release(ctx context.Context, key string) error
}

// RunReport summarises one notification run.
type RunReport struct {
	Users   int `json:"users"`
	Sent    int `json:"sent"`
	Skipped int `json:"skipped"`
	Failed  int `json:"failed"`
}

type NotificationService struct {
	users      repository.UserRepository
	goals      repository.GoalRepository
	milestones repository.MilestoneRepository
	mailer     Mailer
	deduper    Deduper
	windowDays int
	now        func() time.Time
}

// NewNotificationService builds the service. deduper may be nil.
func NewNotificationService(
	users repository.UserRepository,
	goals repository.GoalRepository,
	milestones repository.MilestoneRepository,
	mailer Mailer,
	deduper Deduper,
	windowDays int,
) *NotificationService {
	if windowDays <= 0 {
		windowDays = analytics.DefaultReminderWindowDays
	}
	return &NotificationService{
		users:      users,
		goals:      goals,
		milestones: milestones,
		mailer:     mailer,
		deduper:    deduper,
		windowDays: windowDays,
		now:        time.Now,
	}
}

// SendMilestoneReminders e-mails every opted-in user whose active goals have
// incomplete milestones due within the reminder window.
func (s *NotificationService) SendMilestoneReminders(ctx context.Context) (RunReport, error) {
	users, err := s.users.WithReminders(ctx)
	if err != nil {
		return RunReport{}, fmt.Errorf("failed to list users: %w", err)
	}

	now := s.now()
	report := RunReport{Users: len(users)}
	for _, user := range users {
		if err := ctx.Err(); err != nil {
			return report, err
		}

		goals, milestones, err := s.snapshot(ctx, user.ID)
		if err != nil {
			report.Failed++
			slog.Error("failed to load reminder data", "error", err, "user_id", user.ID)
			continue
		}

		due := analytics.DueMilestones(goals, milestones, now, s.windowDays)
		if len(due) == 0 {
			continue
		}

		s.deliver(ctx, &report, NotificationReminder, user, now, func() error {
			return s.mailer.SendMilestoneReminder(ctx, user, due)
		})
	}

	slog.Info("milestone reminders finished", "users", report.Users, "sent", report.Sent, "skipped", report.Skipped, "failed", report.Failed)
	return report, nil
}

// SendWeeklyDigests e-mails the past week's summary to every opted-in user.
func (s *NotificationService) SendWeeklyDigests(ctx context.Context) (RunReport, error) {
	users, err := s.users.WithDigest(ctx)
	if err != nil {
		return RunReport{}, fmt.Errorf("failed to list users: %w", err)
	}

	now := s.now()
	report := RunReport{Users: len(users)}
	for _, user := range users {
		if err := ctx.Err(); err != nil {
			return report, err
		}

		goals, milestones, err := s.snapshot(ctx, user.ID)
		if err != nil {
			report.Failed++
			slog.Error("failed to load digest data", "error", err, "user_id", user.ID)
			continue
		}

		stats := analytics.BuildWeeklyStats(goals, milestones, now)
		s.deliver(ctx, &report, NotificationDigest, user, now, func() error {
			return s.mailer.SendWeeklyDigest(ctx, user, stats)
		})
	}

	slog.Info("weekly digests finished", "users", report.Users, "sent", report.Sent, "skipped", report.Skipped, "failed", report.Failed)
	return report, nil
}

func (s *NotificationService) snapshot(ctx context.Context, userID string) ([]model.Goal, []model.Milestone, error) {
	goals, err := s.goals.Goals(ctx, userID, repository.GoalFilter{})
	if err != nil {
		return nil, nil, err
	}
	milestones, err := s.milestones.ByUser(ctx, userID)
	if err != nil {
		return nil, nil, err
	}
	return goals, milestones, nil
}

// deliver sends at most one e-mail of kind per user and UTC day. A failed
// dedupe check does not block delivery. A failed send releases its claim so
// the next run retries the user.
func (s *NotificationService) deliver(ctx context.Context, report *RunReport, kind string, user model.User, now time.Time, send func() error) {
	claimed := ""
	if s.deduper != nil {
		key := fmt.Sprintf("notify:%s:%s:%s", kind, user.ID, now.UTC().Format(time.DateOnly))
		ok, err := s.deduper.Claim(ctx, key, 24*time.Hour)
		if err != nil {
			slog.Warn("notification dedupe check failed", "error", err, "type", kind, "user_id", user.ID)
		} else if !ok {
			report.Skipped++
			metrics.RecordNotification(kind, "skipped")
			return
		} else {
			claimed = key
		}
	}

	err := send()
	if err != nil {
		if claimed != "" {
			if relErr := s.deduper.Release(ctx, claimed); relErr != nil {
				slog.Warn("failed to release notification claim", "error", relErr, "key", claimed)
			}
		}
		report.Failed++
		metrics.RecordNotification(kind, "failed")
		slog.Error("failed to send notification", "error", err, "type", kind, "user_id", user.ID)
		return
	}

	report.Sent++
	metrics.RecordNotification(kind, "sent")
}
