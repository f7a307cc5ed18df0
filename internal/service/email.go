package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/resend/resend-go/v2"
	"github.com/templui/goaltracker/internal/analytics"
	"github.com/templui/goaltracker/internal/model"
)

// Mailer delivers the scheduled notification e-mails.
type Mailer interface {
	SendMilestoneReminder(ctx context.Context, user model.User, due []analytics.DueMilestone) error
	SendWeeklyDigest(ctx context.Context, user model.User, stats analytics.WeeklyStats) error
}

type EmailService struct {
	client    *resend.Client
	fromEmail string
	isDev     bool
	appURL    string
	appName   string
}

func NewEmailService(apiKey, fromEmail, appURL, appName string, isDev bool) *EmailService {
	var client *resend.Client
	if apiKey != "" && !isDev {
		client = resend.NewClient(apiKey)
	}

	return &EmailService{
		client:    client,
		fromEmail: fromEmail,
		isDev:     isDev,
		appURL:    appURL,
		appName:   appName,
	}
}

func (s *EmailService) SendMilestoneReminder(ctx context.Context, user model.User, due []analytics.DueMilestone) error {
	dashboardURL := fmt.Sprintf("%s/dashboard", s.appURL)
	subject, body := milestoneReminderEmailTemplate(displayName(user), due, dashboardURL, s.appName)
	return s.send(ctx, "milestone_reminder", user.Email, subject, body)
}

func (s *EmailService) SendWeeklyDigest(ctx context.Context, user model.User, stats analytics.WeeklyStats) error {
	dashboardURL := fmt.Sprintf("%s/dashboard", s.appURL)
	subject, body := weeklyDigestEmailTemplate(displayName(user), stats, dashboardURL, s.appName)
	return s.send(ctx, "weekly_digest", user.Email, subject, body)
}

func (s *EmailService) SendWelcomeEmail(ctx context.Context, user model.User) error {
	dashboardURL := fmt.Sprintf("%s/dashboard", s.appURL)
	subject, body := welcomeEmailTemplate(displayName(user), dashboardURL, s.appName)
	return s.send(ctx, "welcome", user.Email, subject, body)
}

func (s *EmailService) SendVerificationEmail(ctx context.Context, user model.User, token string) error {
	verifyURL := fmt.Sprintf("%s/verify-email/%s", s.appURL, token)
	subject, body := verificationEmailTemplate(displayName(user), verifyURL, s.appName)
	return s.send(ctx, "email_verify", user.Email, subject, body)
}

func (s *EmailService) SendPasswordResetEmail(ctx context.Context, user model.User, token string) error {
	resetURL := fmt.Sprintf("%s/reset-password/%s", s.appURL, token)
	subject, body := passwordResetEmailTemplate(displayName(user), resetURL, s.appName)
	return s.send(ctx, "password_reset", user.Email, subject, body)
}

func (s *EmailService) send(ctx context.Context, kind, to, subject, body string) error {
	if s.isDev {
		slog.Info("email sent (dev mode)", "type", kind, "to", to, "subject", subject)
		slog.Debug("email body (dev mode)", "type", kind, "body", body)
		return nil
	}

	if s.client == nil {
		return fmt.Errorf("email service not configured (missing RESEND_API_KEY)")
	}

	params := &resend.SendEmailRequest{
		From:    s.fromEmail,
		To:      []string{to},
		Subject: subject,
		Text:    body,
	}

	_, err := s.client.Emails.SendWithContext(ctx, params)
	if err != nil {
		return fmt.Errorf("failed to send %s email: %w", kind, err)
	}

	slog.Info("email sent", "type", kind, "to", to)
	return nil
}

func displayName(user model.User) string {
	if user.Name != "" {
		return user.Name
	}
	return "there"
}
