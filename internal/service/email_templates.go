package service

import (
	"fmt"
	"strings"

	"github.com/templui/goaltracker/internal/analytics"
)

func milestoneReminderEmailTemplate(name string, due []analytics.DueMilestone, dashboardURL, appName string) (string, string) {
	subject := fmt.Sprintf("Upcoming milestones - %s", appName)

	var list strings.Builder
	for _, m := range due {
		fmt.Fprintf(&list, "- %s (due %s)\n  %s\n", m.Title, m.DueDate.UTC().Format("Mon, Jan 2"), m.GoalTitle)
	}

	body := fmt.Sprintf(`Hi %s,

You have %d milestone(s) coming up soon:

%s
Stay focused and keep making progress!

View your dashboard: %s

You can turn these reminders off in your account preferences.

Best,
The %s Team`, name, len(due), list.String(), dashboardURL, appName)

	return subject, body
}

func weeklyDigestEmailTemplate(name string, stats analytics.WeeklyStats, dashboardURL, appName string) (string, string) {
	subject := fmt.Sprintf("Your weekly progress - %s", appName)
	body := fmt.Sprintf(`Hi %s,

Here's a summary of your progress this week:

Milestones completed: %d
Active goals:         %d
Overall progress:     %d%%

Keep up the great work!

View your dashboard: %s

You can turn the weekly digest off in your account preferences.

Best,
The %s Team`, name, stats.MilestonesCompleted, stats.ActiveGoals, stats.TotalProgress, dashboardURL, appName)

	return subject, body
}

func welcomeEmailTemplate(name, dashboardURL, appName string) (string, string) {
	subject := fmt.Sprintf("Welcome to %s!", appName)
	body := fmt.Sprintf(`Hi %s,

Your account is ready. Create your first goal, break it into milestones and watch the progress add up.

Get started: %s

Best,
The %s Team`, name, dashboardURL, appName)

	return subject, body
}

func verificationEmailTemplate(name, verifyURL, appName string) (string, string) {
	subject := fmt.Sprintf("Verify your email - %s", appName)
	body := fmt.Sprintf(`Hi %s,

Please confirm your email address by opening the link below:

%s

This link expires in 24 hours. If you didn't create an account, you can ignore this email.

Best,
The %s Team`, name, verifyURL, appName)

	return subject, body
}

func passwordResetEmailTemplate(name, resetURL, appName string) (string, string) {
	subject := fmt.Sprintf("Reset your password - %s", appName)
	body := fmt.Sprintf(`Hi %s,

We received a request to reset your password. Choose a new one here:

%s

This link expires in 1 hour. If you didn't ask for a reset, you can ignore this email and your password stays the same.

Best,
The %s Team`, name, resetURL, appName)

	return subject, body
}
