package config

import (
	"testing"
	"time"
)

func TestEnvHelpers(t *testing.T) {
	t.Setenv("GT_INT", "5")
	t.Setenv("GT_BAD_INT", "five")
	t.Setenv("GT_BOOL", "false")
	t.Setenv("GT_DURATION", "90m")

	if got := envInt("GT_INT", 3); got != 5 {
		t.Errorf("envInt = %d, want 5", got)
	}
	if got := envInt("GT_BAD_INT", 3); got != 3 {
		t.Errorf("envInt with bad value = %d, want default 3", got)
	}
	if got := envInt("GT_MISSING", 3); got != 3 {
		t.Errorf("envInt missing = %d, want 3", got)
	}
	if got := envBool("GT_BOOL", true); got {
		t.Error("envBool = true, want false")
	}
	if got := envDuration("GT_DURATION", time.Hour); got != 90*time.Minute {
		t.Errorf("envDuration = %v, want 90m", got)
	}
	if got := envString("GT_MISSING", "fallback"); got != "fallback" {
		t.Errorf("envString = %q", got)
	}
}

func TestLoad(t *testing.T) {
	t.Setenv("APP_ENV", "development")
	t.Setenv("APP_URL", "http://localhost:8090")
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("REMINDER_WINDOW_DAYS", "")
	t.Setenv("S3_BUCKET", "")

	cfg := Load()
	if !cfg.IsDevelopment() || cfg.IsProduction() {
		t.Errorf("env flags wrong for %q", cfg.AppEnv)
	}
	if cfg.ReminderSchedule != "0 9 * * *" || cfg.DigestSchedule != "0 8 * * 1" {
		t.Errorf("schedules = %q, %q", cfg.ReminderSchedule, cfg.DigestSchedule)
	}
	if cfg.TokenCleanupSchedule != "0 0 * * *" {
		t.Errorf("TokenCleanupSchedule = %q", cfg.TokenCleanupSchedule)
	}
	if cfg.TokenPasswordResetExpiry != time.Hour || cfg.TokenEmailVerifyExpiry != 24*time.Hour {
		t.Errorf("token expiries = %v, %v", cfg.TokenPasswordResetExpiry, cfg.TokenEmailVerifyExpiry)
	}
	if cfg.ReminderWindowDays != 3 {
		t.Errorf("ReminderWindowDays = %d, want 3", cfg.ReminderWindowDays)
	}
	if cfg.HasStorage() {
		t.Error("HasStorage = true without a bucket")
	}
	if s := cfg.Sanitized(); s.JWTSecret != "" {
		t.Error("Sanitized leaked the JWT secret")
	}
}

func TestLocation(t *testing.T) {
	cfg := &Config{ScheduleTimezone: "Europe/Berlin"}
	if loc := cfg.Location(); loc.String() != "Europe/Berlin" {
		t.Errorf("Location = %v", loc)
	}
	cfg.ScheduleTimezone = "Mars/Olympus"
	if loc := cfg.Location(); loc != time.UTC {
		t.Errorf("invalid timezone resolved to %v, want UTC", loc)
	}
}
