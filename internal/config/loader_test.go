package config

import (
	"strings"
	"testing"
	"time"
)

func setRequiredEnv(t *testing.T) {
	t.Helper()
	t.Setenv("ROOMBOOKING_ROOMS_FILE", "/etc/roombooking/rooms.yaml")
	t.Setenv("ROOMBOOKING_CALENDAR_TOKEN", "test-token")
}

func TestLoad(t *testing.T) {
	t.Run("applies defaults with only required values set", func(t *testing.T) {
		setRequiredEnv(t)

		cfg, err := Load()
		if err != nil {
			t.Fatalf("Load returned error: %v", err)
		}

		if cfg.HTTPPort != 8080 {
			t.Fatalf("expected default port 8080, got %d", cfg.HTTPPort)
		}
		if cfg.SlotMinutes != 30 || cfg.WorkStartHour != 8 || cfg.WorkEndHour != 17 {
			t.Fatalf("unexpected grid defaults: %+v", cfg)
		}
		if cfg.Timezone != "UTC" {
			t.Fatalf("expected UTC timezone, got %q", cfg.Timezone)
		}
		if cfg.ScanSchedule != "*/5 * * * *" {
			t.Fatalf("unexpected scan schedule %q", cfg.ScanSchedule)
		}
		if cfg.LockTimeout != 5*time.Second || cfg.ConfirmationRetention != 6*time.Hour {
			t.Fatalf("unexpected duration defaults: %+v", cfg)
		}
		if cfg.RoomsFile != "/etc/roombooking/rooms.yaml" {
			t.Fatalf("unexpected rooms file %q", cfg.RoomsFile)
		}
		if cfg.LogLevel != "info" || cfg.LogFormat != "json" {
			t.Fatalf("unexpected logging defaults: %q %q", cfg.LogLevel, cfg.LogFormat)
		}
	})

	t.Run("reports missing required variables together", func(t *testing.T) {
		t.Setenv("ROOMBOOKING_ROOMS_FILE", "")
		t.Setenv("ROOMBOOKING_CALENDAR_TOKEN", "")

		_, err := Load()
		if err == nil {
			t.Fatal("expected error for missing required variables")
		}
		if !strings.Contains(err.Error(), "ROOMBOOKING_ROOMS_FILE") || !strings.Contains(err.Error(), "ROOMBOOKING_CALENDAR_TOKEN") {
			t.Fatalf("expected both missing variables named, got %v", err)
		}
	})

	t.Run("reads overrides", func(t *testing.T) {
		setRequiredEnv(t)
		t.Setenv("ROOMBOOKING_HTTP_PORT", "9090")
		t.Setenv("ROOMBOOKING_TIMEZONE", "Asia/Tokyo")
		t.Setenv("ROOMBOOKING_WORK_START_HOUR", "9")
		t.Setenv("ROOMBOOKING_WORK_END_HOUR", "18")
		t.Setenv("ROOMBOOKING_SLOT_MINUTES", "15")
		t.Setenv("ROOMBOOKING_LOCK_TIMEOUT", "2s")
		t.Setenv("ROOMBOOKING_CONFIRMATION_RETENTION", "12h")
		t.Setenv("ROOMBOOKING_SLACK_BOT_TOKEN", "xoxb-test")
		t.Setenv("ROOMBOOKING_LOG_LEVEL", "debug")
		t.Setenv("ROOMBOOKING_LOG_FORMAT", "text")

		cfg, err := Load()
		if err != nil {
			t.Fatalf("Load returned error: %v", err)
		}

		if cfg.HTTPPort != 9090 {
			t.Fatalf("expected port 9090, got %d", cfg.HTTPPort)
		}
		if cfg.Timezone != "Asia/Tokyo" {
			t.Fatalf("expected Asia/Tokyo, got %q", cfg.Timezone)
		}
		if cfg.WorkStartHour != 9 || cfg.WorkEndHour != 18 || cfg.SlotMinutes != 15 {
			t.Fatalf("unexpected grid overrides: %+v", cfg)
		}
		if cfg.LockTimeout != 2*time.Second || cfg.ConfirmationRetention != 12*time.Hour {
			t.Fatalf("unexpected durations: %+v", cfg)
		}
		if cfg.SlackBotToken != "xoxb-test" {
			t.Fatalf("unexpected bot token %q", cfg.SlackBotToken)
		}
		if cfg.LogLevel != "debug" || cfg.LogFormat != "text" {
			t.Fatalf("unexpected logging overrides: %q %q", cfg.LogLevel, cfg.LogFormat)
		}
	})

	t.Run("rejects malformed values", func(t *testing.T) {
		setRequiredEnv(t)
		t.Setenv("ROOMBOOKING_HTTP_PORT", "not-a-port")
		t.Setenv("ROOMBOOKING_TIMEZONE", "Mars/Olympus")
		t.Setenv("ROOMBOOKING_LOCK_TIMEOUT", "-1s")

		_, err := Load()
		if err == nil {
			t.Fatal("expected error for invalid values")
		}
		for _, name := range []string{"ROOMBOOKING_HTTP_PORT", "ROOMBOOKING_TIMEZONE", "ROOMBOOKING_LOCK_TIMEOUT"} {
			if !strings.Contains(err.Error(), name) {
				t.Fatalf("expected %s in error, got %v", name, err)
			}
		}
	})

	t.Run("rejects inverted working hours", func(t *testing.T) {
		setRequiredEnv(t)
		t.Setenv("ROOMBOOKING_WORK_START_HOUR", "17")
		t.Setenv("ROOMBOOKING_WORK_END_HOUR", "8")

		_, err := Load()
		if err == nil {
			t.Fatal("expected error for inverted working hours")
		}
		if !strings.Contains(err.Error(), "ROOMBOOKING_WORK_END_HOUR") {
			t.Fatalf("expected ROOMBOOKING_WORK_END_HOUR in error, got %v", err)
		}
	})
}

func TestConfigLocation(t *testing.T) {
	t.Run("resolves the configured zone", func(t *testing.T) {
		cfg := Config{Timezone: "Asia/Tokyo"}
		if got := cfg.Location().String(); got != "Asia/Tokyo" {
			t.Fatalf("expected Asia/Tokyo, got %q", got)
		}
	})

	t.Run("zero config falls back to UTC", func(t *testing.T) {
		if got := (Config{}).Location(); got != time.UTC {
			t.Fatalf("expected UTC, got %v", got)
		}
	})
}
