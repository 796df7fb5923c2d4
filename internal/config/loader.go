package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config captures environment driven configuration values for the booking service.
type Config struct {
	HTTPPort      int
	SQLiteDSN     string
	RoomsFile     string
	CalendarToken string
	Timezone      string
	WorkStartHour int
	WorkEndHour   int
	SlotMinutes   int

	SlackBotToken       string
	SlackAdminID        string
	SlackDefaultChannel string
	BookingAppURL       string

	ScanSchedule    string
	OfficeStartHour int
	OfficeEndHour   int

	LogLevel  string
	LogFormat string

	LockTimeout           time.Duration
	ConfirmationRetention time.Duration
}

// Load parses configuration values from the current process environment.
//
// The loader applies sensible defaults for optional fields while validating
// required values; missing and malformed entries are accumulated and
// reported together.
func Load() (Config, error) {
	cfg := Config{
		HTTPPort:              8080,
		SQLiteDSN:             "file:roombooking.db?_foreign_keys=on",
		Timezone:              "UTC",
		WorkStartHour:         8,
		WorkEndHour:           17,
		SlotMinutes:           30,
		ScanSchedule:          "*/5 * * * *",
		OfficeStartHour:       0,
		OfficeEndHour:         24,
		LogLevel:              "info",
		LogFormat:             "json",
		LockTimeout:           5 * time.Second,
		ConfirmationRetention: 6 * time.Hour,
	}

	missing := make([]string, 0, 1)
	invalid := make([]string, 0, 2)

	if portValue := strings.TrimSpace(os.Getenv("ROOMBOOKING_HTTP_PORT")); portValue != "" {
		port, err := strconv.Atoi(portValue)
		if err != nil || port <= 0 {
			invalid = append(invalid, "ROOMBOOKING_HTTP_PORT")
		} else {
			cfg.HTTPPort = port
		}
	}

	if dsn := strings.TrimSpace(os.Getenv("ROOMBOOKING_SQLITE_DSN")); dsn != "" {
		cfg.SQLiteDSN = dsn
	}

	if file := strings.TrimSpace(os.Getenv("ROOMBOOKING_ROOMS_FILE")); file == "" {
		missing = append(missing, "ROOMBOOKING_ROOMS_FILE")
	} else {
		cfg.RoomsFile = file
	}

	if token := strings.TrimSpace(os.Getenv("ROOMBOOKING_CALENDAR_TOKEN")); token == "" {
		missing = append(missing, "ROOMBOOKING_CALENDAR_TOKEN")
	} else {
		cfg.CalendarToken = token
	}

	if tz := strings.TrimSpace(os.Getenv("ROOMBOOKING_TIMEZONE")); tz != "" {
		if _, err := time.LoadLocation(tz); err != nil {
			invalid = append(invalid, "ROOMBOOKING_TIMEZONE")
		} else {
			cfg.Timezone = tz
		}
	}

	readHour := func(name string, target *int) {
		value := strings.TrimSpace(os.Getenv(name))
		if value == "" {
			return
		}
		hour, err := strconv.Atoi(value)
		if err != nil || hour < 0 || hour > 24 {
			invalid = append(invalid, name)
			return
		}
		*target = hour
	}
	readHour("ROOMBOOKING_WORK_START_HOUR", &cfg.WorkStartHour)
	readHour("ROOMBOOKING_WORK_END_HOUR", &cfg.WorkEndHour)
	readHour("ROOMBOOKING_OFFICE_START_HOUR", &cfg.OfficeStartHour)
	readHour("ROOMBOOKING_OFFICE_END_HOUR", &cfg.OfficeEndHour)

	if slotValue := strings.TrimSpace(os.Getenv("ROOMBOOKING_SLOT_MINUTES")); slotValue != "" {
		slot, err := strconv.Atoi(slotValue)
		if err != nil || slot <= 0 {
			invalid = append(invalid, "ROOMBOOKING_SLOT_MINUTES")
		} else {
			cfg.SlotMinutes = slot
		}
	}

	if cfg.WorkEndHour <= cfg.WorkStartHour {
		invalid = append(invalid, "ROOMBOOKING_WORK_END_HOUR")
	}

	cfg.SlackBotToken = strings.TrimSpace(os.Getenv("ROOMBOOKING_SLACK_BOT_TOKEN"))
	cfg.SlackAdminID = strings.TrimSpace(os.Getenv("ROOMBOOKING_SLACK_ADMIN_ID"))
	cfg.SlackDefaultChannel = strings.TrimSpace(os.Getenv("ROOMBOOKING_SLACK_DEFAULT_CHANNEL"))
	cfg.BookingAppURL = strings.TrimSpace(os.Getenv("ROOMBOOKING_APP_URL"))

	if spec := strings.TrimSpace(os.Getenv("ROOMBOOKING_SCAN_SCHEDULE")); spec != "" {
		cfg.ScanSchedule = spec
	}

	if level := strings.TrimSpace(os.Getenv("ROOMBOOKING_LOG_LEVEL")); level != "" {
		cfg.LogLevel = level
	}
	if format := strings.TrimSpace(os.Getenv("ROOMBOOKING_LOG_FORMAT")); format != "" {
		cfg.LogFormat = format
	}

	if ttlValue := strings.TrimSpace(os.Getenv("ROOMBOOKING_LOCK_TIMEOUT")); ttlValue != "" {
		ttl, err := time.ParseDuration(ttlValue)
		if err != nil || ttl <= 0 {
			invalid = append(invalid, "ROOMBOOKING_LOCK_TIMEOUT")
		} else {
			cfg.LockTimeout = ttl
		}
	}

	if retValue := strings.TrimSpace(os.Getenv("ROOMBOOKING_CONFIRMATION_RETENTION")); retValue != "" {
		retention, err := time.ParseDuration(retValue)
		if err != nil || retention <= 0 {
			invalid = append(invalid, "ROOMBOOKING_CONFIRMATION_RETENTION")
		} else {
			cfg.ConfirmationRetention = retention
		}
	}

	if len(missing) > 0 {
		return Config{}, fmt.Errorf("missing required environment variables: %s", strings.Join(missing, ", "))
	}
	if len(invalid) > 0 {
		return Config{}, fmt.Errorf("invalid environment variable values: %s", strings.Join(invalid, ", "))
	}

	return cfg, nil
}

// Location resolves the configured timezone. Load validated the name, so a
// failure only occurs for a zero Config; UTC is returned in that case.
func (c Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}
