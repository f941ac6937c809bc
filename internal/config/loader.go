package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"go.yaml.in/yaml/v3"
)

// CalendarConfig tunes the calendar synchronizer. ClientID and ClientSecret
// identify the OAuth application used to refresh stored user tokens; when
// unset, expired tokens are not refreshed and affected users must reconnect.
type CalendarConfig struct {
	CalendarID   string        `yaml:"calendar_id"`
	ClientID     string        `yaml:"client_id"`
	ClientSecret string        `yaml:"client_secret"`
	RatePerSec   float64       `yaml:"rate_per_sec"`
	MaxAttempts  int           `yaml:"max_attempts"`
	CallTimeout  time.Duration `yaml:"call_timeout"`
}

// AutoScheduleConfig controls the background job that tops up upcoming
// rotations for active groups.
type AutoScheduleConfig struct {
	Enabled bool   `yaml:"enabled"`
	Cron    string `yaml:"cron"`
	Horizon int    `yaml:"horizon"`
}

// Config captures the service configuration, read from an optional YAML file
// and overridden by environment variables.
type Config struct {
	HTTPPort        int                `yaml:"http_port"`
	SQLiteDSN       string             `yaml:"sqlite_dsn"`
	LogLevel        string             `yaml:"log_level"`
	SessionTTL      time.Duration      `yaml:"session_ttl"`
	DefaultTimezone string             `yaml:"default_timezone"`
	Calendar        CalendarConfig     `yaml:"calendar"`
	AutoSchedule    AutoScheduleConfig `yaml:"auto_schedule"`
}

func defaults() Config {
	return Config{
		HTTPPort:        8080,
		SQLiteDSN:       "file:rotationd.db?_foreign_keys=on",
		LogLevel:        "info",
		SessionTTL:      24 * time.Hour,
		DefaultTimezone: "UTC",
		Calendar: CalendarConfig{
			CalendarID:  "primary",
			RatePerSec:  5,
			MaxAttempts: 3,
			CallTimeout: 15 * time.Second,
		},
		AutoSchedule: AutoScheduleConfig{
			Enabled: false,
			Cron:    "0 6 * * MON",
			Horizon: 4,
		},
	}
}

// Load reads the YAML file at path (if path is non-empty), then applies
// environment overrides on top of it.
//
// Missing required values and unparseable entries are accumulated and
// reported together so an operator can fix a broken deployment in one pass.
func Load(path string) (Config, error) {
	cfg := defaults()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config file: %w", err)
		}
	}

	invalid := make([]string, 0, 2)

	if portValue := strings.TrimSpace(os.Getenv("ROTATIOND_HTTP_PORT")); portValue != "" {
		port, err := strconv.Atoi(portValue)
		if err != nil || port <= 0 {
			invalid = append(invalid, "ROTATIOND_HTTP_PORT")
		} else {
			cfg.HTTPPort = port
		}
	}

	if dsn := strings.TrimSpace(os.Getenv("ROTATIOND_SQLITE_DSN")); dsn != "" {
		cfg.SQLiteDSN = dsn
	}

	if level := strings.TrimSpace(os.Getenv("ROTATIOND_LOG_LEVEL")); level != "" {
		cfg.LogLevel = level
	}

	if ttlValue := strings.TrimSpace(os.Getenv("ROTATIOND_SESSION_TTL")); ttlValue != "" {
		ttl, err := time.ParseDuration(ttlValue)
		if err != nil || ttl <= 0 {
			invalid = append(invalid, "ROTATIOND_SESSION_TTL")
		} else {
			cfg.SessionTTL = ttl
		}
	}

	if zone := strings.TrimSpace(os.Getenv("ROTATIOND_DEFAULT_TIMEZONE")); zone != "" {
		cfg.DefaultTimezone = zone
	}

	if calendarID := strings.TrimSpace(os.Getenv("ROTATIOND_CALENDAR_ID")); calendarID != "" {
		cfg.Calendar.CalendarID = calendarID
	}

	if clientID := strings.TrimSpace(os.Getenv("ROTATIOND_CALENDAR_CLIENT_ID")); clientID != "" {
		cfg.Calendar.ClientID = clientID
	}

	if clientSecret := strings.TrimSpace(os.Getenv("ROTATIOND_CALENDAR_CLIENT_SECRET")); clientSecret != "" {
		cfg.Calendar.ClientSecret = clientSecret
	}

	if rateValue := strings.TrimSpace(os.Getenv("ROTATIOND_CALENDAR_RATE_PER_SEC")); rateValue != "" {
		rate, err := strconv.ParseFloat(rateValue, 64)
		if err != nil || rate <= 0 {
			invalid = append(invalid, "ROTATIOND_CALENDAR_RATE_PER_SEC")
		} else {
			cfg.Calendar.RatePerSec = rate
		}
	}

	if attemptsValue := strings.TrimSpace(os.Getenv("ROTATIOND_CALENDAR_MAX_ATTEMPTS")); attemptsValue != "" {
		attempts, err := strconv.Atoi(attemptsValue)
		if err != nil || attempts < 1 {
			invalid = append(invalid, "ROTATIOND_CALENDAR_MAX_ATTEMPTS")
		} else {
			cfg.Calendar.MaxAttempts = attempts
		}
	}

	if timeoutValue := strings.TrimSpace(os.Getenv("ROTATIOND_CALENDAR_CALL_TIMEOUT")); timeoutValue != "" {
		timeout, err := time.ParseDuration(timeoutValue)
		if err != nil || timeout <= 0 {
			invalid = append(invalid, "ROTATIOND_CALENDAR_CALL_TIMEOUT")
		} else {
			cfg.Calendar.CallTimeout = timeout
		}
	}

	if enabledValue := strings.TrimSpace(os.Getenv("ROTATIOND_AUTO_SCHEDULE_ENABLED")); enabledValue != "" {
		enabled, err := strconv.ParseBool(enabledValue)
		if err != nil {
			invalid = append(invalid, "ROTATIOND_AUTO_SCHEDULE_ENABLED")
		} else {
			cfg.AutoSchedule.Enabled = enabled
		}
	}

	if cronValue := strings.TrimSpace(os.Getenv("ROTATIOND_AUTO_SCHEDULE_CRON")); cronValue != "" {
		cfg.AutoSchedule.Cron = cronValue
	}

	if horizonValue := strings.TrimSpace(os.Getenv("ROTATIOND_AUTO_SCHEDULE_HORIZON")); horizonValue != "" {
		horizon, err := strconv.Atoi(horizonValue)
		if err != nil || horizon < 1 {
			invalid = append(invalid, "ROTATIOND_AUTO_SCHEDULE_HORIZON")
		} else {
			cfg.AutoSchedule.Horizon = horizon
		}
	}

	if _, err := time.LoadLocation(cfg.DefaultTimezone); err != nil {
		invalid = append(invalid, "ROTATIOND_DEFAULT_TIMEZONE")
	}

	if len(invalid) > 0 {
		return Config{}, fmt.Errorf("invalid configuration values: %s", strings.Join(invalid, ", "))
	}

	return cfg, nil
}
