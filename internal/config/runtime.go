// Package config provides centralized configuration for waketime runtime values.
//
// Values come from compiled-in defaults, then an optional YAML file, then
// WAKETIME_* environment variables (a .env file in the working directory is
// loaded first).
package config

import (
	"errors"
	"path/filepath"
	"strings"
	"time"

	"github.com/adrg/xdg"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/manav03panchal/waketime/internal/model"
	"github.com/manav03panchal/waketime/internal/validate"
)

const (
	// AppName is the application name used for data directories.
	AppName = "waketime"
	// EnvPrefix prefixes every environment override.
	EnvPrefix = "WAKETIME"
)

// RuntimeConfig holds all runtime configuration values.
type RuntimeConfig struct {
	Alarm         AlarmConfig         `mapstructure:"alarm"`
	History       HistoryConfig       `mapstructure:"history"`
	Scheduler     SchedulerConfig     `mapstructure:"scheduler"`
	Storage       StorageConfig       `mapstructure:"storage"`
	Daemon        DaemonConfig        `mapstructure:"daemon"`
	HTTP          HTTPConfig          `mapstructure:"http"`
	Log           LogConfig           `mapstructure:"log"`
	Notifications NotificationsConfig `mapstructure:"notifications"`
	Webhooks      []model.Webhook     `mapstructure:"webhooks" validate:"dive"`
}

// AlarmConfig holds alarm behavior defaults.
type AlarmConfig struct {
	// EscalationTimeout is how long an unattended alarm rings before it is
	// snoozed automatically.
	// Default: 2m
	EscalationTimeout time.Duration `mapstructure:"escalation_timeout" validate:"gt=0"`

	// DefaultSnooze is the snooze duration in minutes for new alarms.
	// Default: 10
	DefaultSnooze int `mapstructure:"default_snooze" validate:"gt=0"`

	// SnoozeOptions are the durations offered by the CLI.
	// Default: [5, 10, 15]
	SnoozeOptions []int `mapstructure:"snooze_options" validate:"dive,gt=0"`

	// DefaultSound is the catalog sound for new alarms.
	DefaultSound string `mapstructure:"default_sound" validate:"omitempty,sound"`
}

// HistoryConfig holds the trigger history retention policy.
type HistoryConfig struct {
	// MaxEvents caps the number of events kept per alarm.
	// Default: 50
	MaxEvents int `mapstructure:"max_events" validate:"gt=0"`

	// MaxAge drops events older than this.
	// Default: 720h (30 days)
	MaxAge time.Duration `mapstructure:"max_age" validate:"gt=0"`
}

// SchedulerConfig holds delivery loop configuration.
type SchedulerConfig struct {
	// PollInterval is how often due triggers are delivered.
	// Default: 10s
	PollInterval time.Duration `mapstructure:"poll_interval" validate:"gt=0"`

	// CatchUpWindow is how late a delivery may be and still ring.
	// Default: 6h
	CatchUpWindow time.Duration `mapstructure:"catch_up_window" validate:"gt=0"`
}

// StorageConfig holds storage-related configuration.
type StorageConfig struct {
	// Driver selects the backend: badger, sqlite or postgres.
	// Default: badger
	Driver string `mapstructure:"driver" validate:"oneof=badger sqlite postgres"`

	// DSN is the badger directory, sqlite file or postgres connection string.
	// Empty picks a path under the XDG data directory.
	DSN string `mapstructure:"dsn"`

	// OpenTimeout bounds how long to wait for a store held by another process.
	// Default: 5s
	OpenTimeout time.Duration `mapstructure:"open_timeout" validate:"gte=0"`
}

// DaemonConfig holds daemon-related configuration.
type DaemonConfig struct {
	// StartupWait is the time to wait for the daemon to start before checking status.
	// Default: 500ms
	StartupWait time.Duration `mapstructure:"startup_wait"`

	// ShutdownTimeout is the timeout for graceful shutdown before force kill.
	// Default: 5s
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`

	// MetricsAddr enables the Prometheus endpoint when set (e.g. "127.0.0.1:9273").
	MetricsAddr string `mapstructure:"metrics_addr"`
}

// HTTPConfig holds webhook client configuration.
type HTTPConfig struct {
	// Timeout is the request timeout.
	// Default: 10s
	Timeout time.Duration `mapstructure:"timeout" validate:"gt=0"`

	// MaxRetries is the number of retries after the first attempt.
	// Default: 3
	MaxRetries int `mapstructure:"max_retries" validate:"gte=0"`

	// RetryWait is the initial backoff between attempts.
	// Default: 2s
	RetryWait time.Duration `mapstructure:"retry_wait"`

	// RetryMaxWait caps the backoff.
	// Default: 30s
	RetryMaxWait time.Duration `mapstructure:"retry_max_wait"`
}

// LogConfig holds daemon logging configuration.
type LogConfig struct {
	Level string `mapstructure:"level"`
	JSON  bool   `mapstructure:"json"`
}

// NotificationsConfig gates alarm delivery.
type NotificationsConfig struct {
	// Enabled is the answer to the permission gate.
	// Default: true
	Enabled bool `mapstructure:"enabled"`
}

// DefaultRuntimeConfig returns the default runtime configuration.
func DefaultRuntimeConfig() *RuntimeConfig {
	return &RuntimeConfig{
		Alarm: AlarmConfig{
			EscalationTimeout: 2 * time.Minute,
			DefaultSnooze:     10,
			SnoozeOptions:     []int{5, 10, 15},
			DefaultSound:      model.DefaultSound,
		},
		History: HistoryConfig{
			MaxEvents: 50,
			MaxAge:    30 * 24 * time.Hour,
		},
		Scheduler: SchedulerConfig{
			PollInterval:  10 * time.Second,
			CatchUpWindow: 6 * time.Hour,
		},
		Storage: StorageConfig{
			Driver:      "badger",
			OpenTimeout: 5 * time.Second,
		},
		Daemon: DaemonConfig{
			StartupWait:     500 * time.Millisecond,
			ShutdownTimeout: 5 * time.Second,
		},
		HTTP: HTTPConfig{
			Timeout:      10 * time.Second,
			MaxRetries:   3,
			RetryWait:    2 * time.Second,
			RetryMaxWait: 30 * time.Second,
		},
		Log: LogConfig{
			Level: "info",
		},
		Notifications: NotificationsConfig{
			Enabled: true,
		},
	}
}

// Global holds the global runtime configuration instance. It starts at the
// defaults; the CLI replaces it with the result of Load.
var Global = DefaultRuntimeConfig()

// Dir returns the directory searched for config.yaml.
func Dir() string {
	return filepath.Join(xdg.ConfigHome, AppName)
}

// Load builds the runtime configuration. An empty path searches Dir() and
// tolerates a missing file; an explicit path must exist.
func Load(path string) (*RuntimeConfig, error) {
	// .env never overrides variables already set in the environment
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v, DefaultRuntimeConfig())

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(Dir())
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, err
		}
	}

	cfg := &RuntimeConfig{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// setDefaults registers every key so environment overrides apply even
// without a config file.
func setDefaults(v *viper.Viper, d *RuntimeConfig) {
	v.SetDefault("alarm.escalation_timeout", d.Alarm.EscalationTimeout)
	v.SetDefault("alarm.default_snooze", d.Alarm.DefaultSnooze)
	v.SetDefault("alarm.snooze_options", d.Alarm.SnoozeOptions)
	v.SetDefault("alarm.default_sound", d.Alarm.DefaultSound)

	v.SetDefault("history.max_events", d.History.MaxEvents)
	v.SetDefault("history.max_age", d.History.MaxAge)

	v.SetDefault("scheduler.poll_interval", d.Scheduler.PollInterval)
	v.SetDefault("scheduler.catch_up_window", d.Scheduler.CatchUpWindow)

	v.SetDefault("storage.driver", d.Storage.Driver)
	v.SetDefault("storage.dsn", d.Storage.DSN)
	v.SetDefault("storage.open_timeout", d.Storage.OpenTimeout)

	v.SetDefault("daemon.startup_wait", d.Daemon.StartupWait)
	v.SetDefault("daemon.shutdown_timeout", d.Daemon.ShutdownTimeout)
	v.SetDefault("daemon.metrics_addr", d.Daemon.MetricsAddr)

	v.SetDefault("http.timeout", d.HTTP.Timeout)
	v.SetDefault("http.max_retries", d.HTTP.MaxRetries)
	v.SetDefault("http.retry_wait", d.HTTP.RetryWait)
	v.SetDefault("http.retry_max_wait", d.HTTP.RetryMaxWait)

	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.json", d.Log.JSON)

	v.SetDefault("notifications.enabled", d.Notifications.Enabled)
}

// Reset resets the configuration to defaults.
// This is primarily useful for testing.
func (c *RuntimeConfig) Reset() {
	defaults := DefaultRuntimeConfig()
	*c = *defaults
}

// IsSnoozeOption reports whether minutes is one of the offered snooze durations.
func (c *RuntimeConfig) IsSnoozeOption(minutes int) bool {
	for _, m := range c.Alarm.SnoozeOptions {
		if m == minutes {
			return true
		}
	}
	return false
}

// Validate checks value ranges and webhook declarations.
func (c *RuntimeConfig) Validate() error {
	if err := validate.Struct(c); err != nil {
		return err
	}
	return validate.Webhooks(c.Webhooks)
}
