// Package config handles loading and validating the application bootstrap
// configuration from a YAML file with environment variable substitution.
//
// Only static process settings live here. Runtime settings that admins can
// change while the bot is running (polling interval, cache expiry, default
// notification channel, language) are persisted through the store instead.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the top-level application configuration.
type Config struct {
	Discord   DiscordConfig   `yaml:"discord"`
	Storage   StorageConfig   `yaml:"storage"`
	Vinted    VintedConfig    `yaml:"vinted"`
	Schedule  ScheduleConfig  `yaml:"schedule"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
	Server    ServerConfig    `yaml:"server"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// DiscordConfig defines the Discord API credentials and endpoint.
type DiscordConfig struct {
	Token   string `yaml:"token"`
	APIBase string `yaml:"api_base"`
}

// StorageConfig defines where the durable JSON resources live.
type StorageConfig struct {
	DataDir string `yaml:"data_dir"`
}

// VintedConfig defines the catalog endpoint and request identity.
type VintedConfig struct {
	BaseURL   string        `yaml:"base_url"`
	UserAgent string        `yaml:"user_agent"`
	Timeout   time.Duration `yaml:"timeout"`
}

// ScheduleConfig defines polling cycle behavior.
type ScheduleConfig struct {
	MinPollInterval time.Duration `yaml:"min_poll_interval"`
	SearchPause     time.Duration `yaml:"search_pause"`
	FetchLimit      int           `yaml:"fetch_limit"`
}

// RateLimitConfig defines outbound catalog request throttling.
type RateLimitConfig struct {
	MinDelay     time.Duration `yaml:"min_delay"`
	MaxPerMinute int           `yaml:"max_per_minute"`
	Cooldown     time.Duration `yaml:"cooldown"`
}

// ServerConfig defines the ops HTTP server settings.
type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// LoggingConfig defines logging settings.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // text, json
}

// Load reads and parses a YAML config file, performing environment variable
// substitution and validation.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path) //nolint:gosec // config path from trusted CLI flag
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	// Expand environment variables in the YAML content.
	expanded := os.ExpandEnv(string(data))

	cfg := &Config{}
	if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
		return nil, fmt.Errorf("parsing config YAML: %w", err)
	}

	applyDefaults(cfg)

	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

func applyDefaults(cfg *Config) {
	applyDiscordDefaults(&cfg.Discord)
	applyStorageDefaults(&cfg.Storage)
	applyVintedDefaults(&cfg.Vinted)
	applyScheduleDefaults(&cfg.Schedule)
	applyRateLimitDefaults(&cfg.RateLimit)
	applyServerDefaults(&cfg.Server)
	applyLoggingDefaults(&cfg.Logging)
}

func applyDiscordDefaults(d *DiscordConfig) {
	if d.APIBase == "" {
		d.APIBase = "https://discord.com/api/v10"
	}
}

func applyStorageDefaults(s *StorageConfig) {
	if s.DataDir == "" {
		s.DataDir = "data"
	}
}

func applyVintedDefaults(v *VintedConfig) {
	if v.BaseURL == "" {
		v.BaseURL = "https://www.vinted.fr/vetements"
	}
	if v.UserAgent == "" {
		v.UserAgent = "VintedBot/1.0"
	}
	if v.Timeout == 0 {
		v.Timeout = 30 * time.Second
	}
}

func applyScheduleDefaults(s *ScheduleConfig) {
	if s.MinPollInterval == 0 {
		s.MinPollInterval = 30 * time.Second
	}
	if s.SearchPause == 0 {
		s.SearchPause = 2 * time.Second
	}
	if s.FetchLimit == 0 {
		s.FetchLimit = 20
	}
}

func applyRateLimitDefaults(r *RateLimitConfig) {
	if r.MinDelay == 0 {
		r.MinDelay = 3 * time.Second
	}
	if r.MaxPerMinute == 0 {
		r.MaxPerMinute = 10
	}
	if r.Cooldown == 0 {
		r.Cooldown = 60 * time.Second
	}
}

func applyServerDefaults(s *ServerConfig) {
	if s.Host == "" {
		s.Host = "0.0.0.0"
	}
	if s.Port == 0 {
		s.Port = 8080
	}
}

func applyLoggingDefaults(l *LoggingConfig) {
	if l.Level == "" {
		l.Level = "info"
	}
	if l.Format == "" {
		l.Format = "text"
	}
}

func validate(cfg *Config) error {
	var errs []error

	if cfg.RateLimit.MinDelay < 0 {
		errs = append(errs, fmt.Errorf("rate_limit.min_delay must not be negative"))
	}
	if cfg.RateLimit.MaxPerMinute < 1 {
		errs = append(errs, fmt.Errorf("rate_limit.max_per_minute must be at least 1"))
	}
	if cfg.Schedule.MinPollInterval < time.Second {
		errs = append(errs, fmt.Errorf("schedule.min_poll_interval must be at least 1s"))
	}

	return errors.Join(errs...)
}
