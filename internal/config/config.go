// Package config loads and validates reviewer configuration via Viper.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config captures all configuration knobs loaded via Viper.
type Config struct {
	Fetch    FetchConfig    `mapstructure:"fetch"`
	Throttle ThrottleConfig `mapstructure:"throttle"`
	Headless HeadlessConfig `mapstructure:"headless"`
	Logging  LoggingConfig  `mapstructure:"logging"`
}

// FetchConfig governs the static fetch path and the orchestrator mode.
type FetchConfig struct {
	UserAgent      string `mapstructure:"user_agent"`
	TimeoutSeconds int    `mapstructure:"timeout_seconds"`
	MaxBodyBytes   int    `mapstructure:"max_body_bytes"`
	JSMode         string `mapstructure:"js_mode"`
}

// ThrottleConfig governs per-domain pacing and retry.
type ThrottleConfig struct {
	MinDomainDelayMs int `mapstructure:"min_domain_delay_ms"`
	MaxAttempts      int `mapstructure:"max_attempts"`
	BackoffBaseMs    int `mapstructure:"backoff_base_ms"`
}

// HeadlessConfig configures the browser-rendering subsystem.
type HeadlessConfig struct {
	Enabled       bool    `mapstructure:"enabled"`
	MaxParallel   int     `mapstructure:"max_parallel"`
	NavTimeoutSec int     `mapstructure:"nav_timeout_seconds"`
	DomainQPS     float64 `mapstructure:"domain_qps"`
}

// LoggingConfig toggles zap development features.
type LoggingConfig struct {
	Development bool `mapstructure:"development"`
}

// Load builds a Config from disk/environment.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("DOAJ_REVIEWER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("fetch.user_agent", "DOAJ-Reviewer/0.1 (+https://github.com/ikhwan-arief/DOAJ-Reviewer)")
	v.SetDefault("fetch.timeout_seconds", 20)
	v.SetDefault("fetch.max_body_bytes", 2_000_000)
	v.SetDefault("fetch.js_mode", "auto")
	v.SetDefault("throttle.min_domain_delay_ms", 1000)
	v.SetDefault("throttle.max_attempts", 3)
	v.SetDefault("throttle.backoff_base_ms", 500)
	v.SetDefault("headless.enabled", false)
	v.SetDefault("headless.max_parallel", 1)
	v.SetDefault("headless.nav_timeout_seconds", 45)
	v.SetDefault("headless.domain_qps", 1.0)
	v.SetDefault("logging.development", true)
}

// Validate enforces required values and reasonable limits.
func (c Config) Validate() error {
	if c.Fetch.UserAgent == "" {
		return fmt.Errorf("fetch.user_agent must be set")
	}
	if c.Fetch.TimeoutSeconds <= 0 {
		return fmt.Errorf("fetch.timeout_seconds must be > 0")
	}
	if c.Fetch.MaxBodyBytes <= 0 {
		return fmt.Errorf("fetch.max_body_bytes must be > 0")
	}
	switch c.Fetch.JSMode {
	case "off", "on", "auto":
	default:
		return fmt.Errorf("fetch.js_mode must be one of: off, on, auto")
	}
	if c.Throttle.MinDomainDelayMs < 0 {
		return fmt.Errorf("throttle.min_domain_delay_ms must be >= 0")
	}
	if c.Throttle.MaxAttempts <= 0 {
		return fmt.Errorf("throttle.max_attempts must be > 0")
	}
	if c.Throttle.BackoffBaseMs < 0 {
		return fmt.Errorf("throttle.backoff_base_ms must be >= 0")
	}
	if c.Headless.Enabled && c.Headless.MaxParallel <= 0 {
		return fmt.Errorf("headless.max_parallel must be > 0 when headless is enabled")
	}
	return nil
}

// FetchTimeout converts the configured timeout into a duration.
func (c Config) FetchTimeout() time.Duration {
	return time.Duration(c.Fetch.TimeoutSeconds) * time.Second
}

// MinDomainDelay converts the configured pacing delay into a duration.
func (c Config) MinDomainDelay() time.Duration {
	return time.Duration(c.Throttle.MinDomainDelayMs) * time.Millisecond
}

// BackoffBase converts the configured backoff base into a duration.
func (c Config) BackoffBase() time.Duration {
	return time.Duration(c.Throttle.BackoffBaseMs) * time.Millisecond
}

// NavTimeout converts the headless navigation timeout into a duration.
func (c Config) NavTimeout() time.Duration {
	return time.Duration(c.Headless.NavTimeoutSec) * time.Second
}
