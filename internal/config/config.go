//-------------------------------------------------------------------------
//
// pgEdge Reconcile
//
// Portions copyright (c) 2025 - 2026, pgEdge, Inc.
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

// Package config handles configuration management for pgedge-reconcile.
// Configuration is loaded from config files and CLI flags (no environment variables).
// CLI flags take precedence over config file values.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"

	"github.com/pgEdge/pgedge-reconcile/internal/retry"
)

// Config holds all configuration for pgedge-reconcile.
type Config struct {
	// Connection is the PostgreSQL connection string of the warehouse.
	Connection string `mapstructure:"connection"`

	// LogLevel controls logging verbosity (debug, info, warn, error).
	LogLevel string `mapstructure:"log_level"`

	// Reconcile holds the variance thresholds and report settings.
	Reconcile ReconcileConfig `mapstructure:"reconcile"`

	// Loader holds paging and retry settings for warehouse reads.
	Loader LoaderConfig `mapstructure:"loader"`

	// Storage holds quota and archiving settings.
	Storage StorageConfig `mapstructure:"storage"`

	// Seed holds settings for the seed subcommand.
	Seed SeedConfig `mapstructure:"seed"`
}

// ReconcileConfig holds configuration for the sync subcommand.
type ReconcileConfig struct {
	// MaxAcceptableVariance is the percentage below which a row is ACCEPTABLE.
	MaxAcceptableVariance float64 `mapstructure:"max_acceptable_variance"`

	// CriticalVariance is the percentage at or above which a row is CRITICAL.
	CriticalVariance float64 `mapstructure:"critical_variance"`

	// DefaultWindowDays is the window length used when no start date is given.
	DefaultWindowDays int `mapstructure:"default_window_days"`

	// TopIssues is the number of rows listed in the report.
	TopIssues int `mapstructure:"top_issues"`
}

// LoaderConfig holds configuration for paged warehouse reads.
type LoaderConfig struct {
	PageSize           int `mapstructure:"page_size"`
	HistoricalPageSize int `mapstructure:"historical_page_size"`
	MaxPages           int `mapstructure:"max_pages"`

	// MaxAttempts is the number of tries per page before the load fails.
	MaxAttempts int `mapstructure:"max_attempts"`

	// RetryDelaySeconds is the pause between attempts, or the first
	// pause with exponential backoff.
	RetryDelaySeconds int `mapstructure:"retry_delay"`

	// Backoff selects the retry policy: "fixed" or "exponential".
	Backoff string `mapstructure:"backoff"`
}

// StorageConfig holds configuration for quota checks and archiving.
type StorageConfig struct {
	// Quota is the storage quota (e.g., "10GB", "500MB").
	Quota string `mapstructure:"quota"`

	WarningFraction  float64 `mapstructure:"warning_fraction"`
	CriticalFraction float64 `mapstructure:"critical_fraction"`

	// RetentionDays is the age in days after which rows are archived.
	RetentionDays int `mapstructure:"retention_days"`

	ArchiveBatchSize int    `mapstructure:"archive_batch_size"`
	ArchiveSuffix    string `mapstructure:"archive_suffix"`
}

// SeedConfig holds configuration for demo data generation.
type SeedConfig struct {
	Days       int     `mapstructure:"days"`
	Products   int     `mapstructure:"products"`
	Retailers  int     `mapstructure:"retailers"`
	Locations  int     `mapstructure:"locations"`
	NoiseRate  float64 `mapstructure:"noise_rate"`
	MaxNoise   int64   `mapstructure:"max_noise"`
	CancelRate float64 `mapstructure:"cancel_rate"`
	Seed       uint64  `mapstructure:"seed"`
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() *Config {
	return &Config{
		LogLevel: "info",
		Reconcile: ReconcileConfig{
			MaxAcceptableVariance: 5,
			CriticalVariance:      15,
			DefaultWindowDays:     90,
			TopIssues:             10,
		},
		Loader: LoaderConfig{
			PageSize:           50000,
			HistoricalPageSize: 100000,
			MaxPages:           50,
			MaxAttempts:        3,
			RetryDelaySeconds:  30,
			Backoff:            "fixed",
		},
		Storage: StorageConfig{
			Quota:            "10GB",
			WarningFraction:  0.80,
			CriticalFraction: 0.95,
			RetentionDays:    180,
			ArchiveBatchSize: 50000,
			ArchiveSuffix:    "_archive",
		},
		Seed: SeedConfig{
			Days:       30,
			Products:   50,
			Retailers:  10,
			Locations:  3,
			NoiseRate:  0.2,
			MaxNoise:   5,
			CancelRate: 0.05,
		},
	}
}

// Load reads configuration from config files.
// Config file locations (in order of precedence):
// 1. Path specified by configFile parameter
// 2. ./pgedge-reconcile.yaml
// 3. ~/.config/pgedge-reconcile/pgedge-reconcile.yaml
func Load(configFile string) (*Config, error) {
	v := viper.New()

	v.SetConfigName("pgedge-reconcile")
	v.SetConfigType("yaml")

	v.AddConfigPath(".")
	if home, err := os.UserHomeDir(); err == nil {
		v.AddConfigPath(filepath.Join(home, ".config", "pgedge-reconcile"))
	}

	if configFile != "" {
		v.SetConfigFile(configFile)
	}

	// Read config file (ignore if not found)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	cfg := DefaultConfig()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("error parsing config: %w", err)
	}

	return cfg, nil
}

// RetryDelay returns the loader retry delay as a duration.
func (c *Config) RetryDelay() time.Duration {
	return time.Duration(c.Loader.RetryDelaySeconds) * time.Second
}

// RetryPolicy returns the loader retry policy. Exponential backoff starts
// at the retry delay and is capped at ten times that delay.
func (c *Config) RetryPolicy() retry.Policy {
	if c.Loader.Backoff == "exponential" {
		return retry.Exponential{
			MaxAttempts: c.Loader.MaxAttempts,
			Initial:     c.RetryDelay(),
			Max:         10 * c.RetryDelay(),
			Multiplier:  2,
		}
	}
	return retry.Fixed{MaxAttempts: c.Loader.MaxAttempts, Delay: c.RetryDelay()}
}

// QuotaBytes returns the parsed storage quota.
func (c *Config) QuotaBytes() (int64, error) {
	return ParseSize(c.Storage.Quota)
}

// Validate checks that required configuration is present.
func (c *Config) Validate() error {
	if c.Connection == "" {
		return fmt.Errorf("connection string is required")
	}
	return nil
}

// ValidateSync checks configuration required for the sync command.
func (c *Config) ValidateSync() error {
	if err := c.Validate(); err != nil {
		return err
	}
	r := c.Reconcile
	if r.MaxAcceptableVariance <= 0 {
		return fmt.Errorf("max_acceptable_variance must be positive")
	}
	if r.CriticalVariance <= r.MaxAcceptableVariance {
		return fmt.Errorf("critical_variance must be greater than max_acceptable_variance")
	}
	if r.DefaultWindowDays < 1 {
		return fmt.Errorf("default_window_days must be at least 1")
	}
	l := c.Loader
	if l.PageSize < 1 || l.HistoricalPageSize < 1 {
		return fmt.Errorf("page sizes must be at least 1")
	}
	if l.MaxPages < 1 {
		return fmt.Errorf("max_pages must be at least 1")
	}
	if l.MaxAttempts < 1 {
		return fmt.Errorf("max_attempts must be at least 1")
	}
	if l.RetryDelaySeconds < 0 {
		return fmt.Errorf("retry_delay must be non-negative")
	}
	if l.Backoff != "fixed" && l.Backoff != "exponential" {
		return fmt.Errorf("backoff must be 'fixed' or 'exponential'")
	}
	return c.validateQuota()
}

// ValidateStorage checks configuration required for the storage command.
func (c *Config) ValidateStorage() error {
	if err := c.Validate(); err != nil {
		return err
	}
	if c.Storage.RetentionDays < 1 {
		return fmt.Errorf("retention_days must be at least 1")
	}
	if c.Storage.ArchiveBatchSize < 1 {
		return fmt.Errorf("archive_batch_size must be at least 1")
	}
	if c.Storage.ArchiveSuffix == "" {
		return fmt.Errorf("archive_suffix is required")
	}
	return c.validateQuota()
}

func (c *Config) validateQuota() error {
	s := c.Storage
	if s.WarningFraction <= 0 || s.WarningFraction > 1 || s.CriticalFraction <= 0 || s.CriticalFraction > 1 {
		return fmt.Errorf("storage fractions must be in (0, 1]")
	}
	if s.WarningFraction >= s.CriticalFraction {
		return fmt.Errorf("warning_fraction must be less than critical_fraction")
	}
	quota, err := c.QuotaBytes()
	if err != nil {
		return fmt.Errorf("invalid quota: %w", err)
	}
	if quota <= 0 {
		return fmt.Errorf("quota must be positive")
	}
	return nil
}

// ParseSize converts a size string (e.g., "10GB", "500MB") to bytes.
func ParseSize(s string) (int64, error) {
	var value float64
	var unit string

	_, err := fmt.Sscanf(s, "%f%s", &value, &unit)
	if err != nil {
		return 0, fmt.Errorf("invalid size format: %s", s)
	}

	var multiplier int64
	switch unit {
	case "B", "b":
		multiplier = 1
	case "KB", "kb", "K", "k":
		multiplier = 1024
	case "MB", "mb", "M", "m":
		multiplier = 1024 * 1024
	case "GB", "gb", "G", "g":
		multiplier = 1024 * 1024 * 1024
	case "TB", "tb", "T", "t":
		multiplier = 1024 * 1024 * 1024 * 1024
	default:
		return 0, fmt.Errorf("unknown size unit: %s", unit)
	}

	return int64(value * float64(multiplier)), nil
}
