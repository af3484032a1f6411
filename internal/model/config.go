package model

import (
	"os"
	"path/filepath"
	"time"
)

// Config is the full runtime configuration tree.
type Config struct {
	Store       StoreConfig       `yaml:"store"`
	Rules       RulesConfig       `yaml:"rules"`
	Feed        FeedConfig        `yaml:"feed"`
	Cache       CacheConfig       `yaml:"cache"`
	Concurrency ConcurrencyConfig `yaml:"concurrency"`
	Notify      NotifyConfig      `yaml:"notify"`
	Output      OutputConfig      `yaml:"output"`
}

// StoreConfig selects and tunes the ticket store.
type StoreConfig struct {
	Driver   string        `yaml:"driver"` // "sqlite" or "memory"
	Path     string        `yaml:"path"`
	CacheTTL time.Duration `yaml:"cache_ttl"` // read-through cache TTL; 0 disables
}

// RulesConfig points at an optional YAML rule-set override.
type RulesConfig struct {
	Path string `yaml:"path"`
}

// FeedConfig tunes remote feed fetching for URL imports.
type FeedConfig struct {
	Timeout       time.Duration `yaml:"timeout"`
	UserAgent     string        `yaml:"user_agent"`
	MaxBodyBytes  int64         `yaml:"max_bytes"`
	RespectRobots bool          `yaml:"respect_robots"`
	RatePerHost   float64       `yaml:"rate_per_host"`
	Burst         int           `yaml:"burst"`
	HTTPProxy     string        `yaml:"http_proxy"`
	HTTPSProxy    string        `yaml:"https_proxy"`
	NoProxy       string        `yaml:"no_proxy"`
}

// CacheConfig tunes the feed payload cache.
type CacheConfig struct {
	Enabled   bool          `yaml:"enabled"`
	Dir       string        `yaml:"dir"`
	MemoryTTL time.Duration `yaml:"memory_ttl"`
	DiskTTL   time.Duration `yaml:"disk_ttl"`
}

// ConcurrencyConfig tunes worker counts.
type ConcurrencyConfig struct {
	SweepWorkers int `yaml:"sweep_workers"`
}

// NotifyConfig configures Slack notifications. Empty token or channel
// disables them.
type NotifyConfig struct {
	SlackToken   string `yaml:"slack_token"`
	SlackChannel string `yaml:"slack_channel"`
	OnUrgent     bool   `yaml:"on_urgent"`
}

// OutputConfig tunes CLI output.
type OutputConfig struct {
	Verbose bool `yaml:"verbose"`
}

// DefaultConfig returns the built-in defaults. Paths live under ~/.triage;
// when the home directory cannot be determined they fall back to relative
// paths in the working directory.
func DefaultConfig() *Config {
	base := ".triage"
	if home, err := os.UserHomeDir(); err == nil {
		base = filepath.Join(home, ".triage")
	}

	return &Config{
		Store: StoreConfig{
			Driver:   "sqlite",
			Path:     filepath.Join(base, "triage.db"),
			CacheTTL: 5 * time.Minute,
		},
		Rules: RulesConfig{},
		Feed: FeedConfig{
			Timeout:       30 * time.Second,
			UserAgent:     "Triage/0.1 (+https://github.com/casehq/triage)",
			MaxBodyBytes:  10_000_000,
			RespectRobots: true,
			RatePerHost:   2.0,
			Burst:         4,
		},
		Cache: CacheConfig{
			Enabled:   true,
			Dir:       filepath.Join(base, "cache"),
			MemoryTTL: 10 * time.Minute,
			DiskTTL:   time.Hour,
		},
		Concurrency: ConcurrencyConfig{
			SweepWorkers: 4,
		},
		Notify: NotifyConfig{
			OnUrgent: true,
		},
		Output: OutputConfig{},
	}
}
