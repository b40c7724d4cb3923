package config

import (
	"os"
	"time"

	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

// Config represents the overall application configuration.
type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Database   DatabaseConfig   `yaml:"database"`
	Holds      HoldsConfig      `yaml:"holds"`
	Push       PushConfig       `yaml:"push"`
	WorkerPool WorkerPoolConfig `yaml:"worker_pool"`
}

// ServerConfig holds the HTTP server configuration.
type ServerConfig struct {
	Port            int     `yaml:"port"`
	RequestIPHeader string  `yaml:"request_ip_header"`
	RateLimitPerSec float64 `yaml:"rate_limit_per_sec"`
	RateLimitBurst  int     `yaml:"rate_limit_burst"`
	CacheTTLSeconds int     `yaml:"cache_ttl_seconds"`
}

// DatabaseConfig holds the database connection configuration.
type DatabaseConfig struct {
	DSN                    string `yaml:"dsn"`
	MaxOpenConns           int    `yaml:"max_open_conns"`
	MaxIdleConns           int    `yaml:"max_idle_conns"`
	ConnMaxLifetimeMinutes int    `yaml:"conn_max_lifetime_minutes"`
}

// HoldsConfig controls the hold lifecycle: the default time-to-live of a
// new hold, how often the expiry sweeper runs, and how far ahead of
// expiry the reminder notification fires.
type HoldsConfig struct {
	DefaultTTLMinutes    int           `yaml:"default_ttl_minutes"`
	SweepIntervalSeconds int           `yaml:"sweep_interval_seconds"`
	SweepInterval        time.Duration `yaml:"-"` // Ignored by YAML parser
	ReminderLeadMinutes  int           `yaml:"reminder_lead_minutes"`
}

// DefaultTTL returns the configured default hold time-to-live.
func (h *HoldsConfig) DefaultTTL() time.Duration {
	return time.Duration(h.DefaultTTLMinutes) * time.Minute
}

// ReminderLead returns how far before expiry a reminder is dispatched.
func (h *HoldsConfig) ReminderLead() time.Duration {
	return time.Duration(h.ReminderLeadMinutes) * time.Minute
}

// PushConfig holds the VAPID keys for web push notifications.
type PushConfig struct {
	PublicKey  string `yaml:"vapid_public_key"`
	PrivateKey string `yaml:"vapid_private_key"`
	Subject    string `yaml:"subject"`
	TTL        int    `yaml:"ttl"`
}

// WorkerPoolConfig holds the configuration for the notification worker pool.
type WorkerPoolConfig struct {
	Size int `yaml:"size"`
}

// Load reads the configuration from the given path.
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var cfg Config
	decoder := yaml.NewDecoder(f)
	if err := decoder.Decode(&cfg); err != nil {
		return nil, err
	}

	if cfg.Holds.DefaultTTLMinutes <= 0 {
		cfg.Holds.DefaultTTLMinutes = 15
	}

	if cfg.Holds.SweepIntervalSeconds <= 0 {
		cfg.Holds.SweepIntervalSeconds = 60
	}
	cfg.Holds.SweepInterval = time.Duration(cfg.Holds.SweepIntervalSeconds) * time.Second

	if cfg.Holds.ReminderLeadMinutes <= 0 {
		cfg.Holds.ReminderLeadMinutes = 3
	}

	if cfg.Server.RateLimitPerSec <= 0 {
		cfg.Server.RateLimitPerSec = 10
	}
	if cfg.Server.RateLimitBurst <= 0 {
		cfg.Server.RateLimitBurst = 5
	}

	if cfg.Push.TTL <= 0 {
		cfg.Push.TTL = 3600
	}

	if cfg.WorkerPool.Size <= 0 {
		logrus.Warn("worker_pool.size is not set or invalid; defaulting to 1")
		cfg.WorkerPool.Size = 1
	}

	return &cfg, nil
}
