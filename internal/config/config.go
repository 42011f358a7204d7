// File: internal/config/config.go
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type RuntimeConfig struct {
	Dev bool
}

type LogConfig struct {
	Level    string `yaml:"level"`    // trace|debug|info|warn|error
	Format   string `yaml:"format"`   // json|console
	Sampling bool   `yaml:"sampling"` // enable sampling in prod
}

type APIConfig struct {
	Port int `yaml:"port"`
	// Rate limit for redemption/trial attempts per actor.
	RedeemLimit  int           `yaml:"redeem_limit"`
	RedeemWindow time.Duration `yaml:"redeem_window"`
}

type DatabaseConfig struct {
	URL      string `yaml:"url"`
	MaxConns int32  `yaml:"max_conns"`
}

type RedisConfig struct {
	URL      string        `yaml:"url"`
	Password string        `yaml:"password"`
	DB       int           `yaml:"db"`
	TTL      time.Duration `yaml:"ttl"`
}

type SchedulerConfig struct {
	TrialSweepInterval time.Duration `yaml:"trial_sweep_interval"`
	CodeSweepInterval  time.Duration `yaml:"code_sweep_interval"`
	ReconcileInterval  time.Duration `yaml:"reconcile_interval"`
	AuditQueueSize     int           `yaml:"audit_queue_size"`
	AuditWorkers       int           `yaml:"audit_workers"`
}

type SecurityConfig struct {
	AdminJWTSecret string        `yaml:"admin_jwt_secret"`
	SessionTTL     time.Duration `yaml:"session_ttl"`
	AdminAPIKey    string        `yaml:"admin_api_key"`
}

type Config struct {
	Log       LogConfig       `yaml:"log"`
	API       APIConfig       `yaml:"api"`
	Database  DatabaseConfig  `yaml:"database"`
	Redis     RedisConfig     `yaml:"redis"`
	Scheduler SchedulerConfig `yaml:"scheduler"`
	Security  SecurityConfig  `yaml:"security"`

	Runtime RuntimeConfig `yaml:"-"`
}

func LoadConfig(path string, dev bool) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	cfg.Runtime.Dev = dev
	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "json"
	}
	if c.API.Port == 0 {
		c.API.Port = 8080
	}
	if c.API.RedeemLimit == 0 {
		c.API.RedeemLimit = 10
	}
	if c.API.RedeemWindow == 0 {
		c.API.RedeemWindow = time.Minute
	}
	if c.Database.MaxConns == 0 {
		c.Database.MaxConns = 10
	}
	if c.Scheduler.TrialSweepInterval == 0 {
		c.Scheduler.TrialSweepInterval = 10 * time.Minute
	}
	if c.Scheduler.CodeSweepInterval == 0 {
		c.Scheduler.CodeSweepInterval = time.Hour
	}
	if c.Scheduler.ReconcileInterval == 0 {
		c.Scheduler.ReconcileInterval = time.Hour
	}
	if c.Scheduler.AuditQueueSize == 0 {
		c.Scheduler.AuditQueueSize = 1024
	}
	if c.Scheduler.AuditWorkers == 0 {
		c.Scheduler.AuditWorkers = 2
	}
	if c.Security.SessionTTL == 0 {
		c.Security.SessionTTL = 30 * time.Minute
	}
}

func (c *Config) validate() error {
	if c.Database.URL == "" {
		return errors.New("config: database.url is required")
	}
	return nil
}
