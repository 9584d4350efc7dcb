package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/robfig/cron/v3"
	"gopkg.in/yaml.v3"

	"consistify/internal/util"
)

// Config keeps runtime settings for the server.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Database  DatabaseConfig  `yaml:"database"`
	Log       LogConfig       `yaml:"log"`
	Auth      AuthConfig      `yaml:"auth"`
	Scheduler SchedulerConfig `yaml:"scheduler"`
}

type ServerConfig struct {
	Addr         string   `yaml:"addr"`
	StaticDir    string   `yaml:"static_dir"`
	AllowOrigins []string `yaml:"allow_origins"`
}

type DatabaseConfig struct {
	Path string `yaml:"path"`
}

type LogConfig struct {
	Level      string `yaml:"level"`
	Format     string `yaml:"format"`
	File       string `yaml:"file"`
	Console    bool   `yaml:"console"`
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days"`
}

type AuthConfig struct {
	JWTSecret     string        `yaml:"jwt_secret"`
	TokenTTL      time.Duration `yaml:"token_ttl"`
	SecureCookies bool          `yaml:"secure_cookies"`
}

type SchedulerConfig struct {
	Enabled bool `yaml:"enabled"`
	// RolloverSpec is a six-field cron expression evaluated in UTC.
	RolloverSpec string `yaml:"rollover_spec"`
}

// Default returns the settings used when nothing overrides them.
func Default() Config {
	return Config{
		Server:    ServerConfig{Addr: ":8080", StaticDir: "web/dist", AllowOrigins: []string{"http://localhost:3000"}},
		Database:  DatabaseConfig{Path: "data/consistify.db"},
		Log:       LogConfig{Level: "info", Format: "text", Console: true, MaxSizeMB: 100, MaxBackups: 3, MaxAgeDays: 30},
		Auth:      AuthConfig{TokenTTL: 24 * time.Hour},
		Scheduler: SchedulerConfig{Enabled: true, RolloverSpec: "0 5 0 * * *"},
	}
}

// Load reads the YAML file when path is non-empty, then applies CONSISTIFY_* environment overrides.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	util.OverrideString(&cfg.Server.Addr, "CONSISTIFY_ADDR")
	util.OverrideString(&cfg.Server.StaticDir, "CONSISTIFY_STATIC_DIR")
	util.OverrideList(&cfg.Server.AllowOrigins, "CONSISTIFY_ALLOW_ORIGINS")
	util.OverrideString(&cfg.Database.Path, "CONSISTIFY_DB_PATH")
	util.OverrideString(&cfg.Log.Level, "CONSISTIFY_LOG_LEVEL")
	util.OverrideString(&cfg.Log.Format, "CONSISTIFY_LOG_FORMAT")
	util.OverrideString(&cfg.Log.File, "CONSISTIFY_LOG_FILE")
	util.OverrideInt(&cfg.Log.MaxSizeMB, "CONSISTIFY_LOG_MAX_SIZE_MB")
	util.OverrideString(&cfg.Auth.JWTSecret, "CONSISTIFY_JWT_SECRET")
	util.OverrideDuration(&cfg.Auth.TokenTTL, "CONSISTIFY_TOKEN_TTL")
	util.OverrideBool(&cfg.Auth.SecureCookies, "CONSISTIFY_SECURE_COOKIES")
	util.OverrideBool(&cfg.Scheduler.Enabled, "CONSISTIFY_SCHEDULER_ENABLED")
	util.OverrideString(&cfg.Scheduler.RolloverSpec, "CONSISTIFY_ROLLOVER_SPEC")

	return cfg, nil
}

// Validate reports settings the server cannot start with.
func (c Config) Validate() error {
	var errs []error
	if c.Database.Path == "" {
		errs = append(errs, errors.New("database.path is required"))
	}
	if c.Auth.JWTSecret == "" {
		errs = append(errs, errors.New("auth.jwt_secret is required"))
	}
	if c.Auth.TokenTTL <= 0 {
		errs = append(errs, errors.New("auth.token_ttl must be positive"))
	}
	if c.Scheduler.Enabled {
		parser := cron.NewParser(cron.Second | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)
		if _, err := parser.Parse(c.Scheduler.RolloverSpec); err != nil {
			errs = append(errs, fmt.Errorf("scheduler.rollover_spec: %w", err))
		}
	}
	return errors.Join(errs...)
}
