// Package config loads server configuration.
//
// Configuration can be loaded from:
//  1. YAML file (config.yaml), with ${VAR} references expanded from the environment
//  2. Environment variables (fallback)
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Database  DatabaseConfig  `yaml:"database"`
	AutoMatch AutoMatchConfig `yaml:"automatch"`
	Scheduler SchedulerConfig `yaml:"scheduler"`
	Logging   LoggingConfig   `yaml:"logging"`
}

type ServerConfig struct {
	Port           string   `yaml:"port"`
	AllowedOrigins []string `yaml:"allowed_origins"`
}

type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Name     string `yaml:"name"`
	SSLMode  string `yaml:"sslmode"`
}

// AutoMatchConfig tunes a single auto-match run.
type AutoMatchConfig struct {
	BatchLimit int `yaml:"batch_limit"`
	Workers    int `yaml:"workers"`
}

// SchedulerConfig controls the background auto-match cadence.
type SchedulerConfig struct {
	Enabled      bool          `yaml:"enabled"`
	Interval     time.Duration `yaml:"interval"`
	Workers      int           `yaml:"workers"`
	QueueSize    int           `yaml:"queue_size"`
	RunOnStartup bool          `yaml:"run_on_startup"`
	UserID       string        `yaml:"user_id"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// DSN builds the postgres connection string.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.Name, d.SSLMode)
}

// Load reads and parses the config file. Missing values get the same
// defaults LoadFromEnv uses.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	expanded := os.ExpandEnv(string(data))

	cfg := defaults()
	if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return cfg, nil
}

// LoadFromEnv loads configuration from environment variables only.
func LoadFromEnv() *Config {
	cfg := defaults()

	cfg.Server.Port = getEnv("PORT", cfg.Server.Port)
	if origins := os.Getenv("CORS_ALLOWED_ORIGINS"); origins != "" {
		cfg.Server.AllowedOrigins = splitList(origins)
	}

	cfg.Database = DatabaseConfig{
		Host:     getEnv("DB_HOST", cfg.Database.Host),
		Port:     getEnvInt("DB_PORT", cfg.Database.Port),
		User:     getEnv("DB_USER", cfg.Database.User),
		Password: os.Getenv("DB_PASSWORD"),
		Name:     getEnv("DB_NAME", cfg.Database.Name),
		SSLMode:  getEnv("DB_SSLMODE", cfg.Database.SSLMode),
	}

	cfg.AutoMatch.BatchLimit = getEnvInt("AUTOMATCH_BATCH_LIMIT", cfg.AutoMatch.BatchLimit)
	cfg.AutoMatch.Workers = getEnvInt("AUTOMATCH_WORKERS", cfg.AutoMatch.Workers)

	cfg.Scheduler.Enabled = getBoolEnv("SCHEDULER_ENABLED", cfg.Scheduler.Enabled)
	cfg.Scheduler.Interval = getEnvDuration("SCHEDULER_INTERVAL", cfg.Scheduler.Interval)
	cfg.Scheduler.Workers = getEnvInt("SCHEDULER_WORKERS", cfg.Scheduler.Workers)
	cfg.Scheduler.QueueSize = getEnvInt("SCHEDULER_QUEUE_SIZE", cfg.Scheduler.QueueSize)
	cfg.Scheduler.RunOnStartup = getBoolEnv("SCHEDULER_RUN_ON_STARTUP", cfg.Scheduler.RunOnStartup)
	cfg.Scheduler.UserID = getEnv("SCHEDULER_USER_ID", cfg.Scheduler.UserID)

	cfg.Logging.Level = getEnv("LOG_LEVEL", cfg.Logging.Level)
	cfg.Logging.Format = getEnv("LOG_FORMAT", cfg.Logging.Format)

	return cfg
}

// LoadOrEnv tries to load from config.yaml, falls back to environment variables
func LoadOrEnv() *Config {
	return LoadOrEnvWithPath("config.yaml")
}

// LoadOrEnvWithPath tries to load from the given path, falls back to environment variables
func LoadOrEnvWithPath(path string) *Config {
	if cfg, err := Load(path); err == nil {
		return cfg
	}
	return LoadFromEnv()
}

func defaults() *Config {
	return &Config{
		Server: ServerConfig{
			Port:           "8080",
			AllowedOrigins: []string{"http://localhost:3000"},
		},
		Database: DatabaseConfig{
			Host:    "localhost",
			Port:    5432,
			User:    "postgres",
			Name:    "payments",
			SSLMode: "disable",
		},
		AutoMatch: AutoMatchConfig{
			BatchLimit: 200,
			Workers:    1,
		},
		Scheduler: SchedulerConfig{
			Interval:  15 * time.Minute,
			Workers:   2,
			QueueSize: 100,
			UserID:    "system",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		var result int
		if _, err := fmt.Sscanf(val, "%d", &result); err == nil {
			return result
		}
	}
	return fallback
}

func getBoolEnv(key string, fallback bool) bool {
	switch strings.ToLower(os.Getenv(key)) {
	case "1", "true", "yes":
		return true
	case "0", "false", "no":
		return false
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			return d
		}
	}
	return fallback
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
