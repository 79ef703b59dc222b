package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/campusmatch/campusmatch/pkg/match"
)

// Config is the root configuration.
type Config struct {
	Database DatabaseConfig `yaml:"database"`
	Server   ServerConfig   `yaml:"server"`
	Schedule ScheduleConfig `yaml:"schedule"`
	Scoring  ScoringConfig  `yaml:"scoring"`
	Feeds    []FeedConfig   `yaml:"feeds"`
}

// DatabaseConfig configures SQLite storage.
type DatabaseConfig struct {
	Path string `yaml:"path"`
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	Port int `yaml:"port"`
}

// ScheduleConfig configures periodic feed imports and activity expiry.
type ScheduleConfig struct {
	ImportInterval string `yaml:"import_interval"`
	ExpireInterval string `yaml:"expire_interval"`
	MaxAgeDays     int    `yaml:"max_age_days"`
}

// ParseImportInterval returns the feed import interval as time.Duration.
func (s ScheduleConfig) ParseImportInterval() time.Duration {
	d, err := time.ParseDuration(s.ImportInterval)
	if err != nil {
		return time.Hour
	}
	return d
}

// ParseExpireInterval returns the expiry sweep interval as time.Duration.
func (s ScheduleConfig) ParseExpireInterval() time.Duration {
	d, err := time.ParseDuration(s.ExpireInterval)
	if err != nil {
		return 6 * time.Hour
	}
	return d
}

// ScoringConfig configures the recommendation engine.
type ScoringConfig struct {
	Weights        match.Weights `yaml:"weights"`
	CandidateLimit int           `yaml:"candidate_limit"`
	DefaultLimit   int           `yaml:"default_limit"`
}

// FeedConfig is a single campus event feed to import activities from.
type FeedConfig struct {
	Name      string `yaml:"name"`
	URL       string `yaml:"url"`
	OwnerID   int64  `yaml:"owner_id"`
	MaxPeople int    `yaml:"max_people"`
}

// Default returns a Config with sensible defaults.
func Default() *Config {
	return &Config{
		Database: DatabaseConfig{Path: "./campusmatch.db"},
		Server:   ServerConfig{Port: 8080},
		Schedule: ScheduleConfig{
			ImportInterval: "1h",
			ExpireInterval: "6h",
			MaxAgeDays:     60,
		},
		Scoring: ScoringConfig{
			Weights:        match.DefaultWeights(),
			CandidateLimit: 200,
			DefaultLimit:   10,
		},
	}
}

// Load reads configuration from a YAML file and applies env var overrides.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	applyEnvOverrides(cfg)
	return cfg, nil
}

// applyEnvOverrides overrides config values with environment variables.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("CAMPUSMATCH_DB_PATH"); v != "" {
		cfg.Database.Path = v
	}
	if v := os.Getenv("PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}
}
