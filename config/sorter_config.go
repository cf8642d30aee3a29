// Package config loads the sorter configuration from the environment.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"

	"sorter/core/service/classification"
	"sorter/pkg/apperr"
)

// Environment represents different deployment environments
type Environment string

const (
	EnvDevelopment Environment = "development"
	EnvProduction  Environment = "production"
)

// Config holds the configuration for the sorter. Every field maps to an
// environment variable without prefix.
type Config struct {
	Environment Environment `envconfig:"ENV" default:"development"`
	LogLevel    string      `envconfig:"LOG_LEVEL" default:"info"`
	Port        int         `envconfig:"PORT" default:"8080"`

	// Stores
	DatabaseURL    string `envconfig:"DATABASE_URL"`
	DBMaxConns     int    `envconfig:"DB_MAX_CONNS" default:"10"`
	RedisURL       string `envconfig:"REDIS_URL"`
	RedisStream    string `envconfig:"REDIS_STREAM" default:"contacts:categorized"`
	ChatDBPath     string `envconfig:"CHAT_DB_PATH"`
	AddressBookDir string `envconfig:"ADDRESS_BOOK_DIR"`
	ContactsFile   string `envconfig:"CONTACTS_FILE" default:"contacts.json"`

	// Classification
	RulesFile             string   `envconfig:"RULES_FILE"`
	HighSchoolGradYear    *int     `envconfig:"HIGH_SCHOOL_GRAD_YEAR"`
	CollegeGradYear       *int     `envconfig:"COLLEGE_GRAD_YEAR"`
	RecentMessageLimit    *int     `envconfig:"RECENT_MESSAGE_LIMIT"`
	EraAShareThreshold    *float64 `envconfig:"ERA_A_SHARE_THRESHOLD"`
	PostEraShareThreshold *float64 `envconfig:"POST_ERA_SHARE_THRESHOLD"`
	TierFallback          bool     `envconfig:"TIER_FALLBACK" default:"true"`

	// Batch
	Workers          int           `envconfig:"WORKERS" default:"4"`
	ScheduleInterval time.Duration `envconfig:"SCHEDULE_INTERVAL" default:"24h"`
	WriteMaxRetries  uint64        `envconfig:"WRITE_MAX_RETRIES" default:"3"`
}

// Load reads an optional .env file, then the environment.
func Load() (*Config, error) {
	_ = godotenv.Load()
	return FromEnv()
}

// FromEnv parses the environment without touching .env files.
func FromEnv() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, apperr.Wrap(err, apperr.CodeConfigError, "failed to process environment variables", 500)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks values envconfig cannot.
func (c *Config) Validate() error {
	var problems []string
	if c.Port <= 0 || c.Port > 65535 {
		problems = append(problems, fmt.Sprintf("PORT out of range: %d", c.Port))
	}
	if c.DBMaxConns <= 0 {
		problems = append(problems, "DB_MAX_CONNS must be positive")
	}
	if c.Workers <= 0 {
		problems = append(problems, "WORKERS must be positive")
	}
	if c.ScheduleInterval <= 0 {
		problems = append(problems, "SCHEDULE_INTERVAL must be positive")
	}
	if len(problems) > 0 {
		return apperr.ConfigError(strings.Join(problems, "; "))
	}
	return nil
}

// IsProduction reports whether ENV is production.
func (c *Config) IsProduction() bool {
	return c.Environment == EnvProduction
}

// Rules loads RULES_FILE over the defaults and applies the environment
// overrides on top.
func (c *Config) Rules() (*classification.Config, error) {
	rules, err := classification.LoadConfig(c.RulesFile)
	if err != nil {
		return nil, err
	}

	if c.HighSchoolGradYear != nil {
		rules.HighSchoolGradYear = *c.HighSchoolGradYear
	}
	if c.CollegeGradYear != nil {
		rules.CollegeGradYear = *c.CollegeGradYear
	}
	if c.RecentMessageLimit != nil {
		rules.RecentMessageLimit = *c.RecentMessageLimit
	}
	if c.EraAShareThreshold != nil {
		rules.EraAShareThreshold = *c.EraAShareThreshold
	}
	if c.PostEraShareThreshold != nil {
		rules.PostEraShareThreshold = *c.PostEraShareThreshold
	}

	if err := rules.Validate(); err != nil {
		return nil, err
	}
	return rules, nil
}
