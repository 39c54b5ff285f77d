package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config holds all application configuration
type Config struct {
	Server      ServerConfig
	Log         LogConfig
	Archive     ArchiveConfig
	Ranking     RankingConfig
	Invites     InviteConfig
	Matches     MatchConfig
	RateLimit   RateLimitConfig
	Idempotency IdempotencyConfig
}

// ServerConfig holds HTTP server settings
type ServerConfig struct {
	Port            string        `env:"SERVER_PORT"             envDefault:"8080"`
	Env             string        `env:"SERVER_ENV"              envDefault:"development"`
	ReadTimeout     time.Duration `env:"SERVER_READ_TIMEOUT"     envDefault:"15s"`
	WriteTimeout    time.Duration `env:"SERVER_WRITE_TIMEOUT"    envDefault:"15s"`
	ShutdownTimeout time.Duration `env:"SERVER_SHUTDOWN_TIMEOUT" envDefault:"30s"`
	AllowedOrigins  []string      `env:"CORS_ALLOWED_ORIGINS"    envDefault:"http://localhost:3000" envSeparator:","`
}

// LogConfig controls the process logger
type LogConfig struct {
	Level  string `env:"LOG_LEVEL"  envDefault:"info"`
	Format string `env:"LOG_FORMAT" envDefault:"json"`
}

// ArchiveConfig holds the SurrealDB archive settings. The engine runs fully
// in memory; the archive only receives completed matches and ladder
// snapshots.
type ArchiveConfig struct {
	Enabled          bool          `env:"ARCHIVE_ENABLED"           envDefault:"false"`
	Host             string        `env:"DB_HOST"                   envDefault:"localhost"`
	Port             string        `env:"DB_PORT"                   envDefault:"8000"`
	Namespace        string        `env:"DB_NAMESPACE"              envDefault:"microarena"`
	Database         string        `env:"DB_DATABASE"               envDefault:"main"`
	User             string        `env:"DB_USER"                   envDefault:"root"`
	Password         string        `env:"DB_PASSWORD"               envDefault:"root"`
	SnapshotInterval time.Duration `env:"ARCHIVE_SNAPSHOT_INTERVAL" envDefault:"5m"`
}

// RankingConfig tunes the Elo model
type RankingConfig struct {
	InitialRating int  `env:"RANKING_INITIAL_RATING" envDefault:"1500"`
	KFactor       int  `env:"RANKING_K_FACTOR"       envDefault:"32"`
	RatingFloor   int  `env:"RANKING_RATING_FLOOR"   envDefault:"1000"`
	ArenaElo      bool `env:"RANKING_ARENA_ELO"      envDefault:"false"`
}

// InviteConfig holds clan invite settings
type InviteConfig struct {
	TTL time.Duration `env:"INVITES_TTL" envDefault:"168h"`
}

// MatchConfig holds match engine settings
type MatchConfig struct {
	// MinRankedIntegrity gates ranked clan play. Zero disables the gate.
	MinRankedIntegrity int `env:"MATCHES_MIN_RANKED_INTEGRITY" envDefault:"0"`
}

// RateLimitConfig holds per-caller rate limits
type RateLimitConfig struct {
	Enabled bool          `env:"RATE_LIMIT_ENABLED" envDefault:"true"`
	Rate    int           `env:"RATE_LIMIT_RATE"    envDefault:"100"`
	Window  time.Duration `env:"RATE_LIMIT_WINDOW"  envDefault:"1m"`
	Burst   int           `env:"RATE_LIMIT_BURST"   envDefault:"20"`
}

// IdempotencyConfig holds Idempotency-Key replay settings
type IdempotencyConfig struct {
	TTL time.Duration `env:"IDEMPOTENCY_TTL" envDefault:"24h"`
}

// Load reads configuration from environment variables with sensible defaults
func Load() (*Config, error) {
	var cfg Config
	if err := ParseEnv(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// ParseEnv fills target from environment variables.
func ParseEnv(target any) error {
	if err := env.Parse(target); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// IsDevelopment returns true if running in development mode
func (c *Config) IsDevelopment() bool {
	return c.Server.Env == "development"
}

// IsProduction returns true if running in production mode
func (c *Config) IsProduction() bool {
	return c.Server.Env == "production"
}

// SlogLevel returns the configured log level, defaulting to info.
func (c *Config) SlogLevel() slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.Log.Level)); err != nil {
		return slog.LevelInfo
	}
	return level
}

// Validate checks that all required configuration values are present and valid.
// It returns an error describing all validation failures, or nil if valid.
func (c *Config) Validate() error {
	var errs []error

	if c.Server.Port == "" {
		errs = append(errs, errors.New("SERVER_PORT is required"))
	}
	if c.Server.Env != "development" && c.Server.Env != "production" && c.Server.Env != "test" {
		errs = append(errs, fmt.Errorf("SERVER_ENV must be 'development', 'production', or 'test', got '%s'", c.Server.Env))
	}
	if len(c.Server.AllowedOrigins) == 0 {
		errs = append(errs, errors.New("CORS_ALLOWED_ORIGINS must have at least one origin"))
	}

	switch strings.ToLower(c.Log.Level) {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Errorf("LOG_LEVEL must be debug, info, warn or error, got '%s'", c.Log.Level))
	}
	if c.Log.Format != "json" && c.Log.Format != "text" {
		errs = append(errs, fmt.Errorf("LOG_FORMAT must be 'json' or 'text', got '%s'", c.Log.Format))
	}

	if c.Archive.Enabled {
		if err := c.Archive.Validate(); err != nil {
			errs = append(errs, fmt.Errorf("archive: %w", err))
		}
	}

	if c.Ranking.InitialRating <= 0 {
		errs = append(errs, errors.New("RANKING_INITIAL_RATING must be positive"))
	}
	if c.Ranking.KFactor <= 0 {
		errs = append(errs, errors.New("RANKING_K_FACTOR must be positive"))
	}
	if c.Ranking.RatingFloor < 0 || c.Ranking.RatingFloor > c.Ranking.InitialRating {
		errs = append(errs, errors.New("RANKING_RATING_FLOOR must be between 0 and RANKING_INITIAL_RATING"))
	}

	if c.Invites.TTL <= 0 {
		errs = append(errs, errors.New("INVITES_TTL must be positive"))
	}
	if c.Matches.MinRankedIntegrity < 0 || c.Matches.MinRankedIntegrity > 100 {
		errs = append(errs, errors.New("MATCHES_MIN_RANKED_INTEGRITY must be between 0 and 100"))
	}

	if c.RateLimit.Enabled {
		if c.RateLimit.Rate <= 0 {
			errs = append(errs, errors.New("RATE_LIMIT_RATE must be positive"))
		}
		if c.RateLimit.Window <= 0 {
			errs = append(errs, errors.New("RATE_LIMIT_WINDOW must be positive"))
		}
	}
	if c.Idempotency.TTL <= 0 {
		errs = append(errs, errors.New("IDEMPOTENCY_TTL must be positive"))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}

// Validate checks that all required archive fields are present
func (a ArchiveConfig) Validate() error {
	var missing []string
	if a.Host == "" {
		missing = append(missing, "DB_HOST")
	}
	if a.Port == "" {
		missing = append(missing, "DB_PORT")
	}
	if a.Namespace == "" {
		missing = append(missing, "DB_NAMESPACE")
	}
	if a.Database == "" {
		missing = append(missing, "DB_DATABASE")
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required fields: %s", strings.Join(missing, ", "))
	}
	if a.SnapshotInterval < time.Second {
		return errors.New("ARCHIVE_SNAPSHOT_INTERVAL must be at least 1s")
	}
	return nil
}
