package config // package config loads application configuration from environment variables

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/iliyamo/gameforge-studio/internal/database"
)

// Storage drivers selectable with STORAGE_DRIVER.
const (
	DriverDatabase = "database"
	DriverMemory   = "memory"
)

const devSessionSecret = "gameforge-dev-secret"

// Config holds all runtime configuration values. Each field corresponds to
// an environment variable.
type Config struct {
	Env              string        // NODE_ENV: development, test or production
	Port             string        // HTTP port to listen on
	StorageDriver    string        // database or memory
	DatabaseURL      string        // connection URL for the database driver
	EnableSampleData bool          // seed fixtures outside development
	RetryAttempts    int           // storage attempts per operation
	RetryBaseDelay   time.Duration // first retry wait, doubled after each failure
	SessionSecret    string        // HMAC key for the session cookie
	SessionTTL       time.Duration // lifetime of a login session
	BcryptCost       int           // bcrypt cost for password hashing
	RabbitMQURL      string        // purchase events are disabled when empty
	LogLevel         string        // logrus level name

	Redis     RedisConfig
	Cache     CacheConfig
	RateLimit RateLimitConfig
}

// IsProduction reports whether NODE_ENV is production.
func (c Config) IsProduction() bool { return c.Env == "production" }

// SeedEnabled reports whether fixtures may be loaded into an empty database.
func (c Config) SeedEnabled() bool { return c.Env == "development" || c.EnableSampleData }

// Load reads configuration from the environment. Missing or malformed
// required values are reported as an error so the process can refuse to
// start.
func Load() (Config, error) {
	cfg := Config{
		Env:              envStr("NODE_ENV", "development"),
		Port:             envStr("PORT", "5000"),
		StorageDriver:    strings.ToLower(envStr("STORAGE_DRIVER", DriverDatabase)),
		DatabaseURL:      os.Getenv("DATABASE_URL"),
		EnableSampleData: envBool("ENABLE_SAMPLE_DATA", false),
		SessionSecret:    os.Getenv("SESSION_SECRET"),
		RabbitMQURL:      os.Getenv("RABBITMQ_URL"),
		LogLevel:         envStr("LOG_LEVEL", "info"),
		Redis:            LoadRedisConfig(),
		Cache:            LoadCacheConfig(),
		RateLimit:        LoadRateLimitConfig(),
	}

	var err error
	if cfg.RetryAttempts, err = intVar("DB_RETRY_ATTEMPTS", 3); err != nil {
		return Config{}, err
	}
	if cfg.RetryBaseDelay, err = durVar("DB_RETRY_BASE_DELAY", time.Second); err != nil {
		return Config{}, err
	}
	if cfg.SessionTTL, err = durVar("SESSION_TTL", 7*24*time.Hour); err != nil {
		return Config{}, err
	}
	if cfg.BcryptCost, err = intVar("BCRYPT_COST", 12); err != nil {
		return Config{}, err
	}

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	if cfg.SessionSecret == "" {
		cfg.SessionSecret = devSessionSecret
	}
	return cfg, nil
}

func (c Config) validate() error {
	switch c.StorageDriver {
	case DriverDatabase:
		if _, err := database.ParseURL(c.DatabaseURL); err != nil {
			return fmt.Errorf("config: %w", err)
		}
	case DriverMemory:
	default:
		return fmt.Errorf("config: STORAGE_DRIVER must be %q or %q, got %q", DriverDatabase, DriverMemory, c.StorageDriver)
	}
	if c.IsProduction() && c.SessionSecret == "" {
		return fmt.Errorf("config: SESSION_SECRET is required in production")
	}
	if c.RetryAttempts < 1 {
		return fmt.Errorf("config: DB_RETRY_ATTEMPTS must be at least 1")
	}
	if c.RetryBaseDelay < 0 {
		return fmt.Errorf("config: DB_RETRY_BASE_DELAY must not be negative")
	}
	if c.BcryptCost < 4 || c.BcryptCost > 31 {
		return fmt.Errorf("config: BCRYPT_COST must be between 4 and 31")
	}
	return nil
}

// intVar is like envInt but reports malformed values instead of ignoring
// them.
func intVar(key string, def int) (int, error) {
	s := os.Getenv(key)
	if s == "" {
		return def, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("config: invalid int for %s: %q", key, s)
	}
	return n, nil
}

func durVar(key string, def time.Duration) (time.Duration, error) {
	s := os.Getenv(key)
	if s == "" {
		return def, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("config: invalid duration for %s: %q", key, s)
	}
	return d, nil
}
