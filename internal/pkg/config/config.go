package config

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sethvargo/go-envconfig"

	"github.com/cartas/cartas-api/internal/core/domain"
)

const (
	EnvDevelopment = "development"

	StoreMongo  = "mongo"
	StoreMemory = "memory"
)

type Config struct {
	Port       string        `env:"PORT,        default=8080"`
	Env        string        `env:"ENV,         default=development"`
	LogLevel   string        `env:"LOG_LEVEL,   default=info"`
	Store      string        `env:"STORE,       default=mongo"`
	SessionTTL time.Duration `env:"SESSION_TTL, default=24h"`

	Auth  AuthConfig
	Mongo MongoConfig
	Redis RedisConfig
}

// AuthConfig holds the process-wide secrets. They are read once and passed
// to the services that need them.
type AuthConfig struct {
	JWTSecret string `env:"JWT_SECRET"`
	User1Hash string `env:"USER_1_PASSWORD_HASH"`
	User2Hash string `env:"USER_2_PASSWORD_HASH"`
}

type MongoConfig struct {
	URI      string `env:"MONGO_URI, default=mongodb://localhost:27017"`
	Database string `env:"MONGO_DB,  default=cartas"`
}

type RedisConfig struct {
	// Addr empty disables Idempotency-Key support.
	Addr string `env:"REDIS_ADDR"`
	DB   int    `env:"REDIS_DB, default=0"`
}

// Load reads configuration from environment variables using go-envconfig.
func Load(ctx context.Context) (*Config, error) {
	return load(ctx, envconfig.OsLookuper())
}

func load(ctx context.Context, l envconfig.Lookuper) (*Config, error) {
	var cfg Config
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{Target: &cfg, Lookuper: l}); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return &cfg, nil
}

// IsDevelopment reports whether the service runs locally. It controls the
// Secure cookie flag and pretty logging.
func (c *Config) IsDevelopment() bool {
	return c.Env == EnvDevelopment
}

// Validate reports fatal problems. Missing password hashes are not fatal:
// see Warnings.
func (c *Config) Validate() error {
	var errs []error
	if c.Auth.JWTSecret == "" {
		errs = append(errs, fmt.Errorf("%w: JWT_SECRET is required", domain.ErrConfiguration))
	}
	if c.Store != StoreMongo && c.Store != StoreMemory {
		errs = append(errs, fmt.Errorf("%w: STORE must be %q or %q, got %q", domain.ErrConfiguration, StoreMongo, StoreMemory, c.Store))
	}
	if c.SessionTTL <= 0 {
		errs = append(errs, fmt.Errorf("%w: SESSION_TTL must be positive", domain.ErrConfiguration))
	}
	return errors.Join(errs...)
}

// Warnings lists operational problems that leave the service running but
// degrade it. Login answers 500 until both hashes are set.
func (c *Config) Warnings() []string {
	var w []string
	if c.Auth.User1Hash == "" {
		w = append(w, "USER_1_PASSWORD_HASH is not set; login is disabled")
	}
	if c.Auth.User2Hash == "" {
		w = append(w, "USER_2_PASSWORD_HASH is not set; login is disabled")
	}
	return w
}

// InsecureCookieNotice is non-empty when session cookies are served without
// the Secure flag. ENV defaults to development, so an unset ENV lands here.
func (c *Config) InsecureCookieNotice() string {
	if !c.IsDevelopment() {
		return ""
	}
	return "ENV=development: session cookies are sent without Secure; set ENV=production when serving over HTTPS"
}
