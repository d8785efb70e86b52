// Package config loads the application configuration from the environment.
//
// Variables are read with the CLASSROOM_ prefix, lowercased and split on "."
// so that CLASSROOM_SERVER.PORT ends up in Config.Server.Port. A `.env` file
// in the working directory is loaded first when present.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	_ "github.com/joho/godotenv/autoload"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/v2"
)

const envPrefix = "CLASSROOM_"

// Config is the root configuration object for the application.
//
// Optional blocks are filled by applyDefaults after unmarshalling, so the
// validator only guards what the process cannot start without.
type Config struct {
	Primary       Primary              `koanf:"primary" validate:"required"`
	Server        ServerConfig         `koanf:"server" validate:"required"`
	Database      DatabaseConfig       `koanf:"database" validate:"required"`
	Redis         RedisConfig          `koanf:"redis" validate:"required"`
	Auth          AuthConfig           `koanf:"auth" validate:"required"`
	Storage       StorageConfig        `koanf:"storage"`
	Integration   IntegrationConfig    `koanf:"integration"`
	RateLimit     RateLimitConfig      `koanf:"rate_limit"`
	App           AppConfig            `koanf:"app"`
	Observability *ObservabilityConfig `koanf:"observability"`
}

type Primary struct {
	Env string `koanf:"env" validate:"required"`
}

// ServerConfig timeouts are expressed in seconds.
type ServerConfig struct {
	Port               string   `koanf:"port" validate:"required"`
	ReadTimeout        int      `koanf:"read_timeout" validate:"required"`
	WriteTimeout       int      `koanf:"write_timeout" validate:"required"`
	IdleTimeout        int      `koanf:"idle_timeout" validate:"required"`
	CORSAllowedOrigins []string `koanf:"cors_allowed_origins" validate:"required"`
}

// DatabaseConfig contains PostgreSQL connection parameters and pool tuning.
type DatabaseConfig struct {
	Host            string `koanf:"host" validate:"required"`
	Port            int    `koanf:"port" validate:"required"`
	User            string `koanf:"user" validate:"required"`
	Password        string `koanf:"password"`
	Name            string `koanf:"name" validate:"required"`
	SSLMode         string `koanf:"ssl_mode" validate:"required"`
	MaxOpenConns    int    `koanf:"max_open_conns" validate:"required"`
	MaxIdleConns    int    `koanf:"max_idle_conns" validate:"required"`
	ConnMaxLifetime int    `koanf:"conn_max_lifetime" validate:"required"`
	ConnMaxIdleTime int    `koanf:"conn_max_idle_time" validate:"required"`
}

type RedisConfig struct {
	Address  string `koanf:"address" validate:"required"`
	Password string `koanf:"password"`
	DB       int    `koanf:"db"`
}

// AuthConfig holds the signing secret for access tokens and their lifetime.
type AuthConfig struct {
	SecretKey string        `koanf:"secret_key" validate:"required,min=32"`
	TokenTTL  time.Duration `koanf:"token_ttl"`
}

const (
	StorageDriverLocal = "local"
	StorageDriverB2    = "b2"
)

// StorageConfig selects the public disk uploads are written to.
type StorageConfig struct {
	Driver           string `koanf:"driver" validate:"omitempty,oneof=local b2"`
	Root             string `koanf:"root"`
	PublicURL        string `koanf:"public_url"`
	MaxUploadSize    int64  `koanf:"max_upload_size"`
	B2AccountID      string `koanf:"b2_account_id" validate:"required_if=Driver b2"`
	B2ApplicationKey string `koanf:"b2_application_key" validate:"required_if=Driver b2"`
	B2Bucket         string `koanf:"b2_bucket" validate:"required_if=Driver b2"`
}

// IntegrationConfig contains credentials of third-party services.
// An empty ResendAPIKey disables outgoing email.
type IntegrationConfig struct {
	ResendAPIKey string `koanf:"resend_api_key"`
	EmailFrom    string `koanf:"email_from"`
}

const (
	RateLimitStoreRedis  = "redis"
	RateLimitStoreMemory = "memory"
)

type RateLimitConfig struct {
	Store           string `koanf:"store" validate:"omitempty,oneof=redis memory"`
	GlobalPerMinute int    `koanf:"global_per_minute" validate:"gte=0"`
}

type AppConfig struct {
	BaseURL string `koanf:"base_url"`
	Version string `koanf:"version"`
}

// LoadConfig reads, validates and completes the configuration.
func LoadConfig() (*Config, error) {
	k := koanf.New(".")

	err := k.Load(env.Provider(envPrefix, ".", func(s string) string {
		return strings.ToLower(strings.TrimPrefix(s, envPrefix))
	}), nil)
	if err != nil {
		return nil, fmt.Errorf("could not load env variables: %w", err)
	}

	mainConfig := &Config{}
	if err := k.Unmarshal("", mainConfig); err != nil {
		return nil, fmt.Errorf("could not unmarshal config: %w", err)
	}

	if err := validator.New().Struct(mainConfig); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	mainConfig.applyDefaults()

	if err := mainConfig.Observability.Validate(); err != nil {
		return nil, fmt.Errorf("invalid observability config: %w", err)
	}

	return mainConfig, nil
}

func (c *Config) applyDefaults() {
	if c.Auth.TokenTTL <= 0 {
		c.Auth.TokenTTL = 24 * time.Hour
	}

	if c.Storage.Driver == "" {
		c.Storage.Driver = StorageDriverLocal
	}
	if c.Storage.Root == "" {
		c.Storage.Root = "storage/public"
	}
	if c.Storage.MaxUploadSize <= 0 {
		c.Storage.MaxUploadSize = 10 << 20
	}

	if c.Integration.EmailFrom == "" {
		c.Integration.EmailFrom = "Classroom <onboarding@resend.dev>"
	}

	if c.RateLimit.Store == "" {
		c.RateLimit.Store = RateLimitStoreRedis
	}
	if c.RateLimit.GlobalPerMinute == 0 {
		c.RateLimit.GlobalPerMinute = 300
	}

	if c.App.BaseURL == "" {
		c.App.BaseURL = "http://localhost:" + c.Server.Port
	}
	c.App.BaseURL = strings.TrimRight(c.App.BaseURL, "/")
	if c.App.Version == "" {
		c.App.Version = "1.0.0"
	}
	if c.Storage.PublicURL == "" && c.Storage.Driver == StorageDriverLocal {
		c.Storage.PublicURL = c.App.BaseURL + "/storage"
	}
	c.Storage.PublicURL = strings.TrimRight(c.Storage.PublicURL, "/")

	if c.Observability == nil {
		c.Observability = DefaultObservabilityConfig()
	}
	c.Observability.ServiceName = ServiceName
	c.Observability.Environment = c.Primary.Env
}

// IsLocal reports whether the process runs on a developer machine.
func (c *Config) IsLocal() bool {
	return c.Primary.Env == "local"
}
