package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequiredEnv(t *testing.T) {
	t.Helper()

	vars := map[string]string{
		"CLASSROOM_PRIMARY.ENV":                   "local",
		"CLASSROOM_SERVER.PORT":                   "8080",
		"CLASSROOM_SERVER.READ_TIMEOUT":           "30",
		"CLASSROOM_SERVER.WRITE_TIMEOUT":          "30",
		"CLASSROOM_SERVER.IDLE_TIMEOUT":           "60",
		"CLASSROOM_SERVER.CORS_ALLOWED_ORIGINS":   "http://localhost:3000",
		"CLASSROOM_DATABASE.HOST":                 "localhost",
		"CLASSROOM_DATABASE.PORT":                 "5432",
		"CLASSROOM_DATABASE.USER":                 "postgres",
		"CLASSROOM_DATABASE.NAME":                 "classroom",
		"CLASSROOM_DATABASE.SSL_MODE":             "disable",
		"CLASSROOM_DATABASE.MAX_OPEN_CONNS":       "25",
		"CLASSROOM_DATABASE.MAX_IDLE_CONNS":       "25",
		"CLASSROOM_DATABASE.CONN_MAX_LIFETIME":    "300",
		"CLASSROOM_DATABASE.CONN_MAX_IDLE_TIME":   "300",
		"CLASSROOM_REDIS.ADDRESS":                 "localhost:6379",
		"CLASSROOM_AUTH.SECRET_KEY":               "0123456789abcdef0123456789abcdef",
	}
	for k, v := range vars {
		t.Setenv(k, v)
	}
}

func TestLoadConfig(t *testing.T) {
	t.Run("applies defaults to optional blocks", func(t *testing.T) {
		setRequiredEnv(t)

		cfg, err := LoadConfig()
		require.NoError(t, err)

		assert.Equal(t, "8080", cfg.Server.Port)
		assert.Equal(t, []string{"http://localhost:3000"}, cfg.Server.CORSAllowedOrigins)
		assert.Equal(t, 24*time.Hour, cfg.Auth.TokenTTL)
		assert.Equal(t, StorageDriverLocal, cfg.Storage.Driver)
		assert.Equal(t, "storage/public", cfg.Storage.Root)
		assert.Equal(t, int64(10<<20), cfg.Storage.MaxUploadSize)
		assert.Equal(t, "http://localhost:8080", cfg.App.BaseURL)
		assert.Equal(t, "http://localhost:8080/storage", cfg.Storage.PublicURL)
		assert.Equal(t, RateLimitStoreRedis, cfg.RateLimit.Store)
		assert.True(t, cfg.IsLocal())

		require.NotNil(t, cfg.Observability)
		assert.Equal(t, ServiceName, cfg.Observability.ServiceName)
		assert.Equal(t, "local", cfg.Observability.Environment)
	})

	t.Run("reads explicit values", func(t *testing.T) {
		setRequiredEnv(t)
		t.Setenv("CLASSROOM_AUTH.TOKEN_TTL", "2h")
		t.Setenv("CLASSROOM_APP.BASE_URL", "https://classroom.example.com/")
		t.Setenv("CLASSROOM_RATE_LIMIT.STORE", "memory")

		cfg, err := LoadConfig()
		require.NoError(t, err)

		assert.Equal(t, 2*time.Hour, cfg.Auth.TokenTTL)
		assert.Equal(t, "https://classroom.example.com", cfg.App.BaseURL)
		assert.Equal(t, RateLimitStoreMemory, cfg.RateLimit.Store)
	})

	t.Run("rejects a short secret", func(t *testing.T) {
		setRequiredEnv(t)
		t.Setenv("CLASSROOM_AUTH.SECRET_KEY", "short")

		_, err := LoadConfig()
		require.Error(t, err)
	})

	t.Run("requires b2 credentials for the b2 driver", func(t *testing.T) {
		setRequiredEnv(t)
		t.Setenv("CLASSROOM_STORAGE.DRIVER", "b2")

		_, err := LoadConfig()
		require.Error(t, err)
	})
}

func TestObservabilityConfig(t *testing.T) {
	cfg := DefaultObservabilityConfig()
	require.NoError(t, cfg.Validate())

	cfg.Logging.Level = "verbose"
	assert.Error(t, cfg.Validate())

	cfg.Logging.Level = ""
	cfg.Environment = "production"
	assert.Equal(t, "info", cfg.GetLogLevel())
	cfg.Environment = "local"
	assert.Equal(t, "debug", cfg.GetLogLevel())
}
