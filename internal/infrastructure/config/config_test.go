package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	originalEnv := map[string]string{
		"LEDGER_APP_NAME":                       os.Getenv("LEDGER_APP_NAME"),
		"LEDGER_APP_ENV":                        os.Getenv("LEDGER_APP_ENV"),
		"LEDGER_APP_PORT":                       os.Getenv("LEDGER_APP_PORT"),
		"LEDGER_DATABASE_HOST":                  os.Getenv("LEDGER_DATABASE_HOST"),
		"LEDGER_DATABASE_PORT":                  os.Getenv("LEDGER_DATABASE_PORT"),
		"LEDGER_DATABASE_USER":                  os.Getenv("LEDGER_DATABASE_USER"),
		"LEDGER_DATABASE_PASSWORD":              os.Getenv("LEDGER_DATABASE_PASSWORD"),
		"LEDGER_DATABASE_DBNAME":                os.Getenv("LEDGER_DATABASE_DBNAME"),
		"LEDGER_DATABASE_SSLMODE":               os.Getenv("LEDGER_DATABASE_SSLMODE"),
		"LEDGER_DATABASE_MAX_OPEN_CONNS":        os.Getenv("LEDGER_DATABASE_MAX_OPEN_CONNS"),
		"LEDGER_DATABASE_MAX_IDLE_CONNS":        os.Getenv("LEDGER_DATABASE_MAX_IDLE_CONNS"),
		"LEDGER_LEDGER_MAX_PAGE_SIZE":           os.Getenv("LEDGER_LEDGER_MAX_PAGE_SIZE"),
		"LEDGER_LEDGER_MAX_RETRIES":             os.Getenv("LEDGER_LEDGER_MAX_RETRIES"),
		"LEDGER_LEDGER_DEFAULT_ALLOW_OVERDRAFT": os.Getenv("LEDGER_LEDGER_DEFAULT_ALLOW_OVERDRAFT"),
		"LEDGER_LEDGER_IDEMPOTENCY_BACKEND":     os.Getenv("LEDGER_LEDGER_IDEMPOTENCY_BACKEND"),
		"LEDGER_LEDGER_IDEMPOTENCY_TTL":         os.Getenv("LEDGER_LEDGER_IDEMPOTENCY_TTL"),
	}

	defer func() {
		for k, v := range originalEnv {
			if v == "" {
				os.Unsetenv(k)
			} else {
				os.Setenv(k, v)
			}
		}
	}()

	clearEnv := func() {
		for k := range originalEnv {
			os.Unsetenv(k)
		}
	}

	t.Run("loads default values when env vars not set", func(t *testing.T) {
		clearEnv()

		cfg, err := Load()
		require.NoError(t, err)

		assert.Equal(t, "backoffice-ledger", cfg.App.Name)
		assert.Equal(t, "development", cfg.App.Env)
		assert.Equal(t, "8080", cfg.App.Port)
		assert.Equal(t, "localhost", cfg.Database.Host)
		assert.Equal(t, 5432, cfg.Database.Port)
		assert.Equal(t, "postgres", cfg.Database.User)
		assert.Equal(t, "backoffice", cfg.Database.DBName)
		assert.Equal(t, "disable", cfg.Database.SSLMode)
		assert.Equal(t, 25, cfg.Database.MaxOpenConns)
		assert.Equal(t, 5, cfg.Database.MaxIdleConns)
		assert.Equal(t, 100, cfg.Ledger.MaxPageSize)
		assert.Equal(t, 3, cfg.Ledger.MaxRetries)
		assert.False(t, cfg.Ledger.DefaultAllowOverdraft)
		assert.Equal(t, "memory", cfg.Ledger.IdempotencyBackend)
		assert.Equal(t, 24*time.Hour, cfg.Ledger.IdempotencyTTL)
	})

	t.Run("loads values from environment variables with LEDGER prefix", func(t *testing.T) {
		clearEnv()
		os.Setenv("LEDGER_APP_NAME", "test-app")
		os.Setenv("LEDGER_APP_ENV", "testing")
		os.Setenv("LEDGER_APP_PORT", "9000")
		os.Setenv("LEDGER_DATABASE_HOST", "testdb.local")
		os.Setenv("LEDGER_DATABASE_PORT", "5433")
		os.Setenv("LEDGER_DATABASE_USER", "testuser")
		os.Setenv("LEDGER_DATABASE_PASSWORD", "testpass")
		os.Setenv("LEDGER_DATABASE_DBNAME", "testdb")
		os.Setenv("LEDGER_DATABASE_SSLMODE", "require")
		os.Setenv("LEDGER_DATABASE_MAX_OPEN_CONNS", "50")
		os.Setenv("LEDGER_DATABASE_MAX_IDLE_CONNS", "10")
		os.Setenv("LEDGER_LEDGER_MAX_PAGE_SIZE", "250")
		os.Setenv("LEDGER_LEDGER_MAX_RETRIES", "5")
		os.Setenv("LEDGER_LEDGER_DEFAULT_ALLOW_OVERDRAFT", "true")
		os.Setenv("LEDGER_LEDGER_IDEMPOTENCY_BACKEND", "redis")
		os.Setenv("LEDGER_LEDGER_IDEMPOTENCY_TTL", "1h")

		cfg, err := Load()
		require.NoError(t, err)

		assert.Equal(t, "test-app", cfg.App.Name)
		assert.Equal(t, "testing", cfg.App.Env)
		assert.Equal(t, "9000", cfg.App.Port)
		assert.Equal(t, "testdb.local", cfg.Database.Host)
		assert.Equal(t, 5433, cfg.Database.Port)
		assert.Equal(t, "testuser", cfg.Database.User)
		assert.Equal(t, "testpass", cfg.Database.Password)
		assert.Equal(t, "testdb", cfg.Database.DBName)
		assert.Equal(t, "require", cfg.Database.SSLMode)
		assert.Equal(t, 50, cfg.Database.MaxOpenConns)
		assert.Equal(t, 10, cfg.Database.MaxIdleConns)
		assert.Equal(t, 250, cfg.Ledger.MaxPageSize)
		assert.Equal(t, 5, cfg.Ledger.MaxRetries)
		assert.True(t, cfg.Ledger.DefaultAllowOverdraft)
		assert.Equal(t, "redis", cfg.Ledger.IdempotencyBackend)
		assert.Equal(t, time.Hour, cfg.Ledger.IdempotencyTTL)
	})

	t.Run("validates MaxIdleConns cannot exceed MaxOpenConns", func(t *testing.T) {
		clearEnv()
		os.Setenv("LEDGER_DATABASE_MAX_OPEN_CONNS", "10")
		os.Setenv("LEDGER_DATABASE_MAX_IDLE_CONNS", "20")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "max_idle_conns")
		assert.Contains(t, err.Error(), "cannot exceed")
	})

	t.Run("zero MaxOpenConns uses default", func(t *testing.T) {
		clearEnv()
		os.Setenv("LEDGER_DATABASE_MAX_OPEN_CONNS", "0")

		cfg, err := Load()
		require.NoError(t, err)
		assert.Equal(t, 25, cfg.Database.MaxOpenConns)
	})

	t.Run("rejects unknown idempotency backend", func(t *testing.T) {
		clearEnv()
		os.Setenv("LEDGER_LEDGER_IDEMPOTENCY_BACKEND", "memcached")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "idempotency_backend")
	})
}

func TestLoad_ProductionValidation(t *testing.T) {
	originalEnv := map[string]string{
		"LEDGER_APP_ENV":           os.Getenv("LEDGER_APP_ENV"),
		"LEDGER_DATABASE_PASSWORD": os.Getenv("LEDGER_DATABASE_PASSWORD"),
		"LEDGER_DATABASE_SSLMODE":  os.Getenv("LEDGER_DATABASE_SSLMODE"),
	}

	defer func() {
		for k, v := range originalEnv {
			if v == "" {
				os.Unsetenv(k)
			} else {
				os.Setenv(k, v)
			}
		}
	}()

	clearEnv := func() {
		for k := range originalEnv {
			os.Unsetenv(k)
		}
	}

	t.Run("requires database.password in production", func(t *testing.T) {
		clearEnv()
		os.Setenv("LEDGER_APP_ENV", "production")
		os.Setenv("LEDGER_DATABASE_SSLMODE", "require")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "database.password is required in production")
	})

	t.Run("requires SSL enabled in production", func(t *testing.T) {
		clearEnv()
		os.Setenv("LEDGER_APP_ENV", "production")
		os.Setenv("LEDGER_DATABASE_PASSWORD", "secure-password")
		os.Setenv("LEDGER_DATABASE_SSLMODE", "disable")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "database.sslmode cannot be 'disable' in production")
	})

	t.Run("passes validation with valid production config", func(t *testing.T) {
		clearEnv()
		os.Setenv("LEDGER_APP_ENV", "production")
		os.Setenv("LEDGER_DATABASE_PASSWORD", "secure-password")
		os.Setenv("LEDGER_DATABASE_SSLMODE", "require")

		cfg, err := Load()
		require.NoError(t, err)
		assert.Equal(t, "production", cfg.App.Env)
	})
}

func TestDatabaseConfig_DSN(t *testing.T) {
	t.Run("generates valid DSN", func(t *testing.T) {
		cfg := DatabaseConfig{
			Host:     "localhost",
			Port:     5432,
			User:     "testuser",
			Password: "testpass",
			DBName:   "testdb",
			SSLMode:  "disable",
		}

		dsn := cfg.DSN()
		assert.Contains(t, dsn, "localhost")
		assert.Contains(t, dsn, "5432")
		assert.Contains(t, dsn, "testuser")
		assert.Contains(t, dsn, "testdb")
		assert.Contains(t, dsn, "sslmode=disable")
	})

	t.Run("escapes special characters in password", func(t *testing.T) {
		cfg := DatabaseConfig{
			Host:     "localhost",
			Port:     5432,
			User:     "user",
			Password: "pass@word#123",
			DBName:   "db",
			SSLMode:  "disable",
		}

		dsn := cfg.DSN()
		assert.Contains(t, dsn, "pass%40word%23123")
	})

	t.Run("handles empty password", func(t *testing.T) {
		cfg := DatabaseConfig{
			Host:     "localhost",
			Port:     5432,
			User:     "user",
			Password: "",
			DBName:   "db",
			SSLMode:  "disable",
		}

		dsn := cfg.DSN()
		assert.NotEmpty(t, dsn)
	})
}

func TestRedisConfig_Addr(t *testing.T) {
	cfg := RedisConfig{Host: "cache.local", Port: 6380}
	assert.Equal(t, "cache.local:6380", cfg.Addr())
}
