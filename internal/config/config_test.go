package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "config.yml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	return path
}

func TestLoad(t *testing.T) {
	t.Run("Applies defaults for missing keys", func(t *testing.T) {
		// Given: a config file with only the log level
		path := writeConfig(t, "log-level: debug\n")

		// When: loading it
		conf, err := Load(path)

		// Then: everything else falls back to defaults
		require.NoError(t, err)
		assert.Equal(t, ModeWeb, conf.Mode)
		assert.Equal(t, "9090", conf.HTTPPort)
		assert.Equal(t, "9091", conf.SocketPort)
		assert.Equal(t, DriverMemory, conf.Storage.Driver)
		assert.Equal(t, 30*time.Minute, conf.Storage.SessionTTL)
		assert.Equal(t, "localhost:6379", conf.Redis.GetRedisAddr())

		level, err := conf.Level()
		require.NoError(t, err)
		assert.Equal(t, slog.LevelDebug, level)
	})

	t.Run("Reads values from the file", func(t *testing.T) {
		path := writeConfig(t, `
mode: terminal
storage:
  driver: redis
  session-ttl: 5m
redis:
  host: cache
  port: "6380"
  db: 2
`)

		conf, err := Load(path)

		require.NoError(t, err)
		assert.Equal(t, ModeTerminal, conf.Mode)
		assert.Equal(t, DriverRedis, conf.Storage.Driver)
		assert.Equal(t, 5*time.Minute, conf.Storage.SessionTTL)
		assert.Equal(t, "cache:6380", conf.Redis.GetRedisAddr())
		assert.Equal(t, 2, conf.Redis.DB)
	})

	t.Run("Environment overrides the file", func(t *testing.T) {
		// Given: a file port and an env port
		path := writeConfig(t, "http-port: \"8000\"\n")
		t.Setenv("HTTP_PORT", "8100")

		// When: loading
		conf, err := Load(path)

		// Then: the env value wins
		require.NoError(t, err)
		assert.Equal(t, "8100", conf.HTTPPort)
	})

	t.Run("Rejects unknown mode", func(t *testing.T) {
		path := writeConfig(t, "mode: gui\n")

		_, err := Load(path)

		require.ErrorIs(t, err, ErrUnknownMode)
	})

	t.Run("Rejects unknown driver", func(t *testing.T) {
		path := writeConfig(t, "storage:\n  driver: sqlite\n")

		_, err := Load(path)

		require.ErrorIs(t, err, ErrUnknownDriver)
	})

	t.Run("Rejects unknown log level", func(t *testing.T) {
		path := writeConfig(t, "log-level: loud\n")

		_, err := Load(path)

		require.ErrorIs(t, err, ErrUnknownLogLevel)
	})

	t.Run("Missing file is an error", func(t *testing.T) {
		_, err := Load(filepath.Join(t.TempDir(), "absent.yml"))

		require.Error(t, err)
		assert.Panics(t, func() { MustLoad(filepath.Join(t.TempDir(), "absent.yml")) })
	})
}
