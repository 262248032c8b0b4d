package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "config.yml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))

	return path
}

func TestLoad(t *testing.T) {
	t.Run("Defaults fill what the file leaves out", func(t *testing.T) {
		// Given: a config file with only the log level
		path := writeConfig(t, "log-level: debug\n")

		// When: loading it
		conf, err := Load(path)

		// Then: everything else takes its default
		require.NoError(t, err)
		assert.Equal(t, "debug", conf.LogLevel)
		assert.Equal(t, "9090", conf.HTTPPort)
		assert.Equal(t, 500*time.Millisecond, conf.AIMoveDelay)
		assert.Equal(t, SessionStoreMemory, conf.SessionStore)
		assert.Equal(t, 24*time.Hour, conf.SessionTTL)
		assert.Equal(t, "localhost:6379", conf.Redis.GetRedisAddr())
	})

	t.Run("File values are read", func(t *testing.T) {
		path := writeConfig(t, `
http-port: "8080"
ai-move-delay: 1s
session-store: redis
session-ttl: 30m
redis:
  host: cache
  port: "6380"
`)

		conf, err := Load(path)

		require.NoError(t, err)
		assert.Equal(t, "8080", conf.HTTPPort)
		assert.Equal(t, time.Second, conf.AIMoveDelay)
		assert.Equal(t, SessionStoreRedis, conf.SessionStore)
		assert.Equal(t, 30*time.Minute, conf.SessionTTL)
		assert.Equal(t, "cache:6380", conf.Redis.GetRedisAddr())
	})

	t.Run("Environment overrides the file", func(t *testing.T) {
		path := writeConfig(t, "http-port: \"8080\"\n")
		t.Setenv("HTTP_PORT", "7070")
		t.Setenv("AI_MOVE_DELAY", "0s")

		conf, err := Load(path)

		require.NoError(t, err)
		assert.Equal(t, "7070", conf.HTTPPort)
		assert.Zero(t, conf.AIMoveDelay)
	})

	t.Run("Unknown session store is rejected", func(t *testing.T) {
		path := writeConfig(t, "session-store: mongo\n")

		_, err := Load(path)

		require.ErrorIs(t, err, ErrUnknownSessionStore)
	})

	t.Run("Missing file", func(t *testing.T) {
		_, err := Load(filepath.Join(t.TempDir(), "nope.yml"))

		require.Error(t, err)
		assert.Contains(t, err.Error(), "unable to load config file")
	})

	t.Run("MustLoad panics on a bad file", func(t *testing.T) {
		path := writeConfig(t, "session-store: mongo\n")

		assert.Panics(t, func() { MustLoad(path) })
	})
}
