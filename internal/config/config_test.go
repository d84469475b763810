package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func chdirTemp(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })
	return dir
}

func TestLoadDefaults(t *testing.T) {
	chdirTemp(t)
	t.Setenv("PORT", "")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, "0.0.0.0:3001", cfg.Server.Addr)
	require.Equal(t, "sqlite", cfg.Database.Driver)
	require.Equal(t, "data/exercise.db", cfg.Database.Path)
	require.Equal(t, 60, cfg.Cache.TTLSeconds)
	require.Equal(t, "exercise.events", cfg.Events.Queue)
	require.Equal(t, "exercise-logs", cfg.Archive.KeyPrefix)
	require.Empty(t, cfg.Archive.Bucket)
}

func TestLoadEnvOverrides(t *testing.T) {
	chdirTemp(t)
	t.Setenv("EXERCISE_DATABASE_DRIVER", "memory")
	t.Setenv("EXERCISE_CACHE_REDIS_ADDR", "redis:6379")
	t.Setenv("EXERCISE_ARCHIVE_BUCKET", "logs")
	t.Setenv("PORT", "9000")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, "memory", cfg.Database.Driver)
	require.Equal(t, "redis:6379", cfg.Cache.RedisAddr)
	require.Equal(t, "logs", cfg.Archive.Bucket)
	require.Equal(t, "0.0.0.0:9000", cfg.Server.Addr)
}

func TestLoadRejectsUnknownDriver(t *testing.T) {
	chdirTemp(t)
	t.Setenv("EXERCISE_DATABASE_DRIVER", "mongo")

	_, err := Load()
	require.Error(t, err)
}

func TestLoadReadsDotEnv(t *testing.T) {
	dir := chdirTemp(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("# local\nEXERCISE_LOG_LEVEL=\"debug\"\n"), 0o600))
	t.Setenv("PORT", "")
	t.Cleanup(func() { _ = os.Unsetenv("EXERCISE_LOG_LEVEL") })

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, "debug", cfg.Log.Level)
}
