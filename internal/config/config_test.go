package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg := Load()

	assert.Equal(t, "8084", cfg.Server.HTTPPort)
	assert.Equal(t, "learning", cfg.Mongo.Database)
	assert.Equal(t, "", cfg.Redis.Addr)
	assert.True(t, cfg.Learning.AllowRetake)
	assert.Equal(t, 30*time.Second, cfg.Server.ShutdownTimeout)
	require.NoError(t, cfg.Validate())
}

func TestLoad_FromEnvironment(t *testing.T) {
	t.Setenv("HTTP_PORT", "9000")
	t.Setenv("DPP_ALLOW_RETAKE", "false")
	t.Setenv("BUNNY_REQUESTS_PER_SECOND", "2.5")
	t.Setenv("CACHE_TTL", "90s")
	t.Setenv("STREAK_TIMEZONE", "Asia/Kolkata")

	cfg := Load()

	assert.Equal(t, "9000", cfg.Server.HTTPPort)
	assert.False(t, cfg.Learning.AllowRetake)
	assert.Equal(t, 2.5, cfg.Bunny.RequestsPerSecond)
	assert.Equal(t, 90*time.Second, cfg.Redis.TTL)
	assert.Equal(t, "Asia/Kolkata", cfg.StreakLocation().String())
}

func TestLoad_IgnoresMalformedValues(t *testing.T) {
	t.Setenv("REDIS_DB", "one")
	t.Setenv("SHUTDOWN_TIMEOUT", "soon")

	cfg := Load()

	assert.Equal(t, 0, cfg.Redis.DB)
	assert.Equal(t, 30*time.Second, cfg.Server.ShutdownTimeout)
}

func TestValidate_CollectsAllErrors(t *testing.T) {
	cfg := Load()
	cfg.Mongo.URI = ""
	cfg.Bunny.RequestsPerSecond = 0
	cfg.Bunny.LibraryID = "abc"
	cfg.Learning.StreakTimezone = "Mars/Olympus"
	cfg.Server.LogLevel = "loud"

	err := cfg.Validate()
	require.Error(t, err)
	for _, want := range []string{"MONGODB_URI", "BUNNY_REQUESTS_PER_SECOND", "BUNNY_LIBRARY_ID", "STREAK_TIMEZONE", "LOG_LEVEL"} {
		assert.Contains(t, err.Error(), want)
	}
}
