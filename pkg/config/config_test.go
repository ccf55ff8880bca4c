package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("PORT", "")
	t.Setenv("STORY_TTL", "")
	t.Setenv("EVENTS_DRIVER", "")

	cfg := Load()
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, 24*time.Hour, cfg.StoryTTL)
	assert.Equal(t, "log", cfg.EventsDriver)
	assert.Equal(t, int64(10), cfg.FollowToggleLimit)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("STORY_TTL", "2h")
	t.Setenv("FOLLOW_TOGGLE_LIMIT", "3")
	t.Setenv("KAFKA_BROKERS", "a:9092, b:9092,")
	t.Setenv("STORAGE_PUBLIC_URL", "https://cdn.example.com/")
	t.Setenv("STORAGE_USE_SSL", "true")

	cfg := Load()
	assert.Equal(t, 2*time.Hour, cfg.StoryTTL)
	assert.Equal(t, int64(3), cfg.FollowToggleLimit)
	assert.Equal(t, []string{"a:9092", "b:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, "https://cdn.example.com", cfg.StoragePublicURL)
	assert.True(t, cfg.StorageUseSSL)
}

func TestLoadInvalidDurationFallsBack(t *testing.T) {
	t.Setenv("FOLLOW_CACHE_TTL", "soon")
	assert.Equal(t, 5*time.Minute, Load().FollowCacheTTL)
}

func validConfig(t *testing.T) *Config {
	t.Helper()
	t.Setenv("POSTGRES_CONN_STR", "postgres://x")
	t.Setenv("MONGO_URI", "mongodb://x")
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("WEBHOOK_SECRET", "whsec_x")
	return Load()
}

func TestValidate(t *testing.T) {
	cfg := &Config{EventsDriver: "log"}
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "POSTGRES_CONN_STR")
	assert.Contains(t, err.Error(), "WEBHOOK_SECRET")

	cfg = validConfig(t)
	cfg.EventsDriver = "carrier-pigeon"
	require.Error(t, cfg.Validate())

	cfg.EventsDriver = "nats"
	assert.NoError(t, cfg.Validate())
}

func TestValidateRejectsNonPositiveDurations(t *testing.T) {
	for _, value := range []string{"0s", "-5m"} {
		t.Run(value, func(t *testing.T) {
			t.Setenv("STORY_SWEEP_INTERVAL", value)
			t.Setenv("FOLLOW_TOGGLE_LIMIT", "0")
			err := validConfig(t).Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), "STORY_SWEEP_INTERVAL")
			assert.Contains(t, err.Error(), "FOLLOW_TOGGLE_LIMIT")
		})
	}
}
