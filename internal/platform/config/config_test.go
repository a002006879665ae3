package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"paycustom/internal/decision"
)

func TestFromEnvDefaults(t *testing.T) {
	for _, key := range []string{"PAYCUSTOM_ADDR", "DATABASE_URL", "REDIS_URL", "KAFKA_BROKERS", "DECISION_MATCH_STRATEGY", "REDIS_CACHE_TTL", "REDIS_BREAKER_COOLDOWN", "AUDIT_MEMORY_RETAIN"} {
		t.Setenv(key, "")
	}

	cfg, err := FromEnv()
	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.Addr)
	assert.Equal(t, "substring", cfg.Decision.MatchStrategy)
	assert.Empty(t, cfg.Postgres.URL)
	assert.Empty(t, cfg.Kafka.Brokers)
	assert.Equal(t, 5*time.Minute, cfg.Redis.CacheTTL)
	assert.Equal(t, 10*time.Second, cfg.Redis.BreakerCooldown)
	assert.Equal(t, 1024, cfg.Kafka.AuditRetain)
}

func TestFromEnvOverrides(t *testing.T) {
	t.Setenv("PAYCUSTOM_ADDR", ":9090")
	t.Setenv("DECISION_MATCH_STRATEGY", "exact")
	t.Setenv("KAFKA_BROKERS", "broker-1:9092, broker-2:9092,")
	t.Setenv("REDIS_CACHE_TTL", "30s")
	t.Setenv("HTTP_WRITE_TIMEOUT", "3s")

	cfg, err := FromEnv()
	require.NoError(t, err)
	assert.Equal(t, ":9090", cfg.Addr)
	assert.Equal(t, "exact", cfg.Decision.MatchStrategy)
	assert.Equal(t, []string{"broker-1:9092", "broker-2:9092"}, cfg.Kafka.Brokers)
	assert.Equal(t, 30*time.Second, cfg.Redis.CacheTTL)
	assert.Equal(t, 3*time.Second, cfg.HTTPWriteTimeout)
	assert.Zero(t, cfg.HTTPReadTimeout)
}

func TestFromEnvRejectsInvalidValues(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{name: "unknown strategy", key: "DECISION_MATCH_STRATEGY", value: "fuzzy"},
		{name: "bad duration", key: "REDIS_CACHE_TTL", value: "five minutes"},
		{name: "bad int", key: "REDIS_POOL_SIZE", value: "ten"},
		{name: "bad cooldown", key: "REDIS_BREAKER_COOLDOWN", value: "soon"},
		{name: "zero audit retention", key: "AUDIT_MEMORY_RETAIN", value: "0"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)
			_, err := FromEnv()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.key)
		})
	}
}

func TestValidateMatchStrategy(t *testing.T) {
	t.Setenv("DECISION_MATCH_STRATEGY", "")
	base, err := FromEnv()
	require.NoError(t, err)

	for _, name := range []string{decision.StrategySubstring, decision.StrategyExact, decision.StrategyCaseInsensitive, "Case_Insensitive", ""} {
		t.Run("accepts "+name, func(t *testing.T) {
			cfg := base
			cfg.Decision.MatchStrategy = name
			assert.NoError(t, cfg.Validate())
		})
	}

	cfg := base
	cfg.Decision.MatchStrategy = "levenshtein"
	err = cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "levenshtein")
}
