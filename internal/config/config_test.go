package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoad_Defaults(t *testing.T) {
	for _, k := range []string{"APP_PORT", "TICKET_PROVIDERS", "CFP_SPLIT_PERCENT", "CLICK_LOG_CAPACITY", "UPSTREAM_TIMEOUT", "DB_USER", "DB_HOST", "DB_NAME", "TRUSTED_PROXIES"} {
		t.Setenv(k, "")
	}
	cfg := Load()

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, []string{"seatgeek", "stubhub"}, cfg.Providers)
	assert.Equal(t, 50, cfg.Experiment.SplitPercent)
	assert.Equal(t, 5000, cfg.ClickLogCapacity)
	assert.Equal(t, 10*time.Second, cfg.UpstreamTimeout)
	assert.False(t, cfg.DatabaseEnabled())
	assert.Empty(t, cfg.TrustedProxies)
}

func TestLoad_FromEnv(t *testing.T) {
	t.Setenv("APP_PORT", "9000")
	t.Setenv("TICKET_PROVIDERS", " stubhub , ")
	t.Setenv("CFP_SPLIT_PERCENT", "70")
	t.Setenv("CFP_BUCKET_MODE", "parity")
	t.Setenv("CLICK_LOG_CAPACITY", "-3")
	t.Setenv("UPSTREAM_TIMEOUT", "3s")
	t.Setenv("DB_USER", "root")
	t.Setenv("DB_HOST", "localhost")
	t.Setenv("DB_NAME", "cfp")
	t.Setenv("AMQP_URL", "amqp://broker/")
	t.Setenv("TRUSTED_PROXIES", "10.0.0.0/8, 192.0.2.7")

	cfg := Load()

	assert.Equal(t, "9000", cfg.Port)
	assert.Equal(t, []string{"stubhub"}, cfg.Providers)
	assert.Equal(t, 70, cfg.Experiment.SplitPercent)
	assert.Equal(t, "parity", cfg.Experiment.Mode)
	assert.Equal(t, 5000, cfg.ClickLogCapacity)
	assert.Equal(t, 3*time.Second, cfg.UpstreamTimeout)
	assert.Equal(t, "amqp://broker/", cfg.RabbitURL)
	assert.True(t, cfg.DatabaseEnabled())
	assert.Equal(t, []string{"10.0.0.0/8", "192.0.2.7"}, cfg.TrustedProxies)
}

func TestEnvHelpers(t *testing.T) {
	t.Setenv("X_BOOL", "off")
	t.Setenv("X_INT", "abc")
	t.Setenv("X_DUR", "nope")

	assert.False(t, envBool("X_BOOL", true))
	assert.Equal(t, 7, envInt("X_INT", 7))
	assert.Equal(t, time.Minute, envDur("X_DUR", time.Minute))
	assert.True(t, envBool("X_MISSING", true))
}

func TestLoadRateLimitConfig_Clamps(t *testing.T) {
	t.Setenv("RATE_LIMIT_CAPACITY", "0")
	t.Setenv("RATE_LIMIT_REFILL_INTERVAL", "1m")
	t.Setenv("RATE_LIMIT_TTL", "1s")

	rl := LoadRateLimitConfig()

	assert.Equal(t, 1, rl.Capacity)
	assert.Equal(t, 5*time.Minute, rl.TTL)
}

func TestLoadCacheConfig_Methods(t *testing.T) {
	t.Setenv("CACHE_METHODS", "get, head")
	cc := LoadCacheConfig()
	assert.True(t, cc.Methods["GET"])
	assert.True(t, cc.Methods["HEAD"])
	assert.False(t, cc.Methods["POST"])
}
