package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFromEnvDefaults(t *testing.T) {
	for _, k := range []string{"ADDR", "API_PREFIX", "LLM_PROVIDER", "LLM_ADVICE_MODEL", "LLM_ROUTE_MODEL", "ROUTE_CACHE_TTL", "MQTT_BROKER", "CACHE_TYPE"} {
		t.Setenv(k, "")
	}

	cfg := FromEnv()
	assert.Equal(t, DefaultAddr, cfg.Addr)
	assert.Equal(t, DefaultAPIPrefix, cfg.APIPrefix)
	assert.Equal(t, "gemini", cfg.LLM.Provider)
	assert.Equal(t, DefaultAdviceModel, cfg.LLM.AdviceModel)
	assert.Equal(t, DefaultRouteModel, cfg.LLM.RouteModel)
	assert.Equal(t, 10*time.Minute, cfg.RouteCacheTTL)
	assert.Equal(t, "local", cfg.Cache.Type)
	assert.Empty(t, cfg.MQTT.Broker)
	assert.Equal(t, DefaultMQTTTopic, cfg.MQTT.Topic)
}

func TestFromEnvOverrides(t *testing.T) {
	t.Setenv("ADDR", ":9999")
	t.Setenv("LLM_PROVIDER", "openai")
	t.Setenv("LLM_TIMEOUT", "5s")
	t.Setenv("REPORT_RETENTION", "72h")
	t.Setenv("LOG_MAX_SIZE", "12")
	t.Setenv("ROUTE_CACHE_TTL", "not-a-duration")

	cfg := FromEnv()
	assert.Equal(t, ":9999", cfg.Addr)
	assert.Equal(t, "openai", cfg.LLM.Provider)
	assert.Equal(t, 5*time.Second, cfg.LLM.Timeout)
	assert.Equal(t, 72*time.Hour, cfg.ReportRetention)
	assert.Equal(t, 12, cfg.Log.MaxSize)
	// unparsable values fall back to the default
	assert.Equal(t, 10*time.Minute, cfg.RouteCacheTTL)
}
