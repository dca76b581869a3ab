package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigFromEnvDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := ConfigFromEnv()
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
	assert.NoError(t, cfg.Validate())
}

func TestConfigFromEnvOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("STUDYLOOP_STORE", "Mongo")
	t.Setenv("STUDYLOOP_MONGO_URI", "mongodb://db:27017")
	t.Setenv("STUDYLOOP_MONGO_TRANSACTIONS", "true")
	t.Setenv("STUDYLOOP_HTTP_ADDR", "127.0.0.1:9000")
	t.Setenv("STUDYLOOP_CALL_TIMEOUT", "750ms")
	t.Setenv("STUDYLOOP_CORS_ORIGINS", "https://a.example, ,https://b.example")
	t.Setenv("STUDYLOOP_LOG_FORMAT", "JSON")

	cfg, err := ConfigFromEnv()
	require.NoError(t, err)
	assert.Equal(t, StoreMongo, cfg.Store)
	assert.Equal(t, "mongodb://db:27017", cfg.Mongo.URI)
	assert.True(t, cfg.Mongo.Transactions)
	assert.Equal(t, "127.0.0.1:9000", cfg.HTTP.Addr)
	assert.Equal(t, 750*time.Millisecond, cfg.CallTimeout)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.HTTP.CORSOrigins)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.NoError(t, cfg.Validate())
}

func TestConfigFromEnvBadDuration(t *testing.T) {
	t.Setenv("STUDYLOOP_CALL_TIMEOUT", "soon")
	_, err := ConfigFromEnv()
	assert.ErrorContains(t, err, "STUDYLOOP_CALL_TIMEOUT")
}

func TestConfigFromEnvBadTransactions(t *testing.T) {
	clearEnv(t)
	t.Setenv("STUDYLOOP_MONGO_TRANSACTIONS", "sometimes")
	_, err := ConfigFromEnv()
	assert.ErrorContains(t, err, "STUDYLOOP_MONGO_TRANSACTIONS")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		ok     bool
	}{
		{"defaults", func(*Config) {}, true},
		{"unknown store", func(c *Config) { c.Store = "redis" }, false},
		{"mongo without uri", func(c *Config) { c.Store = StoreMongo; c.Mongo.URI = "" }, false},
		{"zero timeout", func(c *Config) { c.CallTimeout = 0 }, false},
		{"bad log format", func(c *Config) { c.Log.Format = "xml" }, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.ok {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"STUDYLOOP_STORE", "STUDYLOOP_DB", "STUDYLOOP_MONGO_URI", "STUDYLOOP_MONGO_DATABASE", "STUDYLOOP_MONGO_TRANSACTIONS",
		"STUDYLOOP_HTTP_ADDR", "STUDYLOOP_CORS_ORIGINS", "STUDYLOOP_AMQP_URL", "STUDYLOOP_AMQP_EXCHANGE",
		"STUDYLOOP_LOG_LEVEL", "STUDYLOOP_LOG_FORMAT", "STUDYLOOP_CALL_TIMEOUT", "STUDYLOOP_SHUTDOWN_TIMEOUT",
	} {
		t.Setenv(k, "")
	}
}
