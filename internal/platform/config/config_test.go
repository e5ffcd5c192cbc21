package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, DriverMemory, cfg.Database.Driver)
	assert.Equal(t, 3, cfg.Reconcile.MaxAttempts)
	assert.Equal(t, "identity.contacts", cfg.Kafka.Topic)
	assert.Empty(t, cfg.Kafka.Brokers)
	assert.Equal(t, []string{"*"}, cfg.CORS.AllowedOrigins, "any origin by default")
}

func TestEmptyCORSOriginsDisableCORS(t *testing.T) {
	t.Setenv("RECON_CORS_ORIGINS", "")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Empty(t, cfg.CORS.AllowedOrigins)
}

func TestLoadFileThenEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "recon.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
server:
  addr: ":9090"
database:
  driver: sqlite
  sqlite_path: /tmp/recon.db
reconcile:
  max_attempts: 5
  tx_timeout: 2s
kafka:
  brokers: ["localhost:9092"]
log:
  format: text
`), 0o600))

	t.Setenv("RECON_ADDR", ":7070")
	t.Setenv("RECON_CORS_ORIGINS", "https://a.example, https://b.example")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, ":7070", cfg.Server.Addr, "env wins over file")
	assert.Equal(t, DriverSQLite, cfg.Database.Driver)
	assert.Equal(t, 5, cfg.Reconcile.MaxAttempts)
	assert.Equal(t, 2*time.Second, cfg.Reconcile.TxTimeout)
	assert.Equal(t, []string{"localhost:9092"}, cfg.Kafka.Brokers)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORS.AllowedOrigins)
	assert.Equal(t, "text", cfg.Log.Format)
	assert.Equal(t, 30*time.Second, cfg.Server.RequestTimeout, "untouched defaults survive")
}

func TestLoadRejectsBadEnv(t *testing.T) {
	t.Setenv("RECON_MAX_ATTEMPTS", "many")

	_, err := Load("")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "RECON_MAX_ATTEMPTS")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		errMsg string
	}{
		{"postgres without url", func(c *Config) { c.Database.Driver = DriverPostgres }, "database.url"},
		{"unknown driver", func(c *Config) { c.Database.Driver = "oracle" }, "unknown database.driver"},
		{"zero attempts", func(c *Config) { c.Reconcile.MaxAttempts = 0 }, "max_attempts"},
		{"rate limit without window", func(c *Config) { c.RateLimit.Window = 0 }, "rate_limit"},
		{"brokers without topic", func(c *Config) {
			c.Kafka.Brokers = []string{"k:9092"}
			c.Kafka.Topic = ""
		}, "kafka.topic"},
		{"bad log format", func(c *Config) { c.Log.Format = "xml" }, "log.format"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}

	cfg := Default()
	cfg.RateLimit.Enabled = false
	cfg.RateLimit.Window = 0
	assert.NoError(t, cfg.Validate(), "disabled rate limiting needs no window")
}
