package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

func TestLoadWithFile_Defaults(t *testing.T) {
	// Point at a path that does not exist; defaults apply.
	cfg, err := LoadWithFile(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "file", cfg.Storage.Backend)
	assert.NotEmpty(t, cfg.Storage.Path)
	assert.Equal(t, 30*time.Second, cfg.Scheduler.PollInterval)
	assert.Equal(t, 3, cfg.Scheduler.MaxAttempts)
	assert.Equal(t, time.Minute, cfg.Scheduler.BackoffBase)
	assert.Equal(t, 30*time.Minute, cfg.Scheduler.BackoffMax)
	assert.Equal(t, 587, cfg.Email.SMTPPort)
	assert.False(t, cfg.Email.Enabled)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "json", cfg.Logging.Format)
	assert.False(t, cfg.Telemetry.Enabled)
	assert.Equal(t, "localhost:4317", cfg.Telemetry.Endpoint)
	assert.Equal(t, "grpc", cfg.Telemetry.Protocol)
	assert.Equal(t, time.Minute, cfg.Telemetry.ExportInterval)
}

func TestLoadWithFile_YAML(t *testing.T) {
	path := writeConfig(t, `
storage:
  backend: redis
  redis_addr: localhost:6379
scheduler:
  poll_interval: 10s
  max_attempts: 5
email:
  enabled: true
  smtp_host: smtp.example.com
  from: taskd@example.com
sms:
  enabled: true
  phone_number: "5551234567"
  carrier: verizon
logging:
  level: debug
  format: console
`)

	cfg, err := LoadWithFile(path)
	require.NoError(t, err)

	assert.Equal(t, "redis", cfg.Storage.Backend)
	assert.Equal(t, "localhost:6379", cfg.Storage.RedisAddr)
	assert.Equal(t, 10*time.Second, cfg.Scheduler.PollInterval)
	assert.Equal(t, 5, cfg.Scheduler.MaxAttempts)
	assert.True(t, cfg.Email.Enabled)
	assert.Equal(t, "smtp.example.com", cfg.Email.SMTPHost)
	// To falls back to From when unset.
	assert.Equal(t, "taskd@example.com", cfg.Email.To)
	assert.Equal(t, "verizon", cfg.SMS.Carrier)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "console", cfg.Logging.Format)
}

func TestLoadWithFile_EnvOverridesFile(t *testing.T) {
	path := writeConfig(t, `
scheduler:
  poll_interval: 10s
logging:
  level: debug
`)

	t.Setenv("TASKD_SCHEDULER_POLL_INTERVAL", "2m")
	t.Setenv("TASKD_LOGGING_LEVEL", "warn")
	t.Setenv("TASKD_STORAGE_BACKEND", "redis")
	t.Setenv("TASKD_STORAGE_REDIS_ADDR", "redis.internal:6379")

	cfg, err := LoadWithFile(path)
	require.NoError(t, err)

	assert.Equal(t, 2*time.Minute, cfg.Scheduler.PollInterval)
	assert.Equal(t, "warn", cfg.Logging.Level)
	assert.Equal(t, "redis", cfg.Storage.Backend)
	assert.Equal(t, "redis.internal:6379", cfg.Storage.RedisAddr)
}

func TestLoadWithFile_MalformedYAML(t *testing.T) {
	path := writeConfig(t, "storage: [not: a: mapping")
	_, err := LoadWithFile(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to load config file")
}

func TestLoadWithFile_TooLarge(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	big := make([]byte, maxConfigFileSize+1)
	require.NoError(t, os.WriteFile(path, big, 0600))

	_, err := LoadWithFile(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "config file too large")
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		cfg := &Config{}
		applyDefaults(cfg)
		return cfg
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:   "defaults are valid",
			mutate: func(*Config) {},
		},
		{
			name:    "unknown backend",
			mutate:  func(c *Config) { c.Storage.Backend = "dynamo" },
			wantErr: "unknown storage backend",
		},
		{
			name: "redis backend requires addr",
			mutate: func(c *Config) {
				c.Storage.Backend = "redis"
			},
			wantErr: "storage.redis_addr is required",
		},
		{
			name:    "zero max attempts",
			mutate:  func(c *Config) { c.Scheduler.MaxAttempts = -1 },
			wantErr: "max_attempts must be at least 1",
		},
		{
			name: "backoff max below base",
			mutate: func(c *Config) {
				c.Scheduler.BackoffBase = time.Hour
				c.Scheduler.BackoffMax = time.Minute
			},
			wantErr: "backoff_max must be at least backoff_base",
		},
		{
			name: "email enabled without host",
			mutate: func(c *Config) {
				c.Email.Enabled = true
				c.Email.From = "a@b.c"
				c.Email.To = "a@b.c"
			},
			wantErr: "email.smtp_host",
		},
		{
			name: "sms without email",
			mutate: func(c *Config) {
				c.SMS.Enabled = true
				c.SMS.PhoneNumber = "555"
				c.SMS.Carrier = "att"
			},
			wantErr: "sms requires email",
		},
		{
			name: "sms without carrier",
			mutate: func(c *Config) {
				c.Email.Enabled = true
				c.Email.SMTPHost = "h"
				c.Email.From = "a@b.c"
				c.Email.To = "a@b.c"
				c.SMS.Enabled = true
				c.SMS.PhoneNumber = "555"
			},
			wantErr: "sms.phone_number and sms.carrier",
		},
		{
			name: "telemetry enabled without endpoint",
			mutate: func(c *Config) {
				c.Telemetry.Enabled = true
				c.Telemetry.Endpoint = ""
			},
			wantErr: "telemetry.endpoint is required",
		},
		{
			name:    "bad logging format",
			mutate:  func(c *Config) { c.Logging.Format = "xml" },
			wantErr: "unknown logging format",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
