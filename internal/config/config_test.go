package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var envKeys = []string{
	"QUEUE_BACKEND",
	"JOB_QUEUE_NAME",
	"RESULT_QUEUE_NAME",
	"REDIS_URL",
	"RABBITMQ_URL",
	"DATABASE_URL",
	"AUTOMATION_ENGINE",
	"CHROME_PATH",
	"LOG_LEVEL",
	"LOG_FORMAT",
	"METRICS_ADDR",
	"APP_ENV",
	"PORT",
}

// clearEnv blanks every override so the host environment cannot leak into a test
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range envKeys {
		t.Setenv(key, "")
	}
}

func TestLoad(t *testing.T) {
	tests := []struct {
		name      string
		filePath  string
		wantErr   bool
		errString string
	}{
		{
			name:     "valid config file",
			filePath: "testdata/valid_config.yaml",
			wantErr:  false,
		},
		{
			name:      "non-existent file",
			filePath:  "testdata/nonexistent.yaml",
			wantErr:   true,
			errString: "failed to read config file",
		},
		{
			name:      "malformed yaml",
			filePath:  "testdata/malformed.yaml",
			wantErr:   true,
			errString: "failed to parse config file",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)

			cfg, err := Load(tt.filePath)

			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errString)
				assert.Nil(t, cfg)
			} else {
				require.NoError(t, err)
				require.NotNil(t, cfg)

				assert.Equal(t, 8081, cfg.Server.Port)
				assert.Equal(t, "rabbitmq", cfg.Queue.Backend)
				assert.Equal(t, "html-jobs", cfg.Queue.Name)
				assert.Equal(t, "html-jobs:results", cfg.Queue.ResultName)
				assert.Equal(t, "render_exchange", cfg.Queue.RabbitMQ.Exchange)
				assert.Equal(t, time.Second, cfg.Queue.RabbitMQ.Connection.RetryInterval)
				assert.Equal(t, "fallback", cfg.Automation.Engine)
				assert.Equal(t, "json", cfg.Logging.Format)
				assert.Equal(t, ":9100", cfg.Metrics.Address)

				// Values absent from the file keep their defaults
				assert.Equal(t, "redis://127.0.0.1:6379/0", cfg.Queue.Redis.URL)
				assert.True(t, cfg.Automation.Headless)
			}
		})
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "redis", cfg.Queue.Backend)
	assert.Equal(t, "render-jobs", cfg.Queue.Name)
	assert.Equal(t, "render-jobs:results", cfg.Queue.ResultName)
	assert.Equal(t, "redis://127.0.0.1:6379/0", cfg.Queue.Redis.URL)
	assert.Equal(t, "chromium", cfg.Automation.Engine)
	assert.Equal(t, "info", cfg.Logging.Level)
	require.NoError(t, cfg.ValidateWorkerConfig())
	require.NoError(t, cfg.ValidateAPIConfig())
}

func TestLoad_EnvOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("QUEUE_BACKEND", "memory")
	t.Setenv("JOB_QUEUE_NAME", "pdf-jobs")
	t.Setenv("REDIS_URL", "redis://cache:6379/2")
	t.Setenv("AUTOMATION_ENGINE", "fallback")
	t.Setenv("LOG_LEVEL", "warn")
	t.Setenv("PORT", "9000")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "memory", cfg.Queue.Backend)
	assert.Equal(t, "pdf-jobs", cfg.Queue.Name)
	assert.Equal(t, "pdf-jobs:results", cfg.Queue.ResultName, "result name derives from the overridden queue name")
	assert.Equal(t, "redis://cache:6379/2", cfg.Queue.Redis.URL)
	assert.Equal(t, "fallback", cfg.Automation.Engine)
	assert.Equal(t, "warn", cfg.Logging.Level)
	assert.Equal(t, 9000, cfg.Server.Port)
}

func TestLoad_ExplicitResultName(t *testing.T) {
	clearEnv(t)
	t.Setenv("RESULT_QUEUE_NAME", "rendered")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "rendered", cfg.Queue.ResultName)
}

func TestLoad_InvalidPort(t *testing.T) {
	clearEnv(t)
	t.Setenv("PORT", "eighty")

	cfg, err := Load("")
	require.Error(t, err)
	assert.Nil(t, cfg)
	assert.Contains(t, err.Error(), "invalid PORT")
}

func TestConfig_ValidateWorkerConfig(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(c *Config)
		wantErr   bool
		errString string
	}{
		{
			name:    "defaults are valid",
			mutate:  func(c *Config) {},
			wantErr: false,
		},
		{
			name:      "unknown backend",
			mutate:    func(c *Config) { c.Queue.Backend = "kafka" },
			wantErr:   true,
			errString: "unknown queue backend",
		},
		{
			name:      "missing queue name",
			mutate:    func(c *Config) { c.Queue.Name = "" },
			wantErr:   true,
			errString: "queue name is required",
		},
		{
			name:      "same pending and result names",
			mutate:    func(c *Config) { c.Queue.ResultName = c.Queue.Name },
			wantErr:   true,
			errString: "must differ",
		},
		{
			name:      "missing redis url",
			mutate:    func(c *Config) { c.Queue.Redis.URL = "" },
			wantErr:   true,
			errString: "redis url is required",
		},
		{
			name: "missing rabbitmq exchange",
			mutate: func(c *Config) {
				c.Queue.Backend = "rabbitmq"
				c.Queue.RabbitMQ.Exchange = ""
			},
			wantErr:   true,
			errString: "rabbitmq exchange name is required",
		},
		{
			name: "missing postgres url",
			mutate: func(c *Config) {
				c.Queue.Backend = "postgres"
				c.Queue.Postgres.URL = ""
			},
			wantErr:   true,
			errString: "postgres url is required",
		},
		{
			name:    "memory backend needs no connection",
			mutate:  func(c *Config) { c.Queue.Backend = "memory" },
			wantErr: false,
		},
		{
			name:      "unknown engine",
			mutate:    func(c *Config) { c.Automation.Engine = "webkit" },
			wantErr:   true,
			errString: "unknown automation engine",
		},
		{
			name: "metrics enabled without address",
			mutate: func(c *Config) {
				c.Metrics.Enabled = true
				c.Metrics.Address = ""
			},
			wantErr:   true,
			errString: "metrics address is required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			cfg.Queue.ResultName = "render-jobs:results"
			tt.mutate(cfg)

			err := cfg.ValidateWorkerConfig()

			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errString)
			} else {
				require.NoError(t, err)
			}
		})
	}
}

func TestConfig_ValidateAPIConfig(t *testing.T) {
	tests := []struct {
		name      string
		port      int
		wantErr   bool
		errString string
	}{
		{name: "valid port", port: 8080},
		{name: "invalid server port - too low", port: 0, wantErr: true, errString: "invalid server port"},
		{name: "invalid server port - too high", port: 70000, wantErr: true, errString: "invalid server port"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			cfg.Queue.ResultName = "render-jobs:results"
			cfg.Server.Port = tt.port

			err := cfg.ValidateAPIConfig()

			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errString)
			} else {
				require.NoError(t, err)
			}
		})
	}
}
