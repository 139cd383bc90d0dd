package common

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfigFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestNewDefaultConfig_IsValid(t *testing.T) {
	config := NewDefaultConfig()

	require.NoError(t, config.Validate())
	assert.Equal(t, "AAPL", config.Market.ProbeSymbol)
	assert.Equal(t, 30, config.Market.HistoryDays)
	assert.Equal(t, 15*time.Second, config.Pacing.ProviderIntervals()["yahoo"])
	assert.Equal(t, 30*time.Second, config.Pacing.TenantInterval())
	assert.Equal(t, 20*time.Second, config.Market.RequestTimeoutDuration())
	assert.Equal(t, []string{"badger"}, config.Storage.EnabledBackends())
	assert.Equal(t, "demo_user_001", config.Demo.TenantID)
}

func TestLoadFromFiles_LaterFilesOverride(t *testing.T) {
	base := writeConfigFile(t, "base.toml", `
[market]
history_days = 60
probe_symbol = "MSFT"

[storage.filesystem]
enabled = true
path = "./out"
`)
	override := writeConfigFile(t, "override.toml", `
[market]
history_days = 10

[pacing.providers]
yahoo = "2s"
`)

	config, err := LoadFromFiles(base, override)
	require.NoError(t, err)

	assert.Equal(t, 10, config.Market.HistoryDays)
	assert.Equal(t, "MSFT", config.Market.ProbeSymbol)
	assert.True(t, config.Storage.Filesystem.Enabled)
	assert.Equal(t, 2*time.Second, config.Pacing.ProviderIntervals()["yahoo"])
	assert.Equal(t, []string{"badger", "filesystem"}, config.Storage.EnabledBackends())
}

func TestLoadFromFiles_MissingFile(t *testing.T) {
	_, err := LoadFromFiles(filepath.Join(t.TempDir(), "missing.toml"))
	assert.Error(t, err)
}

func TestLoadFromFiles_EnvOverrides(t *testing.T) {
	t.Setenv("EODHD_API_KEY", "secret")
	t.Setenv("HISTORY_DAYS", "45")
	t.Setenv("DEFAULT_TICKER", "SPY")
	t.Setenv("STORAGE_BUCKET", "reports-bucket")
	t.Setenv("ENABLE_OBJECT_UPLOAD", "true")
	t.Setenv("FOLIOGEN_LOG_OUTPUT", "stdout")

	config, err := LoadFromFiles()
	require.NoError(t, err)

	assert.True(t, config.Market.EODHD.Enabled)
	assert.Equal(t, "secret", config.Market.EODHD.APIKey)
	assert.Equal(t, 45, config.Market.HistoryDays)
	assert.Equal(t, "SPY", config.Market.ProbeSymbol)
	assert.True(t, config.Storage.S3.Enabled)
	assert.Equal(t, "reports-bucket", config.Storage.S3.Bucket)
	assert.Equal(t, "Informes", config.Storage.S3.Prefix)
	assert.Equal(t, []string{"stdout"}, config.Logging.Output)
}

func TestApplyFlagOverrides(t *testing.T) {
	config := NewDefaultConfig()
	ApplyFlagOverrides(config, "debug", "0 7 * * *")

	assert.Equal(t, "debug", config.Logging.Level)
	assert.True(t, config.Schedule.Enabled)
	assert.Equal(t, "0 7 * * *", config.Schedule.Cron)
	assert.NoError(t, config.Validate())
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"bad log level", func(c *Config) { c.Logging.Level = "chatty" }},
		{"bad tenant source", func(c *Config) { c.Tenants.Source = "postgres" }},
		{"yaml source without path", func(c *Config) { c.Tenants.Source = "yaml"; c.Tenants.YAMLPath = "" }},
		{"bad duration", func(c *Config) { c.Pacing.Providers["yahoo"] = "soon" }},
		{"bad timeout", func(c *Config) { c.Market.RequestTimeout = "20" }},
		{"zero history", func(c *Config) { c.Market.HistoryDays = 0 }},
		{"eodhd without key", func(c *Config) { c.Market.EODHD.Enabled = true }},
		{"s3 without bucket", func(c *Config) { c.Storage.S3.Enabled = true; c.Storage.S3.Bucket = "" }},
		{"bad cron", func(c *Config) { c.Schedule.Cron = "every day" }},
		{"schedule without cron", func(c *Config) { c.Schedule.Enabled = true; c.Schedule.Cron = "" }},
		{"unknown route", func(c *Config) { c.Market.Routes["quotes"] = []string{"yahoo"} }},
		{"empty route", func(c *Config) { c.Market.Routes["news"] = nil }},
		{"no storage", func(c *Config) { c.Storage.Badger.Enabled = false }},
		{"no demo symbols", func(c *Config) { c.Demo.Symbols = nil }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := NewDefaultConfig()
			tt.mutate(config)
			assert.Error(t, config.Validate())
		})
	}
}

func TestValidateSchedule(t *testing.T) {
	assert.NoError(t, ValidateSchedule("0 6 * * 1-5"))
	assert.NoError(t, ValidateSchedule("@daily"))
	assert.Error(t, ValidateSchedule("0 6 * *"))
}
