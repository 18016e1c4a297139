package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"FXSentinel/internal/model"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("ALPHA_VANTAGE_KEY", "av-key")

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, DefaultPairs, cfg.Pairs)
	assert.Len(t, cfg.Pairs, 17)
	assert.Equal(t, "av-key", cfg.Provider.APIKey)
	assert.Equal(t, 13*time.Second, cfg.Provider.Pacing)
	assert.Equal(t, 60*time.Second, cfg.Provider.Timeout)
	assert.Equal(t, 2, cfg.Provider.MaxRetries)
	assert.Equal(t, 30, cfg.Indicators.DailyDepth)
	assert.Equal(t, 10, cfg.Indicators.TenDayWindow)
	assert.Equal(t, 20, cfg.Indicators.BandPeriod)
	assert.Equal(t, 2.0, cfg.Indicators.BandMult)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, "fxsentinel", cfg.Metrics.Job)
	assert.False(t, cfg.NotionEnabled())
	assert.False(t, cfg.TelegramEnabled())
}

func TestLoad_FileAndEnv(t *testing.T) {
	path := writeConfig(t, `
pairs: [eurusd, " gbpusd "]
provider:
  api_key: from-file
  pacing: 1s
indicators:
  band_period: 15
notion:
  token: secret
  database_id: db-1
schedule:
  cron: "0 0 */4 * * *"
log:
  format: console
`)
	t.Setenv("ALPHA_VANTAGE_KEY", "from-env")
	t.Setenv("LOG_LEVEL", "DEBUG")
	t.Setenv("RUN_ON_START", "true")

	cfg, err := Load(path)
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, []string{"EURUSD", "GBPUSD"}, cfg.Pairs)
	assert.Equal(t, "from-env", cfg.Provider.APIKey)
	assert.Equal(t, time.Second, cfg.Provider.Pacing)
	assert.Equal(t, 15, cfg.Indicators.BandPeriod)
	assert.Equal(t, "0 0 */4 * * *", cfg.Schedule.Cron)
	assert.True(t, cfg.Schedule.RunOnStart)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "console", cfg.Log.Format)
	assert.True(t, cfg.NotionEnabled())

	pairs, err := cfg.ParsedPairs()
	require.NoError(t, err)
	assert.Equal(t, []model.Pair{"EURUSD", "GBPUSD"}, pairs)
}

func TestLoad_PairsFromEnv(t *testing.T) {
	t.Setenv("ALPHA_VANTAGE_KEY", "k")
	t.Setenv("FX_PAIRS", "usdjpy, audnzd,,")

	cfg, err := Load(filepath.Join(t.TempDir(), "none.yaml"))
	require.NoError(t, err)
	assert.Equal(t, []string{"USDJPY", "AUDNZD"}, cfg.Pairs)
}

func TestLoad_BadYAML(t *testing.T) {
	_, err := Load(writeConfig(t, "pairs: [unterminated"))
	assert.ErrorContains(t, err, "parse config")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{"missing api key", func(c *Config) { c.Provider.APIKey = "" }, "provider.api_key is required"},
		{"duplicate pair", func(c *Config) { c.Pairs = []string{"EURUSD", "EURUSD"} }, "pairs must not contain duplicates"},
		{"short pair", func(c *Config) { c.Pairs = []string{"EURUS"} }, `six-letter currency pair, got "EURUS"`},
		{"digits in pair", func(c *Config) { c.Pairs = []string{"EUR123"} }, "six-letter currency pair"},
		{"no pairs", func(c *Config) { c.Pairs = []string{} }, "pairs"},
		{"depth below period", func(c *Config) { c.Indicators.DailyDepth = 19 }, "indicators.daily_depth must be at least"},
		{"notion token without db", func(c *Config) { c.Notion.Token = "t" }, "notion.database_id is required when token is set"},
		{"bad log level", func(c *Config) { c.Log.Level = "loud" }, "log.level must be one of"},
		{"bad pushgateway", func(c *Config) { c.Metrics.PushgatewayURL = "not a url" }, "metrics.pushgateway_url"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("ALPHA_VANTAGE_KEY", "k")
			cfg, err := Load(filepath.Join(t.TempDir(), "none.yaml"))
			require.NoError(t, err)

			tt.mutate(cfg)
			err = cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
