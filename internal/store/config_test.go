package store

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestDefaultConfig(t *testing.T) {
	c := DefaultConfig()

	assert.Equal(t, "stock_analysis_agent", c.App.Name)
	assert.Equal(t, "https://financialmodelingprep.com/stable/", c.FMP.BaseURL)
	assert.Equal(t, "FMP_API_KEY", c.FMP.APIKeyEnv)
	assert.Equal(t, 30*time.Second, c.FMPTimeout())
	assert.Equal(t, 24*time.Hour, c.EconomicCacheTTL())
	assert.Equal(t, 1024, c.FMP.EconomicCacheSize)
	assert.Equal(t, "gemini-2.5-flash", c.Models.Default)
	assert.Equal(t, "static", c.Models.Source)
	assert.Equal(t, "stock_agents", c.Firestore.Collection)
	assert.Equal(t, "stock_agents:models", c.Redis.Key)
	assert.Equal(t, "results", c.Results.BaseDir)
	assert.Equal(t, ":8080", c.Server.Addr)
	assert.NotEmpty(t, c.Prompts.SharedInstruction)
	assert.NoError(t, c.Validate())
}

func TestLoadConfigAppliesDefaults(t *testing.T) {
	path := writeConfig(t, `
models:
  source: redis
  static:
    hedge_fund_manager_agent: gemini-2.5-pro
results:
  base_dir: /tmp/out
`)
	c, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "redis", c.Models.Source)
	assert.Equal(t, "gemini-2.5-pro", c.Models.Static["hedge_fund_manager_agent"])
	assert.Equal(t, "/tmp/out", c.Results.BaseDir)
	assert.Equal(t, float64(5), c.FMP.RequestsPerSecond)
	assert.Equal(t, 3, c.FMP.EconomicLookbackYears)
}

func TestLoadConfigRejectsUnknownSource(t *testing.T) {
	path := writeConfig(t, "models:\n  source: etcd\n")
	_, err := LoadConfig(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "models.source")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr bool
	}{
		{"defaults", func(c *Config) {}, false},
		{"firestore source", func(c *Config) { c.Models.Source = "firestore" }, false},
		{"empty fmp url", func(c *Config) { c.FMP.BaseURL = "" }, true},
		{"empty search url", func(c *Config) { c.Web.SearchBaseURL = "" }, true},
		{"zero rate", func(c *Config) { c.FMP.RequestsPerSecond = 0 }, true},
		{"negative burst", func(c *Config) { c.FMP.Burst = -1 }, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := DefaultConfig()
			tt.mutate(c)
			err := c.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestLoadConfigMissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}
