package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoad_ParsesSections(t *testing.T) {
	path := writeConfig(t, `
market:
  risk_cap: 5000
  fee_rate: 0.02
  fee_timing: at_resolution
  skew_enabled: true
  skew_factor: 0.05
  imbalance_limit: 0.2
simulation:
  mode: skew
  markets: 3
  trades: 120
  orders_per_second: 50
  seed: 7
storage:
  dsn: ":memory:"
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 5000.0, cfg.Market.RiskCap)
	assert.Equal(t, 0.02, cfg.Market.FeeRate)
	assert.Equal(t, "at_resolution", cfg.Market.FeeTiming)
	assert.True(t, cfg.Market.SkewEnabled)
	require.NotNil(t, cfg.Market.ImbalanceLimit)
	assert.Equal(t, 0.2, *cfg.Market.ImbalanceLimit)
	assert.Equal(t, "skew", cfg.Simulation.Mode)
	assert.Equal(t, 3, cfg.Simulation.Markets)
	assert.Equal(t, 120, cfg.Simulation.Trades)
	assert.Equal(t, 50.0, cfg.Simulation.OrdersPerSecond)
	assert.Equal(t, int64(7), cfg.Simulation.Seed)
	assert.Equal(t, ":memory:", cfg.Storage.DSN)
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, "{}"))
	require.NoError(t, err)

	assert.Equal(t, 100_000.0, cfg.Market.RiskCap)
	assert.Zero(t, cfg.Market.FeeRate)
	assert.Equal(t, "at_trade", cfg.Market.FeeTiming)
	assert.Nil(t, cfg.Market.ImbalanceLimit)
	assert.Equal(t, "users", cfg.Simulation.Mode)
	assert.Equal(t, 1, cfg.Simulation.Markets)
	assert.Equal(t, "lmsrmm.db", cfg.Storage.DSN)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "text", cfg.Log.Format)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("LMSR_DSN", "/tmp/other.db")
	t.Setenv("LMSR_SEED", "99")

	cfg, err := Load(writeConfig(t, "log:\n  level: warn\n"))
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "/tmp/other.db", cfg.Storage.DSN)
	assert.Equal(t, int64(99), cfg.Simulation.Seed)
}

func TestLoad_Errors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	_, err = Load(writeConfig(t, "market: [unclosed"))
	assert.Error(t, err)

	t.Setenv("LMSR_SEED", "not-a-number")
	_, err = Load(writeConfig(t, "{}"))
	assert.Error(t, err)
}

func TestLoad_RepoConfig(t *testing.T) {
	cfg, err := Load("config.yaml")
	require.NoError(t, err)
	assert.Equal(t, "users", cfg.Simulation.Mode)
	assert.Equal(t, 0.015, cfg.Market.FeeRate)
}
