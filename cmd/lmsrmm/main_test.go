package main

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"

	"github.com/alejandrodnm/lmsrmm/config"
	"github.com/alejandrodnm/lmsrmm/internal/adapters/notify"
	"github.com/alejandrodnm/lmsrmm/internal/application/simulation"
	"github.com/alejandrodnm/lmsrmm/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildSimulation_ModeDefaults(t *testing.T) {
	cfg := &config.Config{
		Market:     config.MarketConfig{Name: "x", RiskCap: 1000, FeeRate: 0.02, FeeTiming: "at_trade"},
		Simulation: config.SimulationConfig{Mode: "fill", Markets: 2, Seed: 5},
	}
	sc, err := buildSimulation(cfg)
	require.NoError(t, err)

	assert.Equal(t, simulation.ModeFill, sc.Mode)
	assert.Equal(t, 2, sc.Markets)
	assert.Equal(t, 25.0, sc.MinStake)
	assert.Equal(t, 500.0, sc.MaxStake)
	assert.Equal(t, int64(5), sc.Seed)
	assert.Equal(t, 0.02, sc.Options.FeeRate)
	assert.Empty(t, sc.Outcome)
}

func TestBuildSimulation_SkewForcesSkew(t *testing.T) {
	cfg := &config.Config{
		Market:     config.MarketConfig{RiskCap: 1000, FeeTiming: "at_resolution"},
		Simulation: config.SimulationConfig{Mode: "skew", Outcome: "yes", MaxStake: 800},
	}
	sc, err := buildSimulation(cfg)
	require.NoError(t, err)

	assert.True(t, sc.Options.SkewEnabled)
	assert.Equal(t, 0.01, sc.Options.SkewFactor)
	assert.Equal(t, domain.FeeAtResolution, sc.Options.FeeTiming)
	assert.Equal(t, domain.SideYes, sc.Outcome)
	assert.Equal(t, 800.0, sc.MaxStake)
	assert.NotZero(t, sc.Seed)
}

func TestBuildSimulation_Invalid(t *testing.T) {
	_, err := buildSimulation(&config.Config{Simulation: config.SimulationConfig{Mode: "nope"}})
	assert.Error(t, err)

	_, err = buildSimulation(&config.Config{
		Market:     config.MarketConfig{FeeTiming: "later"},
		Simulation: config.SimulationConfig{Mode: "users"},
	})
	assert.ErrorIs(t, err, domain.ErrInvalidConfig)
}

func TestRunSimulation_ThenReport(t *testing.T) {
	ctx := context.Background()
	cfg := &config.Config{
		Market:     config.MarketConfig{Name: "Will it rain tomorrow?", RiskCap: 1000, FeeRate: 0.02, FeeTiming: "at_trade"},
		Simulation: config.SimulationConfig{Mode: "fill", Markets: 1, Seed: 3, PrintHistory: true},
		Storage:    config.StorageConfig{DSN: filepath.Join(t.TempDir(), "journal.db")},
	}

	var buf bytes.Buffer
	require.NoError(t, runSimulation(ctx, cfg, notify.NewConsoleWriter(&buf, false, false), "test", false))

	buf.Reset()
	require.NoError(t, runReport(ctx, cfg, notify.NewConsoleWriter(&buf, false, false), 5))
	out := buf.String()
	assert.Contains(t, out, "fill")
	assert.Contains(t, out, "Order History")
}

func TestRunReport_StorageError(t *testing.T) {
	cfg := &config.Config{
		Storage: config.StorageConfig{DSN: filepath.Join(t.TempDir(), "missing", "journal.db")},
	}
	var buf bytes.Buffer
	err := runReport(context.Background(), cfg, notify.NewConsoleWriter(&buf, false, false), 5)
	assert.ErrorContains(t, err, "open storage")
	assert.Empty(t, buf.String())
}
