package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolve_Scenario(t *testing.T) {
	m := newTestMarket(t, 100_000, Options{InitialYes: 8000, FeeRate: 0.02})
	m.ledger.yesDeposits = 6000
	m.ledger.noDeposits = 4000
	m.ledger.totalFees = 150

	report, err := m.Resolve(SideYes)
	require.NoError(t, err)

	assert.Equal(t, SideYes, report.Outcome)
	assert.Equal(t, 8000.0, report.TotalPayout)
	assert.Equal(t, 2000.0, report.GrossPnL)
	assert.Equal(t, 2150.0, report.NetPnL)
	assert.Equal(t, 150.0, report.FeesCollected)
	assert.Zero(t, report.DeferredFee)
	assert.Greater(t, report.RiskUsedPct, 0.0)

	snap := m.Snapshot()
	assert.Equal(t, StateResolved, snap.State)
	assert.Equal(t, SideYes, snap.ResolvedOutcome)
}

func TestResolve_Twice(t *testing.T) {
	m := newTestMarket(t, 1000, Options{FeeRate: 0.02})
	_, err := m.Buy(SideNo, 120)
	require.NoError(t, err)

	first, err := m.Resolve(SideNo)
	require.NoError(t, err)

	_, err = m.Resolve(SideYes)
	assert.ErrorIs(t, err, ErrAlreadyResolved)
	assert.False(t, IsRejection(err))

	stored, ok := m.Settlement()
	require.True(t, ok)
	assert.Equal(t, first, stored)
	assert.Equal(t, SideNo, m.Snapshot().ResolvedOutcome)
}

func TestResolve_FreezesMarket(t *testing.T) {
	m := newTestMarket(t, 1000, Options{})
	_, err := m.Buy(SideYes, 100)
	require.NoError(t, err)
	_, err = m.Resolve(SideYes)
	require.NoError(t, err)
	frozen := m.Snapshot()

	_, err = m.Buy(SideYes, 1)
	assert.ErrorIs(t, err, ErrMarketResolved)
	_, err = m.Sell(SideYes, 1)
	assert.ErrorIs(t, err, ErrMarketResolved)

	q := m.Quote()
	assert.Zero(t, q.Yes.MaxBuy)
	assert.Zero(t, q.No.MaxSell)
	assert.Zero(t, m.MaxStake(SideNo))
	assert.Equal(t, frozen, m.Snapshot())
}

func TestResolve_FeeAtResolution(t *testing.T) {
	m := newTestMarket(t, 1000, Options{FeeRate: 0.02, FeeTiming: FeeAtResolution})
	order, err := m.Buy(SideYes, 200)
	require.NoError(t, err)
	assert.Zero(t, order.Fee)
	assert.InDelta(t, 200, m.Snapshot().YesDeposits, 1e-12)

	shares := m.Snapshot().QYes
	report, err := m.Resolve(SideYes)
	require.NoError(t, err)

	assert.InDelta(t, shares*0.02, report.DeferredFee, 1e-9)
	assert.InDelta(t, report.DeferredFee, report.FeesCollected, 1e-12)
	assert.InDelta(t, 200-shares, report.GrossPnL, 1e-9)
	// pnl = depósitos − (payout − fee)
	assert.InDelta(t, 200-(shares-shares*0.02), report.NetPnL, 1e-9)
}

func TestResolve_InvalidOutcome(t *testing.T) {
	m := newTestMarket(t, 1000, Options{})
	_, err := m.Resolve("")
	assert.ErrorIs(t, err, ErrInvalidSide)
	assert.Equal(t, StateOpen, m.State())
}

func TestSettlementReport_Summary(t *testing.T) {
	r := SettlementReport{
		Outcome:       SideNo,
		TotalDeposits: 10_000,
		TotalPayout:   8000,
		FeesCollected: 150,
		NetPnL:        2150,
	}
	s := r.Summary()
	assert.Contains(t, s, "RESOLVED: NO")
	assert.Contains(t, s, "$10000.00")
	assert.Contains(t, s, "MM Net P&L: $2150.00")
}
