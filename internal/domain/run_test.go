package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPosition_PnL(t *testing.T) {
	p := Position{UserID: "user_01", YesShares: 150, NoShares: 20, NetCash: -100}
	assert.Equal(t, 50.0, p.PnLIfYes())
	assert.Equal(t, -80.0, p.PnLIfNo())
	assert.Equal(t, 50.0, p.Settle(SideYes))
	assert.Equal(t, -80.0, p.Settle(SideNo))
}

func TestTopPositions(t *testing.T) {
	positions := []Position{
		{UserID: "a", YesShares: 10, NetCash: -5},
		{UserID: "b"}, // sin tenencia, se excluye
		{UserID: "c", YesShares: 100, NetCash: -40},
		{UserID: "d", NoShares: 30, NetCash: -10},
	}
	top := TopPositions(positions, 2)
	if assert.Len(t, top, 2) {
		assert.Equal(t, "c", top[0].UserID)
		assert.Equal(t, "a", top[1].UserID)
	}
	assert.Len(t, TopPositions(positions, 10), 3)
}

func TestRun_Totals(t *testing.T) {
	r := Run{Markets: []MarketResult{
		{Market: MarketSnapshot{OrderCount: 3}, Settlement: SettlementReport{NetPnL: 10}},
		{Market: MarketSnapshot{OrderCount: 4}, Settlement: SettlementReport{NetPnL: -2.5}},
	}}
	assert.Equal(t, 7, r.OrderCount())
	assert.Equal(t, 7.5, r.NetPnL())
}
