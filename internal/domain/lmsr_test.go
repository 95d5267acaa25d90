package domain

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLMSR_BaseCostIsBLn2(t *testing.T) {
	for _, riskCap := range []float64{1, 1000, 100_000, 1e9} {
		l := NewLMSR(riskCap)
		assert.Equal(t, l.B*math.Log(2), l.Cost(0, 0), "riskCap=%v", riskCap)
		assert.InDelta(t, riskCap, l.BaseCost(), riskCap*1e-12)
	}
}

func TestLMSR_CostStableForLargeInventory(t *testing.T) {
	l := NewLMSR(1000)
	// sin log-sum-exp, e^(q/b) desborda aquí
	c := l.Cost(1e7, 1e7-10)
	assert.False(t, math.IsInf(c, 0))
	assert.False(t, math.IsNaN(c))
	assert.Greater(t, c, 1e7)
}

func TestLMSR_RawPricesSumToOne(t *testing.T) {
	l := NewLMSR(1000)
	states := [][2]float64{
		{0, 0}, {10, 0}, {0, 10}, {500, 123}, {1e6, 0}, {0, 1e6}, {2000, 2000}, {1e-9, 3},
	}
	for _, s := range states {
		p := l.RawPrices(s[0], s[1])
		assert.InDelta(t, 1.0, p.Yes+p.No, 1e-12, "state=%v", s)
		assert.GreaterOrEqual(t, p.Yes, 0.0)
		assert.LessOrEqual(t, p.Yes, 1.0)
	}
}

func TestLMSR_PriceMovesTowardBoughtSide(t *testing.T) {
	l := NewLMSR(1000)
	assert.InDelta(t, 0.5, l.PriceYes(0, 0), 1e-15)
	assert.Greater(t, l.PriceYes(100, 0), 0.5)
	assert.Less(t, l.PriceYes(0, 100), 0.5)
}

func TestSkewedPrices_ClampedAndComplementary(t *testing.T) {
	l := NewLMSR(1000)
	tests := []struct {
		name      string
		qYes, qNo float64
		skew      float64
	}{
		{"empty inventory", 0, 0, 0.5},
		{"mild yes imbalance", 300, 100, 0.01},
		{"heavy yes imbalance", 5000, 0, 0.9},
		{"heavy no imbalance", 0, 5000, 0.9},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := l.SkewedPrices(tt.qYes, tt.qNo, tt.skew)
			assert.InDelta(t, 1.0, p.Yes+p.No, 1e-12)
			if tt.qYes+tt.qNo > 0 {
				assert.GreaterOrEqual(t, p.Yes, 0.01)
				assert.LessOrEqual(t, p.Yes, 0.99)
			}
		})
	}
}

func TestSkewedPrices_PenalizesOverexposedSide(t *testing.T) {
	l := NewLMSR(1000)
	raw := l.RawPrices(300, 100)
	skewed := l.SkewedPrices(300, 100, 0.1)
	// imbalance = 0.5 → YES baja 0.05
	assert.InDelta(t, raw.Yes-0.05, skewed.Yes, 1e-12)
	assert.Greater(t, skewed.No, raw.No)
}

func TestImbalance_ZeroWhenEmpty(t *testing.T) {
	assert.Equal(t, 0.0, Imbalance(0, 0))
	assert.InDelta(t, 1.0, Imbalance(10, 0), 1e-15)
	assert.InDelta(t, -0.5, Imbalance(25, 75), 1e-15)
}

func TestBidAsk(t *testing.T) {
	bid, ask := BidAsk(0.5, 0.02)
	assert.InDelta(t, 0.49, bid, 1e-12)
	assert.InDelta(t, 0.5/0.98, ask, 1e-12)

	bid, ask = BidAsk(0.995, 0.02)
	assert.Equal(t, 1.0, ask)
	assert.InDelta(t, 0.9751, bid, 1e-12)

	bid, ask = BidAsk(0.3, 0)
	assert.Equal(t, 0.3, bid)
	assert.Equal(t, 0.3, ask)
}

func TestMaxSymmetricDelta_EqualsRemainingRisk(t *testing.T) {
	// C es invariante por traslación: mover ambos lados dq sube el coste dq.
	l := NewLMSR(1000)
	for _, s := range [][2]float64{{0, 0}, {200, 50}, {0, 400}} {
		remaining := l.RemainingRisk(1000, s[0], s[1])
		dq := l.MaxSymmetricDelta(1000, s[0], s[1])
		assert.InDelta(t, remaining, dq, 1e-9, "state=%v", s)
	}
}

func TestMaxSymmetricDelta_ZeroWhenExhausted(t *testing.T) {
	l := NewLMSR(1000)
	assert.Equal(t, 0.0, l.MaxSymmetricDelta(1000, 3*l.B, 0))
}

func TestStakeForDelta_InvertsSharesForStake(t *testing.T) {
	l := NewLMSR(1000)
	for _, stake := range []float64{0.01, 1, 250, 5000} {
		dq := l.SharesForStake(stake, 0.37)
		assert.InDelta(t, stake, l.StakeForDelta(dq, 0.37), stake*1e-12)
	}
}

func TestSharesForCost_MatchesCostToBuy(t *testing.T) {
	l := NewLMSR(1000)
	for _, side := range []Side{SideYes, SideNo} {
		shares := l.SharesForCost(120, 40, 300, side)
		assert.InDelta(t, 300, l.CostToBuy(120, 40, shares, side), 1e-9)
	}
	assert.Equal(t, 0.0, l.SharesForCost(0, 0, 0, SideYes))
}

func TestSharesForProceeds_MatchesProceedsFromSell(t *testing.T) {
	l := NewLMSR(1000)
	dq := l.SharesForProceeds(800, 100, 250, SideYes)
	assert.InDelta(t, 250, l.ProceedsFromSell(800, 100, dq, SideYes), 1e-9)
	assert.Less(t, dq, 800.0)
}

func TestBracketBisect_UnreachableTargetStaysBounded(t *testing.T) {
	calls := 0
	x := bracketBisect(10, 1, func(float64) float64 {
		calls++
		return 0
	})
	assert.Equal(t, bracketIterations+bisectIterations, calls)
	assert.Greater(t, x, 1e17)
}
