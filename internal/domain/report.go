package domain

import "math"

// RiskReport es la vista del market maker "si se resolviera ahora".
type RiskReport struct {
	Market          MarketSnapshot
	Quote           Quote
	WorstCasePayout float64
	BestCasePayout  float64
	WorstCaseSide   Side // lado cuyo triunfo produce el peor payout
	PnLIfYes        float64
	PnLIfNo         float64
	ExpectedPnL     float64 // ponderado por el mid de YES
	RiskUsedPct     float64
}

// RiskReport construye el reporte sobre un único snapshot consistente.
func (m *Market) RiskReport() RiskReport {
	m.mu.Lock()
	defer m.mu.Unlock()
	return BuildRiskReport(m.snapshot(), m.quote(), m.riskUsedPct())
}

// BuildRiskReport calcula las métricas del reporte a partir de snapshot y quote.
func BuildRiskReport(snap MarketSnapshot, q Quote, riskUsedPct float64) RiskReport {
	deposits := snap.TotalDeposits()
	worstSide := SideNo
	if snap.QYes > snap.QNo {
		worstSide = SideYes
	}
	mid := q.Yes.Bid + (q.Yes.Ask-q.Yes.Bid)/2
	return RiskReport{
		Market:          snap,
		Quote:           q,
		WorstCasePayout: math.Max(snap.QYes, snap.QNo),
		BestCasePayout:  math.Min(snap.QYes, snap.QNo),
		WorstCaseSide:   worstSide,
		PnLIfYes:        deposits - snap.QYes + snap.TotalFees,
		PnLIfNo:         deposits - snap.QNo + snap.TotalFees,
		ExpectedPnL:     deposits - (mid*snap.QYes + (1-mid)*snap.QNo) + snap.TotalFees,
		RiskUsedPct:     riskUsedPct,
	}
}
