package domain

import (
	"fmt"
	"time"
)

// SettlementReport es el resultado terminal de resolver un mercado.
type SettlementReport struct {
	MarketID      string
	Outcome       Side
	TotalPayout   float64 // shares del lado ganador, a $1 cada una
	TotalDeposits float64
	FeesCollected float64 // incluye el fee diferido, si aplica
	DeferredFee   float64 // fee cobrado en la resolución (FeeAtResolution)
	GrossPnL      float64 // depósitos − payout
	NetPnL        float64 // GrossPnL + fees
	RiskUsedPct   float64
	ResolvedAt    time.Time
}

// Resolve liquida el mercado con el outcome dado. Es single-fire: una segunda
// llamada devuelve ErrAlreadyResolved y no altera el primer reporte.
func (m *Market) Resolve(outcome Side) (SettlementReport, error) {
	if !outcome.Valid() {
		return SettlementReport{}, ErrInvalidSide
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.state == StateResolved {
		return SettlementReport{}, fmt.Errorf("market %s resolved %s: %w", m.id, m.outcome, ErrAlreadyResolved)
	}

	payout := m.shares(outcome)
	var deferred float64
	if m.opts.FeeTiming == FeeAtResolution {
		deferred = payout * m.opts.FeeRate
		m.ledger.collectFee(deferred)
	}

	deposits := m.ledger.TotalDeposits()
	gross := deposits - payout
	report := SettlementReport{
		MarketID:      m.id,
		Outcome:       outcome,
		TotalPayout:   payout,
		TotalDeposits: deposits,
		FeesCollected: m.ledger.TotalFees(),
		DeferredFee:   deferred,
		GrossPnL:      gross,
		NetPnL:        gross + m.ledger.TotalFees(),
		RiskUsedPct:   m.riskUsedPct(),
		ResolvedAt:    m.opts.Clock().UTC(),
	}

	m.state = StateResolved
	m.outcome = outcome
	m.settlement = &report
	return report, nil
}

// Settlement devuelve el reporte de resolución, si existe.
func (m *Market) Settlement() (SettlementReport, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.settlement == nil {
		return SettlementReport{}, false
	}
	return *m.settlement, true
}

// State devuelve el estado actual del ciclo de vida.
func (m *Market) State() MarketState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Summary es el resumen de una línea por concepto, listo para consola o logs.
func (r SettlementReport) Summary() string {
	return fmt.Sprintf(
		"RESOLVED: %s\n- Total Deposits: $%.2f\n- Payout: $%.2f\n- Fees: $%.2f\n- MM Net P&L: $%.2f",
		r.Outcome, r.TotalDeposits, r.TotalPayout, r.FeesCollected, r.NetPnL,
	)
}
