package domain

import "time"

// Order es el registro inmutable de un trade aceptado.
//
// Convención de signos: en una compra Stake es lo que paga el usuario (fee
// incluido) y Shares las acciones recibidas; en una venta Stake es la salida
// bruta del pool (negativa) y Shares las acciones devueltas (negativas).
type Order struct {
	ID         string
	MarketID   string
	Side       Side
	Stake      float64
	Price      float64 // precio marginal del lado tras ejecutar
	Shares     float64 // expected cashout: shares a $1 si gana el lado
	Fee        float64
	ExecutedAt time.Time
}

// IsBuy devuelve true si la orden añadió shares al mercado.
func (o Order) IsBuy() bool {
	return o.Shares > 0
}

// ExpectedCashout es el nombre contractual de Shares.
func (o Order) ExpectedCashout() float64 {
	return o.Shares
}

// PoolFlow es el efectivo neto que entró (+) o salió (−) del pool, sin fees.
func (o Order) PoolFlow() float64 {
	if o.IsBuy() {
		return o.Stake - o.Fee
	}
	return o.Stake
}

// UserCash es el efectivo neto del usuario: −stake en compras, +payout neto en ventas.
func (o Order) UserCash() float64 {
	if o.IsBuy() {
		return -o.Stake
	}
	return -o.Stake - o.Fee
}

// SideQuote es la cotización de un lado del mercado.
type SideQuote struct {
	Price   float64
	Bid     float64 // precio al que el pool recompra, con fee
	Ask     float64 // precio al que el pool vende, con fee
	MaxBuy  float64 // stake máximo aceptado ahora
	MaxSell float64 // payout neto máximo: liquidar todas las shares del lado
}

// Quote es la cotización de ambos lados tomada sobre un snapshot consistente.
type Quote struct {
	MarketID string
	Yes      SideQuote
	No       SideQuote
}

// Of devuelve la cotización del lado dado.
func (q Quote) Of(side Side) SideQuote {
	if side == SideYes {
		return q.Yes
	}
	return q.No
}

// PnLSnapshot es la foto de riesgo y P&L del market maker (solo lectura).
type PnLSnapshot struct {
	TotalDeposits   float64
	WorstCasePayout float64
	UnrealizedPnL   float64 // depósitos − peor payout
	RealizedPnL     float64 // fees cobrados
	TotalPnL        float64
	RiskUsedPct     float64
}

// MarketSnapshot es una copia del estado del mercado.
type MarketSnapshot struct {
	ID                 string
	Name               string
	RiskCap            float64
	B                  float64
	QYes               float64
	QNo                float64
	FeeRate            float64
	SkewFactor         float64
	FeeTiming          FeeTiming
	TotalFees          float64
	YesDeposits        float64
	NoDeposits         float64
	ExpectedYesCashout float64
	ExpectedNoCashout  float64
	State              MarketState
	ResolvedOutcome    Side
	OrderCount         int
	CreatedAt          time.Time
}

// TotalDeposits es la suma de depósitos netos de ambos lados.
func (s MarketSnapshot) TotalDeposits() float64 {
	return s.YesDeposits + s.NoDeposits
}
