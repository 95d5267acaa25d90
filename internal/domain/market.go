package domain

import (
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/google/uuid"
)

// tolerancia relativa al risk cap para comparar pérdidas tras un trade
const lossTolerance = 1e-9

// tolerancia absoluta en shares para la convergencia del solver de ventas
const shareTolerance = 1e-9

// Options configura un mercado. Un solo engine cubre las tres variantes
// (sin fee, fee+buy/sell, fee+skew) según estos campos.
type Options struct {
	InitialYes float64
	InitialNo  float64
	FeeRate    float64 // fracción en [0, 1), ej. 0.02
	FeeTiming  FeeTiming

	SkewEnabled bool
	SkewFactor  float64 // ≥ 0, solo aplica con SkewEnabled

	// ImbalanceLimit bloquea compras del lado pesado cuando
	// |qy−qn|/(qy+qn) supera el límite. nil = sin límite.
	ImbalanceLimit *float64

	// Clock y NewID se pueden inyectar en tests.
	Clock func() time.Time
	NewID func() string
}

// Market es el agregado raíz: inventario LMSR, ledger y estado de resolución.
// Un único mutex serializa toda operación leer-decidir-mutar. Los métodos
// exportados toman el lock; los no exportados asumen que ya está tomado.
type Market struct {
	id        string
	name      string
	riskCap   float64
	lmsr      LMSR
	opts      Options
	createdAt time.Time

	mu         sync.Mutex
	qYes       float64
	qNo        float64
	ledger     Ledger
	state      MarketState
	outcome    Side
	settlement *SettlementReport
}

// NewMarket crea un mercado abierto. Devuelve ErrInvalidConfig si algún
// parámetro está fuera de rango.
func NewMarket(id, name string, riskCap float64, opts Options) (*Market, error) {
	if err := validateOptions(riskCap, opts); err != nil {
		return nil, fmt.Errorf("domain.NewMarket %s: %w", id, err)
	}
	timing, err := ParseFeeTiming(string(opts.FeeTiming))
	if err != nil {
		return nil, fmt.Errorf("domain.NewMarket %s: %w", id, err)
	}
	opts.FeeTiming = timing
	if !opts.SkewEnabled {
		opts.SkewFactor = 0
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	if opts.NewID == nil {
		opts.NewID = func() string { return uuid.New().String() }
	}
	if id == "" {
		id = opts.NewID()
	}
	return &Market{
		id:        id,
		name:      name,
		riskCap:   riskCap,
		lmsr:      NewLMSR(riskCap),
		opts:      opts,
		createdAt: opts.Clock().UTC(),
		qYes:      opts.InitialYes,
		qNo:       opts.InitialNo,
		state:     StateOpen,
	}, nil
}

func validateOptions(riskCap float64, o Options) error {
	switch {
	case !(riskCap > 0) || math.IsInf(riskCap, 0):
		return fmt.Errorf("risk cap %v: %w", riskCap, ErrInvalidConfig)
	case !finiteNonNegative(o.InitialYes) || !finiteNonNegative(o.InitialNo):
		return fmt.Errorf("initial shares (%v, %v): %w", o.InitialYes, o.InitialNo, ErrInvalidConfig)
	case !(o.FeeRate >= 0 && o.FeeRate < 1):
		return fmt.Errorf("fee rate %v: %w", o.FeeRate, ErrInvalidConfig)
	case !finiteNonNegative(o.SkewFactor):
		return fmt.Errorf("skew factor %v: %w", o.SkewFactor, ErrInvalidConfig)
	case o.ImbalanceLimit != nil && !(*o.ImbalanceLimit >= 0 && *o.ImbalanceLimit <= 1):
		return fmt.Errorf("imbalance limit %v: %w", *o.ImbalanceLimit, ErrInvalidConfig)
	}
	return nil
}

func finiteNonNegative(v float64) bool {
	return v >= 0 && !math.IsInf(v, 0)
}

// ID devuelve el identificador del mercado.
func (m *Market) ID() string { return m.id }

// Name devuelve la pregunta del mercado.
func (m *Market) Name() string { return m.name }

// RiskCap devuelve la pérdida máxima configurada.
func (m *Market) RiskCap() float64 { return m.riskCap }

// B devuelve el parámetro de liquidez.
func (m *Market) B() float64 { return m.lmsr.B }

// FeeRate devuelve la tasa de fee configurada.
func (m *Market) FeeRate() float64 { return m.opts.FeeRate }

// Cost evalúa la función de coste del mercado (sin estado).
func (m *Market) Cost(qYes, qNo float64) float64 { return m.lmsr.Cost(qYes, qNo) }

// Prices devuelve los precios actuales (con skew si está activado).
func (m *Market) Prices() Prices {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.prices()
}

// MaxStake devuelve el stake máximo que se aceptaría ahora para comprar side.
func (m *Market) MaxStake(side Side) float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state != StateOpen {
		return 0
	}
	return m.maxStake(side)
}

// Quote devuelve precios, bid/ask y tamaños máximos de ambos lados sobre el
// mismo snapshot, apto para una cotización firme.
func (m *Market) Quote() Quote {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.quote()
}

func (m *Market) quote() Quote {
	p := m.prices()
	q := Quote{MarketID: m.id}
	for _, side := range []Side{SideYes, SideNo} {
		sq := SideQuote{Price: p.Of(side)}
		sq.Bid, sq.Ask = BidAsk(sq.Price, m.tradeFeeRate())
		if m.state == StateOpen {
			sq.MaxBuy = m.maxStake(side)
			sq.MaxSell = m.maxSell(side)
		}
		if side == SideYes {
			q.Yes = sq
		} else {
			q.No = sq
		}
	}
	return q
}

// SharesForCost devuelve las shares de side que compraría un incremento de
// coste exacto de money (solo lectura).
func (m *Market) SharesForCost(side Side, money float64) float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lmsr.SharesForCost(m.qYes, m.qNo, money, side)
}

// PayoutForShares devuelve el payout neto (tras fee) de vender shares de side
// al estado actual. Falla con ErrInsufficientShares si el mercado no tiene
// tantas shares en circulación.
func (m *Market) PayoutForShares(side Side, shares float64) (float64, error) {
	if !side.Valid() {
		return 0, ErrInvalidSide
	}
	if !validAmount(shares) {
		return 0, ErrInvalidAmount
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	outstanding := m.shares(side)
	if shares > outstanding+shareTolerance {
		return 0, reject(m.id, ReasonInsufficientShare, side, shares, outstanding)
	}
	gross := m.lmsr.ProceedsFromSell(m.qYes, m.qNo, math.Min(shares, outstanding), side)
	return gross * (1 - m.tradeFeeRate()), nil
}

// Buy ejecuta una compra de side por stake (fee incluido). Valida todo antes
// de mutar: si devuelve error, el mercado no cambió.
func (m *Market) Buy(side Side, stake float64) (Order, error) {
	if !side.Valid() {
		return Order{}, ErrInvalidSide
	}
	if !validAmount(stake) {
		return Order{}, ErrInvalidAmount
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.state != StateOpen {
		return Order{}, fmt.Errorf("market %s: %w", m.id, ErrMarketResolved)
	}
	if m.lmsr.Loss(m.qYes, m.qNo) >= m.riskCap {
		return Order{}, reject(m.id, ReasonCapacityExhausted, side, stake, 0)
	}
	if m.blockedByImbalance(side) {
		return Order{}, reject(m.id, ReasonImbalanceLimit, side, stake, 0)
	}
	maxAllowed := m.maxStake(side)
	if !(stake <= maxAllowed) {
		return Order{}, reject(m.id, ReasonStakeExceedsMax, side, stake, maxAllowed)
	}

	fee := stake * m.tradeFeeRate()
	net := stake - fee
	delta := m.lmsr.SharesForStake(net, m.prices().Of(side))

	newYes, newNo := m.qYes, m.qNo
	if side == SideYes {
		newYes += delta
	} else {
		newNo += delta
	}
	if !(delta > 0) || !(m.lmsr.Loss(newYes, newNo) <= m.riskCap*(1+lossTolerance)) {
		return Order{}, reject(m.id, ReasonStakeExceedsMax, side, stake, maxAllowed)
	}

	m.qYes, m.qNo = newYes, newNo
	order := Order{
		ID:         m.opts.NewID(),
		MarketID:   m.id,
		Side:       side,
		Stake:      stake,
		Price:      m.prices().Of(side),
		Shares:     delta,
		Fee:        fee,
		ExecutedAt: m.opts.Clock().UTC(),
	}
	m.ledger.append(order)
	return order, nil
}

// Sell recompra shares de side de modo que el usuario reciba netPayout tras
// fees. El pool paga el bruto netPayout/(1−fee); las shares a devolver se
// resuelven con bracket-and-bisect. Sin shorting: si harían falta más shares
// de las que hay en circulación, se rechaza con ErrInsufficientShares.
func (m *Market) Sell(side Side, netPayout float64) (Order, error) {
	if !side.Valid() {
		return Order{}, ErrInvalidSide
	}
	if !validAmount(netPayout) {
		return Order{}, ErrInvalidAmount
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.state != StateOpen {
		return Order{}, fmt.Errorf("market %s: %w", m.id, ErrMarketResolved)
	}

	gross := netPayout / (1 - m.tradeFeeRate())
	fee := gross - netPayout
	outstanding := m.shares(side)
	if outstanding <= 0 {
		return Order{}, reject(m.id, ReasonInsufficientShare, side, netPayout, 0)
	}

	dq := m.lmsr.SharesForProceeds(m.qYes, m.qNo, gross, side)
	if dq > outstanding+shareTolerance {
		return Order{}, reject(m.id, ReasonInsufficientShare, side, dq, outstanding)
	}
	dq = math.Min(dq, outstanding)

	if side == SideYes {
		m.qYes -= dq
	} else {
		m.qNo -= dq
	}
	order := Order{
		ID:         m.opts.NewID(),
		MarketID:   m.id,
		Side:       side,
		Stake:      -gross,
		Price:      m.prices().Of(side),
		Shares:     -dq,
		Fee:        fee,
		ExecutedAt: m.opts.Clock().UTC(),
	}
	m.ledger.append(order)
	return order, nil
}

// PnLSnapshot devuelve depósitos, peor payout y P&L sin mutar el mercado.
func (m *Market) PnLSnapshot() PnLSnapshot {
	m.mu.Lock()
	defer m.mu.Unlock()

	deposits := m.ledger.TotalDeposits()
	worst := math.Max(m.qYes, m.qNo)
	unrealized := deposits - worst
	realized := m.ledger.TotalFees()
	return PnLSnapshot{
		TotalDeposits:   deposits,
		WorstCasePayout: worst,
		UnrealizedPnL:   unrealized,
		RealizedPnL:     realized,
		TotalPnL:        unrealized + realized,
		RiskUsedPct:     m.riskUsedPct(),
	}
}

// Snapshot devuelve una copia consistente del estado.
func (m *Market) Snapshot() MarketSnapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.snapshot()
}

func (m *Market) snapshot() MarketSnapshot {
	return MarketSnapshot{
		ID:                 m.id,
		Name:               m.name,
		RiskCap:            m.riskCap,
		B:                  m.lmsr.B,
		QYes:               m.qYes,
		QNo:                m.qNo,
		FeeRate:            m.opts.FeeRate,
		SkewFactor:         m.opts.SkewFactor,
		FeeTiming:          m.opts.FeeTiming,
		TotalFees:          m.ledger.TotalFees(),
		YesDeposits:        m.ledger.Deposits(SideYes),
		NoDeposits:         m.ledger.Deposits(SideNo),
		ExpectedYesCashout: m.ledger.ExpectedCashout(SideYes),
		ExpectedNoCashout:  m.ledger.ExpectedCashout(SideNo),
		State:              m.state,
		ResolvedOutcome:    m.outcome,
		OrderCount:         m.ledger.Len(),
		CreatedAt:          m.createdAt,
	}
}

// Orders devuelve una copia del historial de órdenes.
func (m *Market) Orders() []Order {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.ledger.Orders()
}

// --- helpers internos (lock tomado) ---

func (m *Market) prices() Prices {
	if m.opts.SkewEnabled {
		return m.lmsr.SkewedPrices(m.qYes, m.qNo, m.opts.SkewFactor)
	}
	return m.lmsr.RawPrices(m.qYes, m.qNo)
}

// tradeFeeRate es el fee que se aplica al ejecutar; 0 si se difiere a la resolución.
func (m *Market) tradeFeeRate() float64 {
	if m.opts.FeeTiming == FeeAtResolution {
		return 0
	}
	return m.opts.FeeRate
}

func (m *Market) shares(side Side) float64 {
	if side == SideYes {
		return m.qYes
	}
	return m.qNo
}

// maxStake convierte el presupuesto de riesgo restante en stake máximo de side
// al precio de ejecución. Con stake = maxStake el delta resultante es justo el
// dq simétrico, así que la pérdida tras el trade no supera el cap.
func (m *Market) maxStake(side Side) float64 {
	if m.blockedByImbalance(side) {
		return 0
	}
	dq := m.lmsr.MaxSymmetricDelta(m.riskCap, m.qYes, m.qNo)
	if dq <= 0 {
		return 0
	}
	return m.lmsr.StakeForDelta(dq, m.prices().Of(side))
}

// maxSell es el payout neto de liquidar todas las shares del lado.
func (m *Market) maxSell(side Side) float64 {
	outstanding := m.shares(side)
	if outstanding <= 0 {
		return 0
	}
	gross := m.lmsr.ProceedsFromSell(m.qYes, m.qNo, outstanding, side)
	return gross * (1 - m.tradeFeeRate())
}

// blockedByImbalance aplica el límite direccional: con el inventario ya
// desbalanceado por encima del límite solo se aceptan compras que lo reducen.
func (m *Market) blockedByImbalance(side Side) bool {
	if m.opts.ImbalanceLimit == nil {
		return false
	}
	imb := Imbalance(m.qYes, m.qNo)
	if math.Abs(imb) <= *m.opts.ImbalanceLimit {
		return false
	}
	return (side == SideYes && imb > 0) || (side == SideNo && imb < 0)
}

func (m *Market) riskUsedPct() float64 {
	return m.lmsr.Loss(m.qYes, m.qNo) / m.riskCap * 100
}

func validAmount(v float64) bool {
	return v > 0 && !math.IsInf(v, 0) && !math.IsNaN(v)
}
