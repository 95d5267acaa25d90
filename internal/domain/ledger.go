package domain

// Ledger es el historial append-only de órdenes de un mercado y sus agregados.
// Los agregados se actualizan incrementalmente desde cada orden aceptada; no
// hay otra fuente de verdad. No es thread-safe: lo protege el lock del Market.
type Ledger struct {
	orders             []Order
	yesDeposits        float64
	noDeposits         float64
	expectedYesCashout float64
	expectedNoCashout  float64
	totalFees          float64
}

// append registra la orden y aplica su efecto a los agregados del lado.
func (l *Ledger) append(o Order) {
	flow := o.PoolFlow()
	if o.Side == SideYes {
		l.yesDeposits += flow
		l.expectedYesCashout += o.Shares
	} else {
		l.noDeposits += flow
		l.expectedNoCashout += o.Shares
	}
	l.totalFees += o.Fee
	l.orders = append(l.orders, o)
}

// collectFee suma un fee que no viene de una orden (fee diferido a la resolución).
func (l *Ledger) collectFee(fee float64) {
	if fee > 0 {
		l.totalFees += fee
	}
}

// Len es el número de órdenes registradas.
func (l *Ledger) Len() int { return len(l.orders) }

// Orders devuelve una copia del historial en orden de inserción.
func (l *Ledger) Orders() []Order {
	out := make([]Order, len(l.orders))
	copy(out, l.orders)
	return out
}

// TotalDeposits es el efectivo neto recibido por el pool.
func (l *Ledger) TotalDeposits() float64 {
	return l.yesDeposits + l.noDeposits
}

// Deposits devuelve los depósitos netos de un lado.
func (l *Ledger) Deposits(side Side) float64 {
	if side == SideYes {
		return l.yesDeposits
	}
	return l.noDeposits
}

// ExpectedCashout devuelve el pasivo agregado de un lado.
func (l *Ledger) ExpectedCashout(side Side) float64 {
	if side == SideYes {
		return l.expectedYesCashout
	}
	return l.expectedNoCashout
}

// TotalFees son los fees cobrados hasta ahora.
func (l *Ledger) TotalFees() float64 { return l.totalFees }
