package domain

import "math"

const (
	minSkewedPrice = 0.01
	maxSkewedPrice = 0.99
	// por debajo de este total de shares el inventario se considera vacío
	imbalanceEpsilon = 1e-6
)

// Prices es el par de precios marginales (YES, NO). Siempre suman 1.
type Prices struct {
	Yes float64
	No  float64
}

// Of devuelve el precio del lado dado.
func (p Prices) Of(side Side) float64 {
	if side == SideYes {
		return p.Yes
	}
	return p.No
}

// RawPrices devuelve los precios LMSR sin ajuste de inventario.
func (l LMSR) RawPrices(qYes, qNo float64) Prices {
	yes := l.PriceYes(qYes, qNo)
	return Prices{Yes: yes, No: 1 - yes}
}

// Imbalance es (qy − qn) / (qy + qn): +1 = todo el inventario en YES.
// Devuelve 0 si no hay shares en circulación.
func Imbalance(qYes, qNo float64) float64 {
	total := qYes + qNo
	if total <= imbalanceEpsilon {
		return 0
	}
	return (qYes - qNo) / total
}

// SkewedPrices baja el precio del lado sobreexpuesto en skew·imbalance.
// YES queda en [0.01, 0.99] y NO es su complemento: el skew mueve masa
// entre lados, nunca fuera del simplex.
func (l LMSR) SkewedPrices(qYes, qNo, skewFactor float64) Prices {
	raw := l.RawPrices(qYes, qNo)
	if qYes+qNo <= imbalanceEpsilon {
		return raw
	}
	yes := raw.Yes - skewFactor*Imbalance(qYes, qNo)
	yes = math.Max(minSkewedPrice, math.Min(maxSkewedPrice, yes))
	return Prices{Yes: yes, No: 1 - yes}
}

// BidAsk deriva el precio al que el pool compra (bid) y vende (ask) un lado
// con el fee incluido.
func BidAsk(price, feeRate float64) (bid, ask float64) {
	ask = math.Min(1, price/(1-feeRate))
	bid = math.Max(0, price*(1-feeRate))
	return bid, ask
}
