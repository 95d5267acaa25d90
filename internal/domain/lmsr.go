package domain

import "math"

// LMSR es la función de coste del Logarithmic Market Scoring Rule para un
// contrato binario. Es un valor inmutable: B se fija al crear el mercado.
//
//	C(qy, qn) = b · ln(e^(qy/b) + e^(qn/b))
//
// Con b = riskCap / ln 2 la pérdida máxima del market maker desde el
// estado (0,0) queda acotada por riskCap.
type LMSR struct {
	B float64
}

// NewLMSR deriva b a partir del risk cap.
func NewLMSR(riskCap float64) LMSR {
	return LMSR{B: riskCap / math.Ln2}
}

// Cost evalúa C(qy, qn) con log-sum-exp: restar m = max(qy, qn) evita que
// e^(q/b) desborde para inventarios grandes.
func (l LMSR) Cost(qYes, qNo float64) float64 {
	m := math.Max(qYes, qNo)
	return l.B * (m/l.B + math.Log(math.Exp((qYes-m)/l.B)+math.Exp((qNo-m)/l.B)))
}

// BaseCost es C(0,0) = b·ln 2, la referencia para medir la pérdida actual.
func (l LMSR) BaseCost() float64 {
	return l.Cost(0, 0)
}

// Loss devuelve C(qy, qn) − C(0,0): el riesgo consumido en ese estado.
func (l LMSR) Loss(qYes, qNo float64) float64 {
	return l.Cost(qYes, qNo) - l.BaseCost()
}

// PriceYes es el precio marginal de YES (softmax estabilizado).
func (l LMSR) PriceYes(qYes, qNo float64) float64 {
	m := math.Max(qYes, qNo)
	expYes := math.Exp((qYes - m) / l.B)
	expNo := math.Exp((qNo - m) / l.B)
	return expYes / (expYes + expNo)
}

// CostToBuy es el incremento de coste de comprar shares de un solo lado.
func (l LMSR) CostToBuy(qYes, qNo, shares float64, side Side) float64 {
	if side == SideYes {
		return l.Cost(qYes+shares, qNo) - l.Cost(qYes, qNo)
	}
	return l.Cost(qYes, qNo+shares) - l.Cost(qYes, qNo)
}

// ProceedsFromSell es lo que el pool paga (bruto) por recomprar shares de un lado.
func (l LMSR) ProceedsFromSell(qYes, qNo, shares float64, side Side) float64 {
	if side == SideYes {
		return l.Cost(qYes, qNo) - l.Cost(qYes-shares, qNo)
	}
	return l.Cost(qYes, qNo) - l.Cost(qYes, qNo-shares)
}
