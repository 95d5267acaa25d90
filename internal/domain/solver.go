package domain

import "math"

// Iteraciones fijas: coste de CPU acotado y determinista por llamada.
const (
	bracketIterations = 60
	bisectIterations  = 60
)

// bracketBisect encuentra x ≥ 0 tal que f(x) ≈ target, con f monótona creciente
// y f(0) ≤ target. Primero dobla la cota superior desde start hasta que
// f(high) ≥ target (máx. 60 veces) y luego biseca 60 veces sobre [0, high].
// Si target es inalcanzable devuelve la cota expandida, que el caller valida.
func bracketBisect(target, start float64, f func(float64) float64) float64 {
	low, high := 0.0, start
	for i := 0; i < bracketIterations; i++ {
		if f(high) >= target {
			break
		}
		high *= 2
	}
	for i := 0; i < bisectIterations; i++ {
		mid := 0.5 * (low + high)
		if f(mid) < target {
			low = mid
		} else {
			high = mid
		}
	}
	return 0.5 * (low + high)
}

// RemainingRisk es riskCap − (C(q) − C(0,0)). Puede ser negativo si el
// mercado se creó con inventario inicial por encima del cap.
func (l LMSR) RemainingRisk(riskCap, qYes, qNo float64) float64 {
	return riskCap - l.Loss(qYes, qNo)
}

// MaxSymmetricDelta resuelve dq tal que C(qy+dq, qn+dq) − C(qy, qn) = R.
// Devuelve 0 si el presupuesto está agotado.
func (l LMSR) MaxSymmetricDelta(riskCap, qYes, qNo float64) float64 {
	remaining := l.RemainingRisk(riskCap, qYes, qNo)
	if remaining <= 0 {
		return 0
	}
	base := l.Cost(qYes, qNo)
	return bracketBisect(remaining, 1.0, func(dq float64) float64 {
		return l.Cost(qYes+dq, qNo+dq) - base
	})
}

// StakeForDelta convierte un delta de shares en stake al precio marginal:
// stake = b·p·(e^(dq/b) − 1). Es la inversa exacta de SharesForStake.
func (l LMSR) StakeForDelta(dq, price float64) float64 {
	return l.B * price * math.Expm1(dq/l.B)
}

// SharesForStake es el delta analítico de una compra de un solo lado:
// Δq = b·ln(1 + net/(b·p)).
func (l LMSR) SharesForStake(net, price float64) float64 {
	return l.B * math.Log1p(net/(l.B*price))
}

// SharesForCost resuelve con bracket-and-bisect cuántas shares de un lado se
// compran con exactamente money de incremento de coste.
func (l LMSR) SharesForCost(qYes, qNo, money float64, side Side) float64 {
	if money <= 0 {
		return 0
	}
	return bracketBisect(money, 1.0, func(dq float64) float64 {
		return l.CostToBuy(qYes, qNo, dq, side)
	})
}

// SharesForProceeds resuelve dq tal que C(q) − C(q − dq en side) = gross.
func (l LMSR) SharesForProceeds(qYes, qNo, gross float64, side Side) float64 {
	if gross <= 0 {
		return 0
	}
	return bracketBisect(gross, math.Max(1.0, 2*gross), func(dq float64) float64 {
		return l.ProceedsFromSell(qYes, qNo, dq, side)
	})
}
