package domain

import (
	"sort"
	"time"
)

// Position es la tenencia de un participante en un mercado.
type Position struct {
	UserID    string
	YesShares float64
	NoShares  float64
	NetCash   float64 // negativo = gastado
}

// Shares devuelve las shares del lado dado.
func (p Position) Shares(side Side) float64 {
	if side == SideYes {
		return p.YesShares
	}
	return p.NoShares
}

// PnLIfYes es el P&L no realizado si gana YES.
func (p Position) PnLIfYes() float64 { return p.NetCash + p.YesShares }

// PnLIfNo es el P&L no realizado si gana NO.
func (p Position) PnLIfNo() float64 { return p.NetCash + p.NoShares }

// Settle devuelve el balance final tras cobrar las shares ganadoras.
func (p Position) Settle(outcome Side) float64 {
	return p.NetCash + p.Shares(outcome)
}

// TopPositions devuelve hasta n posiciones con tenencia, ordenadas por P&L si YES.
func TopPositions(positions []Position, n int) []Position {
	var held []Position
	for _, p := range positions {
		if p.YesShares+p.NoShares > 0 {
			held = append(held, p)
		}
	}
	sort.SliceStable(held, func(i, j int) bool {
		return held[i].PnLIfYes() > held[j].PnLIfYes()
	})
	if len(held) > n {
		held = held[:n]
	}
	return held
}

// MarketResult es el resultado de simular y resolver un mercado.
type MarketResult struct {
	Market     MarketSnapshot
	Settlement SettlementReport
	Orders     []Order
	Accepted   int
	Rejected   int
	Positions  []Position
}

// Run agrupa los mercados simulados en una misma ejecución.
type Run struct {
	ID         string
	Mode       string
	Seed       int64
	StartedAt  time.Time
	FinishedAt time.Time
	Markets    []MarketResult
}

// OrderCount suma las órdenes aceptadas de todos los mercados.
func (r Run) OrderCount() int {
	n := 0
	for _, m := range r.Markets {
		n += m.Market.OrderCount
	}
	return n
}

// NetPnL suma el P&L neto del market maker en todos los mercados.
func (r Run) NetPnL() float64 {
	var total float64
	for _, m := range r.Markets {
		total += m.Settlement.NetPnL
	}
	return total
}
