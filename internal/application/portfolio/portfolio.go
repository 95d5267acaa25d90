package portfolio

// portfolio.go: posición de un participante contra un market maker.
//
// El mercado no sabe quién tiene qué: la propiedad de las shares se lleva
// aquí. Una venta se traduce de shares a payout neto con PayoutForShares y
// luego se ejecuta con Sell; si entre ambas llamadas otro participante movió
// el mercado, las shares realmente devueltas pueden diferir un poco.

import (
	"fmt"
	"log/slog"
	"math"
	"sync"

	"github.com/alejandrodnm/lmsrmm/internal/domain"
	"github.com/alejandrodnm/lmsrmm/internal/ports"
)

// tolerancia para vender "todo lo que tengo" tras acumular error de float
const ownershipTolerance = 1e-6

// Portfolio lleva shares y caja de un usuario en un mercado.
type Portfolio struct {
	userID string
	mm     ports.MarketMaker

	mu  sync.Mutex
	pos domain.Position
}

// New crea una posición vacía.
func New(userID string, mm ports.MarketMaker) *Portfolio {
	return &Portfolio{
		userID: userID,
		mm:     mm,
		pos:    domain.Position{UserID: userID},
	}
}

// UserID devuelve el identificador del participante.
func (p *Portfolio) UserID() string { return p.userID }

// Buy compra side por stake y acredita las shares recibidas.
func (p *Portfolio) Buy(side domain.Side, stake float64) (domain.Order, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	order, err := p.mm.Buy(side, stake)
	if err != nil {
		return domain.Order{}, fmt.Errorf("portfolio.Buy %s: %w", p.userID, err)
	}
	p.addShares(side, order.Shares)
	p.pos.NetCash += order.UserCash()
	return order, nil
}

// Sell vende shares de side. Rechaza con ErrInsufficientShares si el usuario
// no las tiene; el mercado no se toca en ese caso.
func (p *Portfolio) Sell(side domain.Side, shares float64) (domain.Order, error) {
	if !side.Valid() {
		return domain.Order{}, fmt.Errorf("portfolio.Sell %s: %w", p.userID, domain.ErrInvalidSide)
	}
	if !(shares > 0) || math.IsInf(shares, 0) {
		return domain.Order{}, fmt.Errorf("portfolio.Sell %s: %w", p.userID, domain.ErrInvalidAmount)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	owned := p.pos.Shares(side)
	if shares > owned+ownershipTolerance {
		return domain.Order{}, fmt.Errorf("portfolio.Sell %s: %w", p.userID, &domain.RejectError{
			MarketID:  p.mm.ID(),
			Reason:    domain.ReasonInsufficientShare,
			Side:      side,
			Requested: shares,
			Limit:     owned,
		})
	}
	shares = math.Min(shares, owned)

	net, err := p.mm.PayoutForShares(side, shares)
	if err != nil {
		return domain.Order{}, fmt.Errorf("portfolio.Sell %s: payout: %w", p.userID, err)
	}
	order, err := p.mm.Sell(side, net)
	if err != nil {
		return domain.Order{}, fmt.Errorf("portfolio.Sell %s: %w", p.userID, err)
	}

	returned := -order.Shares
	if returned > owned {
		slog.Warn("sell returned more shares than owned, clamping",
			"user", p.userID,
			"market_id", p.mm.ID(),
			"side", side,
			"owned", owned,
			"returned", returned,
		)
		returned = owned
	}
	p.addShares(side, -returned)
	p.pos.NetCash += order.UserCash()
	return order, nil
}

// Position devuelve una copia de la posición actual.
func (p *Portfolio) Position() domain.Position {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.pos
}

// PnLIfYes es el P&L no realizado si gana YES.
func (p *Portfolio) PnLIfYes() float64 { return p.Position().PnLIfYes() }

// PnLIfNo es el P&L no realizado si gana NO.
func (p *Portfolio) PnLIfNo() float64 { return p.Position().PnLIfNo() }

// Settle devuelve el balance final tras la resolución.
func (p *Portfolio) Settle(outcome domain.Side) float64 {
	return p.Position().Settle(outcome)
}

func (p *Portfolio) addShares(side domain.Side, delta float64) {
	if side == domain.SideYes {
		p.pos.YesShares = math.Max(0, p.pos.YesShares+delta)
	} else {
		p.pos.NoShares = math.Max(0, p.pos.NoShares+delta)
	}
}
