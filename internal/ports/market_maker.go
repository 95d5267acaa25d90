package ports

import "github.com/alejandrodnm/lmsrmm/internal/domain"

// MarketMaker es la contraparte que ve un participante: compra, vende y cotiza.
// *domain.Market la implementa.
type MarketMaker interface {
	ID() string
	Buy(side domain.Side, stake float64) (domain.Order, error)
	Sell(side domain.Side, netPayout float64) (domain.Order, error)
	PayoutForShares(side domain.Side, shares float64) (float64, error)
	Quote() domain.Quote
}

var _ MarketMaker = (*domain.Market)(nil)
