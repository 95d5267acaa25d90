package simulation

// flows.go: generadores de flujo de órdenes.
//
// Los rechazos (capacidad, max stake, imbalance, shares) son parte normal del
// flujo: se cuentan y se loguean en debug. Cualquier otro error corta el mercado.

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"math/rand"

	"github.com/alejandrodnm/lmsrmm/internal/application/portfolio"
	"github.com/alejandrodnm/lmsrmm/internal/domain"
	"github.com/alejandrodnm/lmsrmm/internal/ports"
	"golang.org/x/time/rate"
)

const (
	// tope de pasos en fill por si la capacidad nunca baja del mínimo
	maxFillSteps = 100_000

	// un usuario solo vende si tiene más de una share
	minOwnedToSell = 1.0
	// ventas menores que esto se descartan sin enviar
	minSellShares = 0.1
)

type flow struct {
	cfg      Config
	m        *domain.Market
	rng      *rand.Rand
	limiter  *rate.Limiter
	reporter ports.Reporter

	users    []*portfolio.Portfolio
	accepted int
	rejected int
}

// fill compra lados al azar hasta que ningún lado admite el stake mínimo.
func (f *flow) fill(ctx context.Context) error {
	step := 0
	for step < maxFillSteps {
		if math.Max(f.m.MaxStake(domain.SideYes), f.m.MaxStake(domain.SideNo)) <= f.cfg.MinStake {
			break
		}
		if err := f.wait(ctx); err != nil {
			return err
		}
		step++
		if err := f.buy(ctx, step); err != nil {
			return err
		}
	}
	f.reportRisk(ctx, step)
	return nil
}

// skew envía Trades compras al azar; el mercado decide cuáles acepta.
func (f *flow) skew(ctx context.Context) error {
	for step := 1; step <= f.cfg.Trades; step++ {
		if err := f.wait(ctx); err != nil {
			return err
		}
		if err := f.buy(ctx, step); err != nil {
			return err
		}
	}
	f.reportRisk(ctx, f.cfg.Trades)
	return nil
}

// trade simula Users participantes. En cada paso un usuario al azar compra,
// o vende si tiene shares del lado sorteado. Los tamaños son log-uniformes
// entre MinStake y MaxStake.
func (f *flow) trade(ctx context.Context) error {
	f.users = make([]*portfolio.Portfolio, f.cfg.Users)
	for i := range f.users {
		f.users[i] = portfolio.New(fmt.Sprintf("user_%02d", i+1), f.m)
	}
	f.reportRisk(ctx, 0)

	for step := 1; step <= f.cfg.Trades; step++ {
		if err := f.wait(ctx); err != nil {
			return err
		}
		if err := f.userTrade(ctx, step); err != nil {
			return err
		}
		if (f.cfg.ReportEvery > 0 && step%f.cfg.ReportEvery == 0) || step == f.cfg.Trades {
			f.reportRisk(ctx, step)
		}
	}
	return nil
}

func (f *flow) userTrade(ctx context.Context, step int) error {
	user := f.users[f.rng.Intn(len(f.users))]
	side := f.side()
	owned := user.Position().Shares(side)
	sell := owned > minOwnedToSell && f.rng.Intn(2) == 1
	size := f.logUniformSize()

	var (
		order domain.Order
		err   error
	)
	if sell {
		shares := math.Min(owned, size/f.cfg.SellDivisor)
		if shares < minSellShares {
			return nil
		}
		order, err = user.Sell(side, shares)
	} else {
		order, err = user.Buy(side, size)
	}
	if rerr := f.record(err, side, size); rerr != nil {
		return rerr
	}
	if err == nil {
		f.reportTrade(ctx, ports.TradeEvent{
			Step:     step,
			UserID:   user.UserID(),
			Order:    order,
			Position: user.Position(),
		})
	}
	return nil
}

func (f *flow) buy(ctx context.Context, step int) error {
	side, stake := f.side(), f.uniformSize()
	order, err := f.m.Buy(side, stake)
	if rerr := f.record(err, side, stake); rerr != nil {
		return rerr
	}
	if err == nil {
		f.reportTrade(ctx, ports.TradeEvent{Step: step, Order: order})
	}
	return nil
}

// record cuenta el resultado de una orden. Devuelve error solo si no es un rechazo.
func (f *flow) record(err error, side domain.Side, amount float64) error {
	if err == nil {
		f.accepted++
		return nil
	}
	if !domain.IsRejection(err) {
		return err
	}
	f.rejected++
	slog.Debug("order rejected",
		"market_id", f.m.ID(),
		"side", side,
		"amount", amount,
		"err", err,
	)
	return nil
}

func (f *flow) wait(ctx context.Context) error {
	if f.limiter != nil {
		return f.limiter.Wait(ctx)
	}
	return ctx.Err()
}

func (f *flow) side() domain.Side {
	if f.rng.Intn(2) == 0 {
		return domain.SideYes
	}
	return domain.SideNo
}

func (f *flow) uniformSize() float64 {
	return f.cfg.MinStake + f.rng.Float64()*(f.cfg.MaxStake-f.cfg.MinStake)
}

func (f *flow) logUniformSize() float64 {
	lo, hi := math.Log(f.cfg.MinStake), math.Log(f.cfg.MaxStake)
	return math.Exp(lo + f.rng.Float64()*(hi-lo))
}

func (f *flow) positions() []domain.Position {
	if len(f.users) == 0 {
		return nil
	}
	out := make([]domain.Position, len(f.users))
	for i, u := range f.users {
		out[i] = u.Position()
	}
	return out
}

func (f *flow) reportTrade(ctx context.Context, e ports.TradeEvent) {
	if f.reporter == nil {
		return
	}
	if err := f.reporter.ReportTrade(ctx, e); err != nil {
		slog.Warn("reporter error", "market_id", f.m.ID(), "err", err)
	}
}

func (f *flow) reportRisk(ctx context.Context, step int) {
	if f.reporter == nil {
		return
	}
	if err := f.reporter.ReportRisk(ctx, step, f.m.RiskReport()); err != nil {
		slog.Warn("reporter error", "market_id", f.m.ID(), "err", err)
	}
}
