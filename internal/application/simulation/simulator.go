package simulation

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"time"

	"github.com/alejandrodnm/lmsrmm/internal/application/exchange"
	"github.com/alejandrodnm/lmsrmm/internal/domain"
	"github.com/alejandrodnm/lmsrmm/internal/ports"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
)

// Simulator crea mercados en el exchange, les envía flujo de órdenes,
// los resuelve y registra el resultado.
type Simulator struct {
	cfg      Config
	exchange *exchange.Exchange
	journal  ports.Journal  // nil = sin persistencia
	reporter ports.Reporter // nil = silencioso
	now      func() time.Time
}

// New crea un Simulator con todas las dependencias inyectadas.
func New(cfg Config, ex *exchange.Exchange, journal ports.Journal, reporter ports.Reporter) *Simulator {
	return &Simulator{
		cfg:      cfg,
		exchange: ex,
		journal:  journal,
		reporter: reporter,
		now:      time.Now,
	}
}

// Run ejecuta la simulación completa. Cada mercado corre en su propia
// goroutine con un generador sembrado con Seed+i, así que el resultado de
// cada mercado es reproducible aunque corran en paralelo.
func (s *Simulator) Run(ctx context.Context) (domain.Run, error) {
	if err := s.cfg.validate(); err != nil {
		return domain.Run{}, fmt.Errorf("simulation.Run: %w", err)
	}

	run := domain.Run{
		ID:        uuid.New().String(),
		Mode:      string(s.cfg.Mode),
		Seed:      s.cfg.Seed,
		StartedAt: s.now().UTC(),
	}
	slog.Info("simulation starting",
		"run_id", run.ID,
		"mode", s.cfg.Mode,
		"markets", s.cfg.Markets,
		"risk_cap", s.cfg.RiskCap,
		"fee_rate", s.cfg.Options.FeeRate,
		"seed", s.cfg.Seed,
	)

	markets := make([]*domain.Market, s.cfg.Markets)
	for i := range markets {
		id := fmt.Sprintf("%s-%02d", run.ID[:8], i+1)
		m, err := s.exchange.Create(id, s.cfg.MarketName, s.cfg.RiskCap, s.cfg.Options)
		if err != nil {
			return domain.Run{}, fmt.Errorf("simulation.Run: %w", err)
		}
		markets[i] = m
	}

	results := make([]domain.MarketResult, len(markets))
	g, gctx := errgroup.WithContext(ctx)
	for i, m := range markets {
		g.Go(func() error {
			res, err := s.runMarket(gctx, m, s.cfg.Seed+int64(i))
			if err != nil {
				return fmt.Errorf("market %s: %w", m.ID(), err)
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return domain.Run{}, fmt.Errorf("simulation.Run: %w", err)
	}

	run.Markets = results
	run.FinishedAt = s.now().UTC()

	if s.journal != nil {
		if err := s.journal.SaveRun(ctx, run); err != nil {
			slog.Warn("failed to journal run", "run_id", run.ID, "err", err)
		}
	}
	if s.reporter != nil {
		if err := s.reporter.ReportRun(ctx, run); err != nil {
			slog.Warn("reporter error", "run_id", run.ID, "err", err)
		}
	}

	slog.Info("simulation finished",
		"run_id", run.ID,
		"orders", run.OrderCount(),
		"net_pnl", run.NetPnL(),
		"elapsed", run.FinishedAt.Sub(run.StartedAt),
	)
	return run, nil
}

// runMarket envía el flujo del modo configurado a un mercado y lo resuelve.
func (s *Simulator) runMarket(ctx context.Context, m *domain.Market, seed int64) (domain.MarketResult, error) {
	f := &flow{
		cfg:      s.cfg,
		m:        m,
		rng:      rand.New(rand.NewSource(seed)),
		limiter:  newLimiter(s.cfg.OrdersPerSecond),
		reporter: s.reporter,
	}

	var err error
	switch s.cfg.Mode {
	case ModeFill:
		err = f.fill(ctx)
	case ModeUsers:
		err = f.trade(ctx)
	case ModeSkew:
		err = f.skew(ctx)
	default:
		err = fmt.Errorf("unknown mode %q", s.cfg.Mode)
	}
	if err != nil {
		return domain.MarketResult{}, err
	}

	outcome := s.cfg.Outcome
	if outcome == "" {
		outcome = f.side()
	}
	report, err := m.Resolve(outcome)
	if err != nil {
		return domain.MarketResult{}, fmt.Errorf("resolve: %w", err)
	}
	slog.Info("market resolved",
		"market_id", m.ID(),
		"outcome", outcome,
		"accepted", f.accepted,
		"rejected", f.rejected,
		"payout", report.TotalPayout,
		"net_pnl", report.NetPnL,
		"risk_used_pct", report.RiskUsedPct,
	)

	return domain.MarketResult{
		Market:     m.Snapshot(),
		Settlement: report,
		Orders:     m.Orders(),
		Accepted:   f.accepted,
		Rejected:   f.rejected,
		Positions:  f.positions(),
	}, nil
}

func newLimiter(perSecond float64) *rate.Limiter {
	if perSecond <= 0 {
		return nil
	}
	return rate.NewLimiter(rate.Limit(perSecond), 1)
}
