package notify

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/alejandrodnm/lmsrmm/internal/domain"
	"github.com/alejandrodnm/lmsrmm/internal/ports"
	"github.com/olekukonko/tablewriter"
)

// topUsers es cuántos participantes se listan al cerrar un mercado.
const topUsers = 3

// Console implementa ports.Reporter.
type Console struct {
	out     io.Writer
	trades  bool // imprimir cada trade
	history bool // imprimir el historial de órdenes al cerrar

	mu sync.Mutex // varios mercados reportan en paralelo
}

// NewConsole crea un reporter que escribe a stdout.
func NewConsole(trades, history bool) *Console {
	return &Console{out: os.Stdout, trades: trades, history: history}
}

// NewConsoleWriter crea un reporter para tests.
func NewConsoleWriter(w io.Writer, trades, history bool) *Console {
	return &Console{out: w, trades: trades, history: history}
}

// ReportTrade imprime una línea por trade aceptado, si está activado.
func (c *Console) ReportTrade(_ context.Context, e ports.TradeEvent) error {
	if !c.trades {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	o := e.Order
	var sb strings.Builder
	fmt.Fprintf(&sb, "[%3d] %s ", e.Step, o.MarketID)
	if e.UserID != "" {
		sb.WriteString(e.UserID + " ")
	}
	if o.IsBuy() {
		fmt.Fprintf(&sb, "BUY %s %s", o.Side, money(o.Stake))
	} else {
		fmt.Fprintf(&sb, "SELL %s %s shares for %s", o.Side, amount(-o.Shares), money(o.UserCash()))
	}
	fmt.Fprintf(&sb, " -> price %s | fee %s", price(o.Price), money(o.Fee))
	if e.UserID != "" {
		fmt.Fprintf(&sb, " | bal YES=%s NO=%s", amount(e.Position.YesShares), amount(e.Position.NoShares))
	}
	fmt.Fprintln(c.out, sb.String())
	return nil
}

// ReportRisk imprime la vista "si se resolviera ahora" del market maker.
func (c *Console) ReportRisk(_ context.Context, step int, r domain.RiskReport) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	m, q := r.Market, r.Quote
	header := fmt.Sprintf("MM Report %s (step %d)", m.ID, step)
	fmt.Fprintf(c.out, "\n%s\n%s\n", header, strings.Repeat("=", len(header)))
	fmt.Fprintf(c.out, "Prices:    YES [%s | %s]  NO [%s | %s]\n",
		price(q.Yes.Bid), price(q.Yes.Ask), price(q.No.Bid), price(q.No.Ask))
	fmt.Fprintf(c.out, "Max size:  YES %s  NO %s\n", money(q.Yes.MaxBuy), money(q.No.MaxBuy))
	fmt.Fprintf(c.out, "Inventory: YES=%s | NO=%s\n", amount(m.QYes), amount(m.QNo))
	fmt.Fprintf(c.out, "Deposits:  %s | Fees: %s\n", money(m.TotalDeposits()), money(m.TotalFees))
	fmt.Fprintf(c.out, "Worst-Case Payout: %s (if %s wins)\n", money(r.WorstCasePayout), r.WorstCaseSide)
	fmt.Fprintf(c.out, "Best-Case Payout:  %s (if %s wins)\n", money(r.BestCasePayout), r.WorstCaseSide.Opposite())
	fmt.Fprintf(c.out, "P&L if YES: %s | if NO: %s\n", money(r.PnLIfYes), money(r.PnLIfNo))
	fmt.Fprintf(c.out, "Expected P&L: %s (mid-price weighted)\n", money(r.ExpectedPnL))
	fmt.Fprintf(c.out, "Risk Used: %s of %s cap\n", pct(r.RiskUsedPct), money(m.RiskCap))
	return nil
}

// ReportRun imprime la resolución de cada mercado y el resumen de la ejecución.
func (c *Console) ReportRun(_ context.Context, run domain.Run) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, res := range run.Markets {
		c.printMarket(res)
	}

	fmt.Fprintf(c.out, "\n=== RUN %s | mode %s | seed %d ===\n", run.ID, run.Mode, run.Seed)
	fmt.Fprintf(c.out, "  Markets: %d | Orders: %d | MM net P&L: %s\n\n",
		len(run.Markets), run.OrderCount(), money(run.NetPnL()))
	return nil
}

// PrintRuns imprime las ejecuciones guardadas en el journal.
func (c *Console) PrintRuns(runs []domain.Run) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if len(runs) == 0 {
		fmt.Fprintln(c.out, "\n  No runs journaled yet.")
		return
	}

	table := tablewriter.NewWriter(c.out)
	table.Header("Run", "Mode", "Seed", "Markets", "Orders", "Deposits", "Net P&L", "Finished")
	for _, r := range runs {
		var deposits float64
		for _, m := range r.Markets {
			deposits += m.Market.TotalDeposits()
		}
		table.Append(
			shortID(r.ID),
			r.Mode,
			fmt.Sprintf("%d", r.Seed),
			fmt.Sprintf("%d", len(r.Markets)),
			fmt.Sprintf("%d", r.OrderCount()),
			money(deposits),
			money(r.NetPnL()),
			r.FinishedAt.Local().Format("2006-01-02 15:04:05"),
		)
	}
	table.Render()

	for _, r := range runs {
		for _, m := range r.Markets {
			fmt.Fprintf(c.out, "  %s  %-28s %s  risk %s  payout %s  net %s\n",
				m.Market.ID, truncate(m.Market.Name, 28), m.Settlement.Outcome,
				pct(m.Settlement.RiskUsedPct), money(m.Settlement.TotalPayout), money(m.Settlement.NetPnL))
		}
	}
}

// PrintOrders imprime el historial de órdenes de un mercado.
func (c *Console) PrintOrders(marketID string, orders []domain.Order) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Fprintf(c.out, "\n--- Order History %s (%d orders) ---\n", marketID, len(orders))
	c.printOrders(orders)
}

// --- helpers internos (lock tomado) ---

func (c *Console) printMarket(res domain.MarketResult) {
	m, st := res.Market, res.Settlement

	fmt.Fprintf(c.out, "\n╔══════════════════════════════════════════════════════════════════╗\n")
	fmt.Fprintf(c.out, "║  %-64s║\n", truncate(m.ID+"  "+m.Name, 64))
	fmt.Fprintf(c.out, "╚══════════════════════════════════════════════════════════════════╝\n")
	fmt.Fprintln(c.out, st.Summary())
	fmt.Fprintf(c.out, "- Orders: %d accepted, %d rejected | Risk used: %s\n\n",
		res.Accepted, res.Rejected, pct(st.RiskUsedPct))

	table := tablewriter.NewWriter(c.out)
	table.Header("Outcome", "Payout", "Gross P&L", "Fees", "Net P&L", "")
	for _, side := range []domain.Side{domain.SideYes, domain.SideNo} {
		payout, gross, fees := outcomeScenario(m, st, side)
		mark := ""
		if side == st.Outcome {
			mark = "<- resolved"
		}
		table.Append(side.String(), money(payout), money(gross), money(fees), money(gross+fees), mark)
	}
	table.Render()

	if top := domain.TopPositions(res.Positions, topUsers); len(top) > 0 {
		fmt.Fprintf(c.out, "\n  Top %d users (unrealized P&L if YES):\n", len(top))
		for i, p := range top {
			fmt.Fprintf(c.out, "  %d. %s: P&L=%s | Cash=%s | YES=%s | NO=%s | settled=%s\n",
				i+1, p.UserID, money(p.PnLIfYes()), money(p.NetCash),
				amount(p.YesShares), amount(p.NoShares), money(p.Settle(st.Outcome)))
		}
	}

	if c.history && len(res.Orders) > 0 {
		fmt.Fprintf(c.out, "\n--- Order History (%d orders) ---\n", len(res.Orders))
		c.printOrders(res.Orders)
	}
}

func (c *Console) printOrders(orders []domain.Order) {
	if len(orders) == 0 {
		fmt.Fprintln(c.out, "  (no orders)")
		return
	}
	table := tablewriter.NewWriter(c.out)
	table.Header("#", "Type", "Side", "Stake", "Price", "Shares", "Fee")
	for i, o := range orders {
		kind := "BUY"
		if !o.IsBuy() {
			kind = "SELL"
		}
		table.Append(
			fmt.Sprintf("%d", i+1),
			kind,
			o.Side.String(),
			money(o.Stake),
			price(o.Price),
			amount(o.Shares),
			money(o.Fee),
		)
	}
	table.Render()
}

// outcomeScenario calcula payout, P&L bruto y fees si el mercado se resolviera
// a side, partiendo del estado final.
func outcomeScenario(m domain.MarketSnapshot, st domain.SettlementReport, side domain.Side) (payout, gross, fees float64) {
	payout = m.QNo
	if side == domain.SideYes {
		payout = m.QYes
	}
	fees = m.TotalFees - st.DeferredFee
	if m.FeeTiming == domain.FeeAtResolution {
		fees += payout * m.FeeRate
	}
	return payout, m.TotalDeposits() - payout, fees
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
