package storage

// sqlite.go: journal de simulaciones.
//
// Estrategia:
//   - `runs`: una fila por ejecución (modo, seed, inicio/fin).
//   - `markets`: una fila por mercado con su snapshot final y la resolución.
//   - `orders`: historial completo de cada mercado, con `seq` para
//     conservar el orden de ejecución.
//   - SaveRun escribe todo en una transacción: o queda la ejecución
//     completa o no queda nada.
//   - Prune automático al arrancar: ejecuciones de más de 90 días.

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/alejandrodnm/lmsrmm/internal/domain"
	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS runs (
    id          TEXT PRIMARY KEY,
    mode        TEXT    NOT NULL,
    seed        INTEGER NOT NULL DEFAULT 0,
    started_at  TEXT    NOT NULL,
    finished_at TEXT    NOT NULL
);

CREATE TABLE IF NOT EXISTS markets (
    id            TEXT PRIMARY KEY,
    run_id        TEXT    NOT NULL,
    name          TEXT,
    risk_cap      REAL    NOT NULL,
    b             REAL    NOT NULL,
    fee_rate      REAL    NOT NULL DEFAULT 0,
    fee_timing    TEXT    NOT NULL,
    skew_factor   REAL    NOT NULL DEFAULT 0,
    q_yes         REAL    NOT NULL DEFAULT 0,
    q_no          REAL    NOT NULL DEFAULT 0,
    yes_deposits  REAL    NOT NULL DEFAULT 0,
    no_deposits   REAL    NOT NULL DEFAULT 0,
    yes_cashout   REAL    NOT NULL DEFAULT 0,
    no_cashout    REAL    NOT NULL DEFAULT 0,
    total_fees    REAL    NOT NULL DEFAULT 0,
    order_count   INTEGER NOT NULL DEFAULT 0,
    accepted      INTEGER NOT NULL DEFAULT 0,
    rejected      INTEGER NOT NULL DEFAULT 0,
    state         TEXT    NOT NULL,
    outcome       TEXT,
    total_payout  REAL    NOT NULL DEFAULT 0,
    deferred_fee  REAL    NOT NULL DEFAULT 0,
    gross_pnl     REAL    NOT NULL DEFAULT 0,
    net_pnl       REAL    NOT NULL DEFAULT 0,
    risk_used_pct REAL    NOT NULL DEFAULT 0,
    created_at    TEXT    NOT NULL,
    resolved_at   TEXT
);

CREATE TABLE IF NOT EXISTS orders (
    id          TEXT PRIMARY KEY,
    market_id   TEXT    NOT NULL,
    seq         INTEGER NOT NULL,
    side        TEXT    NOT NULL,
    stake       REAL    NOT NULL,
    price       REAL    NOT NULL,
    shares      REAL    NOT NULL,
    fee         REAL    NOT NULL DEFAULT 0,
    executed_at TEXT    NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_runs_finished ON runs(finished_at DESC);
CREATE INDEX IF NOT EXISTS idx_markets_run   ON markets(run_id);
CREATE INDEX IF NOT EXISTS idx_orders_market ON orders(market_id, seq);
`

const retentionRuns = 90 * 24 * time.Hour

// ancho fijo: las comparaciones de texto respetan el orden cronológico
const timeLayout = "2006-01-02T15:04:05.000000000Z"

// SQLiteStorage implementa ports.Journal usando SQLite (pure Go, sin CGo).
type SQLiteStorage struct {
	db *sql.DB
}

// NewSQLiteStorage abre (o crea) la base de datos en la ruta dada.
// Aplica el schema y limpia ejecuciones antiguas.
func NewSQLiteStorage(path string) (*SQLiteStorage, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("storage.NewSQLiteStorage: open %q: %w", path, err)
	}
	db.SetMaxOpenConns(1) // SQLite es single-writer
	db.SetMaxIdleConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("storage.NewSQLiteStorage: apply schema: %w", err)
	}

	s := &SQLiteStorage{db: db}
	s.pruneOld(context.Background())
	return s, nil
}

// SaveRun persiste la ejecución, sus mercados y todas sus órdenes.
func (s *SQLiteStorage) SaveRun(ctx context.Context, run domain.Run) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("storage.SaveRun: begin tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO runs (id, mode, seed, started_at, finished_at) VALUES (?, ?, ?, ?, ?)`,
		run.ID, run.Mode, run.Seed, formatTime(run.StartedAt), formatTime(run.FinishedAt),
	); err != nil {
		return fmt.Errorf("storage.SaveRun: insert run %s: %w", run.ID, err)
	}

	for _, res := range run.Markets {
		if err := insertMarket(ctx, tx, run.ID, res); err != nil {
			return fmt.Errorf("storage.SaveRun: %w", err)
		}
		if err := insertOrders(ctx, tx, res.Orders); err != nil {
			return fmt.Errorf("storage.SaveRun: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("storage.SaveRun: commit: %w", err)
	}
	return nil
}

// GetRuns devuelve las últimas limit ejecuciones, más recientes primero.
func (s *SQLiteStorage) GetRuns(ctx context.Context, limit int) ([]domain.Run, error) {
	if limit <= 0 {
		limit = 10
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, mode, seed, started_at, finished_at
		FROM runs
		ORDER BY finished_at DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("storage.GetRuns: query: %w", err)
	}

	var runs []domain.Run
	for rows.Next() {
		var run domain.Run
		var started, finished string
		if err := rows.Scan(&run.ID, &run.Mode, &run.Seed, &started, &finished); err != nil {
			rows.Close()
			return nil, fmt.Errorf("storage.GetRuns: scan row: %w", err)
		}
		if run.StartedAt, err = parseTime(started); err == nil {
			run.FinishedAt, err = parseTime(finished)
		}
		if err != nil {
			rows.Close()
			return nil, fmt.Errorf("storage.GetRuns: run %s: %w", run.ID, err)
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, fmt.Errorf("storage.GetRuns: %w", err)
	}
	// con una sola conexión hay que liberar el cursor antes de la siguiente query
	rows.Close()

	for i := range runs {
		markets, err := s.getMarkets(ctx, runs[i].ID)
		if err != nil {
			return nil, err
		}
		runs[i].Markets = markets
	}
	return runs, nil
}

// GetOrders devuelve el historial de un mercado en orden de ejecución.
func (s *SQLiteStorage) GetOrders(ctx context.Context, marketID string) ([]domain.Order, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, market_id, side, stake, price, shares, fee, executed_at
		FROM orders
		WHERE market_id = ?
		ORDER BY seq
	`, marketID)
	if err != nil {
		return nil, fmt.Errorf("storage.GetOrders: query: %w", err)
	}
	defer rows.Close()

	var orders []domain.Order
	for rows.Next() {
		var o domain.Order
		var side, executed string
		if err := rows.Scan(&o.ID, &o.MarketID, &side, &o.Stake, &o.Price, &o.Shares, &o.Fee, &executed); err != nil {
			return nil, fmt.Errorf("storage.GetOrders: scan row: %w", err)
		}
		o.Side = domain.Side(side)
		t, err := parseTime(executed)
		if err != nil {
			return nil, fmt.Errorf("storage.GetOrders: order %s: %w", o.ID, err)
		}
		o.ExecutedAt = t
		orders = append(orders, o)
	}
	return orders, rows.Err()
}

// Close cierra la conexión a la base de datos.
func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}

// --- helpers internos ---

func insertMarket(ctx context.Context, tx *sql.Tx, runID string, res domain.MarketResult) error {
	m, st := res.Market, res.Settlement
	var resolvedAt *string
	if !st.ResolvedAt.IsZero() {
		v := formatTime(st.ResolvedAt)
		resolvedAt = &v
	}
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO markets
			(id, run_id, name, risk_cap, b, fee_rate, fee_timing, skew_factor,
			 q_yes, q_no, yes_deposits, no_deposits, yes_cashout, no_cashout,
			 total_fees, order_count, accepted, rejected, state, outcome,
			 total_payout, deferred_fee, gross_pnl, net_pnl, risk_used_pct,
			 created_at, resolved_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		m.ID, runID, m.Name, m.RiskCap, m.B, m.FeeRate, string(m.FeeTiming), m.SkewFactor,
		m.QYes, m.QNo, m.YesDeposits, m.NoDeposits, m.ExpectedYesCashout, m.ExpectedNoCashout,
		m.TotalFees, m.OrderCount, res.Accepted, res.Rejected, string(m.State), string(m.ResolvedOutcome),
		st.TotalPayout, st.DeferredFee, st.GrossPnL, st.NetPnL, st.RiskUsedPct,
		formatTime(m.CreatedAt), resolvedAt,
	); err != nil {
		return fmt.Errorf("insert market %s: %w", m.ID, err)
	}
	return nil
}

func insertOrders(ctx context.Context, tx *sql.Tx, orders []domain.Order) error {
	if len(orders) == 0 {
		return nil
	}
	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO orders (id, market_id, seq, side, stake, price, shares, fee, executed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("prepare orders: %w", err)
	}
	defer stmt.Close()

	for i, o := range orders {
		if _, err := stmt.ExecContext(ctx,
			o.ID, o.MarketID, i, string(o.Side), o.Stake, o.Price, o.Shares, o.Fee, formatTime(o.ExecutedAt),
		); err != nil {
			return fmt.Errorf("insert order %s: %w", o.ID, err)
		}
	}
	return nil
}

func (s *SQLiteStorage) getMarkets(ctx context.Context, runID string) ([]domain.MarketResult, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, risk_cap, b, fee_rate, fee_timing, skew_factor,
		       q_yes, q_no, yes_deposits, no_deposits, yes_cashout, no_cashout,
		       total_fees, order_count, accepted, rejected, state, outcome,
		       total_payout, deferred_fee, gross_pnl, net_pnl, risk_used_pct,
		       created_at, resolved_at
		FROM markets
		WHERE run_id = ?
		ORDER BY id
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("storage.getMarkets: query: %w", err)
	}
	defer rows.Close()

	var out []domain.MarketResult
	for rows.Next() {
		var res domain.MarketResult
		m := &res.Market
		st := &res.Settlement
		var feeTiming, state, created string
		var outcome, resolved sql.NullString
		if err := rows.Scan(
			&m.ID, &m.Name, &m.RiskCap, &m.B, &m.FeeRate, &feeTiming, &m.SkewFactor,
			&m.QYes, &m.QNo, &m.YesDeposits, &m.NoDeposits, &m.ExpectedYesCashout, &m.ExpectedNoCashout,
			&m.TotalFees, &m.OrderCount, &res.Accepted, &res.Rejected, &state, &outcome,
			&st.TotalPayout, &st.DeferredFee, &st.GrossPnL, &st.NetPnL, &st.RiskUsedPct,
			&created, &resolved,
		); err != nil {
			return nil, fmt.Errorf("storage.getMarkets: scan row: %w", err)
		}
		m.FeeTiming = domain.FeeTiming(feeTiming)
		m.State = domain.MarketState(state)
		m.ResolvedOutcome = domain.Side(outcome.String)
		createdAt, err := parseTime(created)
		if err != nil {
			return nil, fmt.Errorf("storage.getMarkets: market %s: %w", m.ID, err)
		}
		m.CreatedAt = createdAt

		st.MarketID = m.ID
		st.Outcome = m.ResolvedOutcome
		st.TotalDeposits = m.TotalDeposits()
		st.FeesCollected = m.TotalFees
		if resolved.Valid {
			if st.ResolvedAt, err = parseTime(resolved.String); err != nil {
				return nil, fmt.Errorf("storage.getMarkets: market %s: %w", m.ID, err)
			}
		}
		out = append(out, res)
	}
	return out, rows.Err()
}

// pruneOld elimina ejecuciones antiguas para mantener la DB ligera.
func (s *SQLiteStorage) pruneOld(ctx context.Context) {
	cutoff := formatTime(time.Now().Add(-retentionRuns))
	s.db.ExecContext(ctx, `
		DELETE FROM orders WHERE market_id IN (
			SELECT m.id FROM markets m JOIN runs r ON r.id = m.run_id WHERE r.finished_at < ?
		)`, cutoff)
	s.db.ExecContext(ctx, `
		DELETE FROM markets WHERE run_id IN (SELECT id FROM runs WHERE finished_at < ?)`, cutoff)
	s.db.ExecContext(ctx, `DELETE FROM runs WHERE finished_at < ?`, cutoff)
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(v string) (time.Time, error) {
	t, err := time.Parse(timeLayout, v)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse time %q: %w", v, err)
	}
	return t, nil
}
