package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alejandrodnm/lmsrmm/config"
	"github.com/alejandrodnm/lmsrmm/internal/adapters/notify"
	"github.com/alejandrodnm/lmsrmm/internal/adapters/storage"
	"github.com/alejandrodnm/lmsrmm/internal/application/exchange"
	"github.com/alejandrodnm/lmsrmm/internal/application/simulation"
	"github.com/alejandrodnm/lmsrmm/internal/domain"
	"github.com/alejandrodnm/lmsrmm/internal/ports"
)

func main() {
	configPath := flag.String("config", "config/config.yaml", "path to config file")
	mode := flag.String("mode", "", "fill|users|skew|report (overrides config)")
	verbose := flag.Bool("verbose", false, "set log level to debug")
	logFormat := flag.String("format", "", "log format: text|json (overrides config)")
	seed := flag.Int64("seed", 0, "random seed (overrides config)")
	markets := flag.Int("markets", 0, "number of markets to simulate in parallel (overrides config)")
	history := flag.Bool("history", false, "print the order history of every market")
	noStore := flag.Bool("no-store", false, "do not journal the run to SQLite")
	limit := flag.Int("limit", 10, "report mode: number of runs to show")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load config", "err", err, "path", *configPath)
		os.Exit(1)
	}

	if *verbose {
		cfg.Log.Level = "debug"
	}
	if *logFormat != "" {
		cfg.Log.Format = *logFormat
	}
	if *mode != "" {
		cfg.Simulation.Mode = *mode
	}
	if *seed != 0 {
		cfg.Simulation.Seed = *seed
	}
	if *markets > 0 {
		cfg.Simulation.Markets = *markets
	}
	if *history {
		cfg.Simulation.PrintHistory = true
	}
	setupLogger(cfg.Log)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	reporter := notify.NewConsole(cfg.Simulation.PrintTrades, cfg.Simulation.PrintHistory)

	if cfg.Simulation.Mode == "report" {
		if err := runReport(ctx, cfg, reporter, *limit); err != nil {
			slog.Error("report failed", "err", err)
			os.Exit(1)
		}
		return
	}

	if err := runSimulation(ctx, cfg, reporter, *configPath, *noStore); err != nil {
		slog.Error("simulation failed", "err", err)
		os.Exit(1)
	}
	slog.Info("lmsrmm stopped cleanly")
}

// runSimulation arma la simulación desde la config, la ejecuta y la guarda en
// el journal salvo que noStore esté activado.
func runSimulation(ctx context.Context, cfg *config.Config, reporter ports.Reporter, configPath string, noStore bool) error {
	simCfg, err := buildSimulation(cfg)
	if err != nil {
		return fmt.Errorf("invalid simulation config: %w", err)
	}

	var journal ports.Journal
	if !noStore {
		store, err := storage.NewSQLiteStorage(cfg.Storage.DSN)
		if err != nil {
			return fmt.Errorf("open storage %q: %w", cfg.Storage.DSN, err)
		}
		defer store.Close()
		journal = store
	}

	slog.Info("lmsrmm starting",
		"config", configPath,
		"mode", simCfg.Mode,
		"markets", simCfg.Markets,
		"seed", simCfg.Seed,
		"dsn", cfg.Storage.DSN,
		"journal", journal != nil,
	)

	sim := simulation.New(simCfg, exchange.New(), journal, reporter)
	if _, err := sim.Run(ctx); err != nil {
		return err
	}
	return nil
}

// buildSimulation combina los defaults del modo con lo que trae la config.
func buildSimulation(cfg *config.Config) (simulation.Config, error) {
	mode, err := simulation.ParseMode(cfg.Simulation.Mode)
	if err != nil {
		return simulation.Config{}, err
	}
	timing, err := domain.ParseFeeTiming(cfg.Market.FeeTiming)
	if err != nil {
		return simulation.Config{}, err
	}

	sc := simulation.DefaultConfig(mode)
	sc.Markets = cfg.Simulation.Markets
	sc.MarketName = cfg.Market.Name
	sc.RiskCap = cfg.Market.RiskCap

	opts := domain.Options{
		InitialYes:     cfg.Market.InitialYes,
		InitialNo:      cfg.Market.InitialNo,
		FeeRate:        cfg.Market.FeeRate,
		FeeTiming:      timing,
		SkewEnabled:    cfg.Market.SkewEnabled,
		SkewFactor:     cfg.Market.SkewFactor,
		ImbalanceLimit: cfg.Market.ImbalanceLimit,
	}
	if mode == simulation.ModeSkew {
		opts.SkewEnabled = true
		if opts.SkewFactor == 0 {
			opts.SkewFactor = sc.Options.SkewFactor
		}
	}
	sc.Options = opts

	s := cfg.Simulation
	if s.Users > 0 {
		sc.Users = s.Users
	}
	if s.Trades > 0 {
		sc.Trades = s.Trades
	}
	if s.MinStake > 0 {
		sc.MinStake = s.MinStake
	}
	if s.MaxStake > 0 {
		sc.MaxStake = s.MaxStake
	}
	if s.SellDivisor > 0 {
		sc.SellDivisor = s.SellDivisor
	}
	if s.ReportEvery > 0 {
		sc.ReportEvery = s.ReportEvery
	}
	sc.OrdersPerSecond = s.OrdersPerSecond

	sc.Seed = s.Seed
	if sc.Seed == 0 {
		sc.Seed = time.Now().UnixNano()
	}
	if s.Outcome != "" {
		outcome, err := domain.ParseSide(s.Outcome)
		if err != nil {
			return simulation.Config{}, err
		}
		sc.Outcome = outcome
	}
	return sc, nil
}

// runReport lee las últimas ejecuciones del journal y las imprime.
func runReport(ctx context.Context, cfg *config.Config, reporter *notify.Console, limit int) error {
	store, err := storage.NewSQLiteStorage(cfg.Storage.DSN)
	if err != nil {
		return fmt.Errorf("open storage %q: %w", cfg.Storage.DSN, err)
	}
	defer store.Close()

	runs, err := store.GetRuns(ctx, limit)
	if err != nil {
		return fmt.Errorf("read runs: %w", err)
	}
	reporter.PrintRuns(runs)

	if !cfg.Simulation.PrintHistory || len(runs) == 0 {
		return nil
	}
	for _, m := range runs[0].Markets {
		orders, err := store.GetOrders(ctx, m.Market.ID)
		if err != nil {
			slog.Warn("failed to read orders", "market_id", m.Market.ID, "err", err)
			continue
		}
		reporter.PrintOrders(m.Market.ID, orders)
	}
	return nil
}

func setupLogger(cfg config.LogConfig) {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		handler = slog.NewTextHandler(os.Stderr, opts)
	}
	slog.SetDefault(slog.New(handler))
}
