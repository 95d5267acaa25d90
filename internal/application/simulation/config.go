package simulation

import (
	"fmt"

	"github.com/alejandrodnm/lmsrmm/internal/domain"
)

// Mode elige el flujo de órdenes que se envía a cada mercado.
type Mode string

const (
	// ModeFill compra lados al azar hasta agotar la capacidad de riesgo.
	ModeFill Mode = "fill"
	// ModeUsers simula participantes que compran y venden contra el mercado.
	ModeUsers Mode = "users"
	// ModeSkew envía compras al azar con skew de inventario activado.
	ModeSkew Mode = "skew"
)

// ParseMode valida el modo de configuración.
func ParseMode(v string) (Mode, error) {
	switch Mode(v) {
	case ModeFill, ModeUsers, ModeSkew:
		return Mode(v), nil
	}
	return "", fmt.Errorf("simulation.ParseMode: unknown mode %q", v)
}

// Config controla una ejecución de simulación.
type Config struct {
	Mode    Mode
	Markets int // mercados independientes, simulados en paralelo

	MarketName string
	RiskCap    float64
	Options    domain.Options

	Users       int
	Trades      int     // trades por mercado (users, skew)
	MinStake    float64 // stake mínimo; en fill también es el umbral de parada
	MaxStake    float64
	SellDivisor float64 // users: shares a vender = tamaño sorteado / SellDivisor
	ReportEvery int     // users: reporte de riesgo cada N trades; 0 = solo al final

	OrdersPerSecond float64 // 0 = sin pacing
	Seed            int64
	Outcome         domain.Side // vacío = se sortea con el seed
}

// defaultSkewFactor es el skew que usa ModeSkew si la config no trae uno.
const defaultSkewFactor = 0.01

// DefaultConfig devuelve los parámetros de cada flujo.
func DefaultConfig(mode Mode) Config {
	cfg := Config{
		Mode:        mode,
		Markets:     1,
		MarketName:  "Will it rain tomorrow?",
		RiskCap:     100_000,
		Users:       8,
		Trades:      50,
		MinStake:    10,
		MaxStake:    5000,
		SellDivisor: 10,
		ReportEvery: 5,
	}
	switch mode {
	case ModeFill:
		cfg.MinStake, cfg.MaxStake = 25, 500
		cfg.Options.FeeRate = 0.02
	case ModeSkew:
		cfg.MinStake, cfg.MaxStake = 25, 500
		cfg.Trades = 500
		cfg.Options.FeeRate = 0.02
		cfg.Options.SkewEnabled = true
		cfg.Options.SkewFactor = defaultSkewFactor
	case ModeUsers:
		cfg.Options.FeeRate = 0.015
	}
	return cfg
}

func (c Config) validate() error {
	switch {
	case c.Markets <= 0:
		return fmt.Errorf("markets must be positive, got %d", c.Markets)
	case !(c.MinStake > 0) || c.MaxStake < c.MinStake:
		return fmt.Errorf("stake range [%v, %v] is invalid", c.MinStake, c.MaxStake)
	case c.Mode != ModeFill && c.Trades <= 0:
		return fmt.Errorf("trades must be positive, got %d", c.Trades)
	case c.Mode == ModeUsers && (c.Users <= 0 || !(c.SellDivisor > 0)):
		return fmt.Errorf("users mode needs users > 0 and sell_divisor > 0")
	case c.Outcome != "" && !c.Outcome.Valid():
		return fmt.Errorf("outcome %q: %w", c.Outcome, domain.ErrInvalidSide)
	}
	return nil
}
