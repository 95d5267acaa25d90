package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config es la configuración completa del simulador.
type Config struct {
	Market     MarketConfig     `yaml:"market"`
	Simulation SimulationConfig `yaml:"simulation"`
	Storage    StorageConfig    `yaml:"storage"`
	Log        LogConfig        `yaml:"log"`
}

// MarketConfig define los parámetros de cada mercado creado.
type MarketConfig struct {
	Name        string  `yaml:"name"`
	RiskCap     float64 `yaml:"risk_cap"`    // pérdida máxima del market maker en USD
	FeeRate     float64 `yaml:"fee_rate"`    // fracción, ej. 0.02
	FeeTiming   string  `yaml:"fee_timing"`  // at_trade | at_resolution
	SkewEnabled bool    `yaml:"skew_enabled"`
	SkewFactor  float64 `yaml:"skew_factor"`
	InitialYes  float64 `yaml:"initial_yes"`
	InitialNo   float64 `yaml:"initial_no"`

	// ImbalanceLimit bloquea compras del lado pesado; ausente = sin límite.
	ImbalanceLimit *float64 `yaml:"imbalance_limit"`
}

// SimulationConfig controla el flujo de órdenes. Los campos en cero toman
// los valores por defecto del modo elegido.
type SimulationConfig struct {
	Mode            string  `yaml:"mode"` // fill | users | skew
	Markets         int     `yaml:"markets"`
	Users           int     `yaml:"users"`
	Trades          int     `yaml:"trades"`
	MinStake        float64 `yaml:"min_stake"`
	MaxStake        float64 `yaml:"max_stake"`
	SellDivisor     float64 `yaml:"sell_divisor"`
	ReportEvery     int     `yaml:"report_every"`
	OrdersPerSecond float64 `yaml:"orders_per_second"` // 0 = sin pacing
	Seed            int64   `yaml:"seed"`              // 0 = derivado del reloj
	Outcome         string  `yaml:"outcome"`           // YES | NO | vacío = al azar
	PrintTrades     bool    `yaml:"print_trades"`
	PrintHistory    bool    `yaml:"print_history"`
}

// StorageConfig controla dónde se persisten los datos.
type StorageConfig struct {
	DSN string `yaml:"dsn"` // ruta al archivo SQLite, o ":memory:"
}

// LogConfig controla el formato y nivel de logging.
type LogConfig struct {
	Level  string `yaml:"level"`  // debug | info | warn | error
	Format string `yaml:"format"` // text | json
}

// Load carga la configuración desde el archivo YAML y el archivo .env si existe.
// Los valores del .env sobreescriben los del YAML para las keys que correspondan.
func Load(path string) (*Config, error) {
	// Cargar .env si existe (silencia error si no hay archivo)
	_ = godotenv.Load()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config.Load: read %q: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config.Load: parse YAML: %w", err)
	}

	if err := applyEnvOverrides(&cfg); err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}
	setDefaults(&cfg)

	return &cfg, nil
}

// applyEnvOverrides sobreescribe valores con variables de entorno si están presentes.
func applyEnvOverrides(cfg *Config) error {
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("LOG_FORMAT"); v != "" {
		cfg.Log.Format = v
	}
	if v := os.Getenv("LMSR_DSN"); v != "" {
		cfg.Storage.DSN = v
	}
	if v := os.Getenv("LMSR_SEED"); v != "" {
		seed, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("LMSR_SEED %q: %w", v, err)
		}
		cfg.Simulation.Seed = seed
	}
	return nil
}

// setDefaults asegura que los valores requeridos tengan valores sensatos.
// El fee no tiene default: 0 es una configuración válida (mercado sin fee).
func setDefaults(cfg *Config) {
	if cfg.Market.Name == "" {
		cfg.Market.Name = "Will it rain tomorrow?"
	}
	if cfg.Market.RiskCap <= 0 {
		cfg.Market.RiskCap = 100_000
	}
	if cfg.Market.FeeTiming == "" {
		cfg.Market.FeeTiming = "at_trade"
	}
	if cfg.Simulation.Mode == "" {
		cfg.Simulation.Mode = "users"
	}
	if cfg.Simulation.Markets <= 0 {
		cfg.Simulation.Markets = 1
	}
	if cfg.Storage.DSN == "" {
		cfg.Storage.DSN = "lmsrmm.db"
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "text"
	}
}
