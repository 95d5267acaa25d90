package domain

import (
	"fmt"
	"strings"
)

// Side es uno de los dos resultados de un contrato binario.
type Side string

const (
	SideYes Side = "YES"
	SideNo  Side = "NO"
)

// Valid devuelve true si el lado es YES o NO.
func (s Side) Valid() bool {
	return s == SideYes || s == SideNo
}

// Opposite devuelve el lado complementario.
func (s Side) Opposite() Side {
	if s == SideYes {
		return SideNo
	}
	return SideYes
}

func (s Side) String() string { return string(s) }

// ParseSide acepta "yes"/"no" (o "y"/"n") en cualquier capitalización.
func ParseSide(v string) (Side, error) {
	switch strings.ToUpper(strings.TrimSpace(v)) {
	case "YES", "Y":
		return SideYes, nil
	case "NO", "N":
		return SideNo, nil
	}
	return "", fmt.Errorf("domain.ParseSide: %q: %w", v, ErrInvalidSide)
}

// MarketState es el ciclo de vida del mercado. Solo avanza: OPEN → RESOLVED.
type MarketState string

const (
	StateOpen     MarketState = "OPEN"
	StateResolved MarketState = "RESOLVED"
)

// FeeTiming decide cuándo se cobra el fee del market maker.
type FeeTiming string

const (
	// FeeAtTrade descuenta fee_rate de cada stake al ejecutar (y lo suma al bruto en ventas).
	FeeAtTrade FeeTiming = "at_trade"
	// FeeAtResolution difiere el fee: se cobra fee_rate sobre el payout ganador al resolver.
	FeeAtResolution FeeTiming = "at_resolution"
)

// ParseFeeTiming convierte el valor de config. Vacío → FeeAtTrade.
func ParseFeeTiming(v string) (FeeTiming, error) {
	switch FeeTiming(v) {
	case "", FeeAtTrade:
		return FeeAtTrade, nil
	case FeeAtResolution:
		return FeeAtResolution, nil
	}
	return "", fmt.Errorf("domain.ParseFeeTiming: %q: %w", v, ErrInvalidConfig)
}
