package ports

import (
	"context"

	"github.com/alejandrodnm/lmsrmm/internal/domain"
)

// TradeEvent es un trade aceptado durante una simulación.
type TradeEvent struct {
	Step     int
	UserID   string // vacío si el flujo no tiene participantes
	Order    domain.Order
	Position domain.Position
}

// Reporter presenta el progreso y el resultado de una simulación.
// Varios mercados reportan en paralelo: las implementaciones deben ser
// seguras para uso concurrente.
type Reporter interface {
	ReportTrade(ctx context.Context, e TradeEvent) error

	// ReportRisk muestra la vista "si se resolviera ahora" del market maker.
	ReportRisk(ctx context.Context, step int, r domain.RiskReport) error

	ReportRun(ctx context.Context, run domain.Run) error
}
