package ports

import (
	"context"

	"github.com/alejandrodnm/lmsrmm/internal/domain"
)

// Journal persiste las ejecuciones de simulación: mercados, órdenes y resoluciones.
type Journal interface {
	// SaveRun persiste la ejecución completa en una sola transacción.
	SaveRun(ctx context.Context, run domain.Run) error

	// GetRuns devuelve las últimas ejecuciones, más recientes primero.
	// Los mercados vienen sin el historial de órdenes.
	GetRuns(ctx context.Context, limit int) ([]domain.Run, error)

	// GetOrders devuelve el historial de órdenes de un mercado en orden de ejecución.
	GetOrders(ctx context.Context, marketID string) ([]domain.Order, error)

	// Close cierra la conexión a la base de datos limpiamente.
	Close() error
}
