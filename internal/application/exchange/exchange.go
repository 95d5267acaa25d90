package exchange

import (
	"errors"
	"fmt"
	"sync"

	"github.com/alejandrodnm/lmsrmm/internal/domain"
)

var (
	ErrMarketNotFound  = errors.New("market not found")
	ErrDuplicateMarket = errors.New("market already exists")
)

// Exchange es el registro de mercados abiertos en el proceso. Cada mercado
// serializa sus propias operaciones; el registro solo protege el mapa.
type Exchange struct {
	mu      sync.RWMutex
	markets map[string]*domain.Market
	order   []string
}

// New crea un registro vacío.
func New() *Exchange {
	return &Exchange{markets: make(map[string]*domain.Market)}
}

// Create construye y registra un mercado nuevo.
func (e *Exchange) Create(id, name string, riskCap float64, opts domain.Options) (*domain.Market, error) {
	m, err := domain.NewMarket(id, name, riskCap, opts)
	if err != nil {
		return nil, fmt.Errorf("exchange.Create: %w", err)
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if _, ok := e.markets[m.ID()]; ok {
		return nil, fmt.Errorf("exchange.Create %s: %w", m.ID(), ErrDuplicateMarket)
	}
	e.markets[m.ID()] = m
	e.order = append(e.order, m.ID())
	return m, nil
}

// Get devuelve el mercado con ese ID.
func (e *Exchange) Get(id string) (*domain.Market, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	m, ok := e.markets[id]
	if !ok {
		return nil, fmt.Errorf("exchange.Get %s: %w", id, ErrMarketNotFound)
	}
	return m, nil
}

// List devuelve los mercados en orden de creación.
func (e *Exchange) List() []*domain.Market {
	e.mu.RLock()
	defer e.mu.RUnlock()
	out := make([]*domain.Market, 0, len(e.order))
	for _, id := range e.order {
		out = append(out, e.markets[id])
	}
	return out
}

// Open devuelve los mercados que aún no se resolvieron.
func (e *Exchange) Open() []*domain.Market {
	var open []*domain.Market
	for _, m := range e.List() {
		if m.State() == domain.StateOpen {
			open = append(open, m)
		}
	}
	return open
}
