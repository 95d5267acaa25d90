package exchange_test

import (
	"fmt"
	"sync"
	"testing"

	"github.com/alejandrodnm/lmsrmm/internal/application/exchange"
	"github.com/alejandrodnm/lmsrmm/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExchange_CreateAndGet(t *testing.T) {
	ex := exchange.New()
	m, err := ex.Create("m1", "Will it rain tomorrow?", 1000, domain.Options{FeeRate: 0.02})
	require.NoError(t, err)

	got, err := ex.Get("m1")
	require.NoError(t, err)
	assert.Same(t, m, got)
	assert.Equal(t, "Will it rain tomorrow?", got.Name())
}

func TestExchange_Errors(t *testing.T) {
	ex := exchange.New()
	_, err := ex.Create("m1", "a", 1000, domain.Options{})
	require.NoError(t, err)

	_, err = ex.Create("m1", "b", 1000, domain.Options{})
	assert.ErrorIs(t, err, exchange.ErrDuplicateMarket)

	_, err = ex.Get("missing")
	assert.ErrorIs(t, err, exchange.ErrMarketNotFound)

	_, err = ex.Create("m2", "c", -5, domain.Options{})
	assert.ErrorIs(t, err, domain.ErrInvalidConfig)
	assert.Len(t, ex.List(), 1)
}

func TestExchange_ListKeepsCreationOrder(t *testing.T) {
	ex := exchange.New()
	for _, id := range []string{"c", "a", "b"} {
		_, err := ex.Create(id, id, 1000, domain.Options{})
		require.NoError(t, err)
	}
	var ids []string
	for _, m := range ex.List() {
		ids = append(ids, m.ID())
	}
	assert.Equal(t, []string{"c", "a", "b"}, ids)
}

func TestExchange_OpenSkipsResolved(t *testing.T) {
	ex := exchange.New()
	m1, err := ex.Create("m1", "a", 1000, domain.Options{})
	require.NoError(t, err)
	_, err = ex.Create("m2", "b", 1000, domain.Options{})
	require.NoError(t, err)

	_, err = m1.Resolve(domain.SideNo)
	require.NoError(t, err)

	open := ex.Open()
	require.Len(t, open, 1)
	assert.Equal(t, "m2", open[0].ID())
}

func TestExchange_ConcurrentCreate(t *testing.T) {
	ex := exchange.New()
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := ex.Create(fmt.Sprintf("m%02d", i), "x", 1000, domain.Options{})
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()
	assert.Len(t, ex.List(), 20)
}
