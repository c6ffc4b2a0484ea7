package engine

import (
	"fmt"
	"math/rand"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orbitex/clob/internal/clob/model"
)

// verifyInvariants re-derives every book-level guarantee from the final
// ledger state: quantity conservation per order, bounded remainders, no
// self-trades, and an aggregated book that matches the resting orders
// exactly.
func verifyInvariants(t *testing.T, e *Engine, orderIDs []uuid.UUID) {
	t.Helper()

	trades := e.ListTrades(0)
	matchedByOrder := make(map[uuid.UUID]decimal.Decimal)
	for _, tr := range trades {
		assert.True(t, tr.Quantity.IsPositive(), "trade %d has non-positive quantity", tr.ID)

		buyer, err := e.GetOrder(tr.BuyOrderID)
		require.NoError(t, err)
		seller, err := e.GetOrder(tr.SellOrderID)
		require.NoError(t, err)
		assert.NotEqual(t, buyer.Trader, seller.Trader, "trade %d crossed a single trader", tr.ID)

		matchedByOrder[tr.BuyOrderID] = matchedByOrder[tr.BuyOrderID].Add(tr.Quantity)
		matchedByOrder[tr.SellOrderID] = matchedByOrder[tr.SellOrderID].Add(tr.Quantity)
	}

	type sideLevel struct {
		side  string
		price string
	}
	expected := make(map[sideLevel]decimal.Decimal)
	for _, id := range orderIDs {
		o, err := e.GetOrder(id)
		require.NoError(t, err)

		assert.False(t, o.RemainingQuantity.IsNegative(), "order %s has negative remainder", o.ID)
		assert.True(t, o.RemainingQuantity.LessThanOrEqual(o.OriginalQuantity))
		assert.True(t, o.FilledQuantity().Equal(matchedByOrder[o.ID]),
			"order %s: filled %s but trades sum to %s", o.ID, o.FilledQuantity(), matchedByOrder[o.ID])

		// Every order with remaining quantity rests on its book.
		if o.RemainingQuantity.IsPositive() {
			key := sideLevel{side: o.Side, price: o.Price.String()}
			expected[key] = expected[key].Add(o.RemainingQuantity)
		}
	}

	book, err := e.AggregatedBook()
	require.NoError(t, err)
	actual := make(map[sideLevel]decimal.Decimal)
	for _, lvl := range book.Bids {
		assert.True(t, lvl.Quantity.IsPositive(), "bid level %s is empty", lvl.Price)
		actual[sideLevel{side: model.SideBuy, price: lvl.Price.String()}] = lvl.Quantity
	}
	for _, lvl := range book.Asks {
		assert.True(t, lvl.Quantity.IsPositive(), "ask level %s is empty", lvl.Price)
		actual[sideLevel{side: model.SideSell, price: lvl.Price.String()}] = lvl.Quantity
	}
	require.Equal(t, len(expected), len(actual), "projection level count diverged from ledger")
	for key, want := range expected {
		got, ok := actual[key]
		require.True(t, ok, "missing %s level at %s", key.side, key.price)
		assert.True(t, got.Equal(want), "%s level %s: projection %s, ledger %s", key.side, key.price, got, want)
	}

	for i := 1; i < len(book.Bids); i++ {
		assert.True(t, book.Bids[i].Price.LessThan(book.Bids[i-1].Price), "bids out of order")
	}
	for i := 1; i < len(book.Asks); i++ {
		assert.True(t, book.Asks[i].Price.GreaterThan(book.Asks[i-1].Price), "asks out of order")
	}
}

func TestRandomizedConservation(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	e := newTestEngine()

	var ids []uuid.UUID
	for i := 0; i < 2000; i++ {
		side := model.SideBuy
		if rng.Intn(2) == 1 {
			side = model.SideSell
		}
		order, err := e.CreateOrder(model.OrderInput{
			Trader:   fmt.Sprintf("trader-%d", rng.Intn(8)),
			Side:     side,
			Price:    decimal.NewFromInt(int64(95 + rng.Intn(11))),
			Quantity: decimal.NewFromInt(int64(1 + rng.Intn(20))),
		})
		require.NoError(t, err)
		ids = append(ids, order.ID)
	}

	verifyInvariants(t, e, ids)
}

func TestConcurrentCreateOrder(t *testing.T) {
	e := newTestEngine()

	const workers = 8
	const perWorker = 200

	var mu sync.Mutex
	var ids []uuid.UUID
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			rng := rand.New(rand.NewSource(int64(w)))
			for i := 0; i < perWorker; i++ {
				side := model.SideBuy
				if (w+i)%2 == 1 {
					side = model.SideSell
				}
				order, err := e.CreateOrder(model.OrderInput{
					Trader:   fmt.Sprintf("trader-%d", w),
					Side:     side,
					Price:    decimal.NewFromInt(int64(98 + rng.Intn(5))),
					Quantity: decimal.NewFromInt(int64(1 + rng.Intn(10))),
				})
				if err != nil {
					t.Error(err)
					return
				}
				mu.Lock()
				ids = append(ids, order.ID)
				mu.Unlock()

				// Interleave reads with writes; they must always observe a
				// consistent snapshot.
				if i%20 == 0 {
					if _, err := e.AggregatedBook(); err != nil {
						t.Error(err)
						return
					}
				}
			}
		}(w)
	}
	wg.Wait()

	verifyInvariants(t, e, ids)
}

func TestSequenceStrictlyIncreasing(t *testing.T) {
	e := newTestEngine()
	var last uint64
	for i := 0; i < 10; i++ {
		order := submit(t, e, fmt.Sprintf("trader-%d", i), model.SideBuy, "100", "1")
		assert.Greater(t, order.Sequence, last)
		last = order.Sequence
	}
}
