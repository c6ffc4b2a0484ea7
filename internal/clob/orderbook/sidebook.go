// Package orderbook implements one side of a limit order book: an ordered
// map of price levels, each holding a FIFO queue of resting order ids.
//
// The book stores identifiers only. Order values live in the engine's order
// ledger; a level never owns or copies an order.
package orderbook

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/tidwall/btree"

	"github.com/orbitex/clob/internal/clob/model"
	"github.com/orbitex/clob/pkg/errors"
)

// level is a single price level. The queue is strictly FIFO: ids are
// appended on insert and matched from the front.
type level struct {
	price decimal.Decimal
	queue []uuid.UUID
}

func byPrice(a, b *level) bool {
	return a.price.LessThan(b.price)
}

// SideBook is the set of resting orders for one side, ordered by price.
// A level exists iff it holds at least one order id; empty levels are
// removed immediately. Not safe for concurrent use; the engine serializes
// access.
type SideBook struct {
	side   string
	levels *btree.BTreeG[*level]
}

// New creates an empty book for the given side (model.SideBuy or
// model.SideSell).
func New(side string) *SideBook {
	return &SideBook{
		side:   side,
		levels: btree.NewBTreeG(byPrice),
	}
}

// Side returns the side this book holds.
func (b *SideBook) Side() string { return b.side }

// Insert appends an order id to the FIFO queue at price, creating the level
// if absent.
func (b *SideBook) Insert(price decimal.Decimal, orderID uuid.UUID) {
	key := &level{price: price}
	if lvl, ok := b.levels.Get(key); ok {
		lvl.queue = append(lvl.queue, orderID)
		return
	}
	key.queue = append(key.queue, orderID)
	b.levels.Set(key)
}

// Remove deletes an order id from the level at price. The level is deleted
// once its queue empties. A missing level or id means the book and ledger
// have diverged, which is an invariant violation.
func (b *SideBook) Remove(price decimal.Decimal, orderID uuid.UUID) error {
	lvl, ok := b.levels.Get(&level{price: price})
	if !ok {
		return errors.Internal.Explain("no %s level at price %s", b.side, price)
	}
	for i, id := range lvl.queue {
		if id == orderID {
			lvl.queue = append(lvl.queue[:i], lvl.queue[i+1:]...)
			if len(lvl.queue) == 0 {
				b.levels.Delete(lvl)
			}
			return nil
		}
	}
	return errors.Internal.Explain("order %s not at %s level %s", orderID, b.side, price)
}

// RemoveFront pops the FIFO head at price.
func (b *SideBook) RemoveFront(price decimal.Decimal) error {
	lvl, ok := b.levels.Get(&level{price: price})
	if !ok {
		return errors.Internal.Explain("no %s level at price %s", b.side, price)
	}
	if len(lvl.queue) == 0 {
		return errors.Internal.Explain("empty %s level indexed at price %s", b.side, price)
	}
	return b.Remove(price, lvl.queue[0])
}

// FrontAt peeks the FIFO head at price without removing it.
func (b *SideBook) FrontAt(price decimal.Decimal) (uuid.UUID, bool) {
	lvl, ok := b.levels.Get(&level{price: price})
	if !ok || len(lvl.queue) == 0 {
		return uuid.Nil, false
	}
	return lvl.queue[0], true
}

// BestPrice returns the best price with at least one resting order: the
// highest bid or the lowest ask.
func (b *SideBook) BestPrice() (decimal.Decimal, bool) {
	var lvl *level
	var ok bool
	if b.side == model.SideBuy {
		lvl, ok = b.levels.Max()
	} else {
		lvl, ok = b.levels.Min()
	}
	if !ok {
		return decimal.Zero, false
	}
	return lvl.price, true
}

// Walk visits levels in priority order (descending prices for bids,
// ascending for asks) until fn returns false. The id slice is the live
// queue: callers must not retain or mutate it, and must not mutate the book
// during the walk.
func (b *SideBook) Walk(fn func(price decimal.Decimal, orderIDs []uuid.UUID) bool) {
	iter := func(lvl *level) bool {
		return fn(lvl.price, lvl.queue)
	}
	if b.side == model.SideBuy {
		b.levels.Reverse(iter)
	} else {
		b.levels.Scan(iter)
	}
}

// Depth returns the number of occupied price levels.
func (b *SideBook) Depth() int {
	return b.levels.Len()
}

// Orders returns the total count of resting order ids across all levels.
func (b *SideBook) Orders() int {
	n := 0
	b.levels.Scan(func(lvl *level) bool {
		n += len(lvl.queue)
		return true
	})
	return n
}
