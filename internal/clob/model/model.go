// Package model defines the order, trade and book types shared by the
// matching engine and its consumers.
package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/orbitex/clob/pkg/errors"
)

// Order sides
const (
	SideBuy  = "BUY"
	SideSell = "SELL"
)

// Order statuses. Status is fully derived from RemainingQuantity and is
// recomputed on every fill.
const (
	StatusOpen            = "OPEN"
	StatusPartiallyFilled = "PARTIALLY_FILLED"
	StatusFilled          = "FILLED"
)

// OrderInput is an order request as submitted by a trader.
type OrderInput struct {
	Trader   string          `json:"trader"`
	Side     string          `json:"side"`
	Price    decimal.Decimal `json:"price"`
	Quantity decimal.Decimal `json:"quantity"`
}

// Validate rejects malformed input before any book mutation.
func (in OrderInput) Validate() error {
	err := errors.Invalid
	ok := true
	if in.Trader == "" {
		err = err.WithField("trader", "must not be empty")
		ok = false
	}
	if in.Side != SideBuy && in.Side != SideSell {
		err = err.WithField("side", "must be BUY or SELL")
		ok = false
	}
	if !in.Price.IsPositive() {
		err = err.WithField("price", "must be positive")
		ok = false
	}
	if !in.Quantity.IsPositive() {
		err = err.WithField("quantity", "must be positive")
		ok = false
	}
	if !ok {
		return err.Explain("invalid order input")
	}
	return nil
}

// Order is a resting or historical order. The order ledger owns the canonical
// value; everything handed out of the engine is a copy.
type Order struct {
	ID                uuid.UUID       `json:"id"`
	Trader            string          `json:"trader"`
	Side              string          `json:"side"`
	Price             decimal.Decimal `json:"price"`
	OriginalQuantity  decimal.Decimal `json:"original_quantity"`
	RemainingQuantity decimal.Decimal `json:"remaining_quantity"`
	Status            string          `json:"status"`
	TradeIDs          []int64         `json:"trade_ids"`
	// Sequence is a strictly monotonic logical clock assigned at creation.
	// It is the only input to time priority; CreatedAt is display-only.
	Sequence  uint64    `json:"sequence"`
	CreatedAt time.Time `json:"created_at"`
}

// Clone returns a deep copy safe to hand outside the engine lock.
func (o *Order) Clone() Order {
	c := *o
	c.TradeIDs = append([]int64(nil), o.TradeIDs...)
	return c
}

// FilledQuantity is the cumulative matched quantity.
func (o *Order) FilledQuantity() decimal.Decimal {
	return o.OriginalQuantity.Sub(o.RemainingQuantity)
}

// Trade is an immutable execution record. Price is always the resting
// (maker) order's price.
type Trade struct {
	ID          int64           `json:"id"`
	Price       decimal.Decimal `json:"price"`
	Quantity    decimal.Decimal `json:"quantity"`
	BuyOrderID  uuid.UUID       `json:"buy_order_id"`
	SellOrderID uuid.UUID       `json:"sell_order_id"`
	ExecutedAt  time.Time       `json:"executed_at"`
}

// PriceLevel is one row of the aggregated book: total resting quantity at a
// price on one side.
type PriceLevel struct {
	Price    decimal.Decimal `json:"price"`
	Quantity decimal.Decimal `json:"quantity"`
}

// AggregatedBook is the public projection of open liquidity. Bids are sorted
// descending by price, asks ascending.
type AggregatedBook struct {
	Bids []PriceLevel `json:"bids"`
	Asks []PriceLevel `json:"asks"`
}

// TopOfBook is the best bid/ask view. Nil level means the side is empty.
type TopOfBook struct {
	BestBid *PriceLevel      `json:"best_bid,omitempty"`
	BestAsk *PriceLevel      `json:"best_ask,omitempty"`
	Spread  *decimal.Decimal `json:"spread,omitempty"`
}
