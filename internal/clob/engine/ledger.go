package engine

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/orbitex/clob/internal/clob/model"
	"github.com/orbitex/clob/pkg/errors"
)

// OrderLedger is the single owner of every order value. Side books and
// trades reference orders by id only. Records are never deleted: filled
// orders remain queryable. Not safe for concurrent use on its own; the
// engine's lock covers it.
type OrderLedger struct {
	orders map[uuid.UUID]*model.Order
}

func NewOrderLedger() *OrderLedger {
	return &OrderLedger{orders: make(map[uuid.UUID]*model.Order)}
}

// Create allocates an id, stamps the logical clock and stores an open order.
func (l *OrderLedger) Create(in model.OrderInput, seq uint64) *model.Order {
	o := &model.Order{
		ID:                uuid.New(),
		Trader:            in.Trader,
		Side:              in.Side,
		Price:             in.Price,
		OriginalQuantity:  in.Quantity,
		RemainingQuantity: in.Quantity,
		Status:            model.StatusOpen,
		TradeIDs:          []int64{},
		Sequence:          seq,
		CreatedAt:         time.Now().UTC(),
	}
	l.orders[o.ID] = o
	return o
}

// Get returns the canonical order value.
func (l *OrderLedger) Get(id uuid.UUID) (*model.Order, error) {
	o, ok := l.orders[id]
	if !ok {
		return nil, errors.NotFound.Explain("order %s not found", id)
	}
	return o, nil
}

// ApplyFill decrements the remaining quantity and re-derives the status.
// Driving the remainder negative is an invariant violation; the order is
// left untouched in that case.
func (l *OrderLedger) ApplyFill(id uuid.UUID, qty decimal.Decimal) error {
	o, err := l.Get(id)
	if err != nil {
		return err
	}
	if !qty.IsPositive() {
		return errors.Internal.Explain("fill of %s for order %s", qty, id)
	}
	if qty.GreaterThan(o.RemainingQuantity) {
		return errors.Internal.Explain(
			"fill of %s exceeds remaining %s for order %s", qty, o.RemainingQuantity, id)
	}
	o.RemainingQuantity = o.RemainingQuantity.Sub(qty)
	switch {
	case o.RemainingQuantity.IsZero():
		o.Status = model.StatusFilled
	case o.RemainingQuantity.LessThan(o.OriginalQuantity):
		o.Status = model.StatusPartiallyFilled
	default:
		o.Status = model.StatusOpen
	}
	return nil
}

// TradeLedger owns every executed trade. Ids are sequential starting at 1
// and never reused; records are immutable once stored.
type TradeLedger struct {
	trades []*model.Trade
}

func NewTradeLedger() *TradeLedger {
	return &TradeLedger{}
}

// Record stores a new trade and returns it.
func (l *TradeLedger) Record(price, qty decimal.Decimal, buyOrderID, sellOrderID uuid.UUID) *model.Trade {
	t := &model.Trade{
		ID:          int64(len(l.trades)) + 1,
		Price:       price,
		Quantity:    qty,
		BuyOrderID:  buyOrderID,
		SellOrderID: sellOrderID,
		ExecutedAt:  time.Now().UTC(),
	}
	l.trades = append(l.trades, t)
	return t
}

// Get returns the trade with the given id.
func (l *TradeLedger) Get(id int64) (*model.Trade, error) {
	if id < 1 || id > int64(len(l.trades)) {
		return nil, errors.NotFound.Explain("trade %d not found", id)
	}
	return l.trades[id-1], nil
}

// Recent returns up to limit trades, newest first.
func (l *TradeLedger) Recent(limit int) []*model.Trade {
	if limit <= 0 || limit > len(l.trades) {
		limit = len(l.trades)
	}
	out := make([]*model.Trade, 0, limit)
	for i := len(l.trades) - 1; i >= len(l.trades)-limit; i-- {
		out = append(out, l.trades[i])
	}
	return out
}

// Count returns the number of recorded trades.
func (l *TradeLedger) Count() int {
	return len(l.trades)
}
