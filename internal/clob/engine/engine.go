// Package engine implements the matching core of a single-instrument central
// limit order book: price-time priority continuous double auction matching,
// order and trade ledgers, and the aggregated book projection.
package engine

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/orbitex/clob/internal/clob/model"
	"github.com/orbitex/clob/internal/clob/orderbook"
	"github.com/orbitex/clob/pkg/errors"
	"github.com/orbitex/clob/pkg/metrics"
)

// TradePublisher receives every executed trade. Implementations must not
// block: trades are handed over outside the matching lock, but on the
// submitting request's goroutine.
type TradePublisher interface {
	PublishTrade(model.Trade)
}

type nopPublisher struct{}

func (nopPublisher) PublishTrade(model.Trade) {}

// Option configures an Engine.
type Option func(*Engine)

// WithTradePublisher routes executed trades to p.
func WithTradePublisher(p TradePublisher) Option {
	return func(e *Engine) { e.publisher = p }
}

// Engine is the matching engine for one instrument. All state behind the
// lock: the order ledger owns every order, the trade ledger owns every
// trade, and the two side books hold resting order ids. One engine instance
// per listed instrument; construct on listing, drop on delisting.
type Engine struct {
	symbol    string
	logger    *zap.Logger
	publisher TradePublisher

	mu     sync.RWMutex
	seq    uint64
	orders *OrderLedger
	trades *TradeLedger
	bids   *orderbook.SideBook
	asks   *orderbook.SideBook
}

// New creates an engine with an empty book for the given instrument.
func New(symbol string, logger *zap.Logger, opts ...Option) *Engine {
	e := &Engine{
		symbol:    symbol,
		logger:    logger,
		publisher: nopPublisher{},
		orders:    NewOrderLedger(),
		trades:    NewTradeLedger(),
		bids:      orderbook.New(model.SideBuy),
		asks:      orderbook.New(model.SideSell),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Symbol returns the instrument this engine matches.
func (e *Engine) Symbol() string { return e.symbol }

// CreateOrder validates the input, matches it against the opposite book
// under price-time priority and rests any unfilled remainder. The whole
// match-and-insert sequence runs as one critical section; executed trades
// are published after the lock is released.
func (e *Engine) CreateOrder(in model.OrderInput) (model.Order, error) {
	start := time.Now()
	if err := in.Validate(); err != nil {
		metrics.OrdersRejected.Inc()
		return model.Order{}, err
	}

	e.mu.Lock()
	e.seq++
	taker := e.orders.Create(in, e.seq)
	executed, err := e.match(taker)
	if err != nil {
		e.mu.Unlock()
		e.logger.Error("matching invariant violated",
			zap.String("symbol", e.symbol),
			zap.String("order_id", taker.ID.String()),
			zap.Error(err))
		return model.Order{}, err
	}
	out := taker.Clone()
	published := make([]model.Trade, len(executed))
	for i, t := range executed {
		published[i] = *t
	}
	metrics.BidLevels.Set(float64(e.bids.Depth()))
	metrics.AskLevels.Set(float64(e.asks.Depth()))
	e.mu.Unlock()

	metrics.OrdersProcessed.WithLabelValues(in.Side).Inc()
	metrics.TradesExecuted.Add(float64(len(published)))
	metrics.OrderLatency.Observe(time.Since(start).Seconds())

	for _, t := range published {
		e.publisher.PublishTrade(t)
	}
	e.logger.Debug("order processed",
		zap.String("symbol", e.symbol),
		zap.String("order_id", out.ID.String()),
		zap.String("trader", out.Trader),
		zap.String("side", out.Side),
		zap.String("status", out.Status),
		zap.Int("trades", len(published)))
	return out, nil
}

// match walks the opposite book while the taker has remaining quantity and a
// crossing maker exists. Same-trader makers are skipped in place and never
// crossed. Returns the trades executed, in order.
func (e *Engine) match(taker *model.Order) ([]*model.Trade, error) {
	own, opp := e.bids, e.asks
	if taker.Side == model.SideSell {
		own, opp = e.asks, e.bids
	}

	var executed []*model.Trade
	for taker.RemainingQuantity.IsPositive() {
		makerID, price, ok, err := e.bestMaker(opp, taker)
		if err != nil {
			return executed, err
		}
		if !ok {
			break
		}
		maker, err := e.orders.Get(makerID)
		if err != nil {
			return executed, errors.Internal.Wrap(err).Explain("book references unknown order %s", makerID)
		}

		qty := decimal.Min(taker.RemainingQuantity, maker.RemainingQuantity)
		if err := e.orders.ApplyFill(taker.ID, qty); err != nil {
			return executed, err
		}
		if err := e.orders.ApplyFill(maker.ID, qty); err != nil {
			return executed, err
		}

		buyID, sellID := taker.ID, maker.ID
		if taker.Side == model.SideSell {
			buyID, sellID = maker.ID, taker.ID
		}
		// Trades always execute at the maker's quoted price.
		trade := e.trades.Record(price, qty, buyID, sellID)
		taker.TradeIDs = append(taker.TradeIDs, trade.ID)
		maker.TradeIDs = append(maker.TradeIDs, trade.ID)
		executed = append(executed, trade)

		if maker.RemainingQuantity.IsZero() {
			if err := opp.Remove(price, maker.ID); err != nil {
				return executed, err
			}
		}

		e.logger.Debug("trade executed",
			zap.String("symbol", e.symbol),
			zap.Int64("trade_id", trade.ID),
			zap.String("price", trade.Price.String()),
			zap.String("quantity", trade.Quantity.String()))
	}

	if taker.RemainingQuantity.IsPositive() {
		own.Insert(taker.Price, taker.ID)
	}
	return executed, nil
}

// bestMaker finds the highest-priority crossing maker the taker may trade
// with: best price first, FIFO within a level, own orders skipped in place.
func (e *Engine) bestMaker(opp *orderbook.SideBook, taker *model.Order) (uuid.UUID, decimal.Decimal, bool, error) {
	var (
		makerID uuid.UUID
		price   decimal.Decimal
		found   bool
		walkErr error
	)
	opp.Walk(func(lvl decimal.Decimal, ids []uuid.UUID) bool {
		if !crosses(taker, lvl) {
			return false
		}
		for _, id := range ids {
			o, err := e.orders.Get(id)
			if err != nil {
				walkErr = errors.Internal.Wrap(err).Explain("book references unknown order %s", id)
				return false
			}
			if o.Trader == taker.Trader {
				continue
			}
			makerID, price, found = id, lvl, true
			return false
		}
		// Only the taker's own orders rest here; try the next level.
		return true
	})
	return makerID, price, found, walkErr
}

// crosses reports whether a maker level at price can trade with the taker.
func crosses(taker *model.Order, price decimal.Decimal) bool {
	if taker.Side == model.SideBuy {
		return price.LessThanOrEqual(taker.Price)
	}
	return price.GreaterThanOrEqual(taker.Price)
}

// GetOrder returns a copy of the order with the given id.
func (e *Engine) GetOrder(id uuid.UUID) (model.Order, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	o, err := e.orders.Get(id)
	if err != nil {
		return model.Order{}, err
	}
	return o.Clone(), nil
}

// GetTrade returns a copy of the trade with the given id.
func (e *Engine) GetTrade(id int64) (model.Trade, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	t, err := e.trades.Get(id)
	if err != nil {
		return model.Trade{}, err
	}
	return *t, nil
}

// ListTrades returns up to limit trades, newest first.
func (e *Engine) ListTrades(limit int) []model.Trade {
	e.mu.RLock()
	defer e.mu.RUnlock()
	recent := e.trades.Recent(limit)
	out := make([]model.Trade, len(recent))
	for i, t := range recent {
		out[i] = *t
	}
	return out
}

// AggregatedBook projects the two side books into public price levels. The
// projection is computed from the canonical books on every call and owns no
// state of its own.
func (e *Engine) AggregatedBook() (model.AggregatedBook, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	bids, err := e.projectSide(e.bids)
	if err != nil {
		return model.AggregatedBook{}, err
	}
	asks, err := e.projectSide(e.asks)
	if err != nil {
		return model.AggregatedBook{}, err
	}
	return model.AggregatedBook{Bids: bids, Asks: asks}, nil
}

func (e *Engine) projectSide(b *orderbook.SideBook) ([]model.PriceLevel, error) {
	out := make([]model.PriceLevel, 0, b.Depth())
	var walkErr error
	b.Walk(func(price decimal.Decimal, ids []uuid.UUID) bool {
		qty := decimal.Zero
		for _, id := range ids {
			o, err := e.orders.Get(id)
			if err != nil {
				walkErr = errors.Internal.Wrap(err).Explain("book references unknown order %s", id)
				return false
			}
			qty = qty.Add(o.RemainingQuantity)
		}
		out = append(out, model.PriceLevel{Price: price, Quantity: qty})
		return true
	})
	if walkErr != nil {
		return nil, walkErr
	}
	return out, nil
}

// TopOfBook returns the best bid, best ask and spread. Empty sides are nil.
func (e *Engine) TopOfBook() (model.TopOfBook, error) {
	book, err := e.AggregatedBook()
	if err != nil {
		return model.TopOfBook{}, err
	}
	var top model.TopOfBook
	if len(book.Bids) > 0 {
		top.BestBid = &book.Bids[0]
	}
	if len(book.Asks) > 0 {
		top.BestAsk = &book.Asks[0]
	}
	if top.BestBid != nil && top.BestAsk != nil {
		spread := top.BestAsk.Price.Sub(top.BestBid.Price)
		top.Spread = &spread
	}
	return top, nil
}
