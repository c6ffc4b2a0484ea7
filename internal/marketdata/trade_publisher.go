// Package marketdata publishes executed trades to downstream consumers.
package marketdata

import (
	"context"
	"encoding/json"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/orbitex/clob/internal/clob/model"
)

// KafkaTradePublisher streams trades to a Kafka topic. Publishing is
// asynchronous: PublishTrade enqueues and returns immediately so the order
// path never waits on the broker; a full queue drops the trade with a log
// line rather than applying backpressure to matching.
type KafkaTradePublisher struct {
	symbol string
	writer *kafka.Writer
	logger *zap.Logger
	queue  chan model.Trade
	done   chan struct{}
}

// NewKafkaTradePublisher creates a publisher for the given brokers and topic
// and starts its delivery loop.
func NewKafkaTradePublisher(symbol string, brokers []string, topic string, logger *zap.Logger) *KafkaTradePublisher {
	p := &KafkaTradePublisher{
		symbol: symbol,
		writer: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Topic:        topic,
			Balancer:     &kafka.LeastBytes{},
			BatchTimeout: 10 * time.Millisecond,
		},
		logger: logger,
		queue:  make(chan model.Trade, 1024),
		done:   make(chan struct{}),
	}
	go p.run()
	return p
}

// PublishTrade implements engine.TradePublisher.
func (p *KafkaTradePublisher) PublishTrade(t model.Trade) {
	select {
	case p.queue <- t:
	default:
		p.logger.Warn("trade feed queue full, dropping trade",
			zap.String("symbol", p.symbol),
			zap.Int64("trade_id", t.ID))
	}
}

type tradeMessage struct {
	Symbol string `json:"symbol"`
	model.Trade
}

func (p *KafkaTradePublisher) run() {
	defer close(p.done)
	for t := range p.queue {
		payload, err := json.Marshal(tradeMessage{Symbol: p.symbol, Trade: t})
		if err != nil {
			p.logger.Error("trade marshal failed", zap.Int64("trade_id", t.ID), zap.Error(err))
			continue
		}
		err = p.writer.WriteMessages(context.Background(), kafka.Message{
			Key:   []byte(p.symbol),
			Value: payload,
		})
		if err != nil {
			p.logger.Error("kafka publish failed", zap.Int64("trade_id", t.ID), zap.Error(err))
		}
	}
}

// Close drains the queue and shuts down the writer.
func (p *KafkaTradePublisher) Close() error {
	close(p.queue)
	<-p.done
	return p.writer.Close()
}
