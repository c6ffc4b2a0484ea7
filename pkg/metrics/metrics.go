package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// OrdersProcessed counts accepted orders by side (BUY/SELL)
var OrdersProcessed = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "clob_orders_processed_total",
		Help: "Total number of orders accepted by the matching engine",
	},
	[]string{"side"},
)

// OrdersRejected counts orders rejected before any book mutation
var OrdersRejected = prometheus.NewCounter(
	prometheus.CounterOpts{
		Name: "clob_orders_rejected_total",
		Help: "Total number of orders rejected as invalid",
	},
)

// TradesExecuted counts executed trades
var TradesExecuted = prometheus.NewCounter(
	prometheus.CounterOpts{
		Name: "clob_trades_executed_total",
		Help: "Total number of trades executed",
	},
)

// OrderLatency records latency distribution for order processing
var OrderLatency = prometheus.NewHistogram(
	prometheus.HistogramOpts{
		Name:    "clob_order_processing_latency_seconds",
		Help:    "Latency in seconds to match and book a single order",
		Buckets: prometheus.DefBuckets,
	},
)

// Book depth gauges, updated after every match-and-insert sequence
var (
	BidLevels = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "clob_bid_price_levels",
			Help: "Number of occupied bid price levels",
		},
	)

	AskLevels = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "clob_ask_price_levels",
			Help: "Number of occupied ask price levels",
		},
	)
)

func init() {
	prometheus.MustRegister(OrdersProcessed, OrdersRejected, TradesExecuted, OrderLatency)
	prometheus.MustRegister(BidLevels, AskLevels)
}
