// Package metrics exposes Symbol Engine activity as Prometheus
// collectors. Grounded on the retrieval pack's Prometheus usage
// (UmarFarooq-MP-Loki, vegaprotocol-vega); the engine domain itself
// carries no metrics library of its own since spec.md's Non-goals
// exclude an observability layer as a first-class component — this
// package is the ambient-stack exception that still ships structured
// telemetry the way the rest of the corpus does.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/novaclob/matching-engine/internal/engine/model"
)

// Metrics implements engine.EngineMetrics against a Prometheus registry.
type Metrics struct {
	commandLatency *prometheus.HistogramVec
	tradeCount     *prometheus.CounterVec
	tradeVolume    *prometheus.CounterVec
	inboxDepth     *prometheus.GaugeVec
	backpressure   *prometheus.CounterVec
}

// New registers this package's collectors on reg and returns a Metrics
// ready to pass to engine.SymbolEngineConfig.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		commandLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "matching_engine",
			Name:      "command_latency_seconds",
			Help:      "Time to apply one command against a symbol's book.",
			Buckets:   prometheus.ExponentialBuckets(1e-6, 4, 12),
		}, []string{"symbol", "kind"}),
		tradeCount: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "matching_engine",
			Name:      "trades_total",
			Help:      "Trades executed, by symbol.",
		}, []string{"symbol"}),
		tradeVolume: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "matching_engine",
			Name:      "trade_quantity_total",
			Help:      "Cumulative traded quantity in lots, by symbol.",
		}, []string{"symbol"}),
		inboxDepth: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "matching_engine",
			Name:      "inbox_depth",
			Help:      "Commands currently queued in a symbol's inbox.",
		}, []string{"symbol"}),
		backpressure: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "matching_engine",
			Name:      "backpressure_rejections_total",
			Help:      "Commands rejected because a symbol's inbox was full.",
		}, []string{"symbol"}),
	}
	reg.MustRegister(m.commandLatency, m.tradeCount, m.tradeVolume, m.inboxDepth, m.backpressure)
	return m
}

// ObserveCommand records how long one command took to apply.
func (m *Metrics) ObserveCommand(symbol, kind string, dur time.Duration) {
	m.commandLatency.WithLabelValues(symbol, kind).Observe(dur.Seconds())
}

// ObserveTrade records one executed trade.
func (m *Metrics) ObserveTrade(symbol string, qty model.Quantity, _ model.Price) {
	m.tradeCount.WithLabelValues(symbol).Inc()
	m.tradeVolume.WithLabelValues(symbol).Add(float64(qty))
}

// SetInboxDepth reports the current inbox queue depth for symbol.
func (m *Metrics) SetInboxDepth(symbol string, depth int) {
	m.inboxDepth.WithLabelValues(symbol).Set(float64(depth))
}

// IncBackpressure records one Backpressure rejection for symbol.
func (m *Metrics) IncBackpressure(symbol string) {
	m.backpressure.WithLabelValues(symbol).Inc()
}
