package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Tx types recorded by the liquidity actions.
const (
	TxApprove = "approve"
	TxMint    = "mint"
)

// Metrics holds the Prometheus collectors for agent actions.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	ActionsTotal   *prometheus.CounterVec
	ActionDuration *prometheus.HistogramVec
	TxTotal        *prometheus.CounterVec
}

// New creates and registers all collectors on reg.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	factory := promauto.With(reg)

	return &Metrics{
		ActionsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "lpagent_actions_total",
				Help: "Agent actions by name and outcome",
			},
			[]string{"action", "outcome"},
		),

		ActionDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "lpagent_action_duration_seconds",
				Help:    "Agent action wall time in seconds",
				Buckets: []float64{0.1, 0.25, 0.5, 1, 2, 5, 15, 30, 60, 120, 300},
			},
			[]string{"action"},
		),

		TxTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "lpagent_transactions_total",
				Help: "Transactions by status and type",
			},
			[]string{"status", "tx_type"},
		),
	}
}

// RecordAction records one finished action.
func (m *Metrics) RecordAction(action, outcome string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.ActionsTotal.WithLabelValues(action, outcome).Inc()
	m.ActionDuration.WithLabelValues(action).Observe(elapsed.Seconds())
}

// RecordTxSent records a broadcast transaction.
func (m *Metrics) RecordTxSent(txType string) {
	if m == nil {
		return
	}
	m.TxTotal.WithLabelValues("sent", txType).Inc()
}

// RecordTxConfirmed records a successful receipt.
func (m *Metrics) RecordTxConfirmed(txType string) {
	if m == nil {
		return
	}
	m.TxTotal.WithLabelValues("confirmed", txType).Inc()
}

// RecordTxFailed records a reverted or unconfirmed transaction.
func (m *Metrics) RecordTxFailed(txType string) {
	if m == nil {
		return
	}
	m.TxTotal.WithLabelValues("failed", txType).Inc()
}

// Handler serves the metrics gathered by g.
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}
