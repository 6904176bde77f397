// Package metrics provides Prometheus metrics collection for the account dashboard.
// It defines the fetch, render, broker sync and push metrics that are exposed
// via the Prometheus metrics endpoint for monitoring and alerting.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the dashboard.
type Metrics struct {
	// Statistics fetch metrics
	StatsFetches      prometheus.Counter   // Total number of statistics fetches started
	StatsFetchErrors  prometheus.Counter   // Fetches that failed in transport or with a non-success status
	MalformedRecords  prometheus.Counter   // Fetches whose payload could not be turned into a record
	StatsFetchLatency prometheus.Histogram // Statistics fetch latency in seconds

	// Render metrics
	RendersApplied    prometheus.Counter // Renders whose directives reached the surface
	RendersSuperseded prometheus.Counter // Renders discarded because a newer render started

	// Broker sync metrics
	SyncRuns     prometheus.Counter   // Completed broker sync passes
	SyncErrors   prometheus.Counter   // Failed broker sync passes
	TradesStored prometheus.Counter   // Trades written to the ledger
	AccountNAV   *prometheus.GaugeVec // Net asset value per env and account
	SyncLatency  prometheus.Histogram // Duration of broker sync passes

	// Push metrics
	WSClients prometheus.Gauge // Connected WebSocket clients

	// System metrics
	ErrorsTotal prometheus.Counter // Total number of errors encountered
}

// New creates and registers all metrics using the default registry.
func New() *Metrics {
	return NewWithRegistry(prometheus.DefaultRegisterer)
}

// NewWithRegistry creates metrics with a custom registry (useful for testing).
func NewWithRegistry(registerer prometheus.Registerer) *Metrics {
	factory := promauto.With(registerer)
	return &Metrics{
		StatsFetches: factory.NewCounter(prometheus.CounterOpts{
			Name: "stats_fetches_total",
			Help: "Total number of statistics fetches started",
		}),
		StatsFetchErrors: factory.NewCounter(prometheus.CounterOpts{
			Name: "stats_fetch_errors_total",
			Help: "Total number of failed statistics fetches",
		}),
		MalformedRecords: factory.NewCounter(prometheus.CounterOpts{
			Name: "stats_malformed_records_total",
			Help: "Total number of statistics payloads rejected as malformed",
		}),
		StatsFetchLatency: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "stats_fetch_latency_seconds",
			Help:    "Statistics fetch latency in seconds",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0},
		}),
		RendersApplied: factory.NewCounter(prometheus.CounterOpts{
			Name: "renders_applied_total",
			Help: "Total number of renders applied to a surface",
		}),
		RendersSuperseded: factory.NewCounter(prometheus.CounterOpts{
			Name: "renders_superseded_total",
			Help: "Total number of renders discarded in favour of a newer one",
		}),
		SyncRuns: factory.NewCounter(prometheus.CounterOpts{
			Name: "broker_sync_runs_total",
			Help: "Total number of completed broker sync passes",
		}),
		SyncErrors: factory.NewCounter(prometheus.CounterOpts{
			Name: "broker_sync_errors_total",
			Help: "Total number of failed broker sync passes",
		}),
		TradesStored: factory.NewCounter(prometheus.CounterOpts{
			Name: "ledger_trades_stored_total",
			Help: "Total number of trades written to the ledger",
		}),
		AccountNAV: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name: "account_nav",
			Help: "Net asset value of an account at the last sync",
		}, []string{"env", "account"}),
		SyncLatency: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "broker_sync_duration_seconds",
			Help:    "Duration of broker sync passes in seconds",
			Buckets: prometheus.ExponentialBuckets(0.01, 2, 12),
		}),
		WSClients: factory.NewGauge(prometheus.GaugeOpts{
			Name: "ws_clients",
			Help: "Number of connected WebSocket clients",
		}),
		ErrorsTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "errors_total",
			Help: "Total number of errors encountered",
		}),
	}
}
