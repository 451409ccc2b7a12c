package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the channel layer
type Metrics struct {
	// Call metrics
	CallsTotal   *prometheus.CounterVec
	CallErrors   *prometheus.CounterVec
	CallDuration *prometheus.HistogramVec

	// Change bridge metrics
	ChangesForwarded *prometheus.CounterVec

	// Pool membership metrics
	Endpoints *prometheus.GaugeVec
}

// New creates a new Metrics instance registered on the default registry
func New() *Metrics {
	return NewWithRegistry(prometheus.DefaultRegisterer)
}

// NewWithRegistry creates a new Metrics instance with a custom registerer
func NewWithRegistry(registerer prometheus.Registerer) *Metrics {
	factory := promauto.With(registerer)

	return &Metrics{
		CallsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "switchboard_calls_total",
				Help: "Total number of calls issued through the channel",
			},
			[]string{"backend"},
		),
		CallErrors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "switchboard_call_errors_total",
				Help: "Total number of failed calls",
			},
			[]string{"backend", "error_type"},
		),
		CallDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "switchboard_call_duration_seconds",
				Help:    "Call latencies in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"backend"},
		),
		ChangesForwarded: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "switchboard_changes_forwarded_total",
				Help: "Total number of membership changes forwarded to a backend",
			},
			[]string{"backend", "op"},
		),
		Endpoints: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "switchboard_endpoints",
				Help: "Number of endpoints currently known to a backend pool",
			},
			[]string{"backend"},
		),
	}
}
