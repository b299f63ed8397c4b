// Package metrics holds the Prometheus collectors exported by the rebalancer.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry holds all Prometheus metrics for the rebalancer
type Registry struct {
	registry *prometheus.Registry

	// Rebalance request metrics
	RebalanceRequests *prometheus.CounterVec
	RebalanceDuration *prometheus.HistogramVec

	// Model output metrics
	PredictedReturn *prometheus.HistogramVec
	ModelLoaded     prometheus.Gauge

	// HTTP metrics
	HTTPRequests *prometheus.CounterVec
}

// NewRegistry creates a registry with all rebalancer metrics plus Go runtime
// and process collectors
func NewRegistry() *Registry {
	m := &Registry{
		registry: prometheus.NewRegistry(),

		RebalanceRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "rebalancer_requests_total",
				Help: "Total number of rebalance computations by strategy and outcome",
			},
			[]string{"strategy", "outcome"},
		),

		RebalanceDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "rebalancer_duration_seconds",
				Help:    "Duration of rebalance computations in seconds",
				Buckets: []float64{0.0005, 0.001, 0.0025, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0},
			},
			[]string{"strategy"},
		),

		PredictedReturn: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "rebalancer_predicted_return_7d",
				Help:    "Distribution of predicted 7-day returns by token",
				Buckets: []float64{-0.3, -0.2, -0.1, -0.05, -0.02, 0, 0.02, 0.05, 0.1, 0.2, 0.3},
			},
			[]string{"token"},
		),

		ModelLoaded: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "rebalancer_model_loaded",
				Help: "1 when a return model is loaded, 0 otherwise",
			},
		),

		HTTPRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "rebalancer_http_requests_total",
				Help: "Total number of HTTP requests by method and status code",
			},
			[]string{"method", "status"},
		),
	}

	m.registry.MustRegister(
		m.RebalanceRequests,
		m.RebalanceDuration,
		m.PredictedReturn,
		m.ModelLoaded,
		m.HTTPRequests,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return m
}

// ObserveRebalance records one rebalance computation
func (m *Registry) ObserveRebalance(strategy, outcome string, elapsed time.Duration) {
	m.RebalanceRequests.WithLabelValues(strategy, outcome).Inc()
	m.RebalanceDuration.WithLabelValues(strategy).Observe(elapsed.Seconds())
}

// ObservePrediction records one predicted return
func (m *Registry) ObservePrediction(token string, return7d float64) {
	m.PredictedReturn.WithLabelValues(token).Observe(return7d)
}

// SetModelLoaded flips the model gauge
func (m *Registry) SetModelLoaded(loaded bool) {
	if loaded {
		m.ModelLoaded.Set(1)
		return
	}
	m.ModelLoaded.Set(0)
}

// ObserveHTTP records one served HTTP request.
// Methods the router does not serve are counted as "other".
func (m *Registry) ObserveHTTP(method, status string) {
	m.HTTPRequests.WithLabelValues(methodLabel(method), status).Inc()
}

func methodLabel(method string) string {
	switch method {
	case http.MethodGet, http.MethodPost, http.MethodPut, http.MethodOptions:
		return method
	default:
		return "other"
	}
}

// Handler serves the Prometheus exposition format
func (m *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Gatherer exposes the underlying registry for tests and custom exporters
func (m *Registry) Gatherer() prometheus.Gatherer {
	return m.registry
}
