package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// Metrics holds the service counters. A nil *Metrics is valid and records nothing.
type Metrics struct {
	Registry *prometheus.Registry

	authRejections          *prometheus.CounterVec
	recommendationFallbacks *prometheus.CounterVec
	ledgerFailures          *prometheus.CounterVec
}

func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	m := &Metrics{
		Registry: registry,
		authRejections: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "propertyhub",
			Name:      "auth_rejections_total",
			Help:      "Bearer tokens rejected by the authenticator, by reason.",
		}, []string{"reason"}),
		recommendationFallbacks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "propertyhub",
			Name:      "recommendation_fallbacks_total",
			Help:      "Recommendation queries answered with an empty list, by stage.",
		}, []string{"stage"}),
		ledgerFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "propertyhub",
			Name:      "ledger_failures_total",
			Help:      "Failed on-chain transactions, by operation.",
		}, []string{"operation"}),
	}
	registry.MustRegister(m.authRejections, m.recommendationFallbacks, m.ledgerFailures)
	return m
}

func (m *Metrics) AuthRejected(reason string) {
	if m == nil {
		return
	}
	m.authRejections.WithLabelValues(reason).Inc()
}

func (m *Metrics) RecommendationFallback(stage string) {
	if m == nil {
		return
	}
	m.recommendationFallbacks.WithLabelValues(stage).Inc()
}

func (m *Metrics) LedgerFailed(operation string) {
	if m == nil {
		return
	}
	m.ledgerFailures.WithLabelValues(operation).Inc()
}
