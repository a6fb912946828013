// Package observability groups the Prometheus instruments for the screener.
package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics groups all Prometheus instruments used by the conversation core.
type Metrics struct {
	Turns                *prometheus.CounterVec
	ValidationRejections *prometheus.CounterVec
	GenerationFallbacks  prometheus.Counter
	SessionsFinished     *prometheus.CounterVec
	PersistFailures      prometheus.Counter
}

// NewMetrics registers the instruments on the provided registerer.
func NewMetrics(namespace string, reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		Turns: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "turns_total",
			Help:      "User turns processed by the conversation manager, by state.",
		}, []string{"state"}),
		ValidationRejections: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "validation_rejections_total",
			Help:      "Rejected inputs by field and reason.",
		}, []string{"field", "reason"}),
		GenerationFallbacks: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "generation_fallbacks_total",
			Help:      "Questions served from the static fallback bank.",
		}),
		SessionsFinished: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sessions_finished_total",
			Help:      "Finished sessions by status (completed or partial).",
		}, []string{"status"}),
		PersistFailures: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "persist_failures_total",
			Help:      "Failed candidate record persistence attempts.",
		}),
	}
}
