package metrics

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "callcoach"

var (
	analysisTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "analysis_total",
		Help:      "Analyses finished, by outcome.",
	}, []string{"outcome"})

	analysisDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "analysis_duration_seconds",
		Help:      "End-to-end analysis duration in seconds.",
		Buckets:   []float64{0.25, 0.5, 1, 2, 5, 10, 20, 30, 60, 120},
	})

	providerAttempts = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "provider_attempts_total",
		Help:      "Provider calls, by provider and outcome.",
	}, []string{"provider", "outcome"})

	providerAttemptDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "provider_attempt_duration_seconds",
		Help:      "Provider call duration in seconds.",
		Buckets:   []float64{0.25, 0.5, 1, 2, 5, 10, 20, 45},
	}, []string{"provider"})

	fallbackTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "fallback_total",
		Help:      "Fallbacks from one provider to another.",
	}, []string{"from", "to"})

	truncatedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "provider_input_truncated_total",
		Help:      "Provider calls whose transcript was cut to the provider budget.",
	}, []string{"provider"})
)

// ObserveAnalysis records a finished analysis with its outcome ("success" or an error kind).
func ObserveAnalysis(outcome string, d time.Duration) {
	analysisTotal.WithLabelValues(outcome).Inc()
	analysisDuration.Observe(d.Seconds())
}

// ObserveAttempt records one provider call.
func ObserveAttempt(provider, outcome string, d time.Duration) {
	providerAttempts.WithLabelValues(provider, outcome).Inc()
	providerAttemptDuration.WithLabelValues(provider).Observe(d.Seconds())
}

// IncFallback counts a fallback between providers.
func IncFallback(from, to string) {
	fallbackTotal.WithLabelValues(from, to).Inc()
}

// IncTruncated counts a truncated provider input.
func IncTruncated(provider string) {
	truncatedTotal.WithLabelValues(provider).Inc()
}

// Handler exposes metrics in Prometheus text format.
func Handler() gin.HandlerFunc {
	return gin.WrapH(promhttp.Handler())
}
