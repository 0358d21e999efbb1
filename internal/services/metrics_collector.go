package services

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/temcen/vendex/pkg/models"
)

const (
	OutcomeComputed = "computed"
	OutcomeCached   = "cached"
	OutcomeInvalid  = "invalid"
	OutcomeError    = "error"
)

// MetricsCollector records comparison business metrics
type MetricsCollector struct {
	comparisonRequests *prometheus.CounterVec
	comparisonLatency  prometheus.Histogram
	vendorsCompared    prometheus.Histogram
	topVendorScore     prometheus.Histogram
	recommendations    *prometheus.CounterVec
	sideEffectFailures *prometheus.CounterVec
}

// NewMetricsCollector registers the comparison metrics with reg.
func NewMetricsCollector(reg prometheus.Registerer) *MetricsCollector {
	factory := promauto.With(reg)

	return &MetricsCollector{
		comparisonRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "vendex_comparison_requests_total",
			Help: "Total number of comparison requests by outcome",
		}, []string{"outcome"}),

		comparisonLatency: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "vendex_comparison_latency_seconds",
			Help:    "Comparison latency in seconds, including cache and history I/O",
			Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1.0},
		}),

		vendorsCompared: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "vendex_vendors_per_comparison",
			Help:    "Number of vendors in each computed comparison",
			Buckets: []float64{2, 3, 5, 8, 13, 21, 50},
		}),

		topVendorScore: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "vendex_top_vendor_score",
			Help:    "Total score of the top-ranked vendor",
			Buckets: prometheus.LinearBuckets(0, 10, 11),
		}),

		recommendations: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "vendex_recommendations_total",
			Help: "Recommendations emitted by type and priority",
		}, []string{"type", "priority"}),

		sideEffectFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "vendex_side_effect_failures_total",
			Help: "Cache, history and event failures that did not fail a comparison",
		}, []string{"target"}),
	}
}

func (m *MetricsCollector) RecordRequest(outcome string, duration time.Duration) {
	m.comparisonRequests.WithLabelValues(outcome).Inc()
	m.comparisonLatency.Observe(duration.Seconds())
}

func (m *MetricsCollector) RecordResult(result *models.ComparisonResult) {
	m.vendorsCompared.Observe(float64(len(result.Vendors)))
	m.topVendorScore.Observe(result.TopVendor.TotalScore)
	for _, rec := range result.Recommendations {
		m.recommendations.WithLabelValues(rec.Type, string(rec.Priority)).Inc()
	}
}

func (m *MetricsCollector) RecordSideEffectFailure(target string) {
	m.sideEffectFailures.WithLabelValues(target).Inc()
}
