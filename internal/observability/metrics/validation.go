package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/kirillkom/docgate/internal/core/domain"
)

// ValidationMetrics records pipeline outcomes and stage timings.
type ValidationMetrics struct {
	service string

	total    *prometheus.CounterVec
	duration *prometheus.HistogramVec
	pages    *prometheus.CounterVec
	score    *prometheus.HistogramVec
}

func NewValidationMetrics(service string, registerer prometheus.Registerer) *ValidationMetrics {
	total := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "docgate",
			Name:      "validation_total",
			Help:      "Validation decisions by result, reason and category.",
		},
		[]string{"service", "result", "reason", "category"},
	)
	duration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "docgate",
			Name:      "validation_duration_seconds",
			Help:      "Validation duration in seconds by pipeline stage; stage=total covers the whole call.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 20, 40},
		},
		[]string{"service", "stage"},
	)
	pages := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "docgate",
			Name:      "pages_analyzed_total",
			Help:      "Pages handed to OCR.",
		},
		[]string{"service"},
	)
	score := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "docgate",
			Name:      "score",
			Help:      "Best category score of classified documents.",
			Buckets:   []float64{0.5, 1, 1.5, 2, 2.5, 3, 3.2, 3.5, 4, 5, 6, 8},
		},
		[]string{"service", "category"},
	)
	registerer.MustRegister(total, duration, pages, score)

	return &ValidationMetrics{
		service:  service,
		total:    total,
		duration: duration,
		pages:    pages,
		score:    score,
	}
}

func (m *ValidationMetrics) ObserveStage(stage domain.Stage, d time.Duration) {
	m.duration.WithLabelValues(m.service, string(stage)).Observe(d.Seconds())
}

func (m *ValidationMetrics) ObserveOutcome(o domain.Outcome, d time.Duration) {
	result := "rejected"
	if o.Accepted {
		result = "accepted"
	}
	category := "none"
	if o.Classification != nil && o.Classification.Category != "" {
		category = string(o.Classification.Category)
		m.score.WithLabelValues(m.service, category).Observe(o.Classification.Score)
	}
	reason := string(o.Reason)
	if reason == "" {
		reason = "none"
	}
	m.total.WithLabelValues(m.service, result, reason, category).Inc()
	m.duration.WithLabelValues(m.service, "total").Observe(d.Seconds())
	if o.Pages > 0 {
		m.pages.WithLabelValues(m.service).Add(float64(o.Pages))
	}
}
