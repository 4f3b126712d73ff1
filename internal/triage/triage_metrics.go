package triage

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/linnemanlabs/acuity/internal/patient"
)

// Metrics holds Prometheus metrics for the triage subsystem.
type Metrics struct {
	DecisionsTotal     *prometheus.CounterVec
	SeverityTotal      *prometheus.CounterVec
	Confidence         prometheus.Histogram
	EngineDuration     prometheus.Histogram
	AlertsPerDecision  prometheus.Histogram
	DataQualityTotal   *prometheus.CounterVec
	MLCallsTotal       *prometheus.CounterVec
	MLLatency          prometheus.Histogram
	ValidationFailures *prometheus.CounterVec
	StoreFailures      prometheus.Counter
	FeedbackTotal      prometheus.Counter
	NotifyTotal        *prometheus.CounterVec
}

// NewMetrics registers and returns triage metrics on the given
// registerer.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		DecisionsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "acuity_decisions_total",
			Help: "Total triage decisions by simplified level.",
		}, []string{"level"}),
		SeverityTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "acuity_severity_total",
			Help: "Total triage decisions by six-tier severity level.",
		}, []string{"severity"}),
		Confidence: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "acuity_decision_confidence",
			Help:    "Confidence score of triage decisions.",
			Buckets: prometheus.LinearBuckets(0.50, 0.05, 10), // 0.50 .. 0.95
		}),
		EngineDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "acuity_engine_duration_seconds",
			Help:    "Duration of full engine evaluations in seconds.",
			Buckets: prometheus.ExponentialBuckets(0.0001, 4, 8), // 100µs .. ~1.6s
		}),
		AlertsPerDecision: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "acuity_alerts_per_decision",
			Help:    "Vital-sign alerts triggered per decision.",
			Buckets: prometheus.LinearBuckets(0, 1, 9), // 0 .. 8
		}),
		DataQualityTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "acuity_data_quality_total",
			Help: "Decisions by ML data-quality tier.",
		}, []string{"quality"}),
		MLCallsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "acuity_ml_calls_total",
			Help: "ML classifier consultations by outcome.",
		}, []string{"outcome"}),
		MLLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "acuity_ml_latency_seconds",
			Help:    "Latency of ML classifier calls in seconds.",
			Buckets: prometheus.ExponentialBuckets(0.005, 2, 10), // 5ms .. ~2.5s
		}),
		ValidationFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "acuity_validation_failures_total",
			Help: "Rejected triage requests by offending field.",
		}, []string{"field"}),
		StoreFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "acuity_store_failures_total",
			Help: "History persistence failures (request still served).",
		}),
		FeedbackTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "acuity_feedback_total",
			Help: "Clinician feedback records accepted.",
		}),
		NotifyTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "acuity_notify_total",
			Help: "High-acuity notifications by outcome.",
		}, []string{"outcome"}),
	}

	reg.MustRegister(
		m.DecisionsTotal,
		m.SeverityTotal,
		m.Confidence,
		m.EngineDuration,
		m.AlertsPerDecision,
		m.DataQualityTotal,
		m.MLCallsTotal,
		m.MLLatency,
		m.ValidationFailures,
		m.StoreFailures,
		m.FeedbackTotal,
		m.NotifyTotal,
	)

	return m
}

// Hooks returns EngineHooks that feed the corresponding metrics.
func (m *Metrics) Hooks() EngineHooks {
	if m == nil {
		return EngineHooks{}
	}
	return EngineHooks{
		OnMLCall: func(outcome string, duration float64) {
			m.MLCallsTotal.WithLabelValues(outcome).Inc()
			if outcome == "ok" || outcome == "error" {
				m.MLLatency.Observe(duration)
			}
		},
		OnDecision: func(d *Decision) {
			m.DecisionsTotal.WithLabelValues(d.Simplified.String()).Inc()
			m.SeverityTotal.WithLabelValues(d.Level.String()).Inc()
			m.Confidence.Observe(d.Confidence)
			m.EngineDuration.Observe(d.Duration)
			m.AlertsPerDecision.Observe(float64(len(d.Alerts)))
			m.DataQualityTotal.WithLabelValues(string(d.DataQuality)).Inc()
		},
	}
}

// nil-safe increment helpers so the Service can run without metrics in
// tests.

func (m *Metrics) incValidationFailure(err error) {
	if m == nil {
		return
	}
	field := "unknown"
	var verr *patient.ValidationError
	if errors.As(err, &verr) {
		field = verr.Field
	}
	m.ValidationFailures.WithLabelValues(field).Inc()
}

func (m *Metrics) incStoreFailure() {
	if m == nil {
		return
	}
	m.StoreFailures.Inc()
}

func (m *Metrics) incFeedback() {
	if m == nil {
		return
	}
	m.FeedbackTotal.Inc()
}

func (m *Metrics) incNotify(outcome string) {
	if m == nil {
		return
	}
	m.NotifyTotal.WithLabelValues(outcome).Inc()
}
