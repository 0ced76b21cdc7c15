package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// JobcardMetrics records approval workflow outcomes.
type JobcardMetrics struct {
	approvals *prometheus.CounterVec
	duration  *prometheus.HistogramVec
}

// NewJobcardMetrics registers the jobcard metrics on the provided registerer.
func NewJobcardMetrics(reg prometheus.Registerer) *JobcardMetrics {
	if reg == nil {
		return &JobcardMetrics{}
	}
	approvals := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "jobcard_approvals_total",
		Help: "Jobcard approval attempts by outcome.",
	}, []string{"outcome"})
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "jobcard_approval_duration_seconds",
		Help:    "Duration of jobcard approval transactions in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"outcome"})
	reg.MustRegister(approvals, duration)
	return &JobcardMetrics{
		approvals: approvals,
		duration:  duration,
	}
}

// ObserveApproval records one approval attempt with its outcome label.
func (m *JobcardMetrics) ObserveApproval(outcome string, duration time.Duration) {
	if m == nil || m.approvals == nil {
		return
	}
	label := normalizeLabel(outcome)
	m.approvals.WithLabelValues(label).Inc()
	m.duration.WithLabelValues(label).Observe(duration.Seconds())
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
