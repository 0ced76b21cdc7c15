package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// RobotMetrics records dispensing gateway round trips.
type RobotMetrics struct {
	requests *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

// NewRobotMetrics registers the gateway metrics on the provided registerer.
func NewRobotMetrics(reg prometheus.Registerer) *RobotMetrics {
	if reg == nil {
		return &RobotMetrics{}
	}
	requests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "robot_gateway_requests_total",
		Help: "Robot gateway trigger calls by result.",
	}, []string{"success"})
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "robot_gateway_duration_seconds",
		Help:    "Duration of robot gateway round trips in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"success"})
	reg.MustRegister(requests, duration)
	return &RobotMetrics{
		requests: requests,
		duration: duration,
	}
}

// ObserveTrigger records one gateway call.
func (m *RobotMetrics) ObserveTrigger(success bool, duration time.Duration) {
	if m == nil || m.requests == nil {
		return
	}
	label := strconv.FormatBool(success)
	m.requests.WithLabelValues(label).Inc()
	m.duration.WithLabelValues(label).Observe(duration.Seconds())
}
