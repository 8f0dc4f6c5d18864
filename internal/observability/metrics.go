package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// MetricsCollector holds all Prometheus metrics for Ligi.
// Uses a custom registry — no global state.
type MetricsCollector struct {
	Registry *prometheus.Registry

	// Provisioning metrics.
	ProvisionedAccountsTotal   *prometheus.CounterVec
	ProvisionRunDuration       prometheus.Histogram
	DeprovisionedAccountsTotal *prometheus.CounterVec

	// League metrics.
	PointsAwardedTotal    prometheus.Counter
	AttendanceMarksTotal  *prometheus.CounterVec
	FollowUpsCreatedTotal prometheus.Counter

	// Auth metrics.
	LoginAttemptsTotal *prometheus.CounterVec
	GateDecisionsTotal *prometheus.CounterVec

	// HTTP gateway metrics.
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	// System metrics.
	ActiveRequests prometheus.Gauge
}

// NewMetricsCollector creates a MetricsCollector with all metrics registered
// on a custom prometheus.Registry.
func NewMetricsCollector() *MetricsCollector {
	reg := prometheus.NewRegistry()

	m := &MetricsCollector{
		Registry: reg,

		ProvisionedAccountsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "ligi",
			Subsystem: "provision",
			Name:      "accounts_total",
			Help:      "Roster accounts processed by provisioning runs.",
		}, []string{"role", "status"}),

		ProvisionRunDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "ligi",
			Subsystem: "provision",
			Name:      "run_duration_seconds",
			Help:      "Provisioning run duration in seconds.",
			Buckets:   []float64{0.1, 0.5, 1, 5, 10, 30, 60, 120},
		}),

		DeprovisionedAccountsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "ligi",
			Subsystem: "deprovision",
			Name:      "accounts_total",
			Help:      "Legacy accounts and documents removed by cleanup runs.",
		}, []string{"kind"}),

		PointsAwardedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "ligi",
			Subsystem: "league",
			Name:      "points_awarded_total",
			Help:      "Total points awarded to students.",
		}),

		AttendanceMarksTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "ligi",
			Subsystem: "league",
			Name:      "attendance_marks_total",
			Help:      "Attendance marks recorded.",
		}, []string{"type"}),

		FollowUpsCreatedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "ligi",
			Subsystem: "league",
			Name:      "follow_ups_created_total",
			Help:      "Follow-up notes created by servants.",
		}),

		LoginAttemptsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "ligi",
			Subsystem: "auth",
			Name:      "login_attempts_total",
			Help:      "Login attempts by outcome.",
		}, []string{"status"}),

		GateDecisionsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "ligi",
			Subsystem: "auth",
			Name:      "gate_decisions_total",
			Help:      "Request gate decisions by outcome.",
		}, []string{"decision"}),

		HTTPRequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "ligi",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total HTTP requests.",
		}, []string{"method", "path", "status_code"}),

		HTTPRequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "ligi",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "path"}),

		ActiveRequests: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "ligi",
			Name:      "active_requests",
			Help:      "Number of currently active requests.",
		}),
	}

	// Register all collectors.
	reg.MustRegister(
		m.ProvisionedAccountsTotal,
		m.ProvisionRunDuration,
		m.DeprovisionedAccountsTotal,
		m.PointsAwardedTotal,
		m.AttendanceMarksTotal,
		m.FollowUpsCreatedTotal,
		m.LoginAttemptsTotal,
		m.GateDecisionsTotal,
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.ActiveRequests,
	)

	return m
}
