package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "goaltracker_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 12), // 1ms to ~4s
		},
		[]string{"method", "route", "status"},
	)

	ProgressRecalculations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "goaltracker_progress_recalculations_total",
			Help: "Goal progress recalculations triggered by milestone changes",
		},
		[]string{"trigger"}, // create, update, toggle, delete
	)

	StatusTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "goaltracker_goal_status_transitions_total",
			Help: "Goal status changes",
		},
		[]string{"from", "to", "source"}, // source: milestone, user
	)

	InvariantViolations = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "goaltracker_invariant_violations_total",
			Help: "Goal saves refused because derived fields were inconsistent",
		},
	)

	NotificationsSent = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "goaltracker_notifications_sent_total",
			Help: "Notification e-mails by kind and outcome",
		},
		[]string{"kind", "status"}, // status: sent, skipped, failed
	)
)

func RecordHTTPRequest(method, route string, status int, duration time.Duration) {
	HTTPRequestDuration.WithLabelValues(method, route, statusClass(status)).Observe(duration.Seconds())
}

func RecordRecalculation(trigger string) {
	ProgressRecalculations.WithLabelValues(trigger).Inc()
}

func RecordStatusTransition(from, to, source string) {
	if from == to {
		return
	}
	StatusTransitions.WithLabelValues(from, to, source).Inc()
}

func RecordNotification(kind, status string) {
	NotificationsSent.WithLabelValues(kind, status).Inc()
}

func statusClass(status int) string {
	switch {
	case status >= 500:
		return "5xx"
	case status >= 400:
		return "4xx"
	case status >= 300:
		return "3xx"
	default:
		return "2xx"
	}
}
