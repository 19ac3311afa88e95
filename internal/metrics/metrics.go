// Package metrics holds the process-wide Prometheus collectors.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	VotesCast = promauto.NewCounter(prometheus.CounterOpts{
		Name: "busvote_votes_cast_total",
		Help: "Total number of votes stored.",
	})
	VotesRejected = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "busvote_votes_rejected_total",
		Help: "Total number of vote attempts refused, by reason.",
	}, []string{"reason"})
	BusRequests = promauto.NewCounter(prometheus.CounterOpts{
		Name: "busvote_bus_requests_total",
		Help: "Total number of new bus requests opened for voting.",
	})
	Transitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "busvote_topic_transitions_total",
		Help: "Total number of topic status transitions, by target status.",
	}, []string{"status"})
	NotificationsSent = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "busvote_notifications_sent_total",
		Help: "Total number of driver notifications delivered, by event kind.",
	}, []string{"kind"})
	NotificationsFailed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "busvote_notifications_failed_total",
		Help: "Total number of driver notifications that failed, by event kind.",
	}, []string{"kind"})
	DashboardDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "busvote_dashboard_duration_seconds",
		Help:    "Duration of a full dashboard fetch and aggregation.",
		Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5},
	})
	ActiveSessions = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "busvote_sessions_active",
		Help: "Number of live dashboard sessions.",
	})
)
