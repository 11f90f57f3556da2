package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "fahrerexpress"

var (
	JobsCreated         = promauto.NewCounter(prometheus.CounterOpts{Namespace: namespace, Name: "jobs_created_total", Help: "Job requests created"})
	AssignmentsCreated  = promauto.NewCounterVec(prometheus.CounterOpts{Namespace: namespace, Name: "assignments_created_total", Help: "Assignments created by source"}, []string{"source"})
	AssignmentConflicts = promauto.NewCounter(prometheus.CounterOpts{Namespace: namespace, Name: "assignment_conflicts_total", Help: "Assignment attempts rejected because the job was already staffed"})
	InviteResponses     = promauto.NewCounterVec(prometheus.CounterOpts{Namespace: namespace, Name: "invite_responses_total", Help: "Invite link clicks by outcome"}, []string{"outcome"})
	EmailsSent          = promauto.NewCounterVec(prometheus.CounterOpts{Namespace: namespace, Name: "emails_total", Help: "Transactional emails by template and status"}, []string{"template", "status"})
	BroadcastFailures   = promauto.NewCounter(prometheus.CounterOpts{Namespace: namespace, Name: "broadcast_failures_total", Help: "Job broadcasts that reported an error"})

	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{Namespace: namespace, Name: "http_requests_total", Help: "Total HTTP requests handled"},
		[]string{"method", "path", "status"},
	)
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency distribution",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)
)
