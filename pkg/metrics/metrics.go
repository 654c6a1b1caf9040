package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// AuthAttempts records authentication attempts by result (success|failure).
	AuthAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mailforge_auth_attempts_total",
			Help: "Total number of authentication attempts",
		},
		[]string{"result"},
	)

	// PermissionChecks counts permission evaluations and their outcome (allowed|denied|error).
	PermissionChecks = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mailforge_permission_checks_total",
			Help: "Total number of permission checks",
		},
		[]string{"permission", "result"},
	)

	// AuditEntries counts audit log writes by action.
	AuditEntries = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mailforge_audit_entries_total",
			Help: "Total number of audit log entries written",
		},
		[]string{"action"},
	)

	// InvitationsIssued counts invitation tokens generated.
	InvitationsIssued = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "mailforge_invitations_issued_total",
			Help: "Total number of user invitations issued",
		},
	)

	// APILatency measures HTTP request latencies.
	APILatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "mailforge_api_latency_seconds",
			Help:    "API endpoint latency",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)
)
