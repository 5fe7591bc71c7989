// Package metrics defines the custom Prometheus metrics of the task API.
// It is the single source of truth for metric names, labels, and help
// strings. Metrics are registered with the default registry on import;
// HTTP request metrics come from echoprometheus in the router.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "task_system"

// ── Auth metrics ──────────────────────────────────────────────────────────────

// AuthAttemptsTotal counts signup and login attempts.
// Labels:
//   - operation: "signup" or "login"
//   - outcome: "success", "conflict", "invalid_credentials", "error"
var AuthAttemptsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "auth_attempts_total",
		Help:      "Total number of signup and login attempts, by outcome.",
	},
	[]string{"operation", "outcome"},
)

// TokenRejectionsTotal counts requests turned away by the auth guard.
// Label:
//   - reason: "missing", "malformed", "expired"
var TokenRejectionsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "token_rejections_total",
		Help:      "Total number of requests rejected by token verification.",
	},
	[]string{"reason"},
)

// ── Task metrics ──────────────────────────────────────────────────────────────

// TaskMutationsTotal counts successful task writes.
// Label:
//   - action: "created", "updated", "deleted"
var TaskMutationsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "task_mutations_total",
		Help:      "Total number of task mutations, by action.",
	},
	[]string{"action"},
)

// IdempotentReplaysTotal counts task creations answered from a previous
// request with the same Idempotency-Key.
var IdempotentReplaysTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "idempotent_replays_total",
		Help:      "Total number of task creations served from an earlier request.",
	},
)

// ── Activity metrics ──────────────────────────────────────────────────────────

// ActivityQueueDepth tracks the number of activity records waiting per worker.
var ActivityQueueDepth = promauto.NewGaugeVec(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "activity_queue_depth",
		Help:      "Current number of activity records pending in each dispatcher worker channel.",
	},
	[]string{"worker_id"},
)

// ActivityRecordedTotal counts activity records by result.
// Label:
//   - result: "ok", "error", "dropped"
var ActivityRecordedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "activity_recorded_total",
		Help:      "Total number of task activity records handled by the dispatcher.",
	},
	[]string{"result"},
)

// ActivityRecordDuration measures how long persisting one record takes.
var ActivityRecordDuration = promauto.NewHistogram(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "activity_record_duration_seconds",
		Help:      "Duration of persisting a task activity record.",
		Buckets:   prometheus.DefBuckets,
	},
)

// ── Health metrics ────────────────────────────────────────────────────────────

// DependencyUp reports whether a backing service answered the last readiness
// probe. 1 = up, 0 = down.
var DependencyUp = promauto.NewGaugeVec(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "dependency_up",
		Help:      "Whether a dependency is reachable. 1 = up, 0 = down.",
	},
	[]string{"dependency"},
)
