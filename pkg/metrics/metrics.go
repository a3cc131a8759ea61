// Package metrics defines every custom Prometheus metric of the teller
// service. It is the single source of truth for metric names, labels, and
// help strings; metrics register themselves on the default registry at init.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "teller"

/* ---- conversation metrics ---- */

// AuthOutcomesTotal counts identification attempts by outcome.
// Label:
//   - outcome: "authenticated", "mismatch", "not_found", "malformed", or "locked_out"
var AuthOutcomesTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "auth_outcomes_total",
		Help:      "Total number of identification steps, by outcome.",
	},
	[]string{"outcome"},
)

// HandlerTurnsTotal counts turns dispatched to a domain handler.
// Label:
//   - handler: "credit", "interview", or "exchange"
var HandlerTurnsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "handler_turns_total",
		Help:      "Total number of turns dispatched, by handler.",
	},
	[]string{"handler"},
)

// TurnProcessingDuration measures one full turn through the engine graph.
// Label:
//   - outcome: "ok" or "error"
var TurnProcessingDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "turn_processing_duration_seconds",
		Help:      "Duration of a conversation turn from receipt to reply.",
		Buckets:   prometheus.DefBuckets,
	},
	[]string{"outcome"},
)

/* ---- credit metrics ---- */

// CreditDecisionsTotal counts limit increase decisions.
// Label:
//   - outcome: "approved", "rejected", "invalid_amount", or "no_change"
var CreditDecisionsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "credit_decisions_total",
		Help:      "Total number of limit increase decisions, by outcome.",
	},
	[]string{"outcome"},
)

// InterviewsCompletedTotal counts credit interviews that reached the final
// question and produced a recalculated score.
var InterviewsCompletedTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "interviews_completed_total",
		Help:      "Total number of completed credit interviews.",
	},
)

/* ---- exchange metrics ---- */

// RateLookupsTotal counts rate cache lookups by result.
// Label:
//   - result: "hit" (fresh cache), "miss" (fetched), "stale" (served expired
//     entry after a failed fetch), or "error"
var RateLookupsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "rate_lookups_total",
		Help:      "Total number of exchange rate lookups, by result.",
	},
	[]string{"result"},
)

/* ---- model metrics ---- */

// InterpreterFailuresTotal counts language model calls that failed and fell
// back to deterministic behavior.
// Label:
//   - op: "extract" or "narrate"
var InterpreterFailuresTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "interpreter_failures_total",
		Help:      "Total number of language model failures, by operation.",
	},
	[]string{"op"},
)
