// Package metrics exposes Prometheus instruments for registry lookups.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// queriesTotal counts inbound queries by classified intent.
	// Labels: intent (plate, number_only, phone, unrecognized)
	queriesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "platebot",
		Subsystem: "lookup",
		Name:      "queries_total",
		Help:      "Inbound queries by classified intent",
	}, []string{"intent"})

	// suppressedTotal counts queries dropped by the per-user rate gate.
	suppressedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "platebot",
		Subsystem: "lookup",
		Name:      "suppressed_total",
		Help:      "Queries silently dropped by the per-user rate limiter",
	})

	// outcomesTotal counts lookup outcomes.
	// Labels: outcome (no_match, single, multiple, error)
	outcomesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "platebot",
		Subsystem: "lookup",
		Name:      "outcomes_total",
		Help:      "Lookup outcomes by kind",
	}, []string{"outcome"})

	// phonePhaseTotal counts which phase of a phone search produced the result.
	// Labels: phase (exact, suffix, none)
	phonePhaseTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "platebot",
		Subsystem: "lookup",
		Name:      "phone_phase_total",
		Help:      "Phone searches by the phase that produced the final result",
	}, []string{"phase"})

	// latencySeconds measures storage time per intent.
	latencySeconds = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "platebot",
		Subsystem: "lookup",
		Name:      "latency_seconds",
		Help:      "Storage lookup latency by intent",
		Buckets:   []float64{0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
	}, []string{"intent"})

	// selectionsTotal counts selection resolutions.
	// Labels: result (hit, expired)
	selectionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "platebot",
		Subsystem: "session",
		Name:      "selections_total",
		Help:      "Selection token resolutions by result",
	}, []string{"result"})
)

// RecordQuery counts a classified query.
func RecordQuery(intent string) {
	queriesTotal.WithLabelValues(intent).Inc()
}

// RecordSuppressed counts a rate-limited query.
func RecordSuppressed() {
	suppressedTotal.Inc()
}

// RecordOutcome counts a lookup outcome.
func RecordOutcome(outcome string) {
	outcomesTotal.WithLabelValues(outcome).Inc()
}

// RecordPhonePhase counts the phase that ended a phone search.
func RecordPhonePhase(phase string) {
	phonePhaseTotal.WithLabelValues(phase).Inc()
}

// ObserveLatency records how long a lookup spent in storage.
func ObserveLatency(intent string, d time.Duration) {
	latencySeconds.WithLabelValues(intent).Observe(d.Seconds())
}

// RecordSelection counts a selection resolution.
func RecordSelection(hit bool) {
	if hit {
		selectionsTotal.WithLabelValues("hit").Inc()
		return
	}
	selectionsTotal.WithLabelValues("expired").Inc()
}
