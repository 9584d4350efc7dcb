package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// SummaryComputations counts summary recomputations.
	// Labels: trigger (read/toggle/journal/rollover), status (success/error)
	SummaryComputations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "consistify_summary_computations_total",
			Help: "Total number of daily summary computations by trigger and outcome",
		},
		[]string{"trigger", "status"},
	)

	SummaryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "consistify_summary_duration_seconds",
			Help:    "Daily summary computation latency in seconds by trigger",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		},
		[]string{"trigger"},
	)

	StatusRowsCreated = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "consistify_status_rows_created_total",
			Help: "Daily task status rows created by reconciliation",
		},
	)

	// DuplicateRaces counts reconciliation inserts that lost a unique-key race.
	DuplicateRaces = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "consistify_status_duplicate_races_total",
			Help: "Reconciliation inserts rejected by the (task, date) unique key and ignored",
		},
	)

	StreakDivergence = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "consistify_streak_divergence_total",
			Help: "Streak reports where the carried and scanned streaks disagree",
		},
	)
)

// ObserveSummary records one summary computation.
func ObserveSummary(trigger string, started time.Time, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	SummaryComputations.WithLabelValues(trigger, status).Inc()
	SummaryDuration.WithLabelValues(trigger).Observe(time.Since(started).Seconds())
}
