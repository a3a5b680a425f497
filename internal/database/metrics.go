package database

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	queriesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "erpcore_queries_total",
		Help: "Database statements executed by the persistence core, by outcome.",
	}, []string{"outcome"})

	transactionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "erpcore_transactions_total",
		Help: "Aggregate transactions by outcome (committed or rolled_back).",
	}, []string{"outcome"})

	commitDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "erpcore_commit_duration_milliseconds",
		Help:    "Time spent committing aggregate transactions.",
		Buckets: prometheus.ExponentialBuckets(1, 2, 12),
	})
)

// RecordQuery counts one executed statement with its outcome.
func RecordQuery(outcome string) {
	queriesTotal.WithLabelValues(outcome).Inc()
}

// RecordTransaction counts one finished transaction and, for commits,
// observes the commit duration.
func RecordTransaction(outcome string, duration time.Duration) {
	transactionsTotal.WithLabelValues(outcome).Inc()
	if outcome == "committed" {
		commitDuration.Observe(float64(duration.Milliseconds()))
	}
}
