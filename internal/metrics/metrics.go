// Package metrics exposes the unit-of-work counters scraped at /metrics.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	LockWait = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "registration",
		Name:      "badge_lock_wait_seconds",
		Help:      "Time spent waiting for the badge lock.",
		Buckets:   prometheus.ExponentialBuckets(0.001, 4, 8),
	})

	Commits = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "registration",
		Name:      "commits_total",
		Help:      "Unit-of-work commits by outcome.",
	}, []string{"outcome"})

	AuditEntries = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "registration",
		Name:      "audit_entries_total",
		Help:      "Tracking rows written by action.",
	}, []string{"action"})

	LockReleaseFailures = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "registration",
		Name:      "badge_lock_release_failures_total",
		Help:      "Badge lock releases that returned an error.",
	})
)

func Handler() http.Handler {
	return promhttp.Handler()
}
