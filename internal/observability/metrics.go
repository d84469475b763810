// Package observability holds the service's Prometheus collectors.
package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	usersCreated = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "exercise_tracker",
		Subsystem: "registry",
		Name:      "users_created_total",
		Help:      "Number of users created.",
	})
	entriesAppended = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "exercise_tracker",
		Subsystem: "log",
		Name:      "entries_appended_total",
		Help:      "Number of exercise entries committed to user logs.",
	})
	logQueries = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "exercise_tracker",
		Subsystem: "log",
		Name:      "queries_total",
		Help:      "Number of log queries served.",
	})
	cacheLookups = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "exercise_tracker",
		Subsystem: "cache",
		Name:      "lookups_total",
		Help:      "User cache lookups partitioned by result (hit, miss, error).",
	}, []string{"result"})
	eventsPublished = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "exercise_tracker",
		Subsystem: "events",
		Name:      "published_total",
		Help:      "Domain events handed to the broker partitioned by type and outcome.",
	}, []string{"event_type", "outcome"})
)

func init() {
	prometheus.MustRegister(usersCreated, entriesAppended, logQueries, cacheLookups, eventsPublished)
}

// RecordUserCreated increments the created users counter.
func RecordUserCreated() {
	usersCreated.Inc()
}

// RecordEntryAppended increments the appended entries counter.
func RecordEntryAppended() {
	entriesAppended.Inc()
}

// RecordLogQuery increments the log query counter.
func RecordLogQuery() {
	logQueries.Inc()
}

// RecordCacheLookup counts a cache lookup; result is "hit", "miss" or "error".
func RecordCacheLookup(result string) {
	cacheLookups.WithLabelValues(result).Inc()
}

// RecordEventPublished counts a publish attempt for eventType.
func RecordEventPublished(eventType string, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	eventsPublished.WithLabelValues(eventType, outcome).Inc()
}
