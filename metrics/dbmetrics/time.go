package dbmetrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var DatabaseRequestTime = promauto.NewHistogramVec(prometheus.HistogramOpts{
	Name: "trustserv_database_request_time_seconds",
	Help: "The time spent in database queries",
}, []string{"query"})

var PurgedAnalyses = promauto.NewCounter(prometheus.CounterOpts{
	Name: "trustserv_database_purged_analyses",
	Help: "The total number of analyses deleted for being past retention",
})

func StartDatabaseTimer(query string) *prometheus.Timer {
	return prometheus.NewTimer(DatabaseRequestTime.With(prometheus.Labels{
		"query": query,
	}))
}

func RecordPurgedAnalyses(count int64) {
	PurgedAnalyses.Add(float64(count))
}
