package dbmetrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var AnalysisCacheRequests = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "trustserv_analysis_cache_requests",
	Help: "The total number of stored analysis cache requests",
}, []string{"isHit"})

func RecordAnalysisCacheRequest(isHit bool) {
	AnalysisCacheRequests.With(prometheus.Labels{
		"isHit": strconv.FormatBool(isHit),
	}).Inc()
}
