package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var HttpRequests = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "trustserv_http_requests",
	Help: "The total number of HTTP requests, by handler",
}, []string{"method", "action"})

var HttpResponses = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "trustserv_http_responses",
	Help: "The total number of HTTP responses, by handler and status code",
}, []string{"method", "action", "status"})

var BatchSizes = promauto.NewHistogram(prometheus.HistogramOpts{
	Name:    "trustserv_http_batch_size",
	Help:    "The number of items in accepted batch analysis requests",
	Buckets: []float64{1, 2, 5, 10, 25, 50, 100},
})

func httpLabels(method string, action string) prometheus.Labels {
	return prometheus.Labels{
		"method": method,
		"action": action,
	}
}

func RecordHttpRequest(method string, action string) {
	HttpRequests.With(httpLabels(method, action)).Inc()
}

func RecordHttpResponse(method string, action string, status int) {
	labels := httpLabels(method, action)
	labels["status"] = strconv.Itoa(status)
	HttpResponses.With(labels).Inc()
}

// RecordBatchSize - Called once a batch has passed validation.
func RecordBatchSize(items int) {
	BatchSizes.Observe(float64(items))
}
