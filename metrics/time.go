package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var ClassifierTime = promauto.NewHistogram(prometheus.HistogramOpts{
	Name: "trustserv_classifier_time_seconds",
	Help: "The time spent waiting for the toxicity classifier",
})

var RequestTime = promauto.NewHistogramVec(prometheus.HistogramOpts{
	Name: "trustserv_request_time_seconds",
	Help: "The time spent in each request",
}, []string{"method", "action"})

var QueueWaitTime = promauto.NewHistogramVec(prometheus.HistogramOpts{
	Name: "trustserv_queue_wait_time_seconds",
	Help: "The time spent waiting in the queue",
}, []string{"waitedUntil"})

func StartClassifierTimer() *prometheus.Timer {
	return prometheus.NewTimer(ClassifierTime)
}

func StartRequestTimer(method string, action string) *prometheus.Timer {
	return prometheus.NewTimer(RequestTime.With(prometheus.Labels{
		"method": method,
		"action": action,
	}))
}

// RecordQueueWait - Records how long a submission waited, labelled by how the wait ended (result, timeout, error).
func RecordQueueWait(waitedUntil string, waited time.Duration) {
	QueueWaitTime.With(prometheus.Labels{
		"waitedUntil": waitedUntil,
	}).Observe(waited.Seconds())
}
