package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type ClassifierOutcome string

const ClassifierOutcomeToxic ClassifierOutcome = "toxic"
const ClassifierOutcomeBelowThreshold ClassifierOutcome = "below_threshold"
const ClassifierOutcomeClean ClassifierOutcome = "clean"
const ClassifierOutcomeNotReady ClassifierOutcome = "not_ready"
const ClassifierOutcomeTimeout ClassifierOutcome = "timeout"
const ClassifierOutcomeError ClassifierOutcome = "error"
const ClassifierOutcomePanic ClassifierOutcome = "panic"

var Analyses = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "trustserv_analyses",
	Help: "The total number of content analyses",
}, []string{"mode", "isSuspicious"})

var AnalysisScores = promauto.NewHistogramVec(prometheus.HistogramOpts{
	Name:    "trustserv_analysis_scores",
	Help:    "The distribution of trust scores",
	Buckets: prometheus.LinearBuckets(0, 10, 11),
}, []string{"mode"})

var AnalysisFindings = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "trustserv_analysis_findings",
	Help: "The total number of findings, by category",
}, []string{"category"})

var ClassifierCalls = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "trustserv_classifier_calls",
	Help: "The total number of toxicity classifier calls, by outcome",
}, []string{"outcome"})

func RecordAnalysis(mode string, score int, isSuspicious bool) {
	Analyses.With(prometheus.Labels{
		"mode":         mode,
		"isSuspicious": strconv.FormatBool(isSuspicious),
	}).Inc()
	AnalysisScores.With(prometheus.Labels{
		"mode": mode,
	}).Observe(float64(score))
}

func RecordFinding(category string) {
	AnalysisFindings.With(prometheus.Labels{
		"category": category,
	}).Inc()
}

func RecordClassifierCall(outcome ClassifierOutcome) {
	ClassifierCalls.With(prometheus.Labels{
		"outcome": string(outcome),
	}).Inc()
}
