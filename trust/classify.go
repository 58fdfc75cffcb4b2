package trust

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/vantaai/trustserv/ai"
	"github.com/vantaai/trustserv/metrics"
)

var errClassifierPanic = errors.New("classifier panicked")
var errInvalidVerdict = errors.New("classifier returned an invalid verdict")

type classification struct {
	verdict *ai.Verdict
	err     error
}

// classify - Calls the classifier with the configured timeout. Returns as soon as the deadline passes, even if the
// classifier is still running. Panics are converted to errors.
func (s *Scorer) classify(ctx context.Context, content string) (*ai.Verdict, error) {
	ctx, cancel := context.WithTimeout(ctx, s.cnf.ClassifierTimeout)
	defer cancel()

	t := metrics.StartClassifierTimer()
	defer t.ObserveDuration()

	ch := make(chan classification, 1) // buffered so an abandoned call can still finish
	go func() {
		defer func() {
			if r := recover(); r != nil {
				ch <- classification{err: fmt.Errorf("%w: %v", errClassifierPanic, r)}
			}
		}()
		verdict, err := s.classifier.Classify(ctx, content)
		ch <- classification{verdict: verdict, err: err}
	}()

	var res classification
	select {
	case <-ctx.Done():
		res.err = ctx.Err()
	case res = <-ch:
	}
	// Written to also reject NaN
	if res.err == nil && (res.verdict == nil || !(res.verdict.Score >= 0 && res.verdict.Score <= 1)) {
		res.err = errInvalidVerdict
	}

	if res.err != nil {
		outcome := metrics.ClassifierOutcomeError
		if errors.Is(res.err, ai.ErrClassifierNotReady) {
			outcome = metrics.ClassifierOutcomeNotReady
		} else if errors.Is(res.err, context.DeadlineExceeded) {
			outcome = metrics.ClassifierOutcomeTimeout
		} else if errors.Is(res.err, errClassifierPanic) {
			outcome = metrics.ClassifierOutcomePanic
		}
		metrics.RecordClassifierCall(outcome)
		logrus.WithError(res.err).WithField("outcome", outcome).Warn("Toxicity classifier unavailable")
		return nil, res.err
	}

	if !res.verdict.Toxic {
		metrics.RecordClassifierCall(metrics.ClassifierOutcomeClean)
	} else if res.verdict.Score > classifierThreshold {
		metrics.RecordClassifierCall(metrics.ClassifierOutcomeToxic)
	} else {
		metrics.RecordClassifierCall(metrics.ClassifierOutcomeBelowThreshold)
	}
	return res.verdict, nil
}
