package queue

import (
	"context"
	"errors"
	"time"

	"github.com/panjf2000/ants/v2"
	"github.com/sirupsen/logrus"
	typedsf "github.com/t2bot/go-typed-singleflight"
	"github.com/vantaai/trustserv/audit"
	"github.com/vantaai/trustserv/metrics"
	"github.com/vantaai/trustserv/storage"
	"github.com/vantaai/trustserv/trust"
)

// analysisTimeout - Upper bound on a single analysis, including persistence. The classifier has its own, shorter
// timeout within this.
const analysisTimeout = 1 * time.Minute

type Submission struct {
	Content string
	Source  string
}

// Analysis - A completed, persisted analysis.
type Analysis struct {
	ReportId  string
	Result    *trust.AnalysisResult
	Links     []string
	CreatedAt time.Time
}

type PoolResult struct {
	// Nil if there was an error.
	Analysis *Analysis

	// The error processing the submission, if any.
	Err error
}

type PoolConfig struct {
	ConcurrentPools int
	SizePerPool     int
}

type Pool struct {
	analyzer   trust.Analyzer
	storage    storage.PersistentStorage
	auditQueue *audit.Queue
	internal   *ants.MultiPool
	sf         *typedsf.Group[*Analysis] // keyed by source and content digest
}

func NewPool(config *PoolConfig, analyzer trust.Analyzer, storage storage.PersistentStorage, auditQueue *audit.Queue) (*Pool, error) {
	internal, err := ants.NewMultiPool(config.ConcurrentPools, config.SizePerPool, ants.RoundRobin, ants.WithOptions(ants.Options{
		ExpiryDuration:   1 * time.Minute,
		PreAlloc:         false,
		MaxBlockingTasks: 0, // no limit on submissions
		Nonblocking:      false,
		// If we don't supply a panic handler then ants will print a stack trace for us
		Logger:       logrus.StandardLogger(),
		DisablePurge: false,
	}))
	if err != nil {
		return nil, err
	}
	sf := new(typedsf.Group[*Analysis])
	// Forget sets up the group's internals, which would otherwise race on the first concurrent Do
	sf.Forget("")
	return &Pool{
		analyzer:   analyzer,
		storage:    storage,
		auditQueue: auditQueue,
		internal:   internal,
		sf:         sf,
	}, nil
}

// Submit asks the queue to analyse the given content. If `waitCh` is non-nil, it will be called with the result
// upon completion or error. The `waitCh` is not called if there was a submission error - that is instead returned
// from Submit.
func (p *Pool) Submit(ctx context.Context, submission *Submission, waitCh chan<- *PoolResult) error {
	submittedAt := time.Now()
	digest := storage.DigestContent(submission.Content)
	log := logrus.WithFields(logrus.Fields{
		"source": submission.Source,
		"digest": digest,
	})

	// Note: waitCh might be nil or unbuffered, so we spawn this in a goroutine later on.
	notifyResult := func(analysis *Analysis, err error) {
		if err == nil {
			metrics.RecordQueueWait("result", time.Since(submittedAt))
		} else if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
			metrics.RecordQueueWait("timeout", time.Since(submittedAt))
		} else {
			metrics.RecordQueueWait("error", time.Since(submittedAt))
		}

		if waitCh != nil {
			res := &PoolResult{
				Analysis: analysis,
				Err:      err,
			}

			// First, check to see if the channel is likely going to be closed already
			if err := ctx.Err(); err != nil {
				log.WithError(err).Warn("Result channel closed, not sending result")
				return
			}

			// Consider the context in our delivery of the result
			select {
			case waitCh <- res:
			case <-ctx.Done():
				log.WithError(ctx.Err()).Warn("Result channel closed, not sending result")
			}
		}
	}

	workFn := func() {
		// If the context is cancelled, save CPU and don't bother analysing
		if err := ctx.Err(); err != nil {
			log.WithError(err).Info("Not analysing because context was cancelled/timed out")
			go notifyResult(nil, err)
			return
		}

		// Ask the singleflight to do the work, so identical concurrent submissions share one analysis
		res, err, shared := p.sf.Do(submission.Source+"|"+digest, func() (*Analysis, error) {
			// We create a new context for two reasons:
			// 1. The singleflight might span multiple requests, and we don't want to tie results for all
			//    requests to the first (maybe failed) request.
			// 2. We want to ensure that we continue processing this stuff in the background, even if the
			//    request times out or is cancelled.
			analysisCtx, cancel := context.WithTimeout(context.Background(), analysisTimeout)
			defer cancel()
			return p.doAnalyze(analysisCtx, submission, digest)
		})
		log.WithField("shared", shared).WithError(err).Debug("Result from singleflight")
		if res == nil && err == nil {
			// "should never happen"
			err = errors.New("nil result")
		}
		go notifyResult(res, err)
	}

	return p.internal.Submit(workFn)
}

// Analyze submits the content and waits for the result.
func (p *Pool) Analyze(ctx context.Context, submission *Submission) (*Analysis, error) {
	ch := make(chan *PoolResult, 1)
	if err := p.Submit(ctx, submission, ch); err != nil {
		return nil, err
	}
	select {
	case res := <-ch:
		return res.Analysis, res.Err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (p *Pool) doAnalyze(ctx context.Context, submission *Submission, digest string) (*Analysis, error) {
	result := p.analyzer.Analyze(ctx, submission.Content)
	analysis := &Analysis{
		ReportId:  storage.NextId(),
		Result:    result,
		Links:     trust.ExtractURLs(submission.Content),
		CreatedAt: time.Now().UTC(),
	}

	categories := make([]string, 0, len(result.Findings))
	for _, f := range result.Findings {
		categories = append(categories, string(f.Category))
	}

	// Persist results
	err := p.storage.InsertAnalysis(ctx, &storage.StoredAnalysis{
		Id:            analysis.ReportId,
		ContentDigest: digest,
		Source:        submission.Source,
		Score:         result.Score,
		IsSuspicious:  result.IsSuspicious,
		Reason:        result.Reason,
		Categories:    categories,
		CreatedAt:     analysis.CreatedAt,
	})
	if err != nil {
		return nil, err
	}

	log := logrus.WithFields(logrus.Fields{
		"report_id": analysis.ReportId,
		"source":    submission.Source,
		"score":     result.Score,
	})
	if result.IsSuspicious {
		log.Info("Content is suspicious")
		if p.auditQueue == nil {
			return analysis, nil
		}
		err = p.auditQueue.Submit(&audit.Notice{
			ReportId:      analysis.ReportId,
			Source:        submission.Source,
			Score:         result.Score,
			Reason:        result.Reason,
			ContentDigest: digest,
			LinkCount:     len(analysis.Links),
			CreatedAt:     analysis.CreatedAt,
		})
		if err != nil {
			// Not fatal: the analysis is already stored
			log.WithError(err).Error("Error submitting audit notice")
		}
	} else {
		log.Debug("Content is not suspicious")
	}

	// Finally, return
	return analysis, nil
}

// Release - Stops accepting work and waits for running analyses, up to the timeout.
func (p *Pool) Release(timeout time.Duration) error {
	return p.internal.ReleaseTimeout(timeout)
}
