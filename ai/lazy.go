package ai

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"
	typedsf "github.com/t2bot/go-typed-singleflight"
)

// LoadFunc - Produces a ready-to-use classifier. May block for as long as the context allows.
type LoadFunc func(ctx context.Context) (ToxicityClassifier, error)

const lazyLoadTimeout = 5 * time.Minute
const lazyRetryInterval = 30 * time.Second

// LazyClassifier - A ToxicityClassifier which loads its delegate in the background. Until loading has finished,
// Classify returns ErrClassifierNotReady instead of blocking.
type LazyClassifier struct {
	// Implements ToxicityClassifier

	load     LoadFunc
	sf       *typedsf.Group[*lazyDelegate]
	delegate atomic.Pointer[lazyDelegate]
	loading  atomic.Bool

	lock        sync.Mutex
	lastFailure time.Time
}

type lazyDelegate struct {
	classifier ToxicityClassifier
}

func NewLazyClassifier(load LoadFunc) *LazyClassifier {
	l := &LazyClassifier{
		load: load,
		sf:   new(typedsf.Group[*lazyDelegate]),
	}
	// Forget sets up the group's internals, which would otherwise race on the first concurrent Do
	l.sf.Forget("load")
	return l
}

// Ready - True once the delegate has loaded.
func (l *LazyClassifier) Ready() bool {
	return l.delegate.Load() != nil
}

// Warm - Loads the delegate, blocking until done. Concurrent callers share a single load.
func (l *LazyClassifier) Warm(ctx context.Context) error {
	// The group is typed on a concrete pointer: a nil interface would fail typedsf's type assertion and hide err
	_, err, _ := l.sf.Do("load", func() (*lazyDelegate, error) {
		if d := l.delegate.Load(); d != nil {
			return d, nil
		}
		c, err := l.load(ctx)
		if err != nil {
			l.lock.Lock()
			l.lastFailure = time.Now()
			l.lock.Unlock()
			return (*lazyDelegate)(nil), err
		}
		d := &lazyDelegate{classifier: c}
		l.delegate.Store(d)
		return d, nil
	})
	return err
}

// WarmInBackground - Starts loading the delegate without waiting for it.
func (l *LazyClassifier) WarmInBackground() {
	if !l.loading.CompareAndSwap(false, true) {
		return
	}
	go func() {
		defer l.loading.Store(false)
		ctx, cancel := context.WithTimeout(context.Background(), lazyLoadTimeout)
		defer cancel()
		if err := l.Warm(ctx); err != nil {
			logrus.WithError(err).Warn("Error loading toxicity classifier")
			return
		}
		logrus.Info("Toxicity classifier ready")
	}()
}

func (l *LazyClassifier) Classify(ctx context.Context, text string) (*Verdict, error) {
	d := l.delegate.Load()
	if d == nil {
		l.lock.Lock()
		retry := time.Since(l.lastFailure) >= lazyRetryInterval
		l.lock.Unlock()
		if retry {
			l.WarmInBackground()
		}
		return nil, ErrClassifierNotReady
	}
	return d.classifier.Classify(ctx, text)
}
