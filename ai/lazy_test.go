package ai

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/vantaai/trustserv/config"
	"github.com/vantaai/trustserv/test"
)

func TestLazyClassifier(t *testing.T) {
	t.Parallel()

	release := make(chan struct{})
	loads := &atomic.Int32{}
	delegate := ClassifierFunc(func(ctx context.Context, text string) (*Verdict, error) {
		return &Verdict{Toxic: true, Score: 0.7}, nil
	})
	lazy := NewLazyClassifier(func(ctx context.Context) (ToxicityClassifier, error) {
		loads.Add(1)
		<-release
		return delegate, nil
	})
	assert.False(t, lazy.Ready())

	// Not loaded yet, so we should get told as much rather than blocking
	verdict, err := lazy.Classify(context.Background(), "hello")
	assert.ErrorIs(t, err, ErrClassifierNotReady)
	assert.Nil(t, verdict)
	verdict, err = lazy.Classify(context.Background(), "hello")
	assert.ErrorIs(t, err, ErrClassifierNotReady)
	assert.Nil(t, verdict)

	close(release)
	assert.NoError(t, lazy.Warm(context.Background()))
	assert.True(t, lazy.Ready())

	verdict, err = lazy.Classify(context.Background(), "hello")
	assert.NoError(t, err)
	assert.Equal(t, &Verdict{Toxic: true, Score: 0.7}, verdict)

	// Concurrent and repeated warm-ups share the one load
	assert.Equal(t, int32(1), loads.Load())
}

func TestLazyClassifierLoadFailure(t *testing.T) {
	t.Parallel()

	lazy := NewLazyClassifier(func(ctx context.Context) (ToxicityClassifier, error) {
		return nil, test.SimulatedError
	})
	err := lazy.Warm(context.Background())
	assert.ErrorIs(t, err, test.SimulatedError)
	assert.False(t, lazy.Ready())

	// A recent failure suppresses background retries, but callers still get a clean "not ready"
	verdict, err := lazy.Classify(context.Background(), "hello")
	assert.ErrorIs(t, err, ErrClassifierNotReady)
	assert.Nil(t, verdict)
}

func TestLazyClassifierConcurrentWarmFailure(t *testing.T) {
	t.Parallel()

	release := make(chan struct{})
	lazy := NewLazyClassifier(func(ctx context.Context) (ToxicityClassifier, error) {
		<-release
		return nil, test.SimulatedError
	})

	// Every caller, including the ones sharing the first load, should see the real cause
	const callers = 10
	errs := make(chan error, callers)
	wg := sync.WaitGroup{}
	for range callers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs <- lazy.Warm(context.Background())
		}()
	}
	close(release)
	wg.Wait()
	close(errs)
	for err := range errs {
		assert.ErrorIs(t, err, test.SimulatedError)
		assert.NotContains(t, err.Error(), "typedsf")
	}
	assert.False(t, lazy.Ready())
}

func TestNewClassifier(t *testing.T) {
	t.Parallel()

	c, err := NewClassifier(&config.InstanceConfig{ClassifierProvider: config.ClassifierProviderNone})
	assert.NoError(t, err)
	assert.Nil(t, c)

	c, err = NewClassifier(&config.InstanceConfig{ClassifierProvider: "nope"})
	assert.Error(t, err)
	assert.Nil(t, c)

	c, err = NewClassifier(&config.InstanceConfig{ClassifierProvider: config.ClassifierProviderOpenAIOmni, OpenAIApiKey: "key"})
	assert.NoError(t, err)
	assert.IsType(t, &OpenAIOmniModeration{}, c)

	mockApi := test.MakeChatClassifierServer(t, 1)
	defer mockApi.Close()
	c, err = NewClassifier(makeChatConfig(mockApi.URL))
	assert.NoError(t, err)
	assert.IsType(t, &LazyClassifier{}, c)
	assert.Eventually(t, func() bool {
		return c.(*LazyClassifier).Ready()
	}, 10*time.Second, 50*time.Millisecond)

	verdict, err := c.Classify(context.Background(), test.KeywordNeutral)
	assert.NoError(t, err)
	assert.False(t, verdict.Toxic)
}

func TestClassifierFunc(t *testing.T) {
	t.Parallel()

	expectedErr := errors.New("nope")
	var c ToxicityClassifier = ClassifierFunc(func(ctx context.Context, text string) (*Verdict, error) {
		assert.Equal(t, "text", text)
		return nil, expectedErr
	})
	_, err := c.Classify(context.Background(), "text")
	assert.ErrorIs(t, err, expectedErr)
}
