package test

import (
	"context"
	"slices"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/vantaai/trustserv/pubsub"
)

// subscriberBuffer - Enough that tests never block a publisher.
const subscriberBuffer = 32

type memorySubscription struct {
	topic string
	ch    chan string
}

type MemoryPubsub struct {
	// Implements pubsub.Client

	t             *testing.T
	lock          sync.Mutex
	subscriptions []*memorySubscription
	published     map[string][]string
}

func NewMemoryPubsub(t *testing.T) *MemoryPubsub {
	return &MemoryPubsub{
		t:         t,
		published: make(map[string][]string),
	}
}

// Close - Sends pubsub.ClosingValue to every subscriber, then closes their channels.
func (m *MemoryPubsub) Close() error {
	m.lock.Lock()
	defer m.lock.Unlock()
	for _, sub := range m.subscriptions {
		closeMemorySubscription(sub)
	}
	m.subscriptions = nil
	return nil
}

func closeMemorySubscription(sub *memorySubscription) {
	sub.ch <- pubsub.ClosingValue
	close(sub.ch)
}

// Published - Every value published to the topic so far, in order. Values are recorded even without subscribers.
func (m *MemoryPubsub) Published(topic string) []string {
	m.lock.Lock()
	defer m.lock.Unlock()
	return slices.Clone(m.published[topic])
}

func (m *MemoryPubsub) Publish(ctx context.Context, topic string, val string) error {
	assert.NotNil(m.t, ctx, "context is required")
	assert.NotEmpty(m.t, topic, "topic is required")

	m.lock.Lock()
	defer m.lock.Unlock()

	m.published[topic] = append(m.published[topic], val)
	for _, sub := range m.subscriptions {
		if sub.topic == topic {
			sub.ch <- val
		}
	}
	return nil
}

func (m *MemoryPubsub) Subscribe(ctx context.Context, topic string) (<-chan string, error) {
	assert.NotNil(m.t, ctx, "context is required")
	assert.NotEmpty(m.t, topic, "topic is required")

	m.lock.Lock()
	defer m.lock.Unlock()

	sub := &memorySubscription{
		topic: topic,
		ch:    make(chan string, subscriberBuffer),
	}
	m.subscriptions = append(m.subscriptions, sub)
	return sub.ch, nil
}

func (m *MemoryPubsub) Unsubscribe(ctx context.Context, ch <-chan string) error {
	assert.NotNil(m.t, ctx, "context is required")
	assert.NotNil(m.t, ch, "ch is required")

	m.lock.Lock()
	defer m.lock.Unlock()

	i := slices.IndexFunc(m.subscriptions, func(sub *memorySubscription) bool {
		return (<-chan string)(sub.ch) == ch
	})
	if i < 0 {
		return nil // not ours
	}
	closeMemorySubscription(m.subscriptions[i])
	m.subscriptions = slices.Delete(m.subscriptions, i, i+1)
	return nil
}
