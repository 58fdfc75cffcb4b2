package pubsub

import (
	"context"
	"sync"
	"time"

	"github.com/lib/pq"
	"github.com/sirupsen/logrus"
)

// Notifier - Sends a Postgres NOTIFY. Implemented by storage.PostgresStorage.
type Notifier interface {
	SendNotify(ctx context.Context, channel string, payload string) error
}

// listener - The parts of *pq.Listener used here.
type listener interface {
	Listen(channel string) error
	Unlisten(channel string) error
	Ping() error
	Close() error
	NotificationChannel() <-chan *pq.Notification
}

type PostgresPubsubConnectionConfig struct {
	Uri                  string
	MinReconnectInterval time.Duration
	MaxReconnectInterval time.Duration
}

// subscription - A subscriber's channel. Once closing is set, nothing else is sent except ClosingValue.
type subscription struct {
	ch      chan string
	done    chan struct{}
	once    sync.Once
	lock    sync.Mutex
	closing bool
}

type PostgresPubsub struct {
	// Implements Client

	notifier Notifier
	listener listener
	lock     sync.Mutex
	subs     map[string][]*subscription
	stop     chan struct{}
}

func NewPostgresPubsub(notifier Notifier, config *PostgresPubsubConnectionConfig) (*PostgresPubsub, error) {
	pqListener := pq.NewListener(config.Uri, config.MinReconnectInterval, config.MaxReconnectInterval, func(event pq.ListenerEventType, err error) {
		if err != nil {
			logrus.WithError(err).WithField("event", event).Warn("Pubsub listener error")
		}
	})
	return newPostgresPubsub(notifier, pqListener), nil
}

func newPostgresPubsub(notifier Notifier, l listener) *PostgresPubsub {
	p := &PostgresPubsub{
		notifier: notifier,
		listener: l,
		subs:     make(map[string][]*subscription),
		stop:     make(chan struct{}),
	}
	go p.dispatch()
	return p
}

func (p *PostgresPubsub) dispatch() {
	pingTicker := time.NewTicker(30 * time.Second)
	defer pingTicker.Stop()
	notifications := p.listener.NotificationChannel()
	for {
		select {
		case <-p.stop:
			return
		case v := <-notifications:
			if v == nil {
				continue // likely a reconnect
			}
			logrus.WithField("topic", v.Channel).Debug("Got a notification")
			p.lock.Lock()
			subs := append([]*subscription(nil), p.subs[v.Channel]...)
			p.lock.Unlock()
			for _, sub := range subs {
				p.deliver(sub, v.Extra)
			}
		case <-pingTicker.C:
			go func() {
				if err := p.listener.Ping(); err != nil {
					logrus.WithError(err).Debug("Pubsub ping failed")
				}
			}()
		}
	}
}

// deliver - Sends val unless the subscription is closing or the pubsub is stopping. Holding the subscription's lock
// keeps its channel open for the duration of the send.
func (p *PostgresPubsub) deliver(sub *subscription, val string) {
	sub.lock.Lock()
	defer sub.lock.Unlock()
	if sub.closing {
		return
	}
	select {
	case sub.ch <- val:
	case <-sub.done:
	case <-p.stop:
	}
}

func (p *PostgresPubsub) Close() error {
	p.lock.Lock()
	defer p.lock.Unlock()
	close(p.stop)
	for _, subs := range p.subs {
		for _, sub := range subs {
			go closeSubscription(sub)
		}
	}
	p.subs = make(map[string][]*subscription)
	return p.listener.Close()
}

func (p *PostgresPubsub) Publish(ctx context.Context, topic string, val string) error {
	return p.notifier.SendNotify(ctx, topic, val)
}

func (p *PostgresPubsub) Subscribe(ctx context.Context, topic string) (<-chan string, error) {
	p.lock.Lock()
	defer p.lock.Unlock()

	// Only LISTEN on the topic (channel) once.
	if subs, ok := p.subs[topic]; !ok || len(subs) == 0 {
		err := p.listener.Listen(topic)
		if err != nil {
			return nil, err
		}
	}

	sub := &subscription{
		ch:   make(chan string),
		done: make(chan struct{}),
	}
	p.subs[topic] = append(p.subs[topic], sub)
	return sub.ch, nil
}

func (p *PostgresPubsub) Unsubscribe(ctx context.Context, ch <-chan string) error {
	p.lock.Lock()
	defer p.lock.Unlock()

	for topic, subs := range p.subs {
		for i, sub := range subs {
			if (<-chan string)(sub.ch) == ch {
				// Use a goroutine to avoid blocking on closure
				go closeSubscription(sub)
				p.subs[topic] = append(subs[:i:i], subs[i+1:]...)
				if len(p.subs[topic]) == 0 {
					return p.listener.Unlisten(topic)
				}
				return nil
			}
		}
	}

	return nil
}

func closeSubscription(sub *subscription) {
	// Unblock any in-flight delivery, then wait for it to let go of the channel
	sub.once.Do(func() {
		close(sub.done)
	})
	sub.lock.Lock()
	if sub.closing {
		sub.lock.Unlock()
		return
	}
	sub.closing = true
	sub.lock.Unlock()

	sub.ch <- ClosingValue
	close(sub.ch)
}
