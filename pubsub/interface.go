package pubsub

import "context"

// ClosingValue - Sent over a subscribe channel when its closing
const ClosingValue = "<<CLOSING>>"

// Publisher - Broadcasts a value to every subscriber of a topic, across all instances.
type Publisher interface {
	Publish(ctx context.Context, topic string, val string) error
}

// Subscriber - Receives values published to a topic. Channels receive ClosingValue before being closed.
type Subscriber interface {
	Subscribe(ctx context.Context, topic string) (<-chan string, error)
	Unsubscribe(ctx context.Context, ch <-chan string) error
}

type Client interface {
	Publisher
	Subscriber

	Close() error
}
