// Package pubsub fans engine state out to browser clients over
// Server-Sent Events. Topics are cheap; the server uses one per stream
// kind (render frames, selection changes, dataset reloads).
package pubsub

import (
	"context"
	"encoding/json"
)

// Well-known topics published by the server.
const (
	TopicFrame     = "frame"
	TopicSelection = "selection"
	TopicDataset   = "dataset"
)

// Event is one published message. Version increases per topic so clients
// can detect drops and reorderings.
type Event struct {
	Topic   string          `json:"topic"`
	Type    string          `json:"type"`
	Data    json.RawMessage `json:"data"`
	Version int             `json:"version"`
}

// Subscription is one client's view of a topic.
type Subscription interface {
	Topic() string
	Events() <-chan Event
	Close() error
}

// Publisher manages subscriptions and event delivery.
type Publisher interface {
	// Subscribe attaches to a topic. Cancelling the context closes the
	// subscription.
	Subscribe(ctx context.Context, topic string) (Subscription, error)

	// Publish sends an event to every subscriber of a topic.
	Publish(topic string, eventType string, data interface{}) error

	Close() error
}
