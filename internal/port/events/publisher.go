// Package events defines the message queue port (interface).
package events

import "context"

// Handler processes a message received from the queue.
type Handler func(ctx context.Context, subject string, data []byte) error

// Publisher is the port interface for publishing letter lifecycle events.
type Publisher interface {
	// Publish sends a message to the given subject.
	Publish(ctx context.Context, subject string, data []byte) error

	// Subscribe registers a handler for messages on the given subject.
	// The returned function cancels the subscription.
	Subscribe(ctx context.Context, subject string, handler Handler) (cancel func(), err error)

	// Drain gracefully drains all subscriptions before closing.
	Drain() error

	// Close shuts down the queue connection immediately.
	Close() error

	// IsConnected reports whether the queue is currently connected.
	IsConnected() bool
}

// Subject constants for letter lifecycle events.
const (
	SubjectLetterGenerated = "letters.generated" // a panel run finished and a letter was stored
	SubjectLetterStatus    = "letters.status"    // review status transition
	SubjectLetterDeleted   = "letters.deleted"   // soft delete
)
