// Package broadcast defines the port for streaming panel progress to connected clients.
package broadcast

import "context"

// Broadcaster sends real-time events to all connected clients.
type Broadcaster interface {
	// BroadcastEvent sends a typed event to all connected clients.
	BroadcastEvent(ctx context.Context, eventType string, payload any)
}

// Event types emitted while a review panel runs.
const (
	EventPanelRound   = "panel.round"   // a review round started
	EventPanelMessage = "panel.message" // one persona reply
	EventPanelDone    = "panel.done"    // run finished, carries the result summary
)
