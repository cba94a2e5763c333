// Package broadcast defines the port for pushing task events to observers.
package broadcast

import "context"

// EventTaskStatus is emitted on every research task status transition.
const EventTaskStatus = "research.task.status"

// Broadcaster sends real-time events to all connected observers.
type Broadcaster interface {
	// BroadcastEvent sends a typed event to all observers. Failures are the
	// implementation's concern and never reach the caller.
	BroadcastEvent(ctx context.Context, eventType string, payload any)
}

// Multi fans an event out to several broadcasters.
type Multi []Broadcaster

// BroadcastEvent forwards the event to every non-nil broadcaster.
func (m Multi) BroadcastEvent(ctx context.Context, eventType string, payload any) {
	for _, b := range m {
		if b != nil {
			b.BroadcastEvent(ctx, eventType, payload)
		}
	}
}

// TaskStatusEvent is the payload of EventTaskStatus.
type TaskStatusEvent struct {
	TaskID      string `json:"task_id"`
	Topic       string `json:"topic"`
	Status      string `json:"status"`
	Progress    int    `json:"progress"`
	CurrentStep string `json:"current_step"`
	Error       string `json:"error,omitempty"`
	ErrorKind   string `json:"error_kind,omitempty"`
}
