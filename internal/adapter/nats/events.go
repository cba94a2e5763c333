package nats

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/Strob0t/professor/internal/port/broadcast"
	"github.com/Strob0t/professor/internal/port/messagequeue"
)

// EventPublisher forwards task status events to research.task.{status}.
type EventPublisher struct {
	q messagequeue.Queue
}

var _ broadcast.Broadcaster = (*EventPublisher)(nil)

// NewEventPublisher creates a publisher on top of q.
func NewEventPublisher(q messagequeue.Queue) *EventPublisher {
	return &EventPublisher{q: q}
}

// BroadcastEvent publishes task status events; other event types are ignored.
// Publish failures are logged and never reach the caller.
func (p *EventPublisher) BroadcastEvent(ctx context.Context, eventType string, payload any) {
	if eventType != broadcast.EventTaskStatus {
		return
	}
	ev, ok := payload.(broadcast.TaskStatusEvent)
	if !ok {
		return
	}

	data, err := json.Marshal(messagequeue.TaskStatusPayload{
		TaskID:      ev.TaskID,
		Topic:       ev.Topic,
		Status:      ev.Status,
		Progress:    ev.Progress,
		CurrentStep: ev.CurrentStep,
		Error:       ev.Error,
		ErrorKind:   ev.ErrorKind,
	})
	if err != nil {
		slog.ErrorContext(ctx, "marshal task event", "error", err)
		return
	}
	if err := p.q.Publish(ctx, messagequeue.TaskSubject(ev.Status), data); err != nil {
		slog.WarnContext(ctx, "task event publish failed", "task_id", ev.TaskID, "error", err)
	}
}
