package queue

import (
	"context"
	"fmt"

	"github.com/amirhosseinghanipour/authgate/internal/application/ports"
)

// QueuedEmitter hands audit events to a TaskEnqueuer; the Worker delivers them.
// Request handlers only wait for the enqueue.
type QueuedEmitter struct {
	enq ports.TaskEnqueuer
}

func NewQueuedEmitter(enq ports.TaskEnqueuer) *QueuedEmitter {
	return &QueuedEmitter{enq: enq}
}

func (e *QueuedEmitter) Emit(ctx context.Context, event ports.AuditEvent) error {
	if err := e.enq.EnqueueAuditEvent(ctx, event); err != nil {
		return fmt.Errorf("queue %s: %w", event.Event, err)
	}
	return nil
}

var _ ports.WebhookEmitter = (*QueuedEmitter)(nil)
