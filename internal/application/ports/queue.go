package ports

import "context"

// TaskEnqueuer enqueues async tasks.
type TaskEnqueuer interface {
	EnqueueAuditEvent(ctx context.Context, event AuditEvent) error
}
