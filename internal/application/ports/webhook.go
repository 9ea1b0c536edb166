package ports

import "context"

// AuditEvent is a single audit event for logging or webhooks.
type AuditEvent struct {
	Event      string `json:"event"` // user.login, user.register, user.federated_login, admin.reset_attempts
	Identifier string `json:"identifier,omitempty"`
	AccountID  string `json:"account_id,omitempty"`
	IP         string `json:"ip,omitempty"`
	Success    bool   `json:"success"`
	Outcome    string `json:"outcome,omitempty"`
	Err        string `json:"error,omitempty"`
}

// WebhookEmitter sends audit events to an external endpoint.
type WebhookEmitter interface {
	Emit(ctx context.Context, event AuditEvent) error
}
