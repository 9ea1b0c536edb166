package handlers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/amirhosseinghanipour/authgate/internal/application/ports"
)

// Audit event names.
const (
	EventLogin          = "user.login"
	EventRegister       = "user.register"
	EventFederatedLogin = "user.federated_login"
	EventSeed           = "admin.seed_user"
	EventResetAttempts  = "admin.reset_attempts"
)

// AuditLog logs an auth decision (identifier, account, IP, outcome).
func AuditLog(log zerolog.Logger, r *http.Request, ev ports.AuditEvent) {
	e := log.Info()
	if !ev.Success {
		e = log.Warn()
	}
	e.
		Str("event", ev.Event).
		Str("identifier", ev.Identifier).
		Str("account_id", ev.AccountID).
		Str("ip", ev.IP).
		Str("request_id", middleware.GetReqID(r.Context())).
		Bool("success", ev.Success).
		Str("outcome", ev.Outcome)
	if ev.Err != "" {
		e.Str("error", ev.Err)
	}
	e.Msg("auth_audit")
}

// AuditEmit logs the event and, if emitter is non-nil, hands it to the webhook pipeline.
// Delivery failures are logged and never change the response.
func AuditEmit(log zerolog.Logger, r *http.Request, emitter ports.WebhookEmitter, ev ports.AuditEvent) {
	ev.IP = getClientIP(r)
	AuditLog(log, r, ev)
	if emitter == nil {
		return
	}
	if err := emitter.Emit(r.Context(), ev); err != nil {
		log.Warn().Err(err).Str("event", ev.Event).Msg("audit emit failed")
	}
}

func getClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		return strings.TrimSpace(strings.Split(xff, ",")[0])
	}
	return r.RemoteAddr
}
