package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/amirhosseinghanipour/authgate/internal/application/auth"
	"github.com/amirhosseinghanipour/authgate/internal/application/ports"
	domerrors "github.com/amirhosseinghanipour/authgate/internal/domain/errors"
)

// AdminHandler serves the test-support endpoints (seed user, reset attempts).
// Mounted only when ADMIN_SECRET is set and always behind RequireAdminSecret.
type AdminHandler struct {
	register *auth.RegisterAccount
	lockout  ports.LockoutTracker
	emitter  ports.WebhookEmitter
	validate *validator.Validate
	log      zerolog.Logger
}

func NewAdminHandler(register *auth.RegisterAccount, lockout ports.LockoutTracker, emitter ports.WebhookEmitter, log zerolog.Logger) *AdminHandler {
	return &AdminHandler{
		register: register,
		lockout:  lockout,
		emitter:  emitter,
		validate: validator.New(),
		log:      log,
	}
}

// SeedUser handles POST /api/seed_user. Body: { "email", "phone"?, "password" }.
// Seeding an account that already exists succeeds so test suites can rerun setup.
func (h *AdminHandler) SeedUser(w http.ResponseWriter, r *http.Request) {
	var body seedRequest
	if err := decodeJSON(w, r, &body); err != nil {
		writeErr(w, http.StatusBadRequest, MsgInvalidJSON)
		return
	}
	body.Email = strings.TrimSpace(body.Email)
	body.Phone = strings.TrimSpace(body.Phone)
	if err := h.validate.Struct(&body); err != nil {
		writeErr(w, http.StatusBadRequest, MsgSeedMissing)
		return
	}
	ev := ports.AuditEvent{Event: EventSeed, Identifier: body.Email}
	account, err := h.register.Execute(r.Context(), auth.RegisterInput{
		Email:    body.Email,
		Phone:    body.Phone,
		Password: body.Password,
	})
	switch {
	case err == nil:
		ev.AccountID = account.ID.String()
		ev.Identifier = accountIdentifier(account)
		ev.Outcome = "created"
	case errors.Is(err, domerrors.ErrAlreadyExists):
		ev.Outcome = "already_exists"
	default:
		h.log.Error().Err(err).Msg("seed user failed")
		ev.Outcome = "error"
		ev.Err = err.Error()
		AuditEmit(h.log, r, h.emitter, ev)
		writeErr(w, http.StatusInternalServerError, MsgInternal)
		return
	}
	ev.Success = true
	AuditEmit(h.log, r, h.emitter, ev)
	writeResult(w, http.StatusCreated, true, MsgSeeded)
}

// ResetAttempts handles POST /api/reset_attempts and clears every lockout counter.
func (h *AdminHandler) ResetAttempts(w http.ResponseWriter, r *http.Request) {
	h.lockout.ResetAll(r.Context())
	AuditEmit(h.log, r, h.emitter, ports.AuditEvent{Event: EventResetAttempts, Success: true, Outcome: "reset"})
	writeResult(w, http.StatusOK, true, MsgAttemptsReset)
}
