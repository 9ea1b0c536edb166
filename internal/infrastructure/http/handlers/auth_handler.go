package handlers

import (
	"errors"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/amirhosseinghanipour/authgate/internal/application/auth"
	"github.com/amirhosseinghanipour/authgate/internal/application/ports"
	"github.com/amirhosseinghanipour/authgate/internal/domain"
	domerrors "github.com/amirhosseinghanipour/authgate/internal/domain/errors"
	"github.com/amirhosseinghanipour/authgate/internal/infrastructure/http/middleware"
)

// Sessions binds the login session to a request and reads it back.
type Sessions interface {
	ForRequest(w http.ResponseWriter, r *http.Request) ports.SessionEstablisher
	Current(r *http.Request) (string, bool)
}

type AuthHandler struct {
	login    *auth.Login
	register *auth.RegisterAccount
	sessions Sessions
	emitter  ports.WebhookEmitter
	validate *validator.Validate
	log      zerolog.Logger
}

func NewAuthHandler(login *auth.Login, register *auth.RegisterAccount, sessions Sessions, emitter ports.WebhookEmitter, log zerolog.Logger) *AuthHandler {
	return &AuthHandler{
		login:    login,
		register: register,
		sessions: sessions,
		emitter:  emitter,
		validate: validator.New(),
		log:      log,
	}
}

// Login handles POST /api/login. Business outcomes always answer 200; only
// malformed bodies (400) and collaborator faults (500) change the status.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var body loginRequest
	if err := decodeJSON(w, r, &body); err != nil {
		writeErr(w, http.StatusBadRequest, MsgInvalidJSON)
		return
	}
	res, err := h.login.Execute(r.Context(), auth.LoginInput{
		Identifier: body.Identifier,
		Password:   body.Password,
		Session:    h.sessions.ForRequest(w, r),
	})
	if err != nil {
		h.log.Error().Err(err).Msg("login failed")
		AuditEmit(h.log, r, h.emitter, ports.AuditEvent{
			Event:      EventLogin,
			Identifier: body.Identifier,
			Outcome:    "error",
			Err:        err.Error(),
		})
		middleware.RecordAuthAttempt("login", "error")
		writeErr(w, http.StatusInternalServerError, MsgInternal)
		return
	}

	success := res.Outcome == auth.OutcomeSuccess
	ev := ports.AuditEvent{
		Event:      EventLogin,
		Identifier: body.Identifier,
		Success:    success,
		Outcome:    res.Outcome.String(),
	}
	if res.Account != nil {
		ev.AccountID = res.Account.ID.String()
	}
	if res.Outcome == auth.OutcomeValidationError {
		ev.Err = res.Reason
	}
	AuditEmit(h.log, r, h.emitter, ev)
	middleware.RecordAuthAttempt("login", res.Outcome.String())
	writeResult(w, http.StatusOK, success, loginMessage(res))
}

func loginMessage(res *auth.LoginResult) string {
	switch res.Outcome {
	case auth.OutcomeSuccess:
		return MsgLoginSuccessful
	case auth.OutcomeUserNotFound:
		return MsgUserNotFound
	case auth.OutcomeLockedOut:
		return MsgTooManyAttempts
	case auth.OutcomeInvalidPassword:
		return MsgInvalidPassword
	}
	switch res.Reason {
	case auth.ReasonIdentifierTooLong:
		return MsgIdentifierTooLong
	case auth.ReasonPasswordTooLong:
		return MsgPasswordTooLong
	default:
		return MsgLoginMissing
	}
}

// Register handles POST /api/register.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var body registerRequest
	if err := decodeJSON(w, r, &body); err != nil {
		writeErr(w, http.StatusBadRequest, MsgInvalidJSON)
		return
	}
	body.trimIdentifiers()
	if err := h.validate.Struct(&body); err != nil {
		writeErr(w, http.StatusBadRequest, MsgRegisterMissing)
		return
	}
	account, err := h.register.Execute(r.Context(), auth.RegisterInput{
		Email:    body.Email,
		Phone:    body.Phone,
		Password: body.Password,
	})
	ev := ports.AuditEvent{Event: EventRegister, Identifier: firstNonEmpty(body.Email, body.Phone)}
	if err != nil {
		ev.Err = err.Error()
		switch {
		case errors.Is(err, domerrors.ErrMissingFields):
			ev.Outcome = "validation_error"
			AuditEmit(h.log, r, h.emitter, ev)
			middleware.RecordAuthAttempt("register", ev.Outcome)
			writeErr(w, http.StatusBadRequest, MsgRegisterMissing)
		case errors.Is(err, domerrors.ErrAlreadyExists):
			ev.Outcome = "already_exists"
			AuditEmit(h.log, r, h.emitter, ev)
			middleware.RecordAuthAttempt("register", ev.Outcome)
			writeErr(w, http.StatusBadRequest, MsgUserExists)
		default:
			h.log.Error().Err(err).Msg("register failed")
			ev.Outcome = "error"
			AuditEmit(h.log, r, h.emitter, ev)
			middleware.RecordAuthAttempt("register", ev.Outcome)
			writeErr(w, http.StatusInternalServerError, MsgInternal)
		}
		return
	}
	ev.AccountID = account.ID.String()
	ev.Success = true
	ev.Outcome = "success"
	AuditEmit(h.log, r, h.emitter, ev)
	middleware.RecordAuthAttempt("register", ev.Outcome)
	writeResult(w, http.StatusCreated, true, MsgRegistered)
}

// Session handles GET /api/session and reports who is logged in.
func (h *AuthHandler) Session(w http.ResponseWriter, r *http.Request) {
	identifier, ok := h.sessions.Current(r)
	if !ok {
		writeErr(w, http.StatusUnauthorized, MsgNotLoggedIn)
		return
	}
	writeResult(w, http.StatusOK, true, identifier)
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}

func accountIdentifier(a *domain.Account) string {
	return firstNonEmpty(a.Email, a.Phone)
}
