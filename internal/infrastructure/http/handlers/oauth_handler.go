package handlers

import (
	"errors"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/sessions"
	"github.com/markbates/goth"
	"github.com/markbates/goth/gothic"
	"github.com/markbates/goth/providers/google"
	"github.com/rs/zerolog"

	"github.com/amirhosseinghanipour/authgate/internal/application/auth"
	"github.com/amirhosseinghanipour/authgate/internal/application/ports"
	domerrors "github.com/amirhosseinghanipour/authgate/internal/domain/errors"
	"github.com/amirhosseinghanipour/authgate/internal/infrastructure/http/middleware"
)

// InitOAuthProviders registers Goth providers and the store gothic keeps OAuth state in. Call once at startup.
func InitOAuthProviders(callbackBaseURL string, store sessions.Store, googleClientID, googleClientSecret string) {
	if googleClientID != "" && googleClientSecret != "" {
		callbackURL := callbackBaseURL + "/api/auth/google/callback"
		p := google.New(googleClientID, googleClientSecret, callbackURL, "openid", "email", "profile")
		p.SetPrompt("select_account")
		goth.UseProviders(p)
	}
	if store != nil {
		gothic.Store = store
	}
}

// OAuthHandler runs the federated login redirect and callback.
type OAuthHandler struct {
	reconcile   *auth.ReconcileFederated
	frontendURL string
	emitter     ports.WebhookEmitter
	log         zerolog.Logger

	// swapped in tests
	getProvider  func(name string) (goth.Provider, error)
	beginAuth    func(w http.ResponseWriter, r *http.Request) (string, error)
	completeAuth func(w http.ResponseWriter, r *http.Request) (goth.User, error)
}

func NewOAuthHandler(reconcile *auth.ReconcileFederated, frontendURL string, emitter ports.WebhookEmitter, log zerolog.Logger) *OAuthHandler {
	return &OAuthHandler{
		reconcile:    reconcile,
		frontendURL:  frontendURL,
		emitter:      emitter,
		log:          log,
		getProvider:  goth.GetProvider,
		beginAuth:    gothic.GetAuthURL,
		completeAuth: gothic.CompleteUserAuth,
	}
}

// Begin handles GET /api/auth/{provider} and redirects to the provider's consent page.
func (h *OAuthHandler) Begin(w http.ResponseWriter, r *http.Request) {
	r2, ok := h.withProvider(w, r)
	if !ok {
		return
	}
	authURL, err := h.beginAuth(w, r2)
	if err != nil {
		h.log.Error().Err(err).Msg("oauth begin failed")
		writeErr(w, http.StatusInternalServerError, MsgInternal)
		return
	}
	http.Redirect(w, r, authURL, http.StatusFound)
}

// Callback handles GET /api/auth/{provider}/callback: links or creates the
// account by email, then redirects to FRONTEND_URL/welcome?user=<email>.
func (h *OAuthHandler) Callback(w http.ResponseWriter, r *http.Request) {
	r2, ok := h.withProvider(w, r)
	if !ok {
		return
	}
	gothUser, err := h.completeAuth(w, r2)
	if err != nil {
		h.log.Warn().Err(err).Msg("oauth exchange failed")
		AuditEmit(h.log, r, h.emitter, ports.AuditEvent{Event: EventFederatedLogin, Outcome: "exchange_failed", Err: err.Error()})
		middleware.RecordAuthAttempt("federated_login", "exchange_failed")
		writeErr(w, http.StatusUnauthorized, MsgOAuthFailed)
		return
	}
	account, err := h.reconcile.Execute(r.Context(), auth.FederatedIdentity{
		Provider:    gothUser.Provider,
		SubjectID:   gothUser.UserID,
		Email:       gothUser.Email,
		DisplayName: gothUser.Name,
	})
	if err != nil {
		ev := ports.AuditEvent{Event: EventFederatedLogin, Identifier: gothUser.Email, Err: err.Error()}
		if errors.Is(err, domerrors.ErrMissingEmail) {
			ev.Outcome = "missing_email"
			AuditEmit(h.log, r, h.emitter, ev)
			middleware.RecordAuthAttempt("federated_login", ev.Outcome)
			writeErr(w, http.StatusBadRequest, MsgMissingOAuthEmail)
			return
		}
		h.log.Error().Err(err).Msg("federated reconcile failed")
		ev.Outcome = "error"
		AuditEmit(h.log, r, h.emitter, ev)
		middleware.RecordAuthAttempt("federated_login", ev.Outcome)
		writeErr(w, http.StatusInternalServerError, MsgInternal)
		return
	}
	AuditEmit(h.log, r, h.emitter, ports.AuditEvent{
		Event:      EventFederatedLogin,
		Identifier: account.Email,
		AccountID:  account.ID.String(),
		Success:    true,
		Outcome:    "success",
	})
	middleware.RecordAuthAttempt("federated_login", "success")
	http.Redirect(w, r, welcomeURL(h.frontendURL, account.Email), http.StatusFound)
}

// withProvider validates the {provider} URL param and returns a clone carrying
// it in the query, where gothic looks for it.
func (h *OAuthHandler) withProvider(w http.ResponseWriter, r *http.Request) (*http.Request, bool) {
	provider := chi.URLParam(r, "provider")
	if provider == "" {
		writeErr(w, http.StatusBadRequest, MsgUnknownProvider)
		return nil, false
	}
	if _, err := h.getProvider(provider); err != nil {
		writeErr(w, http.StatusNotFound, MsgUnknownProvider)
		return nil, false
	}
	r2 := r.Clone(r.Context())
	q := r2.URL.Query()
	q.Set("provider", provider)
	r2.URL.RawQuery = q.Encode()
	return r2, true
}

func welcomeURL(frontendURL, email string) string {
	return frontendURL + "/welcome?" + url.Values{"user": {email}}.Encode()
}
