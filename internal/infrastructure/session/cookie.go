package session

import (
	"context"
	"net/http"

	"github.com/gorilla/sessions"

	"github.com/amirhosseinghanipour/authgate/internal/application/ports"
)

const (
	keyLoggedIn = "logged_in"
	keyUser     = "user"

	defaultCookieName = "authgate_session"
	defaultMaxAge     = 7 * 24 * 60 * 60
)

// CookieStore keeps the login session in a signed cookie.
type CookieStore struct {
	store sessions.Store
	name  string
}

// NewCookieStore signs cookies with secret. secure sets the cookie Secure flag.
func NewCookieStore(secret []byte, name string, secure bool) *CookieStore {
	if name == "" {
		name = defaultCookieName
	}
	cs := sessions.NewCookieStore(secret)
	cs.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   defaultMaxAge,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	}
	return &CookieStore{store: cs, name: name}
}

// Store exposes the underlying gorilla store (shared with the OAuth flow).
func (s *CookieStore) Store() sessions.Store {
	return s.store
}

// ForRequest binds the store to one request/response pair.
func (s *CookieStore) ForRequest(w http.ResponseWriter, r *http.Request) ports.SessionEstablisher {
	return &requestSession{store: s, w: w, r: r}
}

// Current returns the logged-in identifier, if any.
func (s *CookieStore) Current(r *http.Request) (string, bool) {
	sess, err := s.store.Get(r, s.name)
	if err != nil || sess == nil {
		return "", false
	}
	if loggedIn, _ := sess.Values[keyLoggedIn].(bool); !loggedIn {
		return "", false
	}
	user, _ := sess.Values[keyUser].(string)
	return user, user != ""
}

type requestSession struct {
	store *CookieStore
	w     http.ResponseWriter
	r     *http.Request
}

func (rs *requestSession) Establish(ctx context.Context, identifier string) error {
	// Get hands back a fresh session alongside the error when the cookie no longer decodes.
	sess, err := rs.store.store.Get(rs.r, rs.store.name)
	if sess == nil {
		return err
	}
	sess.Values[keyLoggedIn] = true
	sess.Values[keyUser] = identifier
	return sess.Save(rs.r, rs.w)
}
