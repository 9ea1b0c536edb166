package webhook

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/amirhosseinghanipour/authgate/internal/application/ports"
)

func TestHTTPEmitterPostsSignedEvent(t *testing.T) {
	var (
		got     ports.AuditEvent
		headers http.Header
		raw     []byte
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.Header.Get("Content-Type") != "application/json" {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		headers = r.Header.Clone()
		raw, _ = io.ReadAll(r.Body)
		_ = json.Unmarshal(raw, &got)
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	e := NewHTTPEmitter(srv.URL, WithSigningSecret("whsec"))
	e.now = func() time.Time { return time.Unix(1700000000, 0) }
	ev := ports.AuditEvent{Event: "user.login", Identifier: "a@x.com", Success: true, Outcome: "success"}
	if err := e.Emit(context.Background(), ev); err != nil {
		t.Fatalf("Emit: %v", err)
	}
	if got != ev {
		t.Fatalf("received %+v, want %+v", got, ev)
	}
	if h := headers.Get(HeaderEvent); h != "user.login" {
		t.Errorf("%s = %q", HeaderEvent, h)
	}
	if headers.Get(HeaderDelivery) == "" {
		t.Errorf("%s missing", HeaderDelivery)
	}
	if h := headers.Get(HeaderTimestamp); h != "1700000000" {
		t.Errorf("%s = %q", HeaderTimestamp, h)
	}
	want := "sha256=" + Sign([]byte("whsec"), "1700000000", raw)
	if h := headers.Get(HeaderSignature); h != want {
		t.Errorf("%s = %q, want %q", HeaderSignature, h, want)
	}
	if headers.Get("User-Agent") != userAgent {
		t.Errorf("User-Agent = %q", headers.Get("User-Agent"))
	}
}

func TestHTTPEmitterUnsignedWithoutSecret(t *testing.T) {
	var sig string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sig = r.Header.Get(HeaderSignature)
	}))
	defer srv.Close()

	if err := NewHTTPEmitter(srv.URL, WithSigningSecret("")).Emit(context.Background(), ports.AuditEvent{Event: "user.register"}); err != nil {
		t.Fatalf("Emit: %v", err)
	}
	if sig != "" {
		t.Fatalf("unexpected signature %q", sig)
	}
}

func TestSignDependsOnSecretAndTimestamp(t *testing.T) {
	body := []byte(`{"event":"user.login"}`)
	base := Sign([]byte("k1"), "1", body)
	if base != Sign([]byte("k1"), "1", body) {
		t.Fatal("Sign is not deterministic")
	}
	if base == Sign([]byte("k2"), "1", body) || base == Sign([]byte("k1"), "2", body) {
		t.Fatal("Sign ignores secret or timestamp")
	}
}

func TestHTTPEmitterStatusErrors(t *testing.T) {
	tests := []struct {
		status    int
		permanent bool
	}{
		{http.StatusServiceUnavailable, false},
		{http.StatusTooManyRequests, false},
		{http.StatusRequestTimeout, false},
		{http.StatusBadRequest, true},
		{http.StatusGone, true},
	}
	for _, tt := range tests {
		t.Run(http.StatusText(tt.status), func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
			}))
			defer srv.Close()

			err := NewHTTPEmitter(srv.URL).Emit(context.Background(), ports.AuditEvent{Event: "user.login"})
			var se *StatusError
			if !errors.As(err, &se) || se.Status != tt.status || se.Event != "user.login" {
				t.Fatalf("err = %v, want StatusError %d", err, tt.status)
			}
			if se.Permanent() != tt.permanent {
				t.Fatalf("Permanent() = %v, want %v", se.Permanent(), tt.permanent)
			}
		})
	}
}
