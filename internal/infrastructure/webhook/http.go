package webhook

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/amirhosseinghanipour/authgate/internal/application/ports"
)

// Delivery headers. HeaderSignature carries "sha256=" followed by the hex
// HMAC-SHA256 of "<timestamp>.<body>" and is only sent when a secret is set.
const (
	HeaderEvent     = "X-Authgate-Event"
	HeaderDelivery  = "X-Authgate-Delivery"
	HeaderTimestamp = "X-Authgate-Timestamp"
	HeaderSignature = "X-Authgate-Signature"

	userAgent = "authgate-webhook/1"
)

// HTTPEmitter posts audit events as JSON to a single endpoint.
type HTTPEmitter struct {
	client *http.Client
	url    string
	secret []byte
	now    func() time.Time
}

type Option func(*HTTPEmitter)

// WithClient replaces the default client, which times out after 10s.
func WithClient(c *http.Client) Option {
	return func(e *HTTPEmitter) {
		e.client = c
	}
}

// WithSigningSecret signs every delivery. An empty secret leaves them unsigned.
func WithSigningSecret(secret string) Option {
	return func(e *HTTPEmitter) {
		if secret != "" {
			e.secret = []byte(secret)
		}
	}
}

func NewHTTPEmitter(url string, opts ...Option) *HTTPEmitter {
	e := &HTTPEmitter{
		client: &http.Client{Timeout: 10 * time.Second},
		url:    url,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *HTTPEmitter) Emit(ctx context.Context, event ports.AuditEvent) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encode audit event: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build webhook request: %w", err)
	}
	ts := strconv.FormatInt(e.now().Unix(), 10)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set(HeaderEvent, event.Event)
	req.Header.Set(HeaderDelivery, uuid.NewString())
	req.Header.Set(HeaderTimestamp, ts)
	if len(e.secret) > 0 {
		req.Header.Set(HeaderSignature, "sha256="+Sign(e.secret, ts, body))
	}

	resp, err := e.client.Do(req)
	if err != nil {
		return fmt.Errorf("deliver %s: %w", event.Event, err)
	}
	defer resp.Body.Close()
	// Drain a little so the connection can be reused.
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4<<10))
	if resp.StatusCode/100 != 2 {
		return &StatusError{Event: event.Event, Status: resp.StatusCode}
	}
	return nil
}

// Sign returns the hex HMAC-SHA256 of timestamp + "." + body under secret.
// Receivers recompute it to authenticate a delivery.
func Sign(secret []byte, timestamp string, body []byte) string {
	mac := hmac.New(sha256.New, secret)
	mac.Write([]byte(timestamp))
	mac.Write([]byte{'.'})
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

// StatusError is a non-2xx answer from the endpoint.
type StatusError struct {
	Event  string
	Status int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("deliver %s: endpoint answered %d", e.Event, e.Status)
}

// Permanent reports whether a retry cannot succeed: any 4xx except 408 and 429.
func (e *StatusError) Permanent() bool {
	return e.Status >= 400 && e.Status < 500 &&
		e.Status != http.StatusRequestTimeout && e.Status != http.StatusTooManyRequests
}

var _ ports.WebhookEmitter = (*HTTPEmitter)(nil)
