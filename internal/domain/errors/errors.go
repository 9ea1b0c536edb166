package errors

import "errors"

// Sentinel errors for handlers to map to HTTP status.
var (
	ErrMissingFields      = errors.New("email or phone and password are required")
	ErrAlreadyExists      = errors.New("account already exists")
	ErrMissingEmail       = errors.New("identity provider did not supply an email")
	ErrAccountNotFound    = errors.New("account not found")
	ErrStoreUnavailable   = errors.New("credential store unavailable")
	ErrSessionUnavailable = errors.New("session store unavailable")
)
