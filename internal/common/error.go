// Package common defines shared constants and sentinel errors used across
// the transport, queue, auth and facade layers. Callers should use errors.Is
// to match these values.
package common

import "errors"

var (
	// Transport-level failure kinds. A *transport.Error matches the sentinel
	// of its kind, so errors.Is(err, ErrNetwork) works on wrapped failures.
	ErrNetwork = errors.New("network error")
	ErrTimeout = errors.New("request timeout")

	// Session errors. ErrUnauthenticated means the credentials are gone and
	// the user has to log in again.
	ErrUnauthenticated = errors.New("unauthenticated")

	// Admission errors.
	ErrQueueTimeout = errors.New("request queue timeout")

	// ErrNotFound matches HTTP 404 failures.
	ErrNotFound = errors.New("not found")

	// Configuration errors.
	ErrInvalidBaseURL = errors.New("invalid base url")
)
