// Package common contains shared constants and sentinel errors used across
// dashapi components.
package common

// AuthorizationHeaderName is the HTTP header carrying the bearer access token
// on outbound requests.
const AuthorizationHeaderName = "Authorization"

// BearerPrefix precedes the access token in the Authorization header value.
const BearerPrefix = "Bearer "

// IdempotencyKeyHeaderName lets the backend deduplicate retried mutating
// requests belonging to one logical operation.
const IdempotencyKeyHeaderName = "Idempotency-Key"

// RequestIDHeaderName carries the client-side request id for log correlation.
const RequestIDHeaderName = "X-Request-ID"
