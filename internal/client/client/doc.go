// Package client is the typed entry point to the dashboard REST API.
//
// # Overview
//
// A Client owns one session: a token store, a request limiter, a refresh
// coordinator and a retry policy. Every call made through it goes through
// the same pipeline:
//
//  1. admission by the limiter (per attempt, so backoff does not hold a slot);
//  2. one HTTP exchange through the transport;
//  3. on 401, a shared token refresh followed by a single replay that is
//     admitted ahead of normal traffic;
//  4. on network errors, timeouts and 5xx, another attempt after backoff;
//  5. decoding of the JSON payload.
//
// The generic functions Get, Post, Put, Patch, Delete and Upload wrap that
// pipeline for any Requester and decode into the caller's type.
//
// # Error Handling
//
// Failures surface as *transport.Error (match with errors.As) or as the
// sentinels in internal/common (match with errors.Is). common.ErrUnauthenticated
// means the session is gone; the handler installed with
// WithUnauthenticatedHandler is called before it is returned.
//
// # Concurrency & Contexts
//
// A Client is safe for concurrent use. Independent Clients do not share any
// state, so several sessions can coexist in one process.
package client
