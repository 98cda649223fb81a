package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/dmitrijs2005/dashapi/internal/client/transport"
)

type RequestOption func(*transport.Request)

// WithSkipAuth sends the request without a bearer token and keeps it out of
// the refresh flow, even when the API answers 401.
func WithSkipAuth() RequestOption {
	return func(r *transport.Request) { r.SkipAuth = true }
}

func WithHeader(key, value string) RequestOption {
	return func(r *transport.Request) {
		if r.Header == nil {
			r.Header = http.Header{}
		}
		r.Header.Set(key, value)
	}
}

// WithTimeout bounds each attempt of the call, not the call as a whole.
func WithTimeout(d time.Duration) RequestOption {
	return func(r *transport.Request) { r.Timeout = d }
}

// WithIdempotencyKey overrides the generated key of a mutating call.
func WithIdempotencyKey(key string) RequestOption {
	return func(r *transport.Request) { r.IdempotencyKey = key }
}

func Get[T any](ctx context.Context, r Requester, path string, params url.Values, opts ...RequestOption) (T, error) {
	return call[T](ctx, r, &transport.Request{Method: http.MethodGet, Path: path, Query: params}, opts)
}

func Post[T any](ctx context.Context, r Requester, path string, body any, opts ...RequestOption) (T, error) {
	return call[T](ctx, r, &transport.Request{Method: http.MethodPost, Path: path, Body: body}, opts)
}

func Put[T any](ctx context.Context, r Requester, path string, body any, opts ...RequestOption) (T, error) {
	return call[T](ctx, r, &transport.Request{Method: http.MethodPut, Path: path, Body: body}, opts)
}

func Patch[T any](ctx context.Context, r Requester, path string, body any, opts ...RequestOption) (T, error) {
	return call[T](ctx, r, &transport.Request{Method: http.MethodPatch, Path: path, Body: body}, opts)
}

func Delete(ctx context.Context, r Requester, path string, opts ...RequestOption) error {
	_, err := call[json.RawMessage](ctx, r, &transport.Request{Method: http.MethodDelete, Path: path}, opts)
	return err
}

// Upload sends form as multipart/form-data.
func Upload[T any](ctx context.Context, r Requester, path string, form *transport.Form, opts ...RequestOption) (T, error) {
	return call[T](ctx, r, &transport.Request{Method: http.MethodPost, Path: path, Form: form}, opts)
}

func call[T any](ctx context.Context, r Requester, req *transport.Request, opts []RequestOption) (T, error) {
	var zero T
	for _, opt := range opts {
		opt(req)
	}

	resp, err := r.Do(ctx, req)
	if err != nil {
		return zero, err
	}
	return decode[T](resp)
}

// decode unmarshals the body into T. Empty bodies (204 and friends) yield
// the zero value.
func decode[T any](resp *transport.Response) (T, error) {
	var v T
	if resp == nil || len(resp.Body) == 0 || resp.Status == http.StatusNoContent {
		return v, nil
	}
	if err := json.Unmarshal(resp.Body, &v); err != nil {
		return v, fmt.Errorf("%w: %w", ErrDecode, err)
	}
	return v, nil
}
