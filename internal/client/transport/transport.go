// Package transport performs single HTTP exchanges against the backend API.
//
// A Transport never retries. Every failure comes back as *Error with a Kind
// (network, timeout, http) so the layers above can decide what to do; the
// only exception is the caller's own context ending, which is returned as
// ctx.Err().
package transport

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/dmitrijs2005/dashapi/internal/common"
	"github.com/dmitrijs2005/dashapi/internal/logging"
)

const defaultUserAgent = "dashapi-go"

type Transport struct {
	baseURL    *url.URL
	httpClient *http.Client
	timeout    time.Duration
	headers    http.Header
	log        logging.Logger
}

// Option mutates Transport.
type Option func(*Transport)

// WithHTTPClient allows custom http.Client.
func WithHTTPClient(client *http.Client) Option {
	return func(t *Transport) {
		if client != nil {
			t.httpClient = client
		}
	}
}

// WithTimeout sets the default per-attempt timeout. Request.Timeout wins
// when set. Zero disables the default.
func WithTimeout(d time.Duration) Option {
	return func(t *Transport) {
		if d >= 0 {
			t.timeout = d
		}
	}
}

// WithHeader adds a header sent on every request.
func WithHeader(key, value string) Option {
	return func(t *Transport) {
		t.headers.Set(key, value)
	}
}

func WithLogger(l logging.Logger) Option {
	return func(t *Transport) {
		if l != nil {
			t.log = l
		}
	}
}

// New creates a Transport for the API rooted at baseURL.
func New(baseURL string, opts ...Option) (*Transport, error) {
	u, err := url.Parse(baseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("%w: %q", common.ErrInvalidBaseURL, baseURL)
	}

	t := &Transport{
		baseURL:    u,
		httpClient: &http.Client{},
		headers:    http.Header{},
		log:        logging.Nop(),
	}
	t.headers.Set("Accept", "application/json")
	t.headers.Set("User-Agent", defaultUserAgent)

	for _, opt := range opts {
		opt(t)
	}
	return t, nil
}

// BaseURL returns the API root the transport was created with.
func (t *Transport) BaseURL() string {
	return t.baseURL.String()
}

// Do performs exactly one HTTP attempt. token is sent as a bearer credential
// unless the request skips auth or the token is empty.
func (t *Transport) Do(ctx context.Context, req *Request, token string) (*Response, error) {
	target, err := t.resolve(req.Path, req.Query)
	if err != nil {
		return nil, err
	}

	body, contentType, err := req.encodeBody()
	if err != nil {
		return nil, err
	}

	attemptCtx := ctx
	timeout := t.timeout
	if req.Timeout > 0 {
		timeout = req.Timeout
	}
	if timeout > 0 {
		var cancel context.CancelFunc
		attemptCtx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	httpReq, err := http.NewRequestWithContext(attemptCtx, req.Method, target, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	for k, v := range t.headers {
		httpReq.Header[k] = v
	}
	for k, v := range req.Header {
		httpReq.Header[k] = v
	}
	if contentType != "" {
		httpReq.Header.Set("Content-Type", contentType)
	}
	if !req.SkipAuth && token != "" {
		httpReq.Header.Set(common.AuthorizationHeaderName, common.BearerPrefix+token)
	}
	if req.ID != "" {
		httpReq.Header.Set(common.RequestIDHeaderName, req.ID)
	}
	if req.IdempotencyKey != "" {
		httpReq.Header.Set(common.IdempotencyKeyHeaderName, req.IdempotencyKey)
	}

	started := time.Now()
	resp, err := t.httpClient.Do(httpReq)
	if err != nil {
		return nil, t.classify(ctx, req, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, t.classify(ctx, req, err)
	}

	t.log.Debug(ctx, "http attempt",
		"request_id", req.ID, "method", req.Method, "path", req.Path,
		"status", resp.StatusCode, "duration", time.Since(started))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &Error{
			Kind:   KindHTTP,
			Method: req.Method,
			Path:   req.Path,
			Status: resp.StatusCode,
			Body:   data,
			Detail: parseDetail(data),
		}
	}

	return &Response{Status: resp.StatusCode, Header: resp.Header, Body: data}, nil
}

func (t *Transport) classify(ctx context.Context, req *Request, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}

	kind := KindNetwork
	var ne net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &ne) && ne.Timeout()) {
		kind = KindTimeout
	}

	t.log.Debug(ctx, "http attempt failed",
		"request_id", req.ID, "method", req.Method, "path", req.Path, "kind", kind.String(), "error", err)

	return &Error{Kind: kind, Method: req.Method, Path: req.Path, Err: err}
}

// resolve joins path onto the base URL. Absolute http(s) URLs, such as the
// "next" link of a page, are used as they are.
func (t *Transport) resolve(path string, query url.Values) (string, error) {
	var u *url.URL
	if strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
		parsed, err := url.Parse(path)
		if err != nil {
			return "", fmt.Errorf("invalid request url %q: %w", path, err)
		}
		u = parsed
	} else {
		rel, err := url.Parse(path)
		if err != nil {
			return "", fmt.Errorf("invalid request path %q: %w", path, err)
		}
		cp := *t.baseURL
		cp.Path = strings.TrimRight(t.baseURL.Path, "/") + "/" + strings.TrimLeft(rel.Path, "/")
		cp.RawPath = ""
		cp.RawQuery = rel.RawQuery
		u = &cp
	}

	if len(query) > 0 {
		q := u.Query()
		for k, vs := range query {
			for _, v := range vs {
				q.Add(k, v)
			}
		}
		u.RawQuery = q.Encode()
	}
	return u.String(), nil
}
