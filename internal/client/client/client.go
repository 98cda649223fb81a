package client

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/dmitrijs2005/dashapi/internal/client/auth"
	"github.com/dmitrijs2005/dashapi/internal/client/models"
	"github.com/dmitrijs2005/dashapi/internal/client/queue"
	"github.com/dmitrijs2005/dashapi/internal/client/retry"
	"github.com/dmitrijs2005/dashapi/internal/client/tokens"
	"github.com/dmitrijs2005/dashapi/internal/client/transport"
	"github.com/dmitrijs2005/dashapi/internal/common"
	"github.com/dmitrijs2005/dashapi/internal/logging"
	"github.com/google/uuid"
)

// Requester performs one logical API call. *Client implements it; tests and
// decorators may provide their own.
type Requester interface {
	Do(ctx context.Context, req *transport.Request) (*transport.Response, error)
}

const (
	DefaultRefreshPath = "/auth/token/refresh/"
	DefaultExpirySkew  = 30 * time.Second
)

type Config struct {
	BaseURL     string
	RefreshPath string

	// RequestTimeout bounds every single attempt. Zero means no limit.
	RequestTimeout time.Duration
	RefreshTimeout time.Duration
	// ExpirySkew is how early a token with a known lifetime is refreshed
	// before it is sent. Zero means DefaultExpirySkew, negative disables
	// proactive refresh.
	ExpirySkew time.Duration

	Queue queue.Config
	Retry retry.Config
}

type Client struct {
	cfg       Config
	store     tokens.Store
	transport *transport.Transport
	limiter   *queue.Limiter
	retry     *retry.Policy
	coord     *auth.Coordinator
	log       logging.Logger
	now       func() time.Time

	onUnauthenticated func(ctx context.Context)
	stats             counters
}

var _ Requester = (*Client)(nil)

type options struct {
	log        logging.Logger
	httpClient *http.Client
	headers    http.Header
	refresher  auth.Refresher
	jitter     func(time.Duration) time.Duration
	now        func() time.Time
	onUnauth   func(ctx context.Context)
}

type Option func(*options)

func WithLogger(l logging.Logger) Option {
	return func(o *options) { o.log = l }
}

func WithHTTPClient(c *http.Client) Option {
	return func(o *options) { o.httpClient = c }
}

// WithDefaultHeader adds a header to every request of the session.
func WithDefaultHeader(key, value string) Option {
	return func(o *options) { o.headers.Add(key, value) }
}

// WithRefresher replaces the built-in call to the refresh endpoint.
func WithRefresher(r auth.Refresher) Option {
	return func(o *options) { o.refresher = r }
}

// WithJitter replaces the random backoff jitter.
func WithJitter(f func(limit time.Duration) time.Duration) Option {
	return func(o *options) { o.jitter = f }
}

// WithClock replaces time.Now when checking token expiry.
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

// WithUnauthenticatedHandler installs a callback fired whenever a call ends
// with common.ErrUnauthenticated, so the caller can tear down its session.
func WithUnauthenticatedHandler(f func(ctx context.Context)) Option {
	return func(o *options) { o.onUnauth = f }
}

// New creates a Client bound to store. Nothing is sent until the first call.
func New(cfg Config, store tokens.Store, opts ...Option) (*Client, error) {
	o := options{log: logging.Nop(), headers: http.Header{}, now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}
	if o.log == nil {
		o.log = logging.Nop()
	}
	if cfg.RefreshPath == "" {
		cfg.RefreshPath = DefaultRefreshPath
	}
	switch {
	case cfg.ExpirySkew == 0:
		cfg.ExpirySkew = DefaultExpirySkew
	case cfg.ExpirySkew < 0:
		cfg.ExpirySkew = 0
	}

	topts := []transport.Option{
		transport.WithTimeout(cfg.RequestTimeout),
		transport.WithLogger(o.log),
	}
	if o.httpClient != nil {
		topts = append(topts, transport.WithHTTPClient(o.httpClient))
	}
	for k, vs := range o.headers {
		for _, v := range vs {
			topts = append(topts, transport.WithHeader(k, v))
		}
	}
	tr, err := transport.New(cfg.BaseURL, topts...)
	if err != nil {
		return nil, err
	}

	c := &Client{
		cfg:               cfg,
		store:             store,
		transport:         tr,
		limiter:           queue.New(cfg.Queue),
		log:               o.log,
		now:               o.now,
		onUnauthenticated: o.onUnauth,
	}

	var ropts []retry.Option
	if o.jitter != nil {
		ropts = append(ropts, retry.WithJitter(o.jitter))
	}
	c.retry = retry.NewPolicy(cfg.Retry, ropts...)
	c.retry.OnRetry = c.logRetry

	refresher := o.refresher
	if refresher == nil {
		refresher = endpointRefresher{c: c}
	}
	c.coord = auth.New(store, refresher, auth.WithLogger(o.log), auth.WithTimeout(cfg.RefreshTimeout))

	return c, nil
}

// Do runs req through admission, authentication, refresh and retry, and
// returns the first successful response.
func (c *Client) Do(ctx context.Context, req *transport.Request) (*transport.Response, error) {
	c.stats.requests.Add(1)

	p := newPendingRequest(req, c.now())
	log := c.log.With("request_id", p.req.ID, "method", p.req.Method, "path", p.req.Path)

	var resp *transport.Response
	err := c.retry.Do(ctx, func(ctx context.Context, attempt int) error {
		p.attempts = attempt
		r, err := c.attempt(ctx, p)
		if err != nil {
			log.Debug(ctx, "attempt failed", "attempt", attempt, "error", err)
			return err
		}
		resp = r
		return nil
	})
	if err != nil {
		return nil, c.settle(ctx, log, p, err)
	}

	log.Debug(ctx, "request completed", "status", resp.Status, "attempts", p.attempts, "elapsed", c.now().Sub(p.enqueuedAt))
	return resp, nil
}

func (c *Client) attempt(ctx context.Context, p *pendingRequest) (*transport.Response, error) {
	var token string
	if !p.req.SkipAuth {
		tok, err := c.accessToken(ctx)
		if err != nil {
			return nil, err
		}
		token = tok
	}

	resp, err := c.send(ctx, p.req, queue.PriorityNormal, token)
	if err == nil || p.req.SkipAuth || !transport.IsUnauthorized(err) {
		return resp, err
	}

	fresh, err := c.coord.Refresh(ctx, token)
	if err != nil {
		return nil, err
	}

	c.stats.replays.Add(1)
	resp, err = c.send(ctx, p.req, queue.PriorityReplay, fresh)
	if transport.IsUnauthorized(err) {
		if cerr := c.store.Clear(ctx); cerr != nil {
			c.log.Warn(ctx, "clear credentials", "error", cerr)
		}
		return nil, fmt.Errorf("%w: replay rejected: %w", common.ErrUnauthenticated, err)
	}
	return resp, err
}

// send holds a limiter slot for exactly one exchange. The slot is released
// before any refresh or backoff so waiting callers never starve the refresh.
func (c *Client) send(ctx context.Context, req *transport.Request, prio queue.Priority, token string) (*transport.Response, error) {
	release, err := c.limiter.Acquire(ctx, prio)
	if err != nil {
		return nil, err
	}
	defer release()

	c.stats.attempts.Add(1)
	return c.transport.Do(ctx, req, token)
}

// accessToken returns the token to send, refreshing it first when its known
// lifetime is about to end.
func (c *Client) accessToken(ctx context.Context) (string, error) {
	creds, err := c.store.Get(ctx)
	if err != nil {
		return "", fmt.Errorf("read credentials: %w", err)
	}
	if creds == nil {
		return "", nil
	}
	if creds.RefreshToken != "" && creds.Expired(c.now(), c.cfg.ExpirySkew) {
		return c.coord.Refresh(ctx, creds.AccessToken)
	}
	return creds.AccessToken, nil
}

func (c *Client) settle(ctx context.Context, log logging.Logger, p *pendingRequest, err error) error {
	switch {
	case errors.Is(err, common.ErrUnauthenticated):
		c.stats.unauthenticated.Add(1)
		log.Warn(ctx, "session ended", "error", err)
		if c.onUnauthenticated != nil {
			c.onUnauthenticated(ctx)
		}
	case errors.Is(err, common.ErrQueueTimeout):
		c.stats.queueTimeouts.Add(1)
		log.Warn(ctx, "request not admitted in time", "waited", c.now().Sub(p.enqueuedAt))
	default:
		log.Debug(ctx, "request failed", "attempts", p.attempts, "error", err)
	}
	return err
}

func (c *Client) logRetry(ctx context.Context, attempt int, err error, d retry.Decision) {
	c.stats.retries.Add(1)
	c.log.Warn(ctx, "retrying request", "attempt", attempt, "delay", d.Delay, "reason", d.Reason, "error", err)
}

// SetTokens stores a new pair, typically right after login. The expiry is
// read from the access token when it is a JWT.
func (c *Client) SetTokens(ctx context.Context, access, refresh string) error {
	return c.store.Set(ctx, models.Credentials{
		AccessToken:  access,
		RefreshToken: refresh,
		ExpiresAt:    tokens.ExpiryFromToken(access),
	})
}

func (c *Client) ClearTokens(ctx context.Context) error {
	return c.store.Clear(ctx)
}

// GetAccessToken returns the stored access token, or "" without a session.
func (c *Client) GetAccessToken(ctx context.Context) (string, error) {
	creds, err := c.store.Get(ctx)
	if err != nil || creds == nil {
		return "", err
	}
	return creds.AccessToken, nil
}

func (c *Client) IsAuthenticated(ctx context.Context) bool {
	token, err := c.GetAccessToken(ctx)
	if err != nil {
		c.log.Warn(ctx, "read credentials", "error", err)
		return false
	}
	return token != ""
}

func (c *Client) BaseURL() string {
	return c.transport.BaseURL()
}

type pendingRequest struct {
	req        *transport.Request
	attempts   int
	enqueuedAt time.Time
}

// newPendingRequest copies req so the caller's value is never modified and
// fixes the identifiers shared by all attempts of the call.
func newPendingRequest(req *transport.Request, now time.Time) *pendingRequest {
	cp := *req
	cp.Header = req.Header.Clone()
	if cp.Method == "" {
		cp.Method = http.MethodGet
	}
	if cp.ID == "" {
		cp.ID = uuid.NewString()
	}
	if cp.IdempotencyKey == "" && mutating(cp.Method) {
		cp.IdempotencyKey = uuid.NewString()
	}
	return &pendingRequest{req: &cp, enqueuedAt: now}
}

func mutating(method string) bool {
	switch method {
	case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
		return true
	}
	return false
}
