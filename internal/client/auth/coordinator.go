// Package auth keeps the access token of a session valid.
//
// When a request fails with 401 its caller hands the access token it used to
// Coordinator.Refresh. Concurrent callers share one call to the refresh
// endpoint and all receive its outcome. A failed refresh ends the session:
// the store is cleared and every waiter gets common.ErrUnauthenticated.
package auth

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/dmitrijs2005/dashapi/internal/client/models"
	"github.com/dmitrijs2005/dashapi/internal/client/tokens"
	"github.com/dmitrijs2005/dashapi/internal/common"
	"github.com/dmitrijs2005/dashapi/internal/logging"
	"golang.org/x/sync/singleflight"
)

type State int32

const (
	StateIdle State = iota
	StateRefreshing
)

func (s State) String() string {
	if s == StateRefreshing {
		return "refreshing"
	}
	return "idle"
}

// Refresher exchanges a refresh token for a new pair. An empty Refresh in
// the result means the backend does not rotate refresh tokens.
type Refresher interface {
	Refresh(ctx context.Context, refreshToken string) (models.TokenPair, error)
}

type RefresherFunc func(ctx context.Context, refreshToken string) (models.TokenPair, error)

func (f RefresherFunc) Refresh(ctx context.Context, refreshToken string) (models.TokenPair, error) {
	return f(ctx, refreshToken)
}

var errNoAccessToken = errors.New("refresh response carries no access token")

const (
	flightKey             = "refresh"
	DefaultRefreshTimeout = 15 * time.Second
)

type Coordinator struct {
	store     tokens.Store
	refresher Refresher
	timeout   time.Duration
	log       logging.Logger

	group   singleflight.Group
	state   atomic.Int32
	started atomic.Uint64
	failed  atomic.Uint64
}

type Option func(*Coordinator)

func WithLogger(l logging.Logger) Option {
	return func(c *Coordinator) {
		if l != nil {
			c.log = l
		}
	}
}

// WithTimeout bounds a single refresh call. The flight does not inherit the
// deadline of the caller that happened to start it.
func WithTimeout(d time.Duration) Option {
	return func(c *Coordinator) {
		if d > 0 {
			c.timeout = d
		}
	}
}

func New(store tokens.Store, refresher Refresher, opts ...Option) *Coordinator {
	c := &Coordinator{
		store:     store,
		refresher: refresher,
		timeout:   DefaultRefreshTimeout,
		log:       logging.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Refresh returns an access token newer than stale.
//
// If the store already holds a different token, a refresh finished while the
// caller's request was in flight and that token is returned without a
// network call. Otherwise the caller joins the current refresh or starts
// one. When ctx ends first the caller stops waiting with ctx.Err() and the
// refresh carries on for the others.
func (c *Coordinator) Refresh(ctx context.Context, stale string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	if token, ok, err := c.current(ctx, stale); err != nil || ok {
		return token, err
	}

	ch := c.group.DoChan(flightKey, func() (any, error) {
		return c.refresh(ctx, stale)
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return "", res.Err
		}
		return res.Val.(string), nil
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

// current reports whether the store already answers the request: either a
// token newer than stale exists, or no refresh is possible at all.
func (c *Coordinator) current(ctx context.Context, stale string) (string, bool, error) {
	creds, err := c.store.Get(ctx)
	if err != nil {
		return "", true, fmt.Errorf("read credentials: %w", err)
	}
	if creds == nil || creds.RefreshToken == "" {
		c.drop(ctx)
		return "", true, fmt.Errorf("%w: no refresh token", common.ErrUnauthenticated)
	}
	if creds.AccessToken != "" && creds.AccessToken != stale {
		return creds.AccessToken, true, nil
	}
	return "", false, nil
}

func (c *Coordinator) refresh(parent context.Context, stale string) (string, error) {
	c.state.Store(int32(StateRefreshing))
	defer c.state.Store(int32(StateIdle))

	ctx, cancel := context.WithTimeout(context.WithoutCancel(parent), c.timeout)
	defer cancel()

	// Another flight may have finished between the caller's check and now.
	creds, err := c.store.Get(ctx)
	if err != nil {
		return "", c.fail(ctx, fmt.Errorf("read credentials: %w", err))
	}
	if creds == nil || creds.RefreshToken == "" {
		// An earlier flight already ended the session.
		return "", fmt.Errorf("%w: no refresh token", common.ErrUnauthenticated)
	}
	if creds.AccessToken != "" && creds.AccessToken != stale {
		return creds.AccessToken, nil
	}

	c.started.Add(1)
	c.log.Info(ctx, "refreshing access token")

	pair, err := c.refresher.Refresh(ctx, creds.RefreshToken)
	if err != nil {
		return "", c.fail(ctx, err)
	}
	if pair.Access == "" {
		return "", c.fail(ctx, errNoAccessToken)
	}

	next := models.Credentials{
		AccessToken:  pair.Access,
		RefreshToken: pair.Refresh,
		ExpiresAt:    tokens.ExpiryFromToken(pair.Access),
	}
	if next.RefreshToken == "" {
		next.RefreshToken = creds.RefreshToken
	}
	if err := c.store.Set(ctx, next); err != nil {
		return "", c.fail(ctx, fmt.Errorf("store credentials: %w", err))
	}

	c.log.Info(ctx, "access token refreshed")
	return next.AccessToken, nil
}

func (c *Coordinator) fail(ctx context.Context, cause error) error {
	c.failed.Add(1)
	c.log.Error(ctx, "token refresh failed, session cleared", "error", cause)
	c.drop(ctx)
	return fmt.Errorf("%w: refresh failed: %w", common.ErrUnauthenticated, cause)
}

func (c *Coordinator) drop(ctx context.Context) {
	if err := c.store.Clear(ctx); err != nil {
		c.log.Warn(ctx, "clear credentials", "error", err)
	}
}

func (c *Coordinator) State() State {
	return State(c.state.Load())
}

// Counters returns how many refresh calls were made and how many failed.
func (c *Coordinator) Counters() (started, failed uint64) {
	return c.started.Load(), c.failed.Load()
}
