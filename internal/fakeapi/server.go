// Package fakeapi is an in-process stand-in for the dashboard backend.
//
// It speaks the same JSON over HTTP as the real service for the auth and
// accounting endpoints: short-lived HS256 access tokens, rotating opaque
// refresh tokens, DRF style pagination and {"detail": ...} error bodies.
// Tests drive it through its knobs: a movable clock, injected failures and
// counters of refresh calls.
package fakeapi

import (
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/dmitrijs2005/dashapi/internal/client/models"
	"github.com/dmitrijs2005/dashapi/internal/logging"
)

const (
	DefaultAccessTTL  = time.Minute
	DefaultRefreshTTL = time.Hour
	DefaultPageSize   = 50

	refreshTokenSize = 32
)

type user struct {
	models.User
	salt     []byte
	verifier []byte
}

type account struct {
	models.Account
	tenant string
}

type refreshToken struct {
	userID  string
	expires time.Time
}

type Server struct {
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
	pageSize   int
	refreshLag time.Duration
	basePath   string
	log        logging.Logger

	mu          sync.Mutex
	clock       func() time.Time
	offset      time.Duration
	users       map[string]*user
	refresh     map[string]refreshToken
	accounts    []account
	statements  []models.Statement
	idempotent  map[string]models.Account
	failures    map[string][]int
	nextID      int
	refreshHits int
}

type Option func(*Server)

func WithAccessTTL(d time.Duration) Option {
	return func(s *Server) { s.accessTTL = d }
}

func WithRefreshTTL(d time.Duration) Option {
	return func(s *Server) { s.refreshTTL = d }
}

func WithPageSize(n int) Option {
	return func(s *Server) { s.pageSize = n }
}

// WithRefreshDelay holds every refresh response for d, which widens the
// window in which concurrent callers pile up behind one refresh.
func WithRefreshDelay(d time.Duration) Option {
	return func(s *Server) { s.refreshLag = d }
}

// WithBasePath mounts every route under prefix, e.g. "/api".
func WithBasePath(prefix string) Option {
	return func(s *Server) { s.basePath = strings.TrimRight(prefix, "/") }
}

func WithLogger(l logging.Logger) Option {
	return func(s *Server) { s.log = l }
}

func WithClock(now func() time.Time) Option {
	return func(s *Server) { s.clock = now }
}

func New(secret string, opts ...Option) *Server {
	s := &Server{
		secret:     []byte(secret),
		accessTTL:  DefaultAccessTTL,
		refreshTTL: DefaultRefreshTTL,
		pageSize:   DefaultPageSize,
		log:        logging.Nop(),
		clock:      time.Now,
		users:      map[string]*user{},
		refresh:    map[string]refreshToken{},
		idempotent: map[string]models.Account{},
		failures:   map[string][]int{},
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

func (s *Server) now() time.Time {
	return s.clock().Add(s.offset)
}

// Advance moves the server clock forward, expiring tokens issued earlier.
func (s *Server) Advance(d time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.offset += d
}

// FailNext makes the next requests to path answer with the given statuses,
// one status per request, before the path behaves normally again.
func (s *Server) FailNext(path string, statuses ...int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[path] = append(s.failures[path], statuses...)
}

// RefreshCalls returns how many refresh requests were accepted.
func (s *Server) RefreshCalls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.refreshHits
}

// RevokeRefreshTokens invalidates every outstanding refresh token.
func (s *Server) RevokeRefreshTokens() {
	s.mu.Lock()
	defer s.mu.Unlock()
	clear(s.refresh)
}

// AddUser registers a user directly, bypassing the HTTP endpoint.
func (s *Server) AddUser(username, password, tenant string) (models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, err := s.addUserLocked(models.RegisterRequest{Username: username, Password: password, Tenant: tenant})
	if err != nil {
		return models.User{}, err
	}
	return u.User, nil
}

// AddAccount stores acc under tenant, assigning an id when it has none.
func (s *Server) AddAccount(tenant string, acc models.Account) models.Account {
	s.mu.Lock()
	defer s.mu.Unlock()
	if acc.ID == "" {
		acc.ID = s.newIDLocked("acc")
	}
	s.accounts = append(s.accounts, account{Account: acc, tenant: tenant})
	return acc
}

// Accounts returns the accounts stored under tenant.
func (s *Server) Accounts(tenant string) []models.Account {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tenantAccountsLocked(tenant)
}

// Statements returns a copy of the uploaded statements.
func (s *Server) Statements() []models.Statement {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.Statement(nil), s.statements...)
}

func (s *Server) newIDLocked(prefix string) string {
	s.nextID++
	return prefix + "-" + strconv.Itoa(s.nextID)
}

// Handler returns the HTTP routes of the backend.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	route := func(method, path string, h http.Handler) {
		mux.Handle(method+" "+s.basePath+path, h)
	}

	route("POST", "/auth/login/", http.HandlerFunc(s.handleLogin))
	route("POST", "/auth/register/", http.HandlerFunc(s.handleRegister))
	route("POST", "/auth/token/refresh/", http.HandlerFunc(s.handleRefresh))
	route("POST", "/auth/logout/", s.authenticated(s.handleLogout))
	route("GET", "/auth/me/", s.authenticated(s.handleMe))

	route("GET", "/accounting/accounts/{$}", s.authenticated(s.handleListAccounts))
	route("POST", "/accounting/accounts/{$}", s.authenticated(s.handleCreateAccount))
	route("GET", "/accounting/accounts/{id}/{$}", s.authenticated(s.handleGetAccount))
	route("DELETE", "/accounting/accounts/{id}/{$}", s.authenticated(s.handleDeleteAccount))
	route("POST", "/accounting/accounts/{id}/statements/{$}", s.authenticated(s.handleUploadStatement))

	return s.injectFailures(mux)
}

func (s *Server) injectFailures(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		queued := s.failures[r.URL.Path]
		status := 0
		if len(queued) > 0 {
			status = queued[0]
			s.failures[r.URL.Path] = queued[1:]
		}
		s.mu.Unlock()

		if status != 0 {
			s.log.Debug(r.Context(), "injected failure", "path", r.URL.Path, "status", status)
			writeDetail(w, status, http.StatusText(status))
			return
		}
		next.ServeHTTP(w, r)
	})
}
