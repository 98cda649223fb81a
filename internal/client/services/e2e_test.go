package services

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/dmitrijs2005/dashapi/internal/client/client"
	"github.com/dmitrijs2005/dashapi/internal/client/models"
	"github.com/dmitrijs2005/dashapi/internal/client/queue"
	"github.com/dmitrijs2005/dashapi/internal/client/retry"
	"github.com/dmitrijs2005/dashapi/internal/client/tokens"
	"github.com/dmitrijs2005/dashapi/internal/common"
	"github.com/dmitrijs2005/dashapi/internal/fakeapi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type backend struct {
	api  *fakeapi.Server
	c    *client.Client
	auth AuthService
	acc  AccountingService
}

func newBackend(t *testing.T, opts ...fakeapi.Option) *backend {
	t.Helper()

	api := fakeapi.New("e2e-secret", opts...)
	srv := httptest.NewServer(api.Handler())
	t.Cleanup(srv.Close)

	_, err := api.AddUser("alice", "correct horse", "tenant-a")
	require.NoError(t, err)

	cfg := client.Config{
		BaseURL: srv.URL,
		Queue:   queue.Config{MaxInFlight: 4},
		Retry:   retry.Config{BaseDelay: time.Millisecond, Multiplier: 2, MaxDelay: 5 * time.Millisecond, MaxAttempts: 3},
	}
	c, err := client.New(cfg, tokens.NewMemoryStore(), client.WithJitter(func(time.Duration) time.Duration { return 0 }))
	require.NoError(t, err)

	return &backend{api: api, c: c, auth: NewAuthService(c), acc: NewAccountingService(c)}
}

func TestEndToEnd_LoginMeLogout(t *testing.T) {
	ctx := context.Background()
	b := newBackend(t)

	require.NoError(t, b.auth.Login(ctx, "alice", "correct horse"))
	assert.True(t, b.c.IsAuthenticated(ctx))

	me, err := b.auth.Me(ctx)
	require.NoError(t, err)
	assert.Equal(t, "alice", me.Username)
	assert.Equal(t, "tenant-a", me.Tenant)

	require.NoError(t, b.auth.Logout(ctx))
	assert.False(t, b.c.IsAuthenticated(ctx))

	_, err = b.auth.Me(ctx)
	assert.True(t, errors.Is(err, common.ErrUnauthenticated), "got %v", err)
}

func TestEndToEnd_WrongPasswordLeavesNoSession(t *testing.T) {
	ctx := context.Background()
	b := newBackend(t)

	err := b.auth.Login(ctx, "alice", "wrong")
	require.Error(t, err)
	assert.False(t, b.c.IsAuthenticated(ctx))
	assert.Zero(t, b.api.RefreshCalls())
}

func TestEndToEnd_ExpiredTokenRefreshedOnceForConcurrentCalls(t *testing.T) {
	ctx := context.Background()
	b := newBackend(t, fakeapi.WithAccessTTL(time.Minute), fakeapi.WithRefreshDelay(50*time.Millisecond))
	b.api.AddAccount("tenant-a", models.Account{Code: "1000", Name: "Cash", IsActive: true})

	require.NoError(t, b.auth.Login(ctx, "alice", "correct horse"))
	before, err := b.c.GetAccessToken(ctx)
	require.NoError(t, err)

	b.api.Advance(2 * time.Minute)

	const n = 10
	var wg sync.WaitGroup
	errs := make([]error, n)
	for i := range n {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = b.acc.ListAccounts(ctx, nil)
		}(i)
	}
	wg.Wait()

	for i, err := range errs {
		assert.NoError(t, err, "call %d", i)
	}
	assert.Equal(t, 1, b.api.RefreshCalls())

	after, err := b.c.GetAccessToken(ctx)
	require.NoError(t, err)
	assert.NotEqual(t, before, after)

	st := b.c.Stats()
	assert.Equal(t, uint64(1), st.Refreshes)
	assert.Zero(t, st.RefreshFailures)
}

func TestEndToEnd_RevokedRefreshTokenEndsSession(t *testing.T) {
	ctx := context.Background()
	b := newBackend(t, fakeapi.WithAccessTTL(time.Minute))

	require.NoError(t, b.auth.Login(ctx, "alice", "correct horse"))
	b.api.RevokeRefreshTokens()
	b.api.Advance(2 * time.Minute)

	_, err := b.acc.ListAccounts(ctx, nil)
	assert.True(t, errors.Is(err, common.ErrUnauthenticated), "got %v", err)
	assert.False(t, b.c.IsAuthenticated(ctx))
	assert.Equal(t, uint64(1), b.c.Stats().RefreshFailures)
}

func TestEndToEnd_TransientFailuresAreRetried(t *testing.T) {
	ctx := context.Background()
	b := newBackend(t)
	require.NoError(t, b.auth.Login(ctx, "alice", "correct horse"))

	b.api.FailNext("/accounting/accounts/", http.StatusServiceUnavailable, http.StatusBadGateway)

	acc, err := b.acc.CreateAccount(ctx, models.NewAccount{Code: "1000", Name: "Cash", Type: "asset"})
	require.NoError(t, err)
	assert.Equal(t, "1000", acc.Code)
	assert.Len(t, b.api.Accounts("tenant-a"), 1)
	assert.Equal(t, uint64(2), b.c.Stats().Retries)
}

func TestEndToEnd_AccountsLifecycle(t *testing.T) {
	ctx := context.Background()
	b := newBackend(t, fakeapi.WithPageSize(2))
	for _, code := range []string{"1000", "1100", "1200", "1300", "1400"} {
		b.api.AddAccount("tenant-a", models.Account{Code: code, Name: "Account " + code, IsActive: true})
	}
	b.api.AddAccount("tenant-b", models.Account{Code: "9000", Name: "Elsewhere"})

	require.NoError(t, b.auth.Login(ctx, "alice", "correct horse"))

	all, err := b.acc.AllAccounts(ctx, nil)
	require.NoError(t, err)
	require.Len(t, all, 5)
	assert.Equal(t, "1400", all[4].Code)

	got, err := b.acc.GetAccount(ctx, all[0].ID)
	require.NoError(t, err)
	assert.Equal(t, all[0], got)

	st, err := b.acc.UploadStatement(ctx, got.ID, "march.csv", []byte("date,amount\n2026-03-01,10.00\n"))
	require.NoError(t, err)
	assert.Equal(t, got.ID, st.AccountID)
	assert.Equal(t, "march.csv", st.FileName)

	require.NoError(t, b.acc.DeleteAccount(ctx, got.ID))
	_, err = b.acc.GetAccount(ctx, got.ID)
	assert.True(t, errors.Is(err, common.ErrNotFound), "got %v", err)
	assert.Len(t, b.api.Accounts("tenant-a"), 4)
}
