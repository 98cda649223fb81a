package fakeapi

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dmitrijs2005/dashapi/internal/client/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testAPI struct {
	t   *testing.T
	api *Server
	srv *httptest.Server
}

func newTestAPI(t *testing.T, opts ...Option) *testAPI {
	t.Helper()
	api := New("test-secret", opts...)
	srv := httptest.NewServer(api.Handler())
	t.Cleanup(srv.Close)
	return &testAPI{t: t, api: api, srv: srv}
}

func (a *testAPI) do(method, path, token string, body any, headers ...string) (*http.Response, []byte) {
	a.t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(a.t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, a.srv.URL+path, &buf)
	require.NoError(a.t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}

	resp, err := a.srv.Client().Do(req)
	require.NoError(a.t, err)
	defer resp.Body.Close()

	var out bytes.Buffer
	_, err = out.ReadFrom(resp.Body)
	require.NoError(a.t, err)
	return resp, out.Bytes()
}

func (a *testAPI) login(username, password string) models.TokenPair {
	a.t.Helper()
	resp, body := a.do(http.MethodPost, "/auth/login/", "", models.LoginRequest{Username: username, Password: password})
	require.Equal(a.t, http.StatusOK, resp.StatusCode, string(body))

	var pair models.TokenPair
	require.NoError(a.t, json.Unmarshal(body, &pair))
	return pair
}

func TestLoginAndMe(t *testing.T) {
	a := newTestAPI(t)
	_, err := a.api.AddUser("alice", "pw", "tenant-a")
	require.NoError(t, err)

	pair := a.login("alice", "pw")
	assert.NotEmpty(t, pair.Access)
	assert.Len(t, pair.Refresh, 2*refreshTokenSize)

	resp, body := a.do(http.MethodGet, "/auth/me/", pair.Access, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var me models.User
	require.NoError(t, json.Unmarshal(body, &me))
	assert.Equal(t, "alice", me.Username)
	assert.Equal(t, "tenant-a", me.Tenant)
}

func TestLogin_WrongPassword(t *testing.T) {
	a := newTestAPI(t)
	_, err := a.api.AddUser("alice", "pw", "")
	require.NoError(t, err)

	resp, body := a.do(http.MethodPost, "/auth/login/", "", models.LoginRequest{Username: "alice", Password: "nope"})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Contains(t, string(body), "detail")
}

func TestRegister(t *testing.T) {
	a := newTestAPI(t)

	req := models.RegisterRequest{Username: "bob", Email: "bob@example.com", Password: "pw"}
	resp, _ := a.do(http.MethodPost, "/auth/register/", "", req)
	assert.Equal(t, http.StatusCreated, resp.StatusCode)

	resp, body := a.do(http.MethodPost, "/auth/register/", "", req)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, string(body), "already exists")

	a.login("bob", "pw")
}

func TestAuthentication(t *testing.T) {
	a := newTestAPI(t, WithAccessTTL(time.Minute))
	_, err := a.api.AddUser("alice", "pw", "")
	require.NoError(t, err)
	pair := a.login("alice", "pw")

	resp, _ := a.do(http.MethodGet, "/auth/me/", "", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp, _ = a.do(http.MethodGet, "/auth/me/", "garbage", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	a.api.Advance(2 * time.Minute)
	resp, _ = a.do(http.MethodGet, "/auth/me/", pair.Access, nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestRefreshRotates(t *testing.T) {
	a := newTestAPI(t)
	_, err := a.api.AddUser("alice", "pw", "")
	require.NoError(t, err)
	pair := a.login("alice", "pw")

	resp, body := a.do(http.MethodPost, "/auth/token/refresh/", "", map[string]string{"refresh": pair.Refresh})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var next models.TokenPair
	require.NoError(t, json.Unmarshal(body, &next))
	assert.NotEqual(t, pair.Refresh, next.Refresh)
	assert.Equal(t, 1, a.api.RefreshCalls())

	// the consumed token is gone
	resp, _ = a.do(http.MethodPost, "/auth/token/refresh/", "", map[string]string{"refresh": pair.Refresh})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, 1, a.api.RefreshCalls())
}

func TestRefreshExpired(t *testing.T) {
	a := newTestAPI(t, WithRefreshTTL(time.Hour))
	_, err := a.api.AddUser("alice", "pw", "")
	require.NoError(t, err)
	pair := a.login("alice", "pw")

	a.api.Advance(2 * time.Hour)
	resp, _ := a.do(http.MethodPost, "/auth/token/refresh/", "", map[string]string{"refresh": pair.Refresh})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestLogoutRevokesRefreshTokens(t *testing.T) {
	a := newTestAPI(t)
	_, err := a.api.AddUser("alice", "pw", "")
	require.NoError(t, err)
	pair := a.login("alice", "pw")

	resp, _ := a.do(http.MethodPost, "/auth/logout/", pair.Access, nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp, _ = a.do(http.MethodPost, "/auth/token/refresh/", "", map[string]string{"refresh": pair.Refresh})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestListAccounts_PaginatesPerTenant(t *testing.T) {
	a := newTestAPI(t, WithPageSize(2))
	_, err := a.api.AddUser("alice", "pw", "tenant-a")
	require.NoError(t, err)
	for _, code := range []string{"1000", "1100", "1200"} {
		a.api.AddAccount("tenant-a", models.Account{Code: code, Name: "A " + code, IsActive: true})
	}
	a.api.AddAccount("tenant-b", models.Account{Code: "9999", Name: "foreign"})
	pair := a.login("alice", "pw")

	resp, body := a.do(http.MethodGet, "/accounting/accounts/", pair.Access, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var page models.Page[models.Account]
	require.NoError(t, json.Unmarshal(body, &page))
	assert.Equal(t, 3, page.Count)
	assert.Len(t, page.Results, 2)
	require.True(t, page.HasNext())
	assert.Nil(t, page.Previous)
	assert.Contains(t, *page.Next, a.srv.URL+"/accounting/accounts/?page=2")

	resp, body = a.do(http.MethodGet, "/accounting/accounts/?page=2", pair.Access, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	page = models.Page[models.Account]{}
	require.NoError(t, json.Unmarshal(body, &page))
	require.Len(t, page.Results, 1)
	assert.Equal(t, "1200", page.Results[0].Code)
	assert.False(t, page.HasNext())
	assert.NotNil(t, page.Previous)

	resp, _ = a.do(http.MethodGet, "/accounting/accounts/?page=3", pair.Access, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestCreateAccount_Idempotent(t *testing.T) {
	a := newTestAPI(t)
	_, err := a.api.AddUser("alice", "pw", "tenant-a")
	require.NoError(t, err)
	pair := a.login("alice", "pw")

	body := models.NewAccount{Code: "1000", Name: "Cash", Type: "asset"}
	resp, first := a.do(http.MethodPost, "/accounting/accounts/", pair.Access, body, "Idempotency-Key", "k1")
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	resp, second := a.do(http.MethodPost, "/accounting/accounts/", pair.Access, body, "Idempotency-Key", "k1")
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	assert.JSONEq(t, string(first), string(second))
	assert.Len(t, a.api.Accounts("tenant-a"), 1)

	resp, _ = a.do(http.MethodPost, "/accounting/accounts/", pair.Access, body, "Idempotency-Key", "k2")
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Len(t, a.api.Accounts("tenant-a"), 2)
}

func TestGetAndDeleteAccount(t *testing.T) {
	a := newTestAPI(t)
	_, err := a.api.AddUser("alice", "pw", "tenant-a")
	require.NoError(t, err)
	acc := a.api.AddAccount("tenant-a", models.Account{Code: "1000", Name: "Cash"})
	foreign := a.api.AddAccount("tenant-b", models.Account{Code: "1000", Name: "Cash"})
	pair := a.login("alice", "pw")

	resp, _ := a.do(http.MethodGet, "/accounting/accounts/"+acc.ID+"/", pair.Access, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, _ = a.do(http.MethodGet, "/accounting/accounts/"+foreign.ID+"/", pair.Access, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, _ = a.do(http.MethodDelete, "/accounting/accounts/"+acc.ID+"/", pair.Access, nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	assert.Empty(t, a.api.Accounts("tenant-a"))
}

func TestUploadStatement(t *testing.T) {
	a := newTestAPI(t)
	_, err := a.api.AddUser("alice", "pw", "tenant-a")
	require.NoError(t, err)
	acc := a.api.AddAccount("tenant-a", models.Account{Code: "1000", Name: "Cash"})
	pair := a.login("alice", "pw")

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	require.NoError(t, mw.WriteField("account", acc.ID))
	fw, err := mw.CreateFormFile("file", "march.csv")
	require.NoError(t, err)
	_, err = fw.Write([]byte("date,amount\n"))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req, err := http.NewRequest(http.MethodPost, a.srv.URL+"/accounting/accounts/"+acc.ID+"/statements/", &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+pair.Access)

	resp, err := a.srv.Client().Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	st := a.api.Statements()
	require.Len(t, st, 1)
	assert.Equal(t, "march.csv", st[0].FileName)
	assert.Equal(t, acc.ID, st[0].AccountID)
}

func TestFailNext(t *testing.T) {
	a := newTestAPI(t)
	_, err := a.api.AddUser("alice", "pw", "")
	require.NoError(t, err)

	a.api.FailNext("/auth/login/", http.StatusServiceUnavailable, http.StatusBadGateway)

	creds := models.LoginRequest{Username: "alice", Password: "pw"}
	resp, _ := a.do(http.MethodPost, "/auth/login/", "", creds)
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	resp, _ = a.do(http.MethodPost, "/auth/login/", "", creds)
	assert.Equal(t, http.StatusBadGateway, resp.StatusCode)
	resp, _ = a.do(http.MethodPost, "/auth/login/", "", creds)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
