package fakeapi

import (
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strconv"

	"github.com/dmitrijs2005/dashapi/internal/client/models"
)

const maxUploadSize = 10 << 20

func (s *Server) tenantAccountsLocked(tenant string) []models.Account {
	var out []models.Account
	for _, a := range s.accounts {
		if a.tenant == tenant {
			out = append(out, a.Account)
		}
	}
	return out
}

func (s *Server) findAccountLocked(tenant, id string) int {
	for i, a := range s.accounts {
		if a.tenant == tenant && a.ID == id {
			return i
		}
	}
	return -1
}

// pageURL builds the absolute link to page n of the current listing.
func pageURL(r *http.Request, n int) *string {
	q := r.URL.Query()
	q.Set("page", strconv.Itoa(n))
	u := url.URL{Scheme: "http", Host: r.Host, Path: r.URL.Path, RawQuery: q.Encode()}
	link := u.String()
	return &link
}

func (s *Server) handleListAccounts(w http.ResponseWriter, r *http.Request) {
	claims := claimsFrom(r.Context())

	page := 1
	if raw := r.URL.Query().Get("page"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			writeDetail(w, http.StatusNotFound, "Invalid page.")
			return
		}
		page = n
	}

	s.mu.Lock()
	all := s.tenantAccountsLocked(claims.Tenant)
	size := s.pageSize
	s.mu.Unlock()

	if active := r.URL.Query().Get("is_active"); active != "" {
		want := active == "true"
		filtered := all[:0:0]
		for _, a := range all {
			if a.IsActive == want {
				filtered = append(filtered, a)
			}
		}
		all = filtered
	}

	start := (page - 1) * size
	if start > len(all) || (start == len(all) && page > 1) {
		writeDetail(w, http.StatusNotFound, "Invalid page.")
		return
	}
	end := min(start+size, len(all))

	resp := models.Page[models.Account]{
		Count:   len(all),
		Results: append([]models.Account{}, all[start:end]...),
	}
	if end < len(all) {
		resp.Next = pageURL(r, page+1)
	}
	if page > 1 {
		resp.Previous = pageURL(r, page-1)
	}
	writeJSON(w, http.StatusOK, resp)
}

// handleCreateAccount answers a repeated Idempotency-Key with the account
// created the first time.
func (s *Server) handleCreateAccount(w http.ResponseWriter, r *http.Request) {
	claims := claimsFrom(r.Context())

	var req models.NewAccount
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeDetail(w, http.StatusBadRequest, "malformed body")
		return
	}
	if req.Code == "" || req.Name == "" {
		writeDetail(w, http.StatusBadRequest, "code and name are required")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	key := r.Header.Get("Idempotency-Key")
	if key != "" {
		if acc, seen := s.idempotent[claims.Tenant+"/"+key]; seen {
			writeJSON(w, http.StatusCreated, acc)
			return
		}
	}

	acc := models.Account{
		ID:       s.newIDLocked("acc"),
		Code:     req.Code,
		Name:     req.Name,
		Type:     req.Type,
		Currency: req.Currency,
		Balance:  "0.00",
		IsActive: true,
	}
	s.accounts = append(s.accounts, account{Account: acc, tenant: claims.Tenant})
	if key != "" {
		s.idempotent[claims.Tenant+"/"+key] = acc
	}
	writeJSON(w, http.StatusCreated, acc)
}

func (s *Server) handleGetAccount(w http.ResponseWriter, r *http.Request) {
	claims := claimsFrom(r.Context())

	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.findAccountLocked(claims.Tenant, r.PathValue("id"))
	if i < 0 {
		writeDetail(w, http.StatusNotFound, "Not found.")
		return
	}
	writeJSON(w, http.StatusOK, s.accounts[i].Account)
}

func (s *Server) handleDeleteAccount(w http.ResponseWriter, r *http.Request) {
	claims := claimsFrom(r.Context())

	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.findAccountLocked(claims.Tenant, r.PathValue("id"))
	if i < 0 {
		writeDetail(w, http.StatusNotFound, "Not found.")
		return
	}
	s.accounts = append(s.accounts[:i], s.accounts[i+1:]...)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleUploadStatement(w http.ResponseWriter, r *http.Request) {
	claims := claimsFrom(r.Context())
	id := r.PathValue("id")

	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		writeDetail(w, http.StatusBadRequest, "expected multipart form")
		return
	}
	if field := r.FormValue("account"); field != "" && field != id {
		writeDetail(w, http.StatusBadRequest, "account does not match path")
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		writeDetail(w, http.StatusBadRequest, "file is required")
		return
	}
	defer file.Close()
	if _, err := io.Copy(io.Discard, file); err != nil {
		writeDetail(w, http.StatusBadRequest, "read file")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.findAccountLocked(claims.Tenant, id) < 0 {
		writeDetail(w, http.StatusNotFound, "Not found.")
		return
	}
	st := models.Statement{
		ID:        s.newIDLocked("stmt"),
		AccountID: id,
		FileName:  header.Filename,
		Status:    "pending",
	}
	s.statements = append(s.statements, st)
	writeJSON(w, http.StatusCreated, st)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeDetail(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, map[string]string{"detail": detail})
}
