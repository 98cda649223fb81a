package fakeapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/dmitrijs2005/dashapi/internal/client/models"
)

var (
	errUserExists      = errors.New("a user with that username already exists")
	errMissingUsername = errors.New("username and password are required")
)

type ctxKey string

const claimsKey ctxKey = "claims"

func claimsFrom(ctx context.Context) *Claims {
	c, _ := ctx.Value(claimsKey).(*Claims)
	return c
}

// authenticated rejects requests without a valid bearer token.
func (s *Server) authenticated(next http.HandlerFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || token == "" {
			writeDetail(w, http.StatusUnauthorized, "Authentication credentials were not provided.")
			return
		}

		s.mu.Lock()
		now := s.now()
		s.mu.Unlock()

		claims, err := ParseToken(token, s.secret, now)
		if err != nil {
			s.log.Debug(r.Context(), "rejected access token", "path", r.URL.Path, "error", err.Error())
			writeDetail(w, http.StatusUnauthorized, "Given token not valid for any token type")
			return
		}

		s.mu.Lock()
		_, known := s.userByIDLocked(claims.UserID)
		s.mu.Unlock()
		if !known {
			writeDetail(w, http.StatusUnauthorized, "User not found")
			return
		}

		next(w, r.WithContext(context.WithValue(r.Context(), claimsKey, claims)))
	})
}

func (s *Server) userByIDLocked(id string) (*user, bool) {
	for _, u := range s.users {
		if u.ID == id {
			return u, true
		}
	}
	return nil, false
}

func (s *Server) addUserLocked(req models.RegisterRequest) (*user, error) {
	if req.Username == "" || req.Password == "" {
		return nil, errMissingUsername
	}
	if _, exists := s.users[req.Username]; exists {
		return nil, errUserExists
	}

	salt, err := NewSalt()
	if err != nil {
		return nil, err
	}
	u := &user{
		User: models.User{
			ID:       s.newIDLocked("user"),
			Username: req.Username,
			Email:    req.Email,
			Tenant:   req.Tenant,
		},
		salt:     salt,
		verifier: MakeVerifier(DeriveKey([]byte(req.Password), salt)),
	}
	s.users[req.Username] = u
	return u, nil
}

// issuePairLocked signs a new access token and stores a new refresh token.
func (s *Server) issuePairLocked(u *user) (models.TokenPair, error) {
	now := s.now()
	access, err := GenerateToken(u.ID, u.Tenant, s.secret, now, s.accessTTL)
	if err != nil {
		return models.TokenPair{}, err
	}
	refresh, err := RandHex(refreshTokenSize)
	if err != nil {
		return models.TokenPair{}, err
	}
	s.refresh[refresh] = refreshToken{userID: u.ID, expires: now.Add(s.refreshTTL)}
	return models.TokenPair{Access: access, Refresh: refresh}, nil
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req models.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeDetail(w, http.StatusBadRequest, "malformed body")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[req.Username]
	if !ok || !CheckPassword(req.Password, u.salt, u.verifier) {
		writeDetail(w, http.StatusUnauthorized, "No active account found with the given credentials")
		return
	}

	pair, err := s.issuePairLocked(u)
	if err != nil {
		writeDetail(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.log.Info(r.Context(), "login", "username", u.Username)
	writeJSON(w, http.StatusOK, pair)
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req models.RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeDetail(w, http.StatusBadRequest, "malformed body")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	u, err := s.addUserLocked(req)
	if err != nil {
		writeDetail(w, http.StatusBadRequest, err.Error())
		return
	}
	s.log.Info(r.Context(), "registered", "username", u.Username)
	writeJSON(w, http.StatusCreated, u.User)
}

// handleRefresh rotates the refresh token: the presented one is consumed
// and a new pair is issued.
func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Refresh string `json:"refresh"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeDetail(w, http.StatusBadRequest, "malformed body")
		return
	}

	if s.refreshLag > 0 {
		select {
		case <-time.After(s.refreshLag):
		case <-r.Context().Done():
			return
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	rt, ok := s.refresh[req.Refresh]
	if !ok {
		writeDetail(w, http.StatusUnauthorized, "Token is invalid or expired")
		return
	}
	delete(s.refresh, req.Refresh)

	if !s.now().Before(rt.expires) {
		writeDetail(w, http.StatusUnauthorized, "Token is invalid or expired")
		return
	}
	u, ok := s.userByIDLocked(rt.userID)
	if !ok {
		writeDetail(w, http.StatusUnauthorized, "User not found")
		return
	}

	pair, err := s.issuePairLocked(u)
	if err != nil {
		writeDetail(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.refreshHits++
	writeJSON(w, http.StatusOK, pair)
}

// handleLogout revokes every refresh token of the caller.
func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	claims := claimsFrom(r.Context())

	s.mu.Lock()
	for token, rt := range s.refresh {
		if rt.userID == claims.UserID {
			delete(s.refresh, token)
		}
	}
	s.mu.Unlock()

	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	claims := claimsFrom(r.Context())

	s.mu.Lock()
	u, ok := s.userByIDLocked(claims.UserID)
	s.mu.Unlock()
	if !ok {
		writeDetail(w, http.StatusNotFound, "Not found.")
		return
	}
	writeJSON(w, http.StatusOK, u.User)
}
