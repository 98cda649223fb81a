// Package services contains typed pass-throughs to the dashboard API.
// This file defines the authentication service: login, registration,
// logout and the current user.
package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/dashapi/internal/client/client"
	"github.com/dmitrijs2005/dashapi/internal/client/models"
)

const (
	loginPath    = "/auth/login/"
	registerPath = "/auth/register/"
	logoutPath   = "/auth/logout/"
	mePath       = "/auth/me/"
)

// Session is the part of client.Client the services depend on.
type Session interface {
	client.Requester
	SetTokens(ctx context.Context, access, refresh string) error
	ClearTokens(ctx context.Context) error
	IsAuthenticated(ctx context.Context) bool
}

var _ Session = (*client.Client)(nil)

var ErrEmptyTokenPair = errors.New("login response carries no tokens")

// AuthService defines authentication operations.
//
// Contract:
//   - Login: exchange username/password for a token pair and store it.
//   - Register: create a new user; does not log in.
//   - Logout: tell the backend, then always drop the local tokens.
//   - Me: return the authenticated user.
type AuthService interface {
	Login(ctx context.Context, username, password string) error
	Register(ctx context.Context, req models.RegisterRequest) (models.User, error)
	Logout(ctx context.Context) error
	Me(ctx context.Context) (models.User, error)
}

type authService struct {
	session Session
}

func NewAuthService(session Session) AuthService {
	return &authService{session: session}
}

func (a *authService) Login(ctx context.Context, username, password string) error {
	pair, err := client.Post[models.TokenPair](ctx, a.session, loginPath,
		models.LoginRequest{Username: username, Password: password}, client.WithSkipAuth())
	if err != nil {
		return fmt.Errorf("login error: %w", err)
	}
	if pair.Access == "" || pair.Refresh == "" {
		return ErrEmptyTokenPair
	}
	if err := a.session.SetTokens(ctx, pair.Access, pair.Refresh); err != nil {
		return fmt.Errorf("store tokens: %w", err)
	}
	return nil
}

func (a *authService) Register(ctx context.Context, req models.RegisterRequest) (models.User, error) {
	user, err := client.Post[models.User](ctx, a.session, registerPath, req, client.WithSkipAuth())
	if err != nil {
		return models.User{}, fmt.Errorf("register error: %w", err)
	}
	return user, nil
}

// Logout clears the local tokens even when the backend call fails; the
// backend error is still returned so callers can report it.
func (a *authService) Logout(ctx context.Context) error {
	var remoteErr error
	if a.session.IsAuthenticated(ctx) {
		if _, err := client.Post[json.RawMessage](ctx, a.session, logoutPath, nil); err != nil {
			remoteErr = fmt.Errorf("logout request: %w", err)
		}
	}
	if err := a.session.ClearTokens(ctx); err != nil {
		return errors.Join(remoteErr, fmt.Errorf("clear tokens: %w", err))
	}
	return remoteErr
}

func (a *authService) Me(ctx context.Context) (models.User, error) {
	return client.Get[models.User](ctx, a.session, mePath, nil)
}
