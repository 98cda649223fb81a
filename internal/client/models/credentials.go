package models

import "time"

// Credentials is the access/refresh token pair of one session.
// ExpiresAt is zero when the access token lifetime is unknown.
type Credentials struct {
	AccessToken  string    `json:"access"`
	RefreshToken string    `json:"refresh"`
	ExpiresAt    time.Time `json:"expires_at,omitempty"`
}

// Expired reports whether the access token is known to expire within skew
// of now. Unknown lifetimes are never considered expired.
func (c *Credentials) Expired(now time.Time, skew time.Duration) bool {
	if c == nil || c.ExpiresAt.IsZero() {
		return false
	}
	return !now.Add(skew).Before(c.ExpiresAt)
}

// TokenPair is the body returned by the login and refresh endpoints.
// The refresh endpoint may omit Refresh when tokens are not rotated.
type TokenPair struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh,omitempty"`
}
