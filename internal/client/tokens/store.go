// Package tokens holds the session credentials of a dashapi client.
//
// Every Store is safe for concurrent use, has a single writer per session and
// lets readers observe the latest write. Get returns (nil, nil) when the
// session holds no credentials.
//
// Backends:
//   - MemoryStore: process-local, for tests and throwaway sessions.
//   - SQLiteStore: durable across restarts (the CLI's default).
//   - RedisStore: shared by several processes of one tenant session.
package tokens

import (
	"context"

	"github.com/dmitrijs2005/dashapi/internal/client/models"
)

type Store interface {
	Get(ctx context.Context) (*models.Credentials, error)
	Set(ctx context.Context, creds models.Credentials) error
	Clear(ctx context.Context) error
}

func clone(c *models.Credentials) *models.Credentials {
	if c == nil {
		return nil
	}
	cp := *c
	return &cp
}
