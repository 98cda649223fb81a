package client

import (
	"context"
	"fmt"
	"io"

	"github.com/dmitrijs2005/dashapi/internal/client/tokens"
	"github.com/redis/go-redis/v9"
)

// StoreConfig selects the token backend of a session. RedisAddr wins over
// DBPath; with neither the session lives in memory only.
type StoreConfig struct {
	RedisAddr  string
	SessionKey string
	DBPath     string
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// OpenStore opens the token store described by cfg. The returned closer
// releases the underlying connection.
func OpenStore(ctx context.Context, cfg StoreConfig) (tokens.Store, io.Closer, error) {
	switch {
	case cfg.RedisAddr != "":
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		if err := rdb.Ping(ctx).Err(); err != nil {
			_ = rdb.Close()
			return nil, nil, fmt.Errorf("connect redis %s: %w", cfg.RedisAddr, err)
		}
		session := cfg.SessionKey
		if session == "" {
			session = "default"
		}
		return tokens.NewRedisStore(rdb, session), rdb, nil

	case cfg.DBPath != "":
		db, err := tokens.OpenSQLite(ctx, cfg.DBPath)
		if err != nil {
			return nil, nil, err
		}
		return tokens.NewSQLiteStore(db), db, nil
	}

	return tokens.NewMemoryStore(), nopCloser{}, nil
}
