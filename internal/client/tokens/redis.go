package tokens

import (
	"context"
	"fmt"
	"time"

	"github.com/dmitrijs2005/dashapi/internal/client/models"
	"github.com/redis/go-redis/v9"
)

const defaultRedisPrefix = "dashapi:session"

// RedisStore keeps credentials in a hash at "<prefix>:<session>". Writes
// replace the whole hash inside MULTI/EXEC so readers never see a mixed pair.
type RedisStore struct {
	rdb redis.UniversalClient
	key string
	ttl time.Duration
}

var _ Store = (*RedisStore)(nil)

type RedisOption func(*redisOptions)

type redisOptions struct {
	prefix string
	ttl    time.Duration
}

// WithKeyPrefix overrides the "dashapi:session" key prefix.
func WithKeyPrefix(prefix string) RedisOption {
	return func(o *redisOptions) {
		if prefix != "" {
			o.prefix = prefix
		}
	}
}

// WithTTL expires the stored pair after d. Zero keeps it until cleared.
func WithTTL(d time.Duration) RedisOption {
	return func(o *redisOptions) {
		if d > 0 {
			o.ttl = d
		}
	}
}

func NewRedisStore(rdb redis.UniversalClient, session string, opts ...RedisOption) *RedisStore {
	o := redisOptions{prefix: defaultRedisPrefix}
	for _, opt := range opts {
		opt(&o)
	}
	return &RedisStore{rdb: rdb, key: o.prefix + ":" + session, ttl: o.ttl}
}

func (s *RedisStore) Get(ctx context.Context) (*models.Credentials, error) {
	values, err := s.rdb.HGetAll(ctx, s.key).Result()
	if err != nil {
		return nil, fmt.Errorf("load credentials from redis: %w", err)
	}

	raw := make(map[string][]byte, len(values))
	for k, v := range values {
		raw[k] = []byte(v)
	}
	return decode(raw)
}

func (s *RedisStore) Set(ctx context.Context, creds models.Credentials) error {
	fields := map[string]any{
		keyAccessToken:  creds.AccessToken,
		keyRefreshToken: creds.RefreshToken,
	}
	if !creds.ExpiresAt.IsZero() {
		fields[keyExpiresAt] = creds.ExpiresAt.UTC().Format(time.RFC3339Nano)
	}

	_, err := s.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, s.key)
		pipe.HSet(ctx, s.key, fields)
		if s.ttl > 0 {
			pipe.Expire(ctx, s.key, s.ttl)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("save credentials to redis: %w", err)
	}
	return nil
}

func (s *RedisStore) Clear(ctx context.Context) error {
	if err := s.rdb.Del(ctx, s.key).Err(); err != nil {
		return fmt.Errorf("clear credentials in redis: %w", err)
	}
	return nil
}
