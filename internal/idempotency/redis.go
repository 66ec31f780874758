package idempotency

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// DefaultTTL bounds how long a key is honoured.
const DefaultTTL = 24 * time.Hour

// Connect connects to redis and returns the client.
func Connect(ctx context.Context, addr, password string) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       0,
	})

	if _, err := rdb.Ping(ctx).Result(); err != nil {
		_ = rdb.Close()
		return nil, err
	}
	return rdb, nil
}

// Redis is a Store shared by every API replica.
type Redis struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedis(client *redis.Client, ttl time.Duration) *Redis {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Redis{client: client, ttl: ttl}
}

func (s *Redis) Lookup(ctx context.Context, accountID, key string) (string, bool, error) {
	v, err := s.client.Get(ctx, scoped(accountID, key)).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return v, true, nil
}

// Remember keeps the first id stored under a key.
func (s *Redis) Remember(ctx context.Context, accountID, key, txID string) error {
	return s.client.SetNX(ctx, scoped(accountID, key), txID, s.ttl).Err()
}
