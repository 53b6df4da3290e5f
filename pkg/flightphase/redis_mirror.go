package flightphase

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisMirror adapts *redis.Client to the Mirror interface (spec §4.11
// domain stack: ETA cache remote mirror).
type RedisMirror struct {
	client *redis.Client
}

// NewRedisMirror wraps an existing client. Callers own the client's
// lifecycle (construction, auth, Close).
func NewRedisMirror(client *redis.Client) *RedisMirror {
	return &RedisMirror{client: client}
}

func (m *RedisMirror) Get(ctx context.Context, key string) (string, error) {
	val, err := m.client.Get(ctx, key).Result()
	if err == redis.Nil {
		return "", nil
	}
	return val, err
}

func (m *RedisMirror) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	return m.client.Set(ctx, key, value, ttl).Err()
}
