package blacklist

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/talentboard/authcore/pkg/cryptox"
)

const redisKeyPrefix = "authcore:blacklist:"

// Redis is the shared List for multi-instance deployments. Entries expire
// server-side via key TTL, so Sweep has nothing to do.
//
// Keys are token fingerprints rather than raw tokens: Redis should not hold
// usable credentials either.
type Redis struct {
	client    redis.UniversalClient
	retention time.Duration
}

// NewRedis returns a List backed by the given client. A non-positive
// retention falls back to DefaultRetention.
func NewRedis(client redis.UniversalClient, retention time.Duration) *Redis {
	if retention <= 0 {
		retention = DefaultRetention
	}
	return &Redis{client: client, retention: retention}
}

func (r *Redis) Add(ctx context.Context, token string) error {
	key := redisKeyPrefix + cryptox.FingerprintToken(token)

	// NX keeps the original insertion time and TTL on re-add.
	if err := r.client.SetNX(ctx, key, time.Now().UTC().Format(time.RFC3339), r.retention).Err(); err != nil {
		return fmt.Errorf("blacklist add: %w", err)
	}
	return nil
}

func (r *Redis) Contains(ctx context.Context, token string) (bool, error) {
	key := redisKeyPrefix + cryptox.FingerprintToken(token)

	n, err := r.client.Exists(ctx, key).Result()
	if err != nil {
		return false, fmt.Errorf("blacklist lookup: %w", err)
	}
	return n > 0, nil
}

// Sweep is a no-op: Redis evicts entries itself when their TTL lapses.
func (r *Redis) Sweep(ctx context.Context, now time.Time) (int, error) {
	return 0, nil
}
