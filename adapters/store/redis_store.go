package store

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/examportal/backend/ports"
)

// DefaultRedisPrefix namespaces revocation keys.
const DefaultRedisPrefix = "examportal:revoked:"

// RedisStore is a Redis implementation of the RevocationStore interface.
// Each entry carries a TTL equal to the token's remaining lifetime, so Redis
// itself prunes entries once they stop mattering.
type RedisStore struct {
	client redis.UniversalClient
	prefix string
	now    func() time.Time
}

// NewRedisStore creates a new Redis store
func NewRedisStore(client redis.UniversalClient) *RedisStore {
	return &RedisStore{
		client: client,
		prefix: DefaultRedisPrefix,
		now:    time.Now,
	}
}

var _ ports.RevocationStore = (*RedisStore)(nil)

// Revoke marks a token as revoked in Redis. Tokens that already expired are
// not written: they can never validate again.
func (s *RedisStore) Revoke(ctx context.Context, key string, expiresAt time.Time) error {
	ttl := expiresAt.Sub(s.now())
	if ttl <= 0 {
		return nil
	}
	// Round up so a sub-second remainder still outlives the token.
	ttl = ttl.Truncate(time.Second) + time.Second

	if err := s.client.Set(ctx, s.prefix+key, "1", ttl).Err(); err != nil {
		return fmt.Errorf("failed to revoke token: %w", err)
	}

	return nil
}

// IsRevoked checks if a token is revoked in Redis
func (s *RedisStore) IsRevoked(ctx context.Context, key string) (bool, error) {
	val, err := s.client.Exists(ctx, s.prefix+key).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check token revocation: %w", err)
	}

	return val > 0, nil
}

// Prune is a no-op; key expiry does the work.
func (s *RedisStore) Prune(ctx context.Context, now time.Time) (int, error) {
	return 0, nil
}

// Close closes the Redis connection
func (s *RedisStore) Close() error {
	return s.client.Close()
}
