package metacache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/mesh-intelligence/hrentities/pkg/manager"
)

// KeyPrefix starts every key written by RedisStore.
const KeyPrefix = "hrentities"

var _ manager.Store = (*RedisStore)(nil)

// RedisConfig holds Redis connection settings.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// DialRedis connects to Redis and checks the connection.
func DialRedis(ctx context.Context, cfg RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	return client, nil
}

// RedisStore keeps metadata documents in Redis with a TTL.
type RedisStore struct {
	client    *redis.Client
	namespace string
	ttl       time.Duration
}

// NewRedisStore returns a store writing keys of the form
// hrentities:{namespace}:metadata:{entity}. A zero ttl keeps keys forever.
func NewRedisStore(client *redis.Client, namespace string, ttl time.Duration) *RedisStore {
	return &RedisStore{client: client, namespace: namespace, ttl: ttl}
}

// Key returns the Redis key holding the document for name.
func (s *RedisStore) Key(name string) string {
	return fmt.Sprintf("%s:%s:metadata:%s", KeyPrefix, s.namespace, name)
}

func (s *RedisStore) Get(ctx context.Context, name string) ([]byte, bool, error) {
	data, err := s.client.Get(ctx, s.Key(name)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to get %s metadata from cache: %w", name, err)
	}
	return data, true, nil
}

func (s *RedisStore) Put(ctx context.Context, name string, data []byte) error {
	if err := s.client.Set(ctx, s.Key(name), data, s.ttl).Err(); err != nil {
		return fmt.Errorf("failed to cache %s metadata: %w", name, err)
	}
	return nil
}

func (s *RedisStore) Delete(ctx context.Context, name string) error {
	return s.client.Del(ctx, s.Key(name)).Err()
}

// Close closes the Redis client.
func (s *RedisStore) Close() error {
	return s.client.Close()
}
