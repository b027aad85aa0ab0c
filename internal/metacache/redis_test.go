package metacache

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRedisStoreKey(t *testing.T) {
	s := NewRedisStore(nil, "acme", time.Hour)
	assert.Equal(t, "hrentities:acme:metadata:Employee", s.Key("Employee"))
}

// Requires a running Redis; set REDIS_ADDR to enable.
func TestRedisStoreRoundTrip(t *testing.T) {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		t.Skip("REDIS_ADDR not set")
	}
	ctx := context.Background()
	client, err := DialRedis(ctx, RedisConfig{Addr: addr})
	require.NoError(t, err)

	s := NewRedisStore(client, "test-"+time.Now().Format("150405.000"), time.Minute)
	defer s.Close()

	_, ok, err := s.Get(ctx, "Employee")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.Put(ctx, "Employee", []byte(`{"Name":"Employee"}`)))
	data, ok, err := s.Get(ctx, "Employee")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.JSONEq(t, `{"Name":"Employee"}`, string(data))

	ttl, err := client.TTL(ctx, s.Key("Employee")).Result()
	require.NoError(t, err)
	assert.Greater(t, ttl, time.Duration(0))

	require.NoError(t, s.Delete(ctx, "Employee"))
	_, ok, err = s.Get(ctx, "Employee")
	require.NoError(t, err)
	assert.False(t, ok)
}
