package cache

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestCache needs a reachable Redis (REDIS_ADDR, default localhost:6379)
// and skips otherwise.
func newTestCache(t *testing.T, prefix string) *Cache {
	t.Helper()
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		addr = "localhost:6379"
	}
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	client, err := Dial(ctx, addr)
	if err != nil {
		t.Skipf("redis not available at %s: %v", addr, err)
	}
	c := New(client, prefix, time.Minute)
	require.NoError(t, c.DeletePattern(context.Background(), "*"))
	t.Cleanup(func() {
		_ = c.DeletePattern(context.Background(), "*")
		_ = c.Close()
	})
	return c
}

type payload struct {
	Total int `json:"total"`
}

func TestCache_GetSet(t *testing.T) {
	c := newTestCache(t, "test:getset:")
	ctx := context.Background()

	var got payload
	found, err := c.Get(ctx, "k", &got)
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, c.Set(ctx, "k", payload{Total: 3}))
	found, err = c.Get(ctx, "k", &got)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, 3, got.Total)

	s := c.Stats()
	assert.EqualValues(t, 1, s.Hits)
	assert.EqualValues(t, 1, s.Misses)
	assert.InDelta(t, 50.0, s.HitRate, 0.001)
}

func TestCache_DeletePattern(t *testing.T) {
	c := newTestCache(t, "test:pattern:")
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "analytics:u1:7", payload{1}))
	require.NoError(t, c.Set(ctx, "analytics:u1:30", payload{2}))
	require.NoError(t, c.Set(ctx, "analytics:u2:7", payload{3}))

	require.NoError(t, c.DeletePattern(ctx, "analytics:u1:*"))

	var got payload
	found, _ := c.Get(ctx, "analytics:u1:7", &got)
	assert.False(t, found)
	found, _ = c.Get(ctx, "analytics:u2:7", &got)
	assert.True(t, found)
}

func TestCache_Counter(t *testing.T) {
	c := newTestCache(t, "test:counter:")
	ctx := context.Background()

	n, err := c.Counter(ctx, "gen:u1")
	require.NoError(t, err)
	assert.Zero(t, n)

	_, err = c.Incr(ctx, "gen:u1")
	require.NoError(t, err)
	n, err = c.Incr(ctx, "gen:u1")
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)

	n, err = c.Counter(ctx, "gen:u1")
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)
}

func TestCache_GetReportsTransportErrors(t *testing.T) {
	client := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1", DialTimeout: 50 * time.Millisecond, MaxRetries: -1})
	defer client.Close()
	c := New(client, "x:", time.Minute)

	var got payload
	_, err := c.Get(context.Background(), "k", &got)
	assert.Error(t, err)
	assert.EqualValues(t, 1, c.Stats().Errors)
}
