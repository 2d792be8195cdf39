package cache

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcredis "github.com/testcontainers/testcontainers-go/modules/redis"
	"github.com/testcontainers/testcontainers-go/wait"
)

func startRedis(t *testing.T) string {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping redis container test in short mode")
	}
	ctx := context.Background()

	container, err := tcredis.Run(ctx,
		"redis:7.4-alpine",
		testcontainers.WithWaitStrategy(
			wait.ForLog("Ready to accept connections").
				WithStartupTimeout(30*time.Second),
		),
	)
	require.NoError(t, err)
	t.Cleanup(func() {
		if err := container.Terminate(ctx); err != nil {
			t.Logf("Failed to terminate redis container: %v", err)
		}
	})

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "6379")
	require.NoError(t, err)
	return fmt.Sprintf("%s:%s", host, port.Port())
}

func TestRedisClient_Integration(t *testing.T) {
	addr := startRedis(t)
	ctx := context.Background()

	c, err := NewRedisClient(RedisConfig{Addr: addr, Prefix: "test:"})
	require.NoError(t, err)
	defer c.Close()

	require.NoError(t, c.Ping(ctx))

	_, err = c.Get(ctx, "sel:1")
	assert.ErrorIs(t, err, ErrCacheMiss)

	require.NoError(t, c.Set(ctx, "sel:1", []byte("a"), 0))
	require.NoError(t, c.Set(ctx, "sel:2", []byte("b"), -time.Second))
	require.NoError(t, c.Set(ctx, "keep", []byte("c"), 0))

	got, err := c.Get(ctx, "sel:1")
	require.NoError(t, err)
	assert.Equal(t, []byte("a"), got)

	require.NoError(t, c.DeleteByPrefix(ctx, "sel:"))

	_, err = c.Get(ctx, "sel:2")
	assert.ErrorIs(t, err, ErrCacheMiss)
	_, err = c.Get(ctx, "keep")
	assert.NoError(t, err)

	require.NoError(t, c.Set(ctx, "sel:3", []byte("d"), time.Hour))
	ttl, err := c.client.TTL(ctx, "test:sel:3").Result()
	require.NoError(t, err)
	assert.InDelta(t, time.Hour.Seconds(), ttl.Seconds(), 5, "selection keys expire on their own")
}
