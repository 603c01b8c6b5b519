//go:build integration

package redisclient

import (
	"context"
	"testing"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

func startRedis(t *testing.T) *Client {
	t.Helper()
	ctx := context.Background()

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "redis:7-alpine",
			ExposedPorts: []string{"6379/tcp"},
			WaitingFor:   wait.ForLog("Ready to accept connections"),
		},
		Started: true,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Terminate(ctx) })

	endpoint, err := container.Endpoint(ctx, "")
	require.NoError(t, err)

	c := NewFromRedis(redis.NewClient(&redis.Options{Addr: endpoint}))
	t.Cleanup(func() { _ = c.Close() })
	require.NoError(t, c.Ping(ctx))
	return c
}

func TestLockIsExclusiveAndOwned(t *testing.T) {
	c := startRedis(t)
	ctx := context.Background()

	token, ok, err := c.AcquireLock(ctx, "lock:a", time.Minute)
	require.NoError(t, err)
	require.True(t, ok)

	_, ok, err = c.AcquireLock(ctx, "lock:a", time.Minute)
	require.NoError(t, err)
	assert.False(t, ok)

	// a stale token must not release someone else's lock
	require.NoError(t, c.ReleaseLock(ctx, "lock:a", "stale"))
	_, ok, err = c.AcquireLock(ctx, "lock:a", time.Minute)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, c.ReleaseLock(ctx, "lock:a", token))
	_, ok, err = c.AcquireLock(ctx, "lock:a", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestIdempotencyKey(t *testing.T) {
	c := startRedis(t)
	ctx := context.Background()

	seen, err := c.CheckIdempotencyKey(ctx, "evt:1")
	require.NoError(t, err)
	assert.False(t, seen)

	require.NoError(t, c.SetIdempotencyKey(ctx, "evt:1", "CHECKOUT_COMPLETED", time.Minute))
	seen, err = c.CheckIdempotencyKey(ctx, "evt:1")
	require.NoError(t, err)
	assert.True(t, seen)
}
