//go:build integration

package cache

import (
	"context"
	"testing"
	"time"

	"photoshare/backend/internal/domain/card"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

func startRedis(t *testing.T) *redis.Client {
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

	rdb := redis.NewClient(&redis.Options{Addr: endpoint})
	t.Cleanup(func() { _ = rdb.Close() })
	return rdb
}

func TestCardCache_RoundTrip(t *testing.T) {
	c := NewCardCache(startRedis(t), time.Minute)
	ctx := context.Background()

	_, ok, err := c.GetList(ctx)
	require.NoError(t, err)
	assert.False(t, ok)

	want := []*card.Card{{
		ID:        "5d1f0611d321eb4bdcd707dd",
		Name:      "Lake",
		Link:      "https://example.com/l.jpg",
		Owner:     "5d8b8592978f8bd833ca8133",
		Likes:     []string{},
		CreatedAt: time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC),
	}}
	gen, err := c.Generation(ctx)
	require.NoError(t, err)
	assert.Zero(t, gen)
	require.NoError(t, c.SetList(ctx, gen, want))

	got, ok, err := c.GetList(ctx)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, want, got)

	require.NoError(t, c.Invalidate(ctx))
	_, ok, err = c.GetList(ctx)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestCardCache_EmptyFeedIsAHit(t *testing.T) {
	c := NewCardCache(startRedis(t), time.Minute)
	ctx := context.Background()

	require.NoError(t, c.SetList(ctx, 0, []*card.Card{}))
	got, ok, err := c.GetList(ctx)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Empty(t, got)
}

func TestCardCache_DropsWriteFromOlderGeneration(t *testing.T) {
	c := NewCardCache(startRedis(t), time.Minute)
	ctx := context.Background()

	gen, err := c.Generation(ctx)
	require.NoError(t, err)

	require.NoError(t, c.Invalidate(ctx))
	next, err := c.Generation(ctx)
	require.NoError(t, err)
	assert.Equal(t, gen+1, next)

	require.NoError(t, c.SetList(ctx, gen, []*card.Card{{ID: "5d1f0611d321eb4bdcd707dd"}}))
	_, ok, err := c.GetList(ctx)
	require.NoError(t, err)
	assert.False(t, ok, "a snapshot from before the invalidation must not be stored")

	require.NoError(t, c.SetList(ctx, next, []*card.Card{}))
	_, ok, err = c.GetList(ctx)
	require.NoError(t, err)
	assert.True(t, ok)
}
