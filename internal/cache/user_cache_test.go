package cache

import (
	"context"
	"testing"
	"time"

	"github.com/jon4hz/newsdesk/internal/config"
	"github.com/jon4hz/newsdesk/internal/database"
	"github.com/samber/lo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestUserCache(ttl int) *UserCache {
	return NewUserCache(&config.CacheConfig{Type: config.CacheTypeMemory, TTL: ttl})
}

func TestUserCache_SetGet(t *testing.T) {
	c := newTestUserCache(0)
	ctx := context.Background()

	_, ok := c.Get(ctx, 1)
	assert.False(t, ok)

	created := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	c.Set(ctx, &database.User{
		ID:             1,
		Name:           "alice",
		Email:          lo.ToPtr("alice@example.com"),
		HashedPassword: "secret-hash",
		Level:          2,
		CreateData:     created,
		News:           []database.News{{ID: 9, Title: "dropped"}},
	})

	got, ok := c.Get(ctx, 1)
	require.True(t, ok)
	assert.Equal(t, uint(1), got.ID)
	assert.Equal(t, "alice", got.Name)
	assert.Equal(t, "alice@example.com", got.EmailAddress())
	assert.Equal(t, 2, got.Level)
	assert.True(t, created.Equal(got.CreateData))
	assert.Empty(t, got.HashedPassword)
	assert.Empty(t, got.News)
}

func TestUserCache_Invalidate(t *testing.T) {
	c := newTestUserCache(0)
	ctx := context.Background()

	c.Set(ctx, &database.User{ID: 1, Name: "alice"})
	c.Set(ctx, &database.User{ID: 2, Name: "bob"})
	c.Invalidate(ctx, 1)

	_, ok := c.Get(ctx, 1)
	assert.False(t, ok)
	_, ok = c.Get(ctx, 2)
	assert.True(t, ok)

	// invalidating a missing entry is harmless
	c.Invalidate(ctx, 42)
}

func TestUserCache_Clear(t *testing.T) {
	c := newTestUserCache(0)
	ctx := context.Background()

	c.Set(ctx, &database.User{ID: 1})
	c.Set(ctx, &database.User{ID: 2})
	require.NoError(t, c.Clear(ctx))

	_, ok := c.Get(ctx, 1)
	assert.False(t, ok)
	_, ok = c.Get(ctx, 2)
	assert.False(t, ok)
}

func TestUserCache_TTL(t *testing.T) {
	c := newTestUserCache(1)
	ctx := context.Background()

	c.Set(ctx, &database.User{ID: 1})
	_, ok := c.Get(ctx, 1)
	require.True(t, ok)

	assert.Eventually(t, func() bool {
		_, ok := c.Get(ctx, 1)
		return !ok
	}, 3*time.Second, 100*time.Millisecond)
}

func TestUserCache_Stats(t *testing.T) {
	c := newTestUserCache(0)
	ctx := context.Background()

	c.Get(ctx, 1)
	c.Set(ctx, &database.User{ID: 1})
	c.Get(ctx, 1)

	stats := c.Stats()
	assert.Equal(t, 1, stats.Hits)
	assert.Equal(t, 1, stats.Miss)
	assert.Equal(t, 1, stats.SetSuccess)
}
