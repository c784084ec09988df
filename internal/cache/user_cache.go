package cache

import (
	"context"
	"time"

	"github.com/charmbracelet/log"
	"github.com/eko/gocache/lib/v4/codec"
	"github.com/jon4hz/newsdesk/internal/config"
	"github.com/jon4hz/newsdesk/internal/database"
)

// UsersCachePrefix is the key prefix of cached session users.
const UsersCachePrefix = "newsdesk-users-"

// UserCache caches users resolved from session cookies.
type UserCache struct {
	users *PrefixedCache[database.User]
}

// NewUserCache creates the user cache for the configured backend.
func NewUserCache(cfg *config.CacheConfig) *UserCache {
	return &UserCache{
		users: NewPrefixedCache[database.User](
			newCacheInstanceByType(cfg),
			cfg.Type,
			UsersCachePrefix,
			time.Duration(cfg.TTL)*time.Second,
		),
	}
}

// Get returns the cached user. A miss or a broken entry returns false.
func (u *UserCache) Get(ctx context.Context, id uint) (*database.User, bool) {
	user, err := u.users.Get(ctx, id)
	if err != nil {
		return nil, false
	}
	return &user, true
}

// Set caches the user without their news.
func (u *UserCache) Set(ctx context.Context, user *database.User) {
	entry := *user
	entry.News = nil
	if err := u.users.Set(ctx, user.ID, entry); err != nil {
		log.Warn("failed to cache user", "id", user.ID, "error", err)
	}
}

// Invalidate drops the cached user.
func (u *UserCache) Invalidate(ctx context.Context, id uint) {
	if err := u.users.Delete(ctx, id); err != nil {
		log.Debug("failed to invalidate cached user", "id", id, "error", err)
	}
}

// Clear drops all cached users.
func (u *UserCache) Clear(ctx context.Context) error {
	return u.users.Clear(ctx)
}

// Stats returns hit and miss counters of the cache.
func (u *UserCache) Stats() *codec.Stats {
	return u.users.GetStats()
}

// Type returns the configured cache backend.
func (u *UserCache) Type() config.CacheType {
	return u.users.GetType()
}
