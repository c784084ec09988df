// Package jobs registers the periodic maintenance jobs.
package jobs

import (
	"context"
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/eko/gocache/lib/v4/codec"
	"github.com/jon4hz/newsdesk/internal/config"
	"github.com/jon4hz/newsdesk/internal/database"
	"github.com/jon4hz/newsdesk/internal/scheduler"
)

const (
	CacheFlushJobID = "cache-flush"
	StatsJobID      = "db-stats"

	statsSchedule = "0 * * * *"
)

// Clearer drops all cached entries.
type Clearer interface {
	Clear(ctx context.Context) error
}

// CacheReporter exposes the backend and counters of a cache.
type CacheReporter interface {
	Type() config.CacheType
	Stats() *codec.Stats
}

// StatsSource reports the row counts of the database.
type StatsSource interface {
	Stats(ctx context.Context) (*database.Stats, error)
}

// Register adds the cache flush and stats jobs to s.
// The cache flush job is skipped if no flush schedule is configured.
func Register(s *scheduler.Scheduler, cfg *config.CacheConfig, cache Clearer, stats StatsSource) error {
	if cfg != nil && cfg.FlushSchedule != "" && cache != nil {
		err := s.AddCronJob(
			CacheFlushJobID,
			"Flush user cache",
			"Drops all cached session users",
			cfg.FlushSchedule,
			func(ctx context.Context) error {
				return cache.Clear(ctx)
			},
		)
		if err != nil {
			return fmt.Errorf("failed to add cache flush job: %w", err)
		}
	}

	err := s.AddCronJob(
		StatsJobID,
		"Log database stats",
		"Logs the number of users and news",
		statsSchedule,
		func(ctx context.Context) error {
			st, err := stats.Stats(ctx)
			if err != nil {
				return err
			}
			log.Info("database stats", "users", st.Users, "news", st.News, "private_news", st.PrivateNews)
			if kv := cacheKeyvals(cache); kv != nil {
				log.Info("cache stats", kv...)
			}
			return nil
		},
	)
	if err != nil {
		return fmt.Errorf("failed to add stats job: %w", err)
	}
	return nil
}

// cacheKeyvals returns the log fields of c or nil if c reports nothing.
func cacheKeyvals(c Clearer) []any {
	r, ok := c.(CacheReporter)
	if !ok {
		return nil
	}
	st := r.Stats()
	if st == nil {
		return nil
	}
	return []any{
		"type", r.Type(),
		"hits", st.Hits,
		"misses", st.Miss,
		"set_errors", st.SetError,
	}
}
