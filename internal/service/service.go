// Package service implements the user and news operations shared by the JSON API and the HTML pages.
package service

import (
	"context"
	"errors"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/jon4hz/newsdesk/internal/database"
	"gorm.io/gorm"
)

// UserCache caches users resolved for a session.
type UserCache interface {
	Get(ctx context.Context, id uint) (*database.User, bool)
	Set(ctx context.Context, user *database.User)
	Invalidate(ctx context.Context, id uint)
}

// Service is the CRUD layer on top of the database.
type Service struct {
	db    database.DB
	cache UserCache

	// userGen counts invalidations per user. A user read before the
	// latest invalidation is not cached.
	genMu   sync.Mutex
	userGen map[uint]uint64
}

// New creates a new service. cache may be nil.
func New(db database.DB, cache UserCache) *Service {
	return &Service{
		db:      db,
		cache:   cache,
		userGen: make(map[uint]uint64),
	}
}

// Stats returns the row counts of the database.
func (s *Service) Stats(ctx context.Context) (*database.Stats, error) {
	stats, err := s.db.Stats(ctx)
	if err != nil {
		return nil, internalError("failed to collect stats", err)
	}
	return stats, nil
}

func (s *Service) invalidateUser(ctx context.Context, id uint) {
	if s.cache == nil {
		return
	}
	s.genMu.Lock()
	defer s.genMu.Unlock()
	s.userGen[id]++
	s.cache.Invalidate(ctx, id)
}

func (s *Service) userGeneration(id uint) uint64 {
	s.genMu.Lock()
	defer s.genMu.Unlock()
	return s.userGen[id]
}

// cacheUser stores user unless it was invalidated after gen was taken.
func (s *Service) cacheUser(ctx context.Context, user *database.User, gen uint64) {
	s.genMu.Lock()
	defer s.genMu.Unlock()
	if s.userGen[user.ID] != gen {
		return
	}
	s.cache.Set(ctx, user)
}

func isNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}

// lookupError maps a failed lookup to NotFound or Internal.
func lookupError(err error, what string) error {
	if isNotFound(err) {
		return notFoundError(what + " not found")
	}
	log.Error("lookup failed", "what", what, "error", err)
	return internalError("failed to load "+what, err)
}

// passThrough keeps service errors raised inside a unit of work and wraps everything else as internal.
func passThrough(err error, msg string) error {
	if err == nil {
		return nil
	}
	var se *Error
	if errors.As(err, &se) {
		return err
	}
	return internalError(msg, err)
}
