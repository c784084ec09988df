package database

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/ccoveille/go-safecast"
	"github.com/charmbracelet/log"
	"github.com/glebarez/sqlite"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var _ DB = (*Client)(nil) // Ensure Client implements DB

var (
	// ErrConfiguration is returned when the database path is blank.
	ErrConfiguration = errors.New("database path must not be blank")
	// ErrNotInitialized is returned when the client is used before Init.
	ErrNotInitialized = errors.New("database is not initialized")
)

// Client wraps the gorm.DB instance.
// The zero value is an uninitialized client, call Init before use.
type Client struct {
	mu sync.RWMutex
	db *gorm.DB
}

// NewClient returns an uninitialized client.
func NewClient() *Client {
	return &Client{}
}

// New creates a new database connection and performs migrations.
func New(dbpath string) (*Client, error) {
	c := NewClient()
	if err := c.Init(dbpath); err != nil {
		return nil, err
	}
	return c, nil
}

// Init opens the sqlite database at dbpath and creates missing tables.
// Only the first successful call has an effect, later calls return nil.
func (c *Client) Init(dbpath string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.db != nil {
		return nil
	}

	dbpath = strings.TrimSpace(dbpath)
	if dbpath == "" {
		return ErrConfiguration
	}

	if dir := filepath.Dir(dbpath); dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := gorm.Open(sqlite.Open(dbpath), &gorm.Config{
		TranslateError:                           true,
		DisableForeignKeyConstraintWhenMigrating: true,
		Logger:                                   newGormLogger(),
	})
	if err != nil {
		return fmt.Errorf("failed to connect database: %w", err)
	}

	if err := db.AutoMigrate(
		&User{},
		&News{},
	); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}

	log.Debug("Database initialized", "path", dbpath)
	c.db = db
	return nil
}

func newGormLogger() logger.Interface {
	return logger.New(
		log.StandardLog(log.StandardLogOptions{ForceLevel: log.WarnLevel}),
		logger.Config{
			SlowThreshold:             200 * time.Millisecond,
			LogLevel:                  logger.Warn,
			IgnoreRecordNotFoundError: true,
		},
	)
}

// conn returns a context bound handle or ErrNotInitialized.
func (c *Client) conn(ctx context.Context) (*gorm.DB, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.db == nil {
		return nil, ErrNotInitialized
	}
	return c.db.WithContext(ctx), nil
}

// Transaction runs fn in a unit of work.
// The transaction is committed if fn returns nil and rolled back otherwise.
func (c *Client) Transaction(ctx context.Context, fn func(tx DB) error) error {
	db, err := c.conn(ctx)
	if err != nil {
		return err
	}
	return db.Transaction(func(tx *gorm.DB) error {
		return fn(&Client{db: tx})
	})
}

// Close closes the underlying database connection.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.db == nil {
		return nil
	}
	sqlDB, err := c.db.DB()
	if err != nil {
		return err
	}
	c.db = nil
	return sqlDB.Close()
}

// Stats holds row counts of the database.
type Stats struct {
	Users       int `json:"users"`
	News        int `json:"news"`
	PrivateNews int `json:"privateNews"`
}

// Stats counts the rows of all tables.
func (c *Client) Stats(ctx context.Context) (*Stats, error) {
	db, err := c.conn(ctx)
	if err != nil {
		return nil, err
	}

	var users, news, private int64
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return db.WithContext(ctx).Model(&User{}).Count(&users).Error
	})
	g.Go(func() error {
		return db.WithContext(ctx).Model(&News{}).Count(&news).Error
	})
	g.Go(func() error {
		return db.WithContext(ctx).Model(&News{}).Where("is_private = ?", true).Count(&private).Error
	})
	if err := g.Wait(); err != nil {
		log.Error("failed to count rows", "error", err)
		return nil, err
	}

	stats := &Stats{}
	if stats.Users, err = safecast.Convert[int](users); err != nil {
		return nil, err
	}
	if stats.News, err = safecast.Convert[int](news); err != nil {
		return nil, err
	}
	if stats.PrivateNews, err = safecast.Convert[int](private); err != nil {
		return nil, err
	}
	return stats, nil
}
