package database

import (
	"context"
	"errors"
	"time"

	"github.com/charmbracelet/log"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// News is an article written by a user.
type News struct {
	ID        uint   `gorm:"primaryKey"`
	Title     string `gorm:"not null"`
	Content   string
	IsPrivate bool  `gorm:"not null;default:false"`
	UserID    uint  `gorm:"index;not null"`
	User      *User `gorm:"foreignKey:UserID"`
	CreatedAt time.Time
}

func (c *Client) CreateNews(ctx context.Context, news *News) error {
	db, err := c.conn(ctx)
	if err != nil {
		return err
	}
	if err := db.Omit(clause.Associations).Create(news).Error; err != nil {
		log.Error("failed to create news", "error", err)
		return err
	}
	return nil
}

func (c *Client) GetNewsByID(ctx context.Context, id uint) (*News, error) {
	db, err := c.conn(ctx)
	if err != nil {
		return nil, err
	}
	var news News
	if err := db.Preload("User").First(&news, id).Error; err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			log.Error("failed to get news by ID", "error", err)
		}
		return nil, err
	}
	return &news, nil
}

// GetNewsByIDForUser returns the news item only if it is owned by userID.
func (c *Client) GetNewsByIDForUser(ctx context.Context, id, userID uint) (*News, error) {
	db, err := c.conn(ctx)
	if err != nil {
		return nil, err
	}
	var news News
	if err := db.Preload("User").Where("id = ? AND user_id = ?", id, userID).First(&news).Error; err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			log.Error("failed to get news by ID for user", "error", err)
		}
		return nil, err
	}
	return &news, nil
}

// GetAllNews returns all news in insertion order with their authors.
// Private news are included.
func (c *Client) GetAllNews(ctx context.Context) ([]News, error) {
	db, err := c.conn(ctx)
	if err != nil {
		return nil, err
	}
	var news []News
	if err := db.Preload("User").Order("id").Find(&news).Error; err != nil {
		log.Error("failed to get all news", "error", err)
		return nil, err
	}
	return news, nil
}

func (c *Client) UpdateNews(ctx context.Context, news *News) error {
	db, err := c.conn(ctx)
	if err != nil {
		return err
	}
	result := db.Model(news).
		Select("Title", "Content", "IsPrivate", "UserID").
		Updates(news)
	if result.Error != nil {
		log.Error("failed to update news", "error", result.Error)
		return result.Error
	}
	return nil
}

func (c *Client) DeleteNews(ctx context.Context, news *News) error {
	db, err := c.conn(ctx)
	if err != nil {
		return err
	}
	result := db.Delete(&News{}, news.ID)
	if result.Error != nil {
		log.Error("failed to delete news", "error", result.Error)
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
