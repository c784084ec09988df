package database

import (
	"context"
	"errors"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// User represents a registered author.
// Users with a level greater than 1 are admins.
type User struct {
	ID             uint `gorm:"primaryKey"`
	Name           string
	About          string
	Email          *string   `gorm:"uniqueIndex"`
	HashedPassword string    `json:"-"`
	Level          int       `gorm:"not null;default:1"`
	CreateData     time.Time `gorm:"column:create_data;autoCreateTime;<-:create"`
	News           []News    `gorm:"foreignKey:UserID"`
}

// SetPassword hashes and stores the given password.
func (u *User) SetPassword(password string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u.HashedPassword = string(hash)
	return nil
}

// CheckPassword reports whether password matches the stored hash.
func (u *User) CheckPassword(password string) bool {
	if u.HashedPassword == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(u.HashedPassword), []byte(password)) == nil
}

// IsAdmin reports whether the user has administrative capability.
func (u *User) IsAdmin() bool {
	return u.Level > 1
}

// EmailAddress returns the email or an empty string.
func (u *User) EmailAddress() string {
	if u.Email == nil {
		return ""
	}
	return *u.Email
}

func (c *Client) CreateUser(ctx context.Context, user *User) error {
	db, err := c.conn(ctx)
	if err != nil {
		return err
	}
	if err := db.Omit(clause.Associations).Create(user).Error; err != nil {
		if !errors.Is(err, gorm.ErrDuplicatedKey) {
			log.Error("failed to create user", "error", err)
		}
		return err
	}
	return nil
}

func (c *Client) GetUserByID(ctx context.Context, id uint) (*User, error) {
	db, err := c.conn(ctx)
	if err != nil {
		return nil, err
	}
	var user User
	if err := db.First(&user, id).Error; err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			log.Error("failed to get user by ID", "error", err)
		}
		return nil, err
	}
	return &user, nil
}

func (c *Client) GetUserWithNews(ctx context.Context, id uint) (*User, error) {
	db, err := c.conn(ctx)
	if err != nil {
		return nil, err
	}
	var user User
	if err := db.Preload("News", func(db *gorm.DB) *gorm.DB {
		return db.Order("news.id")
	}).First(&user, id).Error; err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			log.Error("failed to get user with news", "error", err)
		}
		return nil, err
	}
	return &user, nil
}

func (c *Client) GetUserByEmail(ctx context.Context, email string) (*User, error) {
	db, err := c.conn(ctx)
	if err != nil {
		return nil, err
	}
	var user User
	if err := db.Where("email = ?", email).First(&user).Error; err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			log.Error("failed to get user by email", "error", err)
		}
		return nil, err
	}
	return &user, nil
}

func (c *Client) GetAllUsers(ctx context.Context) ([]User, error) {
	db, err := c.conn(ctx)
	if err != nil {
		return nil, err
	}
	var users []User
	if err := db.Order("id").Find(&users).Error; err != nil {
		log.Error("failed to get all users", "error", err)
		return nil, err
	}
	return users, nil
}

// UpdateUser writes all mutable columns of user. The creation time is never changed.
func (c *Client) UpdateUser(ctx context.Context, user *User) error {
	db, err := c.conn(ctx)
	if err != nil {
		return err
	}
	result := db.Model(user).
		Select("Name", "About", "Email", "HashedPassword", "Level").
		Updates(user)
	if result.Error != nil {
		if !errors.Is(result.Error, gorm.ErrDuplicatedKey) {
			log.Error("failed to update user", "error", result.Error)
		}
		return result.Error
	}
	return nil
}

// DeleteUser removes the user row. News written by the user are kept.
func (c *Client) DeleteUser(ctx context.Context, user *User) error {
	db, err := c.conn(ctx)
	if err != nil {
		return err
	}
	result := db.Delete(&User{}, user.ID)
	if result.Error != nil {
		log.Error("failed to delete user", "error", result.Error)
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
