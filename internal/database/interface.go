package database

import "context"

// DB defines the database operations used by the service layer.
type DB interface {
	UserDB
	NewsDB

	// Transaction runs fn in a unit of work which is committed when fn returns nil.
	Transaction(ctx context.Context, fn func(tx DB) error) error
	Stats(ctx context.Context) (*Stats, error)
	Close() error
}

// UserDB defines user related queries.
type UserDB interface {
	CreateUser(ctx context.Context, user *User) error
	GetUserByID(ctx context.Context, id uint) (*User, error)
	GetUserWithNews(ctx context.Context, id uint) (*User, error)
	GetUserByEmail(ctx context.Context, email string) (*User, error)
	GetAllUsers(ctx context.Context) ([]User, error)
	UpdateUser(ctx context.Context, user *User) error
	DeleteUser(ctx context.Context, user *User) error
}

// NewsDB defines news related queries.
type NewsDB interface {
	CreateNews(ctx context.Context, news *News) error
	GetNewsByID(ctx context.Context, id uint) (*News, error)
	GetNewsByIDForUser(ctx context.Context, id, userID uint) (*News, error)
	GetAllNews(ctx context.Context) ([]News, error)
	UpdateNews(ctx context.Context, news *News) error
	DeleteNews(ctx context.Context, news *News) error
}
