package service

import (
	"context"
	"errors"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/jon4hz/newsdesk/internal/database"
	"gorm.io/gorm"
)

// UserFields holds the writable fields of a user.
// A nil field is absent from the request.
type UserFields struct {
	Name          *string
	Email         *string
	About         *string
	Password      *string
	PasswordAgain *string
}

// IsEmpty reports whether no field is set.
func (f UserFields) IsEmpty() bool {
	return f.Name == nil && f.Email == nil && f.About == nil && f.Password == nil
}

func (f UserFields) validateCreate() error {
	if f.Name == nil || f.Email == nil || f.Password == nil || f.PasswordAgain == nil || f.About == nil {
		return validationError("invalid or missing parameters")
	}
	if strings.TrimSpace(*f.Email) == "" {
		return validationError("email must not be empty")
	}
	if *f.Password == "" {
		return validationError("password must not be empty")
	}
	if *f.Password != *f.PasswordAgain {
		return validationError("passwords do not match")
	}
	return nil
}

func (f UserFields) validateUpdate() error {
	if f.Email != nil && strings.TrimSpace(*f.Email) == "" {
		return validationError("email must not be empty")
	}
	if f.Password != nil && *f.Password == "" {
		return validationError("password must not be empty")
	}
	if f.Password != nil && f.PasswordAgain != nil && *f.Password != *f.PasswordAgain {
		return validationError("passwords do not match")
	}
	return nil
}

func (f UserFields) apply(u *database.User) error {
	if f.Name != nil {
		u.Name = *f.Name
	}
	if f.Email != nil {
		email := strings.TrimSpace(*f.Email)
		u.Email = &email
	}
	if f.About != nil {
		u.About = *f.About
	}
	if f.Password != nil {
		if err := u.SetPassword(*f.Password); err != nil {
			return internalError("failed to hash password", err)
		}
	}
	return nil
}

// ListUsers returns all users in insertion order.
func (s *Service) ListUsers(ctx context.Context) ([]database.User, error) {
	users, err := s.db.GetAllUsers(ctx)
	if err != nil {
		return nil, internalError("failed to list users", err)
	}
	return users, nil
}

// GetUser returns a user with their news or an ErrNotFound error.
func (s *Service) GetUser(ctx context.Context, id uint) (*database.User, error) {
	user, err := s.db.GetUserWithNews(ctx, id)
	if err != nil {
		return nil, lookupError(err, "user")
	}
	return user, nil
}

// CurrentUser resolves the user bound to a session.
// It returns nil if the user does not exist.
func (s *Service) CurrentUser(ctx context.Context, id uint) (*database.User, error) {
	if s.cache != nil {
		if user, ok := s.cache.Get(ctx, id); ok {
			return user, nil
		}
	}
	gen := s.userGeneration(id)
	user, err := s.db.GetUserByID(ctx, id)
	if err != nil {
		if isNotFound(err) {
			return nil, nil
		}
		return nil, internalError("failed to load user", err)
	}
	if s.cache != nil {
		s.cacheUser(ctx, user, gen)
	}
	return user, nil
}

// CreateUser registers a new user and returns its id.
func (s *Service) CreateUser(ctx context.Context, f UserFields) (uint, error) {
	if err := f.validateCreate(); err != nil {
		return 0, err
	}
	user := &database.User{}
	if err := f.apply(user); err != nil {
		return 0, err
	}

	err := s.db.Transaction(ctx, func(tx database.DB) error {
		if err := ensureEmailFree(ctx, tx, *user.Email, 0); err != nil {
			return err
		}
		if err := tx.CreateUser(ctx, user); err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return conflictError("user with this email already exists")
			}
			return internalError("failed to create user", err)
		}
		return nil
	})
	if err != nil {
		return 0, passThrough(err, "failed to create user")
	}
	log.Info("registered user", "id", user.ID)
	return user.ID, nil
}

// UpdateUser applies the set fields of f to the user. A set password is re-hashed.
func (s *Service) UpdateUser(ctx context.Context, id uint, f UserFields) error {
	if err := f.validateUpdate(); err != nil {
		return err
	}
	err := s.db.Transaction(ctx, func(tx database.DB) error {
		user, err := tx.GetUserByID(ctx, id)
		if err != nil {
			return lookupError(err, "user")
		}
		if f.IsEmpty() {
			return nil
		}
		if f.Email != nil {
			if err := ensureEmailFree(ctx, tx, strings.TrimSpace(*f.Email), user.ID); err != nil {
				return err
			}
		}
		if err := f.apply(user); err != nil {
			return err
		}
		if err := tx.UpdateUser(ctx, user); err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return conflictError("user with this email already exists")
			}
			return internalError("failed to update user", err)
		}
		return nil
	})
	if err != nil {
		return passThrough(err, "failed to update user")
	}
	s.invalidateUser(ctx, id)
	return nil
}

// SetUserLevel changes the level of the user with the given email.
func (s *Service) SetUserLevel(ctx context.Context, email string, level int) error {
	if level < 1 {
		return validationError("level must be at least 1")
	}
	var id uint
	err := s.db.Transaction(ctx, func(tx database.DB) error {
		user, err := tx.GetUserByEmail(ctx, email)
		if err != nil {
			return lookupError(err, "user")
		}
		id = user.ID
		user.Level = level
		if err := tx.UpdateUser(ctx, user); err != nil {
			return internalError("failed to update user", err)
		}
		return nil
	})
	if err != nil {
		return passThrough(err, "failed to update user")
	}
	s.invalidateUser(ctx, id)
	return nil
}

// DeleteUser removes a user. Their news are kept.
func (s *Service) DeleteUser(ctx context.Context, id uint) error {
	err := s.db.Transaction(ctx, func(tx database.DB) error {
		user, err := tx.GetUserByID(ctx, id)
		if err != nil {
			return lookupError(err, "user")
		}
		if err := tx.DeleteUser(ctx, user); err != nil {
			if isNotFound(err) {
				return notFoundError("user not found")
			}
			return internalError("failed to delete user", err)
		}
		return nil
	})
	if err != nil {
		return passThrough(err, "failed to delete user")
	}
	s.invalidateUser(ctx, id)
	return nil
}

// Authenticate checks the credentials and returns the matching user.
// Unknown emails and wrong passwords both yield ErrAuth.
func (s *Service) Authenticate(ctx context.Context, email, password string) (*database.User, error) {
	user, err := s.db.GetUserByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		if isNotFound(err) {
			return nil, newError(ErrAuth, "invalid credentials", nil)
		}
		return nil, internalError("failed to load user", err)
	}
	if !user.CheckPassword(password) {
		return nil, newError(ErrAuth, "invalid credentials", nil)
	}
	return user, nil
}

func ensureEmailFree(ctx context.Context, tx database.DB, email string, self uint) error {
	existing, err := tx.GetUserByEmail(ctx, email)
	if err == nil {
		if existing.ID != self {
			return conflictError("user with this email already exists")
		}
		return nil
	}
	if isNotFound(err) {
		return nil
	}
	return internalError("failed to check email", err)
}
