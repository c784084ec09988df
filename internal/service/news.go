package service

import (
	"context"
	"strings"

	"github.com/jon4hz/newsdesk/internal/database"
)

// NewsFields holds the writable fields of a news item.
// A nil field is absent from the request.
type NewsFields struct {
	Title     *string
	Content   *string
	UserID    *uint
	IsPrivate *bool
}

// IsEmpty reports whether no field is set.
func (f NewsFields) IsEmpty() bool {
	return f.Title == nil && f.Content == nil && f.UserID == nil && f.IsPrivate == nil
}

func (f NewsFields) validate(create bool) error {
	if create && (f.Title == nil || f.Content == nil || f.UserID == nil || f.IsPrivate == nil) {
		return validationError("Bad request")
	}
	if f.Title != nil && strings.TrimSpace(*f.Title) == "" {
		return validationError("title must not be empty")
	}
	if f.UserID != nil && *f.UserID == 0 {
		return validationError("user_id must be a positive integer")
	}
	return nil
}

func (f NewsFields) apply(n *database.News) {
	if f.Title != nil {
		n.Title = *f.Title
	}
	if f.Content != nil {
		n.Content = *f.Content
	}
	if f.UserID != nil && *f.UserID != n.UserID {
		n.UserID = *f.UserID
		n.User = nil
	}
	if f.IsPrivate != nil {
		n.IsPrivate = *f.IsPrivate
	}
}

// ListNews returns every news item in insertion order, including private ones.
func (s *Service) ListNews(ctx context.Context) ([]database.News, error) {
	news, err := s.db.GetAllNews(ctx)
	if err != nil {
		return nil, internalError("failed to list news", err)
	}
	return news, nil
}

// GetNews returns a news item or an ErrNotFound error.
func (s *Service) GetNews(ctx context.Context, id uint) (*database.News, error) {
	news, err := s.db.GetNewsByID(ctx, id)
	if err != nil {
		return nil, lookupError(err, "news")
	}
	return news, nil
}

// GetOwnedNews returns a news item only if it belongs to ownerID.
// Items of other users are reported as not found.
func (s *Service) GetOwnedNews(ctx context.Context, id, ownerID uint) (*database.News, error) {
	news, err := s.db.GetNewsByIDForUser(ctx, id, ownerID)
	if err != nil {
		return nil, lookupError(err, "news")
	}
	return news, nil
}

// CreateNews stores a new news item. All fields are required.
func (s *Service) CreateNews(ctx context.Context, f NewsFields) (uint, error) {
	if err := f.validate(true); err != nil {
		return 0, err
	}
	news := &database.News{}
	f.apply(news)

	err := s.db.Transaction(ctx, func(tx database.DB) error {
		return tx.CreateNews(ctx, news)
	})
	if err != nil {
		return 0, internalError("failed to create news", err)
	}
	return news.ID, nil
}

// UpdateNews applies the set fields of f to the news item.
// An empty f is accepted and leaves the item unchanged.
func (s *Service) UpdateNews(ctx context.Context, id uint, f NewsFields) error {
	return s.updateNews(ctx, id, nil, f)
}

// UpdateOwnedNews is UpdateNews restricted to items owned by ownerID.
func (s *Service) UpdateOwnedNews(ctx context.Context, id, ownerID uint, f NewsFields) error {
	return s.updateNews(ctx, id, &ownerID, f)
}

func (s *Service) updateNews(ctx context.Context, id uint, ownerID *uint, f NewsFields) error {
	if err := f.validate(false); err != nil {
		return err
	}
	err := s.db.Transaction(ctx, func(tx database.DB) error {
		news, err := getNews(ctx, tx, id, ownerID)
		if err != nil {
			return err
		}
		if f.IsEmpty() {
			return nil
		}
		f.apply(news)
		if err := tx.UpdateNews(ctx, news); err != nil {
			return internalError("failed to update news", err)
		}
		return nil
	})
	return passThrough(err, "failed to update news")
}

// DeleteNews removes a news item.
func (s *Service) DeleteNews(ctx context.Context, id uint) error {
	return s.deleteNews(ctx, id, nil)
}

// DeleteOwnedNews is DeleteNews restricted to items owned by ownerID.
func (s *Service) DeleteOwnedNews(ctx context.Context, id, ownerID uint) error {
	return s.deleteNews(ctx, id, &ownerID)
}

func (s *Service) deleteNews(ctx context.Context, id uint, ownerID *uint) error {
	err := s.db.Transaction(ctx, func(tx database.DB) error {
		news, err := getNews(ctx, tx, id, ownerID)
		if err != nil {
			return err
		}
		if err := tx.DeleteNews(ctx, news); err != nil {
			if isNotFound(err) {
				return notFoundError("news not found")
			}
			return internalError("failed to delete news", err)
		}
		return nil
	})
	return passThrough(err, "failed to delete news")
}

func getNews(ctx context.Context, tx database.DB, id uint, ownerID *uint) (*database.News, error) {
	var (
		news *database.News
		err  error
	)
	if ownerID != nil {
		news, err = tx.GetNewsByIDForUser(ctx, id, *ownerID)
	} else {
		news, err = tx.GetNewsByID(ctx, id)
	}
	if err != nil {
		return nil, lookupError(err, "news")
	}
	return news, nil
}
