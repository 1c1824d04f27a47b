package repository

import (
	"context"

	"inkwell/internal/domain"
)

// PostRepository defines persistence operations for posts. Read methods join
// the author row so callers never issue a second lookup per post.
type PostRepository interface {
	Init(ctx context.Context) error
	Create(ctx context.Context, post *domain.Post) (int64, error)
	FindByID(ctx context.Context, id int64) (*domain.AuthoredPost, error)
	// Update overwrites title and body only; created_at is immutable.
	Update(ctx context.Context, id int64, title, body string) error
	Delete(ctx context.Context, id int64) error
	ListByAuthor(ctx context.Context, authorID int64) ([]domain.AuthoredPost, error)
	CountByAuthor(ctx context.Context, authorID int64) (int64, error)
	// Feed returns posts authored by viewerID or by anyone viewerID follows,
	// newest first; equal timestamps keep insertion order.
	Feed(ctx context.Context, viewerID int64) ([]domain.AuthoredPost, error)
	// Search returns posts matching the full-text term, best match first.
	Search(ctx context.Context, term string) ([]domain.AuthoredPost, error)
}
