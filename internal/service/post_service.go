package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/microcosm-cc/bluemonday"

	"inkwell/internal/domain"
	"inkwell/internal/repository"
)

// ErrForbidden indicates a mutating post operation by someone other than the
// author.
var ErrForbidden = errors.New("forbidden")

// PostService owns the post lifecycle and the cross-entity read paths (feed,
// search). Title and body pass through the same sanitize/validate pipeline on
// create and update, so stored posts are always markup-free plain text.
type PostService interface {
	Create(ctx context.Context, authorID int64, title, body string) (*domain.Post, error)
	FindByID(ctx context.Context, id, viewerID int64) (*domain.PostView, error)
	Update(ctx context.Context, id, viewerID int64, title, body string) error
	Delete(ctx context.Context, id, viewerID int64) error
	ListByAuthor(ctx context.Context, authorID, viewerID int64) ([]domain.PostView, error)
	CountByAuthor(ctx context.Context, authorID int64) (int64, error)
	Feed(ctx context.Context, viewerID int64) ([]domain.PostView, error)
	Search(ctx context.Context, term string) []domain.PostView
}

type postService struct {
	posts     repository.PostRepository
	users     repository.UserRepository
	notifier  Notifier
	sanitizer *bluemonday.Policy
}

func NewPostService(posts repository.PostRepository, users repository.UserRepository, notifier Notifier) PostService {
	return &postService{
		posts:     posts,
		users:     users,
		notifier:  notifier,
		sanitizer: bluemonday.StrictPolicy(),
	}
}

// cleanPost strips all markup and surrounding whitespace from title and body
// and reports every emptiness violation.
func (s *postService) cleanPost(title, body string) (string, string, domain.ValidationErrors) {
	title = strings.TrimSpace(s.sanitizer.Sanitize(strings.TrimSpace(title)))
	body = strings.TrimSpace(s.sanitizer.Sanitize(strings.TrimSpace(body)))

	var errs domain.ValidationErrors
	if title == "" {
		errs = append(errs, "You must provide a title.")
	}
	if body == "" {
		errs = append(errs, "You must provide post content.")
	}
	return title, body, errs
}

func (s *postService) Create(ctx context.Context, authorID int64, title, body string) (*domain.Post, error) {
	title, body, errs := s.cleanPost(title, body)
	if len(errs) > 0 {
		return nil, errs
	}

	post := &domain.Post{
		AuthorID: authorID,
		Title:    title,
		Body:     body,
	}
	if _, err := s.posts.Create(ctx, post); err != nil {
		return nil, domain.ValidationErrors{domain.ErrTryAgainLater}
	}

	if s.notifier != nil {
		if author, err := s.users.FindByID(ctx, authorID); err == nil {
			event := PostCreatedEvent{
				AuthorName: author.Username,
				PostTitle:  post.Title,
				PostURL:    fmt.Sprintf("/post/%d", post.ID),
			}
			// fire and forget; post creation never waits on the notifier
			go s.notifier.PostCreated(context.WithoutCancel(ctx), event)
		}
	}

	return post, nil
}

func (s *postService) FindByID(ctx context.Context, id, viewerID int64) (*domain.PostView, error) {
	post, err := s.posts.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	view := post.View(viewerID)
	return &view, nil
}

// Update overwrites title and body after the ownership gate. The creation
// timestamp is never touched.
func (s *postService) Update(ctx context.Context, id, viewerID int64, title, body string) error {
	post, err := s.posts.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if post.AuthorID != viewerID {
		return ErrForbidden
	}

	title, body, errs := s.cleanPost(title, body)
	if len(errs) > 0 {
		return errs
	}

	return s.posts.Update(ctx, id, title, body)
}

func (s *postService) Delete(ctx context.Context, id, viewerID int64) error {
	post, err := s.posts.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if post.AuthorID != viewerID {
		return ErrForbidden
	}
	return s.posts.Delete(ctx, id)
}

func (s *postService) ListByAuthor(ctx context.Context, authorID, viewerID int64) ([]domain.PostView, error) {
	posts, err := s.posts.ListByAuthor(ctx, authorID)
	if err != nil {
		return nil, err
	}
	return toViews(posts, viewerID), nil
}

func (s *postService) CountByAuthor(ctx context.Context, authorID int64) (int64, error) {
	return s.posts.CountByAuthor(ctx, authorID)
}

func (s *postService) Feed(ctx context.Context, viewerID int64) ([]domain.PostView, error) {
	posts, err := s.posts.Feed(ctx, viewerID)
	if err != nil {
		return nil, err
	}
	return toViews(posts, viewerID), nil
}

// Search never fails visibly: blank terms, syntax oddities and store errors
// all come back as an empty result set.
func (s *postService) Search(ctx context.Context, term string) []domain.PostView {
	if strings.TrimSpace(term) == "" {
		return []domain.PostView{}
	}
	posts, err := s.posts.Search(ctx, term)
	if err != nil {
		return []domain.PostView{}
	}
	return toViews(posts, 0)
}

func toViews(posts []domain.AuthoredPost, viewerID int64) []domain.PostView {
	views := make([]domain.PostView, len(posts))
	for i, p := range posts {
		views[i] = p.View(viewerID)
	}
	return views
}
