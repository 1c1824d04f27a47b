package repository

import (
	"context"

	"inkwell/internal/domain"
)

// FollowRepository defines persistence operations for directed follow edges.
// The schema enforces at most one edge per ordered pair and no self edges;
// Create surfaces a duplicate as ErrDuplicateFollow, Delete a missing edge as
// ErrNotFound, so the constraint is the authoritative rejection signal.
type FollowRepository interface {
	Init(ctx context.Context) error
	Create(ctx context.Context, followerID, followedID int64) error
	Delete(ctx context.Context, followerID, followedID int64) error
	Exists(ctx context.Context, followerID, followedID int64) (bool, error)
	CountFollowers(ctx context.Context, userID int64) (int64, error)
	CountFollowing(ctx context.Context, userID int64) (int64, error)
	// Followers lists the accounts following userID; Following the accounts
	// userID follows. Both join the counterpart user row.
	Followers(ctx context.Context, userID int64) ([]domain.User, error)
	Following(ctx context.Context, userID int64) ([]domain.User, error)
}
