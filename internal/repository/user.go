package repository

import (
	"context"

	"inkwell/internal/domain"
)

// UserRepository defines persistence operations for accounts. Callers are
// expected to normalize usernames and emails (trim, lowercase) before lookups.
type UserRepository interface {
	Init(ctx context.Context) error
	Create(ctx context.Context, user *domain.User) (int64, error)
	FindByUsername(ctx context.Context, username string) (*domain.User, error)
	FindByID(ctx context.Context, id int64) (*domain.User, error)
	ExistsByUsername(ctx context.Context, username string) (bool, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
}
