package service

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"

	"inkwell/internal/domain"
	"inkwell/internal/repository"
	"inkwell/internal/repository/sqlite"
)

type stores struct {
	users   repository.UserRepository
	posts   repository.PostRepository
	follows repository.FollowRepository
}

func newTestStores(t *testing.T) stores {
	t.Helper()

	db, err := sqlite.Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	s := stores{
		users:   sqlite.NewUserRepository(db),
		posts:   sqlite.NewPostRepository(db),
		follows: sqlite.NewFollowRepository(db),
	}
	ctx := context.Background()
	require.NoError(t, s.users.Init(ctx))
	require.NoError(t, s.posts.Init(ctx))
	require.NoError(t, s.follows.Init(ctx))
	return s
}

func newServices(t *testing.T) (UserService, PostService, FollowService) {
	t.Helper()
	s := newTestStores(t)
	logger := logrus.New()
	users := NewUserService(s.users)
	posts := NewPostService(s.posts, s.users, &LogNotifier{Logger: logger})
	follows := NewFollowService(s.follows, s.users)
	return users, posts, follows
}

func mustRegister(t *testing.T, users UserService, username, email string) *domain.User {
	t.Helper()
	u, err := users.Register(context.Background(), username, email, "longenoughpass")
	require.NoError(t, err)
	return u
}
