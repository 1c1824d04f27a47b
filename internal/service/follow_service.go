package service

import (
	"context"
	"errors"

	"inkwell/internal/domain"
	"inkwell/internal/repository"
)

// FollowService maintains the directed follow graph. Each ordered pair of
// accounts is either NotFollowing or Following; Follow and Unfollow are the
// only transitions and each verifies the current state first. The edge
// table's unique constraint backstops the check against concurrent callers.
type FollowService interface {
	Follow(ctx context.Context, followerID int64, followedUsername string) error
	Unfollow(ctx context.Context, followerID int64, followedUsername string) error
	IsFollowing(ctx context.Context, followedID, followerID int64) (bool, error)
	CountFollowers(ctx context.Context, userID int64) (int64, error)
	CountFollowing(ctx context.Context, userID int64) (int64, error)
	Followers(ctx context.Context, userID int64) ([]domain.Profile, error)
	Following(ctx context.Context, userID int64) ([]domain.Profile, error)
}

type followService struct {
	follows repository.FollowRepository
	users   repository.UserRepository
}

func NewFollowService(follows repository.FollowRepository, users repository.UserRepository) FollowService {
	return &followService{follows: follows, users: users}
}

func (s *followService) Follow(ctx context.Context, followerID int64, followedUsername string) error {
	followedID, errs, err := s.resolveTarget(ctx, followerID, followedUsername, true)
	if err != nil {
		return err
	}
	if len(errs) > 0 {
		return errs
	}

	if err := s.follows.Create(ctx, followerID, followedID); err != nil {
		if errors.Is(err, repository.ErrDuplicateFollow) {
			return domain.ValidationErrors{"You are already following this user."}
		}
		return err
	}
	return nil
}

func (s *followService) Unfollow(ctx context.Context, followerID int64, followedUsername string) error {
	followedID, errs, err := s.resolveTarget(ctx, followerID, followedUsername, false)
	if err != nil {
		return err
	}
	if len(errs) > 0 {
		return errs
	}

	if err := s.follows.Delete(ctx, followerID, followedID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return domain.ValidationErrors{"You cannot stop following someone you are not following."}
		}
		return err
	}
	return nil
}

// resolveTarget looks up the followed account and checks every graph rule for
// the requested transition, accumulating violations. creating selects between
// the duplicate-edge and missing-edge checks.
func (s *followService) resolveTarget(ctx context.Context, followerID int64, followedUsername string, creating bool) (int64, domain.ValidationErrors, error) {
	var errs domain.ValidationErrors

	followed, err := s.users.FindByUsername(ctx, normalizeKey(followedUsername))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return 0, domain.ValidationErrors{"You cannot follow a user that does not exist."}, nil
		}
		return 0, nil, err
	}

	exists, err := s.follows.Exists(ctx, followerID, followed.ID)
	if err != nil {
		return 0, nil, err
	}
	if creating && exists {
		errs = append(errs, "You are already following this user.")
	}
	if !creating && !exists {
		errs = append(errs, "You cannot stop following someone you are not following.")
	}

	if followed.ID == followerID {
		errs = append(errs, "You cannot follow yourself.")
	}

	return followed.ID, errs, nil
}

func (s *followService) IsFollowing(ctx context.Context, followedID, followerID int64) (bool, error) {
	if followerID == 0 {
		return false, nil
	}
	return s.follows.Exists(ctx, followerID, followedID)
}

func (s *followService) CountFollowers(ctx context.Context, userID int64) (int64, error) {
	return s.follows.CountFollowers(ctx, userID)
}

func (s *followService) CountFollowing(ctx context.Context, userID int64) (int64, error) {
	return s.follows.CountFollowing(ctx, userID)
}

func (s *followService) Followers(ctx context.Context, userID int64) ([]domain.Profile, error) {
	users, err := s.follows.Followers(ctx, userID)
	if err != nil {
		return nil, err
	}
	return toProfiles(users), nil
}

func (s *followService) Following(ctx context.Context, userID int64) ([]domain.Profile, error) {
	users, err := s.follows.Following(ctx, userID)
	if err != nil {
		return nil, err
	}
	return toProfiles(users), nil
}

func toProfiles(users []domain.User) []domain.Profile {
	profiles := make([]domain.Profile, len(users))
	for i, u := range users {
		profiles[i] = domain.Profile{Username: u.Username, Avatar: u.Avatar()}
	}
	return profiles
}
