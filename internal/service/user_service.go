package service

import (
	"context"
	"errors"
	"strings"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"
	"golang.org/x/crypto/bcrypt"

	"inkwell/internal/domain"
	"inkwell/internal/repository"
)

// ErrInvalidCredentials indicates that provided login credentials are incorrect.
// It never distinguishes a missing account from a wrong password.
var ErrInvalidCredentials = errors.New("invalid username / password")

const (
	minPasswordLen = 12
	maxPasswordLen = 100
	minUsernameLen = 3
	maxUsernameLen = 30
)

// UserService describes account lifecycle operations.
type UserService interface {
	Register(ctx context.Context, username, email, password string) (*domain.User, error)
	Login(ctx context.Context, username, password string) (*domain.User, error)
	GetByID(ctx context.Context, id int64) (*domain.User, error)
	GetByUsername(ctx context.Context, username string) (*domain.User, error)
	UsernameExists(ctx context.Context, username string) (bool, error)
	EmailExists(ctx context.Context, email string) (bool, error)
}

type userService struct {
	users    repository.UserRepository
	validate *validator.Validate
}

func NewUserService(users repository.UserRepository) UserService {
	return &userService{
		users:    users,
		validate: validator.New(),
	}
}

// Register validates and persists a new account. Every violated rule is
// collected before returning, so the caller can show all of them at once.
// Password is hashed with bcrypt; the clear form never leaves this function.
func (s *userService) Register(ctx context.Context, username, email, password string) (*domain.User, error) {
	username = normalizeKey(username)
	email = normalizeKey(email)

	var errs domain.ValidationErrors

	if username == "" {
		errs = append(errs, "You must provide a username.")
	}
	if username != "" && s.validate.Var(username, "alphanum") != nil {
		errs = append(errs, "Username can only contain letters and numbers.")
	}
	if len(username) > 0 && len(username) < minUsernameLen {
		errs = append(errs, "Username must be at least 3 characters.")
	}
	if len(username) > maxUsernameLen {
		errs = append(errs, "Username cannot exceed 30 characters.")
	}

	if s.validate.Var(email, "required,email") != nil {
		errs = append(errs, "You must provide a valid email address.")
	}

	// bounds count characters, not bytes
	passwordLen := utf8.RuneCountInString(password)
	if password == "" {
		errs = append(errs, "You must provide a password.")
	}
	if passwordLen > 0 && passwordLen < minPasswordLen {
		errs = append(errs, "Password must be at least 12 characters.")
	}
	if passwordLen > maxPasswordLen {
		errs = append(errs, "Password cannot exceed 100 characters.")
	}

	// only probe the store for well-formed values
	if usernameWellFormed(s.validate, username) {
		taken, err := s.users.ExistsByUsername(ctx, username)
		if err != nil {
			return nil, err
		}
		if taken {
			errs = append(errs, "That username is already taken.")
		}
	}
	if s.validate.Var(email, "required,email") == nil {
		used, err := s.users.ExistsByEmail(ctx, email)
		if err != nil {
			return nil, err
		}
		if used {
			errs = append(errs, "That email is already being used.")
		}
	}

	if len(errs) > 0 {
		return nil, errs
	}

	hash, err := bcrypt.GenerateFromPassword(bcryptInput(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, domain.ValidationErrors{domain.ErrTryAgainLater}
	}

	user := &domain.User{
		Username:     username,
		Email:        email,
		PasswordHash: string(hash),
	}

	if _, err := s.users.Create(ctx, user); err != nil {
		// the pre-checks above race concurrent registrations; the unique
		// constraint is authoritative and maps to the same messages
		switch {
		case errors.Is(err, repository.ErrDuplicateUsername):
			return nil, domain.ValidationErrors{"That username is already taken."}
		case errors.Is(err, repository.ErrDuplicateEmail):
			return nil, domain.ValidationErrors{"That email is already being used."}
		}
		return nil, domain.ValidationErrors{domain.ErrTryAgainLater}
	}

	return user, nil
}

// Login verifies credentials and returns the account. Any failure collapses
// to ErrInvalidCredentials.
func (s *userService) Login(ctx context.Context, username, password string) (*domain.User, error) {
	username = normalizeKey(username)
	if username == "" || password == "" {
		return nil, ErrInvalidCredentials
	}

	user, err := s.users.FindByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), bcryptInput(password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	return user, nil
}

func (s *userService) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	return s.users.FindByID(ctx, id)
}

func (s *userService) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	return s.users.FindByUsername(ctx, normalizeKey(username))
}

func (s *userService) UsernameExists(ctx context.Context, username string) (bool, error) {
	return s.users.ExistsByUsername(ctx, normalizeKey(username))
}

func (s *userService) EmailExists(ctx context.Context, email string) (bool, error) {
	return s.users.ExistsByEmail(ctx, normalizeKey(email))
}

// normalizeKey is the canonical form for usernames and emails: trimmed and
// lowercased, applied once at the service boundary so the store only ever
// sees one representation.
func normalizeKey(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// bcrypt keys on at most 72 bytes; longer passwords are cut the same way at
// register and login time so both sides agree.
func bcryptInput(password string) []byte {
	b := []byte(password)
	if len(b) > 72 {
		b = b[:72]
	}
	return b
}

func usernameWellFormed(v *validator.Validate, username string) bool {
	return len(username) >= minUsernameLen &&
		len(username) <= maxUsernameLen &&
		v.Var(username, "alphanum") == nil
}
