package repository

import "errors"

// Sentinel errors shared by all repositories. Implementations map their
// driver's failures onto these so services never match on error strings.
var (
	// ErrNotFound indicates the requested row does not exist.
	ErrNotFound = errors.New("not found")
	// ErrDuplicateUsername indicates the users.username unique constraint fired.
	ErrDuplicateUsername = errors.New("username already taken")
	// ErrDuplicateEmail indicates the users.email unique constraint fired.
	ErrDuplicateEmail = errors.New("email already used")
	// ErrDuplicateFollow indicates the follow edge already exists.
	ErrDuplicateFollow = errors.New("follow edge already exists")
)
