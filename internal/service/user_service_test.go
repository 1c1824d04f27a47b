package service

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"inkwell/internal/domain"
)

func validationErrors(t *testing.T, err error) domain.ValidationErrors {
	t.Helper()
	var verrs domain.ValidationErrors
	require.ErrorAs(t, err, &verrs)
	return verrs
}

func TestRegister_Success(t *testing.T) {
	users, _, _ := newServices(t)

	u, err := users.Register(context.Background(), "alice", "a@x.com", "longenoughpass")
	require.NoError(t, err)
	assert.Equal(t, "alice", u.Username)
	assert.Equal(t, "a@x.com", u.Email)
	assert.NotZero(t, u.ID)
	assert.NotEqual(t, "longenoughpass", u.PasswordHash, "password must never be stored in clear")
	assert.Equal(t, domain.AvatarURL("a@x.com"), u.Avatar())
}

func TestRegister_NormalizesCase(t *testing.T) {
	users, _, _ := newServices(t)

	u, err := users.Register(context.Background(), "  Alice ", "A@X.Com", "longenoughpass")
	require.NoError(t, err)
	assert.Equal(t, "alice", u.Username)
	assert.Equal(t, "a@x.com", u.Email)
}

func TestRegister_AccumulatesAllViolations(t *testing.T) {
	users, _, _ := newServices(t)

	_, err := users.Register(context.Background(), "", "not-an-email", "short")
	verrs := validationErrors(t, err)

	joined := strings.Join(verrs, " | ")
	assert.Contains(t, joined, "You must provide a username.")
	assert.Contains(t, joined, "valid email")
	assert.Contains(t, joined, "at least 12 characters")
	assert.GreaterOrEqual(t, len(verrs), 3, "violations must accumulate, not short-circuit")
}

func TestRegister_PasswordBounds(t *testing.T) {
	users, _, _ := newServices(t)
	ctx := context.Background()

	_, err := users.Register(ctx, "bob", "b@x.com", strings.Repeat("p", 11))
	assert.Contains(t, strings.Join(validationErrors(t, err), " "), "at least 12 characters")

	_, err = users.Register(ctx, "bob", "b@x.com", strings.Repeat("p", 101))
	assert.Contains(t, strings.Join(validationErrors(t, err), " "), "cannot exceed 100 characters")

	_, err = users.Register(ctx, "bob", "b@x.com", strings.Repeat("p", 100))
	require.NoError(t, err)
}

func TestRegister_PasswordBoundsCountRunes(t *testing.T) {
	users, _, _ := newServices(t)
	ctx := context.Background()

	// 12 characters but far more than 12 bytes
	_, err := users.Register(ctx, "carol", "c@x.com", strings.Repeat("ü", 12))
	require.NoError(t, err)

	// 100 characters, over 100 bytes: still within the cap
	_, err = users.Register(ctx, "dave", "d@x.com", strings.Repeat("ü", 100))
	require.NoError(t, err)

	u, err := users.Login(ctx, "dave", strings.Repeat("ü", 100))
	require.NoError(t, err)
	assert.Equal(t, "dave", u.Username)

	_, err = users.Register(ctx, "erin", "e@x.com", strings.Repeat("ü", 101))
	assert.Contains(t, strings.Join(validationErrors(t, err), " "), "cannot exceed 100 characters")
}

func TestRegister_UsernameRules(t *testing.T) {
	users, _, _ := newServices(t)
	ctx := context.Background()

	_, err := users.Register(ctx, "ab", "ab@x.com", "longenoughpass")
	assert.Contains(t, strings.Join(validationErrors(t, err), " "), "at least 3 characters")

	_, err = users.Register(ctx, strings.Repeat("a", 31), "long@x.com", "longenoughpass")
	assert.Contains(t, strings.Join(validationErrors(t, err), " "), "cannot exceed 30 characters")

	_, err = users.Register(ctx, "bad name!", "bad@x.com", "longenoughpass")
	assert.Contains(t, strings.Join(validationErrors(t, err), " "), "letters and numbers")
}

func TestRegister_UniquenessIsCaseInsensitive(t *testing.T) {
	users, _, _ := newServices(t)
	ctx := context.Background()

	mustRegister(t, users, "bob", "bob@x.com")

	_, err := users.Register(ctx, "Bob", "other@x.com", "longenoughpass")
	assert.Contains(t, strings.Join(validationErrors(t, err), " "), "username is already taken")

	_, err = users.Register(ctx, "carol", "BOB@x.com", "longenoughpass")
	assert.Contains(t, strings.Join(validationErrors(t, err), " "), "email is already being used")
}

func TestLogin_GenericFailure(t *testing.T) {
	users, _, _ := newServices(t)
	ctx := context.Background()

	mustRegister(t, users, "alice", "a@x.com")

	// wrong password and unknown account fail identically
	_, err := users.Login(ctx, "alice", "wrongpassword")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = users.Login(ctx, "nobody", "longenoughpass")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	u, err := users.Login(ctx, " ALICE ", "longenoughpass")
	require.NoError(t, err)
	assert.Equal(t, "alice", u.Username)
}

func TestExistenceProbes(t *testing.T) {
	users, _, _ := newServices(t)
	ctx := context.Background()

	mustRegister(t, users, "alice", "a@x.com")

	exists, err := users.UsernameExists(ctx, "Alice")
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = users.EmailExists(ctx, "A@X.COM")
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = users.UsernameExists(ctx, "ghost")
	require.NoError(t, err)
	assert.False(t, exists)
}
