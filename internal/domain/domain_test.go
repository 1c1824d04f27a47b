package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestAvatarURL(t *testing.T) {
	a := AvatarURL("a@x.com")
	b := AvatarURL("a@x.com")
	other := AvatarURL("b@x.com")

	assert.Equal(t, a, b, "identical emails must map to the identical avatar")
	assert.NotEqual(t, a, other)
	assert.Regexp(t, `^https://gravatar\.com/avatar/[0-9a-f]{32}\?s=128$`, a)
}

func TestAuthoredPostView_Ownership(t *testing.T) {
	p := AuthoredPost{
		Post:           Post{ID: 1, AuthorID: 9, Title: "Hi", CreatedAt: time.Now()},
		AuthorUsername: "alice",
		AuthorEmail:    "a@x.com",
	}

	assert.True(t, p.View(9).IsOwnedByViewer)
	assert.False(t, p.View(3).IsOwnedByViewer)
	assert.False(t, p.View(0).IsOwnedByViewer, "anonymous viewer never owns")
	assert.Equal(t, "alice", p.View(0).Author.Username)
	assert.Equal(t, AvatarURL("a@x.com"), p.View(0).Author.Avatar)
}

func TestValidationErrors_Error(t *testing.T) {
	errs := ValidationErrors{"first", "second"}
	assert.Equal(t, "first; second", errs.Error())
}
