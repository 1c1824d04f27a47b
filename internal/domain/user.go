package domain

import (
	"crypto/md5"
	"encoding/hex"
	"time"
)

// User represents a registered account.
type User struct {
	ID           int64
	Username     string
	Email        string
	PasswordHash string
	CreatedAt    time.Time
}

// Avatar returns the gravatar URL derived from the user's email.
func (u *User) Avatar() string {
	return AvatarURL(u.Email)
}

// AvatarURL maps an email address to its gravatar URL. Gravatar keys avatars
// by the md5 of the address, so identical addresses always resolve to the
// identical image. The URL is never stored, only recomputed on demand.
func AvatarURL(email string) string {
	sum := md5.Sum([]byte(email))
	return "https://gravatar.com/avatar/" + hex.EncodeToString(sum[:]) + "?s=128"
}

// Profile is the public projection of a user exposed in follower and
// following listings. Display identity only, no email or credentials.
type Profile struct {
	Username string `json:"username"`
	Avatar   string `json:"avatar"`
}
