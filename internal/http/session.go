package http

import (
	"net/http"
	"time"

	"github.com/gorilla/sessions"

	"inkwell/internal/domain"
)

const sessionName = "inkwell_session"

// Flash categories. Browser flows stash human-readable messages here across
// the redirect and the next page render drains them.
const (
	FlashErrors   = "errors"
	FlashSuccess  = "success"
	FlashRegister = "registerErrors"
)

// SessionUser is the authenticated state carried by a browser session.
type SessionUser struct {
	ID       int64
	Username string
	Avatar   string
}

// SessionManager wraps the cookie store. Sessions live for a fixed TTL
// refreshed on every save and are destroyed explicitly on logout.
type SessionManager struct {
	store *sessions.CookieStore
	ttl   time.Duration
}

func NewSessionManager(secret []byte, ttl time.Duration) *SessionManager {
	store := sessions.NewCookieStore(secret)
	store.MaxAge(int(ttl.Seconds()))
	store.Options.HttpOnly = true
	store.Options.SameSite = http.SameSiteLaxMode
	return &SessionManager{store: store, ttl: ttl}
}

func (m *SessionManager) session(r *http.Request) *sessions.Session {
	// a tampered cookie decodes to a fresh empty session
	s, _ := m.store.Get(r, sessionName)
	return s
}

// Viewer resolves the authenticated user from the request's session, if any.
func (m *SessionManager) Viewer(r *http.Request) (SessionUser, bool) {
	s := m.session(r)
	id, ok := s.Values["userID"].(int64)
	if !ok || id == 0 {
		return SessionUser{}, false
	}
	username, _ := s.Values["username"].(string)
	avatar, _ := s.Values["avatar"].(string)
	return SessionUser{ID: id, Username: username, Avatar: avatar}, true
}

// SignIn populates the session with the account's display identity.
func (m *SessionManager) SignIn(w http.ResponseWriter, r *http.Request, user *domain.User) error {
	s := m.session(r)
	s.Values["userID"] = user.ID
	s.Values["username"] = user.Username
	s.Values["avatar"] = user.Avatar()
	return s.Save(r, w)
}

// SignOut destroys the session.
func (m *SessionManager) SignOut(w http.ResponseWriter, r *http.Request) error {
	s := m.session(r)
	s.Values = map[interface{}]interface{}{}
	s.Options.MaxAge = -1
	return s.Save(r, w)
}

// Flash appends a message under the given category.
func (m *SessionManager) Flash(w http.ResponseWriter, r *http.Request, category, message string) error {
	s := m.session(r)
	s.AddFlash(message, category)
	return s.Save(r, w)
}

// Flashes drains and returns the messages stored under the given category.
func (m *SessionManager) Flashes(w http.ResponseWriter, r *http.Request, category string) []string {
	s := m.session(r)
	raw := s.Flashes(category)
	if len(raw) == 0 {
		return nil
	}
	_ = s.Save(r, w)

	messages := make([]string, 0, len(raw))
	for _, f := range raw {
		if msg, ok := f.(string); ok {
			messages = append(messages, msg)
		}
	}
	return messages
}
