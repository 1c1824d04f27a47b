package domain

import "time"

// Post is a stored post row. Title and body are plain text; all markup is
// stripped before a post ever reaches the repository.
type Post struct {
	ID        int64     `json:"id"`
	AuthorID  int64     `json:"-"`
	Title     string    `json:"title"`
	Body      string    `json:"body"`
	CreatedAt time.Time `json:"createdDate"`
}

// AuthoredPost is a post row joined with its author's identity columns.
// Repositories return these; services turn them into PostViews.
type AuthoredPost struct {
	Post
	AuthorUsername string
	AuthorEmail    string
}

// PostView is a post prepared for a particular viewer: author identity is
// reduced to a display profile and ownership is resolved against the viewer.
type PostView struct {
	ID              int64     `json:"id"`
	Title           string    `json:"title"`
	Body            string    `json:"body"`
	CreatedAt       time.Time `json:"createdDate"`
	Author          Profile   `json:"author"`
	IsOwnedByViewer bool      `json:"isVisitorOwner"`
}

// View resolves an authored post against a viewer id. Viewer id 0 means an
// anonymous viewer and never owns anything.
func (p AuthoredPost) View(viewerID int64) PostView {
	return PostView{
		ID:              p.ID,
		Title:           p.Title,
		Body:            p.Body,
		CreatedAt:       p.CreatedAt,
		Author:          Profile{Username: p.AuthorUsername, Avatar: AvatarURL(p.AuthorEmail)},
		IsOwnedByViewer: p.AuthorID != 0 && p.AuthorID == viewerID,
	}
}
