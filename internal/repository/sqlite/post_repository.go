package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"inkwell/internal/domain"
	"inkwell/internal/repository"
)

const createPostsTable = `
CREATE TABLE IF NOT EXISTS posts (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	author_id INTEGER NOT NULL REFERENCES users(id),
	title TEXT NOT NULL,
	body TEXT NOT NULL,
	created_at DATETIME NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_posts_author ON posts(author_id);

CREATE VIRTUAL TABLE IF NOT EXISTS posts_fts USING fts5(
	title, body,
	content='posts', content_rowid='id'
);

CREATE TRIGGER IF NOT EXISTS posts_fts_insert AFTER INSERT ON posts BEGIN
	INSERT INTO posts_fts(rowid, title, body) VALUES (new.id, new.title, new.body);
END;
CREATE TRIGGER IF NOT EXISTS posts_fts_delete AFTER DELETE ON posts BEGIN
	INSERT INTO posts_fts(posts_fts, rowid, title, body) VALUES ('delete', old.id, old.title, old.body);
END;
CREATE TRIGGER IF NOT EXISTS posts_fts_update AFTER UPDATE ON posts BEGIN
	INSERT INTO posts_fts(posts_fts, rowid, title, body) VALUES ('delete', old.id, old.title, old.body);
	INSERT INTO posts_fts(rowid, title, body) VALUES (new.id, new.title, new.body);
END;
`

const authoredPostColumns = `
p.id, p.author_id, p.title, p.body, p.created_at, u.username, u.email`

type PostRepository struct {
	db *sql.DB
}

func NewPostRepository(db *sql.DB) repository.PostRepository {
	return &PostRepository{db: db}
}

func (r *PostRepository) Init(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, createPostsTable); err != nil {
		return fmt.Errorf("create posts tables: %w", err)
	}
	return nil
}

func (r *PostRepository) Create(ctx context.Context, post *domain.Post) (int64, error) {
	if post.CreatedAt.IsZero() {
		post.CreatedAt = time.Now().UTC()
	}

	res, err := r.db.ExecContext(ctx, `
INSERT INTO posts (author_id, title, body, created_at)
VALUES (?, ?, ?, ?)`,
		post.AuthorID,
		post.Title,
		post.Body,
		post.CreatedAt,
	)
	if err != nil {
		return 0, fmt.Errorf("insert post: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("post last insert id: %w", err)
	}
	post.ID = id
	return id, nil
}

func (r *PostRepository) FindByID(ctx context.Context, id int64) (*domain.AuthoredPost, error) {
	row := r.db.QueryRowContext(ctx, `
SELECT`+authoredPostColumns+`
FROM posts p
JOIN users u ON u.id = p.author_id
WHERE p.id = ?`,
		id,
	)
	return scanAuthoredPost(row)
}

func (r *PostRepository) Update(ctx context.Context, id int64, title, body string) error {
	res, err := r.db.ExecContext(ctx, `
UPDATE posts SET title = ?, body = ? WHERE id = ?`, title, body, id)
	if err != nil {
		return fmt.Errorf("update post: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update post rows affected: %w", err)
	}
	if n == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *PostRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM posts WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete post: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete post rows affected: %w", err)
	}
	if n == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *PostRepository) ListByAuthor(ctx context.Context, authorID int64) ([]domain.AuthoredPost, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT`+authoredPostColumns+`
FROM posts p
JOIN users u ON u.id = p.author_id
WHERE p.author_id = ?
ORDER BY p.created_at DESC, p.id ASC`,
		authorID,
	)
	if err != nil {
		return nil, fmt.Errorf("list posts by author: %w", err)
	}
	return collectAuthoredPosts(rows)
}

func (r *PostRepository) CountByAuthor(ctx context.Context, authorID int64) (int64, error) {
	var n int64
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(1) FROM posts WHERE author_id = ?`, authorID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count posts by author: %w", err)
	}
	return n, nil
}

func (r *PostRepository) Feed(ctx context.Context, viewerID int64) ([]domain.AuthoredPost, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT`+authoredPostColumns+`
FROM posts p
JOIN users u ON u.id = p.author_id
WHERE p.author_id = ?
   OR p.author_id IN (SELECT followed_id FROM follows WHERE follower_id = ?)
ORDER BY p.created_at DESC, p.id ASC`,
		viewerID, viewerID,
	)
	if err != nil {
		return nil, fmt.Errorf("feed query: %w", err)
	}
	return collectAuthoredPosts(rows)
}

func (r *PostRepository) Search(ctx context.Context, term string) ([]domain.AuthoredPost, error) {
	match := ftsQuery(term)
	if match == "" {
		return nil, nil
	}

	rows, err := r.db.QueryContext(ctx, `
SELECT`+authoredPostColumns+`
FROM posts_fts f
JOIN posts p ON p.id = f.rowid
JOIN users u ON u.id = p.author_id
WHERE posts_fts MATCH ?
ORDER BY f.rank`,
		match,
	)
	if err != nil {
		return nil, fmt.Errorf("search query: %w", err)
	}
	return collectAuthoredPosts(rows)
}

// ftsQuery turns raw user input into an FTS5 match expression. Every token is
// quoted so user text can never be parsed as FTS syntax; tokens are OR-ed so
// any matching word ranks the post, like the original text search.
func ftsQuery(term string) string {
	fields := strings.Fields(term)
	if len(fields) == 0 {
		return ""
	}
	quoted := make([]string, len(fields))
	for i, f := range fields {
		quoted[i] = `"` + strings.ReplaceAll(f, `"`, `""`) + `"`
	}
	return strings.Join(quoted, " OR ")
}

func scanAuthoredPost(row interface {
	Scan(dest ...any) error
}) (*domain.AuthoredPost, error) {
	var p domain.AuthoredPost
	if err := row.Scan(
		&p.ID,
		&p.AuthorID,
		&p.Title,
		&p.Body,
		&p.CreatedAt,
		&p.AuthorUsername,
		&p.AuthorEmail,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("scan post: %w", err)
	}
	return &p, nil
}

func collectAuthoredPosts(rows *sql.Rows) ([]domain.AuthoredPost, error) {
	defer rows.Close()

	var posts []domain.AuthoredPost
	for rows.Next() {
		p, err := scanAuthoredPost(rows)
		if err != nil {
			return nil, err
		}
		posts = append(posts, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate posts: %w", err)
	}
	return posts, nil
}
