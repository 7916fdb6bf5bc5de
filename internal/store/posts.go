package store

import (
	"context"
	"database/sql"
	"fmt"
	"slices"
	"strings"
)

var postStatuses = []string{StatusDraft, StatusPublished, StatusScheduled, StatusArchived}

const postColumns = `id, slug, title, status, published_at, user_id, author_id,
	excerpt, content, cached_content,
	seo_title, seo_description, seo_keywords, seo_index_mode, canonical_url,
	og_type, og_title, og_description, og_image_id, created_at, updated_at`

// ValidatePost fills defaults and rejects an incomplete post.
func ValidatePost(p *Post) error {
	if p.Status == "" {
		p.Status = StatusDraft
	}
	switch {
	case strings.TrimSpace(p.Slug) == "":
		return blank("slug")
	case strings.TrimSpace(p.Title) == "":
		return blank("title")
	case p.UserID == 0:
		return blank("user")
	case !slices.Contains(postStatuses, p.Status):
		return &ValidationError{Field: "status", Message: fmt.Sprintf("%q is not one of %v", p.Status, postStatuses)}
	case p.Status == StatusScheduled && p.PublishedAt == nil:
		return &ValidationError{Field: "published_at", Message: "is required for scheduled posts"}
	}
	return nil
}

// CreatePost inserts a post and sets p.ID.
func (s *Store) CreatePost(ctx context.Context, p *Post) error {
	if err := ValidatePost(p); err != nil {
		return err
	}

	now := s.now()
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO posts (slug, title, status, published_at, user_id, author_id,
			excerpt, content, cached_content,
			seo_title, seo_description, seo_keywords, seo_index_mode, canonical_url,
			og_type, og_title, og_description, og_image_id, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		p.Slug, p.Title, p.Status, nullTime(p.PublishedAt), p.UserID, nullInt(p.AuthorID),
		p.Excerpt, p.Content, p.CachedContent,
		p.SEO.Title, p.SEO.Description, p.SEO.Keywords, p.SEO.IndexMode, p.SEO.CanonicalURL,
		p.SEO.OGType, p.SEO.OGTitle, p.SEO.OGDescription, nullInt(p.SEO.OGImageID),
		formatTime(now), formatTime(now),
	)
	if err != nil {
		return fmt.Errorf("create post %q: %w", p.Slug, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("create post %q: last insert id: %w", p.Slug, err)
	}
	p.ID = id
	p.CreatedAt = now.UTC()
	p.UpdatedAt = now.UTC()
	return nil
}

// UpdatePost writes every mutable column of p.
func (s *Store) UpdatePost(ctx context.Context, p *Post) error {
	if err := ValidatePost(p); err != nil {
		return err
	}

	now := s.now()
	res, err := s.db.ExecContext(ctx, `
		UPDATE posts SET
			title = ?, status = ?, published_at = ?, user_id = ?, author_id = ?,
			excerpt = ?, content = ?, cached_content = ?,
			seo_title = ?, seo_description = ?, seo_keywords = ?, seo_index_mode = ?,
			canonical_url = ?, og_type = ?, og_title = ?, og_description = ?,
			og_image_id = ?, updated_at = ?
		WHERE id = ?
	`,
		p.Title, p.Status, nullTime(p.PublishedAt), p.UserID, nullInt(p.AuthorID),
		p.Excerpt, p.Content, p.CachedContent,
		p.SEO.Title, p.SEO.Description, p.SEO.Keywords, p.SEO.IndexMode,
		p.SEO.CanonicalURL, p.SEO.OGType, p.SEO.OGTitle, p.SEO.OGDescription,
		nullInt(p.SEO.OGImageID), formatTime(now),
		p.ID,
	)
	if err != nil {
		return fmt.Errorf("update post %q: %w", p.Slug, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("update post %q: %w", p.Slug, ErrNotFound)
	}
	p.UpdatedAt = now.UTC()
	return nil
}

// FindPostBySlug looks a post up by slug.
func (s *Store) FindPostBySlug(ctx context.Context, slug string) (*Post, error) {
	p, err := scanPost(s.db.QueryRowContext(ctx,
		`SELECT `+postColumns+` FROM posts WHERE slug = ?`, slug))
	if err != nil {
		return nil, notFound(err, fmt.Sprintf("post %q", slug))
	}
	return p, nil
}

// ListPosts returns all posts in creation order.
func (s *Store) ListPosts(ctx context.Context) ([]Post, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+postColumns+` FROM posts ORDER BY created_at ASC, id ASC`)
	if err != nil {
		return nil, fmt.Errorf("query posts: %w", err)
	}
	defer rows.Close()

	posts := []Post{}
	for rows.Next() {
		p, err := scanPost(rows)
		if err != nil {
			return nil, fmt.Errorf("scan post: %w", err)
		}
		posts = append(posts, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate posts: %w", err)
	}
	return posts, nil
}

func scanPost(row scanner) (*Post, error) {
	var p Post
	var published sql.NullString
	var author, ogImage sql.NullInt64
	var created, updated string
	err := row.Scan(
		&p.ID, &p.Slug, &p.Title, &p.Status, &published, &p.UserID, &author,
		&p.Excerpt, &p.Content, &p.CachedContent,
		&p.SEO.Title, &p.SEO.Description, &p.SEO.Keywords, &p.SEO.IndexMode, &p.SEO.CanonicalURL,
		&p.SEO.OGType, &p.SEO.OGTitle, &p.SEO.OGDescription, &ogImage, &created, &updated,
	)
	if err != nil {
		return nil, err
	}
	p.AuthorID = intPtr(author)
	p.SEO.OGImageID = intPtr(ogImage)
	if p.PublishedAt, err = timePtr(published); err != nil {
		return nil, err
	}
	if p.CreatedAt, err = parseTime(created); err != nil {
		return nil, err
	}
	if p.UpdatedAt, err = parseTime(updated); err != nil {
		return nil, err
	}
	return &p, nil
}
