package store

import (
	"context"
	"database/sql"
	"fmt"
	"slices"
	"strings"
)

var pageStatuses = []string{StatusDraft, StatusPublished, StatusArchived}

const pageColumns = `id, path, title, template_id, parent_id, status, page_type,
	seo_title, seo_description, seo_keywords, seo_index_mode, canonical_url,
	og_type, og_title, og_description, og_image_id, created_at, updated_at`

// ValidatePage fills defaults and rejects records the schema would accept
// but the site cannot render.
func ValidatePage(p *Page) error {
	if p.Status == "" {
		p.Status = StatusDraft
	}
	if p.PageType == "" {
		p.PageType = DefaultPageType
	}
	switch {
	case !strings.HasPrefix(p.Path, "/"):
		return &ValidationError{Field: "path", Message: "must start with /"}
	case strings.TrimSpace(p.Title) == "":
		return blank("title")
	case p.TemplateID == 0:
		return blank("template")
	case !slices.Contains(pageStatuses, p.Status):
		return &ValidationError{Field: "status", Message: fmt.Sprintf("%q is not one of %v", p.Status, pageStatuses)}
	case p.ParentID != nil && *p.ParentID == p.ID && p.ID != 0:
		return &ValidationError{Field: "parent", Message: "can't be the page itself"}
	}
	return nil
}

// CreatePage inserts a page and sets p.ID.
func (s *Store) CreatePage(ctx context.Context, p *Page) error {
	if err := ValidatePage(p); err != nil {
		return err
	}

	now := s.now()
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO pages (path, title, template_id, parent_id, status, page_type,
			seo_title, seo_description, seo_keywords, seo_index_mode, canonical_url,
			og_type, og_title, og_description, og_image_id, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		p.Path, p.Title, p.TemplateID, nullInt(p.ParentID), p.Status, p.PageType,
		p.SEO.Title, p.SEO.Description, p.SEO.Keywords, p.SEO.IndexMode, p.SEO.CanonicalURL,
		p.SEO.OGType, p.SEO.OGTitle, p.SEO.OGDescription, nullInt(p.SEO.OGImageID),
		formatTime(now), formatTime(now),
	)
	if err != nil {
		return fmt.Errorf("create page %q: %w", p.Path, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("create page %q: last insert id: %w", p.Path, err)
	}
	p.ID = id
	p.CreatedAt = now.UTC()
	p.UpdatedAt = now.UTC()
	return nil
}

// UpdatePage writes every mutable column of p. The template is not
// mutable through this call.
func (s *Store) UpdatePage(ctx context.Context, p *Page) error {
	if err := ValidatePage(p); err != nil {
		return err
	}

	now := s.now()
	res, err := s.db.ExecContext(ctx, `
		UPDATE pages SET
			title = ?, parent_id = ?, status = ?, page_type = ?,
			seo_title = ?, seo_description = ?, seo_keywords = ?, seo_index_mode = ?,
			canonical_url = ?, og_type = ?, og_title = ?, og_description = ?,
			og_image_id = ?, updated_at = ?
		WHERE id = ?
	`,
		p.Title, nullInt(p.ParentID), p.Status, p.PageType,
		p.SEO.Title, p.SEO.Description, p.SEO.Keywords, p.SEO.IndexMode,
		p.SEO.CanonicalURL, p.SEO.OGType, p.SEO.OGTitle, p.SEO.OGDescription,
		nullInt(p.SEO.OGImageID), formatTime(now),
		p.ID,
	)
	if err != nil {
		return fmt.Errorf("update page %q: %w", p.Path, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("update page %q: %w", p.Path, ErrNotFound)
	}
	p.UpdatedAt = now.UTC()
	return nil
}

// FindPageByPath looks a page up by its path.
func (s *Store) FindPageByPath(ctx context.Context, path string) (*Page, error) {
	p, err := scanPage(s.db.QueryRowContext(ctx,
		`SELECT `+pageColumns+` FROM pages WHERE path = ?`, path))
	if err != nil {
		return nil, notFound(err, fmt.Sprintf("page %q", path))
	}
	return p, nil
}

// FindPageByID looks a page up by id.
func (s *Store) FindPageByID(ctx context.Context, id int64) (*Page, error) {
	p, err := scanPage(s.db.QueryRowContext(ctx,
		`SELECT `+pageColumns+` FROM pages WHERE id = ?`, id))
	if err != nil {
		return nil, notFound(err, fmt.Sprintf("page %d", id))
	}
	return p, nil
}

// ListPages returns all pages ordered by path.
func (s *Store) ListPages(ctx context.Context) ([]Page, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+pageColumns+` FROM pages ORDER BY path ASC`)
	if err != nil {
		return nil, fmt.Errorf("query pages: %w", err)
	}
	defer rows.Close()

	pages := []Page{}
	for rows.Next() {
		p, err := scanPage(rows)
		if err != nil {
			return nil, fmt.Errorf("scan page: %w", err)
		}
		pages = append(pages, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate pages: %w", err)
	}
	return pages, nil
}

// ListChildPages returns the direct children of a page (or the root pages
// when parentID is nil), ordered by path.
func (s *Store) ListChildPages(ctx context.Context, parentID *int64) ([]Page, error) {
	query := `SELECT ` + pageColumns + ` FROM pages WHERE parent_id IS NULL ORDER BY path ASC`
	args := []any{}
	if parentID != nil {
		query = `SELECT ` + pageColumns + ` FROM pages WHERE parent_id = ? ORDER BY path ASC`
		args = append(args, *parentID)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query child pages: %w", err)
	}
	defer rows.Close()

	pages := []Page{}
	for rows.Next() {
		p, err := scanPage(rows)
		if err != nil {
			return nil, fmt.Errorf("scan page: %w", err)
		}
		pages = append(pages, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate child pages: %w", err)
	}
	return pages, nil
}

func scanPage(row scanner) (*Page, error) {
	var p Page
	var parent, ogImage sql.NullInt64
	var created, updated string
	err := row.Scan(
		&p.ID, &p.Path, &p.Title, &p.TemplateID, &parent, &p.Status, &p.PageType,
		&p.SEO.Title, &p.SEO.Description, &p.SEO.Keywords, &p.SEO.IndexMode, &p.SEO.CanonicalURL,
		&p.SEO.OGType, &p.SEO.OGTitle, &p.SEO.OGDescription, &ogImage, &created, &updated,
	)
	if err != nil {
		return nil, err
	}
	p.ParentID = intPtr(parent)
	p.SEO.OGImageID = intPtr(ogImage)
	if p.CreatedAt, err = parseTime(created); err != nil {
		return nil, err
	}
	if p.UpdatedAt, err = parseTime(updated); err != nil {
		return nil, err
	}
	return &p, nil
}
