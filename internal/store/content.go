package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
)

// EnsureTemplate returns the template with the given name, creating it if
// needed.
func (s *Store) EnsureTemplate(ctx context.Context, name string) (*Template, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("ensure template: %w", blank("name"))
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO templates (name, created_at) VALUES (?, ?)
		ON CONFLICT(name) DO NOTHING
	`, name, s.timestamp())
	if err != nil {
		return nil, fmt.Errorf("ensure template: %w", err)
	}
	return s.FindTemplateByName(ctx, name)
}

// FindTemplateByName looks a template up by name.
func (s *Store) FindTemplateByName(ctx context.Context, name string) (*Template, error) {
	var t Template
	err := s.db.QueryRowContext(ctx, `
		SELECT id, name FROM templates WHERE name = ?
	`, name).Scan(&t.ID, &t.Name)
	if err != nil {
		return nil, notFound(err, fmt.Sprintf("template %q", name))
	}
	return &t, nil
}

// FindTemplateByID looks a template up by id.
func (s *Store) FindTemplateByID(ctx context.Context, id int64) (*Template, error) {
	var t Template
	err := s.db.QueryRowContext(ctx, `
		SELECT id, name FROM templates WHERE id = ?
	`, id).Scan(&t.ID, &t.Name)
	if err != nil {
		return nil, notFound(err, fmt.Sprintf("template %d", id))
	}
	return &t, nil
}

// ListTemplates returns all templates ordered by name.
func (s *Store) ListTemplates(ctx context.Context) ([]Template, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, name FROM templates ORDER BY name ASC`)
	if err != nil {
		return nil, fmt.Errorf("query templates: %w", err)
	}
	defer rows.Close()

	templates := []Template{}
	for rows.Next() {
		var t Template
		if err := rows.Scan(&t.ID, &t.Name); err != nil {
			return nil, fmt.Errorf("scan template: %w", err)
		}
		templates = append(templates, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate templates: %w", err)
	}
	return templates, nil
}

// FindOrCreateBlock returns the block (templateID, key), creating it with
// the given name and kind when missing. An existing block keeps its own
// name and kind.
func (s *Store) FindOrCreateBlock(ctx context.Context, templateID int64, key, name, kind string) (*Block, error) {
	if strings.TrimSpace(key) == "" {
		return nil, fmt.Errorf("find or create block: %w", blank("key"))
	}
	if kind == "" {
		kind = "text"
	}

	var b *Block
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		existing, err := scanBlock(tx.QueryRowContext(ctx, `
			SELECT id, template_id, key, name, kind, position
			FROM blocks WHERE template_id = ? AND key = ?
		`, templateID, key))
		if err == nil {
			b = existing
			return nil
		}
		if !errors.Is(err, sql.ErrNoRows) {
			return err
		}

		var position int
		if err := tx.QueryRowContext(ctx, `
			SELECT COALESCE(MAX(position) + 1, 0) FROM blocks WHERE template_id = ?
		`, templateID).Scan(&position); err != nil {
			return err
		}

		res, err := tx.ExecContext(ctx, `
			INSERT INTO blocks (template_id, key, name, kind, position)
			VALUES (?, ?, ?, ?, ?)
		`, templateID, key, name, kind, position)
		if err != nil {
			return err
		}
		id, err := res.LastInsertId()
		if err != nil {
			return err
		}
		b = &Block{ID: id, TemplateID: templateID, Key: key, Name: name, Kind: kind, Position: position}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("find or create block %q: %w", key, err)
	}
	return b, nil
}

// ListBlocks returns a template's blocks in position order.
func (s *Store) ListBlocks(ctx context.Context, templateID int64) ([]Block, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, template_id, key, name, kind, position
		FROM blocks WHERE template_id = ?
		ORDER BY position ASC, key ASC
	`, templateID)
	if err != nil {
		return nil, fmt.Errorf("query blocks: %w", err)
	}
	defer rows.Close()

	blocks := []Block{}
	for rows.Next() {
		b, err := scanBlock(rows)
		if err != nil {
			return nil, fmt.Errorf("scan block: %w", err)
		}
		blocks = append(blocks, *b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate blocks: %w", err)
	}
	return blocks, nil
}

// FindBlockContent returns a page's content for a block.
func (s *Store) FindBlockContent(ctx context.Context, pageID, blockID int64) (*BlockContent, error) {
	bc, err := scanBlockContent(s.db.QueryRowContext(ctx, `
		SELECT id, page_id, block_id, content
		FROM block_contents WHERE page_id = ? AND block_id = ?
	`, pageID, blockID))
	if err != nil {
		return nil, notFound(err, fmt.Sprintf("block content (page %d, block %d)", pageID, blockID))
	}
	return bc, nil
}

// FindOrCreateBlockContent returns a page's content for a block, creating
// it with content when missing. created reports whether a row was inserted.
func (s *Store) FindOrCreateBlockContent(ctx context.Context, pageID, blockID int64, content string) (bc *BlockContent, created bool, err error) {
	err = s.withTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `
			INSERT INTO block_contents (page_id, block_id, content, updated_at)
			VALUES (?, ?, ?, ?)
			ON CONFLICT(page_id, block_id) DO NOTHING
		`, pageID, blockID, content, s.timestamp())
		if err != nil {
			return err
		}
		n, err := res.RowsAffected()
		if err != nil {
			return err
		}
		created = n > 0

		bc, err = scanBlockContent(tx.QueryRowContext(ctx, `
			SELECT id, page_id, block_id, content
			FROM block_contents WHERE page_id = ? AND block_id = ?
		`, pageID, blockID))
		return err
	})
	if err != nil {
		return nil, false, fmt.Errorf("find or create block content: %w", err)
	}
	return bc, created, nil
}

// UpdateBlockContent writes bc.Content.
func (s *Store) UpdateBlockContent(ctx context.Context, bc *BlockContent) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE block_contents SET content = ?, updated_at = ? WHERE id = ?
	`, bc.Content, s.timestamp(), bc.ID)
	if err != nil {
		return fmt.Errorf("update block content: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("update block content %d: %w", bc.ID, ErrNotFound)
	}
	return nil
}

func scanBlock(row scanner) (*Block, error) {
	var b Block
	if err := row.Scan(&b.ID, &b.TemplateID, &b.Key, &b.Name, &b.Kind, &b.Position); err != nil {
		return nil, err
	}
	return &b, nil
}

func scanBlockContent(row scanner) (*BlockContent, error) {
	var bc BlockContent
	if err := row.Scan(&bc.ID, &bc.PageID, &bc.BlockID, &bc.Content); err != nil {
		return nil, err
	}
	return &bc, nil
}
