package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
)

func validateMenu(m *Menu) error {
	switch {
	case strings.TrimSpace(m.Name) == "":
		return blank("name")
	case m.Kind != MenuStatic && m.Kind != MenuAuto:
		return &ValidationError{Field: "kind", Message: fmt.Sprintf("%q is not static or auto", m.Kind)}
	}
	return nil
}

// CreateMenu inserts a menu with no items and sets m.ID.
func (s *Store) CreateMenu(ctx context.Context, m *Menu) error {
	return s.CreateMenuWithItems(ctx, m, nil)
}

// CreateMenuWithItems inserts a menu and its items in one transaction and
// sets m.ID. When any item is invalid nothing is written.
func (s *Store) CreateMenuWithItems(ctx context.Context, m *Menu, items []MenuItem) error {
	if err := validateMenu(m); err != nil {
		return err
	}
	for i, it := range items {
		if strings.TrimSpace(it.Text) == "" {
			return fmt.Errorf("item %d: %w", i, blank("text"))
		}
	}

	var id int64
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `
			INSERT INTO menus (name, kind, start_page_id, created_at)
			VALUES (?, ?, ?, ?)
		`, m.Name, m.Kind, nullInt(m.StartPageID), s.timestamp())
		if err != nil {
			return err
		}
		if id, err = res.LastInsertId(); err != nil {
			return fmt.Errorf("last insert id: %w", err)
		}
		return replaceMenuItems(ctx, tx, id, items)
	})
	if err != nil {
		return fmt.Errorf("create menu %q: %w", m.Name, err)
	}
	m.ID = id
	return nil
}

// DeleteMenu removes a menu and its items.
func (s *Store) DeleteMenu(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM menus WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete menu %d: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("delete menu %d: %w", id, ErrNotFound)
	}
	return nil
}

// UpdateMenu writes the menu's start page. Name and kind are identity
// and are never rewritten.
func (s *Store) UpdateMenu(ctx context.Context, m *Menu) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE menus SET start_page_id = ? WHERE id = ?
	`, nullInt(m.StartPageID), m.ID)
	if err != nil {
		return fmt.Errorf("update menu %q: %w", m.Name, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("update menu %q: %w", m.Name, ErrNotFound)
	}
	return nil
}

// FindMenuByName looks a menu up by name.
func (s *Store) FindMenuByName(ctx context.Context, name string) (*Menu, error) {
	m, err := scanMenu(s.db.QueryRowContext(ctx, `
		SELECT id, name, kind, start_page_id FROM menus WHERE name = ?
	`, name))
	if err != nil {
		return nil, notFound(err, fmt.Sprintf("menu %q", name))
	}
	return m, nil
}

// ListMenus returns all menus in creation order.
func (s *Store) ListMenus(ctx context.Context) ([]Menu, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, kind, start_page_id FROM menus
		ORDER BY created_at ASC, id ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query menus: %w", err)
	}
	defer rows.Close()

	menus := []Menu{}
	for rows.Next() {
		m, err := scanMenu(rows)
		if err != nil {
			return nil, fmt.Errorf("scan menu: %w", err)
		}
		menus = append(menus, *m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate menus: %w", err)
	}
	return menus, nil
}

// ListMenuItems returns a menu's items in position order.
func (s *Store) ListMenuItems(ctx context.Context, menuID int64) ([]MenuItem, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, menu_id, position, text, page_id, url
		FROM menu_items WHERE menu_id = ?
		ORDER BY position ASC, id ASC
	`, menuID)
	if err != nil {
		return nil, fmt.Errorf("query menu items: %w", err)
	}
	defer rows.Close()

	items := []MenuItem{}
	for rows.Next() {
		var it MenuItem
		var page sql.NullInt64
		if err := rows.Scan(&it.ID, &it.MenuID, &it.Position, &it.Text, &page, &it.URL); err != nil {
			return nil, fmt.Errorf("scan menu item: %w", err)
		}
		it.PageID = intPtr(page)
		items = append(items, it)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate menu items: %w", err)
	}
	return items, nil
}

// ReplaceMenuItems deletes a menu's items and inserts items in order,
// atomically. Positions are reassigned from 0.
func (s *Store) ReplaceMenuItems(ctx context.Context, menuID int64, items []MenuItem) error {
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		return replaceMenuItems(ctx, tx, menuID, items)
	})
	if err != nil {
		return fmt.Errorf("replace menu items: %w", err)
	}
	return nil
}

// GenerateAutoMenuItems rebuilds an auto menu's items from the children of
// its start page (or the root pages when it has none), in path order.
func (s *Store) GenerateAutoMenuItems(ctx context.Context, m *Menu) error {
	if m.Kind != MenuAuto {
		return fmt.Errorf("generate menu items: menu %q is %s, not auto", m.Name, m.Kind)
	}

	pages, err := s.ListChildPages(ctx, m.StartPageID)
	if err != nil {
		return fmt.Errorf("generate menu items for %q: %w", m.Name, err)
	}

	items := make([]MenuItem, 0, len(pages))
	for _, p := range pages {
		id := p.ID
		items = append(items, MenuItem{Text: p.Title, PageID: &id})
	}
	return s.ReplaceMenuItems(ctx, m.ID, items)
}

func replaceMenuItems(ctx context.Context, tx *sql.Tx, menuID int64, items []MenuItem) error {
	if _, err := tx.ExecContext(ctx, `DELETE FROM menu_items WHERE menu_id = ?`, menuID); err != nil {
		return fmt.Errorf("delete items: %w", err)
	}
	for i, it := range items {
		if strings.TrimSpace(it.Text) == "" {
			return fmt.Errorf("item %d: %w", i, blank("text"))
		}
		_, err := tx.ExecContext(ctx, `
			INSERT INTO menu_items (menu_id, position, text, page_id, url)
			VALUES (?, ?, ?, ?, ?)
		`, menuID, i, it.Text, nullInt(it.PageID), it.URL)
		if err != nil {
			return fmt.Errorf("insert item %d: %w", i, err)
		}
	}
	return nil
}

func scanMenu(row scanner) (*Menu, error) {
	var m Menu
	var start sql.NullInt64
	if err := row.Scan(&m.ID, &m.Name, &m.Kind, &start); err != nil {
		return nil, err
	}
	m.StartPageID = intPtr(start)
	return &m, nil
}
