package store

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
)

// CreateForm inserts a form definition and sets f.ID. Fields must be a JSON
// array; an empty value is stored as [].
func (s *Store) CreateForm(ctx context.Context, f *Form) error {
	if strings.TrimSpace(f.Name) == "" {
		return blank("name")
	}
	if strings.TrimSpace(f.Fields) == "" {
		f.Fields = "[]"
	}
	var fields []json.RawMessage
	if err := json.Unmarshal([]byte(f.Fields), &fields); err != nil {
		return &ValidationError{Field: "fields", Message: "must be a JSON array"}
	}

	res, err := s.db.ExecContext(ctx, `
		INSERT INTO forms (name, fields, created_at) VALUES (?, ?, ?)
	`, f.Name, f.Fields, s.timestamp())
	if err != nil {
		return fmt.Errorf("create form %q: %w", f.Name, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("create form %q: last insert id: %w", f.Name, err)
	}
	f.ID = id
	return nil
}

// FindFormByName looks a form up by name.
func (s *Store) FindFormByName(ctx context.Context, name string) (*Form, error) {
	var f Form
	err := s.db.QueryRowContext(ctx, `
		SELECT id, name, fields FROM forms WHERE name = ?
	`, name).Scan(&f.ID, &f.Name, &f.Fields)
	if err != nil {
		return nil, notFound(err, fmt.Sprintf("form %q", name))
	}
	return &f, nil
}

// ListForms returns all forms ordered by name.
func (s *Store) ListForms(ctx context.Context) ([]Form, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, name, fields FROM forms ORDER BY name ASC`)
	if err != nil {
		return nil, fmt.Errorf("query forms: %w", err)
	}
	defer rows.Close()

	forms := []Form{}
	for rows.Next() {
		var f Form
		if err := rows.Scan(&f.ID, &f.Name, &f.Fields); err != nil {
			return nil, fmt.Errorf("scan form: %w", err)
		}
		forms = append(forms, f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate forms: %w", err)
	}
	return forms, nil
}
