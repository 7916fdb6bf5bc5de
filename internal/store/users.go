package store

import (
	"context"
	"fmt"
	"strings"
)

// CreateUser inserts a user and sets u.ID and u.CreatedAt.
func (s *Store) CreateUser(ctx context.Context, u *User) error {
	u.Email = strings.TrimSpace(u.Email)
	if u.Email == "" {
		return fmt.Errorf("create user: %w", blank("email"))
	}

	now := s.now()
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO users (email, name, created_at)
		VALUES (?, ?, ?)
	`, u.Email, u.Name, formatTime(now))
	if err != nil {
		return fmt.Errorf("create user: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("create user: last insert id: %w", err)
	}
	u.ID = id
	u.CreatedAt = now.UTC()
	return nil
}

// FindUserByEmail looks a user up by email, case-insensitively.
func (s *Store) FindUserByEmail(ctx context.Context, email string) (*User, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, email, name, created_at FROM users WHERE email = ?
	`, strings.TrimSpace(email))
	u, err := scanUser(row)
	if err != nil {
		return nil, notFound(err, fmt.Sprintf("user %q", email))
	}
	return u, nil
}

// FindUserByID looks a user up by id.
func (s *Store) FindUserByID(ctx context.Context, id int64) (*User, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, email, name, created_at FROM users WHERE id = ?
	`, id)
	u, err := scanUser(row)
	if err != nil {
		return nil, notFound(err, fmt.Sprintf("user %d", id))
	}
	return u, nil
}

// FirstUser returns the earliest-created user (ties broken by id).
func (s *Store) FirstUser(ctx context.Context) (*User, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, email, name, created_at FROM users
		ORDER BY created_at ASC, id ASC
		LIMIT 1
	`)
	u, err := scanUser(row)
	if err != nil {
		return nil, notFound(err, "first user")
	}
	return u, nil
}

func scanUser(row scanner) (*User, error) {
	var u User
	var created string
	if err := row.Scan(&u.ID, &u.Email, &u.Name, &created); err != nil {
		return nil, err
	}
	t, err := parseTime(created)
	if err != nil {
		return nil, err
	}
	u.CreatedAt = t
	return &u, nil
}
