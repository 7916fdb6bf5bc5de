package store

import (
	"context"
	"fmt"

	"github.com/google/uuid"
)

const attachmentColumns = `id, key, filename, source_url, created_at`

// CreateAttachment inserts an attachment and sets a.ID. A missing Key is
// generated as a UUIDv7 so keys sort by creation time.
func (s *Store) CreateAttachment(ctx context.Context, a *Attachment) error {
	if a.Key == "" {
		key, err := uuid.NewV7()
		if err != nil {
			return fmt.Errorf("create attachment: generate key: %w", err)
		}
		a.Key = key.String()
	}

	now := s.now()
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO attachments (key, filename, source_url, created_at)
		VALUES (?, ?, ?, ?)
	`, a.Key, a.Filename, a.SourceURL, formatTime(now))
	if err != nil {
		return fmt.Errorf("create attachment: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("create attachment: last insert id: %w", err)
	}
	a.ID = id
	a.CreatedAt = now.UTC()
	return nil
}

// FindAttachmentByID looks an attachment up by id.
func (s *Store) FindAttachmentByID(ctx context.Context, id int64) (*Attachment, error) {
	a, err := scanAttachment(s.db.QueryRowContext(ctx,
		`SELECT `+attachmentColumns+` FROM attachments WHERE id = ?`, id))
	if err != nil {
		return nil, notFound(err, fmt.Sprintf("attachment %d", id))
	}
	return a, nil
}

// FindAttachmentByKey looks an attachment up by storage key.
func (s *Store) FindAttachmentByKey(ctx context.Context, key string) (*Attachment, error) {
	a, err := scanAttachment(s.db.QueryRowContext(ctx,
		`SELECT `+attachmentColumns+` FROM attachments WHERE key = ?`, key))
	if err != nil {
		return nil, notFound(err, fmt.Sprintf("attachment %q", key))
	}
	return a, nil
}

// FindAttachmentBySourceURL returns the oldest attachment linked from url.
func (s *Store) FindAttachmentBySourceURL(ctx context.Context, url string) (*Attachment, error) {
	a, err := scanAttachment(s.db.QueryRowContext(ctx, `
		SELECT `+attachmentColumns+` FROM attachments
		WHERE source_url = ? AND source_url != ''
		ORDER BY id ASC LIMIT 1
	`, url))
	if err != nil {
		return nil, notFound(err, fmt.Sprintf("attachment from %q", url))
	}
	return a, nil
}

func scanAttachment(row scanner) (*Attachment, error) {
	var a Attachment
	var created string
	if err := row.Scan(&a.ID, &a.Key, &a.Filename, &a.SourceURL, &created); err != nil {
		return nil, err
	}
	t, err := parseTime(created)
	if err != nil {
		return nil, err
	}
	a.CreatedAt = t
	return &a, nil
}
