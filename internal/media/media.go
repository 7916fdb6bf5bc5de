// Package media maps image attachments to external URLs and back.
package media

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"path"
	"strings"

	"github.com/roach88/folio/internal/store"
)

// ErrNoBaseURL is returned when an uploaded attachment has no public URL
// because no media base URL is configured.
var ErrNoBaseURL = errors.New("media base URL is not configured")

// Store is the attachment surface the Library needs.
type Store interface {
	FindAttachmentByID(ctx context.Context, id int64) (*store.Attachment, error)
	FindAttachmentByKey(ctx context.Context, key string) (*store.Attachment, error)
	FindAttachmentBySourceURL(ctx context.Context, url string) (*store.Attachment, error)
	CreateAttachment(ctx context.Context, a *store.Attachment) error
}

// Library resolves attachments against a public base URL such as
// "https://cdn.example.com/media". Uploaded attachments are served at
// <base>/<key>/<filename>; linked attachments keep their source URL.
type Library struct {
	store   Store
	baseURL string
}

// NewLibrary returns a Library. baseURL may be empty, in which case only
// linked attachments resolve.
func NewLibrary(st Store, baseURL string) *Library {
	return &Library{store: st, baseURL: strings.TrimRight(baseURL, "/")}
}

// URL returns the external URL of attachment id.
func (l *Library) URL(ctx context.Context, id int64) (string, error) {
	a, err := l.store.FindAttachmentByID(ctx, id)
	if err != nil {
		return "", fmt.Errorf("resolve attachment: %w", err)
	}
	if a.SourceURL != "" {
		return a.SourceURL, nil
	}
	if l.baseURL == "" {
		return "", fmt.Errorf("resolve attachment %d: %w", id, ErrNoBaseURL)
	}
	return l.baseURL + "/" + url.PathEscape(a.Key) + "/" + url.PathEscape(a.Filename), nil
}

// Link returns the attachment id for an external URL. URLs under the base
// URL map back to the uploaded attachment; any other URL is matched by
// source URL and linked as a new attachment when unseen.
func (l *Library) Link(ctx context.Context, raw string) (int64, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, errors.New("link attachment: empty URL")
	}
	u, err := url.Parse(raw)
	if err != nil || !u.IsAbs() {
		return 0, fmt.Errorf("link attachment: %q is not an absolute URL", raw)
	}

	if key, ok := l.keyOf(raw); ok {
		a, err := l.store.FindAttachmentByKey(ctx, key)
		if err == nil {
			return a.ID, nil
		}
		if !store.IsNotFound(err) {
			return 0, fmt.Errorf("link attachment: %w", err)
		}
	}

	a, err := l.store.FindAttachmentBySourceURL(ctx, raw)
	if err == nil {
		return a.ID, nil
	}
	if !store.IsNotFound(err) {
		return 0, fmt.Errorf("link attachment: %w", err)
	}

	a = &store.Attachment{Filename: path.Base(u.Path), SourceURL: raw}
	if err := l.store.CreateAttachment(ctx, a); err != nil {
		return 0, fmt.Errorf("link attachment: %w", err)
	}
	return a.ID, nil
}

// keyOf extracts the attachment key from a URL under the base URL.
func (l *Library) keyOf(raw string) (string, bool) {
	if l.baseURL == "" || !strings.HasPrefix(raw, l.baseURL+"/") {
		return "", false
	}
	rest := strings.TrimPrefix(raw, l.baseURL+"/")
	escaped, _, _ := strings.Cut(rest, "/")
	key, err := url.PathUnescape(escaped)
	if err != nil || key == "" {
		return "", false
	}
	return key, true
}
