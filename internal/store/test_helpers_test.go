package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"
)

// createTestStore creates a new file-backed store for testing with a clock
// that advances one second per call.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path, WithClock(tickingClock()))
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func tickingClock() func() time.Time {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	return func() time.Time {
		now = now.Add(time.Second)
		return now
	}
}

// createTestTemplate creates a template for pages to reference.
func createTestTemplate(t *testing.T, s *Store, name string) *Template {
	t.Helper()
	tmpl, err := s.EnsureTemplate(context.Background(), name)
	if err != nil {
		t.Fatalf("EnsureTemplate(%q) failed: %v", name, err)
	}
	return tmpl
}

// createTestPage creates a published page with minimal required fields.
func createTestPage(t *testing.T, s *Store, path string, templateID int64, parentID *int64) *Page {
	t.Helper()
	p := &Page{
		Path:       path,
		Title:      "Page " + path,
		TemplateID: templateID,
		ParentID:   parentID,
		Status:     StatusPublished,
	}
	if err := s.CreatePage(context.Background(), p); err != nil {
		t.Fatalf("CreatePage(%q) failed: %v", path, err)
	}
	return p
}

// createTestUser creates a user with the given email.
func createTestUser(t *testing.T, s *Store, email string) *User {
	t.Helper()
	u := &User{Email: email, Name: email}
	if err := s.CreateUser(context.Background(), u); err != nil {
		t.Fatalf("CreateUser(%q) failed: %v", email, err)
	}
	return u
}
