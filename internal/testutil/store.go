// Package testutil provides deterministic clocks, run ids and seeded stores
// for tests across packages.
package testutil

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/roach88/folio/internal/store"
)

// OpenStore opens a file-backed store in a temp dir using a
// DeterministicClock. The store is closed when the test ends.
func OpenStore(t testing.TB) *store.Store {
	t.Helper()
	st, err := store.Open(filepath.Join(t.TempDir(), "folio.db"), store.WithClock(NewDeterministicClock().Now))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	return st
}

// Template ensures a template with the given block keys exists. Blocks are
// created with kind "text" and the key as name.
func Template(t testing.TB, st *store.Store, name string, keys ...string) *store.Template {
	t.Helper()
	ctx := context.Background()
	tmpl, err := st.EnsureTemplate(ctx, name)
	require.NoError(t, err)
	for _, key := range keys {
		_, err := st.FindOrCreateBlock(ctx, tmpl.ID, key, key, "text")
		require.NoError(t, err)
	}
	return tmpl
}

// Page creates a page. Status defaults to published.
func Page(t testing.TB, st *store.Store, p store.Page) *store.Page {
	t.Helper()
	if p.Status == "" {
		p.Status = store.StatusPublished
	}
	if p.Title == "" {
		p.Title = p.Path
	}
	require.NoError(t, st.CreatePage(context.Background(), &p))
	return &p
}

// Content stores canonical JSON content for a page's block.
func Content(t testing.TB, st *store.Store, page *store.Page, key, content string) {
	t.Helper()
	ctx := context.Background()
	block, err := st.FindOrCreateBlock(ctx, page.TemplateID, key, key, "text")
	require.NoError(t, err)
	bc, created, err := st.FindOrCreateBlockContent(ctx, page.ID, block.ID, content)
	require.NoError(t, err)
	if !created {
		bc.Content = content
		require.NoError(t, st.UpdateBlockContent(ctx, bc))
	}
}

// User creates a user with the given email.
func User(t testing.TB, st *store.Store, email string) *store.User {
	t.Helper()
	u := &store.User{Email: email}
	require.NoError(t, st.CreateUser(context.Background(), u))
	return u
}

// Post creates a post.
func Post(t testing.TB, st *store.Store, p store.Post) *store.Post {
	t.Helper()
	require.NoError(t, st.CreatePost(context.Background(), &p))
	return &p
}

// Menu creates a menu and, for static menus, its items.
func Menu(t testing.TB, st *store.Store, m store.Menu, items ...store.MenuItem) *store.Menu {
	t.Helper()
	require.NoError(t, st.CreateMenuWithItems(context.Background(), &m, items))
	return &m
}
