package media

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/folio/internal/store"
)

func openStore(t *testing.T) *store.Store {
	t.Helper()
	st, err := store.Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	return st
}

func TestLibrary_UploadedRoundTrip(t *testing.T) {
	st := openStore(t)
	ctx := context.Background()
	lib := NewLibrary(st, "https://cdn.example.com/media/")

	a := &store.Attachment{Key: "abc", Filename: "hero image.png"}
	require.NoError(t, st.CreateAttachment(ctx, a))

	u, err := lib.URL(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example.com/media/abc/hero%20image.png", u)

	id, err := lib.Link(ctx, u)
	require.NoError(t, err)
	assert.Equal(t, a.ID, id)
}

func TestLibrary_LinkedRoundTrip(t *testing.T) {
	st := openStore(t)
	ctx := context.Background()
	lib := NewLibrary(st, "")

	id, err := lib.Link(ctx, "https://images.example.org/og/card.jpg")
	require.NoError(t, err)

	again, err := lib.Link(ctx, "https://images.example.org/og/card.jpg")
	require.NoError(t, err)
	assert.Equal(t, id, again, "same source URL links to the same attachment")

	a, err := st.FindAttachmentByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "card.jpg", a.Filename)

	u, err := lib.URL(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "https://images.example.org/og/card.jpg", u)
}

func TestLibrary_URLErrors(t *testing.T) {
	st := openStore(t)
	ctx := context.Background()
	lib := NewLibrary(st, "")

	_, err := lib.URL(ctx, 42)
	assert.True(t, store.IsNotFound(err))

	a := &store.Attachment{Filename: "local.png"}
	require.NoError(t, st.CreateAttachment(ctx, a))
	_, err = lib.URL(ctx, a.ID)
	assert.ErrorIs(t, err, ErrNoBaseURL)
}

func TestLibrary_LinkRejectsRelative(t *testing.T) {
	lib := NewLibrary(openStore(t), "")

	_, err := lib.Link(context.Background(), "/images/a.png")
	assert.Error(t, err)
	_, err = lib.Link(context.Background(), " ")
	assert.Error(t, err)
}

func TestLibrary_UnknownKeyUnderBaseLinksNew(t *testing.T) {
	st := openStore(t)
	ctx := context.Background()
	lib := NewLibrary(st, "https://cdn.example.com")

	id, err := lib.Link(ctx, "https://cdn.example.com/gone/x.png")
	require.NoError(t, err)

	a, err := st.FindAttachmentByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example.com/gone/x.png", a.SourceURL)
}
