package testutil

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/folio/internal/store"
)

func TestDeterministicClock_NowAdvances(t *testing.T) {
	clock := NewDeterministicClock()

	assert.Equal(t, Epoch, clock.Now())
	assert.Equal(t, Epoch.Add(time.Second), clock.Now())
	assert.Equal(t, Epoch.Add(time.Second), clock.Current())
}

func TestDeterministicClock_Reset(t *testing.T) {
	clock := NewDeterministicClock()
	clock.Now()
	clock.Now()

	clock.Reset()
	assert.Equal(t, Epoch, clock.Now())
}

func TestDeterministicClock_ThreadSafe(t *testing.T) {
	clock := NewDeterministicClock()
	const numGoroutines = 50
	const callsPerGoroutine = 20

	var wg sync.WaitGroup
	wg.Add(numGoroutines)
	for i := 0; i < numGoroutines; i++ {
		go func() {
			defer wg.Done()
			for j := 0; j < callsPerGoroutine; j++ {
				clock.Now()
			}
		}()
	}
	wg.Wait()

	want := Epoch.Add(time.Duration(numGoroutines*callsPerGoroutine-1) * time.Second)
	assert.Equal(t, want, clock.Current())
}

func TestFixedRunIDGenerator(t *testing.T) {
	assert.Equal(t, "run-1", NewFixedRunIDGenerator("run-1").Generate())
	assert.Equal(t, "test-run-default", NewFixedRunIDGenerator("").Generate())
}

func TestSeedHelpers(t *testing.T) {
	st := OpenStore(t)
	ctx := context.Background()

	tmpl := Template(t, st, "Page", "title", "body")
	page := Page(t, st, store.Page{Path: "/", TemplateID: tmpl.ID})
	Content(t, st, page, "title", `"Home"`)
	Content(t, st, page, "title", `"Welcome"`)

	blocks, err := st.ListBlocks(ctx, tmpl.ID)
	require.NoError(t, err)
	require.Len(t, blocks, 2)

	bc, err := st.FindBlockContent(ctx, page.ID, blocks[0].ID)
	require.NoError(t, err)
	assert.Equal(t, `"Welcome"`, bc.Content)

	owner := User(t, st, "owner@example.com")
	Post(t, st, store.Post{Slug: "hello", Title: "Hello", UserID: owner.ID})
	m := Menu(t, st, store.Menu{Name: "Footer", Kind: store.MenuStatic}, store.MenuItem{Text: "Home", PageID: &page.ID})

	items, err := st.ListMenuItems(ctx, m.ID)
	require.NoError(t, err)
	assert.Len(t, items, 1)
}
