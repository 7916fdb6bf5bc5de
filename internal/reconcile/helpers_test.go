package reconcile

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/roach88/folio/internal/extract"
	"github.com/roach88/folio/internal/media"
	"github.com/roach88/folio/internal/snapshot"
	"github.com/roach88/folio/internal/store"
	"github.com/roach88/folio/internal/testutil"
)

var quiet = slog.New(slog.NewTextHandler(io.Discard, nil))

// spyRepo counts mutating calls on top of a real store.
type spyRepo struct {
	*store.Store
	calls map[string]int
}

func (s *spyRepo) CreatePage(ctx context.Context, p *store.Page) error {
	s.calls["CreatePage"]++
	return s.Store.CreatePage(ctx, p)
}

func (s *spyRepo) UpdatePage(ctx context.Context, p *store.Page) error {
	s.calls["UpdatePage"]++
	return s.Store.UpdatePage(ctx, p)
}

func (s *spyRepo) FindOrCreateBlockContent(ctx context.Context, pageID, blockID int64, content string) (*store.BlockContent, bool, error) {
	s.calls["FindOrCreateBlockContent"]++
	return s.Store.FindOrCreateBlockContent(ctx, pageID, blockID, content)
}

func (s *spyRepo) UpdateBlockContent(ctx context.Context, bc *store.BlockContent) error {
	s.calls["UpdateBlockContent"]++
	return s.Store.UpdateBlockContent(ctx, bc)
}

func (s *spyRepo) CreatePost(ctx context.Context, p *store.Post) error {
	s.calls["CreatePost"]++
	return s.Store.CreatePost(ctx, p)
}

func (s *spyRepo) UpdatePost(ctx context.Context, p *store.Post) error {
	s.calls["UpdatePost"]++
	return s.Store.UpdatePost(ctx, p)
}

func (s *spyRepo) CreateMenuWithItems(ctx context.Context, m *store.Menu, items []store.MenuItem) error {
	s.calls["CreateMenuWithItems"]++
	return s.Store.CreateMenuWithItems(ctx, m, items)
}

func (s *spyRepo) UpdateMenu(ctx context.Context, m *store.Menu) error {
	s.calls["UpdateMenu"]++
	return s.Store.UpdateMenu(ctx, m)
}

func (s *spyRepo) ReplaceMenuItems(ctx context.Context, menuID int64, items []store.MenuItem) error {
	s.calls["ReplaceMenuItems"]++
	return s.Store.ReplaceMenuItems(ctx, menuID, items)
}

func (s *spyRepo) writes() int {
	n := 0
	for _, c := range s.calls {
		n += c
	}
	return n
}

type fakeRecorder struct {
	imports  []*Report
	rejected int
}

func (f *fakeRecorder) RecordImport(r *Report, _ time.Duration) { f.imports = append(f.imports, r) }
func (f *fakeRecorder) RecordRejected()                          { f.rejected++ }

type env struct {
	st       *store.Store
	spy      *spyRepo
	ex       *extract.Extractor
	im       *Importer
	recorder *fakeRecorder
}

func newEnv(t *testing.T, opts ...Option) *env {
	t.Helper()
	st := testutil.OpenStore(t)
	spy := &spyRepo{Store: st, calls: map[string]int{}}
	lib := media.NewLibrary(st, "https://cdn.example.com")
	ex := extract.New(st, extract.WithLogger(quiet), extract.WithImageResolver(lib))
	r := New(spy, append([]Option{WithLogger(quiet), WithImageLinker(lib)}, opts...)...)
	rec := &fakeRecorder{}
	im := NewImporter(ex, r, WithRecorder(rec), WithRunIDs(testutil.NewFixedRunIDGenerator("")))
	return &env{st: st, spy: spy, ex: ex, im: im, recorder: rec}
}

func (e *env) importJSON(t *testing.T, doc string) *Report {
	t.Helper()
	report, err := e.im.Import(context.Background(), []byte(doc))
	require.NoError(t, err)
	return report
}

func (e *env) export(t *testing.T) []byte {
	t.Helper()
	data, err := e.ex.Export(context.Background())
	require.NoError(t, err)
	return data
}

func (e *env) page(t *testing.T, path string) *store.Page {
	t.Helper()
	p, err := e.st.FindPageByPath(context.Background(), path)
	require.NoError(t, err)
	return p
}

func (e *env) templateOf(t *testing.T, p *store.Page) string {
	t.Helper()
	tmpl, err := e.st.FindTemplateByID(context.Background(), p.TemplateID)
	require.NoError(t, err)
	return tmpl.Name
}

func (e *env) content(t *testing.T, path, key string) string {
	t.Helper()
	snap, err := e.ex.Extract(context.Background())
	require.NoError(t, err)
	block, ok := snap.Content(path, key)
	require.True(t, ok, "no content %s %s", path, key)
	return string(block.Content)
}

// seedSite builds a small site exercising every entity kind.
func seedSite(t *testing.T, st *store.Store) {
	t.Helper()
	tmpl := testutil.Template(t, st, "Page", "title", "body")
	testutil.Template(t, st, "Other")
	root := testutil.Page(t, st, store.Page{Path: "/", Title: "Home", TemplateID: tmpl.ID})
	about := testutil.Page(t, st, store.Page{
		Path:       "/about",
		Title:      "About",
		TemplateID: tmpl.ID,
		ParentID:   &root.ID,
		SEO:        store.SEO{Title: "About us", Description: "Who we are"},
	})
	testutil.Content(t, st, root, "title", `"Welcome"`)
	testutil.Content(t, st, about, "body", `{"blocks":[{"text":"Hi","type":"paragraph"}]}`)

	owner := testutil.User(t, st, "owner@example.com")
	author := testutil.User(t, st, "author@example.com")
	published := time.Date(2024, 2, 1, 12, 0, 0, 0, time.UTC)
	testutil.Post(t, st, store.Post{
		Slug:        "hello",
		Title:       "Hello",
		Status:      store.StatusPublished,
		PublishedAt: &published,
		UserID:      owner.ID,
		AuthorID:    &author.ID,
		Content:     "<p>Hello</p>",
	})

	testutil.Menu(t, st, store.Menu{Name: "Main", Kind: store.MenuAuto, StartPageID: &root.ID})
	testutil.Menu(t, st, store.Menu{Name: "Footer", Kind: store.MenuStatic},
		store.MenuItem{Text: "About", PageID: &about.ID},
		store.MenuItem{Text: "Docs", URL: "https://docs.example.com"},
	)
}

// withoutIDs drops informational ids so snapshots from different stores
// can be compared.
func withoutIDs(t *testing.T, data []byte) []byte {
	t.Helper()
	snap, err := snapshot.Parse(data)
	require.NoError(t, err)
	for _, p := range snap.Pages {
		p.ID = 0
	}
	for _, p := range snap.Posts {
		p.ID = 0
	}
	out, err := snapshot.Marshal(snap)
	require.NoError(t, err)
	return out
}
