package reconcile

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/folio/internal/snapshot"
	"github.com/roach88/folio/internal/store"
	"github.com/roach88/folio/internal/testutil"
)

func TestScenario_Create(t *testing.T) {
	e := newEnv(t)
	testutil.Template(t, e.st, "Page")

	report := e.importJSON(t, `{"pages": {"/new": {"title": "New", "template": "Page", "contents": {}}}}`)

	assert.Equal(t, []string{"Created page '/new'"}, report.Success)
	assert.Empty(t, report.Error)
	assert.Empty(t, report.Warning)
	assert.Equal(t, "New", e.page(t, "/new").Title)
	assert.Equal(t, 1, e.spy.calls["CreatePage"])
}

func TestScenario_TemplateConflict(t *testing.T) {
	e := newEnv(t)
	seedSite(t, e.st)

	report := e.importJSON(t, `{"pages": {"/about": {
		"title": "Renamed",
		"template": "Other",
		"contents": {"body": {"kind": "text", "content": "replaced"}}
	}}}`)

	require.Len(t, report.Error, 1)
	assert.Contains(t, report.Error[0], "/about")
	assert.Equal(t, "Refused to update page '/about': template is 'Page', snapshot has 'Other'", report.Error[0])
	assert.Empty(t, report.Success, "contents of a refused page are skipped")

	about := e.page(t, "/about")
	assert.Equal(t, "Page", e.templateOf(t, about))
	assert.Equal(t, "About", about.Title)
	assert.Zero(t, e.spy.writes())
}

func TestScenario_MenuKindMismatch(t *testing.T) {
	e := newEnv(t)
	testutil.Menu(t, e.st, store.Menu{Name: "Main", Kind: store.MenuStatic})

	report := e.importJSON(t, `{"menus": [{"name": "Main", "kind": "auto", "start_page": "/"}]}`)

	assert.Equal(t, []string{"Skipped menu 'Main': kind is 'static', snapshot has 'auto'"}, report.Warning)
	assert.Empty(t, report.Error)

	m, err := e.st.FindMenuByName(context.Background(), "Main")
	require.NoError(t, err)
	assert.Equal(t, store.MenuStatic, m.Kind)
}

func TestScenario_MissingUserFallback(t *testing.T) {
	e := newEnv(t)
	first := testutil.User(t, e.st, "first@example.com")
	testutil.User(t, e.st, "second@example.com")

	report := e.importJSON(t, `{"posts": [{"slug": "orphan", "title": "Orphan", "user_email": "nobody@example.com"}]}`)

	assert.Empty(t, report.Error)
	assert.Equal(t, []string{"Created post 'orphan'"}, report.Success)
	assert.Equal(t, []string{"Post 'orphan': user 'nobody@example.com' not found, assigned to 'first@example.com'"}, report.Warning)

	post, err := e.st.FindPostBySlug(context.Background(), "orphan")
	require.NoError(t, err)
	assert.Equal(t, first.ID, post.UserID)
	assert.Equal(t, store.StatusDraft, post.Status)
	assert.Equal(t, "", post.Content)
	assert.Equal(t, "", post.CachedContent)
}

func TestFallbackNone_ReportsError(t *testing.T) {
	e := newEnv(t, WithFallback(FallbackNone))
	testutil.User(t, e.st, "first@example.com")

	report := e.importJSON(t, `{"posts": [
		{"slug": "orphan", "title": "Orphan", "user_email": "nobody@example.com"},
		{"slug": "owned", "title": "Owned", "user_email": "first@example.com"}
	]}`)

	assert.Equal(t, []string{"Failed to create post 'orphan': user 'nobody@example.com' not found"}, report.Error)
	assert.Equal(t, []string{"Created post 'owned'"}, report.Success)
}

func TestFallbackFirst_NoUsers(t *testing.T) {
	e := newEnv(t)

	report := e.importJSON(t, `{"posts": [{"slug": "a", "title": "A"}]}`)
	assert.Equal(t, []string{"Failed to create post 'a': no user exists to own the post"}, report.Error)
}

func TestParseFallbackPolicy(t *testing.T) {
	p, err := ParseFallbackPolicy("")
	require.NoError(t, err)
	assert.Equal(t, FallbackFirst, p)

	p, err = ParseFallbackPolicy("none")
	require.NoError(t, err)
	assert.Equal(t, FallbackNone, p)

	_, err = ParseFallbackPolicy("random")
	assert.Error(t, err)
}

func TestPartialFailureIsolation(t *testing.T) {
	e := newEnv(t)
	testutil.Template(t, e.st, "Page")

	report := e.importJSON(t, `{"pages": {
		"/bad": {"title": "Bad", "template": "Missing", "contents": {"body": {"content": "x"}}},
		"/good": {"title": "Good", "template": "Page", "contents": {"body": {"content": "y"}}}
	}}`)

	assert.Equal(t, []string{"Failed to create page '/bad': template 'Missing' not found"}, report.Error)
	assert.Equal(t, []string{
		"Created page '/good'",
		"Created content 'body' on page '/good'",
	}, report.Success)

	_, err := e.st.FindPageByPath(context.Background(), "/bad")
	assert.True(t, store.IsNotFound(err), "no partial page is left behind")
	assert.Equal(t, `"y"`, e.content(t, "/good", "body"))
}

func TestPostFailureIsolation(t *testing.T) {
	e := newEnv(t)
	testutil.User(t, e.st, "owner@example.com")

	report := e.importJSON(t, `{"posts": [
		{"slug": "untitled"},
		{"slug": "dated", "title": "Dated", "published_at": "yesterday"},
		{"slug": "fine", "title": "Fine"}
	]}`)

	assert.Equal(t, []string{
		"Failed to create post 'untitled': Title can't be blank",
		"Failed to create post 'dated': published_at 'yesterday' is not a valid time",
	}, report.Error)
	assert.Equal(t, []string{"Created post 'fine'"}, report.Success)
}

func TestRoundTrip_SameStoreIsNoOp(t *testing.T) {
	e := newEnv(t)
	seedSite(t, e.st)
	first := e.export(t)

	report := e.importJSON(t, string(first))

	assert.Empty(t, report.Error)
	assert.Empty(t, report.Warning)
	assert.Equal(t, []string{
		"Page '/' already up to date",
		"Page '/about' already up to date",
		"Post 'hello' already up to date",
		"Menu 'Main' already up to date",
		"Menu 'Footer' already up to date",
	}, report.Success)
	assert.Zero(t, e.spy.writes(), "unchanged snapshot performs no writes: %v", e.spy.calls)

	assert.Equal(t, string(first), string(e.export(t)))
}

func TestRoundTrip_FreshStore(t *testing.T) {
	src := newEnv(t)
	seedSite(t, src.st)
	exported := src.export(t)

	dst := newEnv(t)
	testutil.Template(t, dst.st, "Page")
	testutil.User(t, dst.st, "owner@example.com")
	testutil.User(t, dst.st, "author@example.com")

	report := dst.importJSON(t, string(exported))
	assert.Empty(t, report.Error)
	assert.Empty(t, report.Warning)

	assert.Equal(t, string(withoutIDs(t, exported)), string(withoutIDs(t, dst.export(t))))

	again := dst.importJSON(t, string(dst.export(t)))
	assert.Empty(t, again.Error)
	for _, msg := range again.Success {
		assert.Contains(t, msg, "already up to date")
	}
}

func TestRoundTrip_FractionalPublishedAt(t *testing.T) {
	e := newEnv(t)
	testutil.User(t, e.st, "owner@example.com")

	report := e.importJSON(t, `{"posts": [{"slug": "precise", "title": "Precise", "status": "published", "published_at": "2024-05-01T10:00:00.123Z", "user_email": "owner@example.com"}]}`)
	require.Equal(t, []string{"Created post 'precise'"}, report.Success)

	exported := e.export(t)
	snap, err := snapshot.Parse(exported)
	require.NoError(t, err)
	require.Len(t, snap.Posts, 1)
	assert.Equal(t, "2024-05-01T10:00:00.123Z", snap.Posts[0].PublishedAt.Value())

	again := e.importJSON(t, string(exported))
	assert.Equal(t, []string{"Post 'precise' already up to date"}, again.Success)
	assert.Zero(t, e.spy.calls["UpdatePost"])
}

func TestIdentityScoping(t *testing.T) {
	e := newEnv(t)
	testutil.Template(t, e.st, "Page")
	testutil.User(t, e.st, "owner@example.com")

	report := e.importJSON(t, `{
		"pages": {
			"/a": {"title": "A", "template": "Page", "contents": {"hero": {"content": "from a"}}},
			"/b": {"title": "B", "template": "Page", "contents": {"hero": {"content": "from b"}}}
		},
		"posts": [
			{"slug": "dup", "title": "First"},
			{"slug": "dup", "title": "Second"}
		]
	}`)
	require.Empty(t, report.Error)

	assert.Equal(t, `"from a"`, e.content(t, "/a", "hero"))
	assert.Equal(t, `"from b"`, e.content(t, "/b", "hero"))

	posts, err := e.st.ListPosts(context.Background())
	require.NoError(t, err)
	require.Len(t, posts, 1, "same slug updates rather than duplicates")
	assert.Equal(t, "Second", posts[0].Title)
	assert.Contains(t, report.Success, "Created post 'dup'")
	assert.Contains(t, report.Success, "Updated post 'dup'")
}

func TestParentsCreatedBeforeChildren(t *testing.T) {
	e := newEnv(t)
	testutil.Template(t, e.st, "Page")

	report := e.importJSON(t, `{"pages": {
		"/0-child": {"title": "Child", "template": "Page", "parent": "/z-parent", "contents": {}},
		"/z-parent": {"title": "Parent", "template": "Page", "contents": {}}
	}}`)

	assert.Equal(t, []string{"Created page '/z-parent'", "Created page '/0-child'"}, report.Success)
	child := e.page(t, "/0-child")
	require.NotNil(t, child.ParentID)
	assert.Equal(t, e.page(t, "/z-parent").ID, *child.ParentID)
}

func TestUnknownParentCreatesRootPage(t *testing.T) {
	e := newEnv(t)
	testutil.Template(t, e.st, "Page")

	report := e.importJSON(t, `{"pages": {"/x": {"title": "X", "template": "Page", "parent": "/nowhere", "contents": {}}}}`)

	assert.Empty(t, report.Error)
	assert.Empty(t, report.Warning)
	assert.Nil(t, e.page(t, "/x").ParentID)
}

func TestParseError_NothingWritten(t *testing.T) {
	e := newEnv(t)
	testutil.Template(t, e.st, "Page")

	for _, doc := range []string{
		`{"pages": {"/x": {"title": "X", "template": "Page", "contents": {}}}`,
		`{"pages": {"/x": {"title": 5, "template": "Page", "contents": {}}}}`,
		`{"menus": [{"name": "Main", "kind": "dynamic"}]}`,
	} {
		report, err := e.im.Import(context.Background(), []byte(doc))
		require.Error(t, err)
		assert.Nil(t, report)

		var pe *snapshot.ParseError
		assert.ErrorAs(t, err, &pe)
	}

	assert.Zero(t, e.spy.writes())
	assert.Equal(t, 3, e.recorder.rejected)
	assert.Empty(t, e.recorder.imports)
}

func TestImport_RecordsOutcome(t *testing.T) {
	e := newEnv(t)
	testutil.Template(t, e.st, "Page")

	report := e.importJSON(t, `{"pages": {"/x": {"title": "X", "template": "Page", "contents": {}}}}`)

	require.Len(t, e.recorder.imports, 1)
	assert.Same(t, report, e.recorder.imports[0])
}

func TestImport_PassThroughSectionsIgnored(t *testing.T) {
	e := newEnv(t)

	report := e.importJSON(t, `{"pages": {}, "posts": [], "menus": [], "templates": {"Page": ["title"]}, "settings": {"theme": "dark"}}`)

	assert.True(t, report.OK())
	assert.Empty(t, report.Success)
	assert.Zero(t, e.spy.writes())

	_, err := e.st.FindTemplateByName(context.Background(), "Page")
	assert.True(t, store.IsNotFound(err), "templates section is never applied")
}

func TestReport_TextMentionsEveryEntry(t *testing.T) {
	e := newEnv(t)
	testutil.Template(t, e.st, "Page")

	report := e.importJSON(t, `{"pages": {
		"/ok": {"title": "Ok", "template": "Page", "contents": {}},
		"/bad": {"title": "Bad", "template": "Nope", "contents": {}}
	}}`)

	text := report.Text()
	assert.True(t, strings.HasPrefix(text, "success: Created page '/ok'\nerror: Failed to create page '/bad'"))
	assert.True(t, strings.HasSuffix(text, "1 succeeded, 1 failed, 0 warnings\n"))
}
