package snapshot

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOptThreeStates(t *testing.T) {
	var rec struct {
		A Opt `json:"a,omitzero"`
		B Opt `json:"b,omitzero"`
		C Opt `json:"c,omitzero"`
		D Opt `json:"d,omitzero"`
	}
	err := json.Unmarshal([]byte(`{"b": null, "c": "", "d": "x"}`), &rec)
	require.NoError(t, err)

	assert.False(t, rec.A.Present())
	assert.True(t, rec.B.Present())
	assert.True(t, rec.B.IsNull())
	assert.True(t, rec.C.Present())
	assert.False(t, rec.C.IsNull())
	assert.False(t, rec.C.Provided())
	assert.True(t, rec.D.Provided())
	assert.Equal(t, "x", rec.D.Value())
}

func TestOptOmitsAbsent(t *testing.T) {
	rec := struct {
		A Opt `json:"a,omitzero"`
		B Opt `json:"b,omitzero"`
		C Opt `json:"c,omitzero"`
	}{B: Null(), C: Some("<b>")}

	data, err := json.Marshal(rec)
	require.NoError(t, err)
	assert.JSONEq(t, `{"b": null, "c": "<b>"}`, string(data))
}

func TestNonEmpty(t *testing.T) {
	assert.False(t, NonEmpty("").Present())
	assert.Equal(t, "v", NonEmpty("v").Value())
}

func TestNormalizeContent(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"string", `"hello"`, `"hello"`},
		{"no html escaping", `"<p>a & b</p>"`, `"<p>a & b</p>"`},
		{"sorted keys", `{"b": 1, "a": 2}`, `{"a":2,"b":1}`},
		{"nested", `{"z": {"y": [1, 2.0, 2.5]}, "a": null}`, `{"a":null,"z":{"y":[1,2,2.5]}}`},
		{"empty", ``, `null`},
		{"nfc", "\"e\u0301\"", "\"\u00e9\""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NormalizeContent(json.RawMessage(tt.input))
			require.NoError(t, err)
			assert.Equal(t, tt.expected, string(got))
		})
	}
}

func TestNormalizeContentRejectsTrailingData(t *testing.T) {
	_, err := NormalizeContent(json.RawMessage(`"a" "b"`))
	assert.Error(t, err)
}

func TestContentEqualIgnoresFormatting(t *testing.T) {
	a := json.RawMessage(`{"type": "doc", "content": [{"type": "text", "text": "Hi"}]}`)
	b := json.RawMessage(`{"content":[{"text":"Hi","type":"text"}],"type":"doc"}`)
	assert.True(t, ContentEqual(a, b))
	assert.False(t, ContentEqual(a, TextContent("Hi")))
}

func TestCompareUTF16(t *testing.T) {
	// U+10000 encodes as a surrogate pair (0xD800...), which sorts before U+E000
	assert.Less(t, compareUTF16("\U00010000", "\uE000"), 0)
	assert.Less(t, compareUTF16("a", "ab"), 0)
	assert.Equal(t, 0, compareUTF16("x", "x"))
}

func TestPagePathsParentsFirst(t *testing.T) {
	s := New()
	s.Pages["/a"] = &Page{Parent: Some("/z")}
	s.Pages["/z"] = &Page{}
	s.Pages["/b"] = &Page{Parent: Some("/a")}
	s.Pages["/c"] = &Page{Parent: Some("/missing")}

	assert.Equal(t, []string{"/z", "/a", "/b", "/c"}, s.PagePaths())
}

func TestPagePathsBreaksCycles(t *testing.T) {
	s := New()
	s.Pages["/a"] = &Page{Parent: Some("/b")}
	s.Pages["/b"] = &Page{Parent: Some("/a")}

	assert.ElementsMatch(t, []string{"/a", "/b"}, s.PagePaths())
}

func TestParseMinimal(t *testing.T) {
	s, err := Parse([]byte(`{"pages": {"/new": {"title": "New", "template": "Page", "contents": {}}}}`))
	require.NoError(t, err)

	require.Contains(t, s.Pages, "/new")
	page := s.Pages["/new"]
	assert.Equal(t, "New", page.Title.Value())
	assert.Equal(t, "Page", page.Template.Value())
	assert.False(t, page.Parent.Present())
	assert.NotNil(t, s.Posts)
	assert.NotNil(t, s.Menus)
}

func TestParseKeepsRichContent(t *testing.T) {
	doc := `{"pages": {"/": {"contents": {"body": {"kind": "rich_text", "content": {"type": "doc"}}}}}}`
	s, err := Parse([]byte(doc))
	require.NoError(t, err)

	block, ok := s.Content("/", "body")
	require.True(t, ok)
	assert.Equal(t, "rich_text", block.Kind)
	assert.JSONEq(t, `{"type": "doc"}`, string(block.Content))
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
		stage string
	}{
		{"empty", ``, "json"},
		{"syntax", `{"pages": {`, "json"},
		{"wrong title type", `{"pages": {"/": {"title": 3}}}`, "schema"},
		{"bad menu kind", `{"menus": [{"name": "Main", "kind": "dynamic"}]}`, "schema"},
		{"post without slug", `{"posts": [{"title": "x"}]}`, "schema"},
		{"block without content", `{"pages": {"/": {"contents": {"body": {"kind": "text"}}}}}`, "schema"},
		{"menu item without text", `{"menus": [{"name": "Main", "kind": "static", "items": [{"url": "https://x"}]}]}`, "schema"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.input))
			require.Error(t, err)

			var pe *ParseError
			require.True(t, errors.As(err, &pe), "expected ParseError, got %T", err)
			assert.Equal(t, tt.stage, pe.Stage)
		})
	}
}

func TestParseAllowsUnknownFields(t *testing.T) {
	_, err := Parse([]byte(`{"pages": {}, "version": 2, "menus": [{"name": "M", "kind": "auto", "extra": true}]}`))
	assert.NoError(t, err)
}

func TestMarshalRoundTrip(t *testing.T) {
	s := New()
	s.Pages["/about"] = &Page{
		ID:       4,
		Title:    Some("About"),
		Template: Some("Page"),
		SEO:      SEO{SEOTitle: Some("About us")},
		Contents: map[string]*Block{
			"body": {Kind: "text", Content: TextContent("Hello <world>")},
		},
	}
	s.Posts = append(s.Posts, &Post{Slug: "hello", Title: Some("Hello")})
	s.Menus = append(s.Menus, &Menu{Name: "Main", Kind: MenuAuto, StartPage: Some("/")})

	data, err := Marshal(s)
	require.NoError(t, err)
	assert.Contains(t, string(data), "\n  \"pages\": {")
	assert.Contains(t, string(data), "Hello <world>")
	assert.NotContains(t, string(data), "og_title")

	back, err := Parse(data)
	require.NoError(t, err)

	again, err := Marshal(back)
	require.NoError(t, err)
	assert.Equal(t, string(data), string(again))
}
