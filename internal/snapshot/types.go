package snapshot

import (
	"encoding/json"
	"slices"
)

// Menu kinds.
const (
	MenuStatic = "static"
	MenuAuto   = "auto"
)

// Snapshot is the root of the exportable content graph.
// Templates and Settings are pass-through: kept verbatim, never applied.
type Snapshot struct {
	Pages     map[string]*Page `json:"pages"`
	Posts     []*Post          `json:"posts"`
	Menus     []*Menu          `json:"menus"`
	Templates json.RawMessage  `json:"templates,omitempty"`
	Settings  json.RawMessage  `json:"settings,omitempty"`
}

// New returns an empty snapshot with non-nil collections.
func New() *Snapshot {
	return &Snapshot{
		Pages: map[string]*Page{},
		Posts: []*Post{},
		Menus: []*Menu{},
	}
}

// SEO holds the search and social metadata shared by pages and posts.
type SEO struct {
	SEOTitle       Opt `json:"seo_title,omitzero"`
	SEODescription Opt `json:"seo_description,omitzero"`
	SEOKeywords    Opt `json:"seo_keywords,omitzero"`
	SEOIndexMode   Opt `json:"seo_index_mode,omitzero"`
	CanonicalURL   Opt `json:"canonical_url,omitzero"`
	OGType         Opt `json:"og_type,omitzero"`
	OGTitle        Opt `json:"og_title,omitzero"`
	OGDescription  Opt `json:"og_description,omitzero"`
	OGImageURL     Opt `json:"og_image_url,omitzero"`
}

// Page is a page record. Its identity is the map key in Snapshot.Pages.
type Page struct {
	ID       int64  `json:"id,omitempty"`
	Title    Opt    `json:"title,omitzero"`
	Template Opt    `json:"template,omitzero"`
	Parent   Opt    `json:"parent,omitzero"`
	Status   Opt    `json:"status,omitzero"`
	PageType Opt    `json:"page_type,omitzero"`
	SEO
	Contents map[string]*Block `json:"contents"`
}

// Block is one entry of a page's contents, keyed by block key.
// Content is a JSON string for plain text and an object or array for
// structured rich content.
type Block struct {
	Kind    string          `json:"kind,omitempty"`
	Content json.RawMessage `json:"content"`
}

// Post is a blog post record, identified by Slug.
type Post struct {
	ID            int64  `json:"id,omitempty"`
	Slug          string `json:"slug"`
	Title         Opt    `json:"title,omitzero"`
	Status        Opt    `json:"status,omitzero"`
	PublishedAt   Opt    `json:"published_at,omitzero"`
	UserEmail     Opt    `json:"user_email,omitzero"`
	AuthorEmail   Opt    `json:"author_email,omitzero"`
	Excerpt       Opt    `json:"excerpt,omitzero"`
	Content       Opt    `json:"content,omitzero"`
	CachedContent Opt    `json:"cached_content,omitzero"`
	SEO
}

// Menu is a navigation menu record, identified by Name.
// Auto menus carry StartPage; static menus carry Items.
type Menu struct {
	Name      string      `json:"name"`
	Kind      string      `json:"kind"`
	StartPage Opt         `json:"start_page,omitzero"`
	Items     []*MenuItem `json:"items,omitempty"`
}

// MenuItem is one entry of a static menu. Page is a page path, URL an
// external link; exactly one of them is expected to be meaningful.
type MenuItem struct {
	Text string `json:"text"`
	Page Opt    `json:"page,omitzero"`
	URL  Opt    `json:"url,omitzero"`
}

// PagePaths returns page paths with every parent present in the snapshot
// ordered before its children; unrelated pages keep lexical order. Input
// order is never assumed, and a parent cycle is broken at the first page
// revisited.
func (s *Snapshot) PagePaths() []string {
	sorted := make([]string, 0, len(s.Pages))
	for p := range s.Pages {
		sorted = append(sorted, p)
	}
	slices.Sort(sorted)

	ordered := make([]string, 0, len(sorted))
	seen := make(map[string]bool, len(sorted))
	var visit func(path string)
	visit = func(path string) {
		if seen[path] {
			return
		}
		seen[path] = true
		if page := s.Pages[path]; page != nil && page.Parent.Provided() {
			if _, ok := s.Pages[page.Parent.Value()]; ok {
				visit(page.Parent.Value())
			}
		}
		ordered = append(ordered, path)
	}
	for _, p := range sorted {
		visit(p)
	}
	return ordered
}

// HasContent reports whether the snapshot holds content for (path, key).
func (s *Snapshot) HasContent(path, key string) bool {
	_, ok := s.Content(path, key)
	return ok
}

// Content returns the block stored for (path, key), if any.
func (s *Snapshot) Content(path, key string) (*Block, bool) {
	if s == nil {
		return nil, false
	}
	page, ok := s.Pages[path]
	if !ok || page == nil {
		return nil, false
	}
	block, ok := page.Contents[key]
	if !ok || block == nil {
		return nil, false
	}
	return block, true
}

// Post returns the post with the given slug, if any.
func (s *Snapshot) Post(slug string) (*Post, bool) {
	for _, p := range s.Posts {
		if p.Slug == slug {
			return p, true
		}
	}
	return nil, false
}

// Menu returns the menu with the given name, if any.
func (s *Snapshot) Menu(name string) (*Menu, bool) {
	for _, m := range s.Menus {
		if m.Name == name {
			return m, true
		}
	}
	return nil, false
}

// SortedKeys returns the block keys of a page in stable order.
func (p *Page) SortedKeys() []string {
	keys := make([]string, 0, len(p.Contents))
	for k := range p.Contents {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
