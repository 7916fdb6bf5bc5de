package store

import "time"

// Page statuses accepted by the store.
const (
	StatusDraft     = "draft"
	StatusPublished = "published"
	StatusScheduled = "scheduled"
	StatusArchived  = "archived"
)

// DefaultPageType is used when a page is created without a page type.
const DefaultPageType = "page"

// User is a site user. Posts reference users for ownership and authorship.
type User struct {
	ID        int64
	Email     string
	Name      string
	CreatedAt time.Time
}

// Template is a code-defined page layout. Its blocks define which content
// keys a page using it can hold.
type Template struct {
	ID   int64
	Name string
}

// Block is a content slot of a template, identified by (TemplateID, Key).
type Block struct {
	ID         int64
	TemplateID int64
	Key        string
	Name       string
	Kind       string
	Position   int
}

// BlockContent is a page's value for one template block.
// Content holds the canonical JSON encoding of the value.
type BlockContent struct {
	ID      int64
	PageID  int64
	BlockID int64
	Content string
}

// SEO holds the search and social metadata shared by pages and posts.
type SEO struct {
	Title         string
	Description   string
	Keywords      string
	IndexMode     string
	CanonicalURL  string
	OGType        string
	OGTitle       string
	OGDescription string
	OGImageID     *int64
}

// Page is a site page, identified by Path.
type Page struct {
	ID         int64
	Path       string
	Title      string
	TemplateID int64
	ParentID   *int64
	Status     string
	PageType   string
	SEO        SEO
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// Post is a blog post, identified by Slug. UserID is always set;
// AuthorID is optional.
type Post struct {
	ID            int64
	Slug          string
	Title         string
	Status        string
	PublishedAt   *time.Time
	UserID        int64
	AuthorID      *int64
	Excerpt       string
	Content       string
	CachedContent string
	SEO           SEO
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Menu kinds.
const (
	MenuStatic = "static"
	MenuAuto   = "auto"
)

// Menu is a navigation menu, identified by Name. Auto menus generate their
// items from StartPageID; static menus own an ordered item list.
type Menu struct {
	ID          int64
	Name        string
	Kind        string
	StartPageID *int64
}

// MenuItem is one entry of a menu. Either PageID or URL is meaningful.
type MenuItem struct {
	ID       int64
	MenuID   int64
	Position int
	Text     string
	PageID   *int64
	URL      string
}

// Attachment is an uploaded or linked image. Key addresses stored bytes;
// SourceURL is set for images linked from elsewhere.
type Attachment struct {
	ID        int64
	Key       string
	Filename  string
	SourceURL string
	CreatedAt time.Time
}

// Form is a form definition. Fields holds the JSON field list.
type Form struct {
	ID     int64
	Name   string
	Fields string
}
