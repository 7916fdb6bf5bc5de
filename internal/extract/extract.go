// Package extract builds a canonical snapshot from the live store.
//
// Extraction is read-only and deterministic: pages are walked parents
// first and siblings by path, posts and menus in creation order. Optional
// fields are emitted only when they hold a value, so a snapshot never
// carries defaults that an import could mistake for explicit clears.
package extract

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/roach88/folio/internal/snapshot"
	"github.com/roach88/folio/internal/store"
)

// PublishedAtLayout is the wire format of a post's published_at.
const PublishedAtLayout = time.RFC3339Nano

// Source is the read surface of the store the Extractor walks.
type Source interface {
	ListPages(ctx context.Context) ([]store.Page, error)
	ListBlocks(ctx context.Context, templateID int64) ([]store.Block, error)
	FindBlockContent(ctx context.Context, pageID, blockID int64) (*store.BlockContent, error)
	FindTemplateByID(ctx context.Context, id int64) (*store.Template, error)
	ListPosts(ctx context.Context) ([]store.Post, error)
	FindUserByID(ctx context.Context, id int64) (*store.User, error)
	ListMenus(ctx context.Context) ([]store.Menu, error)
	ListMenuItems(ctx context.Context, menuID int64) ([]store.MenuItem, error)
}

// URLResolver turns an image attachment id into an external URL.
type URLResolver interface {
	URL(ctx context.Context, id int64) (string, error)
}

// Extractor walks a Source and builds a Snapshot.
type Extractor struct {
	src    Source
	images URLResolver
	logger *slog.Logger
}

// Option configures an Extractor.
type Option func(*Extractor)

// WithImageResolver sets the resolver for og_image_url. Without one, image
// URLs are omitted.
func WithImageResolver(r URLResolver) Option {
	return func(e *Extractor) {
		e.images = r
	}
}

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(e *Extractor) {
		if l != nil {
			e.logger = l
		}
	}
}

// New creates an Extractor reading from src.
func New(src Source, opts ...Option) *Extractor {
	e := &Extractor{src: src, logger: slog.Default()}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// walk holds lookups shared across one extraction.
type walk struct {
	paths     map[int64]string
	templates map[int64]*store.Template
	blocks    map[int64][]store.Block
	users     map[int64]*store.User
}

// Extract reads the whole content graph.
func (e *Extractor) Extract(ctx context.Context) (*snapshot.Snapshot, error) {
	w := &walk{
		paths:     map[int64]string{},
		templates: map[int64]*store.Template{},
		blocks:    map[int64][]store.Block{},
		users:     map[int64]*store.User{},
	}
	snap := snapshot.New()

	if err := e.extractPages(ctx, w, snap); err != nil {
		return nil, err
	}
	if err := e.extractPosts(ctx, w, snap); err != nil {
		return nil, err
	}
	if err := e.extractMenus(ctx, w, snap); err != nil {
		return nil, err
	}

	e.logger.Debug("snapshot extracted",
		"pages", len(snap.Pages),
		"posts", len(snap.Posts),
		"menus", len(snap.Menus),
	)
	return snap, nil
}

// Export extracts the content graph and encodes it as pretty-printed JSON.
func (e *Extractor) Export(ctx context.Context) ([]byte, error) {
	snap, err := e.Extract(ctx)
	if err != nil {
		return nil, err
	}
	return snapshot.Marshal(snap)
}

func (e *Extractor) extractPages(ctx context.Context, w *walk, snap *snapshot.Snapshot) error {
	pages, err := e.src.ListPages(ctx)
	if err != nil {
		return fmt.Errorf("extract pages: %w", err)
	}
	for _, p := range pages {
		w.paths[p.ID] = p.Path
	}

	for _, p := range Hierarchical(pages) {
		tmpl, err := e.template(ctx, w, p.TemplateID)
		if err != nil {
			return fmt.Errorf("extract page %q: %w", p.Path, err)
		}

		rec := &snapshot.Page{
			ID:       p.ID,
			Title:    snapshot.NonEmpty(p.Title),
			Template: snapshot.NonEmpty(tmpl.Name),
			Status:   snapshot.NonEmpty(p.Status),
			PageType: snapshot.NonEmpty(p.PageType),
			SEO:      e.seo(ctx, p.SEO, "page", p.Path),
			Contents: map[string]*snapshot.Block{},
		}
		if p.ParentID != nil {
			rec.Parent = snapshot.NonEmpty(w.paths[*p.ParentID])
		}

		if err := e.contents(ctx, w, &p, rec); err != nil {
			return fmt.Errorf("extract page %q: %w", p.Path, err)
		}
		snap.Pages[p.Path] = rec
	}
	return nil
}

// contents fills rec.Contents from the template's blocks. Blocks without
// content on this page are skipped.
func (e *Extractor) contents(ctx context.Context, w *walk, p *store.Page, rec *snapshot.Page) error {
	blocks, ok := w.blocks[p.TemplateID]
	if !ok {
		var err error
		blocks, err = e.src.ListBlocks(ctx, p.TemplateID)
		if err != nil {
			return err
		}
		w.blocks[p.TemplateID] = blocks
	}

	for _, b := range blocks {
		bc, err := e.src.FindBlockContent(ctx, p.ID, b.ID)
		if store.IsNotFound(err) {
			continue
		}
		if err != nil {
			return fmt.Errorf("block %q: %w", b.Key, err)
		}
		rec.Contents[b.Key] = &snapshot.Block{Kind: b.Kind, Content: contentValue(bc.Content)}
	}
	return nil
}

// contentValue returns stored content as a JSON value. Content that is not
// valid JSON is treated as plain text.
func contentValue(stored string) json.RawMessage {
	if stored != "" && json.Valid([]byte(stored)) {
		return json.RawMessage(stored)
	}
	return snapshot.TextContent(stored)
}

func (e *Extractor) extractPosts(ctx context.Context, w *walk, snap *snapshot.Snapshot) error {
	posts, err := e.src.ListPosts(ctx)
	if err != nil {
		return fmt.Errorf("extract posts: %w", err)
	}

	for _, p := range posts {
		rec := &snapshot.Post{
			ID:            p.ID,
			Slug:          p.Slug,
			Title:         snapshot.NonEmpty(p.Title),
			Status:        snapshot.NonEmpty(p.Status),
			Excerpt:       snapshot.NonEmpty(p.Excerpt),
			Content:       snapshot.NonEmpty(p.Content),
			CachedContent: snapshot.NonEmpty(p.CachedContent),
			SEO:           e.seo(ctx, p.SEO, "post", p.Slug),
		}
		if p.PublishedAt != nil {
			rec.PublishedAt = snapshot.Some(p.PublishedAt.UTC().Format(PublishedAtLayout))
		}

		user, err := e.user(ctx, w, p.UserID)
		if err != nil {
			return fmt.Errorf("extract post %q: %w", p.Slug, err)
		}
		rec.UserEmail = snapshot.NonEmpty(user.Email)

		if p.AuthorID != nil {
			author, err := e.user(ctx, w, *p.AuthorID)
			if err != nil {
				return fmt.Errorf("extract post %q: author: %w", p.Slug, err)
			}
			rec.AuthorEmail = snapshot.NonEmpty(author.Email)
		}
		snap.Posts = append(snap.Posts, rec)
	}
	return nil
}

func (e *Extractor) extractMenus(ctx context.Context, w *walk, snap *snapshot.Snapshot) error {
	menus, err := e.src.ListMenus(ctx)
	if err != nil {
		return fmt.Errorf("extract menus: %w", err)
	}

	for _, m := range menus {
		rec := &snapshot.Menu{Name: m.Name, Kind: m.Kind}
		switch m.Kind {
		case store.MenuAuto:
			if m.StartPageID != nil {
				rec.StartPage = snapshot.NonEmpty(w.paths[*m.StartPageID])
			}
		default:
			items, err := e.src.ListMenuItems(ctx, m.ID)
			if err != nil {
				return fmt.Errorf("extract menu %q: %w", m.Name, err)
			}
			rec.Items = make([]*snapshot.MenuItem, 0, len(items))
			for _, it := range items {
				item := &snapshot.MenuItem{Text: it.Text, URL: snapshot.NonEmpty(it.URL)}
				if it.PageID != nil {
					item.Page = snapshot.NonEmpty(w.paths[*it.PageID])
				}
				rec.Items = append(rec.Items, item)
			}
		}
		snap.Menus = append(snap.Menus, rec)
	}
	return nil
}

// seo converts store SEO fields. The image URL is omitted when it cannot be
// resolved; export continues.
func (e *Extractor) seo(ctx context.Context, s store.SEO, kind, key string) snapshot.SEO {
	out := snapshot.SEO{
		SEOTitle:       snapshot.NonEmpty(s.Title),
		SEODescription: snapshot.NonEmpty(s.Description),
		SEOKeywords:    snapshot.NonEmpty(s.Keywords),
		SEOIndexMode:   snapshot.NonEmpty(s.IndexMode),
		CanonicalURL:   snapshot.NonEmpty(s.CanonicalURL),
		OGType:         snapshot.NonEmpty(s.OGType),
		OGTitle:        snapshot.NonEmpty(s.OGTitle),
		OGDescription:  snapshot.NonEmpty(s.OGDescription),
	}
	if s.OGImageID == nil || e.images == nil {
		return out
	}

	url, err := e.images.URL(ctx, *s.OGImageID)
	if err != nil {
		e.logger.Warn("omitting og_image_url",
			kind, key,
			"attachment_id", *s.OGImageID,
			"error", err,
		)
		return out
	}
	out.OGImageURL = snapshot.NonEmpty(url)
	return out
}

func (e *Extractor) template(ctx context.Context, w *walk, id int64) (*store.Template, error) {
	if t, ok := w.templates[id]; ok {
		return t, nil
	}
	t, err := e.src.FindTemplateByID(ctx, id)
	if err != nil {
		return nil, err
	}
	w.templates[id] = t
	return t, nil
}

func (e *Extractor) user(ctx context.Context, w *walk, id int64) (*store.User, error) {
	if u, ok := w.users[id]; ok {
		return u, nil
	}
	u, err := e.src.FindUserByID(ctx, id)
	if err != nil {
		return nil, err
	}
	w.users[id] = u
	return u, nil
}
