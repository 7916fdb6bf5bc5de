package reconcile

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/roach88/folio/internal/snapshot"
	"github.com/roach88/folio/internal/store"
)

// Repository is the store surface the Reconciler mutates. Every call is
// expected to be transactional on its own.
type Repository interface {
	FindPageByPath(ctx context.Context, path string) (*store.Page, error)
	CreatePage(ctx context.Context, p *store.Page) error
	UpdatePage(ctx context.Context, p *store.Page) error

	FindTemplateByName(ctx context.Context, name string) (*store.Template, error)
	FindTemplateByID(ctx context.Context, id int64) (*store.Template, error)
	FindOrCreateBlock(ctx context.Context, templateID int64, key, name, kind string) (*store.Block, error)
	FindOrCreateBlockContent(ctx context.Context, pageID, blockID int64, content string) (*store.BlockContent, bool, error)
	UpdateBlockContent(ctx context.Context, bc *store.BlockContent) error

	FindPostBySlug(ctx context.Context, slug string) (*store.Post, error)
	CreatePost(ctx context.Context, p *store.Post) error
	UpdatePost(ctx context.Context, p *store.Post) error
	FindUserByEmail(ctx context.Context, email string) (*store.User, error)
	FirstUser(ctx context.Context) (*store.User, error)

	FindMenuByName(ctx context.Context, name string) (*store.Menu, error)
	CreateMenuWithItems(ctx context.Context, m *store.Menu, items []store.MenuItem) error
	DeleteMenu(ctx context.Context, id int64) error
	UpdateMenu(ctx context.Context, m *store.Menu) error
	ListMenuItems(ctx context.Context, menuID int64) ([]store.MenuItem, error)
	ReplaceMenuItems(ctx context.Context, menuID int64, items []store.MenuItem) error
}

// AutoItemGenerator rebuilds the items of an auto menu.
type AutoItemGenerator interface {
	GenerateAutoMenuItems(ctx context.Context, m *store.Menu) error
}

// ImageLinker maps an external image URL to an attachment id.
type ImageLinker interface {
	Link(ctx context.Context, url string) (int64, error)
}

// FallbackPolicy decides who owns a new post whose user_email does not
// resolve.
type FallbackPolicy string

const (
	// FallbackFirst assigns the earliest-created user.
	FallbackFirst FallbackPolicy = "first"

	// FallbackNone reports the post as an error.
	FallbackNone FallbackPolicy = "none"
)

// ParseFallbackPolicy validates a policy name. An empty name is FallbackFirst.
func ParseFallbackPolicy(s string) (FallbackPolicy, error) {
	switch FallbackPolicy(s) {
	case "", FallbackFirst:
		return FallbackFirst, nil
	case FallbackNone:
		return FallbackNone, nil
	}
	return "", fmt.Errorf("unknown fallback user policy %q (want %q or %q)", s, FallbackFirst, FallbackNone)
}

// Reconciler applies snapshots to a Repository.
//
// A Reconciler holds no per-run state; each item is fetched, compared and
// written independently. It is not safe to run two reconciliations against
// the same store at once.
type Reconciler struct {
	repo      Repository
	autoItems AutoItemGenerator
	images    ImageLinker
	fallback  FallbackPolicy
	logger    *slog.Logger
}

// Option configures a Reconciler.
type Option func(*Reconciler)

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(r *Reconciler) {
		if l != nil {
			r.logger = l
		}
	}
}

// WithAutoItems sets the generator called after an auto menu is created or
// its start page changes. Defaults to the Repository when it implements
// AutoItemGenerator.
func WithAutoItems(g AutoItemGenerator) Option {
	return func(r *Reconciler) {
		r.autoItems = g
	}
}

// WithImageLinker sets how og_image_url values become attachments. Without
// one, incoming image URLs are ignored.
func WithImageLinker(l ImageLinker) Option {
	return func(r *Reconciler) {
		r.images = l
	}
}

// WithFallback sets the fallback user policy. Defaults to FallbackFirst.
func WithFallback(p FallbackPolicy) Option {
	return func(r *Reconciler) {
		r.fallback = p
	}
}

// New creates a Reconciler writing to repo.
func New(repo Repository, opts ...Option) *Reconciler {
	r := &Reconciler{
		repo:     repo,
		fallback: FallbackFirst,
		logger:   slog.Default(),
	}
	if g, ok := repo.(AutoItemGenerator); ok {
		r.autoItems = g
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Reconcile applies pages, posts and menus in that order.
func (r *Reconciler) Reconcile(ctx context.Context, next, current *snapshot.Snapshot) *Report {
	report := NewReport()
	report.Add(r.ReconcilePages(ctx, next, current)...)
	report.Add(r.ReconcilePosts(ctx, next)...)
	report.Add(r.ReconcileMenus(ctx, next)...)
	return report
}

// withLogger returns a copy of r logging through l.
func (r *Reconciler) withLogger(l *slog.Logger) *Reconciler {
	c := *r
	c.logger = l
	return &c
}

// findPage resolves an optional page path. It returns nil when the path is
// not provided or does not resolve.
func (r *Reconciler) findPage(ctx context.Context, path snapshot.Opt) (*store.Page, error) {
	if !path.Provided() {
		return nil, nil
	}
	p, err := r.repo.FindPageByPath(ctx, path.Value())
	if store.IsNotFound(err) {
		r.logger.Debug("page reference not resolved", "path", path.Value())
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return p, nil
}

// setIfPresent applies update-if-present to a plain string field.
func setIfPresent(dst *string, o snapshot.Opt) {
	if o.Present() {
		*dst = o.Value()
	}
}

// applySEO merges the incoming SEO fields into dst. An image URL that
// cannot be linked leaves the live image as it was and is returned as a
// warning.
func (r *Reconciler) applySEO(ctx context.Context, dst *store.SEO, src snapshot.SEO, entity, key string) []Entry {
	setIfPresent(&dst.Title, src.SEOTitle)
	setIfPresent(&dst.Description, src.SEODescription)
	setIfPresent(&dst.Keywords, src.SEOKeywords)
	setIfPresent(&dst.IndexMode, src.SEOIndexMode)
	setIfPresent(&dst.CanonicalURL, src.CanonicalURL)
	setIfPresent(&dst.OGType, src.OGType)
	setIfPresent(&dst.OGTitle, src.OGTitle)
	setIfPresent(&dst.OGDescription, src.OGDescription)

	switch {
	case !src.OGImageURL.Present():
	case !src.OGImageURL.Provided():
		dst.OGImageID = nil
	case r.images == nil:
		r.logger.Debug("no image linker, ignoring og_image_url", entity, key)
	default:
		id, err := r.images.Link(ctx, src.OGImageURL.Value())
		if err != nil {
			r.logger.Warn("og_image_url not linked", entity, key, "error", err)
			return []Entry{warnf("Could not link og_image_url for %s '%s': %v", entity, key, err)}
		}
		dst.OGImageID = &id
	}
	return nil
}

func seoEqual(a, b store.SEO) bool {
	return a.Title == b.Title &&
		a.Description == b.Description &&
		a.Keywords == b.Keywords &&
		a.IndexMode == b.IndexMode &&
		a.CanonicalURL == b.CanonicalURL &&
		a.OGType == b.OGType &&
		a.OGTitle == b.OGTitle &&
		a.OGDescription == b.OGDescription &&
		idEqual(a.OGImageID, b.OGImageID)
}

func idEqual(a, b *int64) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}
