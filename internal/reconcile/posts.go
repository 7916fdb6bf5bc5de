package reconcile

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/roach88/folio/internal/snapshot"
	"github.com/roach88/folio/internal/store"
)

// publishedAtLayouts are the accepted published_at formats, most precise
// first.
var publishedAtLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	time.DateOnly,
}

// ReconcilePosts creates or updates every post in next, keyed by slug.
func (r *Reconciler) ReconcilePosts(ctx context.Context, next *snapshot.Snapshot) []Entry {
	var entries []Entry
	for _, rec := range next.Posts {
		if rec == nil {
			continue
		}
		entries = append(entries, r.reconcilePost(ctx, rec)...)
	}
	return entries
}

func (r *Reconciler) reconcilePost(ctx context.Context, rec *snapshot.Post) []Entry {
	live, err := r.repo.FindPostBySlug(ctx, rec.Slug)
	switch {
	case err == nil:
		return r.updatePost(ctx, live, rec)
	case store.IsNotFound(err):
		return r.createPost(ctx, rec)
	default:
		return []Entry{failed(&ItemError{Op: "update", Entity: "post", Key: rec.Slug, Err: err})}
	}
}

func (r *Reconciler) createPost(ctx context.Context, rec *snapshot.Post) []Entry {
	fail := func(err error) []Entry {
		r.logger.Warn("post not created", "slug", rec.Slug, "error", err)
		return []Entry{failed(&ItemError{Op: "create", Entity: "post", Key: rec.Slug, Err: err})}
	}

	p := &store.Post{
		Slug:          rec.Slug,
		Title:         rec.Title.Value(),
		Status:        store.StatusDraft,
		Excerpt:       rec.Excerpt.Value(),
		Content:       rec.Content.Value(),
		CachedContent: rec.CachedContent.Value(),
	}
	if rec.Status.Provided() {
		p.Status = rec.Status.Value()
	}
	if rec.PublishedAt.Provided() {
		t, err := parsePublishedAt(rec.PublishedAt.Value())
		if err != nil {
			return fail(err)
		}
		p.PublishedAt = &t
	}

	user, warnings, err := r.resolveOwner(ctx, rec)
	if err != nil {
		return fail(err)
	}
	p.UserID = user.ID

	author, err := r.resolveAuthor(ctx, rec.AuthorEmail)
	if err != nil {
		return fail(err)
	}
	if author != nil {
		p.AuthorID = &author.ID
	}
	if err := store.ValidatePost(p); err != nil {
		return fail(err)
	}
	warnings = append(warnings, r.applySEO(ctx, &p.SEO, rec.SEO, "post", rec.Slug)...)

	if err := r.repo.CreatePost(ctx, p); err != nil {
		return fail(err)
	}
	r.logger.Info("post created", "slug", rec.Slug, "id", p.ID)
	return append([]Entry{succeeded("Created post '%s'", rec.Slug)}, warnings...)
}

func (r *Reconciler) updatePost(ctx context.Context, live *store.Post, rec *snapshot.Post) []Entry {
	fail := func(err error) []Entry {
		r.logger.Warn("post not updated", "slug", rec.Slug, "error", err)
		return []Entry{failed(&ItemError{Op: "update", Entity: "post", Key: rec.Slug, Err: err})}
	}

	before := *live
	var warnings []Entry

	setIfPresent(&live.Title, rec.Title)
	setIfPresent(&live.Excerpt, rec.Excerpt)
	setIfPresent(&live.Content, rec.Content)
	setIfPresent(&live.CachedContent, rec.CachedContent)
	if rec.Status.Provided() {
		live.Status = rec.Status.Value()
	}
	if rec.PublishedAt.Provided() {
		t, err := parsePublishedAt(rec.PublishedAt.Value())
		if err != nil {
			return fail(err)
		}
		live.PublishedAt = &t
	}

	if rec.UserEmail.Provided() {
		u, err := r.repo.FindUserByEmail(ctx, rec.UserEmail.Value())
		switch {
		case err == nil:
			live.UserID = u.ID
		case store.IsNotFound(err):
			warnings = append(warnings, warnf("Post '%s': user '%s' not found, keeping current user", rec.Slug, rec.UserEmail.Value()))
		default:
			return fail(err)
		}
	}
	if rec.AuthorEmail.Present() {
		author, err := r.resolveAuthor(ctx, rec.AuthorEmail)
		if err != nil {
			return fail(err)
		}
		live.AuthorID = nil
		if author != nil {
			live.AuthorID = &author.ID
		}
	}
	warnings = append(warnings, r.applySEO(ctx, &live.SEO, rec.SEO, "post", rec.Slug)...)

	if postEqual(before, *live) {
		return append([]Entry{succeeded("Post '%s' already up to date", rec.Slug)}, warnings...)
	}
	if err := r.repo.UpdatePost(ctx, live); err != nil {
		return fail(err)
	}
	r.logger.Info("post updated", "slug", rec.Slug, "id", live.ID)
	return append([]Entry{succeeded("Updated post '%s'", rec.Slug)}, warnings...)
}

// resolveOwner finds the user for a new post, applying the fallback policy
// when user_email is missing or unknown.
func (r *Reconciler) resolveOwner(ctx context.Context, rec *snapshot.Post) (*store.User, []Entry, error) {
	email := rec.UserEmail.Value()
	if rec.UserEmail.Provided() {
		u, err := r.repo.FindUserByEmail(ctx, email)
		if err == nil {
			return u, nil, nil
		}
		if !store.IsNotFound(err) {
			return nil, nil, err
		}
	}

	if r.fallback == FallbackNone {
		if email == "" {
			return nil, nil, errors.New("user can't be blank")
		}
		return nil, nil, fmt.Errorf("user '%s' not found", email)
	}

	u, err := r.repo.FirstUser(ctx)
	if store.IsNotFound(err) {
		return nil, nil, errors.New("no user exists to own the post")
	}
	if err != nil {
		return nil, nil, err
	}
	r.logger.Info("post assigned to fallback user", "slug", rec.Slug, "requested", email, "user", u.Email)
	if email == "" {
		return u, nil, nil
	}
	return u, []Entry{warnf("Post '%s': user '%s' not found, assigned to '%s'", rec.Slug, email, u.Email)}, nil
}

// resolveAuthor returns the author for an author_email, or nil when it is
// not provided or unknown.
func (r *Reconciler) resolveAuthor(ctx context.Context, email snapshot.Opt) (*store.User, error) {
	if !email.Provided() {
		return nil, nil
	}
	u, err := r.repo.FindUserByEmail(ctx, email.Value())
	if store.IsNotFound(err) {
		r.logger.Debug("author not resolved", "email", email.Value())
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return u, nil
}

func parsePublishedAt(s string) (time.Time, error) {
	for _, layout := range publishedAtLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("published_at '%s' is not a valid time", s)
}

func postEqual(a, b store.Post) bool {
	return a.Title == b.Title &&
		a.Status == b.Status &&
		timeEqual(a.PublishedAt, b.PublishedAt) &&
		a.UserID == b.UserID &&
		idEqual(a.AuthorID, b.AuthorID) &&
		a.Excerpt == b.Excerpt &&
		a.Content == b.Content &&
		a.CachedContent == b.CachedContent &&
		seoEqual(a.SEO, b.SEO)
}

func timeEqual(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.Equal(*b)
}
