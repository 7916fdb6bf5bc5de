package reconcile

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/roach88/folio/internal/snapshot"
	"github.com/roach88/folio/internal/store"
	"github.com/roach88/folio/internal/templates"
)

// ReconcilePages applies next's pages, comparing against current. Paths
// absent from current are created; present ones are updated. current may
// be nil, meaning an empty store.
func (r *Reconciler) ReconcilePages(ctx context.Context, next, current *snapshot.Snapshot) []Entry {
	if current == nil {
		current = snapshot.New()
	}
	paths := next.PagePaths()

	var entries []Entry
	skipped := make(map[string]bool)

	// Phase 1: page records, parents first.
	for _, path := range paths {
		rec := next.Pages[path]
		if rec == nil {
			continue
		}
		var out []Entry
		var ok bool
		if _, exists := current.Pages[path]; exists {
			out, ok = r.updatePage(ctx, path, rec)
		} else {
			out, ok = r.createPage(ctx, path, rec)
		}
		entries = append(entries, out...)
		if !ok {
			skipped[path] = true
		}
	}

	// Phase 2: contents of every page that was not refused.
	for _, path := range paths {
		rec := next.Pages[path]
		if rec == nil || skipped[path] {
			continue
		}
		for _, key := range rec.SortedKeys() {
			if e, changed := r.reconcileContent(ctx, path, key, rec.Contents[key], current); changed {
				entries = append(entries, e)
			}
		}
	}
	return entries
}

// createPage creates a page record. It reports false when nothing was
// created, so the page's contents are skipped.
func (r *Reconciler) createPage(ctx context.Context, path string, rec *snapshot.Page) ([]Entry, bool) {
	fail := func(err error) ([]Entry, bool) {
		ie := &ItemError{Op: "create", Entity: "page", Key: path, Err: err}
		r.logger.Warn("page not created", "path", path, "error", err)
		return []Entry{failed(ie)}, false
	}

	if !rec.Template.Provided() {
		return fail(errors.New("template can't be blank"))
	}
	tmpl, err := r.repo.FindTemplateByName(ctx, rec.Template.Value())
	if store.IsNotFound(err) {
		return fail(fmt.Errorf("template '%s' not found", rec.Template.Value()))
	}
	if err != nil {
		return fail(err)
	}

	parent, err := r.findPage(ctx, rec.Parent)
	if err != nil {
		return fail(err)
	}

	p := &store.Page{
		Path:       path,
		Title:      rec.Title.Value(),
		TemplateID: tmpl.ID,
		Status:     rec.Status.Value(),
		PageType:   rec.PageType.Value(),
	}
	if parent != nil {
		p.ParentID = &parent.ID
	}
	// Validate before applySEO links an og image.
	if err := store.ValidatePage(p); err != nil {
		return fail(err)
	}
	warnings := r.applySEO(ctx, &p.SEO, rec.SEO, "page", path)

	if err := r.repo.CreatePage(ctx, p); err != nil {
		return fail(err)
	}
	r.logger.Info("page created", "path", path, "id", p.ID)
	return append([]Entry{succeeded("Created page '%s'", path)}, warnings...), true
}

// updatePage applies update-if-present to an existing page. It reports
// false only for a template conflict; a failed update leaves a page whose
// template still matches its contents.
func (r *Reconciler) updatePage(ctx context.Context, path string, rec *snapshot.Page) ([]Entry, bool) {
	fail := func(err error) ([]Entry, bool) {
		ie := &ItemError{Op: "update", Entity: "page", Key: path, Err: err}
		r.logger.Warn("page not updated", "path", path, "error", err)
		return []Entry{failed(ie)}, true
	}

	live, err := r.repo.FindPageByPath(ctx, path)
	if err != nil {
		return fail(err)
	}

	if rec.Template.Provided() {
		tmpl, err := r.repo.FindTemplateByID(ctx, live.TemplateID)
		if err != nil {
			return fail(err)
		}
		if tmpl.Name != rec.Template.Value() {
			conflict := &ConflictError{
				Code:     ErrCodeTemplateMismatch,
				Entity:   "page",
				Key:      path,
				Existing: tmpl.Name,
				Refused:  rec.Template.Value(),
			}
			r.logger.Warn("page refused", "path", path, "code", conflict.Code)
			return []Entry{failed(conflict)}, false
		}
	}

	before := *live
	setIfPresent(&live.Title, rec.Title)
	setIfPresent(&live.Status, rec.Status)
	setIfPresent(&live.PageType, rec.PageType)
	if rec.Parent.Present() {
		if !rec.Parent.Provided() {
			live.ParentID = nil
		} else {
			parent, err := r.findPage(ctx, rec.Parent)
			if err != nil {
				return fail(err)
			}
			if parent != nil {
				live.ParentID = &parent.ID
			}
		}
	}
	warnings := r.applySEO(ctx, &live.SEO, rec.SEO, "page", path)

	if pageEqual(before, *live) {
		return append([]Entry{succeeded("Page '%s' already up to date", path)}, warnings...), true
	}
	if err := r.repo.UpdatePage(ctx, live); err != nil {
		return fail(err)
	}
	r.logger.Info("page updated", "path", path, "id", live.ID)
	return append([]Entry{succeeded("Updated page '%s'", path)}, warnings...), true
}

func pageEqual(a, b store.Page) bool {
	return a.Title == b.Title &&
		a.Status == b.Status &&
		a.PageType == b.PageType &&
		idEqual(a.ParentID, b.ParentID) &&
		seoEqual(a.SEO, b.SEO)
}

// reconcileContent writes one block's content. It reports false when the
// content already matches and nothing was written.
func (r *Reconciler) reconcileContent(ctx context.Context, path, key string, block *snapshot.Block, current *snapshot.Snapshot) (Entry, bool) {
	fail := func(err error) (Entry, bool) {
		ie := &ItemError{Op: "save", Entity: "content", Key: key, Page: path, Err: err}
		r.logger.Warn("content not saved", "path", path, "key", key, "error", err)
		return failed(ie), true
	}
	if block == nil {
		return Entry{}, false
	}

	if cur, ok := current.Content(path, key); ok && snapshot.ContentEqual(block.Content, cur.Content) {
		return Entry{}, false
	}
	normalized, err := snapshot.NormalizeContent(block.Content)
	if err != nil {
		return fail(err)
	}

	page, err := r.repo.FindPageByPath(ctx, path)
	if store.IsNotFound(err) {
		return fail(errPageMissing)
	}
	if err != nil {
		return fail(err)
	}
	b, err := r.repo.FindOrCreateBlock(ctx, page.TemplateID, key, templates.BlockName(key), block.Kind)
	if err != nil {
		return fail(err)
	}
	bc, created, err := r.repo.FindOrCreateBlockContent(ctx, page.ID, b.ID, string(normalized))
	if err != nil {
		return fail(err)
	}
	if created {
		r.logger.Debug("content created", "path", path, "key", key)
		return succeeded("Created content '%s' on page '%s'", key, path), true
	}
	if snapshot.ContentEqual(json.RawMessage(bc.Content), normalized) {
		return Entry{}, false
	}

	bc.Content = string(normalized)
	if err := r.repo.UpdateBlockContent(ctx, bc); err != nil {
		return fail(err)
	}
	r.logger.Debug("content updated", "path", path, "key", key)
	return succeeded("Updated content '%s' on page '%s'", key, path), true
}
