package reconcile

import (
	"context"

	"github.com/roach88/folio/internal/snapshot"
	"github.com/roach88/folio/internal/store"
)

// ReconcileMenus creates or updates every menu in next, keyed by name.
// Kind changes are reported as warnings and skipped.
func (r *Reconciler) ReconcileMenus(ctx context.Context, next *snapshot.Snapshot) []Entry {
	var entries []Entry
	for _, rec := range next.Menus {
		if rec == nil {
			continue
		}
		entries = append(entries, r.reconcileMenu(ctx, rec)...)
	}
	return entries
}

func (r *Reconciler) reconcileMenu(ctx context.Context, rec *snapshot.Menu) []Entry {
	live, err := r.repo.FindMenuByName(ctx, rec.Name)
	switch {
	case store.IsNotFound(err):
		return r.createMenu(ctx, rec)
	case err != nil:
		return []Entry{failed(&ItemError{Op: "update", Entity: "menu", Key: rec.Name, Err: err})}
	}

	if live.Kind != rec.Kind {
		conflict := &ConflictError{
			Code:     ErrCodeKindMismatch,
			Entity:   "menu",
			Key:      rec.Name,
			Existing: live.Kind,
			Refused:  rec.Kind,
		}
		r.logger.Warn("menu skipped", "name", rec.Name, "code", conflict.Code)
		return []Entry{warned(conflict)}
	}

	if live.Kind == store.MenuAuto {
		return r.updateAutoMenu(ctx, live, rec)
	}
	return r.updateStaticMenu(ctx, live, rec)
}

func (r *Reconciler) createMenu(ctx context.Context, rec *snapshot.Menu) []Entry {
	fail := func(err error) []Entry {
		r.logger.Warn("menu not created", "name", rec.Name, "error", err)
		return []Entry{failed(&ItemError{Op: "create", Entity: "menu", Key: rec.Name, Err: err})}
	}

	m := &store.Menu{Name: rec.Name, Kind: rec.Kind}
	var items []store.MenuItem
	if rec.Kind == store.MenuAuto {
		start, err := r.findPage(ctx, rec.StartPage)
		if err != nil {
			return fail(err)
		}
		if start != nil {
			m.StartPageID = &start.ID
		}
	} else {
		var err error
		if items, err = r.menuItems(ctx, rec.Items); err != nil {
			return fail(err)
		}
	}

	if err := r.repo.CreateMenuWithItems(ctx, m, items); err != nil {
		return fail(err)
	}
	if m.Kind == store.MenuAuto {
		if err := r.generateItems(ctx, m); err != nil {
			if derr := r.repo.DeleteMenu(ctx, m.ID); derr != nil {
				r.logger.Error("menu left without items", "name", rec.Name, "error", derr)
			}
			return fail(err)
		}
	}

	r.logger.Info("menu created", "name", rec.Name, "kind", rec.Kind)
	return []Entry{succeeded("Created menu '%s'", rec.Name)}
}

// updateAutoMenu moves the start page when it changed. A start page path
// that does not resolve leaves the live start page as it was.
func (r *Reconciler) updateAutoMenu(ctx context.Context, live *store.Menu, rec *snapshot.Menu) []Entry {
	fail := func(err error) []Entry {
		r.logger.Warn("menu not updated", "name", rec.Name, "error", err)
		return []Entry{failed(&ItemError{Op: "update", Entity: "menu", Key: rec.Name, Err: err})}
	}

	start := live.StartPageID
	if rec.StartPage.Present() {
		start = nil
		if rec.StartPage.Provided() {
			page, err := r.findPage(ctx, rec.StartPage)
			if err != nil {
				return fail(err)
			}
			start = live.StartPageID
			if page != nil {
				start = &page.ID
			}
		}
	}
	if idEqual(start, live.StartPageID) {
		return []Entry{succeeded("Menu '%s' already up to date", rec.Name)}
	}

	live.StartPageID = start
	if err := r.repo.UpdateMenu(ctx, live); err != nil {
		return fail(err)
	}
	if err := r.generateItems(ctx, live); err != nil {
		return fail(err)
	}
	r.logger.Info("menu updated", "name", rec.Name)
	return []Entry{succeeded("Updated menu '%s'", rec.Name)}
}

// updateStaticMenu replaces all live items with the incoming list unless
// they already match.
func (r *Reconciler) updateStaticMenu(ctx context.Context, live *store.Menu, rec *snapshot.Menu) []Entry {
	fail := func(err error) []Entry {
		r.logger.Warn("menu not updated", "name", rec.Name, "error", err)
		return []Entry{failed(&ItemError{Op: "update", Entity: "menu", Key: rec.Name, Err: err})}
	}

	items, err := r.menuItems(ctx, rec.Items)
	if err != nil {
		return fail(err)
	}
	current, err := r.repo.ListMenuItems(ctx, live.ID)
	if err != nil {
		return fail(err)
	}
	if itemsEqual(current, items) {
		return []Entry{succeeded("Menu '%s' already up to date", rec.Name)}
	}

	if err := r.repo.ReplaceMenuItems(ctx, live.ID, items); err != nil {
		return fail(err)
	}
	r.logger.Info("menu items replaced", "name", rec.Name, "items", len(items))
	return []Entry{succeeded("Updated menu '%s'", rec.Name)}
}

func (r *Reconciler) generateItems(ctx context.Context, m *store.Menu) error {
	if r.autoItems == nil {
		return nil
	}
	return r.autoItems.GenerateAutoMenuItems(ctx, m)
}

// menuItems converts incoming items, resolving page paths. An unresolved
// page leaves the item without a page link.
func (r *Reconciler) menuItems(ctx context.Context, recs []*snapshot.MenuItem) ([]store.MenuItem, error) {
	items := make([]store.MenuItem, 0, len(recs))
	for _, rec := range recs {
		if rec == nil {
			continue
		}
		it := store.MenuItem{Text: rec.Text, URL: rec.URL.Value()}
		page, err := r.findPage(ctx, rec.Page)
		if err != nil {
			return nil, err
		}
		if page != nil {
			it.PageID = &page.ID
		}
		items = append(items, it)
	}
	return items, nil
}

func itemsEqual(a, b []store.MenuItem) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i].Text != b[i].Text || a[i].URL != b[i].URL || !idEqual(a[i].PageID, b[i].PageID) {
			return false
		}
	}
	return true
}
