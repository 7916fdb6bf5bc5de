package extract

import (
	"slices"
	"strings"

	"github.com/roach88/folio/internal/store"
)

// Hierarchical orders pages parents first with siblings sorted by path.
// Pages whose parent is missing from the list are treated as roots. Pages
// caught in a parent cycle are appended in path order at the end.
func Hierarchical(pages []store.Page) []store.Page {
	byID := make(map[int64]bool, len(pages))
	for _, p := range pages {
		byID[p.ID] = true
	}

	children := map[int64][]store.Page{}
	var roots []store.Page
	for _, p := range pages {
		if p.ParentID == nil || !byID[*p.ParentID] {
			roots = append(roots, p)
			continue
		}
		children[*p.ParentID] = append(children[*p.ParentID], p)
	}

	byPath := func(a, b store.Page) int { return strings.Compare(a.Path, b.Path) }
	slices.SortFunc(roots, byPath)
	for id := range children {
		slices.SortFunc(children[id], byPath)
	}

	ordered := make([]store.Page, 0, len(pages))
	seen := make(map[int64]bool, len(pages))
	var visit func(p store.Page)
	visit = func(p store.Page) {
		if seen[p.ID] {
			return
		}
		seen[p.ID] = true
		ordered = append(ordered, p)
		for _, c := range children[p.ID] {
			visit(c)
		}
	}
	for _, r := range roots {
		visit(r)
	}

	if len(ordered) < len(pages) {
		rest := make([]store.Page, 0, len(pages)-len(ordered))
		for _, p := range pages {
			if !seen[p.ID] {
				rest = append(rest, p)
			}
		}
		slices.SortFunc(rest, byPath)
		ordered = append(ordered, rest...)
	}
	return ordered
}
