package harness

import (
	"context"
	"encoding/json"
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/roach88/folio/internal/snapshot"
)

// evaluate checks one assertion against the live store. Mismatches are
// recorded on result.
func (h *Harness) evaluate(ctx context.Context, a Assertion, result *Result) error {
	if a.Type == AssertRoundTrip {
		return h.assertRoundTrip(ctx, result)
	}

	snap, err := h.exporter.Extract(ctx)
	if err != nil {
		return fmt.Errorf("assertion %s: %w", a.Type, err)
	}

	switch a.Type {
	case AssertPage:
		page, ok := snap.Pages[a.Path]
		if !ok {
			result.AddError("page %s: not found", a.Path)
			return nil
		}
		return compareFields(result, "page "+a.Path, page, a.Expect)

	case AssertPageAbsent:
		if _, ok := snap.Pages[a.Path]; ok {
			result.AddError("page %s: exists, expected absent", a.Path)
		}
		return nil

	case AssertContent:
		block, ok := snap.Content(a.Path, a.Key)
		if !ok {
			result.AddError("content %s %s: not found", a.Path, a.Key)
			return nil
		}
		if !json.Valid([]byte(a.Content)) {
			return fmt.Errorf("content %s %s: expected content is not JSON", a.Path, a.Key)
		}
		if !snapshot.ContentEqual(block.Content, json.RawMessage(a.Content)) {
			result.AddError("content %s %s = %s, expected %s", a.Path, a.Key, block.Content, a.Content)
		}
		return nil

	case AssertPost:
		post, ok := snap.Post(a.Slug)
		if !ok {
			result.AddError("post %s: not found", a.Slug)
			return nil
		}
		return compareFields(result, "post "+a.Slug, post, a.Expect)

	case AssertMenu:
		menu, ok := snap.Menu(a.Name)
		if !ok {
			result.AddError("menu %s: not found", a.Name)
			return nil
		}
		if err := compareFields(result, "menu "+a.Name, menu, a.Expect); err != nil {
			return err
		}
		if a.Items != nil {
			return h.assertMenuItems(ctx, a, result)
		}
		return nil
	}
	return fmt.Errorf("unknown assertion type %q", a.Type)
}

// assertMenuItems compares live item texts, so generated auto menu items
// are checked too.
func (h *Harness) assertMenuItems(ctx context.Context, a Assertion, result *Result) error {
	m, err := h.store.FindMenuByName(ctx, a.Name)
	if err != nil {
		return fmt.Errorf("menu %s: %w", a.Name, err)
	}
	items, err := h.store.ListMenuItems(ctx, m.ID)
	if err != nil {
		return fmt.Errorf("menu %s: %w", a.Name, err)
	}
	texts := make([]string, 0, len(items))
	for _, it := range items {
		texts = append(texts, it.Text)
	}
	if !slices.Equal(texts, a.Items) {
		result.AddError("menu %s: items = %q, expected %q", a.Name, texts, a.Items)
	}
	return nil
}

// assertRoundTrip re-imports the current export and expects no changes.
func (h *Harness) assertRoundTrip(ctx context.Context, result *Result) error {
	before, err := h.exporter.Export(ctx)
	if err != nil {
		return fmt.Errorf("round_trip: %w", err)
	}
	report, err := h.importer.Import(ctx, before)
	if err != nil {
		result.AddError("round_trip: export did not re-import: %v", err)
		return nil
	}

	for _, msg := range report.Error {
		result.AddError("round_trip: %s", msg)
	}
	for _, msg := range report.Warning {
		result.AddError("round_trip: %s", msg)
	}
	for _, msg := range report.Success {
		if !strings.HasSuffix(msg, "already up to date") {
			result.AddError("round_trip: unexpected change: %s", msg)
		}
	}

	after, err := h.exporter.Export(ctx)
	if err != nil {
		return fmt.Errorf("round_trip: %w", err)
	}
	if string(before) != string(after) {
		result.AddError("round_trip: export changed after re-import")
	}
	return nil
}

// compareFields matches expected values against the JSON fields of a
// snapshot record. A field the record omits compares as "".
func compareFields(result *Result, what string, record any, expect map[string]string) error {
	if len(expect) == 0 {
		return nil
	}
	fields, err := fieldsOf(record)
	if err != nil {
		return fmt.Errorf("%s: %w", what, err)
	}
	for _, key := range slices.Sorted(maps.Keys(expect)) {
		want := expect[key]
		got := fields[key]
		if got != want {
			result.AddError("%s: %s = %q, expected %q", what, key, got, want)
		}
	}
	return nil
}

// fieldsOf flattens the scalar JSON fields of v to strings.
func fieldsOf(v any) (map[string]string, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, err
	}
	out := make(map[string]string, len(raw))
	for k, val := range raw {
		switch val := val.(type) {
		case string:
			out[k] = val
		case nil:
		case map[string]any, []any:
		default:
			out[k] = fmt.Sprint(val)
		}
	}
	return out, nil
}
