// Package snapshot defines the Canonical Snapshot: the portable
// representation of a site's content graph (pages with their block contents,
// posts and menus).
//
// This package contains the value types, their JSON encoding and the content
// normalization used to compare block contents. It imports nothing internal;
// the store, extractor and reconciler all build on it.
//
// # Identity Keys
//
//   - Pages are keyed by path (the map key of Snapshot.Pages)
//   - Posts are keyed by slug
//   - Menus are keyed by name
//
// Record IDs are informational only and never used for matching.
//
// # Optional Fields
//
// Every optional scalar is an Opt, which distinguishes three states:
//
//   - absent: the key was not in the document; never clears a live value
//   - null: the key was present with a JSON null
//   - value: the key was present with a string (possibly "")
//
// Encoding omits absent fields (omitzero), so a snapshot written by the
// extractor contains only non-empty values and replays losslessly.
//
// # Parsing
//
// Parse validates the document eagerly (JSON syntax, then the CUE shape in
// schema.cue) and returns a *ParseError before any caller can mutate a store.
package snapshot
