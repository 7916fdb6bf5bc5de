// Package store provides SQLite-backed storage for site content: users,
// templates and their blocks, pages with per-block content, posts, menus,
// attachments and forms.
//
// # Identity
//
// Records are addressed by natural keys as well as ids:
//   - pages by path
//   - posts by slug
//   - menus by name
//   - blocks by (template, key)
//   - block contents by (page, block)
//
// Each natural key carries a UNIQUE constraint, so FindOrCreate helpers can
// use INSERT ... ON CONFLICT DO NOTHING followed by a lookup.
//
// # Ordering
//
// Listing queries always name an ORDER BY. Creation order uses
// (created_at, id) so ties on the clock fall back to insertion order.
//
// # Errors
//
// Lookups return ErrNotFound (wrapped with context) when no row matches.
// Create and Update calls validate records first and return a
// *ValidationError whose message reads like "Title can't be blank".
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
//
// Block content is stored as canonical JSON text produced by the snapshot
// package, so equal values compare equal as strings.
package store
