// Package reconcile applies a canonical snapshot to the live store.
//
// Reconciliation compares an incoming snapshot against the current one
// (normally produced by the extract package) and performs the creates and
// updates needed to make the store match, item by item. Every item has its
// own failure boundary: a store error on one page, post or menu becomes an
// entry in the Report and the run moves on.
//
// PROTOCOL:
//
// Pages are applied in two phases. Phase one creates or updates every page
// record, parents before children regardless of input order. Phase two
// writes block contents, so content never depends on iteration order to
// find its page. Contents of a page whose record was refused or failed to
// create are skipped.
//
// Posts and menus follow pages, in snapshot order.
//
// UPDATE SEMANTICS:
//
// Fields absent from an incoming record are never touched. A field present
// as null (or "") clears the live value, except post status and
// published_at, which keep the live value unless a non-empty value is
// given. Unchanged records and contents perform no writes.
//
// ERRORS:
//
// Only snapshot parse failures (snapshot.ParseError) and failure to read
// the current state abort an Import. Structural conflicts are reported as
// *ConflictError messages and per-item store failures as *ItemError
// messages.
package reconcile
