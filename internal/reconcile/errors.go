package reconcile

import (
	"errors"
	"fmt"
)

// ConflictCode categorizes structural conflicts.
type ConflictCode string

const (
	// ErrCodeTemplateMismatch indicates an existing page would change template.
	ErrCodeTemplateMismatch ConflictCode = "TEMPLATE_MISMATCH"

	// ErrCodeKindMismatch indicates an existing menu would change kind.
	ErrCodeKindMismatch ConflictCode = "KIND_MISMATCH"
)

// ConflictError is an incoming change that cannot be applied safely.
// The item is skipped and the live record is left as it was.
type ConflictError struct {
	// Code identifies the conflict category.
	Code ConflictCode

	// Entity is "page" or "menu".
	Entity string

	// Key is the identity key of the item (path or name).
	Key string

	// Existing is the live value.
	Existing string

	// Refused is the incoming value that was not applied.
	Refused string
}

// Error implements the error interface.
func (e *ConflictError) Error() string {
	switch e.Code {
	case ErrCodeTemplateMismatch:
		return fmt.Sprintf("Refused to update %s '%s': template is '%s', snapshot has '%s'",
			e.Entity, e.Key, e.Existing, e.Refused)
	case ErrCodeKindMismatch:
		return fmt.Sprintf("Skipped %s '%s': kind is '%s', snapshot has '%s'",
			e.Entity, e.Key, e.Existing, e.Refused)
	}
	return fmt.Sprintf("%s: %s '%s' (existing '%s', refused '%s')", e.Code, e.Entity, e.Key, e.Existing, e.Refused)
}

// IsConflict returns true if err is a structural conflict.
// Uses errors.As to handle wrapped errors.
func IsConflict(err error) bool {
	var ce *ConflictError
	return errors.As(err, &ce)
}

// IsTemplateMismatch returns true if err is a template conflict.
func IsTemplateMismatch(err error) bool {
	var ce *ConflictError
	if errors.As(err, &ce) {
		return ce.Code == ErrCodeTemplateMismatch
	}
	return false
}

// IsKindMismatch returns true if err is a menu kind conflict.
func IsKindMismatch(err error) bool {
	var ce *ConflictError
	if errors.As(err, &ce) {
		return ce.Code == ErrCodeKindMismatch
	}
	return false
}

// ItemError is a failure applying one item. Its message names the item and
// the underlying reason.
type ItemError struct {
	// Op is the attempted operation, e.g. "create" or "update".
	Op string

	// Entity is "page", "content", "post" or "menu".
	Entity string

	// Key is the identity key of the item.
	Key string

	// Page is the page path for content items.
	Page string

	Err error
}

// Error implements the error interface.
func (e *ItemError) Error() string {
	if e.Page != "" {
		return fmt.Sprintf("Failed to %s %s '%s' on page '%s': %v", e.Op, e.Entity, e.Key, e.Page, e.Err)
	}
	return fmt.Sprintf("Failed to %s %s '%s': %v", e.Op, e.Entity, e.Key, e.Err)
}

func (e *ItemError) Unwrap() error {
	return e.Err
}

// errPageMissing is a logic-integrity failure: content refers to a page
// that phase one should have created.
var errPageMissing = errors.New("page not found (logic-integrity error)")
