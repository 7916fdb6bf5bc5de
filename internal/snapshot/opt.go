package snapshot

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Opt is an optional string field with three states: absent, null, value.
// The zero Opt is absent.
type Opt struct {
	set   bool
	null  bool
	value string
}

// Some returns a present Opt holding v (which may be "").
func Some(v string) Opt {
	return Opt{set: true, value: v}
}

// Null returns a present Opt holding JSON null.
func Null() Opt {
	return Opt{set: true, null: true}
}

// NonEmpty returns Some(v) for a non-empty v and an absent Opt otherwise.
// The extractor uses it so snapshots never carry empty defaults.
func NonEmpty(v string) Opt {
	if v == "" {
		return Opt{}
	}
	return Some(v)
}

// Present reports whether the key appeared in the document.
func (o Opt) Present() bool { return o.set }

// IsNull reports whether the key appeared with a JSON null.
func (o Opt) IsNull() bool { return o.set && o.null }

// Value returns the string value; "" for absent or null.
func (o Opt) Value() string { return o.value }

// Provided reports whether the Opt carries a non-empty value.
// Null and "" both count as "no value provided".
func (o Opt) Provided() bool { return o.set && !o.null && o.value != "" }

// IsZero reports whether the Opt is absent. Used by encoding/json omitzero.
func (o Opt) IsZero() bool { return !o.set }

// String implements fmt.Stringer for log output.
func (o Opt) String() string {
	switch {
	case !o.set:
		return "<absent>"
	case o.null:
		return "<null>"
	default:
		return o.value
	}
}

// MarshalJSON encodes a null Opt as null and a value Opt as a string.
// Absent Opts are dropped by the omitzero tag before this is reached.
func (o Opt) MarshalJSON() ([]byte, error) {
	if !o.set || o.null {
		return []byte("null"), nil
	}
	return marshalString(o.value)
}

// UnmarshalJSON marks the Opt present and records null or the string value.
func (o *Opt) UnmarshalJSON(data []byte) error {
	o.set = true
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		o.null = true
		o.value = ""
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("expected string or null: %w", err)
	}
	o.null = false
	o.value = s
	return nil
}
