package snapshot

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"sync"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
	cuejson "cuelang.org/go/encoding/json"
)

//go:embed schema.cue
var schemaCUE string

// ParseError reports a snapshot document that cannot be imported.
// It is the only import failure that aborts a whole run.
type ParseError struct {
	// Stage is "json" for syntax errors, "schema" for shape violations
	// and "decode" for values that passed the schema but not decoding.
	Stage   string
	Message string
	Err     error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("invalid snapshot (%s): %s", e.Stage, e.Message)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

var (
	// schemaMu serializes validation: a cue.Context is not safe for
	// concurrent use.
	schemaMu   sync.Mutex
	schemaOnce sync.Once
	schemaCtx  *cue.Context
	schemaDef  cue.Value
	schemaErr  error
)

// loadSchema compiles schema.cue once per process.
func loadSchema() (*cue.Context, cue.Value, error) {
	schemaOnce.Do(func() {
		schemaCtx = cuecontext.New()
		v := schemaCtx.CompileString(schemaCUE, cue.Filename("schema.cue"))
		if err := v.Err(); err != nil {
			schemaErr = fmt.Errorf("compile snapshot schema: %w", err)
			return
		}
		schemaDef = v.LookupPath(cue.ParsePath("#Snapshot"))
		if err := schemaDef.Err(); err != nil {
			schemaErr = fmt.Errorf("lookup #Snapshot: %w", err)
		}
	})
	return schemaCtx, schemaDef, schemaErr
}

// Parse decodes and validates a snapshot document.
// Nothing is returned unless the whole document is well-formed, so callers
// can parse before touching any store.
func Parse(data []byte) (*Snapshot, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, &ParseError{Stage: "json", Message: "empty document"}
	}
	if !json.Valid(data) {
		// Re-decode for a positioned message
		var probe any
		err := json.Unmarshal(data, &probe)
		msg := "malformed JSON"
		if err != nil {
			msg = err.Error()
		}
		return nil, &ParseError{Stage: "json", Message: msg, Err: err}
	}

	if err := Validate(data); err != nil {
		return nil, err
	}

	s := New()
	if err := json.Unmarshal(data, s); err != nil {
		return nil, &ParseError{Stage: "decode", Message: err.Error(), Err: err}
	}
	if s.Pages == nil {
		s.Pages = map[string]*Page{}
	}
	if s.Posts == nil {
		s.Posts = []*Post{}
	}
	if s.Menus == nil {
		s.Menus = []*Menu{}
	}
	for path, page := range s.Pages {
		if page == nil {
			return nil, &ParseError{Stage: "decode", Message: fmt.Sprintf("page %q is null", path)}
		}
	}
	return s, nil
}

// Validate checks a JSON document against the #Snapshot definition.
func Validate(data []byte) error {
	schemaMu.Lock()
	defer schemaMu.Unlock()

	ctx, def, err := loadSchema()
	if err != nil {
		return err
	}

	expr, err := cuejson.Extract("snapshot.json", data)
	if err != nil {
		return &ParseError{Stage: "json", Message: firstCUEError(err), Err: err}
	}
	doc := ctx.BuildExpr(expr)
	if err := doc.Err(); err != nil {
		return &ParseError{Stage: "json", Message: firstCUEError(err), Err: err}
	}

	unified := def.Unify(doc)
	if err := unified.Validate(cue.Concrete(true)); err != nil {
		return &ParseError{Stage: "schema", Message: firstCUEError(err), Err: err}
	}
	return nil
}

// firstCUEError returns the first of possibly many CUE errors, with its
// document path when available.
func firstCUEError(err error) string {
	errs := cueerrors.Errors(err)
	if len(errs) == 0 {
		return err.Error()
	}
	return errs[0].Error()
}

// Marshal encodes a snapshot as pretty-printed JSON. Struct fields keep
// declaration order and map keys are sorted, so equal snapshots encode to
// equal bytes.
func Marshal(s *Snapshot) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(s); err != nil {
		return nil, fmt.Errorf("marshal snapshot: %w", err)
	}
	return buf.Bytes(), nil
}
