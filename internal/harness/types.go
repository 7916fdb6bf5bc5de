package harness

import (
	"fmt"

	"github.com/roach88/folio/internal/reconcile"
)

// Result is the outcome of running a scenario.
type Result struct {
	// Pass is true when every expectation and assertion held.
	Pass bool `json:"pass"`

	// Reports holds one report per step; nil for a rejected document.
	Reports []*reconcile.Report `json:"reports"`

	// Errors lists every failed expectation and assertion.
	Errors []string `json:"errors,omitempty"`

	// Export is the snapshot exported after the last step.
	Export []byte `json:"-"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:    true,
		Reports: []*reconcile.Report{},
		Errors:  []string{},
	}
}

// AddError adds a failure message and marks the result as failed.
func (r *Result) AddError(format string, args ...any) {
	r.Errors = append(r.Errors, fmt.Sprintf(format, args...))
	r.Pass = false
}
