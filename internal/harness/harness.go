package harness

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"

	"github.com/roach88/folio/internal/extract"
	"github.com/roach88/folio/internal/logging"
	"github.com/roach88/folio/internal/media"
	"github.com/roach88/folio/internal/reconcile"
	"github.com/roach88/folio/internal/snapshot"
	"github.com/roach88/folio/internal/store"
	"github.com/roach88/folio/internal/templates"
	"github.com/roach88/folio/internal/testutil"
)

// Harness holds the store and pipeline of one scenario run.
type Harness struct {
	store    *store.Store
	exporter *extract.Extractor
	importer *reconcile.Importer
	logger   *slog.Logger
}

// Run executes a scenario in a fresh in-memory database.
//
// Execution flow:
//  1. Open the database and apply templates and users
//  2. Import each step's document and check its expectations
//  3. Evaluate assertions
//  4. Export the final snapshot
//
// Failed expectations are reported in the Result; the error return is for
// failures of the harness itself.
func Run(scenario *Scenario) (*Result, error) {
	ctx := context.Background()

	clock := testutil.NewDeterministicClock()
	st, err := store.Open(":memory:", store.WithClock(clock.Now))
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory store: %w", err)
	}
	defer st.Close()

	h, err := newHarness(ctx, st, scenario)
	if err != nil {
		return nil, err
	}

	result := NewResult()
	for i, step := range scenario.Steps {
		if err := h.runStep(ctx, i+1, step, result); err != nil {
			return nil, err
		}
	}

	for _, a := range scenario.Assertions {
		if err := h.evaluate(ctx, a, result); err != nil {
			return nil, err
		}
	}

	result.Export, err = h.exporter.Export(ctx)
	if err != nil {
		return nil, fmt.Errorf("export: %w", err)
	}
	return result, nil
}

func newHarness(ctx context.Context, st *store.Store, scenario *Scenario) (*Harness, error) {
	logger := logging.NewNop()

	if _, err := templates.Apply(ctx, st, &templates.Catalog{Templates: scenario.Templates}); err != nil {
		return nil, fmt.Errorf("setup: %w", err)
	}
	for _, email := range scenario.Users {
		if err := st.CreateUser(ctx, &store.User{Email: email}); err != nil {
			return nil, fmt.Errorf("setup: %w", err)
		}
	}

	fallback, err := reconcile.ParseFallbackPolicy(scenario.FallbackUser)
	if err != nil {
		return nil, err
	}
	lib := media.NewLibrary(st, scenario.MediaBaseURL)
	ex := extract.New(st, extract.WithLogger(logger), extract.WithImageResolver(lib))
	r := reconcile.New(st,
		reconcile.WithLogger(logger),
		reconcile.WithImageLinker(lib),
		reconcile.WithFallback(fallback),
	)
	im := reconcile.NewImporter(ex, r,
		reconcile.WithRunIDs(testutil.NewFixedRunIDGenerator(scenario.RunID)),
	)
	return &Harness{store: st, exporter: ex, importer: im, logger: logger}, nil
}

func (h *Harness) runStep(ctx context.Context, n int, step Step, result *Result) error {
	report, err := h.importer.Import(ctx, []byte(step.Import))
	var pe *snapshot.ParseError
	switch {
	case errors.As(err, &pe):
		result.Reports = append(result.Reports, nil)
		if step.Expect == nil || !step.Expect.Rejected {
			result.AddError("step %d: document rejected: %v", n, err)
		}
		return nil
	case err != nil:
		return fmt.Errorf("step %d: %w", n, err)
	}

	result.Reports = append(result.Reports, report)
	if step.Expect == nil {
		return nil
	}
	if step.Expect.Rejected {
		result.AddError("step %d: expected document to be rejected", n)
		return nil
	}
	checkBucket(result, n, "success", step.Expect.Success, report.Success)
	checkBucket(result, n, "error", step.Expect.Error, report.Error)
	checkBucket(result, n, "warning", step.Expect.Warning, report.Warning)
	return nil
}

func checkBucket(result *Result, n int, bucket string, want, got []string) {
	if want == nil || slices.Equal(want, got) {
		return
	}
	result.AddError("step %d: %s = %q, expected %q", n, bucket, got, want)
}
