package reconcile

import (
	"context"
	"fmt"
	"time"

	"github.com/roach88/folio/internal/snapshot"
)

// CurrentState produces the snapshot an import is compared against.
// Implemented by *extract.Extractor.
type CurrentState interface {
	Extract(ctx context.Context) (*snapshot.Snapshot, error)
}

// Recorder observes import outcomes. Implemented by *metrics.Metrics.
type Recorder interface {
	RecordImport(r *Report, elapsed time.Duration)
	RecordRejected()
}

// Importer runs a full import: parse, read current state, reconcile.
type Importer struct {
	current    CurrentState
	reconciler *Reconciler
	recorder   Recorder
	runIDs     RunIDGenerator
}

// ImporterOption configures an Importer.
type ImporterOption func(*Importer)

// WithRecorder sets the outcome recorder.
func WithRecorder(rec Recorder) ImporterOption {
	return func(im *Importer) {
		im.recorder = rec
	}
}

// WithRunIDs sets the run id generator. Defaults to UUIDv7Generator.
func WithRunIDs(g RunIDGenerator) ImporterOption {
	return func(im *Importer) {
		if g != nil {
			im.runIDs = g
		}
	}
}

// NewImporter creates an Importer comparing against current and writing
// through r.
func NewImporter(current CurrentState, r *Reconciler, opts ...ImporterOption) *Importer {
	im := &Importer{
		current:    current,
		reconciler: r,
		runIDs:     UUIDv7Generator{},
	}
	for _, opt := range opts {
		opt(im)
	}
	return im
}

// Import parses data and applies it. The document is parsed in full before
// anything is written; a malformed document returns a *snapshot.ParseError
// and a nil Report. Per-item failures never produce an error: they are
// entries in the returned Report.
func (im *Importer) Import(ctx context.Context, data []byte) (*Report, error) {
	runID := im.runIDs.Generate()
	logger := im.reconciler.logger.With("run_id", runID)

	next, err := snapshot.Parse(data)
	if err != nil {
		if im.recorder != nil {
			im.recorder.RecordRejected()
		}
		logger.Warn("snapshot rejected", "error", err)
		return nil, err
	}

	current, err := im.current.Extract(ctx)
	if err != nil {
		return nil, fmt.Errorf("import: read current state: %w", err)
	}

	logger.Info("import starting",
		"pages", len(next.Pages),
		"posts", len(next.Posts),
		"menus", len(next.Menus),
	)
	start := time.Now()
	report := im.reconciler.withLogger(logger).Reconcile(ctx, next, current)
	elapsed := time.Since(start)

	if im.recorder != nil {
		im.recorder.RecordImport(report, elapsed)
	}
	logger.Info("import finished",
		"success", len(report.Success),
		"error", len(report.Error),
		"warning", len(report.Warning),
		"elapsed", elapsed,
	)
	return report, nil
}
