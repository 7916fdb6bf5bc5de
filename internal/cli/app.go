package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/roach88/folio/internal/config"
	"github.com/roach88/folio/internal/extract"
	"github.com/roach88/folio/internal/logging"
	"github.com/roach88/folio/internal/media"
	"github.com/roach88/folio/internal/metrics"
	"github.com/roach88/folio/internal/reconcile"
	"github.com/roach88/folio/internal/store"
	"github.com/roach88/folio/internal/templates"
)

// app is the wired pipeline shared by the store-backed commands.
type app struct {
	cfg      *config.Config
	logger   *slog.Logger
	store    *store.Store
	exporter *extract.Extractor
	importer *reconcile.Importer
	metrics  *metrics.Metrics
}

// openApp loads configuration, opens the database and wires the export
// and import pipeline. Logs go to the command's stderr.
func openApp(ctx context.Context, opts *RootOptions, cmd *cobra.Command) (*app, error) {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to load config", err)
	}

	logger, err := newLogger(cmd.ErrOrStderr(), cfg.Log.Level, opts.Verbose)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "invalid config", err)
	}

	logger.Debug("opening database", "path", cfg.Database.Path)
	st, err := store.Open(cfg.Database.Path)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to open database", err)
	}

	if cfg.Import.Templates != "" {
		catalog, err := templates.Load(cfg.Import.Templates)
		if err != nil {
			st.Close()
			return nil, WrapExitError(ExitCommandError, "failed to load templates", err)
		}
		n, err := templates.Apply(ctx, st, catalog)
		if err != nil {
			st.Close()
			return nil, WrapExitError(ExitCommandError, "failed to apply templates", err)
		}
		logger.Debug("templates applied", "count", n, "file", cfg.Import.Templates)
	}

	lib := media.NewLibrary(st, cfg.Media.BaseURL)
	m := metrics.New(nil)
	ex := extract.New(st, extract.WithLogger(logger), extract.WithImageResolver(lib))
	r := reconcile.New(st,
		reconcile.WithLogger(logger),
		reconcile.WithImageLinker(lib),
		reconcile.WithFallback(cfg.Import.FallbackUser),
	)
	im := reconcile.NewImporter(ex, r, reconcile.WithRecorder(m))

	return &app{
		cfg:      cfg,
		logger:   logger,
		store:    st,
		exporter: ex,
		importer: im,
		metrics:  m,
	}, nil
}

func (a *app) Close() {
	if err := a.store.Close(); err != nil {
		a.logger.Error("error closing database", "error", err)
	}
}

// newLogger builds the command logger. --verbose forces debug level.
func newLogger(w io.Writer, level string, verbose bool) (*slog.Logger, error) {
	if verbose {
		return logging.New(w, slog.LevelDebug), nil
	}
	l, err := logging.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("log.level: %w", err)
	}
	return logging.New(w, l), nil
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
