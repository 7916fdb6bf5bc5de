package cli

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/folio/internal/snapshot"
)

// NewImportCommand creates the import command.
func NewImportCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import <snapshot-file>",
		Short: "Apply a snapshot",
		Long: `Apply a JSON snapshot to the site.

Pages are matched by path, posts by slug and menus by name. Missing items
are created and changed items are updated. Every item is reported as a
success, an error or a warning; one failed item never stops the rest.
Use "-" to read the snapshot from stdin.

Exit codes:
  0 - Every item applied
  1 - One or more items failed
  2 - Command error (unreadable file, malformed snapshot, etc.)

Example:
  folio import site.json
  folio export --config staging.toml | folio import -`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runImport(rootOpts, args[0], cmd)
		},
	}

	return cmd
}

func runImport(opts *RootOptions, path string, cmd *cobra.Command) error {
	data, err := readSnapshot(path, cmd.InOrStdin())
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read snapshot", err)
	}

	ctx := commandContext(cmd)
	a, err := openApp(ctx, opts, cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	report, err := a.importer.Import(ctx, data)
	var pe *snapshot.ParseError
	if errors.As(err, &pe) {
		if ferr := formatter.Error("E_REJECTED", pe.Error(), nil); ferr != nil {
			return ferr
		}
		return WrapExitError(ExitCommandError, "snapshot rejected", err)
	}
	if err != nil {
		return WrapExitError(ExitCommandError, "import failed", err)
	}

	if err := formatter.Report(report); err != nil {
		return err
	}
	if !report.OK() {
		return NewExitError(ExitFailure, fmt.Sprintf("%d item(s) failed", len(report.Error)))
	}
	return nil
}

func readSnapshot(path string, stdin io.Reader) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(stdin)
	}
	return os.ReadFile(path)
}
