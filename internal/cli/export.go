package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// ExportOptions holds flags for the export command.
type ExportOptions struct {
	*RootOptions
	Output string
}

// NewExportCommand creates the export command.
func NewExportCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ExportOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the site snapshot",
		Long: `Write the current pages, posts and menus as a JSON snapshot.

The snapshot is written to stdout unless --out is given. Exporting the
same content twice produces identical bytes.

Example:
  folio export > site.json
  folio export --out site.json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExport(opts, cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Output, "out", "o", "", "write the snapshot to a file")

	return cmd
}

func runExport(opts *ExportOptions, cmd *cobra.Command) error {
	ctx := commandContext(cmd)
	a, err := openApp(ctx, opts.RootOptions, cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	data, err := a.exporter.Export(ctx)
	if err != nil {
		return WrapExitError(ExitCommandError, "export failed", err)
	}

	if opts.Output == "" {
		_, err := cmd.OutOrStdout().Write(data)
		return err
	}
	if err := os.WriteFile(opts.Output, data, 0644); err != nil {
		return WrapExitError(ExitCommandError, "failed to write snapshot", err)
	}
	a.logger.Info("snapshot written", "path", opts.Output, "bytes", len(data))
	fmt.Fprintf(cmd.ErrOrStderr(), "Wrote %s\n", opts.Output)
	return nil
}
