package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/folio/internal/templates"
)

// TemplateSummary is one template in `templates list` output.
type TemplateSummary struct {
	Name   string   `json:"name"`
	Blocks []string `json:"blocks"`
}

// NewTemplatesCommand creates the templates command group.
func NewTemplatesCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "templates",
		Short: "Manage page templates",
		Long: `Manage the templates and content blocks pages are built from.

Snapshots refer to templates by name; an import never creates a template,
so templates must exist before pages using them are imported.`,
	}

	cmd.AddCommand(newTemplatesLoadCommand(rootOpts))
	cmd.AddCommand(newTemplatesListCommand(rootOpts))

	return cmd
}

func newTemplatesLoadCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "load <catalog-file>",
		Short: "Create templates and blocks from a YAML catalog",
		Long: `Create the templates and blocks listed in a YAML catalog. Existing
templates and blocks are kept as they are.

Example:
  folio templates load templates.yaml`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			catalog, err := templates.Load(args[0])
			if err != nil {
				return WrapExitError(ExitCommandError, "failed to load catalog", err)
			}

			ctx := commandContext(cmd)
			a, err := openApp(ctx, opts, cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			n, err := templates.Apply(ctx, a.store, catalog)
			if err != nil {
				return WrapExitError(ExitCommandError, "failed to apply catalog", err)
			}

			formatter := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout()}
			if opts.Format == "json" {
				return formatter.Success(map[string]int{"templates": n})
			}
			return formatter.Success(fmt.Sprintf("Applied %d template(s)", n))
		},
	}
}

func newTemplatesListCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "list",
		Short:         "List templates and their block keys",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := commandContext(cmd)
			a, err := openApp(ctx, opts, cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			list, err := a.store.ListTemplates(ctx)
			if err != nil {
				return WrapExitError(ExitCommandError, "failed to list templates", err)
			}

			summaries := make([]TemplateSummary, 0, len(list))
			for _, t := range list {
				blocks, err := a.store.ListBlocks(ctx, t.ID)
				if err != nil {
					return WrapExitError(ExitCommandError, "failed to list blocks", err)
				}
				keys := make([]string, 0, len(blocks))
				for _, b := range blocks {
					keys = append(keys, b.Key)
				}
				summaries = append(summaries, TemplateSummary{Name: t.Name, Blocks: keys})
			}

			formatter := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout()}
			if opts.Format == "json" {
				return formatter.Success(summaries)
			}

			w := cmd.OutOrStdout()
			if len(summaries) == 0 {
				fmt.Fprintln(w, "No templates.")
				return nil
			}
			for _, s := range summaries {
				fmt.Fprintf(w, "%s: %s\n", s.Name, strings.Join(s.Blocks, ", "))
			}
			return nil
		},
	}
}
