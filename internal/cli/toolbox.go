package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/blocklab/prockit/internal/reconcile"
	"github.com/blocklab/prockit/internal/registry"
)

// NewToolboxCommand creates the toolbox command.
func NewToolboxCommand(rootOpts *RootOptions) *cobra.Command {
	var enableReturns bool

	cmd := &cobra.Command{
		Use:   "toolbox <workspace.yaml>",
		Short: "Build the procedures toolbox category",
		Long: `Build the flyout category for the procedures toolbox: the create
button, the return-block template when any procedure produces a value,
and one call template per procedure annotated with its inferred type.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runToolbox(rootOpts, args[0], enableReturns, cmd)
		},
	}

	cmd.Flags().BoolVar(&enableReturns, "enable-returns", false, "always include the return block template")

	return cmd
}

func runToolbox(opts *RootOptions, path string, enableReturns bool, cmd *cobra.Command) error {
	formatter := newFormatter(opts, cmd)

	ws, err := LoadWorkspace(path)
	if err != nil {
		return outputLoadError(formatter, err)
	}

	reg := registry.New(registry.Config{})
	cfg := reconcile.DefaultConfig()
	cfg.EnableReturnsByDefault = enableReturns
	rec := reconcile.New(reg, cfg)

	items := rec.BuildCategory(ws)

	if formatter.Format == "json" {
		return formatter.Success(items)
	}
	for _, item := range items {
		switch {
		case item.Action != "":
			fmt.Fprintf(formatter.Writer, "button  %s\n", item.Action)
		case item.ProcCode != "":
			if item.ReturnType != "" {
				fmt.Fprintf(formatter.Writer, "block   %s  %s [%s]\n", item.Template, item.ProcCode, item.ReturnType)
			} else {
				fmt.Fprintf(formatter.Writer, "block   %s  %s\n", item.Template, item.ProcCode)
			}
		default:
			fmt.Fprintf(formatter.Writer, "block   %s\n", item.Template)
		}
	}
	return nil
}
