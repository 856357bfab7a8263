package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/blocklab/prockit/internal/block"
	"github.com/blocklab/prockit/internal/reconcile"
	"github.com/blocklab/prockit/internal/registry"
)

// ReconcileResult holds the outcome of a reconciliation pass.
type ReconcileResult struct {
	Rewritten []string          `json:"rewritten"`
	Refreshed bool              `json:"refreshed"`
	Types     map[string]string `json:"types"`
	Written   bool              `json:"written,omitempty"`
}

// NewReconcileCommand creates the reconcile command.
func NewReconcileCommand(rootOpts *RootOptions) *cobra.Command {
	var (
		write         bool
		check         bool
		allowOverride bool
		journalPath   string
	)

	cmd := &cobra.Command{
		Use:   "reconcile <workspace.yaml>",
		Short: "Rewrite call sites whose shape drifted from their definition",
		Long: `Infer the return type of every procedure and rewrite each
top-level call site whose cached type no longer matches, as one grouped
change batch.

The cached return types stored in the document serve as the pre-edit
snapshot; inference over the current bodies gives the post-edit truth.
With --check, drift exits with code 1 instead of 0.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReconcile(rootOpts, args[0], write, check, allowOverride, journalPath, cmd)
		},
	}

	cmd.Flags().BoolVarP(&write, "write", "w", false, "write the reconciled workspace back to the document")
	cmd.Flags().BoolVar(&check, "check", false, "exit with code 1 when any call site drifted")
	cmd.Flags().BoolVar(&allowOverride, "allow-shape-override", false, "keep user-forced call shapes while the definition type is unchanged")
	cmd.Flags().StringVar(&journalPath, "journal", "", "record change groups to a SQLite journal at this path")

	return cmd
}

func runReconcile(opts *RootOptions, path string, write, check, allowOverride bool, journalPath string, cmd *cobra.Command) error {
	formatter := newFormatter(opts, cmd)

	ws, err := LoadWorkspace(path)
	if err != nil {
		return outputLoadError(formatter, err)
	}

	closeJournal, err := attachJournal(ws, journalPath)
	if err != nil {
		_ = formatter.Error(ErrCodeGeneric, err.Error(), journalPath)
		return WrapExitError(ExitCommandError, "journal open failed", err)
	}
	defer closeJournal()

	reg := registry.New(registry.Config{})
	cfg := reconcile.DefaultConfig()
	cfg.AllowCallShapeOverride = allowOverride
	rec := reconcile.New(reg, cfg)

	// The document's cached definition types are the pre-edit snapshot.
	initial := map[string]block.ReturnType{}
	for _, code := range reg.ProcCodes(ws) {
		def := reg.DefinitionBlock(ws, code)
		rt := def.ReturnType
		if !block.ValidReturnTypes[rt] {
			rt = block.ReturnStatement
		}
		initial[reg.Names().Key(code)] = rt
	}

	passResult := rec.Reconcile(ws, initial)

	result := ReconcileResult{
		Rewritten: passResult.Rewritten,
		Refreshed: passResult.Refreshed,
		Types:     map[string]string{},
	}
	if result.Rewritten == nil {
		result.Rewritten = []string{}
	}
	for _, code := range reg.ProcCodes(ws) {
		result.Types[code] = string(reconcile.InferReturnType(reg.DefinitionBlock(ws, code)))
	}

	if write {
		if err := SaveDocument(DocumentFromWorkspace(ws), path); err != nil {
			return outputLoadError(formatter, err)
		}
		result.Written = true
	}

	if formatter.Format == "json" {
		if err := formatter.Success(result); err != nil {
			return err
		}
	} else {
		if len(result.Rewritten) == 0 {
			fmt.Fprintln(formatter.Writer, "✓ No drifted call sites")
		} else {
			fmt.Fprintf(formatter.Writer, "Rewrote %d call site(s):\n", len(result.Rewritten))
			for _, id := range result.Rewritten {
				fmt.Fprintf(formatter.Writer, "  %s\n", id)
			}
		}
	}

	if check && len(result.Rewritten) > 0 {
		return NewExitError(ExitFailure, fmt.Sprintf("%d call site(s) drifted", len(result.Rewritten)))
	}
	return nil
}
