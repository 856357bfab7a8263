package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/blocklab/prockit/internal/registry"
)

// DeleteResult holds the outcome of a guarded delete.
type DeleteResult struct {
	ProcCode string   `json:"proc_code"`
	Deleted  bool     `json:"deleted"`
	Callers  []string `json:"callers,omitempty"`
	Written  bool     `json:"written,omitempty"`
}

// NewDeleteCommand creates the delete command.
func NewDeleteCommand(rootOpts *RootOptions) *cobra.Command {
	var (
		write       bool
		journalPath string
	)

	cmd := &cobra.Command{
		Use:   "delete <workspace.yaml> <proc-code>",
		Short: "Delete a procedure definition if nothing calls it",
		Long: `Delete a procedure's definition subtree as one atomic batch.

Deletion is refused when any call site outside the definition itself
references the procedure; recursive self-calls do not block it.
A refused delete exits with code 1 and lists the blocking callers.`,
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDelete(rootOpts, args[0], args[1], write, journalPath, cmd)
		},
	}

	cmd.Flags().BoolVarP(&write, "write", "w", false, "write the workspace back to the document")
	cmd.Flags().StringVar(&journalPath, "journal", "", "record change groups to a SQLite journal at this path")

	return cmd
}

func runDelete(opts *RootOptions, path, procCode string, write bool, journalPath string, cmd *cobra.Command) error {
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
	def := reg.DefinitionBlock(ws, procCode)

	deleted, err := reg.DeleteDefinition(procCode, ws, def)
	if err != nil {
		var missing *registry.MissingPrereqError
		if errors.As(err, &missing) {
			_ = formatter.Error(ErrCodeUnknownProcedure, err.Error(), missing.ProcCode)
			return WrapExitError(ExitCommandError, ErrCodeUnknownProcedure, err)
		}
		_ = formatter.Error(ErrCodeGeneric, err.Error(), nil)
		return WrapExitError(ExitCommandError, ErrCodeGeneric, err)
	}

	result := DeleteResult{ProcCode: procCode, Deleted: deleted}
	if !deleted {
		for _, caller := range reg.Callers(procCode, ws, def, false) {
			result.Callers = append(result.Callers, caller.ID)
		}
		if formatter.Format == "json" {
			_ = formatter.Success(result)
		} else {
			fmt.Fprintf(formatter.Writer, "✗ Delete refused: %d caller(s) reference %q\n", len(result.Callers), procCode)
			for _, id := range result.Callers {
				fmt.Fprintf(formatter.Writer, "  %s\n", id)
			}
		}
		return NewExitError(ExitFailure, fmt.Sprintf("delete refused: %d caller(s)", len(result.Callers)))
	}

	if write {
		if err := SaveDocument(DocumentFromWorkspace(ws), path); err != nil {
			return outputLoadError(formatter, err)
		}
		result.Written = true
	}

	if formatter.Format == "json" {
		return formatter.Success(result)
	}
	fmt.Fprintf(formatter.Writer, "Deleted %q\n", procCode)
	return nil
}
