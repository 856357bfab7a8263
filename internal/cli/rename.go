package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/blocklab/prockit/internal/registry"
)

// RenameResult holds the outcome of a rename operation.
type RenameResult struct {
	OldName  string `json:"old_name"`
	Accepted string `json:"accepted"`
	Suffixed bool   `json:"suffixed"`
	Written  bool   `json:"written,omitempty"`
}

// NewRenameCommand creates the rename command.
func NewRenameCommand(rootOpts *RootOptions) *cobra.Command {
	var (
		write       bool
		journalPath string
	)

	cmd := &cobra.Command{
		Use:   "rename <workspace.yaml> <old-name> <new-name>",
		Short: "Rename a procedure and all its call sites",
		Long: `Rename a procedure definition and propagate the accepted name to
every call site in one atomic batch.

Name collisions are resolved by numeric suffixing; the accepted name is
reported and may differ from the requested one.`,
		Args:          cobra.ExactArgs(3),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRename(rootOpts, args[0], args[1], args[2], write, journalPath, cmd)
		},
	}

	cmd.Flags().BoolVarP(&write, "write", "w", false, "write the renamed workspace back to the document")
	cmd.Flags().StringVar(&journalPath, "journal", "", "record change groups to a SQLite journal at this path")

	return cmd
}

func runRename(opts *RootOptions, path, oldName, newName string, write bool, journalPath string, cmd *cobra.Command) error {
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
	accepted, err := reg.Rename(oldName, newName, ws)
	if err != nil {
		var missing *registry.MissingPrereqError
		if errors.As(err, &missing) {
			_ = formatter.Error(ErrCodeUnknownProcedure, err.Error(), missing.ProcCode)
			return WrapExitError(ExitCommandError, ErrCodeUnknownProcedure, err)
		}
		_ = formatter.Error(ErrCodeGeneric, err.Error(), nil)
		return WrapExitError(ExitCommandError, ErrCodeGeneric, err)
	}

	result := RenameResult{
		OldName:  oldName,
		Accepted: accepted,
		Suffixed: accepted != newName,
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
	if result.Suffixed {
		fmt.Fprintf(formatter.Writer, "Renamed %q to %q (requested %q was taken)\n", oldName, accepted, newName)
	} else {
		fmt.Fprintf(formatter.Writer, "Renamed %q to %q\n", oldName, accepted)
	}
	return nil
}
