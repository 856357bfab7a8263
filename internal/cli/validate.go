package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/blocklab/prockit/internal/registry"
)

// ValidationResult holds document validation results.
type ValidationResult struct {
	Valid      bool `json:"valid"`
	Blocks     int  `json:"blocks"`
	Procedures int  `json:"procedures"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "validate <workspace.yaml>",
		Short: "Validate a workspace document",
		Long: `Validate a workspace document against the schema and build it.

Checks YAML structure, field types, block kinds, return types, and
block ID uniqueness without mutating anything.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true, // Don't print usage on errors
		SilenceErrors: true, // Don't print errors - we handle our own error output
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, args[0], cmd)
		},
	}
}

func runValidate(opts *RootOptions, path string, cmd *cobra.Command) error {
	formatter := newFormatter(opts, cmd)

	doc, err := LoadDocument(path)
	if err != nil {
		return outputLoadError(formatter, err)
	}
	formatter.VerboseLog("Loaded %d top-level block(s) from %s", len(doc.Blocks), path)

	ws, err := BuildWorkspace(doc, path)
	if err != nil {
		return outputLoadError(formatter, err)
	}

	reg := registry.New(registry.Config{})
	procs := reg.ProcCodes(ws)

	result := ValidationResult{
		Valid:      true,
		Blocks:     ws.Len(),
		Procedures: len(procs),
	}
	if formatter.Format == "json" {
		return formatter.Success(result)
	}
	fmt.Fprintf(formatter.Writer, "✓ Valid workspace: %d block(s), %d procedure(s)\n", result.Blocks, result.Procedures)
	return nil
}
