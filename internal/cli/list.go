package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/blocklab/prockit/internal/block"
	"github.com/blocklab/prockit/internal/registry"
)

// ListResult holds the procedure listing of a workspace.
type ListResult struct {
	Statements []string `json:"statements"`
	Reporters  []string `json:"reporters"`
}

// NewListCommand creates the list command.
func NewListCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "list <workspace.yaml>",
		Short: "List the procedures of a workspace",
		Long: `List every procedure definition, partitioned into statement
procedures and value-producing (reporter or boolean) procedures.
Each partition is sorted case-insensitively.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runList(rootOpts, args[0], cmd)
		},
	}
}

func runList(opts *RootOptions, path string, cmd *cobra.Command) error {
	formatter := newFormatter(opts, cmd)

	ws, err := LoadWorkspace(path)
	if err != nil {
		return outputLoadError(formatter, err)
	}

	reg := registry.New(registry.Config{})
	noReturn, hasReturn := reg.ListDefinitions(ws)

	result := ListResult{Statements: []string{}, Reporters: []string{}}
	for _, def := range noReturn {
		result.Statements = append(result.Statements, def.DefinitionProcCode())
	}
	for _, def := range hasReturn {
		result.Reporters = append(result.Reporters, def.DefinitionProcCode())
	}

	if formatter.Format == "json" {
		return formatter.Success(result)
	}

	printPartition(formatter, "Statement procedures", noReturn)
	printPartition(formatter, "Value procedures", hasReturn)
	return nil
}

func printPartition(formatter *OutputFormatter, label string, defs []*block.Block) {
	fmt.Fprintf(formatter.Writer, "%s (%d):\n", label, len(defs))
	for _, def := range defs {
		fmt.Fprintf(formatter.Writer, "  %s\n", def.DefinitionProcCode())
	}
}
