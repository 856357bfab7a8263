package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/blocklab/prockit/internal/reconcile"
	"github.com/blocklab/prockit/internal/registry"
)

// InferredType pairs a procedure with its inferred return type.
type InferredType struct {
	ProcCode   string `json:"proc_code"`
	ReturnType string `json:"return_type"`
}

// NewInferCommand creates the infer command.
func NewInferCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "infer <workspace.yaml>",
		Short: "Infer the return type of every procedure",
		Long: `Walk each procedure body and report the inferred return type:
statement (no return blocks), reporter, or boolean (every return
carries a boolean-shaped value).

Inference reads the current body structure; cached types in the
document are ignored.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInfer(rootOpts, args[0], cmd)
		},
	}
}

func runInfer(opts *RootOptions, path string, cmd *cobra.Command) error {
	formatter := newFormatter(opts, cmd)

	ws, err := LoadWorkspace(path)
	if err != nil {
		return outputLoadError(formatter, err)
	}

	reg := registry.New(registry.Config{})
	results := []InferredType{}
	for _, code := range reg.ProcCodes(ws) {
		def := reg.DefinitionBlock(ws, code)
		results = append(results, InferredType{
			ProcCode:   code,
			ReturnType: string(reconcile.InferReturnType(def)),
		})
	}

	if formatter.Format == "json" {
		return formatter.Success(results)
	}
	for _, r := range results {
		fmt.Fprintf(formatter.Writer, "%-12s %s\n", r.ReturnType, r.ProcCode)
	}
	return nil
}
