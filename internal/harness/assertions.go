package harness

import (
	"fmt"
	"sort"

	"github.com/blocklab/prockit/internal/block"
)

// RunAssertions evaluates every assertion of the scenario against the
// result. All assertions are checked; the returned slice holds one error
// per failed assertion.
func RunAssertions(scenario *Scenario, result *Result) []error {
	var failures []error
	for i, assertion := range scenario.Assertions {
		if err := checkAssertion(&assertion, result); err != nil {
			failures = append(failures, fmt.Errorf("assertions[%d] (%s): %w", i, assertion.Type, err))
		}
	}
	return failures
}

func checkAssertion(a *Assertion, result *Result) error {
	switch a.Type {
	case AssertProcedureExists:
		if result.Registry.DefinitionBlock(result.Workspace, a.ProcCode) == nil {
			return fmt.Errorf("no definition for %q", a.ProcCode)
		}
		return nil

	case AssertProcedureAbsent:
		if def := result.Registry.DefinitionBlock(result.Workspace, a.ProcCode); def != nil {
			return fmt.Errorf("definition %s for %q still present", def.ID, a.ProcCode)
		}
		return nil

	case AssertCallType:
		b := result.Workspace.Block(a.BlockID)
		if b == nil {
			return fmt.Errorf("block %q not found", a.BlockID)
		}
		if b.Kind != block.KindCall {
			return fmt.Errorf("block %q is a %s, not a call", a.BlockID, b.Kind)
		}
		if string(b.ReturnType) != a.ReturnType {
			return fmt.Errorf("block %q has return type %q, want %q", a.BlockID, b.ReturnType, a.ReturnType)
		}
		return nil

	case AssertRewritten:
		var rewritten []string
		for _, outcome := range result.Outcomes {
			rewritten = append(rewritten, outcome.Rewritten...)
		}
		if !sameSet(rewritten, a.BlockIDs) {
			return fmt.Errorf("rewritten %v, want %v", rewritten, a.BlockIDs)
		}
		return nil

	case AssertGroupCount:
		if len(result.Groups) != a.Count {
			return fmt.Errorf("published %d group(s), want %d", len(result.Groups), a.Count)
		}
		return nil

	case AssertRefreshCount:
		if result.Refreshes != a.Count {
			return fmt.Errorf("emitted %d refresh(es), want %d", result.Refreshes, a.Count)
		}
		return nil
	}
	return fmt.Errorf("unknown assertion type %q", a.Type)
}

func sameSet(got, want []string) bool {
	if len(got) != len(want) {
		return false
	}
	g := append([]string(nil), got...)
	w := append([]string(nil), want...)
	sort.Strings(g)
	sort.Strings(w)
	for i := range g {
		if g[i] != w[i] {
			return false
		}
	}
	return true
}
