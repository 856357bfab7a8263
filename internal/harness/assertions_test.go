package harness

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blocklab/prockit/internal/block"
	"github.com/blocklab/prockit/internal/events"
	"github.com/blocklab/prockit/internal/registry"
	"github.com/blocklab/prockit/internal/testutil"
)

func sampleResult(t *testing.T) *Result {
	t.Helper()
	ws := testutil.NewWorkspace()
	testutil.MustAdd(ws, testutil.Definition("foo",
		testutil.Return("r1", testutil.Text("t1", "x"))))
	testutil.MustAdd(ws, testutil.Call("c1", "foo", block.ReturnReporter))

	return &Result{
		Workspace: ws,
		Registry:  registry.New(registry.Config{}),
		Outcomes: []EditOutcome{
			{Op: "reconcile", Rewritten: []string{"c1"}, Refreshed: true},
		},
		Groups:    []events.Group{{ID: "group-1", Seq: 1}},
		Refreshes: 1,
	}
}

func TestAssertions(t *testing.T) {
	result := sampleResult(t)

	pass := []Assertion{
		{Type: AssertProcedureExists, ProcCode: "foo"},
		{Type: AssertProcedureExists, ProcCode: "FOO"}, // case-insensitive identity
		{Type: AssertProcedureAbsent, ProcCode: "bar"},
		{Type: AssertCallType, BlockID: "c1", ReturnType: "reporter"},
		{Type: AssertRewritten, BlockIDs: []string{"c1"}},
		{Type: AssertGroupCount, Count: 1},
		{Type: AssertRefreshCount, Count: 1},
	}
	for _, a := range pass {
		a := a
		assert.NoError(t, checkAssertion(&a, result), "assertion %+v should pass", a)
	}

	fail := []Assertion{
		{Type: AssertProcedureExists, ProcCode: "bar"},
		{Type: AssertProcedureAbsent, ProcCode: "foo"},
		{Type: AssertCallType, BlockID: "c1", ReturnType: "boolean"},
		{Type: AssertCallType, BlockID: "ghost", ReturnType: "reporter"},
		{Type: AssertCallType, BlockID: "r1", ReturnType: "reporter"}, // not a call
		{Type: AssertRewritten, BlockIDs: []string{"c1", "c2"}},
		{Type: AssertRewritten},
		{Type: AssertGroupCount, Count: 0},
		{Type: AssertRefreshCount, Count: 2},
	}
	for _, a := range fail {
		a := a
		assert.Error(t, checkAssertion(&a, result), "assertion %+v should fail", a)
	}
}

func TestRunAssertions_CollectsAllFailures(t *testing.T) {
	result := sampleResult(t)
	scenario := &Scenario{
		Assertions: []Assertion{
			{Type: AssertProcedureExists, ProcCode: "foo"},
			{Type: AssertGroupCount, Count: 5},
			{Type: AssertRefreshCount, Count: 5},
		},
	}

	failures := RunAssertions(scenario, result)
	require.Len(t, failures, 2, "every failing assertion is reported")
	assert.Contains(t, failures[0].Error(), "group_count")
	assert.Contains(t, failures[1].Error(), "refresh_count")
}
