package harness

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blocklab/prockit/internal/block"
)

func TestRun_RenameScenario(t *testing.T) {
	scenario, err := LoadScenario("testdata/scenarios/rename_propagates.yaml")
	require.NoError(t, err)

	result, err := Run(scenario)
	require.NoError(t, err)

	require.Len(t, result.Outcomes, 1)
	assert.Equal(t, "rename", result.Outcomes[0].Op)
	assert.Equal(t, "bar", result.Outcomes[0].Accepted)

	assert.Equal(t, "bar", result.Workspace.Block("def-foo").DefinitionProcCode())
	assert.Equal(t, "bar", result.Workspace.Block("c1").ProcCode)

	require.Len(t, result.Groups, 1, "load groups are not part of the trace")
	assert.Len(t, result.Groups[0].Changes, 2)
}

func TestRun_ReconcileScenario(t *testing.T) {
	scenario, err := LoadScenario("testdata/scenarios/reconcile_drift.yaml")
	require.NoError(t, err)

	result, err := Run(scenario)
	require.NoError(t, err)

	require.Len(t, result.Outcomes, 1)
	assert.Equal(t, []string{"c1"}, result.Outcomes[0].Rewritten)
	assert.True(t, result.Outcomes[0].Refreshed)
	assert.Equal(t, 1, result.Refreshes)

	call := result.Workspace.Block("c1")
	require.NotNil(t, call)
	assert.Equal(t, block.ReturnReporter, call.ReturnType)
	assert.Equal(t, block.ShapeReporter, call.Shape)
}

func TestRun_DeleteScenario(t *testing.T) {
	scenario, err := LoadScenario("testdata/scenarios/delete_guarded.yaml")
	require.NoError(t, err)

	result, err := Run(scenario)
	require.NoError(t, err)

	require.Len(t, result.Outcomes, 2)
	assert.True(t, result.Outcomes[0].Deleted)
	assert.False(t, result.Outcomes[1].Deleted, "delete with callers is refused")

	assert.Nil(t, result.Registry.DefinitionBlock(result.Workspace, "alpha"))
	assert.NotNil(t, result.Registry.DefinitionBlock(result.Workspace, "beta"))
}

func TestRun_UnknownProcedureFails(t *testing.T) {
	scenario, err := LoadScenario("testdata/scenarios/rename_propagates.yaml")
	require.NoError(t, err)
	scenario.Edits = []EditStep{{Rename: &RenameEdit{Old: "ghost", New: "anything"}}}

	_, err = Run(scenario)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "edits[0]")
}

func TestRun_AssertionsPass(t *testing.T) {
	for _, name := range []string{"rename_propagates", "reconcile_drift", "delete_guarded"} {
		t.Run(name, func(t *testing.T) {
			scenario, err := LoadScenario("testdata/scenarios/" + name + ".yaml")
			require.NoError(t, err)

			result, err := Run(scenario)
			require.NoError(t, err)

			for _, failure := range RunAssertions(scenario, result) {
				t.Error(failure)
			}
		})
	}
}
