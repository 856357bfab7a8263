package harness

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blocklab/prockit/internal/events"
)

func TestScenarioGoldens(t *testing.T) {
	paths, err := filepath.Glob("testdata/scenarios/*.yaml")
	require.NoError(t, err)

	var scenarios []string
	for _, path := range paths {
		// Workspace documents live beside the scenarios that use them.
		if strings.HasSuffix(path, "_workspace.yaml") {
			continue
		}
		scenarios = append(scenarios, path)
	}
	require.NotEmpty(t, scenarios)

	for _, path := range scenarios {
		scenario, err := LoadScenario(path)
		require.NoError(t, err)
		t.Run(scenario.Name, func(t *testing.T) {
			require.NoError(t, RunWithGolden(t, scenario))
		})
	}
}

func TestSnapshotShape(t *testing.T) {
	result := &Result{
		Outcomes: []EditOutcome{{Op: "rename", Accepted: "bar"}},
		Groups: []events.Group{
			{
				ID:  "group-3",
				Seq: 5,
				Changes: []events.Change{
					{Seq: 6, Kind: events.ChangeMutate, BlockID: "def-foo"},
					{Seq: 7, Kind: events.ChangeMutate, BlockID: "c1"},
				},
			},
		},
	}

	snapshot := Snapshot("sample", result)
	assert.Equal(t, "sample", snapshot.ScenarioName)
	require.Len(t, snapshot.Groups, 1)
	assert.Equal(t, []string{"mutate def-foo", "mutate c1"}, snapshot.Groups[0].Changes)
}
