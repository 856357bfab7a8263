package harness

import (
	"encoding/json"
	"fmt"
	"testing"

	"github.com/sebdah/goldie/v2"
)

// TraceSnapshot captures a scenario execution for golden comparison:
// the edit outcomes and the shape of every published change group.
type TraceSnapshot struct {
	ScenarioName string        `json:"scenario_name"`
	Outcomes     []EditOutcome `json:"outcomes"`
	Groups       []TraceGroup  `json:"groups"`
	Refreshes    int           `json:"refreshes"`
}

// TraceGroup is the golden form of one change group. Changes are reduced
// to "kind block_id" lines; full snapshots would make golden files churn
// on every cosmetic field.
type TraceGroup struct {
	ID      string   `json:"id"`
	Seq     int64    `json:"seq"`
	Changes []string `json:"changes"`
}

// Snapshot reduces a result to its golden trace form.
func Snapshot(scenarioName string, result *Result) TraceSnapshot {
	snapshot := TraceSnapshot{
		ScenarioName: scenarioName,
		Outcomes:     result.Outcomes,
		Groups:       []TraceGroup{},
		Refreshes:    result.Refreshes,
	}
	for _, group := range result.Groups {
		tg := TraceGroup{ID: group.ID, Seq: group.Seq, Changes: []string{}}
		for _, change := range group.Changes {
			tg.Changes = append(tg.Changes, fmt.Sprintf("%s %s", change.Kind, change.BlockID))
		}
		snapshot.Groups = append(snapshot.Groups, tg)
	}
	return snapshot
}

// RunWithGolden executes a scenario, checks its assertions, and compares
// the trace against testdata/golden/{scenario.Name}.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
func RunWithGolden(t *testing.T, scenario *Scenario) error {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		return err
	}

	for _, failure := range RunAssertions(scenario, result) {
		t.Error(failure)
	}

	data, err := json.MarshalIndent(Snapshot(scenario.Name, result), "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, scenario.Name, data)

	return nil
}
