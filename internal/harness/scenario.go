package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Scenario defines a conformance test scenario: a workspace document, a
// sequence of edits, and assertions over the outcome.
type Scenario struct {
	// Name uniquely identifies this scenario. Also names the golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Workspace is the path to the workspace document, relative to the
	// scenario file location unless absolute.
	Workspace string `yaml:"workspace"`

	// Edits is the ordered list of operations to apply.
	Edits []EditStep `yaml:"edits"`

	// Assertions validate the final workspace and the change-group trace.
	// Optional: golden comparison can stand alone.
	Assertions []Assertion `yaml:"assertions,omitempty"`
}

// EditStep is one operation of a scenario. Exactly one field must be set.
type EditStep struct {
	Rename    *RenameEdit    `yaml:"rename,omitempty"`
	Delete    *DeleteEdit    `yaml:"delete,omitempty"`
	Reconcile *ReconcileEdit `yaml:"reconcile,omitempty"`
}

// RenameEdit renames a procedure and propagates the accepted name.
type RenameEdit struct {
	Old string `yaml:"old"`
	New string `yaml:"new"`
}

// DeleteEdit attempts a guarded delete of a procedure definition.
type DeleteEdit struct {
	ProcCode string `yaml:"proc_code"`
}

// ReconcileEdit runs one reconciliation pass. The document's cached
// definition types serve as the pre-edit snapshot.
type ReconcileEdit struct {
	AllowShapeOverride bool `yaml:"allow_shape_override,omitempty"`
}

// Assertion validates the final workspace or the trace.
type Assertion struct {
	// Type selects the assertion; see the package documentation.
	Type string `yaml:"type"`

	// ProcCode is used by procedure_exists and procedure_absent.
	ProcCode string `yaml:"proc_code,omitempty"`

	// BlockID and ReturnType are used by call_type.
	BlockID    string `yaml:"block_id,omitempty"`
	ReturnType string `yaml:"return_type,omitempty"`

	// BlockIDs is the expected rewrite set (rewritten).
	BlockIDs []string `yaml:"block_ids,omitempty"`

	// Count is used by group_count and refresh_count.
	Count int `yaml:"count,omitempty"`
}

// Assertion type constants.
const (
	AssertProcedureExists = "procedure_exists"
	AssertProcedureAbsent = "procedure_absent"
	AssertCallType        = "call_type"
	AssertRewritten       = "rewritten"
	AssertGroupCount      = "group_count"
	AssertRefreshCount    = "refresh_count"
)

// LoadScenario reads and parses a scenario YAML file. The workspace path
// is resolved relative to the scenario file. Returns an error if the file
// is malformed, contains unknown fields (typos), or is missing required
// fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true) // Reject unknown fields (catches typos)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if scenario.Workspace != "" && !filepath.IsAbs(scenario.Workspace) {
		scenario.Workspace = filepath.Join(filepath.Dir(path), scenario.Workspace)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if s.Workspace == "" {
		return fmt.Errorf("workspace is required")
	}
	if _, err := os.Stat(s.Workspace); os.IsNotExist(err) {
		return fmt.Errorf("workspace document not found: %s", s.Workspace)
	}
	if len(s.Edits) == 0 {
		return fmt.Errorf("edits list is required and must be non-empty")
	}

	for i, step := range s.Edits {
		if err := validateEdit(i, &step); err != nil {
			return err
		}
	}
	for i, assertion := range s.Assertions {
		if err := validateAssertion(i, &assertion); err != nil {
			return err
		}
	}
	return nil
}

func validateEdit(index int, step *EditStep) error {
	set := 0
	if step.Rename != nil {
		set++
		if step.Rename.Old == "" || step.Rename.New == "" {
			return fmt.Errorf("edits[%d].rename: old and new are required", index)
		}
	}
	if step.Delete != nil {
		set++
		if step.Delete.ProcCode == "" {
			return fmt.Errorf("edits[%d].delete: proc_code is required", index)
		}
	}
	if step.Reconcile != nil {
		set++
	}
	if set != 1 {
		return fmt.Errorf("edits[%d]: exactly one of rename, delete, reconcile must be set", index)
	}
	return nil
}

func validateAssertion(index int, a *Assertion) error {
	switch a.Type {
	case AssertProcedureExists, AssertProcedureAbsent:
		if a.ProcCode == "" {
			return fmt.Errorf("assertions[%d]: proc_code is required for %s", index, a.Type)
		}
	case AssertCallType:
		if a.BlockID == "" || a.ReturnType == "" {
			return fmt.Errorf("assertions[%d]: block_id and return_type are required for call_type", index)
		}
	case AssertRewritten:
		// Empty block_ids asserts that nothing was rewritten.
	case AssertGroupCount, AssertRefreshCount:
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for %s", index, a.Type)
		}
	case "":
		return fmt.Errorf("assertions[%d]: type is required", index)
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}
	return nil
}
