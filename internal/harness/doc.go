// Package harness provides conformance testing for procedure management.
//
// The harness loads a workspace document, applies a sequence of edits
// (rename, delete, reconcile), and validates the resulting workspace and
// change-group trace as executable contract tests.
//
// # Scenario Format
//
// Scenarios are defined in YAML files with the following structure:
//
//	name: scenario_name
//	description: "What this scenario validates"
//	workspace: path/to/workspace.yaml
//	edits:
//	  - rename: { old: foo, new: bar }
//	  - delete: { proc_code: baz }
//	  - reconcile: {}
//	assertions:
//	  - type: procedure_exists
//	    proc_code: bar
//	  - type: call_type
//	    block_id: c1
//	    return_type: reporter
//	  - type: group_count
//	    count: 1
//
// # Assertion Types
//
//   - procedure_exists: a definition with the proc code is present
//   - procedure_absent: no definition with the proc code remains
//   - call_type: a call block carries the given return type
//   - rewritten: a reconcile pass rewrote exactly these block IDs
//   - group_count: number of change groups published by the edits
//   - refresh_count: number of toolbox refresh signals emitted
//
// # Deterministic Testing
//
// Scenarios execute with a deterministic group ID generator so traces are
// identical across runs, enabling golden file comparison. Change groups
// published while the document is being loaded are not part of the trace;
// recording starts with the first edit.
package harness
