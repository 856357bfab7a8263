package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blocklab/prockit/internal/journal"
)

const soloDefDoc = `blocks:
  - id: def-bar
    kind: definition
    prototype:
      id: proto-bar
      kind: prototype
      proc_code: bar
`

// runCommand executes the CLI with the given args, capturing stdout.
func runCommand(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestValidateCommand(t *testing.T) {
	path := writeDoc(t, sampleDoc)

	out, err := runCommand(t, "validate", path)
	require.NoError(t, err)
	assert.Contains(t, out, "Valid workspace")
	assert.Contains(t, out, "1 procedure(s)")
}

func TestValidateCommand_BadDocument(t *testing.T) {
	path := writeDoc(t, "blocks:\n  - kind: nope\n")

	out, err := runCommand(t, "validate", path)
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, out, ErrCodeSchemaViolation)
}

func TestListCommand(t *testing.T) {
	path := writeDoc(t, sampleDoc)

	out, err := runCommand(t, "list", path)
	require.NoError(t, err)
	assert.Contains(t, out, "Value procedures (1):")
	assert.Contains(t, out, "foo")
}

func TestListCommand_JSON(t *testing.T) {
	path := writeDoc(t, sampleDoc)

	out, err := runCommand(t, "--format", "json", "list", path)
	require.NoError(t, err)

	var resp CLIResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)
}

func TestRenameCommand_WritesBack(t *testing.T) {
	path := writeDoc(t, sampleDoc)

	out, err := runCommand(t, "rename", path, "foo", "frobnicate", "--write")
	require.NoError(t, err)
	assert.Contains(t, out, `Renamed "foo" to "frobnicate"`)

	ws, err := LoadWorkspace(path)
	require.NoError(t, err)
	assert.Equal(t, "frobnicate", ws.Block("def-foo").DefinitionProcCode())
	assert.Equal(t, "frobnicate", ws.Block("call-foo").ProcCode, "call sites follow the rename")
}

func TestRenameCommand_CollisionSuffixes(t *testing.T) {
	doc := sampleDoc + `  - id: def-other
    kind: definition
    prototype:
      id: proto-other
      kind: prototype
      proc_code: taken
`
	path := writeDoc(t, doc)

	out, err := runCommand(t, "rename", path, "foo", "taken")
	require.NoError(t, err)
	assert.Contains(t, out, `"taken2"`)
}

func TestRenameCommand_UnknownProcedure(t *testing.T) {
	path := writeDoc(t, sampleDoc)

	out, err := runCommand(t, "rename", path, "ghost", "anything")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, out, ErrCodeUnknownProcedure)
}

func TestDeleteCommand_RefusedWithCallers(t *testing.T) {
	path := writeDoc(t, sampleDoc)

	out, err := runCommand(t, "delete", path, "foo")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "Delete refused")
	assert.Contains(t, out, "call-foo")

	// Nothing was mutated.
	ws, err := LoadWorkspace(path)
	require.NoError(t, err)
	assert.NotNil(t, ws.Block("def-foo"))
}

func TestDeleteCommand_Succeeds(t *testing.T) {
	path := writeDoc(t, soloDefDoc)

	out, err := runCommand(t, "delete", path, "bar", "--write")
	require.NoError(t, err)
	assert.Contains(t, out, `Deleted "bar"`)

	ws, err := LoadWorkspace(path)
	require.NoError(t, err)
	assert.Nil(t, ws.Block("def-bar"))
}

func TestInferCommand_JSON(t *testing.T) {
	path := writeDoc(t, sampleDoc)

	out, err := runCommand(t, "--format", "json", "infer", path)
	require.NoError(t, err)

	var resp struct {
		Status string         `json:"status"`
		Data   []InferredType `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	require.Len(t, resp.Data, 1)
	assert.Equal(t, "foo", resp.Data[0].ProcCode)
	assert.Equal(t, "reporter", resp.Data[0].ReturnType)
}

func TestReconcileCommand_RewritesDrift(t *testing.T) {
	// The document caches the call as a statement while the definition
	// body ends in a return: the call site must be rewritten.
	path := writeDoc(t, sampleDoc)

	out, err := runCommand(t, "reconcile", path, "--write")
	require.NoError(t, err)
	assert.Contains(t, out, "Rewrote 1 call site(s)")
	assert.Contains(t, out, "call-foo")

	ws, err := LoadWorkspace(path)
	require.NoError(t, err)
	assert.Equal(t, "reporter", string(ws.Block("call-foo").ReturnType))
}

func TestReconcileCommand_CheckMode(t *testing.T) {
	path := writeDoc(t, sampleDoc)

	_, err := runCommand(t, "reconcile", path, "--check")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
}

func TestReconcileCommand_NoDrift(t *testing.T) {
	path := writeDoc(t, soloDefDoc)

	out, err := runCommand(t, "reconcile", path, "--check")
	require.NoError(t, err)
	assert.Contains(t, out, "No drifted call sites")
}

func TestReconcileCommand_JournalsChanges(t *testing.T) {
	path := writeDoc(t, sampleDoc)
	journalPath := filepath.Join(t.TempDir(), "journal.db")

	_, err := runCommand(t, "reconcile", path, "--journal", journalPath)
	require.NoError(t, err)

	j, err := journal.Open(journalPath)
	require.NoError(t, err)
	defer j.Close()

	groups, err := j.ListGroups(context.Background())
	require.NoError(t, err)
	require.NotEmpty(t, groups, "the rewrite group was journaled")

	last := groups[len(groups)-1]
	assert.Len(t, last.Changes, 2, "destroy + rebuild of the drifted call")
}

func TestToolboxCommand(t *testing.T) {
	path := writeDoc(t, sampleDoc)

	out, err := runCommand(t, "toolbox", path)
	require.NoError(t, err)
	assert.Contains(t, out, "create_procedure")
	assert.Contains(t, out, "return_template")
	assert.Contains(t, out, "foo [reporter]")
}
