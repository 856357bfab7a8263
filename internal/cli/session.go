package cli

import (
	"github.com/blocklab/prockit/internal/journal"
	"github.com/blocklab/prockit/internal/workspace"
)

// attachJournal opens a change journal and subscribes it to the workspace
// bus so every group the command publishes is persisted. Returns a close
// function. An empty path is a no-op.
func attachJournal(ws *workspace.Workspace, path string) (func() error, error) {
	if path == "" {
		return func() error { return nil }, nil
	}
	j, err := journal.Open(path)
	if err != nil {
		return nil, err
	}
	ws.Bus().Subscribe(j.Listener())
	return j.Close, nil
}
