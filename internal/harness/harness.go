package harness

import (
	"fmt"

	"github.com/blocklab/prockit/internal/block"
	"github.com/blocklab/prockit/internal/cli"
	"github.com/blocklab/prockit/internal/events"
	"github.com/blocklab/prockit/internal/reconcile"
	"github.com/blocklab/prockit/internal/registry"
	"github.com/blocklab/prockit/internal/workspace"
)

// EditOutcome records what one edit step did.
type EditOutcome struct {
	Op        string   `json:"op"`
	Accepted  string   `json:"accepted,omitempty"`
	Deleted   bool     `json:"deleted,omitempty"`
	Rewritten []string `json:"rewritten,omitempty"`
	Refreshed bool     `json:"refreshed,omitempty"`
}

// Result is the outcome of running a scenario.
type Result struct {
	Workspace *workspace.Workspace
	Registry  *registry.Registry
	Outcomes  []EditOutcome
	Groups    []events.Group
	Refreshes int
}

// Run executes a scenario and returns the result.
//
// The workspace document is loaded onto a bus with a deterministic group
// ID generator. Trace recording starts after the load, so the captured
// groups are exactly those published by the edits.
func Run(scenario *Scenario) (*Result, error) {
	bus := events.NewBus(events.WithGroupIDGenerator(&events.FixedGenerator{Prefix: "group"}))

	ws, err := cli.LoadWorkspace(scenario.Workspace, workspace.WithBus(bus))
	if err != nil {
		return nil, fmt.Errorf("loading workspace: %w", err)
	}

	reg := registry.New(registry.Config{})
	result := &Result{
		Workspace: ws,
		Registry:  reg,
		Outcomes:  []EditOutcome{},
		Groups:    []events.Group{},
	}
	bus.Subscribe(func(g events.Group) { result.Groups = append(result.Groups, g) })
	bus.SubscribeRefresh(func() { result.Refreshes++ })

	for i, step := range scenario.Edits {
		outcome, err := applyEdit(ws, reg, step)
		if err != nil {
			return nil, fmt.Errorf("edits[%d]: %w", i, err)
		}
		result.Outcomes = append(result.Outcomes, outcome)
	}
	return result, nil
}

func applyEdit(ws *workspace.Workspace, reg *registry.Registry, step EditStep) (EditOutcome, error) {
	switch {
	case step.Rename != nil:
		accepted, err := reg.Rename(step.Rename.Old, step.Rename.New, ws)
		if err != nil {
			return EditOutcome{}, err
		}
		return EditOutcome{Op: "rename", Accepted: accepted}, nil

	case step.Delete != nil:
		deleted, err := reg.DeleteDefinition(step.Delete.ProcCode, ws, nil)
		if err != nil {
			return EditOutcome{}, err
		}
		return EditOutcome{Op: "delete", Deleted: deleted}, nil

	case step.Reconcile != nil:
		cfg := reconcile.DefaultConfig()
		cfg.AllowCallShapeOverride = step.Reconcile.AllowShapeOverride
		rec := reconcile.New(reg, cfg)

		passResult := rec.Reconcile(ws, cachedTypes(ws, reg))
		return EditOutcome{
			Op:        "reconcile",
			Rewritten: passResult.Rewritten,
			Refreshed: passResult.Refreshed,
		}, nil
	}
	return EditOutcome{}, fmt.Errorf("empty edit step")
}

// cachedTypes reads the definition return types stored in the document,
// keyed like a reconciler type snapshot. These are the pre-edit truth the
// document carried; inference over the loaded bodies gives the post-edit
// truth.
func cachedTypes(ws *workspace.Workspace, reg *registry.Registry) map[string]block.ReturnType {
	types := map[string]block.ReturnType{}
	for _, code := range reg.ProcCodes(ws) {
		def := reg.DefinitionBlock(ws, code)
		rt := def.ReturnType
		if !block.ValidReturnTypes[rt] {
			rt = block.ReturnStatement
		}
		types[reg.Names().Key(code)] = rt
	}
	return types
}
