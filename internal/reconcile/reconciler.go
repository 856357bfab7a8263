package reconcile

import (
	"fmt"
	"log/slog"

	"github.com/blocklab/prockit/internal/block"
	"github.com/blocklab/prockit/internal/registry"
	"github.com/blocklab/prockit/internal/workspace"
)

// Config holds the reconciler's behavior toggles, supplied by the host at
// configuration time.
type Config struct {
	// AllowCallShapeOverride lets users manually override a call site's
	// inferred shape. When set, a drifted call site is only rewritten if
	// the definition's type itself changed during the edit batch.
	AllowCallShapeOverride bool

	// EnableReturnsByDefault makes the return-value template block always
	// available in the toolbox, rather than opt-in once a reporter or
	// boolean procedure exists.
	EnableReturnsByDefault bool

	// EnforceTypes enables call-site rewriting. When disabled, passes
	// still compute drift and refresh signals but leave call sites alone.
	EnforceTypes bool
}

// DefaultConfig returns the production defaults: types enforced, no manual
// shape override, return block opt-in.
func DefaultConfig() Config {
	return Config{EnforceTypes: true}
}

// Reconciler recomputes procedure return types and rewrites drifted call
// sites. It shares the registry's name comparer so both components agree
// on procedure identity.
type Reconciler struct {
	reg *registry.Registry
	cfg Config
}

// New creates a Reconciler.
func New(reg *registry.Registry, cfg Config) *Reconciler {
	return &Reconciler{reg: reg, cfg: cfg}
}

// Result describes one reconciliation pass.
type Result struct {
	// Final maps folded proc code to the freshly inferred return type.
	Final map[string]block.ReturnType
	// Rewritten lists the IDs of call sites rebuilt during the pass.
	Rewritten []string
	// Refreshed reports whether the cached-listing refresh was requested.
	Refreshed bool
}

// SnapshotTypes infers the return type of every definition in the
// workspace, keyed by folded proc code. Called at batch start to capture
// initialTypes; the same computation produces finalTypes at batch end.
//
// Snapshots are ephemeral: recomputed each pass and discarded after use.
func (r *Reconciler) SnapshotTypes(ws *workspace.Workspace) map[string]block.ReturnType {
	names := r.reg.Names()
	types := make(map[string]block.ReturnType)
	for _, top := range ws.TopBlocks() {
		if top.InsertionMarker || top.Kind != block.KindDefinition {
			continue
		}
		code := top.DefinitionProcCode()
		if code == "" {
			continue
		}
		types[names.Key(code)] = InferReturnType(top)
	}
	return types
}

// Reconcile runs one pass: recompute final types, rewrite drifted top-level
// call sites, and request a listing refresh iff a type changed between the
// snapshots. All rewrites happen inside one grouped notification.
func (r *Reconciler) Reconcile(ws *workspace.Workspace, initial map[string]block.ReturnType) Result {
	names := r.reg.Names()
	final := r.SnapshotTypes(ws)
	result := Result{Final: final}

	// Keep each definition's cached type current; the cache drives the
	// has-return partition in listings. Derived data, so no change event.
	for _, top := range ws.TopBlocks() {
		if top.InsertionMarker || top.Kind != block.KindDefinition {
			continue
		}
		if t, ok := final[names.Key(top.DefinitionProcCode())]; ok {
			top.ReturnType = t
		}
	}

	scope := ws.Bus().BeginGroup()
	defer scope.End()

	for _, top := range ws.TopBlocks() {
		if top.InsertionMarker || top.Kind != block.KindCall {
			continue
		}
		if top.Next != nil {
			// A call site mid-stack is structurally bound to its position
			// and assumed to already match.
			continue
		}
		key := names.Key(top.ProcCode)
		initialType, inInitial := initial[key]
		finalType, inFinal := final[key]
		if !inInitial || !inFinal {
			continue
		}
		if top.ReturnType == finalType {
			continue
		}
		if r.cfg.AllowCallShapeOverride && initialType == finalType {
			// The user chose this shape and the definition didn't change;
			// leave the call site as they set it.
			continue
		}
		if !r.cfg.EnforceTypes {
			slog.Debug("call site drift detected, enforcement disabled",
				"block_id", top.ID,
				"proc_code", top.ProcCode,
				"cached", string(top.ReturnType),
				"inferred", string(finalType),
			)
			continue
		}
		rebuilt, err := r.applyReturnType(ws, top, finalType)
		if err != nil {
			slog.Error("call site rewrite failed",
				"error", err,
				"block_id", top.ID,
				"proc_code", top.ProcCode,
				"return_type", string(finalType),
			)
			continue
		}
		result.Rewritten = append(result.Rewritten, rebuilt.ID)
	}

	for key, initialType := range initial {
		if finalType, ok := final[key]; ok && finalType != initialType {
			result.Refreshed = true
			break
		}
	}
	if result.Refreshed {
		ws.Bus().RequestRefresh()
	}

	slog.Info("reconciliation pass complete",
		"definitions", len(final),
		"rewritten", len(result.Rewritten),
		"refreshed", result.Refreshed,
	)
	return result
}

// applyReturnType rewrites a call site to a new return type. Shape is
// structural for the rendering primitive, so the rewrite is a destructive
// rebuild: detach, snapshot, destroy, patch the snapshot's return type,
// reinstantiate at the original canvas position.
func (r *Reconciler) applyReturnType(ws *workspace.Workspace, call *block.Block, rt block.ReturnType) (*block.Block, error) {
	x, y := call.X, call.Y
	ws.Detach(call)
	snap := block.Serialize(call)
	if err := ws.Destroy(call); err != nil {
		return nil, fmt.Errorf("apply return type: %w", err)
	}
	snap.ReturnType = string(rt)
	rebuilt, err := ws.Rebuild(snap, x, y)
	if err != nil {
		return nil, fmt.Errorf("apply return type: %w", err)
	}
	return rebuilt, nil
}
