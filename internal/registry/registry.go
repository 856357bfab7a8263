package registry

import (
	"log/slog"
	"sort"
	"strconv"

	"golang.org/x/text/language"

	"github.com/blocklab/prockit/internal/block"
	"github.com/blocklab/prockit/internal/workspace"
)

// Config holds registry construction parameters.
type Config struct {
	// Locale selects the collation rules for name matching.
	// The zero value falls back to English.
	Locale language.Tag
}

// Registry answers procedure identity queries and performs the grouped
// rename and delete operations.
type Registry struct {
	names *block.NameComparer
}

// New creates a Registry with the given configuration.
func New(cfg Config) *Registry {
	tag := cfg.Locale
	if tag == language.Und {
		tag = language.English
	}
	return &Registry{names: block.NewNameComparer(tag)}
}

// Names returns the comparer used for all name matching. The reconciler
// shares it so both components agree on procedure identity.
func (r *Registry) Names() *block.NameComparer {
	return r.names
}

// ListDefinitions enumerates every definition block in the workspace and
// partitions by whether the procedure produces a return value. Each
// partition is sorted case-insensitively by proc code; ties preserve
// discovery order.
func (r *Registry) ListDefinitions(ws *workspace.Workspace) (noReturn, hasReturn []*block.Block) {
	for _, top := range ws.TopBlocks() {
		if top.InsertionMarker || top.Kind != block.KindDefinition {
			continue
		}
		if top.HasReturnValue() {
			hasReturn = append(hasReturn, top)
		} else {
			noReturn = append(noReturn, top)
		}
	}
	r.sortByProcCode(noReturn)
	r.sortByProcCode(hasReturn)
	return noReturn, hasReturn
}

func (r *Registry) sortByProcCode(defs []*block.Block) {
	sort.SliceStable(defs, func(i, j int) bool {
		return r.names.Compare(defs[i].DefinitionProcCode(), defs[j].DefinitionProcCode()) < 0
	})
}

// IsNameLegal reports whether no definition other than exclude already uses
// the name, under case/locale-insensitive comparison. Exclude may be the
// definition block or its nested prototype.
func (r *Registry) IsNameLegal(name string, ws *workspace.Workspace, exclude *block.Block) bool {
	for _, top := range ws.TopBlocks() {
		if top.InsertionMarker || top.Kind != block.KindDefinition {
			continue
		}
		if top == exclude || (top.Prototype != nil && top.Prototype == exclude) {
			continue
		}
		if r.names.Equal(top.DefinitionProcCode(), name) {
			return false
		}
	}
	return true
}

// FindLegalName resolves proposed to a unique name by appending or
// incrementing a trailing numeric suffix ("foo" -> "foo2" -> "foo3").
// Already-legal names are returned unchanged. Blocks in a flyout skip
// collision checking entirely: flyout contents never commit.
func (r *Registry) FindLegalName(proposed string, ws *workspace.Workspace, exclude *block.Block) string {
	if ws.IsFlyout() {
		return proposed
	}
	name := proposed
	for !r.IsNameLegal(name, ws, exclude) {
		name = bumpSuffix(name)
	}
	return name
}

// bumpSuffix increments a trailing decimal suffix, starting at 2 when none
// is present.
func bumpSuffix(name string) string {
	i := len(name)
	for i > 0 && name[i-1] >= '0' && name[i-1] <= '9' {
		i--
	}
	base, digits := name[:i], name[i:]
	if digits == "" {
		return base + "2"
	}
	n, err := strconv.Atoi(digits)
	if err != nil {
		// Suffix too large for int; treat it as part of the base.
		return name + "2"
	}
	return base + strconv.Itoa(n+1)
}

// Rename renames a procedure and propagates the accepted name to every call
// site as one atomic batch. Returns the accepted name, which may differ
// from newName when a collision was resolved by suffixing.
func (r *Registry) Rename(oldName, newName string, ws *workspace.Workspace) (string, error) {
	def := r.DefinitionBlock(ws, oldName)
	if def == nil {
		return "", &MissingPrereqError{What: "definition", ProcCode: oldName}
	}
	if def.Prototype == nil {
		return "", &MissingPrereqError{What: "prototype", ProcCode: oldName}
	}

	accepted := r.FindLegalName(newName, ws, def)
	if accepted == oldName {
		return accepted, nil
	}

	scope := ws.Bus().BeginGroup()
	defer scope.End()

	before := block.Serialize(def)
	def.Prototype.ProcCode = accepted
	ws.RecordMutation(def, before, block.Serialize(def))

	callers := r.Callers(oldName, ws, nil, true)
	for _, call := range callers {
		callBefore := block.Serialize(call)
		call.ProcCode = accepted
		ws.RecordMutation(call, callBefore, block.Serialize(call))
	}

	slog.Info("procedure renamed",
		"old", oldName,
		"new", accepted,
		"callers", len(callers),
	)
	return accepted, nil
}

// Callers collects every call site referencing procCode, walking each
// top-level subtree. The subtree rooted at definitionRoot is skipped unless
// allowRecursive is set, suppressing recursive self-calls. Insertion
// markers are excluded throughout.
func (r *Registry) Callers(procCode string, ws *workspace.Workspace, definitionRoot *block.Block, allowRecursive bool) []*block.Block {
	var out []*block.Block
	for _, top := range ws.TopBlocks() {
		if top.InsertionMarker {
			continue
		}
		if !allowRecursive && definitionRoot != nil && top == definitionRoot {
			continue
		}
		for _, b := range top.Descendants() {
			if b.InsertionMarker || b.Kind != block.KindCall {
				continue
			}
			if r.names.Equal(b.ProcCode, procCode) {
				out = append(out, b)
			}
		}
	}
	return out
}

// DeleteDefinition disposes a procedure's definition subtree as one atomic
// batch and signals the host to refresh its cached procedure listing.
// Refuses with (false, nil) and no mutation when any caller exists;
// recursive self-calls do not block deletion.
func (r *Registry) DeleteDefinition(procCode string, ws *workspace.Workspace, definitionRoot *block.Block) (bool, error) {
	if definitionRoot == nil {
		definitionRoot = r.DefinitionBlock(ws, procCode)
	}
	if definitionRoot == nil {
		return false, &MissingPrereqError{What: "definition", ProcCode: procCode}
	}

	if callers := r.Callers(procCode, ws, definitionRoot, false); len(callers) > 0 {
		slog.Debug("delete refused: callers exist",
			"proc_code", procCode,
			"callers", len(callers),
		)
		return false, nil
	}

	scope := ws.Bus().BeginGroup()
	defer scope.End()

	if err := ws.Destroy(definitionRoot); err != nil {
		return false, err
	}
	ws.Bus().RequestRefresh()

	slog.Info("procedure deleted", "proc_code", procCode)
	return true, nil
}

// DefinitionBlock locates the definition block whose proc code matches, by
// linear scan of top-level subtrees. Returns nil when absent.
func (r *Registry) DefinitionBlock(ws *workspace.Workspace, procCode string) *block.Block {
	for _, top := range ws.TopBlocks() {
		if top.InsertionMarker || top.Kind != block.KindDefinition {
			continue
		}
		if r.names.Equal(top.DefinitionProcCode(), procCode) {
			return top
		}
	}
	return nil
}

// PrototypeBlock locates the nested prototype block for a proc code.
// Returns nil when absent.
func (r *Registry) PrototypeBlock(ws *workspace.Workspace, procCode string) *block.Block {
	def := r.DefinitionBlock(ws, procCode)
	if def == nil {
		return nil
	}
	return def.Prototype
}

// ProcCodes returns the distinct proc codes of all definitions, sorted
// case-insensitively. Used by the toolbox category builder.
func (r *Registry) ProcCodes(ws *workspace.Workspace) []string {
	var codes []string
	for _, top := range ws.TopBlocks() {
		if top.InsertionMarker || top.Kind != block.KindDefinition {
			continue
		}
		code := top.DefinitionProcCode()
		if code == "" {
			continue
		}
		dup := false
		for _, seen := range codes {
			if r.names.Equal(seen, code) {
				dup = true
				break
			}
		}
		if !dup {
			codes = append(codes, code)
		}
	}
	sort.SliceStable(codes, func(i, j int) bool {
		return r.names.Compare(codes[i], codes[j]) < 0
	})
	return codes
}
