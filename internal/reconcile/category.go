package reconcile

import (
	"github.com/blocklab/prockit/internal/block"
	"github.com/blocklab/prockit/internal/workspace"
)

// Item types for toolbox category descriptors.
const (
	ItemButton = "button"
	ItemBlock  = "block"
)

// Actions carried by button items.
const (
	ActionCreateProcedure = "create_procedure"
	ActionReturnHelp      = "return_help"
)

// Template opcodes carried by block items.
const (
	TemplateReturn = "return_template"
	TemplateCall   = "call_template"
)

// Item is one entry of the toolbox procedure category.
type Item struct {
	Type       string `json:"type"`
	Action     string `json:"action,omitempty"`
	Template   string `json:"template,omitempty"`
	ProcCode   string `json:"proc_code,omitempty"`
	ReturnType string `json:"return_type,omitempty"` // omitted for plain statements
}

// BuildCategory produces the toolbox procedure category in order: the
// "create new procedure" action; the return help action and return-value
// template (only when returns are enabled by default or at least one
// reporter/boolean procedure exists); then one call template per distinct
// proc code sorted case-insensitively, annotated with the procedure's
// current inferred return type.
func (r *Reconciler) BuildCategory(ws *workspace.Workspace) []Item {
	items := []Item{
		{Type: ItemButton, Action: ActionCreateProcedure},
	}

	names := r.reg.Names()
	types := make(map[string]block.ReturnType)
	anyReturns := false
	for _, top := range ws.TopBlocks() {
		if top.InsertionMarker || top.Kind != block.KindDefinition {
			continue
		}
		code := top.DefinitionProcCode()
		if code == "" {
			continue
		}
		t := InferReturnType(top)
		types[names.Key(code)] = t
		if t != block.ReturnStatement {
			anyReturns = true
		}
	}

	if r.cfg.EnableReturnsByDefault || anyReturns {
		items = append(items,
			Item{Type: ItemButton, Action: ActionReturnHelp},
			Item{Type: ItemBlock, Template: TemplateReturn},
		)
	}

	for _, code := range r.reg.ProcCodes(ws) {
		item := Item{
			Type:     ItemBlock,
			Template: TemplateCall,
			ProcCode: code,
		}
		if t := types[names.Key(code)]; t != block.ReturnStatement && t != "" {
			item.ReturnType = string(t)
		}
		items = append(items, item)
	}
	return items
}
