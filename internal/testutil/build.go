// Package testutil provides deterministic workspace builders for tests.
//
// Builders assign stable, human-readable block IDs derived from the proc
// code or a caller-supplied ID so golden traces are byte-identical across
// runs. Production code uses block.NewID (UUIDv7) instead.
package testutil

import (
	"fmt"

	"github.com/blocklab/prockit/internal/block"
	"github.com/blocklab/prockit/internal/events"
	"github.com/blocklab/prockit/internal/workspace"
)

// NewWorkspace creates a committing workspace whose bus uses deterministic
// group IDs ("g-1", "g-2", ...).
func NewWorkspace() *workspace.Workspace {
	bus := events.NewBus(events.WithGroupIDGenerator(&events.FixedGenerator{Prefix: "g"}))
	return workspace.New(workspace.WithBus(bus))
}

// Definition builds a definition block with a nested prototype and the
// given body chain. Statement blocks are chained in order.
func Definition(procCode string, body ...*block.Block) *block.Block {
	def := &block.Block{
		ID:   "def:" + procCode,
		Kind: block.KindDefinition,
	}
	def.SetPrototype(&block.Block{
		ID:       "proto:" + procCode,
		Kind:     block.KindPrototype,
		ProcCode: procCode,
	})
	if len(body) > 0 {
		first := body[0]
		for _, stmt := range body[1:] {
			first.AppendStatement(stmt)
		}
		def.SetBody(first)
	}
	return def
}

// Call builds a call-site block with a stable ID and cached return type.
func Call(id, procCode string, rt block.ReturnType) *block.Block {
	return &block.Block{
		ID:         id,
		Kind:       block.KindCall,
		ProcCode:   procCode,
		ReturnType: rt,
		Shape:      block.ShapeForReturnType(rt),
	}
}

// Return builds a return statement. A nil value leaves the slot empty.
func Return(id string, value *block.Block) *block.Block {
	ret := &block.Block{ID: id, Kind: block.KindReturn}
	if value != nil {
		ret.SetInput("VALUE", value)
	}
	return ret
}

// Bool builds a hexagonal boolean literal expression.
func Bool(id string) *block.Block {
	return &block.Block{ID: id, Kind: block.KindOther, Shape: block.ShapeBoolean}
}

// Text builds a round reporter literal carrying a text field.
func Text(id, value string) *block.Block {
	return &block.Block{
		ID:     id,
		Kind:   block.KindOther,
		Shape:  block.ShapeReporter,
		Fields: map[string]string{"TEXT": value},
	}
}

// Stmt builds a plain statement block with no procedure role.
func Stmt(id string) *block.Block {
	return &block.Block{ID: id, Kind: block.KindOther}
}

// MustAdd adds a top-level block and panics on failure. Use only in tests
// where the builder guarantees unique IDs.
func MustAdd(ws *workspace.Workspace, b *block.Block) *block.Block {
	if err := ws.AddTop(b); err != nil {
		panic(fmt.Sprintf("testutil: add top: %v", err))
	}
	return b
}
