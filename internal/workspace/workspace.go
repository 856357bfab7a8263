package workspace

import (
	"fmt"
	"log/slog"

	"github.com/blocklab/prockit/internal/block"
	"github.com/blocklab/prockit/internal/events"
)

// Workspace is a mutable graph of block subtrees.
//
// Not safe for concurrent use: all mutation happens synchronously on one
// goroutine (see events package doc).
type Workspace struct {
	flyout bool
	bus    *events.Bus
	tops   []*block.Block
	index  map[string]*block.Block
}

// Option configures a Workspace.
type Option func(*Workspace)

// WithBus attaches an existing change bus. Workspaces sharing a host share
// one bus so cross-workspace operations land in one group.
func WithBus(bus *events.Bus) Option {
	return func(w *Workspace) {
		w.bus = bus
	}
}

// New creates an empty committing workspace.
func New(opts ...Option) *Workspace {
	w := &Workspace{
		index: make(map[string]*block.Block),
	}
	for _, opt := range opts {
		opt(w)
	}
	if w.bus == nil {
		w.bus = events.NewBus()
	}
	return w
}

// NewFlyout creates a non-committing preview workspace (palette/flyout).
func NewFlyout(opts ...Option) *Workspace {
	w := New(opts...)
	w.flyout = true
	return w
}

// IsFlyout reports whether this is a non-committing preview workspace.
func (w *Workspace) IsFlyout() bool {
	return w.flyout
}

// Bus returns the change bus shared by all mutations of this workspace.
func (w *Workspace) Bus() *events.Bus {
	return w.bus
}

// TopBlocks returns the top-level subtree roots in insertion order.
// The returned slice is a copy; mutating it does not affect the workspace.
func (w *Workspace) TopBlocks() []*block.Block {
	out := make([]*block.Block, len(w.tops))
	copy(out, w.tops)
	return out
}

// AllBlocks returns every live block, walking top-level subtrees in
// insertion order and each subtree in pre-order.
func (w *Workspace) AllBlocks() []*block.Block {
	var out []*block.Block
	for _, top := range w.tops {
		out = append(out, top.Descendants()...)
	}
	return out
}

// Block returns the live block with the given ID, or nil.
func (w *Workspace) Block(id string) *block.Block {
	return w.index[id]
}

// Len returns the number of live blocks.
func (w *Workspace) Len() int {
	return len(w.index)
}

// AddTop registers a new top-level subtree and records its creation.
// Returns an error if any block ID in the subtree is already live.
func (w *Workspace) AddTop(b *block.Block) error {
	if b == nil {
		return fmt.Errorf("add top: nil block")
	}
	if b.Parent != nil {
		return fmt.Errorf("add top: block %s has a parent", b.ID)
	}
	for _, d := range b.Descendants() {
		if d.ID == "" {
			d.ID = block.NewID()
		}
		if _, exists := w.index[d.ID]; exists {
			return fmt.Errorf("add top: duplicate block id %s", d.ID)
		}
	}
	for _, d := range b.Descendants() {
		w.index[d.ID] = d
	}
	w.tops = append(w.tops, b)
	w.bus.Record(events.ChangeCreate, b.ID, nil, block.Serialize(b))
	return nil
}

// Detach unplugs a block from its parent, input socket, or stack position,
// making it a top-level subtree. Detach emits no event of its own: it is
// always half of a larger grouped operation (a shape rebuild, a drag).
func (w *Workspace) Detach(b *block.Block) {
	if b == nil || b.Parent == nil {
		return
	}
	parent := b.Parent
	switch {
	case parent.Next == b:
		parent.Next = nil
	case parent.Prototype == b:
		parent.Prototype = nil
	case parent.Body == b:
		parent.Body = nil
	default:
		for name, in := range parent.Inputs {
			if in == b {
				delete(parent.Inputs, name)
				break
			}
		}
	}
	b.Parent = nil
	w.tops = append(w.tops, b)
}

// Destroy disposes an entire subtree and records its deletion. The block
// must be live in this workspace.
func (w *Workspace) Destroy(b *block.Block) error {
	if b == nil {
		return fmt.Errorf("destroy: nil block")
	}
	if w.index[b.ID] != b {
		return fmt.Errorf("destroy: block %s not in workspace", b.ID)
	}
	before := block.Serialize(b)
	w.Detach(b)
	for _, d := range b.Descendants() {
		delete(w.index, d.ID)
	}
	w.removeTop(b)
	w.bus.Record(events.ChangeDelete, b.ID, before, nil)
	slog.Debug("block destroyed", "block_id", b.ID, "kind", b.Kind.String())
	return nil
}

// Rebuild instantiates a fresh subtree from a snapshot at the given canvas
// position and records its creation. Used by the shape-rewrite protocol:
// the old block is destroyed first, then rebuilt from a patched snapshot.
func (w *Workspace) Rebuild(snap *block.Snapshot, x, y int64) (*block.Block, error) {
	if snap == nil {
		return nil, fmt.Errorf("rebuild: nil snapshot")
	}
	b := snap.Build()
	b.X = x
	b.Y = y
	if err := w.AddTop(b); err != nil {
		return nil, fmt.Errorf("rebuild: %w", err)
	}
	return b, nil
}

// Move repositions a top-level subtree and records the move.
func (w *Workspace) Move(b *block.Block, x, y int64) error {
	if b == nil || w.index[b.ID] != b {
		return fmt.Errorf("move: block not in workspace")
	}
	if b.Parent != nil {
		return fmt.Errorf("move: block %s is not top-level", b.ID)
	}
	before := block.Serialize(b)
	b.X = x
	b.Y = y
	w.bus.Record(events.ChangeMove, b.ID, before, block.Serialize(b))
	return nil
}

// RecordMutation records an in-place procedure shape edit. The caller takes
// the before snapshot, applies the edit, then calls RecordMutation with
// both snapshots.
func (w *Workspace) RecordMutation(b *block.Block, before, after *block.Snapshot) {
	w.bus.Record(events.ChangeMutate, b.ID, before, after)
}

func (w *Workspace) removeTop(b *block.Block) {
	for i, top := range w.tops {
		if top == b {
			w.tops = append(w.tops[:i], w.tops[i+1:]...)
			return
		}
	}
}
