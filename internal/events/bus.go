package events

import (
	"log/slog"
	"strconv"

	"github.com/google/uuid"

	"github.com/blocklab/prockit/internal/block"
)

// ChangeKind distinguishes structural change variants.
type ChangeKind int

const (
	// ChangeCreate records a block subtree appearing in the workspace.
	ChangeCreate ChangeKind = iota + 1
	// ChangeDelete records a block subtree being destroyed.
	ChangeDelete
	// ChangeMutate records an in-place edit of a block's procedure shape
	// (proc code, argument lists, warp, return type).
	ChangeMutate
	// ChangeMove records a block moving to new canvas coordinates.
	ChangeMove
)

// String returns the serialized form of a ChangeKind.
func (k ChangeKind) String() string {
	switch k {
	case ChangeCreate:
		return "create"
	case ChangeDelete:
		return "delete"
	case ChangeMutate:
		return "mutate"
	case ChangeMove:
		return "move"
	default:
		return "unknown"
	}
}

// Change is a single structural change with before/after snapshots.
// Before is nil for creates; After is nil for deletes.
type Change struct {
	Seq     int64           `json:"seq"`
	Kind    ChangeKind      `json:"kind"`
	BlockID string          `json:"block_id"`
	Before  *block.Snapshot `json:"before,omitempty"`
	After   *block.Snapshot `json:"after,omitempty"`
}

// Group is a batch of changes published as one undoable unit.
type Group struct {
	ID      string   `json:"id"`
	Seq     int64    `json:"seq"`
	Changes []Change `json:"changes"`
}

// GroupIDGenerator generates unique group IDs.
// Implemented by UUIDv7Generator (production) and FixedGenerator (tests).
type GroupIDGenerator interface {
	Generate() string
}

// UUIDv7Generator generates time-ordered UUID group IDs.
type UUIDv7Generator struct{}

// Generate returns a new UUIDv7 string.
func (UUIDv7Generator) Generate() string {
	return uuid.Must(uuid.NewV7()).String()
}

// FixedGenerator generates deterministic group IDs for tests:
// "<prefix>-1", "<prefix>-2", ...
type FixedGenerator struct {
	Prefix string
	n      int
}

// Generate returns the next deterministic ID.
func (g *FixedGenerator) Generate() string {
	g.n++
	prefix := g.Prefix
	if prefix == "" {
		prefix = "group"
	}
	return prefix + "-" + strconv.Itoa(g.n)
}

// Listener receives published groups. Listeners run synchronously on the
// mutation goroutine; a slow listener stalls the batch.
type Listener func(Group)

// RefreshListener receives the "refresh cached procedure listing" signal.
type RefreshListener func()

// Bus collects changes into groups and fans them out to listeners.
//
// Not safe for concurrent use. All methods must be called from the single
// mutation goroutine (see package doc).
type Bus struct {
	gen       GroupIDGenerator
	seq       int64
	depth     int
	current   *Group
	listeners []Listener
	refresh   []RefreshListener
}

// BusOption configures a Bus.
type BusOption func(*Bus)

// WithGroupIDGenerator overrides the group ID generator.
// Tests use FixedGenerator for deterministic traces.
func WithGroupIDGenerator(gen GroupIDGenerator) BusOption {
	return func(b *Bus) {
		b.gen = gen
	}
}

// NewBus creates a Bus with UUIDv7 group IDs.
func NewBus(opts ...BusOption) *Bus {
	b := &Bus{gen: UUIDv7Generator{}}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Subscribe registers a listener for published groups.
func (b *Bus) Subscribe(l Listener) {
	b.listeners = append(b.listeners, l)
}

// SubscribeRefresh registers a listener for the procedure-listing refresh
// signal.
func (b *Bus) SubscribeRefresh(l RefreshListener) {
	b.refresh = append(b.refresh, l)
}

// GroupScope delimits one change group. End is idempotent and must run even
// on error paths:
//
//	scope := bus.BeginGroup()
//	defer scope.End()
type GroupScope struct {
	bus   *Bus
	ended bool
}

// BeginGroup opens a change group. Nested calls join the outer group; only
// the outermost End publishes it.
func (b *Bus) BeginGroup() *GroupScope {
	b.depth++
	if b.depth == 1 {
		b.seq++
		b.current = &Group{
			ID:  b.gen.Generate(),
			Seq: b.seq,
		}
		slog.Debug("change group opened", "group_id", b.current.ID, "seq", b.current.Seq)
	}
	return &GroupScope{bus: b}
}

// End closes the scope. When the outermost scope ends, the group is
// published to all listeners. Empty groups are dropped silently.
func (s *GroupScope) End() {
	if s.ended {
		return
	}
	s.ended = true
	b := s.bus
	b.depth--
	if b.depth > 0 {
		return
	}
	group := b.current
	b.current = nil
	if group == nil || len(group.Changes) == 0 {
		return
	}
	slog.Info("change group published",
		"group_id", group.ID,
		"seq", group.Seq,
		"changes", len(group.Changes),
	)
	for _, l := range b.listeners {
		l(*group)
	}
}

// Record appends a change to the open group. A change recorded outside any
// group gets a single-change group of its own.
func (b *Bus) Record(kind ChangeKind, blockID string, before, after *block.Snapshot) {
	if b.current == nil {
		scope := b.BeginGroup()
		defer scope.End()
	}
	b.seq++
	b.current.Changes = append(b.current.Changes, Change{
		Seq:     b.seq,
		Kind:    kind,
		BlockID: blockID,
		Before:  before,
		After:   after,
	})
}

// RequestRefresh emits the procedure-listing refresh signal. The signal is
// deliberately separate from change groups: it fires once per operation
// that invalidated the cached listing, never per change.
func (b *Bus) RequestRefresh() {
	slog.Debug("procedure listing refresh requested")
	for _, l := range b.refresh {
		l()
	}
}

// Seq returns the current logical clock value. Used for testing and
// journal bookkeeping.
func (b *Bus) Seq() int64 {
	return b.seq
}

// InGroup reports whether a change group is currently open.
func (b *Bus) InGroup() bool {
	return b.depth > 0
}
