package block

import (
	"sort"

	"github.com/google/uuid"
)

// Kind distinguishes the roles a block can play in the procedure graph.
type Kind int

const (
	// KindOther is any block with no procedure role (literals, operators,
	// ordinary statements).
	KindOther Kind = iota
	// KindDefinition is the authoring-time representation of a procedure.
	// It owns a nested prototype and an ordered statement body.
	KindDefinition
	// KindPrototype is the signature descriptor nested inside a definition.
	KindPrototype
	// KindCall is a call site referencing a procedure by proc code.
	KindCall
	// KindReturn is a return statement inside a definition body.
	KindReturn
)

// String returns the serialized form of a Kind.
func (k Kind) String() string {
	switch k {
	case KindDefinition:
		return "definition"
	case KindPrototype:
		return "prototype"
	case KindCall:
		return "call"
	case KindReturn:
		return "return"
	default:
		return "other"
	}
}

// KindFromString parses a serialized kind. Unknown strings map to KindOther.
func KindFromString(s string) Kind {
	switch s {
	case "definition":
		return KindDefinition
	case "prototype":
		return KindPrototype
	case "call":
		return KindCall
	case "return":
		return KindReturn
	default:
		return KindOther
	}
}

// ReturnType is the shape/behavior contract of a procedure's call sites.
type ReturnType string

const (
	// ReturnStatement means the procedure produces no value.
	ReturnStatement ReturnType = "statement"
	// ReturnReporter means the procedure produces a generic value.
	ReturnReporter ReturnType = "reporter"
	// ReturnBoolean means the procedure produces a boolean value.
	ReturnBoolean ReturnType = "boolean"
)

// ValidReturnTypes defines allowed return type values.
var ValidReturnTypes = map[ReturnType]bool{
	ReturnStatement: true,
	ReturnReporter:  true,
	ReturnBoolean:   true,
}

// Shape is the socket shape of an expression block.
type Shape int

const (
	// ShapeStatement is a stackable block with no output.
	ShapeStatement Shape = iota
	// ShapeReporter is a round value-producing block.
	ShapeReporter
	// ShapeBoolean is a hexagonal boolean-producing block.
	ShapeBoolean
)

// String returns the serialized form of a Shape.
func (s Shape) String() string {
	switch s {
	case ShapeReporter:
		return "reporter"
	case ShapeBoolean:
		return "boolean"
	default:
		return "statement"
	}
}

// ShapeFromString parses a serialized shape. Unknown strings map to
// ShapeStatement.
func ShapeFromString(s string) Shape {
	switch s {
	case "reporter":
		return ShapeReporter
	case "boolean":
		return ShapeBoolean
	default:
		return ShapeStatement
	}
}

// ShapeForReturnType maps a call site's return type to its rendered shape.
func ShapeForReturnType(rt ReturnType) Shape {
	switch rt {
	case ReturnReporter:
		return ShapeReporter
	case ReturnBoolean:
		return ShapeBoolean
	default:
		return ShapeStatement
	}
}

// Block is a single node in the workspace graph.
//
// Structural links:
//   - Parent: the enclosing block (nil for top-level blocks)
//   - Next: the statement chained directly beneath this one
//   - Inputs: named value inputs (expression sockets)
//   - Prototype: the nested signature descriptor (KindDefinition only)
//   - Body: the first statement of the owned body (KindDefinition only)
//
// Procedure fields (ProcCode, argument lists, Warp) are meaningful on
// KindPrototype and KindCall; call sites carry a denormalized copy plus a
// cached ReturnType tag.
type Block struct {
	ID     string
	Kind   Kind
	Opcode string
	Shape  Shape

	ProcCode         string
	ArgumentIDs      []string
	ArgumentNames    []string
	ArgumentDefaults []string
	Warp             bool
	ReturnType       ReturnType

	Parent    *Block
	Next      *Block
	Inputs    map[string]*Block
	Prototype *Block
	Body      *Block

	Fields map[string]string

	X int64
	Y int64

	// InsertionMarker marks a transient drag-preview block. Marked blocks
	// are excluded from every enumeration and reconciliation pass.
	InsertionMarker bool
}

// NewID returns a fresh block instance ID.
func NewID() string {
	return uuid.Must(uuid.NewV7()).String()
}

// Root walks Parent links to the top-level block of this subtree.
func (b *Block) Root() *Block {
	r := b
	for r.Parent != nil {
		r = r.Parent
	}
	return r
}

// InputNames returns the input socket names in sorted order.
// Sorted iteration keeps traversal and serialization deterministic.
func (b *Block) InputNames() []string {
	names := make([]string, 0, len(b.Inputs))
	for name := range b.Inputs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Descendants returns this block and every block reachable beneath it in
// depth-first pre-order: the block itself, then its prototype, then each
// input subtree in sorted input-name order, then the owned body chain, then
// the next-chained statement.
func (b *Block) Descendants() []*Block {
	var out []*Block
	b.appendDescendants(&out)
	return out
}

func (b *Block) appendDescendants(out *[]*Block) {
	if b == nil {
		return
	}
	*out = append(*out, b)
	if b.Prototype != nil {
		b.Prototype.appendDescendants(out)
	}
	for _, name := range b.InputNames() {
		if in := b.Inputs[name]; in != nil {
			in.appendDescendants(out)
		}
	}
	if b.Body != nil {
		b.Body.appendDescendants(out)
	}
	if b.Next != nil {
		b.Next.appendDescendants(out)
	}
}

// SetInput attaches a child expression block to a named input socket.
// A nil child removes the socket.
func (b *Block) SetInput(name string, child *Block) {
	if child == nil {
		if b.Inputs != nil {
			delete(b.Inputs, name)
		}
		return
	}
	if b.Inputs == nil {
		b.Inputs = make(map[string]*Block)
	}
	child.Parent = b
	b.Inputs[name] = child
}

// AppendStatement chains a statement onto the end of this block's Next chain.
func (b *Block) AppendStatement(stmt *Block) {
	tail := b
	for tail.Next != nil {
		tail = tail.Next
	}
	stmt.Parent = tail
	tail.Next = stmt
}

// SetBody attaches the first statement of a definition's owned body.
func (b *Block) SetBody(first *Block) {
	if first != nil {
		first.Parent = b
	}
	b.Body = first
}

// SetPrototype attaches the nested signature descriptor of a definition.
func (b *Block) SetPrototype(proto *Block) {
	if proto != nil {
		proto.Parent = b
	}
	b.Prototype = proto
}

// DefinitionProcCode returns the proc code of a definition block, read from
// its nested prototype. Returns "" when the prototype is absent.
func (b *Block) DefinitionProcCode() string {
	if b.Kind != KindDefinition || b.Prototype == nil {
		return ""
	}
	return b.Prototype.ProcCode
}

// HasReturnValue reports whether a definition's cached return type produces
// a value. The cached type is maintained by the reconciler.
func (b *Block) HasReturnValue() bool {
	return b.ReturnType == ReturnReporter || b.ReturnType == ReturnBoolean
}
