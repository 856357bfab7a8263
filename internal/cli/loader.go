package cli

import (
	"bytes"
	_ "embed"
	"fmt"
	"os"

	"cuelang.org/go/cue/cuecontext"
	"gopkg.in/yaml.v3"

	"github.com/blocklab/prockit/internal/block"
	"github.com/blocklab/prockit/internal/workspace"
)

//go:embed schema.cue
var schemaCUE string

// Error code constants - unified across all CLI commands.
const (
	ErrCodeGeneric         = "E001" // Generic/unknown error
	ErrCodeReadFailed      = "E002" // Document read error
	ErrCodeParseFailed     = "E003" // YAML parse error
	ErrCodeSchemaViolation = "E004" // Document violates the workspace schema
	ErrCodeNotFound        = "E005" // Path not found
	ErrCodeWriteFailed     = "E007" // Document write error

	// Workspace construction errors
	ErrCodeUnknownKind       = "E101" // Unknown block kind
	ErrCodeInvalidReturnType = "E102" // Invalid return type
	ErrCodeDuplicateBlock    = "E103" // Duplicate block ID
	ErrCodeUnknownProcedure  = "E104" // Proc code matches no definition
)

// LoadError represents an error that occurred during document loading.
type LoadError struct {
	Code    string
	Path    string
	Message string
}

func (e *LoadError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("%s: %s: %s", e.Path, e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Document is the YAML form of a workspace: its top-level block subtrees.
type Document struct {
	Flyout bool        `yaml:"flyout,omitempty" json:"flyout,omitempty"`
	Blocks []*BlockDoc `yaml:"blocks" json:"blocks"`
}

// BlockDoc is the YAML form of one block subtree.
type BlockDoc struct {
	ID               string               `yaml:"id,omitempty" json:"id,omitempty"`
	Kind             string               `yaml:"kind" json:"kind"`
	Opcode           string               `yaml:"opcode,omitempty" json:"opcode,omitempty"`
	Shape            string               `yaml:"shape,omitempty" json:"shape,omitempty"`
	ProcCode         string               `yaml:"proc_code,omitempty" json:"proc_code,omitempty"`
	ArgumentIDs      []string             `yaml:"argument_ids,omitempty" json:"argument_ids,omitempty"`
	ArgumentNames    []string             `yaml:"argument_names,omitempty" json:"argument_names,omitempty"`
	ArgumentDefaults []string             `yaml:"argument_defaults,omitempty" json:"argument_defaults,omitempty"`
	Warp             bool                 `yaml:"warp,omitempty" json:"warp,omitempty"`
	ReturnType       string               `yaml:"return_type,omitempty" json:"return_type,omitempty"`
	Fields           map[string]string    `yaml:"fields,omitempty" json:"fields,omitempty"`
	Inputs           map[string]*BlockDoc `yaml:"inputs,omitempty" json:"inputs,omitempty"`
	Prototype        *BlockDoc            `yaml:"prototype,omitempty" json:"prototype,omitempty"`
	Body             *BlockDoc            `yaml:"body,omitempty" json:"body,omitempty"`
	Next             *BlockDoc            `yaml:"next,omitempty" json:"next,omitempty"`
	X                int64                `yaml:"x,omitempty" json:"x,omitempty"`
	Y                int64                `yaml:"y,omitempty" json:"y,omitempty"`
	InsertionMarker  bool                 `yaml:"insertion_marker,omitempty" json:"insertion_marker,omitempty"`
}

// LoadDocument reads, schema-validates, and parses a workspace document.
func LoadDocument(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, &LoadError{Code: ErrCodeNotFound, Path: path, Message: "workspace document not found"}
	}
	if err != nil {
		return nil, &LoadError{Code: ErrCodeReadFailed, Path: path, Message: err.Error()}
	}

	// Schema validation runs on the raw YAML tree so the error names the
	// offending field, not a Go type mismatch.
	var raw any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, &LoadError{Code: ErrCodeParseFailed, Path: path, Message: err.Error()}
	}
	if err := validateAgainstSchema(raw); err != nil {
		return nil, &LoadError{Code: ErrCodeSchemaViolation, Path: path, Message: err.Error()}
	}

	var doc Document
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true) // Reject unknown fields (catches typos)
	if err := decoder.Decode(&doc); err != nil {
		return nil, &LoadError{Code: ErrCodeParseFailed, Path: path, Message: err.Error()}
	}
	return &doc, nil
}

// validateAgainstSchema unifies the decoded document with the embedded CUE
// schema.
func validateAgainstSchema(raw any) error {
	ctx := cuecontext.New()
	schema := ctx.CompileString(schemaCUE)
	if err := schema.Err(); err != nil {
		return fmt.Errorf("internal schema error: %w", err)
	}
	value := ctx.Encode(raw)
	if err := value.Err(); err != nil {
		return fmt.Errorf("encoding document: %w", err)
	}
	unified := schema.Unify(value)
	if err := unified.Validate(); err != nil {
		return err
	}
	return nil
}

// LoadWorkspace loads a document and builds the live workspace from it.
func LoadWorkspace(path string, opts ...workspace.Option) (*workspace.Workspace, error) {
	doc, err := LoadDocument(path)
	if err != nil {
		return nil, err
	}
	return BuildWorkspace(doc, path, opts...)
}

// BuildWorkspace instantiates the blocks of a document into a workspace.
func BuildWorkspace(doc *Document, path string, opts ...workspace.Option) (*workspace.Workspace, error) {
	var ws *workspace.Workspace
	if doc.Flyout {
		ws = workspace.NewFlyout(opts...)
	} else {
		ws = workspace.New(opts...)
	}
	for i, bd := range doc.Blocks {
		b, err := bd.toBlock()
		if err != nil {
			var loadErr *LoadError
			if ok := asLoadError(err, &loadErr); ok {
				loadErr.Path = path
				return nil, loadErr
			}
			return nil, err
		}
		if err := ws.AddTop(b); err != nil {
			return nil, &LoadError{
				Code:    ErrCodeDuplicateBlock,
				Path:    path,
				Message: fmt.Sprintf("blocks[%d]: %v", i, err),
			}
		}
	}
	return ws, nil
}

func asLoadError(err error, target **LoadError) bool {
	le, ok := err.(*LoadError)
	if ok {
		*target = le
	}
	return ok
}

// toBlock converts one document subtree into live blocks.
func (bd *BlockDoc) toBlock() (*block.Block, error) {
	if bd == nil {
		return nil, nil
	}
	kind := block.KindFromString(bd.Kind)
	if bd.Kind != "" && kind == block.KindOther && bd.Kind != "other" {
		return nil, &LoadError{Code: ErrCodeUnknownKind, Message: fmt.Sprintf("unknown block kind %q", bd.Kind)}
	}
	rt := block.ReturnType(bd.ReturnType)
	if bd.ReturnType != "" && !block.ValidReturnTypes[rt] {
		return nil, &LoadError{Code: ErrCodeInvalidReturnType, Message: fmt.Sprintf("invalid return type %q", bd.ReturnType)}
	}

	b := &block.Block{
		ID:               bd.ID,
		Kind:             kind,
		Opcode:           bd.Opcode,
		Shape:            block.ShapeFromString(bd.Shape),
		ProcCode:         bd.ProcCode,
		ArgumentIDs:      append([]string(nil), bd.ArgumentIDs...),
		ArgumentNames:    append([]string(nil), bd.ArgumentNames...),
		ArgumentDefaults: append([]string(nil), bd.ArgumentDefaults...),
		Warp:             bd.Warp,
		ReturnType:       rt,
		X:                bd.X,
		Y:                bd.Y,
		InsertionMarker:  bd.InsertionMarker,
	}
	if len(bd.Fields) > 0 {
		b.Fields = make(map[string]string, len(bd.Fields))
		for k, v := range bd.Fields {
			b.Fields[k] = v
		}
	}
	switch kind {
	case block.KindCall:
		if b.ReturnType == "" {
			b.ReturnType = block.ReturnStatement
		}
		b.Shape = block.ShapeForReturnType(b.ReturnType)
	case block.KindReturn:
		b.Shape = block.ShapeStatement
	}

	for name, in := range bd.Inputs {
		child, err := in.toBlock()
		if err != nil {
			return nil, err
		}
		b.SetInput(name, child)
	}
	if bd.Prototype != nil {
		proto, err := bd.Prototype.toBlock()
		if err != nil {
			return nil, err
		}
		b.SetPrototype(proto)
	}
	if bd.Body != nil {
		body, err := bd.Body.toBlock()
		if err != nil {
			return nil, err
		}
		b.SetBody(body)
	}
	if bd.Next != nil {
		next, err := bd.Next.toBlock()
		if err != nil {
			return nil, err
		}
		next.Parent = b
		b.Next = next
	}
	return b, nil
}

// DocumentFromWorkspace captures the workspace back into document form,
// preserving top-level block order.
func DocumentFromWorkspace(ws *workspace.Workspace) *Document {
	doc := &Document{Flyout: ws.IsFlyout(), Blocks: []*BlockDoc{}}
	for _, top := range ws.TopBlocks() {
		doc.Blocks = append(doc.Blocks, fromBlock(top))
	}
	return doc
}

func fromBlock(b *block.Block) *BlockDoc {
	if b == nil {
		return nil
	}
	bd := &BlockDoc{
		ID:               b.ID,
		Kind:             b.Kind.String(),
		Opcode:           b.Opcode,
		Shape:            b.Shape.String(),
		ProcCode:         b.ProcCode,
		ArgumentIDs:      append([]string(nil), b.ArgumentIDs...),
		ArgumentNames:    append([]string(nil), b.ArgumentNames...),
		ArgumentDefaults: append([]string(nil), b.ArgumentDefaults...),
		Warp:             b.Warp,
		ReturnType:       string(b.ReturnType),
		X:                b.X,
		Y:                b.Y,
		InsertionMarker:  b.InsertionMarker,
		Prototype:        fromBlock(b.Prototype),
		Body:             fromBlock(b.Body),
		Next:             fromBlock(b.Next),
	}
	if len(b.Fields) > 0 {
		bd.Fields = make(map[string]string, len(b.Fields))
		for k, v := range b.Fields {
			bd.Fields[k] = v
		}
	}
	if len(b.Inputs) > 0 {
		bd.Inputs = make(map[string]*BlockDoc, len(b.Inputs))
		for _, name := range b.InputNames() {
			bd.Inputs[name] = fromBlock(b.Inputs[name])
		}
	}
	return bd
}

// SaveDocument writes a document back to disk as YAML.
func SaveDocument(doc *Document, path string) error {
	data, err := yaml.Marshal(doc)
	if err != nil {
		return &LoadError{Code: ErrCodeWriteFailed, Path: path, Message: err.Error()}
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return &LoadError{Code: ErrCodeWriteFailed, Path: path, Message: err.Error()}
	}
	return nil
}
