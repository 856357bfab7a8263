package block

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"

	"golang.org/x/text/unicode/norm"
)

// DomainSnapshot is the domain prefix for content-addressed snapshot hashes.
// Version suffix enables future algorithm migration.
const DomainSnapshot = "prockit/snapshot/v1"

// Snapshot is an immutable, serializable record of a block subtree.
//
// Snapshots serve two purposes: they are the structural mutation record
// carried on change events (before/after diffing), and they are the rebuild
// source when a call site's shape changes. All strings are NFC normalized
// when the snapshot is taken so hashing is stable across input encodings.
type Snapshot struct {
	BlockID string `json:"block_id"`
	Kind    string `json:"kind"`
	Opcode  string `json:"opcode,omitempty"`
	Shape   string `json:"shape,omitempty"`

	ProcCode         string   `json:"proc_code,omitempty"`
	ArgumentIDs      []string `json:"argument_ids,omitempty"`
	ArgumentNames    []string `json:"argument_names,omitempty"`
	ArgumentDefaults []string `json:"argument_defaults,omitempty"`
	Warp             bool     `json:"warp,omitempty"`
	ReturnType       string   `json:"return_type,omitempty"`

	Fields map[string]string `json:"fields,omitempty"`

	Inputs    map[string]*Snapshot `json:"inputs,omitempty"`
	Prototype *Snapshot            `json:"prototype,omitempty"`
	Body      *Snapshot            `json:"body,omitempty"`
	Next      *Snapshot            `json:"next,omitempty"`

	X int64 `json:"x"`
	Y int64 `json:"y"`
}

// Serialize captures a block subtree as a Snapshot.
// The result is detached from the live graph: later mutation of the blocks
// does not affect the snapshot.
func Serialize(b *Block) *Snapshot {
	if b == nil {
		return nil
	}
	s := &Snapshot{
		BlockID:          b.ID,
		Kind:             b.Kind.String(),
		Opcode:           norm.NFC.String(b.Opcode),
		Shape:            b.Shape.String(),
		ProcCode:         norm.NFC.String(b.ProcCode),
		ArgumentIDs:      normalizeAll(b.ArgumentIDs),
		ArgumentNames:    normalizeAll(b.ArgumentNames),
		ArgumentDefaults: normalizeAll(b.ArgumentDefaults),
		Warp:             b.Warp,
		ReturnType:       string(b.ReturnType),
		X:                b.X,
		Y:                b.Y,
		Prototype:        Serialize(b.Prototype),
		Body:             Serialize(b.Body),
		Next:             Serialize(b.Next),
	}
	if len(b.Fields) > 0 {
		s.Fields = make(map[string]string, len(b.Fields))
		for k, v := range b.Fields {
			s.Fields[norm.NFC.String(k)] = norm.NFC.String(v)
		}
	}
	if len(b.Inputs) > 0 {
		s.Inputs = make(map[string]*Snapshot, len(b.Inputs))
		for _, name := range b.InputNames() {
			s.Inputs[name] = Serialize(b.Inputs[name])
		}
	}
	return s
}

// Build instantiates a fresh block subtree from the snapshot.
// Parent links are rewired on the new blocks; the caller owns registration
// of the result into a workspace.
func (s *Snapshot) Build() *Block {
	if s == nil {
		return nil
	}
	b := &Block{
		ID:               s.BlockID,
		Kind:             KindFromString(s.Kind),
		Opcode:           s.Opcode,
		Shape:            ShapeFromString(s.Shape),
		ProcCode:         s.ProcCode,
		ArgumentIDs:      append([]string(nil), s.ArgumentIDs...),
		ArgumentNames:    append([]string(nil), s.ArgumentNames...),
		ArgumentDefaults: append([]string(nil), s.ArgumentDefaults...),
		Warp:             s.Warp,
		ReturnType:       ReturnType(s.ReturnType),
		X:                s.X,
		Y:                s.Y,
	}
	if b.Kind == KindCall {
		b.Shape = ShapeForReturnType(b.ReturnType)
	}
	if len(s.Fields) > 0 {
		b.Fields = make(map[string]string, len(s.Fields))
		for k, v := range s.Fields {
			b.Fields[k] = v
		}
	}
	for name, in := range s.Inputs {
		b.SetInput(name, in.Build())
	}
	if s.Prototype != nil {
		b.SetPrototype(s.Prototype.Build())
	}
	if s.Body != nil {
		b.SetBody(s.Body.Build())
	}
	if s.Next != nil {
		next := s.Next.Build()
		next.Parent = b
		b.Next = next
	}
	return b
}

// Canonical produces deterministic JSON for hashing: sorted object keys,
// no HTML escaping, strings already NFC normalized by Serialize.
func (s *Snapshot) Canonical() ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(s); err != nil {
		return nil, fmt.Errorf("canonical snapshot: %w", err)
	}
	out := buf.Bytes()
	// json.Encoder adds a trailing newline, remove it
	if n := len(out); n > 0 && out[n-1] == '\n' {
		out = out[:n-1]
	}
	return out, nil
}

// Hash computes the content-addressed identity of the snapshot.
// Format: SHA256(domain + 0x00 + canonical JSON). The null separator
// prevents domain/data boundary ambiguity.
func (s *Snapshot) Hash() (string, error) {
	canonical, err := s.Canonical()
	if err != nil {
		return "", fmt.Errorf("snapshot hash: %w", err)
	}
	h := sha256.New()
	h.Write([]byte(DomainSnapshot))
	h.Write([]byte{0x00})
	h.Write(canonical)
	return hex.EncodeToString(h.Sum(nil)), nil
}

// MustHash is like Hash but panics on error.
// Use only in tests or when inputs are known to be valid.
func (s *Snapshot) MustHash() string {
	hash, err := s.Hash()
	if err != nil {
		panic(err)
	}
	return hash
}

func normalizeAll(in []string) []string {
	if in == nil {
		return nil
	}
	out := make([]string, len(in))
	for i, s := range in {
		out[i] = norm.NFC.String(s)
	}
	return out
}
