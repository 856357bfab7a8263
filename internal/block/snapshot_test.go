package block

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func callWithArg() *Block {
	call := &Block{
		ID:            "call1",
		Kind:          KindCall,
		ProcCode:      "greet %s",
		ArgumentIDs:   []string{"arg1"},
		ArgumentNames: []string{"who"},
		ReturnType:    ReturnStatement,
		X:             40,
		Y:             80,
	}
	call.SetInput("arg1", &Block{ID: "lit1", Kind: KindOther, Shape: ShapeReporter, Fields: map[string]string{"TEXT": "world"}})
	return call
}

func TestSerializeBuildRoundTrip(t *testing.T) {
	call := callWithArg()
	snap := Serialize(call)

	rebuilt := snap.Build()
	require.NotNil(t, rebuilt)
	assert.Equal(t, call.ID, rebuilt.ID)
	assert.Equal(t, call.ProcCode, rebuilt.ProcCode)
	assert.Equal(t, call.ArgumentIDs, rebuilt.ArgumentIDs)
	assert.Equal(t, call.X, rebuilt.X)
	assert.Equal(t, call.Y, rebuilt.Y)

	arg := rebuilt.Inputs["arg1"]
	require.NotNil(t, arg)
	assert.Equal(t, "world", arg.Fields["TEXT"])
	assert.Same(t, rebuilt, arg.Parent)
}

func TestSerializeIsDetached(t *testing.T) {
	call := callWithArg()
	snap := Serialize(call)
	before := snap.MustHash()

	// Mutating the live block must not affect the captured snapshot.
	call.ProcCode = "changed %s"
	call.Inputs["arg1"].Fields["TEXT"] = "mutated"

	assert.Equal(t, before, snap.MustHash())
	assert.Equal(t, "greet %s", snap.ProcCode)
}

func TestBuildDerivesCallShapeFromReturnType(t *testing.T) {
	snap := Serialize(&Block{ID: "c", Kind: KindCall, ProcCode: "f", ReturnType: ReturnBoolean})
	rebuilt := snap.Build()
	assert.Equal(t, ShapeBoolean, rebuilt.Shape, "call shape is derived from return type on rebuild")

	snap.ReturnType = string(ReturnReporter)
	assert.Equal(t, ShapeReporter, snap.Build().Shape)
}

func TestHashStability(t *testing.T) {
	a := Serialize(callWithArg())
	b := Serialize(callWithArg())
	assert.Equal(t, a.MustHash(), b.MustHash(), "identical subtrees hash identically")

	c := Serialize(callWithArg())
	c.ReturnType = string(ReturnReporter)
	assert.NotEqual(t, a.MustHash(), c.MustHash(), "return type participates in identity")
}

func TestSerializeNormalizesNFC(t *testing.T) {
	// "é" composed (U+00E9) vs decomposed (e + U+0301)
	composed := &Block{ID: "x", Kind: KindCall, ProcCode: "caf\u00e9"}
	decomposed := &Block{ID: "x", Kind: KindCall, ProcCode: "cafe\u0301"}

	sa := Serialize(composed)
	sb := Serialize(decomposed)
	assert.Equal(t, sa.ProcCode, sb.ProcCode)
	assert.Equal(t, sa.MustHash(), sb.MustHash())
}

func TestCanonicalNoTrailingNewline(t *testing.T) {
	data, err := Serialize(&Block{ID: "x", Kind: KindOther}).Canonical()
	require.NoError(t, err)
	require.NotEmpty(t, data)
	assert.NotEqual(t, byte('\n'), data[len(data)-1])
}

func TestSerializeNil(t *testing.T) {
	assert.Nil(t, Serialize(nil))
	var s *Snapshot
	assert.Nil(t, s.Build())
}
