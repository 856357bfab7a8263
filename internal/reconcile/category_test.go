package reconcile

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blocklab/prockit/internal/block"
	"github.com/blocklab/prockit/internal/testutil"
)

func TestBuildCategoryEmptyWorkspace(t *testing.T) {
	f := newFixture(DefaultConfig())
	items := f.rec.BuildCategory(f.ws)

	require.Len(t, items, 1)
	assert.Equal(t, ItemButton, items[0].Type)
	assert.Equal(t, ActionCreateProcedure, items[0].Action)
}

func TestBuildCategoryReturnTemplateOptIn(t *testing.T) {
	f := newFixture(DefaultConfig())
	testutil.MustAdd(f.ws, testutil.Definition("plain"))

	items := f.rec.BuildCategory(f.ws)
	for _, item := range items {
		assert.NotEqual(t, TemplateReturn, item.Template,
			"no return template while no procedure returns a value")
	}

	// A reporter procedure appears; the return help and template show up.
	testutil.MustAdd(f.ws, testutil.Definition("rep",
		testutil.Return("r1", testutil.Text("t1", "x"))))

	items = f.rec.BuildCategory(f.ws)
	require.GreaterOrEqual(t, len(items), 4)
	assert.Equal(t, ActionReturnHelp, items[1].Action)
	assert.Equal(t, TemplateReturn, items[2].Template)
}

func TestBuildCategoryReturnTemplateAlwaysOnWhenEnabled(t *testing.T) {
	cfg := DefaultConfig()
	cfg.EnableReturnsByDefault = true
	f := newFixture(cfg)

	items := f.rec.BuildCategory(f.ws)
	require.Len(t, items, 3)
	assert.Equal(t, ActionCreateProcedure, items[0].Action)
	assert.Equal(t, ActionReturnHelp, items[1].Action)
	assert.Equal(t, TemplateReturn, items[2].Template)
}

func TestBuildCategoryCallTemplatesSortedAndAnnotated(t *testing.T) {
	f := newFixture(DefaultConfig())
	testutil.MustAdd(f.ws, testutil.Definition("zeta"))
	testutil.MustAdd(f.ws, testutil.Definition("Alpha",
		testutil.Return("r1", testutil.Bool("b1"))))
	testutil.MustAdd(f.ws, testutil.Definition("mid",
		testutil.Return("r2", testutil.Text("t1", "x"))))

	items := f.rec.BuildCategory(f.ws)

	var calls []Item
	for _, item := range items {
		if item.Template == TemplateCall {
			calls = append(calls, item)
		}
	}
	require.Len(t, calls, 3)
	assert.Equal(t, "Alpha", calls[0].ProcCode, "sorted case-insensitively")
	assert.Equal(t, "mid", calls[1].ProcCode)
	assert.Equal(t, "zeta", calls[2].ProcCode)

	assert.Equal(t, string(block.ReturnBoolean), calls[0].ReturnType)
	assert.Equal(t, string(block.ReturnReporter), calls[1].ReturnType)
	assert.Equal(t, "", calls[2].ReturnType, "plain statements carry no annotation")
}

func TestBuildCategoryUsesInferredNotCachedTypes(t *testing.T) {
	f := newFixture(DefaultConfig())
	def := testutil.MustAdd(f.ws, testutil.Definition("foo"))
	// Body edited but no reconciliation pass has run yet: the cached
	// definition type is stale, the category must reflect the inference.
	editToReporter(def)
	require.False(t, def.HasReturnValue())

	items := f.rec.BuildCategory(f.ws)
	var call *Item
	for i := range items {
		if items[i].Template == TemplateCall {
			call = &items[i]
		}
	}
	require.NotNil(t, call)
	assert.Equal(t, string(block.ReturnReporter), call.ReturnType)
}
