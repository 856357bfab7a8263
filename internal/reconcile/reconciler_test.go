package reconcile

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blocklab/prockit/internal/block"
	"github.com/blocklab/prockit/internal/events"
	"github.com/blocklab/prockit/internal/registry"
	"github.com/blocklab/prockit/internal/testutil"
	"github.com/blocklab/prockit/internal/workspace"
)

type fixture struct {
	ws        *workspace.Workspace
	reg       *registry.Registry
	rec       *Reconciler
	published *[]events.Group
	refreshes *int
}

func newFixture(cfg Config) *fixture {
	ws := testutil.NewWorkspace()
	reg := registry.New(registry.Config{})
	var published []events.Group
	refreshes := 0
	ws.Bus().Subscribe(func(g events.Group) { published = append(published, g) })
	ws.Bus().SubscribeRefresh(func() { refreshes++ })
	return &fixture{
		ws:        ws,
		reg:       reg,
		rec:       New(reg, cfg),
		published: &published,
		refreshes: &refreshes,
	}
}

// editToReporter turns a statement procedure into a reporter by appending a
// return statement to its body.
func editToReporter(def *block.Block) {
	ret := testutil.Return("r:"+def.ID, testutil.Text("v:"+def.ID, "42"))
	if def.Body == nil {
		def.SetBody(ret)
	} else {
		def.Body.AppendStatement(ret)
	}
}

func TestReconcileRewritesDriftedCallSite(t *testing.T) {
	f := newFixture(DefaultConfig())
	def := testutil.MustAdd(f.ws, testutil.Definition("foo"))
	call := testutil.MustAdd(f.ws, testutil.Call("c1", "foo", block.ReturnStatement))
	call.X, call.Y = 30, 60

	initial := f.rec.SnapshotTypes(f.ws)
	editToReporter(def)
	*f.published = nil

	result := f.rec.Reconcile(f.ws, initial)

	assert.Equal(t, []string{"c1"}, result.Rewritten)
	rebuilt := f.ws.Block("c1")
	require.NotNil(t, rebuilt)
	assert.Equal(t, block.ReturnReporter, rebuilt.ReturnType)
	assert.Equal(t, block.ShapeReporter, rebuilt.Shape)
	assert.Equal(t, int64(30), rebuilt.X, "rebuilt at original canvas position")
	assert.Equal(t, int64(60), rebuilt.Y)

	assert.True(t, result.Refreshed)
	assert.Equal(t, 1, *f.refreshes)

	require.Len(t, *f.published, 1, "all rewrites in one grouped notification")
	assert.Len(t, (*f.published)[0].Changes, 2, "destroy + rebuild")
}

func TestReconcileRewritesAllDriftedCallers(t *testing.T) {
	f := newFixture(DefaultConfig())
	def := testutil.MustAdd(f.ws, testutil.Definition("foo"))
	testutil.MustAdd(f.ws, testutil.Call("c1", "foo", block.ReturnStatement))
	testutil.MustAdd(f.ws, testutil.Call("c2", "foo", block.ReturnStatement))

	initial := f.rec.SnapshotTypes(f.ws)
	editToReporter(def)
	*f.published = nil

	result := f.rec.Reconcile(f.ws, initial)
	assert.ElementsMatch(t, []string{"c1", "c2"}, result.Rewritten)
	require.Len(t, *f.published, 1)
}

func TestReconcileSkipsMidStackCallSite(t *testing.T) {
	f := newFixture(DefaultConfig())
	def := testutil.MustAdd(f.ws, testutil.Definition("foo"))

	chained := testutil.Call("c1", "foo", block.ReturnStatement)
	chained.AppendStatement(testutil.Stmt("s1"))
	testutil.MustAdd(f.ws, chained)

	initial := f.rec.SnapshotTypes(f.ws)
	editToReporter(def)

	result := f.rec.Reconcile(f.ws, initial)
	assert.Empty(t, result.Rewritten, "call with a chained block beneath is left untouched")
	assert.True(t, result.Refreshed, "refresh still fires: the type changed")
}

func TestReconcileSkipsInsertionMarker(t *testing.T) {
	f := newFixture(DefaultConfig())
	def := testutil.MustAdd(f.ws, testutil.Definition("foo"))
	marker := testutil.Call("c1", "foo", block.ReturnStatement)
	marker.InsertionMarker = true
	testutil.MustAdd(f.ws, marker)

	initial := f.rec.SnapshotTypes(f.ws)
	editToReporter(def)

	result := f.rec.Reconcile(f.ws, initial)
	assert.Empty(t, result.Rewritten)
}

func TestReconcileSkipsUnknownProcCode(t *testing.T) {
	f := newFixture(DefaultConfig())
	// Call site referencing a procedure created during this batch: absent
	// from the initial snapshot, so it is not touched.
	testutil.MustAdd(f.ws, testutil.Call("c1", "new_proc", block.ReturnStatement))
	initial := map[string]block.ReturnType{}
	testutil.MustAdd(f.ws, testutil.Definition("new_proc", testutil.Return("r1", testutil.Text("t1", "x"))))

	result := f.rec.Reconcile(f.ws, initial)
	assert.Empty(t, result.Rewritten)
	assert.False(t, result.Refreshed, "no refresh when only new procedures appeared")
	assert.Equal(t, 0, *f.refreshes)
}

func TestReconcileOverrideRespectedWhenTypeUnchanged(t *testing.T) {
	cfg := DefaultConfig()
	cfg.AllowCallShapeOverride = true
	f := newFixture(cfg)

	testutil.MustAdd(f.ws, testutil.Definition("foo",
		testutil.Return("r1", testutil.Text("t1", "x"))))
	// User forced the call to boolean shape; the definition stayed reporter.
	testutil.MustAdd(f.ws, testutil.Call("c1", "foo", block.ReturnBoolean))

	initial := f.rec.SnapshotTypes(f.ws)
	result := f.rec.Reconcile(f.ws, initial)

	assert.Empty(t, result.Rewritten, "override kept: definition type did not change")
	assert.Equal(t, block.ReturnBoolean, f.ws.Block("c1").ReturnType)
}

func TestReconcileOverrideLostWhenTypeChanged(t *testing.T) {
	cfg := DefaultConfig()
	cfg.AllowCallShapeOverride = true
	f := newFixture(cfg)

	def := testutil.MustAdd(f.ws, testutil.Definition("foo"))
	testutil.MustAdd(f.ws, testutil.Call("c1", "foo", block.ReturnBoolean))

	initial := f.rec.SnapshotTypes(f.ws)
	editToReporter(def)

	result := f.rec.Reconcile(f.ws, initial)
	assert.Equal(t, []string{"c1"}, result.Rewritten,
		"definition type changed, so the override is superseded")
	assert.Equal(t, block.ReturnReporter, f.ws.Block("c1").ReturnType)
}

func TestReconcileNoEnforcementLeavesDrift(t *testing.T) {
	cfg := DefaultConfig()
	cfg.EnforceTypes = false
	f := newFixture(cfg)

	def := testutil.MustAdd(f.ws, testutil.Definition("foo"))
	testutil.MustAdd(f.ws, testutil.Call("c1", "foo", block.ReturnStatement))

	initial := f.rec.SnapshotTypes(f.ws)
	editToReporter(def)

	result := f.rec.Reconcile(f.ws, initial)
	assert.Empty(t, result.Rewritten)
	assert.Equal(t, block.ReturnStatement, f.ws.Block("c1").ReturnType)
	assert.True(t, result.Refreshed, "refresh signal is independent of enforcement")
}

func TestReconcileNoRefreshWhenNothingChanged(t *testing.T) {
	f := newFixture(DefaultConfig())
	testutil.MustAdd(f.ws, testutil.Definition("foo"))
	testutil.MustAdd(f.ws, testutil.Call("c1", "foo", block.ReturnStatement))

	initial := f.rec.SnapshotTypes(f.ws)
	result := f.rec.Reconcile(f.ws, initial)

	assert.Empty(t, result.Rewritten)
	assert.False(t, result.Refreshed)
	assert.Equal(t, 0, *f.refreshes)
}

func TestReconcileUpdatesDefinitionCache(t *testing.T) {
	f := newFixture(DefaultConfig())
	def := testutil.MustAdd(f.ws, testutil.Definition("foo"))
	assert.False(t, def.HasReturnValue())

	initial := f.rec.SnapshotTypes(f.ws)
	editToReporter(def)
	f.rec.Reconcile(f.ws, initial)

	assert.Equal(t, block.ReturnReporter, def.ReturnType)
	assert.True(t, def.HasReturnValue())
}

func TestSnapshotTypesKeysAreCaseFolded(t *testing.T) {
	f := newFixture(DefaultConfig())
	testutil.MustAdd(f.ws, testutil.Definition("Foo"))

	types := f.rec.SnapshotTypes(f.ws)
	_, ok := types[f.reg.Names().Key("foo")]
	assert.True(t, ok)
}
