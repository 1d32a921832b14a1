package components

import (
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"crossref/internal/engine"
	"crossref/internal/guid"
	"crossref/internal/logger"
	"crossref/internal/mappings"
	"crossref/internal/registry"

	rl "github.com/gen2brain/raylib-go/raylib"
)

type marker struct {
	engine.BaseComponent
}

type fixture struct {
	reg   *registry.Registry
	store *mappings.Store
	ctx   *GuidContext
	scene *engine.Scene
	logs  *observer.ObservedLogs
}

func newFixture(t *testing.T, editor bool) *fixture {
	t.Helper()
	core, logs := observer.New(zapcore.DebugLevel)
	log := logger.Wrap(zap.New(core))
	reg := registry.New(log)
	reg.Strict = true

	f := &fixture{reg: reg, scene: engine.NewScene("Level"), logs: logs}
	if editor {
		f.store = mappings.New(log)
	}
	f.ctx = &GuidContext{Registry: reg, Mappings: f.store, Log: log}
	return f
}

func (f *fixture) holder(name string, comps ...engine.Component) (*engine.GameObject, *GuidComponent) {
	g := engine.NewGameObject(name)
	gc := &GuidComponent{Context: f.ctx}
	g.AddComponent(gc)
	for _, c := range comps {
		g.AddComponent(c)
	}
	return g, gc
}

func (f *fixture) spawn(name string, comps ...engine.Component) (*engine.GameObject, *GuidComponent) {
	g, gc := f.holder(name, comps...)
	f.scene.AddGameObject(g)
	return g, gc
}

func mesh() *MeshRenderer {
	return NewMeshRenderer(MeshCube, rl.Red, rl.Vector3{X: 1, Y: 1, Z: 1})
}

func TestIdentitiesAreUnique(t *testing.T) {
	f := newFixture(t, false)
	seen := make(map[guid.Guid]bool)
	for i := 0; i < 200; i++ {
		_, gc := f.spawn("Obj", mesh())
		for _, id := range []guid.Guid{gc.GetGuid(), gc.GetGuidForType("MeshRenderer")} {
			require.False(t, id.IsEmpty())
			require.False(t, seen[id], "duplicate identity %s", id)
			seen[id] = true
		}
	}
	assert.Equal(t, 400, f.reg.Len())
}

func TestSpawnRegistersSelfAndComponents(t *testing.T) {
	f := newFixture(t, false)
	m, extra := mesh(), mesh()
	g, gc := f.spawn("Crate", m, &marker{}, extra)

	assert.Same(t, g, f.reg.Resolve(gc.GetGuid(), nil))
	assert.Same(t, m, f.reg.ResolveComponent(gc.GetGuidFor(m), nil))
	assert.Same(t, extra, f.reg.ResolveComponent(gc.GetGuidFor(extra), nil))
	assert.Equal(t, gc.GetGuidFor(m), gc.GetGuidForType("MeshRenderer"))
	assert.Equal(t, gc.GetGuid(), gc.GetGuidForType(ObjectOwnerType))
	assert.True(t, gc.GetGuidFor(gc).IsEmpty())
	assert.True(t, gc.HasMultipleComponentsOf("MeshRenderer"))
	assert.False(t, gc.HasMultipleComponentsOf("marker"))
	assert.Nil(t, gc.ComponentFromGuid(gc.GetGuid()))
	assert.Nil(t, gc.ComponentFromGuid(guid.New()))

	recs := gc.ComponentGUIDs()
	require.Len(t, recs, 3)
	assert.Same(t, m, recs[0].Component)
	assert.Same(t, extra, recs[2].Component)
	for _, rec := range recs {
		assert.True(t, rec.Bound())
	}
}

func TestUnawakeHolderRegistersNothing(t *testing.T) {
	f := newFixture(t, false)
	g, gc := f.holder("Loose", mesh())
	g.Validate()

	assert.True(t, gc.GetGuid().IsEmpty())
	assert.Zero(t, f.reg.Len())
	assert.Len(t, gc.ComponentGUIDs(), 1)
}

func TestExcludedComponentsGetNoIdentity(t *testing.T) {
	f := newFixture(t, false)
	f.ctx.Excluders = NewExcluders("marker")
	_, gc := f.spawn("Crate", &marker{}, mesh())

	require.Len(t, gc.ComponentGUIDs(), 1)
	assert.True(t, gc.GetGuidForType("marker").IsEmpty())
	assert.Equal(t, 2, f.reg.Len())
}

func TestDuplicationMintsFreshIdentities(t *testing.T) {
	f := newFixture(t, false)
	m := mesh()
	g, gc := f.spawn("Crate", m)
	self, meshID := gc.GetGuid(), gc.GetGuidFor(m)

	var added []guid.Guid
	f.reg.Added.AddListener(func(id guid.Guid) { added = append(added, id) })

	dup := engine.Instantiate(g)
	f.scene.AddGameObject(dup)
	dgc := engine.GetComponent[*GuidComponent](dup)
	dmesh := engine.GetComponent[*MeshRenderer](dup)
	require.NotNil(t, dgc)
	require.NotNil(t, dmesh)

	assert.NotEqual(t, self, dgc.GetGuid())
	assert.NotEqual(t, meshID, dgc.GetGuidFor(dmesh))
	assert.False(t, dgc.GetGuid().IsEmpty())
	assert.ElementsMatch(t, []guid.Guid{dgc.GetGuid(), dgc.GetGuidFor(dmesh)}, added)

	// The original keeps its identities.
	assert.Same(t, g, f.reg.Resolve(self, nil))
	assert.Same(t, m, f.reg.ResolveComponent(meshID, nil))
	assert.Equal(t, 2, f.logs.FilterMessage("guid collision, registration rejected").Len())
}

func TestTemplateClearsAndInstanceRestores(t *testing.T) {
	f := newFixture(t, false)
	g, gc := f.spawn("Crate", mesh())

	asset := engine.NewPrefabAsset(g, "prefabs/crate.json")
	agc := engine.GetComponent[*GuidComponent](asset)
	require.NotNil(t, agc)
	assert.True(t, agc.GetGuid().IsEmpty())
	for _, rec := range agc.ComponentGUIDs() {
		assert.True(t, rec.Guid.IsEmpty())
	}
	assert.True(t, agc.Serialize().Self.IsEmpty())
	assert.Equal(t, 2, f.reg.Len(), "template registers nothing")
	assert.Same(t, g, f.reg.Resolve(gc.GetGuid(), nil))

	inst := engine.InstantiatePrefab(asset)
	f.scene.AddGameObject(inst)
	igc := engine.GetComponent[*GuidComponent](inst)
	imesh := engine.GetComponent[*MeshRenderer](inst)

	assert.False(t, igc.GetGuid().IsEmpty())
	assert.NotEqual(t, gc.GetGuid(), igc.GetGuid())
	assert.Same(t, inst, f.reg.Resolve(igc.GetGuid(), nil))
	assert.Same(t, imesh, f.reg.ResolveComponent(igc.GetGuidFor(imesh), nil))
}

func TestPrefabStageHoldsNoIdentity(t *testing.T) {
	f := newFixture(t, false)
	stage := engine.NewScene("Stage")
	stage.PrefabStage = true
	g, gc := f.holder("Crate", mesh())
	stage.AddGameObject(g)

	assert.True(t, gc.GetGuid().IsEmpty())
	assert.Zero(t, f.reg.Len())

	g.Destroy()
	assert.Zero(t, f.reg.Len())
}

func TestDestroyUnregistersEverything(t *testing.T) {
	f := newFixture(t, false)
	m := mesh()
	g, gc := f.spawn("Target", m)
	self, meshID := gc.GetGuid(), gc.GetGuidFor(m)

	removed := 0
	l := &registry.Listener{OnRemove: func() { removed++ }}
	f.reg.Resolve(self, l)
	f.reg.ResolveComponent(meshID, l)

	g.Destroy()
	runtime.KeepAlive(l)

	assert.False(t, f.reg.Exists(self))
	assert.False(t, f.reg.Exists(meshID))
	assert.Equal(t, 2, removed)
}

func TestRemovedComponentIsPruned(t *testing.T) {
	f := newFixture(t, false)
	m, keep := mesh(), &marker{}
	g, gc := f.spawn("Crate", m, keep)
	meshID := gc.GetGuidFor(m)

	g.RemoveComponent(m)
	g.Validate()

	assert.False(t, f.reg.Exists(meshID))
	recs := gc.ComponentGUIDs()
	require.Len(t, recs, 1)
	assert.Same(t, keep, recs[0].Component)
}

func TestOrphanAdoptedBySuccessor(t *testing.T) {
	f := newFixture(t, true)
	x := mesh()
	g, gc := f.spawn("Crate", x)
	orphanID := gc.GetGuidFor(x)

	g.RemoveComponent(x)
	g.Validate()
	assert.Equal(t, []guid.Guid{orphanID}, gc.OrphanedGuids())
	assert.False(t, f.reg.Exists(orphanID))

	y := mesh()
	g.AddComponent(y)
	g.Validate()

	assert.Equal(t, orphanID, gc.GetGuidFor(y))
	assert.Same(t, y, f.reg.ResolveComponent(orphanID, nil))
	assert.Empty(t, gc.OrphanedGuids())
}

func TestOrphanNotAdoptedByOtherType(t *testing.T) {
	f := newFixture(t, true)
	x := mesh()
	g, gc := f.spawn("Crate", x)
	orphanID := gc.GetGuidFor(x)

	g.RemoveComponent(x)
	other := &marker{}
	g.AddComponent(other)
	g.Validate()

	assert.NotEqual(t, orphanID, gc.GetGuidFor(other))
	assert.False(t, gc.GetGuidFor(other).IsEmpty())
	assert.Equal(t, []guid.Guid{orphanID}, gc.OrphanedGuids())
}

func TestAdoptOrphanExplicitly(t *testing.T) {
	f := newFixture(t, true)
	m1, m2 := mesh(), mesh()
	g, gc := f.spawn("Crate", m1, m2)
	orphanID, oldID := gc.GetGuidFor(m1), gc.GetGuidFor(m2)

	g.RemoveComponent(m1)
	g.Validate()
	require.Equal(t, []guid.Guid{orphanID}, gc.OrphanedGuids())
	assert.Equal(t, oldID, gc.GetGuidFor(m2))

	assert.False(t, gc.AdoptOrphan(guid.New(), m2))
	assert.False(t, gc.AdoptOrphan(orphanID, &marker{}))
	require.True(t, gc.AdoptOrphan(orphanID, m2))

	assert.Equal(t, orphanID, gc.GetGuidFor(m2))
	assert.Same(t, m2, f.reg.ResolveComponent(orphanID, nil))
	assert.False(t, f.reg.Exists(oldID))
	assert.Empty(t, gc.OrphanedGuids())
}

func TestRemoveFirstOfTwoThenAddKeepsIdentitiesDistinct(t *testing.T) {
	f := newFixture(t, true)
	m1, m2 := mesh(), mesh()
	g, gc := f.spawn("Crate", m1, m2)
	firstID, secondID := gc.GetGuidFor(m1), gc.GetGuidFor(m2)

	g.RemoveComponent(m1)
	g.Validate()
	item, ok := f.store.TryGet(mappings.ComponentQuery(g.Path(), "MeshRenderer[0]"))
	require.True(t, ok)
	assert.Equal(t, secondID, item.Guid, "survivor keyed by its new path")

	m3 := mesh()
	g.AddComponent(m3)
	g.Validate()

	assert.Equal(t, secondID, gc.GetGuidFor(m2))
	assert.Equal(t, firstID, gc.GetGuidFor(m3))
	assert.NotEqual(t, gc.GetGuidFor(m2), gc.GetGuidFor(m3))
	assert.Same(t, m2, gc.ComponentFromGuid(secondID))
	assert.Same(t, m3, gc.ComponentFromGuid(firstID))
	assert.Same(t, m2, f.reg.ResolveComponent(secondID, nil))
	assert.Same(t, m3, f.reg.ResolveComponent(firstID, nil))
	assert.Empty(t, gc.OrphanedGuids())
}

func TestRepeatedPersistedIdsMintFresh(t *testing.T) {
	f := newFixture(t, false)
	self, shared := guid.New(), guid.New()
	g, gc := f.holder("Crate", mesh(), mesh(), mesh())
	gc.Deserialize(SerializedGuids{Self: self, Components: []SerializedComponentGuid{
		{Index: 1, Type: "MeshRenderer", Guid: self},
		{Index: 2, Type: "MeshRenderer", Guid: shared},
		{Index: 3, Type: "MeshRenderer", Guid: shared},
	}})
	f.scene.AddGameObject(g)

	assert.Equal(t, self, gc.GetGuid())
	seen := map[guid.Guid]bool{self: true}
	var kept int
	for _, rec := range gc.ComponentGUIDs() {
		require.False(t, rec.Guid.IsEmpty())
		assert.False(t, seen[rec.Guid], "identity %s held twice", rec.Guid)
		seen[rec.Guid] = true
		assert.Same(t, rec.Component, gc.ComponentFromGuid(rec.Guid))
		assert.Same(t, rec.Component, f.reg.ResolveComponent(rec.Guid, nil))
		if rec.Guid == shared {
			kept++
		}
	}
	assert.Len(t, seen, 4)
	assert.Equal(t, 1, kept)
}

func TestForgetOrphan(t *testing.T) {
	f := newFixture(t, true)
	x := mesh()
	g, gc := f.spawn("Crate", x)
	orphanID := gc.GetGuidFor(x)

	assert.False(t, gc.ForgetOrphan(orphanID), "still owned")
	g.RemoveComponent(x)
	g.Validate()

	assert.True(t, gc.ForgetOrphan(orphanID))
	assert.False(t, gc.ForgetOrphan(orphanID))
	assert.Empty(t, gc.OrphanedGuids())
}

func TestRecreatedObjectRecoversIdentityFromMappings(t *testing.T) {
	f := newFixture(t, true)
	m := mesh()
	g, gc := f.spawn("Door", m)
	self, meshID := gc.GetGuid(), gc.GetGuidFor(m)

	g.Destroy()
	require.False(t, f.reg.Exists(self))

	m2 := mesh()
	_, gc2 := f.spawn("Door", m2)
	assert.Equal(t, self, gc2.GetGuid())
	assert.Equal(t, meshID, gc2.GetGuidFor(m2))
}

func TestRecreatedObjectMintsWithoutMappings(t *testing.T) {
	f := newFixture(t, false)
	g, gc := f.spawn("Door")
	self := gc.GetGuid()
	g.Destroy()

	_, gc2 := f.spawn("Door")
	assert.NotEqual(t, self, gc2.GetGuid())
}

func TestMappingTypeMismatchRejected(t *testing.T) {
	f := newFixture(t, true)
	stale := guid.New()
	f.store.Add(mappings.ComponentQuery("Level:Crate", "MeshRenderer[0]"),
		&mappings.Item{State: mappings.Owned, OwnerType: "Light", Guid: stale}, false)

	m := mesh()
	_, gc := f.spawn("Crate", m)
	assert.NotEqual(t, stale, gc.GetGuidFor(m))

	item, ok := f.store.TryGet(mappings.ComponentQuery("Level:Crate", "MeshRenderer[0]"))
	require.True(t, ok)
	assert.Equal(t, "MeshRenderer", item.OwnerType)
	assert.Equal(t, gc.GetGuidFor(m), item.Guid)
}

func TestResetRestoresFromCache(t *testing.T) {
	f := newFixture(t, false)
	m := mesh()
	_, gc := f.spawn("Crate", m)
	self, meshID := gc.GetGuid(), gc.GetGuidFor(m)

	removed := 0
	f.reg.Resolve(self, &registry.Listener{OnRemove: func() { removed++ }})

	gc.Reset()

	assert.Equal(t, self, gc.GetGuid())
	assert.Equal(t, meshID, gc.GetGuidFor(m))
	assert.True(t, f.reg.Bound(self))
	assert.Zero(t, removed)
}

func TestSerializeRoundTrip(t *testing.T) {
	f := newFixture(t, false)
	m := mesh()
	g, gc := f.spawn("Crate", &marker{}, m)
	saved := gc.Serialize()
	require.Len(t, saved.Components, 2)
	g.Destroy()

	g2, gc2 := f.holder("Crate", &marker{}, mesh())
	gc2.Deserialize(saved)
	f.scene.AddGameObject(g2)

	m2 := engine.GetComponent[*MeshRenderer](g2)
	assert.Equal(t, saved.Self, gc2.GetGuid())
	assert.Equal(t, gc.GetGuidFor(m), gc2.GetGuidFor(m2))
}

func TestDeserializeDropsMismatchedType(t *testing.T) {
	f := newFixture(t, false)
	wrong := guid.New()
	g, gc := f.holder("Crate", mesh())
	gc.Deserialize(SerializedGuids{
		Self:       guid.New(),
		Components: []SerializedComponentGuid{{Index: 1, Type: "Light", Guid: wrong}},
	})
	f.scene.AddGameObject(g)

	assert.NotEqual(t, wrong, gc.GetGuidForType("MeshRenderer"))
	assert.False(t, f.reg.Exists(wrong))
}

func TestListenerSeesComponentOnLateRegistration(t *testing.T) {
	f := newFixture(t, false)
	self, meshID := guid.New(), guid.New()

	var got engine.Component
	var gotObj *engine.GameObject
	l := &registry.Listener{OnAdd: func(g *engine.GameObject, c engine.Component) {
		gotObj, got = g, c
	}}
	require.Nil(t, f.reg.ResolveComponent(meshID, l))

	m := mesh()
	g, gc := f.holder("Late", m)
	gc.Deserialize(SerializedGuids{Self: self, Components: []SerializedComponentGuid{{Index: 1, Type: "MeshRenderer", Guid: meshID}}})
	f.scene.AddGameObject(g)
	runtime.KeepAlive(l)

	assert.Same(t, g, gotObj)
	assert.Same(t, m, got)
}

func TestMintAttemptsExceededPanics(t *testing.T) {
	f := newFixture(t, false)
	fixed := guid.New()
	f.ctx.Mint = func() guid.Guid { return fixed }
	f.ctx.MaxMintAttempts = 3

	_, first := f.spawn("First")
	require.Equal(t, fixed, first.GetGuid())

	defer func() {
		err, ok := recover().(error)
		require.True(t, ok)
		assert.ErrorIs(t, err, ErrMintAttemptsExceeded)
		assert.Equal(t, 3, f.logs.FilterMessage("guid collision, registration rejected").Len())
	}()
	f.spawn("Second")
	t.Fatal("expected panic")
}
