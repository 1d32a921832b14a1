package editor

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"crossref/internal/components"
	"crossref/internal/config"
	"crossref/internal/engine"
	"crossref/internal/guid"
	"crossref/internal/logger"
	"crossref/internal/mappings"
	"crossref/internal/reference"
	"crossref/internal/registry"
	"crossref/internal/world"

	rl "github.com/gen2brain/raylib-go/raylib"
)

func newEditor(t *testing.T, editorMode bool) *Editor {
	t.Helper()
	cfg := config.Default()
	cfg.StrictRegistry = true
	cfg.Editor = editorMode
	cfg.MappingsPath = filepath.Join(t.TempDir(), "guid_mappings.yaml")

	w, err := world.New(cfg, logger.Wrap(zaptest.NewLogger(t)))
	require.NoError(t, err)
	t.Cleanup(func() {
		registry.SetDefault(nil)
		components.SetDefaultGuidContext(nil)
	})
	_, err = w.AddScene("Level")
	require.NoError(t, err)
	return New(w)
}

func mesh() *components.MeshRenderer {
	return components.NewMeshRenderer(components.MeshCube, rl.Red, rl.Vector3{X: 1, Y: 1, Z: 1})
}

func (e *Editor) spawn(t *testing.T, name string, comps ...engine.Component) (*engine.GameObject, *components.GuidComponent) {
	t.Helper()
	g := engine.NewGameObject(name)
	gc := e.World.NewGuidComponent()
	g.AddComponent(gc)
	for _, c := range comps {
		g.AddComponent(c)
	}
	require.NoError(t, e.World.Spawn("Level", g))
	return g, gc
}

func TestDuplicateMintsFreshIdentities(t *testing.T) {
	for _, editorMode := range []bool{false, true} {
		e := newEditor(t, editorMode)
		m := mesh()
		g, gc := e.spawn(t, "Crate", m)
		selfID, meshID := gc.GetGuid(), gc.GetGuidFor(m)

		dup, err := e.Duplicate(g)
		require.NoError(t, err)
		dupGC := engine.GetComponent[*components.GuidComponent](dup)
		require.NotNil(t, dupGC)

		assert.NotEqual(t, selfID, dupGC.GetGuid())
		assert.NotEqual(t, meshID, dupGC.GetGuidForType("MeshRenderer"))
		assert.Same(t, g, e.World.FindByGuid(selfID))
		assert.Same(t, dup, e.World.FindByGuid(dupGC.GetGuid()))
		assert.Equal(t, "Level:Crate[1]", dup.Path())
		assert.Same(t, dup, e.Selected)

		require.True(t, e.Undo())
		assert.False(t, e.World.Registry().Exists(dupGC.GetGuid()))
		assert.Same(t, g, e.World.FindByGuid(selfID))
		assert.Nil(t, e.Selected)
	}
}

func TestDeleteAndUndoRestoresIdentities(t *testing.T) {
	e := newEditor(t, false)
	m := mesh()
	g, gc := e.spawn(t, "Door", m)
	selfID, meshID := gc.GetGuid(), gc.GetGuidFor(m)

	ref := reference.FromGuid(selfID)
	require.Same(t, g, ref.GameObject())

	require.NoError(t, e.Delete(g))
	assert.False(t, e.World.Registry().Exists(selfID))
	assert.Nil(t, ref.GameObject())

	require.True(t, e.Undo())
	restored := e.World.FindByGuid(selfID)
	require.NotNil(t, restored)
	assert.NotSame(t, g, restored)
	assert.Same(t, restored, ref.GameObject())
	assert.Same(t, restored, e.World.FindByGuid(meshID))
	assert.Same(t, restored, e.Selected)

	assert.False(t, e.Undo())
}

func TestDeleteChildAndUndoKeepsParent(t *testing.T) {
	e := newEditor(t, false)
	parent, _ := e.spawn(t, "Shelf")
	child := engine.NewGameObject("Book")
	childGC := e.World.NewGuidComponent()
	child.AddComponent(childGC)
	parent.AddChild(child)
	parent.Scene.AddGameObject(child)
	id := childGC.GetGuid()
	require.False(t, id.IsEmpty())

	require.NoError(t, e.Delete(child))
	assert.Empty(t, parent.Children)

	require.True(t, e.Undo())
	restored := e.World.FindByGuid(id)
	require.NotNil(t, restored)
	assert.Same(t, parent, restored.Parent)
	assert.Equal(t, "Level:Shelf/Book", restored.Path())
}

func TestRemovedComponentIsAdoptedBySuccessor(t *testing.T) {
	e := newEditor(t, true)
	m := mesh()
	g, gc := e.spawn(t, "Crate", m)
	meshID := gc.GetGuidFor(m)

	require.True(t, e.RemoveComponent(g, m))
	assert.False(t, e.World.Registry().Exists(meshID))
	assert.Equal(t, []string{meshID.String()}, guidStrings(gc))

	successor := mesh()
	e.AddComponent(g, successor)
	assert.Equal(t, meshID, gc.GetGuidFor(successor))
	assert.Same(t, successor, e.World.Registry().ResolveComponent(meshID, nil))
	assert.Empty(t, gc.OrphanedGuids())
}

func TestRemoveFirstOfTwoMeshesThenAdd(t *testing.T) {
	e := newEditor(t, true)
	m1, m2 := mesh(), mesh()
	g, gc := e.spawn(t, "Crate", m1, m2)
	firstID, secondID := gc.GetGuidFor(m1), gc.GetGuidFor(m2)

	require.True(t, e.RemoveComponent(g, m1))
	m3 := mesh()
	e.AddComponent(g, m3)

	assert.Equal(t, secondID, gc.GetGuidFor(m2))
	assert.Equal(t, firstID, gc.GetGuidFor(m3))
	assert.Same(t, m2, gc.ComponentFromGuid(secondID))
	assert.Same(t, m3, gc.ComponentFromGuid(firstID))
	assert.Same(t, m2, e.World.Registry().ResolveComponent(secondID, nil))
	assert.Same(t, m3, e.World.Registry().ResolveComponent(firstID, nil))
}

func guidStrings(gc *components.GuidComponent) []string {
	var out []string
	for _, id := range gc.OrphanedGuids() {
		out = append(out, id.String())
	}
	return out
}

func TestUndoComponentEdits(t *testing.T) {
	e := newEditor(t, true)
	m := mesh()
	g, gc := e.spawn(t, "Crate", m)
	meshID := gc.GetGuidFor(m)

	require.True(t, e.RemoveComponent(g, m))
	require.True(t, e.Undo())
	assert.True(t, g.HasComponent(m))
	assert.Equal(t, meshID, gc.GetGuidFor(m))

	extra := &components.MeshRenderer{}
	e.AddComponent(g, extra)
	extraID := gc.GetGuidFor(extra)
	require.False(t, extraID.IsEmpty())

	require.True(t, e.Undo())
	assert.False(t, g.HasComponent(extra))
	assert.False(t, e.World.Registry().Exists(extraID))
	assert.False(t, e.RemoveComponent(g, extra))
}

func TestRevertPrefabInstanceKeepsComponentIdentities(t *testing.T) {
	e := newEditor(t, true)
	src := engine.NewGameObject("Barrel")
	src.AddComponent(e.World.NewGuidComponent())
	src.AddComponent(components.NewMeshRenderer(components.MeshSphere, rl.Orange, rl.Vector3{X: 1, Y: 1, Z: 1}))
	e.World.CreatePrefab(src, "barrel")

	inst, err := e.World.InstantiatePrefab("barrel", "Level")
	require.NoError(t, err)
	gc := engine.GetComponent[*components.GuidComponent](inst)
	selfID, meshID := gc.GetGuid(), gc.GetGuidForType("MeshRenderer")

	engine.GetComponent[*components.MeshRenderer](inst).Color = rl.Blue
	require.NoError(t, e.RevertPrefabInstance(inst))

	m := engine.GetComponent[*components.MeshRenderer](inst)
	assert.Equal(t, rl.Orange, m.Color)
	assert.Equal(t, selfID, gc.GetGuid())
	assert.Equal(t, meshID, gc.GetGuidFor(m))
	assert.Same(t, m, e.World.Registry().ResolveComponent(meshID, nil))

	plain, _ := e.spawn(t, "Plain")
	assert.ErrorIs(t, e.RevertPrefabInstance(plain), ErrNotAnInstance)
}

func TestRemovingHolderInPrefabStageDropsInstanceIdentities(t *testing.T) {
	e := newEditor(t, false)
	src := engine.NewGameObject("Barrel")
	src.AddComponent(e.World.NewGuidComponent())
	e.World.CreatePrefab(src, "barrel")

	inst, err := e.World.InstantiatePrefab("barrel", "Level")
	require.NoError(t, err)
	instID := engine.GetComponent[*components.GuidComponent](inst).GetGuid()
	require.True(t, e.World.Registry().Bound(instID))

	other, _ := e.spawn(t, "Other")
	otherID := engine.GetComponent[*components.GuidComponent](other).GetGuid()

	root, err := e.World.OpenPrefabStage("barrel")
	require.NoError(t, err)
	stageGC := engine.GetComponent[*components.GuidComponent](root)
	require.True(t, e.RemoveComponent(root, stageGC))

	assert.False(t, e.World.Registry().Exists(instID))
	assert.True(t, e.World.Registry().Bound(otherID))
}

func TestResetRestoresFromCache(t *testing.T) {
	e := newEditor(t, false)
	g, gc := e.spawn(t, "Door")
	id := gc.GetGuid()

	removed := 0
	e.World.Registry().Removed.AddListener(func(guid.Guid) { removed++ })
	require.NoError(t, e.Reset(g))
	assert.Equal(t, id, gc.GetGuid())
	assert.Zero(t, removed)

	bare := engine.NewGameObject("Bare")
	assert.ErrorIs(t, e.Reset(bare), ErrNoHolder)
}

func TestUndoStackIsCapped(t *testing.T) {
	e := newEditor(t, false)
	g, _ := e.spawn(t, "Door")
	for i := 0; i < maxUndoStack+10; i++ {
		tr := g.Transform
		tr.Position.X = float32(i + 1)
		e.SetTransform(g, tr)
	}
	assert.Equal(t, maxUndoStack, e.UndoDepth())

	require.True(t, e.Undo())
	assert.Equal(t, float32(maxUndoStack+9), g.Transform.Position.X)
}

func TestSaveMappings(t *testing.T) {
	e := newEditor(t, true)
	e.spawn(t, "Door", mesh())
	require.NoError(t, e.SaveMappings())

	path := e.World.Mappings().Path()
	_, err := os.Stat(path)
	require.NoError(t, err)

	reopened, err := mappings.Open(path, nil)
	require.NoError(t, err)
	assert.Equal(t, e.World.Mappings().Len(), reopened.Len())

	runtime := newEditor(t, false)
	assert.NoError(t, runtime.SaveMappings())
	assert.Nil(t, runtime.World.Mappings())
}

func TestDuplicateNeedsScene(t *testing.T) {
	e := newEditor(t, false)
	_, err := e.Duplicate(engine.NewGameObject("Loose"))
	assert.ErrorIs(t, err, ErrNotInScene)
	assert.ErrorIs(t, e.Delete(engine.NewGameObject("Loose")), ErrNotInScene)
}
