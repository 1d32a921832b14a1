// Package editor implements the edit-time operations that change which
// objects and components exist: duplicate, delete, component add/remove,
// reset and prefab revert. Every operation runs the validation tick so
// identity holders reconcile right away.
package editor

import (
	"errors"
	"fmt"
	"slices"

	"crossref/internal/components"
	"crossref/internal/engine"
	"crossref/internal/logger"
	"crossref/internal/world"
)

var (
	ErrNotInScene    = errors.New("editor: object is not in a scene")
	ErrNoHolder      = errors.New("editor: object has no GuidComponent")
	ErrNotAnInstance = errors.New("editor: object is not a prefab instance")
)

type Editor struct {
	World    *world.World
	Selected *engine.GameObject
	// Status is the last user-facing message.
	Status string

	undoStack []UndoState
	log       *logger.Logger
}

func New(w *world.World) *Editor {
	return &Editor{
		World: w,
		log:   w.Log.With("component", "editor"),
	}
}

func (e *Editor) setMsg(format string, args ...any) {
	e.Status = fmt.Sprintf(format, args...)
	e.log.Debug(e.Status)
}

// Duplicate copies g next to itself. The copy carries g's identities,
// collides with them on registration and mints its own.
func (e *Editor) Duplicate(g *engine.GameObject) (*engine.GameObject, error) {
	if g.Scene == nil {
		return nil, fmt.Errorf("%w: %s", ErrNotInScene, g.Name)
	}
	dup := engine.Instantiate(g)
	if g.Parent != nil {
		g.Parent.AddChild(dup)
	}
	g.Scene.AddGameObject(dup)
	dup.Validate()

	e.addUndoState(UndoState{Type: UndoCreate, Object: dup})
	e.Selected = dup
	e.setMsg("Duplicated %s", g.Name)
	return dup, nil
}

// Delete destroys g. Undo rebuilds it from a snapshot with the same
// identities.
func (e *Editor) Delete(g *engine.GameObject) error {
	if g.Scene == nil {
		return fmt.Errorf("%w: %s", ErrNotInScene, g.Name)
	}
	e.pushDeleteUndo(g)
	g.Scene.Destroy(g)
	if e.Selected == g {
		e.Selected = nil
	}
	e.setMsg("Deleted %s", g.Name)
	return nil
}

// SetTransform records g's transform for undo and replaces it.
func (e *Editor) SetTransform(g *engine.GameObject, t engine.Transform) {
	e.pushUndo(g)
	g.Transform = t
}

// AddComponent attaches c to g and runs the validation tick.
func (e *Editor) AddComponent(g *engine.GameObject, c engine.Component) {
	g.AddComponent(c)
	g.Validate()
	e.addUndoState(UndoState{Type: UndoAddComponent, Object: g, Component: c})
	e.setMsg("Added %s to %s", engine.TypeName(c), g.Name)
}

// RemoveComponent detaches c from g and runs the validation tick, which
// orphans c's identity. Removing the holder of an object in a prefab stage
// also drops the identities of every instance of that prefab.
func (e *Editor) RemoveComponent(g *engine.GameObject, c engine.Component) bool {
	if _, ok := c.(*components.GuidComponent); ok && g.Scene != nil && g.Scene.PrefabStage {
		if source := prefabSource(g); source != "" {
			n := e.World.Registry().UnregisterPrefabInstances(source)
			e.log.Info("prefab instance guids unregistered", "asset", source, "count", n)
		}
	}
	if !g.RemoveComponent(c) {
		return false
	}
	g.Validate()
	e.addUndoState(UndoState{Type: UndoRemoveComponent, Object: g, Component: c})
	e.setMsg("Removed %s from %s", engine.TypeName(c), g.Name)
	return true
}

func prefabSource(g *engine.GameObject) string {
	for o := g; o != nil; o = o.Parent {
		if o.PrefabSource != "" {
			return o.PrefabSource
		}
	}
	return ""
}

// Reset clears g's persisted identities and restores them from the editor
// cache.
func (e *Editor) Reset(g *engine.GameObject) error {
	gc := engine.GetComponent[*components.GuidComponent](g)
	if gc == nil {
		return fmt.Errorf("%w: %s", ErrNoHolder, g.Name)
	}
	gc.Reset()
	e.setMsg("Reset %s", g.Name)
	return nil
}

// RevertPrefabInstance replaces g's components with fresh copies of its
// template's. The holder stays; replaced components get their identities
// back from the mapping store.
func (e *Editor) RevertPrefabInstance(g *engine.GameObject) error {
	if g.PrefabSource == "" {
		return fmt.Errorf("%w: %s", ErrNotAnInstance, g.Name)
	}
	asset, err := e.World.Prefab(g.PrefabSource)
	if err != nil {
		return err
	}

	for _, c := range slices.Clone(g.Components()) {
		if _, ok := c.(*components.GuidComponent); ok {
			continue
		}
		g.RemoveComponent(c)
	}
	g.Validate()

	for _, c := range asset.Components() {
		if _, ok := c.(*components.GuidComponent); ok {
			continue
		}
		if clone := engine.CloneComponent(c); clone != nil {
			g.AddComponent(clone)
		}
	}
	g.Validate()

	// The component list changed underneath any recorded component edits.
	e.dropUndoFor(g)
	e.setMsg("Reverted %s to %s", g.Name, g.PrefabSource)
	return nil
}

// SaveMappings writes the mapping store. Outside the editor it does nothing.
func (e *Editor) SaveMappings() error {
	store := e.World.Mappings()
	if store == nil {
		return nil
	}
	if err := store.Save(); err != nil {
		return err
	}
	e.setMsg("Saved guid mappings")
	return nil
}
