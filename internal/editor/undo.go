package editor

import (
	"crossref/internal/engine"
	"crossref/internal/world"
)

const maxUndoStack = 50

// UndoActionType represents the type of action that can be undone
type UndoActionType int

const (
	UndoTransform UndoActionType = iota
	UndoDelete
	UndoCreate
	UndoAddComponent
	UndoRemoveComponent
)

// UndoState captures state for undo operations
type UndoState struct {
	Type      UndoActionType
	Object    *engine.GameObject
	Component engine.Component
	Transform engine.Transform

	// For delete undo: the snapshot and where it lived.
	Snapshot      world.ObjectDef
	DeletedScene  *engine.Scene
	DeletedParent *engine.GameObject
}

func (e *Editor) pushUndo(g *engine.GameObject) {
	e.addUndoState(UndoState{
		Type:      UndoTransform,
		Object:    g,
		Transform: g.Transform,
	})
}

func (e *Editor) pushDeleteUndo(g *engine.GameObject) {
	e.addUndoState(UndoState{
		Type:          UndoDelete,
		Object:        g,
		Snapshot:      world.Snapshot(g),
		DeletedScene:  g.Scene,
		DeletedParent: g.Parent,
	})
}

func (e *Editor) addUndoState(state UndoState) {
	// Cap stack size
	if len(e.undoStack) >= maxUndoStack {
		e.undoStack = e.undoStack[1:]
	}
	e.undoStack = append(e.undoStack, state)
}

func (e *Editor) dropUndoFor(g *engine.GameObject) {
	kept := e.undoStack[:0]
	for _, s := range e.undoStack {
		if s.Object == g && (s.Type == UndoAddComponent || s.Type == UndoRemoveComponent) {
			continue
		}
		kept = append(kept, s)
	}
	e.undoStack = kept
}

// ClearUndo forgets every recorded action. Call it when objects the stack
// points at go away outside the editor.
func (e *Editor) ClearUndo() {
	e.undoStack = nil
}

// UndoDepth returns the number of recorded actions.
func (e *Editor) UndoDepth() int {
	return len(e.undoStack)
}

// Undo reverts the last recorded action. It returns false when there is
// nothing to undo.
func (e *Editor) Undo() bool {
	if len(e.undoStack) == 0 {
		return false
	}
	// Pop last state
	state := e.undoStack[len(e.undoStack)-1]
	e.undoStack = e.undoStack[:len(e.undoStack)-1]

	switch state.Type {
	case UndoTransform:
		state.Object.Transform = state.Transform
		e.Selected = state.Object

	case UndoDelete:
		// The destroyed object cannot wake again; rebuild it.
		g := e.World.Rebuild(state.Snapshot)
		if p := state.DeletedParent; p != nil && !p.Destroyed() {
			p.AddChild(g)
		}
		state.DeletedScene.AddGameObject(g)
		e.Selected = g
		e.setMsg("Restored %s", g.Name)

	case UndoCreate:
		if g := state.Object; g.Scene != nil {
			g.Scene.Destroy(g)
		}
		if e.Selected == state.Object {
			e.Selected = nil
		}

	case UndoAddComponent:
		if state.Object.RemoveComponent(state.Component) {
			state.Object.Validate()
		}

	case UndoRemoveComponent:
		state.Object.AddComponent(state.Component)
		state.Object.Validate()
	}
	return true
}
