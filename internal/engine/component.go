package engine

import "reflect"

type Component interface {
	Start()
	Update(deltaTime float32)
	SetGameObject(g *GameObject)
	GetGameObject() *GameObject
}

// Awaker is implemented by components that need to run when their object is
// created or loaded into a scene.
type Awaker interface {
	Awake()
}

// Validator is implemented by components that reconcile their state after an
// edit (component added/removed, object duplicated, prefab reverted).
type Validator interface {
	OnValidate()
}

// Destroyer is implemented by components that must release resources before
// their object goes away. OnDestroy runs while the object is still readable.
type Destroyer interface {
	OnDestroy()
}

// Resetter is implemented by components that support resetting their
// serialized fields to defaults from the editor.
type Resetter interface {
	Reset()
}

// Cloner is implemented by components that Instantiate can copy.
// Clone returns a detached copy of the component's serialized state.
type Cloner interface {
	Clone() Component
}

// Remapper is implemented by cloned components that hold references to
// sibling components. m maps source components to their clones.
type Remapper interface {
	RemapComponents(m map[Component]Component)
}

// BaseComponent provides default implementation for Component interface
type BaseComponent struct {
	gameObject *GameObject
}

func (b *BaseComponent) Start() {}

func (b *BaseComponent) Update(deltaTime float32) {}

func (b *BaseComponent) SetGameObject(g *GameObject) {
	b.gameObject = g
}

func (b *BaseComponent) GetGameObject() *GameObject {
	return b.gameObject
}

// TypeName is the bare type name of c ("MeshRenderer" for *components.MeshRenderer).
func TypeName(c Component) string {
	if c == nil {
		return ""
	}
	t := reflect.TypeOf(c)
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	return t.Name()
}
