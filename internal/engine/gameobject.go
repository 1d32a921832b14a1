package engine

import (
	"math"
	"sync/atomic"

	rl "github.com/gen2brain/raylib-go/raylib"
)

type Transform struct {
	Position rl.Vector3
	Rotation rl.Vector3 // Euler angles in degrees
	Scale    rl.Vector3
}

var nextUID atomic.Uint64

// GameObject is a node of a scene. UID is a runtime handle only; it is not
// persisted and changes across loads.
type GameObject struct {
	UID       uint64
	Name      string
	Tags      []string
	Transform Transform
	Active    bool
	Scene     *Scene
	Parent    *GameObject
	Children  []*GameObject

	// PrefabAsset marks a template that lives on disk rather than in a scene.
	PrefabAsset bool
	// PrefabSource is the asset path of the prefab this object was instanced from.
	PrefabSource string

	components []Component
	started    bool
	awake      bool
	destroyed  bool
}

func NewGameObject(name string) *GameObject {
	return &GameObject{
		UID:    nextUID.Add(1),
		Name:   name,
		Active: true,
		Transform: Transform{
			Position: rl.Vector3{},
			Rotation: rl.Vector3{},
			Scale:    rl.Vector3{X: 1, Y: 1, Z: 1},
		},
		components: make([]Component, 0),
		Children:   make([]*GameObject, 0),
	}
}

// AddComponent attaches c. Components added to an awake object are woken
// immediately; holders learn about them on the next Validate.
func (g *GameObject) AddComponent(c Component) {
	c.SetGameObject(g)
	g.components = append(g.components, c)
	if g.awake {
		if a, ok := c.(Awaker); ok {
			a.Awake()
		}
	}
}

// RemoveComponent detaches c after running its OnDestroy hook.
func (g *GameObject) RemoveComponent(c Component) bool {
	for i, existing := range g.components {
		if existing != c {
			continue
		}
		if d, ok := c.(Destroyer); ok && g.awake {
			d.OnDestroy()
		}
		g.components = append(g.components[:i], g.components[i+1:]...)
		return true
	}
	return false
}

// GetComponent returns the first component assignable to T.
func GetComponent[T Component](g *GameObject) T {
	var zero T
	for _, c := range g.components {
		if typed, ok := c.(T); ok {
			return typed
		}
	}
	return zero
}

func (g *GameObject) Components() []Component {
	return g.components
}

// HasComponent reports whether c is still attached to g.
func (g *GameObject) HasComponent(c Component) bool {
	return g.ComponentIndex(c) >= 0
}

// ComponentIndex is the position of c in the component list, or -1.
func (g *GameObject) ComponentIndex(c Component) int {
	for i, existing := range g.components {
		if existing == c {
			return i
		}
	}
	return -1
}

// Awake runs the Awaker hooks once, children included. Scenes call it when an
// object is added.
func (g *GameObject) Awake() {
	if g.awake || g.destroyed {
		return
	}
	g.awake = true
	for _, c := range g.components {
		if a, ok := c.(Awaker); ok {
			a.Awake()
		}
	}
	for _, child := range g.Children {
		child.Awake()
	}
}

func (g *GameObject) IsAwake() bool {
	return g.awake
}

// Validate is the post-edit reconciliation tick.
func (g *GameObject) Validate() {
	if g.destroyed {
		return
	}
	for _, c := range g.components {
		if v, ok := c.(Validator); ok {
			v.OnValidate()
		}
	}
}

// Destroy tears down g and its children. Every OnDestroy hook runs while the
// object is still fully readable; only afterwards is it marked destroyed and
// detached from its scene.
func (g *GameObject) Destroy() {
	if g.destroyed {
		return
	}
	g.teardown()
	if g.Scene != nil {
		g.Scene.RemoveGameObject(g)
	}
	if g.Parent != nil {
		g.Parent.RemoveChild(g)
	}
}

// teardown keeps the hierarchy intact so a destroyed subtree can still be
// inspected (and re-added by undo).
func (g *GameObject) teardown() {
	for _, child := range g.Children {
		if !child.destroyed {
			child.teardown()
		}
	}
	if g.awake {
		for _, c := range g.components {
			if d, ok := c.(Destroyer); ok {
				d.OnDestroy()
			}
		}
	}
	g.destroyed = true
}

func (g *GameObject) Destroyed() bool {
	return g.destroyed
}

// IsAsset reports whether g is a template: a prefab asset or an object being
// edited in a prefab stage.
func (g *GameObject) IsAsset() bool {
	for o := g; o != nil; o = o.Parent {
		if o.PrefabAsset {
			return true
		}
	}
	return g.Scene != nil && g.Scene.PrefabStage
}

func (g *GameObject) Start() {
	if g.started {
		return
	}
	for _, c := range g.components {
		c.Start()
	}
	g.started = true
}

func (g *GameObject) Update(deltaTime float32) {
	if !g.Active {
		return
	}
	for _, c := range g.components {
		c.Update(deltaTime)
	}
}

func (g *GameObject) HasTag(tag string) bool {
	for _, t := range g.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

func (g *GameObject) AddChild(child *GameObject) {
	child.Parent = g
	g.Children = append(g.Children, child)
}

func (g *GameObject) RemoveChild(child *GameObject) {
	for i, c := range g.Children {
		if c == child {
			g.Children = append(g.Children[:i], g.Children[i+1:]...)
			child.Parent = nil
			return
		}
	}
}

func (g *GameObject) WorldPosition() rl.Vector3 {
	if g.Parent == nil {
		return g.Transform.Position
	}
	parentPos := g.Parent.WorldPosition()
	parentRot := g.Parent.WorldRotation()
	parentScale := g.Parent.WorldScale()

	scaled := rl.Vector3{
		X: g.Transform.Position.X * parentScale.X,
		Y: g.Transform.Position.Y * parentScale.Y,
		Z: g.Transform.Position.Z * parentScale.Z,
	}

	// X then Y then Z, same as MeshRenderer
	rx := float64(parentRot.X) * math.Pi / 180
	ry := float64(parentRot.Y) * math.Pi / 180
	rz := float64(parentRot.Z) * math.Pi / 180
	rotMatrix := rl.MatrixMultiply(rl.MatrixMultiply(rl.MatrixRotateX(float32(rx)), rl.MatrixRotateY(float32(ry))), rl.MatrixRotateZ(float32(rz)))

	return rl.Vector3Add(parentPos, rl.Vector3Transform(scaled, rotMatrix))
}

func (g *GameObject) WorldRotation() rl.Vector3 {
	if g.Parent == nil {
		return g.Transform.Rotation
	}
	return rl.Vector3Add(g.Parent.WorldRotation(), g.Transform.Rotation)
}

func (g *GameObject) WorldScale() rl.Vector3 {
	if g.Parent == nil {
		return g.Transform.Scale
	}
	ps := g.Parent.WorldScale()
	return rl.Vector3{
		X: ps.X * g.Transform.Scale.X,
		Y: ps.Y * g.Transform.Scale.Y,
		Z: ps.Z * g.Transform.Scale.Z,
	}
}
