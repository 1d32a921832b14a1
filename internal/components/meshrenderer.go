package components

import (
	"fmt"

	"crossref/internal/engine"

	rl "github.com/gen2brain/raylib-go/raylib"
)

type MeshType int

const (
	MeshCube MeshType = iota
	MeshSphere
	MeshPlane
)

var meshTypeNames = map[MeshType]string{
	MeshCube:   "cube",
	MeshSphere: "sphere",
	MeshPlane:  "plane",
}

func (m MeshType) String() string {
	if name, ok := meshTypeNames[m]; ok {
		return name
	}
	return fmt.Sprintf("MeshType(%d)", int(m))
}

// ParseMeshType maps a scene-file name to a MeshType, defaulting to cube.
func ParseMeshType(name string) MeshType {
	for t, n := range meshTypeNames {
		if n == name {
			return t
		}
	}
	return MeshCube
}

type MeshRenderer struct {
	engine.BaseComponent
	MeshType MeshType
	Color    rl.Color
	Size     rl.Vector3
}

func NewMeshRenderer(meshType MeshType, color rl.Color, size rl.Vector3) *MeshRenderer {
	return &MeshRenderer{
		MeshType: meshType,
		Color:    color,
		Size:     size,
	}
}

func (m *MeshRenderer) Clone() engine.Component {
	return NewMeshRenderer(m.MeshType, m.Color, m.Size)
}

func (m *MeshRenderer) Draw() {
	g := m.GetGameObject()
	if g == nil || !g.Active {
		return
	}

	pos := g.WorldPosition()
	scale := g.WorldScale()
	size := rl.Vector3{X: m.Size.X * scale.X, Y: m.Size.Y * scale.Y, Z: m.Size.Z * scale.Z}

	switch m.MeshType {
	case MeshCube:
		rl.DrawCubeV(pos, size, m.Color)
		rl.DrawCubeWiresV(pos, size, rl.Black)
	case MeshSphere:
		rl.DrawSphere(pos, size.X, m.Color)
	case MeshPlane:
		rl.DrawPlane(pos, rl.Vector2{X: size.X, Y: size.Z}, m.Color)
	}
}
