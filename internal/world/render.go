package world

import (
	"crossref/internal/components"
	"crossref/internal/engine"

	rl "github.com/gen2brain/raylib-go/raylib"
)

// Draw renders every visible MeshRenderer of every loaded scene. It must be
// called between rl.BeginMode3D and rl.EndMode3D.
func (w *World) Draw(camera rl.Camera3D) int {
	f := ExtractFrustum(camera)
	drawn := 0
	for _, s := range w.Scenes {
		for _, g := range s.GameObjects {
			m := engine.GetComponent[*components.MeshRenderer](g)
			if m == nil || !g.Active {
				continue
			}
			if !f.ContainsSphere(g.WorldPosition(), boundingRadius(m, g)) {
				continue
			}
			m.Draw()
			drawn++
		}
	}
	return drawn
}

func boundingRadius(m *components.MeshRenderer, g *engine.GameObject) float32 {
	scale := g.WorldScale()
	size := rl.Vector3{X: m.Size.X * scale.X, Y: m.Size.Y * scale.Y, Z: m.Size.Z * scale.Z}
	return rl.Vector3Length(size) / 2
}
