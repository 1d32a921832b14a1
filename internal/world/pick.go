package world

import (
	"math"

	"crossref/internal/components"
	"crossref/internal/engine"

	rl "github.com/gen2brain/raylib-go/raylib"
)

type AABB struct {
	Min rl.Vector3
	Max rl.Vector3
}

// NewAABBFromCenter creates an AABB from a center point and full size dimensions.
func NewAABBFromCenter(center, size rl.Vector3) AABB {
	half := rl.Vector3{X: abs(size.X) / 2, Y: abs(size.Y) / 2, Z: abs(size.Z) / 2}
	return AABB{
		Min: rl.Vector3Subtract(center, half),
		Max: rl.Vector3Add(center, half),
	}
}

// meshBounds is the axis-aligned box of g's renderer, ignoring rotation.
func meshBounds(m *components.MeshRenderer, g *engine.GameObject) AABB {
	scale := g.WorldScale()
	size := rl.Vector3{X: m.Size.X * scale.X, Y: m.Size.Y * scale.Y, Z: m.Size.Z * scale.Z}
	return NewAABBFromCenter(g.WorldPosition(), size)
}

type RaycastHit struct {
	GameObject *engine.GameObject
	Point      rl.Vector3
	Distance   float32
}

// Raycast returns the closest active object with a MeshRenderer hit by the
// ray, across every loaded scene.
func (w *World) Raycast(origin, direction rl.Vector3, maxDistance float32) (RaycastHit, bool) {
	direction = rl.Vector3Normalize(direction)
	closest := RaycastHit{Distance: maxDistance}
	hit := false

	for _, s := range w.Scenes {
		for _, g := range s.GameObjects {
			m := engine.GetComponent[*components.MeshRenderer](g)
			if m == nil || !g.Active {
				continue
			}
			if d, ok := meshBounds(m, g).raycast(origin, direction); ok && d < closest.Distance {
				closest = RaycastHit{
					GameObject: g,
					Point:      rl.Vector3Add(origin, rl.Vector3Scale(direction, d)),
					Distance:   d,
				}
				hit = true
			}
		}
	}
	return closest, hit
}

// raycast is the slab test. direction must be normalized.
func (b AABB) raycast(origin, direction rl.Vector3) (float32, bool) {
	tmin, tmax := float32(-math.MaxFloat32), float32(math.MaxFloat32)

	axes := [3][4]float32{
		{origin.X, direction.X, b.Min.X, b.Max.X},
		{origin.Y, direction.Y, b.Min.Y, b.Max.Y},
		{origin.Z, direction.Z, b.Min.Z, b.Max.Z},
	}
	for _, a := range axes {
		o, d, lo, hi := a[0], a[1], a[2], a[3]
		if d == 0 {
			if o < lo || o > hi {
				return 0, false
			}
			continue
		}
		t1, t2 := (lo-o)/d, (hi-o)/d
		if t1 > t2 {
			t1, t2 = t2, t1
		}
		tmin = max(tmin, t1)
		tmax = min(tmax, t2)
		if tmin > tmax {
			return 0, false
		}
	}

	if tmax < 0 {
		return 0, false
	}
	// Origin inside the box
	if tmin < 0 {
		return 0, true
	}
	return tmin, true
}

func abs(x float32) float32 {
	if x < 0 {
		return -x
	}
	return x
}
