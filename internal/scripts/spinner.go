// Package scripts holds the demo scripts registered with the engine's
// script registry.
package scripts

import (
	"fmt"

	"crossref/internal/components"
	"crossref/internal/engine"
	"crossref/internal/guid"
	"crossref/internal/reference"

	rl "github.com/gen2brain/raylib-go/raylib"
)

const SpinnerScript = "Spinner"

// Spinner spins its own object around the Y axis and, when loaded, the
// object Target points at, which may live in another scene. Mesh optionally
// names a renderer that is painted Tint while it resolves. A zero Tint
// leaves the renderer alone.
type Spinner struct {
	engine.BaseComponent
	Speed  float32
	Target reference.GuidReference
	Mesh   reference.ComponentReference[*components.MeshRenderer]
	Tint   rl.Color
}

func (s *Spinner) Update(deltaTime float32) {
	g := s.GetGameObject()
	if g == nil {
		return
	}
	spin(g, s.Speed*deltaTime)
	if target := s.Target.GameObject(); target != nil && target != g {
		spin(target, s.Speed*deltaTime)
	}
	if m, ok := s.Mesh.Component(); ok && s.Tint.A != 0 {
		m.Color = s.Tint
	}
}

func spin(g *engine.GameObject, degrees float32) {
	g.Transform.Rotation.Y += degrees
	if g.Transform.Rotation.Y > 360 {
		g.Transform.Rotation.Y -= 360
	}
}

func init() {
	engine.RegisterScriptWithMetadata(SpinnerScript, spinnerFactory, spinnerSerializer, spinnerApplier,
		map[string]string{
			"target": engine.FieldGuidReference,
			"mesh":   engine.FieldGuidReference,
		})
}

func spinnerFactory(props map[string]any) engine.Component {
	s := &Spinner{Speed: 90}
	for name, v := range props {
		spinnerApplier(s, name, v)
	}
	return s
}

func spinnerSerializer(c engine.Component) map[string]any {
	s, ok := c.(*Spinner)
	if !ok {
		return nil
	}
	props := map[string]any{
		"speed": s.Speed,
	}
	if !s.Target.Guid.IsEmpty() {
		props["target"] = s.Target.Guid.String()
	}
	if !s.Mesh.Guid.IsEmpty() {
		props["mesh"] = s.Mesh.Guid.String()
	}
	if s.Tint.A != 0 {
		props["tint"] = fmt.Sprintf("#%02x%02x%02x%02x", s.Tint.R, s.Tint.G, s.Tint.B, s.Tint.A)
	}
	return props
}

func spinnerApplier(c engine.Component, propName string, value any) bool {
	s, ok := c.(*Spinner)
	if !ok {
		return false
	}
	switch propName {
	case "speed":
		switch v := value.(type) {
		case float64:
			s.Speed = float32(v)
		case float32:
			s.Speed = v
		default:
			return false
		}
	case "target":
		id, ok := toGuid(value)
		if !ok {
			return false
		}
		s.Target.SetGuid(id)
	case "mesh":
		id, ok := toGuid(value)
		if !ok {
			return false
		}
		s.Mesh.SetGuid(id)
	case "tint":
		v, ok := value.(string)
		if !ok {
			return false
		}
		var c rl.Color
		if n, _ := fmt.Sscanf(v, "#%02x%02x%02x%02x", &c.R, &c.G, &c.B, &c.A); n != 4 {
			return false
		}
		s.Tint = c
	default:
		return false
	}
	return true
}

func toGuid(value any) (guid.Guid, bool) {
	switch v := value.(type) {
	case guid.Guid:
		return v, true
	case string:
		id, err := guid.Parse(v)
		return id, err == nil
	}
	return guid.Empty, false
}
