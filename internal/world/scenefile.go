package world

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"crossref/internal/components"
	"crossref/internal/engine"
	"crossref/internal/guid"

	rl "github.com/gen2brain/raylib-go/raylib"
)

// --- JSON types ---

type SceneFile struct {
	Name    string      `json:"name,omitempty"`
	Objects []ObjectDef `json:"objects"`
}

type ObjectDef struct {
	Name     string     `json:"name"`
	Tags     []string   `json:"tags,omitempty"`
	Active   *bool      `json:"active,omitempty"`
	Position [3]float32 `json:"position"`
	Rotation [3]float32 `json:"rotation"`
	Scale    [3]float32 `json:"scale"`
	// Prefab is the asset path this object was instanced from.
	Prefab     string            `json:"prefab,omitempty"`
	Components []json.RawMessage `json:"components"`
	Children   []ObjectDef       `json:"children,omitempty"`
}

type componentHeader struct {
	Type string `json:"type"`
}

// guidComponentDef indexes refer to positions in ObjectDef.Components.
type guidComponentDef struct {
	Type       string                               `json:"type"`
	Guid       guid.Guid                            `json:"guid"`
	Components []components.SerializedComponentGuid `json:"components,omitempty"`
}

// guidComponentText is the loading form of guidComponentDef. Identifiers are
// read as text so one malformed value does not discard the others.
type guidComponentText struct {
	Guid       string            `json:"guid"`
	Components []json.RawMessage `json:"components"`
}

type componentGuidText struct {
	Index int    `json:"index"`
	Type  string `json:"type"`
	Guid  string `json:"guid"`
}

type meshRendererDef struct {
	Type  string     `json:"type"`
	Mesh  string     `json:"mesh"`
	Size  [3]float32 `json:"size"`
	Color string     `json:"color"`
}

type scriptDef struct {
	Type  string         `json:"type"`
	Name  string         `json:"name"`
	Props map[string]any `json:"props,omitempty"`
}

const (
	typeGuidComponent = "GuidComponent"
	typeMeshRenderer  = "MeshRenderer"
	typeScript        = "Script"
)

// --- Color mapping ---

var colorByName = map[string]rl.Color{
	"Red":       rl.Red,
	"Blue":      rl.Blue,
	"Green":     rl.Green,
	"Purple":    rl.Purple,
	"Orange":    rl.Orange,
	"Yellow":    rl.Yellow,
	"Pink":      rl.Pink,
	"SkyBlue":   rl.SkyBlue,
	"Lime":      rl.Lime,
	"Magenta":   rl.Magenta,
	"White":     rl.White,
	"LightGray": rl.LightGray,
	"Gray":      rl.Gray,
	"DarkGray":  rl.DarkGray,
	"Gold":      rl.Gold,
}

var nameByColor map[rl.Color]string

func init() {
	nameByColor = make(map[rl.Color]string, len(colorByName))
	for name, c := range colorByName {
		nameByColor[c] = name
	}
}

func lookupColor(name string) rl.Color {
	if c, ok := colorByName[name]; ok {
		return c
	}
	var r, g, b, a uint8
	if n, _ := fmt.Sscanf(name, "#%02x%02x%02x%02x", &r, &g, &b, &a); n == 4 {
		return rl.Color{R: r, G: g, B: b, A: a}
	}
	return rl.White
}

func lookupColorName(c rl.Color) string {
	if name, ok := nameByColor[c]; ok {
		return name
	}
	return fmt.Sprintf("#%02x%02x%02x%02x", c.R, c.G, c.B, c.A)
}

func vec(v [3]float32) rl.Vector3 {
	return rl.Vector3{X: v[0], Y: v[1], Z: v[2]}
}

func arr(v rl.Vector3) [3]float32 {
	return [3]float32{v.X, v.Y, v.Z}
}

// --- Loading ---

// LoadScene reads a scene file and adds it next to the scenes already
// loaded. The scene is named by the file's name field, else its base name.
func (w *World) LoadScene(path string) (*engine.Scene, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scene: %w", err)
	}

	var sf SceneFile
	if err := json.Unmarshal(data, &sf); err != nil {
		return nil, fmt.Errorf("parse scene %s: %w", path, err)
	}
	name := sf.Name
	if name == "" {
		name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}

	scene, err := w.AddScene(name)
	if err != nil {
		return nil, err
	}
	for _, objDef := range sf.Objects {
		scene.AddGameObject(w.buildObject(objDef))
	}
	scene.Start()

	w.Log.Info("scene loaded", "scene", name, "path", path,
		"objects", len(scene.GameObjects), "registered", w.Registry().Len())
	return scene, nil
}

// buildObject creates the object tree for def. It is not added to a scene.
func (w *World) buildObject(def ObjectDef) *engine.GameObject {
	g := engine.NewGameObject(def.Name)
	g.Tags = def.Tags
	g.PrefabSource = def.Prefab
	if def.Active != nil {
		g.Active = *def.Active
	}
	g.Transform.Position = vec(def.Position)
	g.Transform.Rotation = vec(def.Rotation)

	// Default scale to 1 if zero
	if def.Scale == [3]float32{} {
		g.Transform.Scale = rl.Vector3{X: 1, Y: 1, Z: 1}
	} else {
		g.Transform.Scale = vec(def.Scale)
	}

	var (
		holder *components.GuidComponent
		ids    components.SerializedGuids
	)
	// position in the file -> position on the object
	placed := make([]int, len(def.Components))
	for i, raw := range def.Components {
		placed[i] = -1

		var header componentHeader
		if err := json.Unmarshal(raw, &header); err != nil {
			w.Log.Warn("bad component entry", "object", def.Name, "index", i, "error", err)
			continue
		}

		var c engine.Component
		switch header.Type {
		case typeGuidComponent:
			if holder != nil {
				w.Log.Warn("duplicate GuidComponent ignored", "object", def.Name)
				continue
			}
			ids = w.loadGuids(def.Name, raw)
			holder = w.NewGuidComponent()
			c = holder
		case typeMeshRenderer:
			c = w.loadMeshRenderer(def.Name, raw)
		case typeScript:
			c = w.loadScript(def.Name, raw)
		default:
			w.Log.Warn("unknown component type", "object", def.Name, "type", header.Type)
		}
		if c == nil {
			continue
		}
		placed[i] = len(g.Components())
		g.AddComponent(c)
	}

	if holder != nil {
		s := components.SerializedGuids{Self: ids.Self}
		for _, cg := range ids.Components {
			if cg.Index < 0 || cg.Index >= len(placed) || placed[cg.Index] < 0 {
				continue
			}
			cg.Index = placed[cg.Index]
			s.Components = append(s.Components, cg)
		}
		holder.Deserialize(s)
	}

	for _, child := range def.Children {
		g.AddChild(w.buildObject(child))
	}
	return g
}

// loadGuids reads the persisted identifiers of a GuidComponent entry. A
// malformed identifier is dropped alone and minted again on wake.
func (w *World) loadGuids(object string, raw json.RawMessage) components.SerializedGuids {
	var out components.SerializedGuids
	var def guidComponentText
	if err := json.Unmarshal(raw, &def); err != nil {
		w.Log.Warn("bad GuidComponent", "object", object, "error", err)
		return out
	}
	if id, err := guid.Parse(def.Guid); err != nil {
		w.Log.Warn("bad object guid dropped", "object", object, "error", err)
	} else {
		out.Self = id
	}
	for i, entry := range def.Components {
		var cg componentGuidText
		if err := json.Unmarshal(entry, &cg); err != nil {
			w.Log.Warn("bad component guid entry", "object", object, "entry", i, "error", err)
			continue
		}
		id, err := guid.Parse(cg.Guid)
		if err != nil || id.IsEmpty() {
			w.Log.Warn("bad component guid dropped", "object", object, "entry", i, "type", cg.Type, "error", err)
			continue
		}
		out.Components = append(out.Components, components.SerializedComponentGuid{Index: cg.Index, Type: cg.Type, Guid: id})
	}
	return out
}

func (w *World) loadMeshRenderer(object string, raw json.RawMessage) engine.Component {
	var def meshRendererDef
	if err := json.Unmarshal(raw, &def); err != nil {
		w.Log.Warn("bad MeshRenderer", "object", object, "error", err)
		return nil
	}
	size := vec(def.Size)
	if def.Size == [3]float32{} {
		size = rl.Vector3{X: 1, Y: 1, Z: 1}
	}
	return components.NewMeshRenderer(components.ParseMeshType(def.Mesh), lookupColor(def.Color), size)
}

// loadScript creates a registered script. Reference fields that do not hold
// a valid identifier are dropped so the script starts with an empty reference.
func (w *World) loadScript(object string, raw json.RawMessage) engine.Component {
	var def scriptDef
	if err := json.Unmarshal(raw, &def); err != nil {
		w.Log.Warn("bad Script", "object", object, "error", err)
		return nil
	}
	for field, fieldType := range engine.ScriptFieldTypes(def.Name) {
		if fieldType != engine.FieldGuidReference {
			continue
		}
		v, ok := def.Props[field]
		if !ok {
			continue
		}
		s, isString := v.(string)
		if _, err := guid.Parse(s); !isString || err != nil {
			w.Log.Warn("invalid guid reference dropped",
				"object", object, "script", def.Name, "field", field, "value", v)
			delete(def.Props, field)
		}
	}
	comp := engine.CreateScript(def.Name, def.Props)
	if comp == nil {
		w.Log.Warn("unknown script", "object", object, "script", def.Name)
	}
	return comp
}

// --- Saving ---

// SaveScene writes the named scene to path.
func (w *World) SaveScene(name, path string) error {
	s := w.Scene(name)
	if s == nil {
		return fmt.Errorf("%w: %s", ErrUnknownScene, name)
	}

	sf := SceneFile{Name: s.Name, Objects: []ObjectDef{}}
	for _, g := range s.Roots() {
		sf.Objects = append(sf.Objects, serializeObject(g))
	}
	if err := writeJSON(path, sf); err != nil {
		return fmt.Errorf("save scene %s: %w", name, err)
	}
	w.Log.Info("scene saved", "scene", name, "path", path, "objects", len(s.GameObjects))
	return nil
}

func serializeObject(g *engine.GameObject) ObjectDef {
	def := ObjectDef{
		Name:     g.Name,
		Tags:     g.Tags,
		Position: arr(g.Transform.Position),
		Rotation: arr(g.Transform.Rotation),
		Scale:    arr(g.Transform.Scale),
		Prefab:   g.PrefabSource,
	}
	if !g.Active {
		inactive := false
		def.Active = &inactive
	}

	// Holder indexes must point into the written list, so place every
	// component before serializing the holder.
	comps := g.Components()
	written := make(map[int]int, len(comps))
	raws := make([]json.RawMessage, 0, len(comps))
	var holder *components.GuidComponent
	holderAt := -1
	for i, c := range comps {
		if gc, ok := c.(*components.GuidComponent); ok {
			if holder == nil {
				holder, holderAt = gc, len(raws)
				written[i] = len(raws)
				raws = append(raws, nil)
			}
			continue
		}
		raw := serializeComponent(c)
		if raw == nil {
			continue
		}
		written[i] = len(raws)
		raws = append(raws, raw)
	}

	if holder != nil {
		persisted := holder.Serialize()
		hd := guidComponentDef{Type: typeGuidComponent, Guid: persisted.Self}
		for _, cg := range persisted.Components {
			idx, ok := written[cg.Index]
			if !ok {
				continue
			}
			cg.Index = idx
			hd.Components = append(hd.Components, cg)
		}
		if data, err := json.Marshal(hd); err == nil {
			raws[holderAt] = data
		}
	}

	for _, raw := range raws {
		if raw != nil {
			def.Components = append(def.Components, raw)
		}
	}
	for _, child := range g.Children {
		def.Children = append(def.Children, serializeObject(child))
	}
	return def
}

func serializeComponent(c engine.Component) json.RawMessage {
	var def any

	switch comp := c.(type) {
	case *components.MeshRenderer:
		def = meshRendererDef{
			Type:  typeMeshRenderer,
			Mesh:  comp.MeshType.String(),
			Size:  arr(comp.Size),
			Color: lookupColorName(comp.Color),
		}

	default:
		// Try script registry
		if name, props, ok := engine.SerializeScript(c); ok {
			def = scriptDef{Type: typeScript, Name: name, Props: props}
		} else {
			return nil
		}
	}

	data, err := json.Marshal(def)
	if err != nil {
		return nil
	}
	return data
}

func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal: %w", err)
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create dir: %w", err)
		}
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write: %w", err)
	}
	return nil
}

// Snapshot captures g and its children in scene-file form, identities
// included.
func Snapshot(g *engine.GameObject) ObjectDef {
	return serializeObject(g)
}

// Rebuild creates a detached object tree from a snapshot.
func (w *World) Rebuild(def ObjectDef) *engine.GameObject {
	return w.buildObject(def)
}
