package engine

// Instantiate copies src and its children. The copy is not in any scene and is
// not awake; adding it to a scene wakes it. Components are copied through
// Cloner, or through the script registry for scripts; anything else is dropped.
func Instantiate(src *GameObject) *GameObject {
	m := make(map[Component]Component)
	dst := cloneTree(src, m)
	remap(dst, m)
	return dst
}

// NewPrefabAsset turns a copy of src into a template stored at assetPath.
// Templates are validated once so holders can clear their identities.
func NewPrefabAsset(src *GameObject, assetPath string) *GameObject {
	asset := Instantiate(src)
	asset.PrefabAsset = true
	asset.PrefabSource = assetPath
	asset.Validate()
	return asset
}

// InstantiatePrefab creates a live instance of a template.
func InstantiatePrefab(asset *GameObject) *GameObject {
	inst := Instantiate(asset)
	inst.PrefabAsset = false
	inst.PrefabSource = asset.PrefabSource
	return inst
}

// CloneComponent copies one component, or returns nil when it cannot be copied.
func CloneComponent(c Component) Component {
	if cl, ok := c.(Cloner); ok {
		return cl.Clone()
	}
	if name, props, ok := SerializeScript(c); ok {
		return CreateScript(name, props)
	}
	return nil
}

func cloneTree(src *GameObject, m map[Component]Component) *GameObject {
	dst := NewGameObject(src.Name)
	dst.Tags = append([]string(nil), src.Tags...)
	dst.Transform = src.Transform
	dst.Active = src.Active
	dst.PrefabAsset = src.PrefabAsset
	dst.PrefabSource = src.PrefabSource

	for _, c := range src.components {
		clone := CloneComponent(c)
		if clone == nil {
			continue
		}
		m[c] = clone
		dst.AddComponent(clone)
	}
	for _, child := range src.Children {
		dst.AddChild(cloneTree(child, m))
	}
	return dst
}

func remap(g *GameObject, m map[Component]Component) {
	for _, c := range g.components {
		if r, ok := c.(Remapper); ok {
			r.RemapComponents(m)
		}
	}
	for _, child := range g.Children {
		remap(child, m)
	}
}
