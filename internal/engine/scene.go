package engine

type Scene struct {
	Name        string
	GameObjects []*GameObject

	// PrefabStage marks a scene used to edit a prefab; its objects count as
	// assets and never hold identities.
	PrefabStage bool

	uidMap map[uint64]*GameObject
}

func NewScene(name string) *Scene {
	return &Scene{
		Name:        name,
		GameObjects: make([]*GameObject, 0),
		uidMap:      make(map[uint64]*GameObject),
	}
}

// AddGameObject puts g (and its children) into the scene and wakes it.
func (s *Scene) AddGameObject(g *GameObject) {
	if s.uidMap == nil {
		s.uidMap = make(map[uint64]*GameObject)
	}
	s.attach(g)
	g.Awake()
}

func (s *Scene) attach(g *GameObject) {
	if _, exists := s.uidMap[g.UID]; !exists {
		s.GameObjects = append(s.GameObjects, g)
	}
	s.uidMap[g.UID] = g
	g.Scene = s
	for _, child := range g.Children {
		s.attach(child)
	}
}

// RemoveGameObject detaches g and its children without destroying them.
func (s *Scene) RemoveGameObject(g *GameObject) {
	for _, child := range g.Children {
		s.RemoveGameObject(child)
	}
	for i, obj := range s.GameObjects {
		if obj == g {
			s.GameObjects = append(s.GameObjects[:i], s.GameObjects[i+1:]...)
			break
		}
	}
	delete(s.uidMap, g.UID)
}

// Destroy destroys g and removes it from the scene.
func (s *Scene) Destroy(g *GameObject) {
	g.Destroy()
	s.RemoveGameObject(g)
}

// Unload destroys every object in the scene.
func (s *Scene) Unload() {
	for _, g := range s.Roots() {
		g.Destroy()
	}
	s.GameObjects = s.GameObjects[:0]
	clear(s.uidMap)
}

// Roots returns the objects without a parent, in scene order.
func (s *Scene) Roots() []*GameObject {
	var roots []*GameObject
	for _, g := range s.GameObjects {
		if g.Parent == nil {
			roots = append(roots, g)
		}
	}
	return roots
}

func (s *Scene) FindByUID(uid uint64) *GameObject {
	return s.uidMap[uid]
}

func (s *Scene) FindByName(name string) *GameObject {
	for _, g := range s.GameObjects {
		if g.Name == name {
			return g
		}
	}
	return nil
}

func (s *Scene) FindByTag(tag string) []*GameObject {
	var result []*GameObject
	for _, g := range s.GameObjects {
		if g.HasTag(tag) {
			result = append(result, g)
		}
	}
	return result
}

// FindByPath looks an object up by its structural path.
func (s *Scene) FindByPath(path string) *GameObject {
	for _, g := range s.GameObjects {
		if g.Path() == path {
			return g
		}
	}
	return nil
}

func (s *Scene) Start() {
	for _, g := range s.GameObjects {
		g.Start()
	}
}

func (s *Scene) Update(deltaTime float32) {
	for _, g := range s.GameObjects {
		g.Update(deltaTime)
	}
}
