// Package world owns the loaded scenes and prefab templates and wires the
// identity registry, mapping store and holder context together.
package world

import (
	"errors"
	"fmt"
	"slices"

	"crossref/internal/components"
	"crossref/internal/config"
	"crossref/internal/engine"
	"crossref/internal/guid"
	"crossref/internal/logger"
	"crossref/internal/mappings"
	"crossref/internal/registry"
)

var (
	ErrSceneLoaded   = errors.New("world: scene already loaded")
	ErrUnknownScene  = errors.New("world: unknown scene")
	ErrUnknownPrefab = errors.New("world: unknown prefab")
)

type World struct {
	// Scenes in load order. Several can be loaded at once.
	Scenes  []*engine.Scene
	Prefabs map[string]*engine.GameObject
	// Stage is the open prefab stage, if any.
	Stage *engine.Scene

	Guids *components.GuidContext
	Log   *logger.Logger
}

// New builds a world with a fresh registry installed as the default. In
// editor mode the mapping store is opened from cfg.MappingsPath.
func New(cfg *config.Config, log *logger.Logger) (*World, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	if log == nil {
		log = logger.Nop()
	}

	reg := registry.New(log)
	reg.Strict = cfg.StrictRegistry
	registry.SetDefault(reg)

	var store *mappings.Store
	if cfg.Editor {
		var err error
		store, err = mappings.Open(cfg.MappingsPath, log)
		if err != nil {
			return nil, fmt.Errorf("open guid mappings: %w", err)
		}
	}

	ctx := components.NewGuidContext(cfg, reg, store, log)
	components.SetDefaultGuidContext(ctx)

	return &World{
		Prefabs: make(map[string]*engine.GameObject),
		Guids:   ctx,
		Log:     log.With("component", "world"),
	}, nil
}

func (w *World) Registry() *registry.Registry {
	return w.Guids.Registry
}

// Mappings returns the editor mapping store, or nil at runtime.
func (w *World) Mappings() *mappings.Store {
	return w.Guids.Mappings
}

func (w *World) Scene(name string) *engine.Scene {
	for _, s := range w.Scenes {
		if s.Name == name {
			return s
		}
	}
	return nil
}

// AddScene registers an empty scene.
func (w *World) AddScene(name string) (*engine.Scene, error) {
	if w.Scene(name) != nil {
		return nil, fmt.Errorf("%w: %s", ErrSceneLoaded, name)
	}
	s := engine.NewScene(name)
	w.Scenes = append(w.Scenes, s)
	return s, nil
}

// UnloadScene destroys every object of the scene, which unregisters their
// identities, and forgets the scene.
func (w *World) UnloadScene(name string) error {
	idx := slices.IndexFunc(w.Scenes, func(s *engine.Scene) bool { return s.Name == name })
	if idx < 0 {
		return fmt.Errorf("%w: %s", ErrUnknownScene, name)
	}
	s := w.Scenes[idx]
	count := len(s.GameObjects)
	s.Unload()
	w.Scenes = slices.Delete(w.Scenes, idx, idx+1)
	w.Log.Info("scene unloaded", "scene", name, "objects", count, "registered", w.Registry().Len())
	return nil
}

// Unload drops every scene and the prefab stage, then empties the registry.
func (w *World) Unload() {
	for len(w.Scenes) > 0 {
		_ = w.UnloadScene(w.Scenes[len(w.Scenes)-1].Name)
	}
	w.ClosePrefabStage()
	w.Registry().Teardown()
}

// FindByGuid returns the object bound to id in any loaded scene. id may name
// the object itself or one of its components.
func (w *World) FindByGuid(id guid.Guid) *engine.GameObject {
	if !w.Registry().Bound(id) {
		return nil
	}
	return w.Registry().Owner(id).GetGameObject()
}

// Spawn adds g to the named scene and wakes it.
func (w *World) Spawn(sceneName string, g *engine.GameObject) error {
	s := w.Scene(sceneName)
	if s == nil {
		return fmt.Errorf("%w: %s", ErrUnknownScene, sceneName)
	}
	s.AddGameObject(g)
	return nil
}

// NewGuidComponent returns a holder bound to this world's context.
func (w *World) NewGuidComponent() *components.GuidComponent {
	return &components.GuidComponent{Context: w.Guids}
}

func (w *World) Start() {
	for _, s := range w.Scenes {
		s.Start()
	}
}

func (w *World) Update(deltaTime float32) {
	for _, s := range w.Scenes {
		s.Update(deltaTime)
	}
}
