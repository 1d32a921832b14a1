// Package reference holds serializable handles to objects and components
// that may live in another scene, or not be loaded yet.
//
// A handle stores only an identifier. The first access resolves it through
// the registry and caches the answer, including "absent". After that every
// access is a flag check until the registry reports the target added or
// removed.
package reference

import (
	"crossref/internal/components"
	"crossref/internal/engine"
	"crossref/internal/guid"
	"crossref/internal/registry"
)

// GuidReference points at an object by its identity.
type GuidReference struct {
	Guid guid.Guid
	// Registry defaults to registry.Default().
	Registry *registry.Registry

	cache lazy[*engine.GameObject]
}

// To returns a reference to the object holding target.
func To(target *components.GuidComponent) GuidReference {
	if target == nil {
		return GuidReference{}
	}
	return GuidReference{Guid: target.GetGuid()}
}

func FromGuid(id guid.Guid) GuidReference {
	return GuidReference{Guid: id}
}

func (r *GuidReference) registry() *registry.Registry {
	if r.Registry == nil {
		return registry.Default()
	}
	return r.Registry
}

// GameObject returns the referenced object, or nil while it is not loaded.
func (r *GuidReference) GameObject() *engine.GameObject {
	g, _ := r.cache.get(r.Guid,
		func(l *registry.Listener) (*engine.GameObject, bool) {
			g := r.registry().Resolve(r.Guid, l)
			return g, g != nil
		},
		func(g *engine.GameObject, _ engine.Component) (*engine.GameObject, bool) {
			return g, g != nil
		})
	return g
}

func (r *GuidReference) IsValid() bool {
	return r.GameObject() != nil
}

// Set points r at target's object.
func (r *GuidReference) Set(target *components.GuidComponent) {
	id := guid.Empty
	if target != nil {
		id = target.GetGuid()
	}
	r.SetGuid(id)
}

func (r *GuidReference) SetGuid(id guid.Guid) {
	r.Guid = id
	r.cache.reset()
}

func (r *GuidReference) Clear() {
	r.SetGuid(guid.Empty)
}

// Invalidate drops the cached target; the next access resolves again.
func (r *GuidReference) Invalidate() {
	r.cache.invalidate()
}

func (r GuidReference) String() string {
	return r.Guid.String()
}

func (r GuidReference) MarshalText() ([]byte, error) {
	return r.Guid.MarshalText()
}

// UnmarshalText loads an identifier and always drops the cache.
func (r *GuidReference) UnmarshalText(text []byte) error {
	var id guid.Guid
	if err := id.UnmarshalText(text); err != nil {
		return err
	}
	r.SetGuid(id)
	return nil
}

// ComponentReference points at a component by its identity. Resolved
// components that are not a T count as absent.
type ComponentReference[T engine.Component] struct {
	Guid     guid.Guid
	Registry *registry.Registry

	cache lazy[T]
}

// ComponentTo returns a reference to c. It is empty when c's object has no
// GuidComponent or c has no identity yet.
func ComponentTo[T engine.Component](c T) ComponentReference[T] {
	g := c.GetGameObject()
	if g == nil {
		return ComponentReference[T]{}
	}
	holder := engine.GetComponent[*components.GuidComponent](g)
	if holder == nil {
		return ComponentReference[T]{}
	}
	return ComponentReference[T]{Guid: holder.GetGuidFor(c)}
}

func ComponentFromGuid[T engine.Component](id guid.Guid) ComponentReference[T] {
	return ComponentReference[T]{Guid: id}
}

func (r *ComponentReference[T]) registry() *registry.Registry {
	if r.Registry == nil {
		return registry.Default()
	}
	return r.Registry
}

// Component returns the referenced component and whether it is loaded.
func (r *ComponentReference[T]) Component() (T, bool) {
	return r.cache.get(r.Guid,
		func(l *registry.Listener) (T, bool) {
			typed, ok := r.registry().ResolveComponent(r.Guid, l).(T)
			return typed, ok
		},
		func(_ *engine.GameObject, c engine.Component) (T, bool) {
			typed, ok := c.(T)
			return typed, ok
		})
}

// GameObject returns the object carrying the referenced component.
func (r *ComponentReference[T]) GameObject() *engine.GameObject {
	c, ok := r.Component()
	if !ok {
		return nil
	}
	return c.GetGameObject()
}

func (r *ComponentReference[T]) IsValid() bool {
	_, ok := r.Component()
	return ok
}

func (r *ComponentReference[T]) SetGuid(id guid.Guid) {
	r.Guid = id
	r.cache.reset()
}

func (r *ComponentReference[T]) Clear() {
	r.SetGuid(guid.Empty)
}

func (r *ComponentReference[T]) Invalidate() {
	r.cache.invalidate()
}

func (r ComponentReference[T]) String() string {
	return r.Guid.String()
}

func (r ComponentReference[T]) MarshalText() ([]byte, error) {
	return r.Guid.MarshalText()
}

func (r *ComponentReference[T]) UnmarshalText(text []byte) error {
	var id guid.Guid
	if err := id.UnmarshalText(text); err != nil {
		return err
	}
	r.SetGuid(id)
	return nil
}
