// Package registry maps identifiers to the live objects that own them.
//
// Lookups may run before the target exists: Resolve leaves a placeholder
// holding the caller's Listener, and Register fires it once an owner binds.
// The registry only ever holds weak pointers to listeners, so an abandoned
// reference handle is collected together with its subscription.
//
// All methods must be called from the engine's main thread. There is no
// locking.
package registry

import (
	"sort"
	"weak"

	"crossref/internal/engine"
	"crossref/internal/guid"
	"crossref/internal/logger"
)

// Owner is the object an identifier is bound to. GuidComponent implements it.
type Owner interface {
	GetGameObject() *engine.GameObject
	// ComponentFromGuid returns the component id names, or nil when id is
	// the owner's self identity.
	ComponentFromGuid(id guid.Guid) engine.Component
	// Alive reports whether the owner can still be resolved to.
	Alive() bool
}

// Listener receives binding changes for one identifier. Keep a strong
// reference to it for as long as notifications are wanted.
type Listener struct {
	OnAdd    func(g *engine.GameObject, c engine.Component)
	OnRemove func()
}

type entry struct {
	owner     Owner
	listeners []weak.Pointer[Listener]
}

func (e *entry) attach(l *Listener) {
	w := weak.Make(l)
	for _, existing := range e.listeners {
		if existing == w {
			return
		}
	}
	e.listeners = append(e.listeners, w)
}

// live prunes collected listeners and returns the rest.
func (e *entry) live() []*Listener {
	out := make([]*Listener, 0, len(e.listeners))
	kept := e.listeners[:0]
	for _, w := range e.listeners {
		if l := w.Value(); l != nil {
			out = append(out, l)
			kept = append(kept, w)
		}
	}
	clear(e.listeners[len(kept):])
	e.listeners = kept
	return out
}

func (e *entry) bound() bool {
	return e.owner != nil && e.owner.Alive()
}

// Registry maps identifiers to the live owners bound to them and to the
// listeners waiting on each identifier.
type Registry struct {
	// Strict turns ownership violations into panics.
	Strict bool

	// Added fires after an identifier binds to an owner.
	Added engine.EventWithArg[guid.Guid]
	// Removed fires after an identifier is erased.
	Removed engine.EventWithArg[guid.Guid]

	entries map[guid.Guid]*entry
	log     *logger.Logger
}

// New returns an empty registry. A nil log discards output.
func New(log *logger.Logger) *Registry {
	if log == nil {
		log = logger.Nop()
	}
	return &Registry{
		entries: make(map[guid.Guid]*entry),
		log:     log.With("component", "guid-registry"),
	}
}

// Register binds id to owner. It returns false when id is Empty or already
// bound to a different live owner; the caller must mint a new id. Registering
// the same pair again is a no-op that returns true, so an owner holding
// several ids must keep them distinct itself.
func (r *Registry) Register(id guid.Guid, owner Owner) bool {
	if id.IsEmpty() || owner == nil {
		return false
	}

	e, ok := r.entries[id]
	if ok && e.owner != nil {
		if e.owner == owner {
			return true
		}
		if e.owner.Alive() {
			r.log.Warn("guid collision, registration rejected",
				"guid", id.String(),
				"owner", ownerPath(e.owner),
				"rejected", ownerPath(owner))
			return false
		}
		// The previous owner went away without unregistering.
		r.log.Debug("replacing stale owner", "guid", id.String(), "stale", ownerPath(e.owner))
		for _, l := range e.live() {
			if l.OnRemove != nil {
				l.OnRemove()
			}
		}
	}
	if !ok {
		e = &entry{}
		r.entries[id] = e
	}
	e.owner = owner

	g := owner.GetGameObject()
	c := owner.ComponentFromGuid(id)
	for _, l := range e.live() {
		if l.OnAdd != nil {
			l.OnAdd(g, c)
		}
	}
	r.Added.Invoke(id)
	return true
}

// Unregister fires every removal callback for id, then erases it. Unknown
// ids are ignored.
func (r *Registry) Unregister(id guid.Guid) {
	e, ok := r.entries[id]
	if !ok {
		return
	}
	for _, l := range e.live() {
		if l.OnRemove != nil {
			l.OnRemove()
		}
	}
	delete(r.entries, id)
	r.Removed.Invoke(id)
}

// UnregisterOwned is Unregister on behalf of owner. An id bound to a
// different owner is left alone and reported; in Strict mode it panics.
func (r *Registry) UnregisterOwned(id guid.Guid, owner Owner) {
	e, ok := r.entries[id]
	if !ok {
		return
	}
	if e.owner != nil && e.owner != owner {
		if r.Strict {
			panic("registry: " + id.String() + " unregistered by " + ownerPath(owner) + ", owned by " + ownerPath(e.owner))
		}
		r.log.Error("unregister by non-owner ignored",
			"guid", id.String(),
			"owner", ownerPath(e.owner),
			"caller", ownerPath(owner))
		return
	}
	r.Unregister(id)
}

// lookup returns the live owner of id, attaching l for future notifications.
// With a listener an unbound id gets a placeholder entry.
func (r *Registry) lookup(id guid.Guid, l *Listener) Owner {
	if id.IsEmpty() {
		return nil
	}
	e, ok := r.entries[id]
	if !ok {
		if l == nil {
			return nil
		}
		e = &entry{}
		r.entries[id] = e
	}
	if l != nil {
		e.attach(l)
	}
	if !e.bound() {
		return nil
	}
	return e.owner
}

// Resolve returns the object id is bound to, or nil. When l is non-nil it is
// attached to id: OnAdd fires when an unbound id binds and OnRemove when it
// is unregistered. Each listener is attached at most once per id.
func (r *Registry) Resolve(id guid.Guid, l *Listener) *engine.GameObject {
	o := r.lookup(id, l)
	if o == nil {
		return nil
	}
	return o.GetGameObject()
}

// ResolveComponent is Resolve for a component identity.
func (r *Registry) ResolveComponent(id guid.Guid, l *Listener) engine.Component {
	o := r.lookup(id, l)
	if o == nil {
		return nil
	}
	return o.ComponentFromGuid(id)
}

// ResolveAs resolves a component identity and asserts it to T.
func ResolveAs[T engine.Component](r *Registry, id guid.Guid, l *Listener) T {
	typed, _ := r.ResolveComponent(id, l).(T)
	return typed
}

// ResolveType returns the first component named typeName on the object id
// is bound to.
func (r *Registry) ResolveType(id guid.Guid, typeName string) engine.Component {
	o := r.lookup(id, nil)
	if o == nil {
		return nil
	}
	g := o.GetGameObject()
	if g == nil {
		return nil
	}
	for _, c := range g.Components() {
		if engine.TypeName(c) == typeName {
			return c
		}
	}
	return nil
}

// Exists reports whether id has an entry, placeholders included.
func (r *Registry) Exists(id guid.Guid) bool {
	_, ok := r.entries[id]
	return ok
}

// Bound reports whether id is bound to a live owner.
func (r *Registry) Bound(id guid.Guid) bool {
	e, ok := r.entries[id]
	return ok && e.bound()
}

// Owner returns the owner bound to id, alive or not.
func (r *Registry) Owner(id guid.Guid) Owner {
	if e, ok := r.entries[id]; ok {
		return e.owner
	}
	return nil
}

// UnregisterPrefabInstances removes every identity owned by an instance of
// the prefab at assetPath. It returns how many were removed.
func (r *Registry) UnregisterPrefabInstances(assetPath string) int {
	if assetPath == "" {
		return 0
	}
	var ids []guid.Guid
	for id, e := range r.entries {
		if e.owner == nil {
			continue
		}
		if g := e.owner.GetGameObject(); g != nil && prefabSource(g) == assetPath {
			ids = append(ids, id)
		}
	}
	for _, id := range ids {
		r.Unregister(id)
	}
	return len(ids)
}

func prefabSource(g *engine.GameObject) string {
	for o := g; o != nil; o = o.Parent {
		if o.PrefabSource != "" {
			return o.PrefabSource
		}
	}
	return ""
}

func (r *Registry) Len() int {
	return len(r.entries)
}

// EntryInfo is a read-only view of one entry for debug displays.
type EntryInfo struct {
	Guid      guid.Guid
	Path      string
	Component string
	Bound     bool
	Listeners int
}

// Entries returns a snapshot of the registry ordered by object path, then
// identifier. Placeholders have an empty Path.
func (r *Registry) Entries() []EntryInfo {
	out := make([]EntryInfo, 0, len(r.entries))
	for id, e := range r.entries {
		info := EntryInfo{Guid: id, Bound: e.bound(), Listeners: len(e.live())}
		if e.owner != nil {
			info.Path = ownerPath(e.owner)
			if c := e.owner.ComponentFromGuid(id); c != nil {
				info.Component = engine.TypeName(c)
			}
		}
		out = append(out, info)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Path != out[j].Path {
			return out[i].Path < out[j].Path
		}
		return out[i].Guid.String() < out[j].Guid.String()
	})
	return out
}

// Teardown unregisters everything, firing every removal callback.
func (r *Registry) Teardown() {
	ids := make([]guid.Guid, 0, len(r.entries))
	for id := range r.entries {
		ids = append(ids, id)
	}
	for _, id := range ids {
		r.Unregister(id)
	}
}

func ownerPath(o Owner) string {
	g := o.GetGameObject()
	if g == nil {
		return "<detached>"
	}
	return g.Path()
}
