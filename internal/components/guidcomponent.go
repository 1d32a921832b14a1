package components

import (
	"errors"
	"fmt"
	"slices"
	"sort"

	"crossref/internal/engine"
	"crossref/internal/guid"
	"crossref/internal/mappings"
)

// ErrMintAttemptsExceeded means every freshly minted identifier collided.
// With random 128-bit values this only happens when the registry or the
// mint function is broken, so it panics.
var ErrMintAttemptsExceeded = errors.New("components: guid mint attempts exceeded")

// ObjectOwnerType is the owner type recorded for an object's own identity.
const ObjectOwnerType = "GameObject"

// GuidComponent gives its object, and every other component on it, a stable
// identifier that can be resolved through the registry from any scene.
//
// Each identity goes Unassigned -> restored or minted -> Bound. Restore tries
// the editor cache, then the persisted value, then the mapping store by
// structural path. After the first rejected registration only fresh mints
// are tried. Templates (prefab assets and prefab stages) hold no identities.
type GuidComponent struct {
	engine.BaseComponent

	// Context overrides DefaultGuidContext for this component.
	Context *GuidContext

	guid    guid.Guid
	cache   guid.Guid
	bound   bool
	records []*ComponentGuid
	pending []SerializedComponentGuid
}

func NewGuidComponent() *GuidComponent {
	return &GuidComponent{}
}

func (gc *GuidComponent) ctx() *GuidContext {
	if gc.Context != nil {
		return gc.Context
	}
	return DefaultGuidContext()
}

// Alive reports whether gc is still attached to a live object.
func (gc *GuidComponent) Alive() bool {
	g := gc.GetGameObject()
	return g != nil && !g.Destroyed() && g.HasComponent(gc)
}

func (gc *GuidComponent) Awake() {
	gc.applyPending()
	gc.reconcile()
}

func (gc *GuidComponent) OnValidate() {
	gc.reconcile()
}

// Reset drops the persisted identifiers and restores them from the editor
// cache, which Reset leaves alone.
func (gc *GuidComponent) Reset() {
	g := gc.GetGameObject()
	if g == nil || g.IsAsset() {
		return
	}
	gc.guid = guid.Empty
	for _, rec := range gc.records {
		rec.Guid = guid.Empty
	}
	gc.reconcile()
}

// OnDestroy unregisters every identity while the object is still readable.
// Mapping store items are kept as orphans so the object can be recovered.
func (gc *GuidComponent) OnDestroy() {
	g := gc.GetGameObject()
	if g == nil || g.IsAsset() {
		return
	}
	store := gc.ctx().Mappings
	path := g.Path()

	if gc.bound && store != nil {
		store.MarkOrphaned(path, "")
	}
	gc.release(&gc.bound, gc.guid)
	for _, rec := range gc.records {
		if rec.bound && store != nil {
			gc.orphan(path, rec.Guid)
		}
		gc.release(&rec.bound, rec.Guid)
	}
}

func (gc *GuidComponent) reconcile() {
	g := gc.GetGameObject()
	if g == nil || g.Destroyed() {
		return
	}
	if g.IsAsset() {
		gc.clear()
		gc.syncRecords()
		return
	}
	gc.syncRecords()
	if !g.IsAwake() {
		return
	}
	gc.bindSelf()
	for _, rec := range gc.records {
		gc.bindComponent(rec)
	}
}

// syncRecords adds a record for every identifiable component, prunes records
// whose component is gone and orders the rest like the components.
func (gc *GuidComponent) syncRecords() {
	g := gc.GetGameObject()
	ex := gc.ctx().Excluders

	for _, c := range g.Components() {
		if ex.Excludes(c) || gc.recordFor(c) != nil {
			continue
		}
		gc.records = append(gc.records, &ComponentGuid{Component: c})
	}

	kept := gc.records[:0]
	for _, rec := range gc.records {
		if rec.Component != nil && g.HasComponent(rec.Component) && !ex.Excludes(rec.Component) {
			kept = append(kept, rec)
			continue
		}
		gc.prune(rec)
	}
	clear(gc.records[len(kept):])
	gc.records = kept

	sort.SliceStable(gc.records, func(i, j int) bool {
		return g.ComponentIndex(gc.records[i].Component) < g.ComponentIndex(gc.records[j].Component)
	})
}

func (gc *GuidComponent) prune(rec *ComponentGuid) {
	if rec.Guid.IsEmpty() {
		return
	}
	if rec.bound {
		gc.orphan(gc.GetGameObject().Path(), rec.Guid)
	}
	gc.release(&rec.bound, rec.Guid)
	gc.ctx().logger().Debug("component identity pruned",
		"path", gc.GetGameObject().Path(), "type", rec.TypeName(), "guid", rec.Guid.String())
}

func (gc *GuidComponent) orphan(objectPath string, id guid.Guid) {
	store := gc.ctx().Mappings
	if store == nil {
		return
	}
	if item, ok := store.TryGet(mappings.Query{ObjectPath: objectPath, ComponentGuid: id}); ok {
		store.SetState(item, mappings.Orphaned)
	}
}

// clear drops every identity; templates must not carry any.
func (gc *GuidComponent) clear() {
	gc.release(&gc.bound, gc.guid)
	gc.guid, gc.cache = guid.Empty, guid.Empty
	for _, rec := range gc.records {
		gc.release(&rec.bound, rec.Guid)
		rec.Guid, rec.cache = guid.Empty, guid.Empty
	}
	gc.pending = nil
}

func (gc *GuidComponent) release(bound *bool, id guid.Guid) {
	if !*bound {
		return
	}
	*bound = false
	gc.ctx().registry().UnregisterOwned(id, gc)
}

func (gc *GuidComponent) bindSelf() {
	if gc.bound && !gc.guid.IsEmpty() && gc.ctx().registry().Owner(gc.guid) == gc {
		return
	}
	gc.bound = false

	candidate, source := gc.restoreSelf()
	gc.claim(&gc.guid, candidate, source, ObjectOwnerType)
	gc.cache = gc.guid
	gc.bound = true
	gc.remember(mappings.ObjectQuery(gc.GetGameObject().Path()), ObjectOwnerType, gc.guid)
}

func (gc *GuidComponent) restoreSelf() (guid.Guid, string) {
	if !gc.cache.IsEmpty() {
		return gc.cache, "cache"
	}
	if !gc.guid.IsEmpty() {
		return gc.guid, "persisted"
	}
	if store := gc.ctx().Mappings; store != nil {
		if item, ok := store.TryGet(mappings.ObjectQuery(gc.GetGameObject().Path())); ok {
			if item.OwnerType == ObjectOwnerType {
				return item.Guid, "mappings"
			}
			gc.ctx().logger().Debug("mapping rejected, type mismatch",
				"path", item.ObjectPath, "recorded", item.OwnerType)
		}
	}
	return guid.Empty, ""
}

func (gc *GuidComponent) bindComponent(rec *ComponentGuid) {
	if rec.bound && !rec.Guid.IsEmpty() && gc.ctx().registry().Owner(rec.Guid) == gc {
		// The path shifts when an earlier sibling of the same type goes away.
		gc.rememberComponent(rec)
		return
	}
	rec.bound = false

	candidate, source := gc.restoreComponent(rec)
	gc.claim(&rec.Guid, candidate, source, rec.TypeName())
	rec.cache = rec.Guid
	rec.bound = true
	gc.rememberComponent(rec)
}

func (gc *GuidComponent) rememberComponent(rec *ComponentGuid) {
	if cp := engine.ComponentPath(rec.Component); cp != "" {
		gc.remember(mappings.ComponentQuery(gc.GetGameObject().Path(), cp), rec.TypeName(), rec.Guid)
	}
}

func (gc *GuidComponent) restoreComponent(rec *ComponentGuid) (guid.Guid, string) {
	if !rec.cache.IsEmpty() {
		return rec.cache, "cache"
	}
	if !rec.Guid.IsEmpty() {
		return rec.Guid, "persisted"
	}
	store := gc.ctx().Mappings
	if store == nil {
		return guid.Empty, ""
	}

	objectPath := gc.GetGameObject().Path()
	componentPath := engine.ComponentPath(rec.Component)
	typeName := rec.TypeName()

	if item, ok := store.TryGet(mappings.ComponentQuery(objectPath, componentPath)); ok {
		switch {
		case item.OwnerType != typeName:
			gc.ctx().logger().Debug("mapping rejected, type mismatch",
				"path", objectPath, "component", componentPath,
				"recorded", item.OwnerType, "actual", typeName)
		case gc.heldElsewhere(&rec.Guid, item.Guid):
			gc.ctx().logger().Debug("mapping rejected, held by a sibling",
				"path", objectPath, "component", componentPath, "guid", item.Guid.String())
		case item.State == mappings.Orphaned:
			if store.Adopt(item, objectPath, componentPath, typeName) {
				return item.Guid, "adopted"
			}
		default:
			return item.Guid, "mappings"
		}
	}

	for _, orphan := range store.Orphans(objectPath) {
		if orphan.OwnerType != typeName {
			continue
		}
		if store.Adopt(orphan, objectPath, componentPath, typeName) {
			return orphan.Guid, "adopted"
		}
	}
	return guid.Empty, ""
}

// claim registers candidate into *slot, minting replacements after the first
// rejection. *slot holds the id during Register so that listeners firing
// inside it resolve the right component.
func (gc *GuidComponent) claim(slot *guid.Guid, candidate guid.Guid, source, target string) {
	ctx := gc.ctx()
	reg := ctx.registry()
	log := ctx.logger()
	path := gc.GetGameObject().Path()

	if !candidate.IsEmpty() && gc.heldElsewhere(slot, candidate) {
		log.Debug("candidate already held by this object", "path", path, "target", target,
			"source", source, "guid", candidate.String())
		candidate = guid.Empty
	}
	if !candidate.IsEmpty() {
		*slot = candidate
		if reg.Register(candidate, gc) {
			log.Debug("identity restored", "path", path, "target", target, "source", source, "guid", candidate.String())
			return
		}
	}

	limit := ctx.maxMintAttempts()
	for attempt := 1; attempt <= limit; attempt++ {
		id := ctx.mint()
		*slot = id
		if !gc.heldElsewhere(slot, id) && reg.Register(id, gc) {
			log.Debug("identity minted", "path", path, "target", target, "guid", id.String(), "attempt", attempt)
			return
		}
	}
	*slot = guid.Empty
	panic(fmt.Errorf("%w: %d attempts for %s %s", ErrMintAttemptsExceeded, limit, path, target))
}

// heldElsewhere reports whether id sits in one of gc's identity slots other
// than slot. The registry accepts a repeat registration by the same owner.
func (gc *GuidComponent) heldElsewhere(slot *guid.Guid, id guid.Guid) bool {
	if id.IsEmpty() {
		return false
	}
	if slot != &gc.guid && gc.guid == id {
		return true
	}
	for _, rec := range gc.records {
		if slot != &rec.Guid && rec.Guid == id {
			return true
		}
	}
	return false
}

// remember records a bound identity in the mapping store. A component item
// already stored under another path is moved to q first.
func (gc *GuidComponent) remember(q mappings.Query, ownerType string, id guid.Guid) {
	store := gc.ctx().Mappings
	if store == nil || q.ObjectPath == "" {
		return
	}
	if q.ComponentPath != "" {
		store.Rekey(q.ObjectPath, id, q.ComponentPath)
	}
	if item, ok := store.TryGet(q); ok && item.Guid == id && item.OwnerType == ownerType {
		store.SetState(item, mappings.Owned)
		return
	}
	store.Add(q, &mappings.Item{State: mappings.Owned, OwnerType: ownerType, Guid: id}, true)
}

func (gc *GuidComponent) recordFor(c engine.Component) *ComponentGuid {
	for _, rec := range gc.records {
		if rec.Component == c {
			return rec
		}
	}
	return nil
}

// GetGuid returns the identity of the object itself.
func (gc *GuidComponent) GetGuid() guid.Guid {
	return gc.guid
}

// GetGuidForType returns the identity of the first component of the named
// type, or of the object for ObjectOwnerType.
func (gc *GuidComponent) GetGuidForType(typeName string) guid.Guid {
	if typeName == ObjectOwnerType {
		return gc.guid
	}
	for _, rec := range gc.records {
		if rec.MatchesType(typeName) {
			return rec.Guid
		}
	}
	return guid.Empty
}

// GetGuidFor returns the identity of c, or Empty.
func (gc *GuidComponent) GetGuidFor(c engine.Component) guid.Guid {
	if _, ok := c.(*GuidComponent); ok {
		return guid.Empty
	}
	if rec := gc.recordFor(c); rec != nil {
		return rec.Guid
	}
	return guid.Empty
}

// ComponentFromGuid returns the component id names, or nil for the object's
// own identity and unknown ids.
func (gc *GuidComponent) ComponentFromGuid(id guid.Guid) engine.Component {
	if id.IsEmpty() || id == gc.guid {
		return nil
	}
	for _, rec := range gc.records {
		if rec.Guid == id {
			return rec.Component
		}
	}
	return nil
}

func (gc *GuidComponent) ComponentGUIDs() []*ComponentGuid {
	return slices.Clone(gc.records)
}

func (gc *GuidComponent) HasMultipleComponentsOf(typeName string) bool {
	n := 0
	for _, rec := range gc.records {
		if rec.MatchesType(typeName) {
			n++
		}
	}
	return n > 1
}

// OrphanedGuids lists identities the mapping store remembers for removed
// components of this object.
func (gc *GuidComponent) OrphanedGuids() []guid.Guid {
	store := gc.ctx().Mappings
	g := gc.GetGameObject()
	if store == nil || g == nil {
		return nil
	}
	var out []guid.Guid
	for _, item := range store.Orphans(g.Path()) {
		out = append(out, item.Guid)
	}
	return out
}

// AdoptOrphan rebinds the orphaned identity id to c, replacing the identity
// c currently has. It fails when id is not an orphan of this object, has a
// different type, or is bound elsewhere.
func (gc *GuidComponent) AdoptOrphan(id guid.Guid, c engine.Component) bool {
	store := gc.ctx().Mappings
	g := gc.GetGameObject()
	rec := gc.recordFor(c)
	if store == nil || g == nil || rec == nil || g.IsAsset() {
		return false
	}
	reg := gc.ctx().registry()
	if reg.Bound(id) {
		return false
	}

	objectPath := g.Path()
	componentPath := engine.ComponentPath(c)
	var orphan *mappings.Item
	for _, item := range store.Orphans(objectPath) {
		if item.Guid == id {
			orphan = item
			break
		}
	}
	if orphan == nil || orphan.OwnerType != rec.TypeName() {
		return false
	}

	if current, ok := store.TryGet(mappings.ComponentQuery(objectPath, componentPath)); ok && current != orphan {
		store.Remove(mappings.ComponentQuery(objectPath, componentPath))
	}
	if !store.Adopt(orphan, objectPath, componentPath, rec.TypeName()) {
		return false
	}

	gc.release(&rec.bound, rec.Guid)
	rec.Guid = id
	if !reg.Register(id, gc) {
		// Bound was checked above; only a dead owner can be left here.
		rec.Guid = guid.Empty
		rec.cache = guid.Empty
		gc.bindComponent(rec)
		return false
	}
	rec.cache = id
	rec.bound = true
	gc.ctx().logger().Info("orphan adopted", "path", objectPath, "component", componentPath, "guid", id.String())
	return true
}

// ForgetOrphan permanently deletes an orphaned identity from the mapping
// store.
func (gc *GuidComponent) ForgetOrphan(id guid.Guid) bool {
	store := gc.ctx().Mappings
	g := gc.GetGameObject()
	if store == nil || g == nil {
		return false
	}
	q := mappings.Query{ObjectPath: g.Path(), ComponentGuid: id}
	item, ok := store.TryGet(q)
	if !ok || item.State != mappings.Orphaned {
		return false
	}
	return store.Remove(q)
}

// Serialize returns the persisted form. Templates serialize empty ids.
func (gc *GuidComponent) Serialize() SerializedGuids {
	s := SerializedGuids{Self: gc.guid}
	g := gc.GetGameObject()
	for _, rec := range gc.records {
		if g == nil {
			break
		}
		idx := g.ComponentIndex(rec.Component)
		if idx < 0 {
			continue
		}
		s.Components = append(s.Components, SerializedComponentGuid{Index: idx, Type: rec.TypeName(), Guid: rec.Guid})
	}
	s.Components = append(s.Components, gc.pending...)
	return s
}

// Deserialize loads persisted ids. Component ids are matched to components
// by index and type when the object wakes. On an awake object the current
// identities are released first.
func (gc *GuidComponent) Deserialize(s SerializedGuids) {
	g := gc.GetGameObject()
	awake := g != nil && g.IsAwake()
	if awake {
		gc.clear()
	}
	gc.guid = s.Self
	gc.pending = slices.Clone(s.Components)
	if awake {
		gc.applyPending()
		gc.reconcile()
	}
}

func (gc *GuidComponent) applyPending() {
	g := gc.GetGameObject()
	if g == nil || len(gc.pending) == 0 {
		return
	}
	comps := g.Components()
	ex := gc.ctx().Excluders
	for _, p := range gc.pending {
		if p.Index < 0 || p.Index >= len(comps) || engine.TypeName(comps[p.Index]) != p.Type || ex.Excludes(comps[p.Index]) {
			gc.ctx().logger().Debug("persisted component guid dropped",
				"path", g.Path(), "index", p.Index, "type", p.Type, "guid", p.Guid.String())
			continue
		}
		c := comps[p.Index]
		rec := gc.recordFor(c)
		if rec == nil {
			rec = &ComponentGuid{Component: c}
			gc.records = append(gc.records, rec)
		}
		rec.Guid = p.Guid
	}
	gc.pending = nil
}

// Clone copies the persisted state only. The copy collides with the
// original on registration and mints fresh ids.
func (gc *GuidComponent) Clone() engine.Component {
	clone := &GuidComponent{
		Context: gc.Context,
		guid:    gc.guid,
		pending: slices.Clone(gc.pending),
	}
	for _, rec := range gc.records {
		clone.records = append(clone.records, &ComponentGuid{Component: rec.Component, Guid: rec.Guid})
	}
	return clone
}

func (gc *GuidComponent) RemapComponents(m map[engine.Component]engine.Component) {
	for _, rec := range gc.records {
		rec.Component = m[rec.Component]
	}
}
