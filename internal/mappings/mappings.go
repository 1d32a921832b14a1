// Package mappings is the editor-side table that remembers which identifier
// an object (or one of its components) had, keyed by structural path.
//
// Destroying and re-creating an object (prefab revert, undo of a delete,
// removing and re-adding a component) loses the engine instance but not its
// path, so the holder can recover the same identifier instead of minting.
// Orphaned items are kept until removed explicitly.
package mappings

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"gopkg.in/yaml.v3"

	"crossref/internal/guid"
	"crossref/internal/logger"
)

var ErrInvalidState = errors.New("mappings: invalid state")

type State int

const (
	None State = iota
	Owned
	Orphaned
)

var stateNames = [...]string{None: "none", Owned: "owned", Orphaned: "orphaned"}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return fmt.Sprintf("State(%d)", int(s))
	}
	return stateNames[s]
}

func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *State) UnmarshalText(text []byte) error {
	for i, name := range stateNames {
		if name == string(text) {
			*s = State(i)
			return nil
		}
	}
	return fmt.Errorf("%w: %q", ErrInvalidState, text)
}

// Item is the last known identity of one object or component.
type Item struct {
	State         State     `yaml:"state"`
	OwnerType     string    `yaml:"owner_type"`
	ObjectPath    string    `yaml:"object_path"`
	ComponentPath string    `yaml:"component_path,omitempty"`
	Guid          guid.Guid `yaml:"guid"`
}

// Record groups the object item with its component items, keyed by
// component path.
type Record struct {
	Object     *Item            `yaml:"object,omitempty"`
	Components map[string]*Item `yaml:"components,omitempty"`
}

// Query addresses an item. With ComponentPath set it names a component;
// otherwise a non-empty ComponentGuid names the component holding that
// identifier; otherwise it names the object itself.
type Query struct {
	ObjectPath    string
	ComponentPath string
	ComponentGuid guid.Guid
}

func ObjectQuery(objectPath string) Query {
	return Query{ObjectPath: objectPath}
}

func ComponentQuery(objectPath, componentPath string) Query {
	return Query{ObjectPath: objectPath, ComponentPath: componentPath}
}

type Store struct {
	path    string
	records map[string]*Record
	dirty   bool
	log     *logger.Logger
}

type file struct {
	Version int                `yaml:"version"`
	Records map[string]*Record `yaml:"records"`
}

const fileVersion = 1

// New returns an empty store that is not backed by a file.
func New(log *logger.Logger) *Store {
	if log == nil {
		log = logger.Nop()
	}
	return &Store{
		records: make(map[string]*Record),
		log:     log.With("component", "guid-mappings"),
	}
}

// Open loads the store saved at path. A missing file yields an empty store
// that Save will create.
func Open(path string, log *logger.Logger) (*Store, error) {
	s := New(log)
	s.path = path

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read mappings %s: %w", path, err)
	}

	var f file
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse mappings %s: %w", path, err)
	}
	for key, rec := range f.Records {
		if rec == nil {
			continue
		}
		if rec.Components == nil {
			rec.Components = make(map[string]*Item)
		}
		s.records[key] = rec
	}
	s.log.Info("mappings loaded", "path", path, "records", len(s.records))
	return s, nil
}

func (s *Store) Path() string { return s.path }

// Dirty reports whether the store changed since it was loaded or saved.
func (s *Store) Dirty() bool { return s.dirty }

// Save writes the store to its file. In-memory stores are a no-op.
func (s *Store) Save() error {
	if s.path == "" {
		return nil
	}
	data, err := yaml.Marshal(file{Version: fileVersion, Records: s.records})
	if err != nil {
		return fmt.Errorf("encode mappings: %w", err)
	}
	if dir := filepath.Dir(s.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create mappings dir: %w", err)
		}
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write mappings %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("replace mappings %s: %w", s.path, err)
	}
	s.dirty = false
	s.log.Debug("mappings saved", "path", s.path, "records", len(s.records))
	return nil
}

func (s *Store) valid(q Query) bool {
	if q.ObjectPath == "" {
		s.log.Error("query without object path", "component_path", q.ComponentPath)
		return false
	}
	return true
}

// Add stores item at q. Existing items are replaced only when overwrite is
// set. It reports whether the store changed.
func (s *Store) Add(q Query, item *Item, overwrite bool) bool {
	if !s.valid(q) || item == nil {
		return false
	}
	rec, ok := s.records[q.ObjectPath]
	if !ok {
		rec = &Record{Components: make(map[string]*Item)}
		s.records[q.ObjectPath] = rec
		s.dirty = true
	}

	item.ObjectPath = q.ObjectPath
	switch {
	case q.ComponentPath != "":
		if _, exists := rec.Components[q.ComponentPath]; exists && !overwrite {
			return false
		}
		item.ComponentPath = q.ComponentPath
		rec.Components[q.ComponentPath] = item
	case !q.ComponentGuid.IsEmpty():
		key, existing := rec.findGuid(q.ComponentGuid)
		if existing == nil || !overwrite {
			return false
		}
		item.ComponentPath = key
		rec.Components[key] = item
	default:
		if rec.Object != nil && !overwrite {
			return false
		}
		item.ComponentPath = ""
		rec.Object = item
	}
	s.dirty = true
	return true
}

// Remove deletes the item at q. An object query deletes the whole record.
func (s *Store) Remove(q Query) bool {
	if !s.valid(q) {
		return false
	}
	rec, ok := s.records[q.ObjectPath]
	if !ok {
		return false
	}
	switch {
	case q.ComponentPath != "":
		if _, exists := rec.Components[q.ComponentPath]; !exists {
			return false
		}
		delete(rec.Components, q.ComponentPath)
	case !q.ComponentGuid.IsEmpty():
		key, item := rec.findGuid(q.ComponentGuid)
		if item == nil {
			return false
		}
		delete(rec.Components, key)
	default:
		delete(s.records, q.ObjectPath)
	}
	s.dirty = true
	return true
}

func (s *Store) Contains(q Query) bool {
	_, ok := s.TryGet(q)
	return ok
}

// TryGet returns the item at q.
func (s *Store) TryGet(q Query) (*Item, bool) {
	if !s.valid(q) {
		return nil, false
	}
	rec, ok := s.records[q.ObjectPath]
	if !ok {
		return nil, false
	}
	switch {
	case q.ComponentPath != "":
		item, ok := rec.Components[q.ComponentPath]
		return item, ok
	case !q.ComponentGuid.IsEmpty():
		_, item := rec.findGuid(q.ComponentGuid)
		return item, item != nil
	default:
		return rec.Object, rec.Object != nil
	}
}

// Record returns the record stored for objectPath.
func (s *Store) Record(objectPath string) (*Record, bool) {
	rec, ok := s.records[objectPath]
	return rec, ok
}

func (s *Store) SetState(item *Item, state State) {
	if item == nil || item.State == state {
		return
	}
	item.State = state
	s.dirty = true
}

// MarkOrphaned flags the item at the given paths as orphaned. An empty
// componentPath names the object item.
func (s *Store) MarkOrphaned(objectPath, componentPath string) bool {
	item, ok := s.TryGet(Query{ObjectPath: objectPath, ComponentPath: componentPath})
	if !ok {
		return false
	}
	s.SetState(item, Orphaned)
	s.log.Debug("identity orphaned", "path", objectPath, "component", componentPath, "guid", item.Guid.String())
	return true
}

// Adopt moves an orphaned component item to a new position and marks it
// owned. It fails when orphan is not an orphan, when its recorded type
// differs from ownerType, or when another item already sits at the target.
func (s *Store) Adopt(orphan *Item, objectPath, componentPath, ownerType string) bool {
	if orphan == nil || orphan.State != Orphaned || componentPath == "" {
		return false
	}
	if orphan.OwnerType != ownerType {
		s.log.Debug("adoption rejected, type mismatch",
			"guid", orphan.Guid.String(), "recorded", orphan.OwnerType, "candidate", ownerType)
		return false
	}
	target := ComponentQuery(objectPath, componentPath)
	if existing, ok := s.TryGet(target); ok && existing != orphan {
		s.log.Debug("adoption rejected, target occupied",
			"guid", orphan.Guid.String(), "path", objectPath, "component", componentPath,
			"occupant", existing.Guid.String())
		return false
	}
	if rec, ok := s.records[orphan.ObjectPath]; ok && rec.Components[orphan.ComponentPath] == orphan {
		delete(rec.Components, orphan.ComponentPath)
	}
	orphan.State = Owned
	s.Add(target, orphan, true)
	s.log.Debug("orphan adopted", "guid", orphan.Guid.String(), "path", objectPath, "component", componentPath)
	return true
}

// Rekey moves the component item holding id to componentPath. An item
// already at componentPath takes the vacated key, so nothing is dropped.
// It reports whether the store changed.
func (s *Store) Rekey(objectPath string, id guid.Guid, componentPath string) bool {
	rec, ok := s.records[objectPath]
	if !ok || componentPath == "" || id.IsEmpty() {
		return false
	}
	from, item := rec.findGuid(id)
	if item == nil || from == componentPath {
		return false
	}
	if displaced, ok := rec.Components[componentPath]; ok {
		displaced.ComponentPath = from
		rec.Components[from] = displaced
	} else {
		delete(rec.Components, from)
	}
	item.ComponentPath = componentPath
	rec.Components[componentPath] = item
	s.dirty = true
	s.log.Debug("identity rekeyed", "guid", id.String(), "path", objectPath, "from", from, "to", componentPath)
	return true
}

// Orphans returns the orphaned component items of objectPath, ordered by
// component path.
func (s *Store) Orphans(objectPath string) []*Item {
	rec, ok := s.records[objectPath]
	if !ok {
		return nil
	}
	var out []*Item
	for _, item := range rec.Components {
		if item.State == Orphaned {
			out = append(out, item)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ComponentPath < out[j].ComponentPath })
	return out
}

// Len is the number of object records.
func (s *Store) Len() int {
	return len(s.records)
}

func (r *Record) findGuid(id guid.Guid) (string, *Item) {
	for key, item := range r.Components {
		if item.Guid == id {
			return key, item
		}
	}
	return "", nil
}
