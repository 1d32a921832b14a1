package engine

import (
	"fmt"
	"sort"
)

// FieldGuidReference marks a script prop holding a GUID string.
const FieldGuidReference = "GuidReference"

// ScriptFactory creates a Component from scene-file props.
type ScriptFactory func(props map[string]any) Component

// ScriptSerializer converts a Component back to props. It returns nil for
// components it does not own.
type ScriptSerializer func(c Component) map[string]any

// ScriptApplier applies a single property value to a script component.
// Returns true if the property was applied.
type ScriptApplier func(c Component, propName string, value any) bool

type scriptEntry struct {
	factory    ScriptFactory
	serializer ScriptSerializer
	applier    ScriptApplier
	fieldTypes map[string]string
}

var scriptRegistry = map[string]scriptEntry{}

// RegisterScript registers a named script. Registering a name twice panics.
func RegisterScript(name string, factory ScriptFactory, serializer ScriptSerializer) {
	RegisterScriptWithMetadata(name, factory, serializer, nil, nil)
}

// RegisterScriptWithApplier registers a script with a property applier for
// live editing.
func RegisterScriptWithApplier(name string, factory ScriptFactory, serializer ScriptSerializer, applier ScriptApplier) {
	RegisterScriptWithMetadata(name, factory, serializer, applier, nil)
}

// RegisterScriptWithMetadata also records the declared type of selected
// props. The scene loader checks props typed FieldGuidReference.
func RegisterScriptWithMetadata(name string, factory ScriptFactory, serializer ScriptSerializer, applier ScriptApplier, fieldTypes map[string]string) {
	if _, exists := scriptRegistry[name]; exists {
		panic(fmt.Sprintf("script %q already registered", name))
	}
	scriptRegistry[name] = scriptEntry{
		factory:    factory,
		serializer: serializer,
		applier:    applier,
		fieldTypes: fieldTypes,
	}
}

// CreateScript creates a registered script, or returns nil for unknown names.
func CreateScript(name string, props map[string]any) Component {
	entry, ok := scriptRegistry[name]
	if !ok {
		return nil
	}
	return entry.factory(props)
}

// SerializeScript finds the script that owns c and returns its props.
func SerializeScript(c Component) (string, map[string]any, bool) {
	for _, name := range GetRegisteredScripts() {
		entry := scriptRegistry[name]
		if entry.serializer == nil {
			continue
		}
		if props := entry.serializer(c); props != nil {
			return name, props, true
		}
	}
	return "", nil, false
}

// GetRegisteredScripts returns registered script names in sorted order.
func GetRegisteredScripts() []string {
	names := make([]string, 0, len(scriptRegistry))
	for name := range scriptRegistry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ApplyScriptProperty applies a property value to a script component.
func ApplyScriptProperty(c Component, propName string, value any) bool {
	for _, entry := range scriptRegistry {
		if entry.applier == nil {
			continue
		}
		if entry.applier(c, propName, value) {
			return true
		}
	}
	return false
}

// GetScriptFieldType returns the declared type of a prop, or "".
func GetScriptFieldType(c Component, field string) string {
	if entry, ok := scriptEntryFor(c); ok {
		return entry.fieldTypes[field]
	}
	return ""
}

// ScriptFieldTypes returns the declared prop types of a named script.
func ScriptFieldTypes(name string) map[string]string {
	return scriptRegistry[name].fieldTypes
}

func scriptEntryFor(c Component) (scriptEntry, bool) {
	for _, entry := range scriptRegistry {
		if entry.serializer != nil && entry.serializer(c) != nil {
			return entry, true
		}
	}
	return scriptEntry{}, false
}
