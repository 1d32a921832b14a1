package components

import (
	"crossref/internal/engine"
	"crossref/internal/guid"
)

// ComponentGuid is the identity of one component on a holder's object.
type ComponentGuid struct {
	Component engine.Component
	Guid      guid.Guid

	// cache survives Reset and prefab reverts, which clear Guid.
	cache guid.Guid
	bound bool
}

func (c *ComponentGuid) TypeName() string {
	return engine.TypeName(c.Component)
}

// MatchesType reports whether the component's type is called name.
func (c *ComponentGuid) MatchesType(name string) bool {
	return c.Component != nil && c.TypeName() == name
}

// Bound reports whether the identity is currently registered by its holder.
func (c *ComponentGuid) Bound() bool {
	return c.bound
}

// SerializedComponentGuid is the persisted form of a ComponentGuid. Index is
// the component's position on its object; Type guards against the list
// changing between save and load.
type SerializedComponentGuid struct {
	Index int       `json:"index"`
	Type  string    `json:"type"`
	Guid  guid.Guid `json:"guid"`
}

// SerializedGuids is the persisted state of a GuidComponent.
type SerializedGuids struct {
	Self       guid.Guid                 `json:"guid"`
	Components []SerializedComponentGuid `json:"components,omitempty"`
}
