package registry

import "crossref/internal/logger"

var defaultRegistry *Registry

// Default returns the process-wide registry, creating a silent one on first
// use. Worlds install their own with SetDefault.
func Default() *Registry {
	if defaultRegistry == nil {
		defaultRegistry = New(logger.Nop())
	}
	return defaultRegistry
}

func SetDefault(r *Registry) {
	defaultRegistry = r
}

// Teardown empties the process-wide registry and drops it.
func Teardown() {
	if defaultRegistry == nil {
		return
	}
	defaultRegistry.Teardown()
	defaultRegistry = nil
}
