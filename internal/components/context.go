package components

import (
	"crossref/internal/config"
	"crossref/internal/engine"
	"crossref/internal/guid"
	"crossref/internal/logger"
	"crossref/internal/mappings"
	"crossref/internal/registry"
)

// Excluders is the set of component type names that never get an identity.
// GuidComponent is always excluded.
type Excluders map[string]struct{}

func NewExcluders(typeNames ...string) Excluders {
	e := make(Excluders, len(typeNames))
	for _, name := range typeNames {
		e[name] = struct{}{}
	}
	return e
}

func (e Excluders) Excludes(c engine.Component) bool {
	if _, ok := c.(*GuidComponent); ok {
		return true
	}
	_, ok := e[engine.TypeName(c)]
	return ok
}

// GuidContext is what a GuidComponent needs from its surroundings. Mappings
// is nil outside the editor.
type GuidContext struct {
	Registry        *registry.Registry
	Mappings        *mappings.Store
	Excluders       Excluders
	MaxMintAttempts int
	// Mint generates fresh identifiers; guid.New when nil.
	Mint func() guid.Guid
	Log  *logger.Logger
}

var defaultContext *GuidContext

// DefaultGuidContext is used by GuidComponents without a Context of their
// own. It starts out runtime-only on the default registry.
func DefaultGuidContext() *GuidContext {
	if defaultContext == nil {
		defaultContext = &GuidContext{}
	}
	return defaultContext
}

func SetDefaultGuidContext(ctx *GuidContext) {
	defaultContext = ctx
}

// NewGuidContext builds a context from configuration.
func NewGuidContext(cfg *config.Config, reg *registry.Registry, store *mappings.Store, log *logger.Logger) *GuidContext {
	return &GuidContext{
		Registry:        reg,
		Mappings:        store,
		Excluders:       NewExcluders(cfg.ExcludedComponents...),
		MaxMintAttempts: cfg.MaxMintAttempts,
		Log:             log,
	}
}

func (c *GuidContext) registry() *registry.Registry {
	if c.Registry == nil {
		return registry.Default()
	}
	return c.Registry
}

func (c *GuidContext) logger() *logger.Logger {
	if c.Log == nil {
		return logger.Nop()
	}
	return c.Log
}

func (c *GuidContext) maxMintAttempts() int {
	if c.MaxMintAttempts < 1 {
		return config.DefaultMaxMintAttempts
	}
	return c.MaxMintAttempts
}

func (c *GuidContext) mint() guid.Guid {
	if c.Mint != nil {
		return c.Mint()
	}
	return guid.New()
}
