package reference

import (
	"crossref/internal/engine"
	"crossref/internal/guid"
	"crossref/internal/registry"
)

// lazy caches one registry lookup and keeps it current through a listener.
// A copied lazy notices that self no longer points at it and starts over, so
// copies never share a subscription.
type lazy[V any] struct {
	self     *lazy[V]
	cached   bool
	found    bool
	value    V
	id       guid.Guid
	listener *registry.Listener
}

type resolveFunc[V any] func(l *registry.Listener) (V, bool)

type acceptFunc[V any] func(g *engine.GameObject, c engine.Component) (V, bool)

func (l *lazy[V]) own() {
	if l.self != l {
		l.reset()
	}
}

func (l *lazy[V]) reset() {
	*l = lazy[V]{self: l}
}

// get returns the cached value for id. On a miss it resolves once and caches
// the result, found or not; the listener updates it later.
func (l *lazy[V]) get(id guid.Guid, resolve resolveFunc[V], accept acceptFunc[V]) (V, bool) {
	l.own()
	if l.cached && l.id == id {
		return l.value, l.found
	}
	var zero V
	if id.IsEmpty() {
		return zero, false
	}
	if l.listener == nil || l.id != id {
		l.id = id
		l.listener = l.subscription(accept)
	}
	l.value, l.found = resolve(l.listener)
	l.cached = true
	return l.value, l.found
}

func (l *lazy[V]) subscription(accept acceptFunc[V]) *registry.Listener {
	var sub *registry.Listener
	sub = &registry.Listener{
		OnAdd: func(g *engine.GameObject, c engine.Component) {
			if l.listener != sub {
				return
			}
			if v, ok := accept(g, c); ok {
				l.value, l.found, l.cached = v, true, true
			}
		},
		OnRemove: func() {
			if l.listener != sub {
				return
			}
			var zero V
			l.value, l.found, l.cached = zero, false, false
		},
	}
	return sub
}

func (l *lazy[V]) invalidate() {
	l.own()
	var zero V
	l.value, l.found, l.cached = zero, false, false
}
