package engine

// ListenerID identifies a subscription so it can be removed later.
type ListenerID uint64

// Event is a multicast event without arguments.
type Event struct {
	listeners []listener[struct{}]
	next      ListenerID
}

type listener[T any] struct {
	id ListenerID
	fn func(T)
}

// AddListener subscribes callback and returns an id for RemoveListener.
// A nil callback is ignored and yields id 0.
func (e *Event) AddListener(callback func()) ListenerID {
	if callback == nil {
		return 0
	}
	e.next++
	e.listeners = append(e.listeners, listener[struct{}]{id: e.next, fn: func(struct{}) { callback() }})
	return e.next
}

func (e *Event) RemoveListener(id ListenerID) {
	e.listeners = removeListener(e.listeners, id)
}

func (e *Event) RemoveAllListeners() {
	e.listeners = nil
}

// Invoke calls every listener. Listeners added during Invoke run next time.
func (e *Event) Invoke() {
	for _, l := range append([]listener[struct{}](nil), e.listeners...) {
		l.fn(struct{}{})
	}
}

func (e *Event) GetListenerCount() int {
	return len(e.listeners)
}

// EventWithArg is a multicast event with one argument.
type EventWithArg[T any] struct {
	listeners []listener[T]
	next      ListenerID
}

func (e *EventWithArg[T]) AddListener(callback func(T)) ListenerID {
	if callback == nil {
		return 0
	}
	e.next++
	e.listeners = append(e.listeners, listener[T]{id: e.next, fn: callback})
	return e.next
}

func (e *EventWithArg[T]) RemoveListener(id ListenerID) {
	e.listeners = removeListener(e.listeners, id)
}

func (e *EventWithArg[T]) RemoveAllListeners() {
	e.listeners = nil
}

func (e *EventWithArg[T]) Invoke(arg T) {
	for _, l := range append([]listener[T](nil), e.listeners...) {
		l.fn(arg)
	}
}

func (e *EventWithArg[T]) GetListenerCount() int {
	return len(e.listeners)
}

func removeListener[T any](ls []listener[T], id ListenerID) []listener[T] {
	for i, l := range ls {
		if l.id == id {
			return append(ls[:i], ls[i+1:]...)
		}
	}
	return ls
}
