package lattice

import "fmt"

// Listener is anything that can be notified when a wrapped value changes.
type Listener interface {
	// Notify delivers a change. value is the watched value (or, for
	// filtered listeners, the resolved filtered sub-value); source is the
	// wrapped value whose mutation originated the dispatch.
	Notify(value any, source any)

	// ID returns a unique identifier for this listener, used for
	// deduplication and for the filtered-listener hash cache.
	ID() uint64
}

// listenerFunc adapts a plain function to the Listener interface.
type listenerFunc struct {
	id uint64
	fn func(value, source any)
}

// NewListener wraps fn as a Listener with a fresh unique ID. Returns nil
// for a nil fn.
func NewListener(fn func(value, source any)) Listener {
	if fn == nil {
		return nil
	}
	return &listenerFunc{id: nextID(), fn: fn}
}

func (l *listenerFunc) Notify(value, source any) { l.fn(value, source) }
func (l *listenerFunc) ID() uint64               { return l.id }

// Watch registers a listener on a wrapped subject and returns the subject.
// An optional filter path — one key or an ordered sequence of keys —
// scopes the listener to a nested sub-value: it then fires only when the
// canonical hash of the value at that path changes.
//
// The subject must already be wrapped (ErrNotWrapped) and the listener
// must be non-nil (ErrInvalidArgument).
func Watch(subject any, l Listener, filter ...any) (any, error) {
	obs, ok := asObservable(subject)
	if !ok {
		return subject, ErrNotWrapped
	}
	if l == nil {
		return subject, fmt.Errorf("%w: listener must not be nil", ErrInvalidArgument)
	}
	var path []any
	if len(filter) > 0 {
		path = make([]any, len(filter))
		copy(path, filter)
	}
	obs.Meta().addListener(l, path)
	return subject, nil
}

// Unwatch removes the given listeners from a wrapped subject, or every
// listener when none are given. Associated hash cache entries are cleared,
// and an emptied registry collapses to an absent state (observable through
// the metadata slot).
func Unwatch(subject any, listeners ...Listener) (any, error) {
	obs, ok := asObservable(subject)
	if !ok {
		return subject, ErrNotWrapped
	}
	n := obs.Meta()
	if len(listeners) == 0 {
		n.removeAllListeners()
		return subject, nil
	}
	for _, l := range listeners {
		if l != nil {
			n.removeListener(l)
		}
	}
	return subject, nil
}
