package lattice

import "fmt"

// IsWrapped reports whether v carries valid node metadata.
func IsWrapped(v any) bool {
	_, ok := asObservable(v)
	return ok
}

// Wrap associates v with node metadata and returns the wrapped value.
// Wrapping is recursive: every structured descendant is wrapped with a
// parent link back to its container. Wrapping is idempotent — a wrapped
// value comes back as the same reference — and a no-op for scalars, nil,
// dates, and excluded singletons, which are returned unchanged.
//
// Raw containers are copied into wrapper-owned storage; the caller's map
// or slice is left untouched. A raw sub-map appearing in several places in
// the input wraps once and gains a parent link per container.
func Wrap(v any) any {
	w, err := wrapValue(v, nil, nil)
	if err != nil {
		// Without a parent there is no contract to violate.
		return v
	}
	return w
}

// WrapChild wraps v and registers parent as one of its containers. The
// parent must already be wrapped (ErrInvalidArgument) and must not be v
// itself (ErrSelfParent). If v is already wrapped, the parent is added to
// its parent set and the same reference is returned.
func WrapChild(v any, parent any) (any, error) {
	p, ok := asObservable(parent)
	if !ok {
		return nil, fmt.Errorf("%w: parent must be a wrapped value", ErrInvalidArgument)
	}
	return wrapValue(v, p, nil)
}

// wrapChild is the internal fast path used by container mutators, where
// the parent is known to be wrapped.
func wrapChild(v any, parent Observable) (any, error) {
	return wrapValue(v, parent, nil)
}

// wrapValue recursively wraps v. seen maps raw container identities to
// their wrappers within a single Wrap call, so shared raw substructure
// (including cycles) becomes shared wrapped substructure with multiple
// parents instead of duplicated wrappers.
func wrapValue(v any, parent Observable, seen map[exclusionKey]Observable) (any, error) {
	if obs, ok := asObservable(v); ok {
		if parent != nil {
			if obs == parent {
				return nil, ErrSelfParent
			}
			obs.Meta().addParent(parent)
		}
		return obs, nil
	}
	if !isStructured(v) {
		return v, nil
	}
	if seen == nil {
		seen = make(map[exclusionKey]Observable)
	}
	id := identityKey(v)
	if existing, ok := seen[id]; ok {
		if parent != nil {
			if existing == parent {
				return nil, ErrSelfParent
			}
			existing.Meta().addParent(parent)
		}
		return existing, nil
	}

	switch t := v.(type) {
	case map[string]any, map[any]any:
		o := newObject()
		seen[id] = o
		if parent != nil {
			o.node.addParent(parent)
		}
		keys, get, _ := mapEntriesOf(t)
		for _, k := range keys {
			if isMetaKey(k) {
				// The slot name is reserved; it cannot be carried as data.
				continue
			}
			w, err := wrapValue(get(k), o, seen)
			if err != nil {
				return nil, err
			}
			o.entries[k] = w
			o.keys = append(o.keys, k)
		}
		return o, nil

	case []any:
		l := newList()
		seen[id] = l
		if parent != nil {
			l.node.addParent(parent)
		}
		for _, el := range t {
			w, err := wrapValue(el, l, seen)
			if err != nil {
				return nil, err
			}
			l.items = append(l.items, w)
		}
		return l, nil
	}
	return v, nil
}
