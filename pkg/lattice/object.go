package lattice

import "fmt"

// Object is a wrapped keyed map. Keys may be any comparable value,
// including non-string identifiers; they survive wrap, reconcile, and
// merge round-trips. All mutation goes through Set and Delete so every
// change flows through the dispatcher.
type Object struct {
	node    *Node
	entries map[any]any
	keys    []any // insertion order
}

func newObject() *Object {
	o := &Object{entries: make(map[any]any)}
	o.node = newNode(o)
	hookWrap()
	return o
}

// Meta returns the node metadata. This is the reserved metadata slot;
// application code can read it but never write or delete it.
func (o *Object) Meta() *Node { return o.node }

func (o *Object) shapeName() string { return "map" }

// Len returns the number of data keys.
func (o *Object) Len() int { return len(o.entries) }

// Keys returns the data keys in insertion order. The metadata slot is not
// a data key and is never listed.
func (o *Object) Keys() []any {
	out := make([]any, len(o.keys))
	copy(out, o.keys)
	return out
}

// Has reports whether a data key is present.
func (o *Object) Has(key any) bool {
	if isMetaKey(key) || !isComparableKey(key) {
		return false
	}
	_, ok := o.entries[key]
	return ok
}

// Get returns the value stored at key. Reading MetaKey returns the Node
// metadata for introspection.
func (o *Object) Get(key any) (any, bool) {
	if isMetaKey(key) {
		return o.node, true
	}
	if !isComparableKey(key) {
		return nil, false
	}
	v, ok := o.entries[key]
	return v, ok
}

// Set assigns a value to key, wrapping structured values with this object
// as parent. Listeners are notified only when the stored value actually
// changes: identity for wrapped values, loose equality for scalars.
// Writing the metadata slot fails with ErrProtectedProperty.
func (o *Object) Set(key, value any) error {
	if isMetaKey(key) {
		return ErrProtectedProperty
	}
	if !isComparableKey(key) {
		return fmt.Errorf("%w: map key of type %T is not comparable", ErrInvalidArgument, key)
	}
	wrapped, err := wrapChild(value, o)
	if err != nil {
		return err
	}
	old, existed := o.entries[key]
	changed := !existed || !sameStored(old, wrapped)
	o.entries[key] = wrapped
	if !existed {
		o.keys = append(o.keys, key)
	}
	if existed {
		o.detachIfOrphaned(old)
	}
	if changed {
		notify(o, o)
	}
	return nil
}

// Delete removes a data key. Deleting the metadata slot fails with
// ErrProtectedProperty; deleting an absent key is a silent no-op.
func (o *Object) Delete(key any) error {
	if isMetaKey(key) {
		return ErrProtectedProperty
	}
	if !isComparableKey(key) {
		return nil
	}
	old, existed := o.entries[key]
	if !existed {
		return nil
	}
	delete(o.entries, key)
	for i, k := range o.keys {
		if k == key {
			o.keys = append(o.keys[:i], o.keys[i+1:]...)
			break
		}
	}
	o.detachIfOrphaned(old)
	notify(o, o)
	return nil
}

// detachIfOrphaned removes this object from old's parent set, unless old
// is still held under another key of this object.
func (o *Object) detachIfOrphaned(old any) {
	obs, ok := asObservable(old)
	if !ok {
		return
	}
	for _, v := range o.entries {
		if held, isObs := asObservable(v); isObs && held == obs {
			return
		}
	}
	obs.Meta().removeParent(o)
}
