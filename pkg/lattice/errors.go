package lattice

import "errors"

// ErrInvalidArgument is returned when a parameter has the wrong shape or
// type for the requested operation: a non-structured reconcile destination,
// a nil comparator or listener, or a sequence passed where a keyed map is
// required.
var ErrInvalidArgument = errors.New("lattice: invalid argument")

// ErrNotWrapped is returned when an operation that requires a wrapped
// subject (Watch, Unwatch, Pause, Resume) receives a plain value.
var ErrNotWrapped = errors.New("lattice: value is not wrapped")

// ErrSelfParent is returned when a value is wrapped with itself as parent.
// A value can never appear in its own parent set.
var ErrSelfParent = errors.New("lattice: value cannot parent itself")

// ErrProtectedProperty is returned on any attempt to overwrite or delete
// the reserved metadata slot (MetaKey). The slot is readable but immutable
// from outside.
var ErrProtectedProperty = errors.New("lattice: metadata slot is protected")
