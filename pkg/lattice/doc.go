// Package lattice provides an observable object model: dynamic JSON-like
// value trees (keyed maps and ordered sequences) wrapped so that every
// mutation notifies registered listeners, directly and up the parent graph.
//
// # Core Types
//
// Object and List are the wrapped container types. All mutation goes
// through their methods; there is no raw field access, which is what keeps
// the notification graph consistent:
//
//	state := lattice.Wrap(map[string]any{"name": "ada"}).(*lattice.Object)
//	state.Set("name", "grace") // notifies listeners on state and its ancestors
//
// A value may be held by several containers at once; the parent graph is a
// DAG, not a tree. Assigning an already-wrapped value into a second
// container adds a parent link rather than re-wrapping.
//
// # Watching
//
// Listeners implement the Listener interface; NewListener adapts a plain
// function. A listener can be scoped to a filter path, in which case it
// only fires when the canonical hash of the filtered sub-value changes:
//
//	l := lattice.NewListener(func(value, source any) { ... })
//	lattice.Watch(state, l, "profile", "email")
//
// # Batching
//
// Pause and Resume form a notification-batching transaction: mutations
// apply immediately, listener dispatch is deferred and replayed on Resume.
// Pause is flat, not reference-counted; a Resume flushes the scope no
// matter how many times Pause was called.
//
// # Reconciliation and merging
//
// Reconcile performs a deep "set": it rewrites a wrapped destination to
// structurally match an arbitrary source while preserving listener
// registrations on matching sub-values and emitting at most one
// notification per modified level. Merge and MergeDeep combine keyed-map
// sources into a destination as a single batched transaction.
//
// # Concurrency
//
// The package assumes single-goroutine, synchronous mutation with
// synchronous delivery. Hosts that mutate from several goroutines must
// serialize access to a wrapped tree themselves.
package lattice
