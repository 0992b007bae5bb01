package lattice

// MetaKey is the reserved metadata slot. Reading it through Object.Get (or
// the Meta helper) exposes the Node for tooling; writing or deleting it
// fails with ErrProtectedProperty.
const MetaKey = "__lattice__"

// nodeSchemaVersion tags the metadata shape for forward compatibility of
// transferred node state. Informational only.
const nodeSchemaVersion = 1

// listenerEntry pairs a listener with its optional filter path.
type listenerEntry struct {
	listener Listener
	filter   []any // nil means unfiltered
}

// Node is the per-wrapped-value bookkeeping: the listener registry, the
// parent set, the filtered-listener hash cache, and the pause queue. A Node
// is owned exclusively by its wrapped value and lives as long as it does.
type Node struct {
	owner Observable

	// listeners holds registrations by listener ID; order preserves
	// registration order for deterministic dispatch.
	listeners map[uint64]listenerEntry
	order     []uint64

	// parents is the set of containers currently holding this value.
	// Multiple parents are legal: the graph is a DAG, never a tree.
	parents map[Observable]struct{}

	// prevHashes records, per filtered listener, the last observed hash of
	// its filtered sub-value.
	prevHashes map[uint64]uint64

	// pauseQueue accumulates dirty sources while notifications are
	// suspended. paused is the authoritative flag; the queue stays deduped
	// in first-added order.
	paused     bool
	pauseQueue []Observable
	queued     map[Observable]struct{}

	version int
}

func newNode(owner Observable) *Node {
	return &Node{owner: owner, version: nodeSchemaVersion}
}

// SchemaVersion returns the constant tag identifying the metadata shape.
func (n *Node) SchemaVersion() int { return n.version }

// ListenerCount returns the number of registered listeners.
func (n *Node) ListenerCount() int { return len(n.listeners) }

// HasListeners reports whether any listener registry is present. It is
// false once the last listener is removed; empty registries collapse.
func (n *Node) HasListeners() bool { return n.listeners != nil }

// ParentCount returns the number of containers currently holding the value.
func (n *Node) ParentCount() int { return len(n.parents) }

// Parents returns the current parent set. The result is a copy; mutating
// it does not affect the graph.
func (n *Node) Parents() []Observable {
	out := make([]Observable, 0, len(n.parents))
	for p := range n.parents {
		out = append(out, p)
	}
	return out
}

// Paused reports whether notifications are currently suspended.
func (n *Node) Paused() bool { return n.paused }

func (n *Node) addListener(l Listener, filter []any) {
	if n.listeners == nil {
		n.listeners = make(map[uint64]listenerEntry)
	}
	id := l.ID()
	if _, exists := n.listeners[id]; !exists {
		n.order = append(n.order, id)
	}
	n.listeners[id] = listenerEntry{listener: l, filter: filter}
}

func (n *Node) removeListener(l Listener) {
	if n.listeners == nil {
		return
	}
	id := l.ID()
	if _, ok := n.listeners[id]; !ok {
		return
	}
	delete(n.listeners, id)
	for i, oid := range n.order {
		if oid == id {
			n.order = append(n.order[:i], n.order[i+1:]...)
			break
		}
	}
	if n.prevHashes != nil {
		delete(n.prevHashes, id)
	}
	n.collapseIfEmpty()
}

func (n *Node) removeAllListeners() {
	n.listeners = nil
	n.order = nil
	n.prevHashes = nil
}

func (n *Node) collapseIfEmpty() {
	if len(n.listeners) == 0 {
		n.listeners = nil
		n.order = nil
		n.prevHashes = nil
	}
}

// listenerSnapshot copies the current registrations so dispatch survives
// listeners mutating the registry mid-pass.
func (n *Node) listenerSnapshot() []listenerEntry {
	if len(n.listeners) == 0 {
		return nil
	}
	out := make([]listenerEntry, 0, len(n.listeners))
	for _, id := range n.order {
		if e, ok := n.listeners[id]; ok {
			out = append(out, e)
		}
	}
	return out
}

func (n *Node) prevHash(id uint64) (uint64, bool) {
	h, ok := n.prevHashes[id]
	return h, ok
}

func (n *Node) setPrevHash(id uint64, h uint64) {
	// Only record for listeners still registered; otherwise a removal
	// during dispatch would resurrect the hash cache.
	if n.listeners == nil {
		return
	}
	if _, ok := n.listeners[id]; !ok {
		return
	}
	if n.prevHashes == nil {
		n.prevHashes = make(map[uint64]uint64)
	}
	n.prevHashes[id] = h
}

func (n *Node) addParent(p Observable) {
	if n.parents == nil {
		n.parents = make(map[Observable]struct{})
	}
	n.parents[p] = struct{}{}
}

func (n *Node) removeParent(p Observable) {
	if n.parents == nil {
		return
	}
	delete(n.parents, p)
	if len(n.parents) == 0 {
		n.parents = nil
	}
}

func (n *Node) parentSnapshot() []Observable {
	return n.Parents()
}

func (n *Node) pause() {
	if n.paused {
		return
	}
	n.paused = true
	n.queued = make(map[Observable]struct{})
}

// enqueue records a dirty source in first-added order, deduped.
func (n *Node) enqueue(source Observable) {
	if _, ok := n.queued[source]; ok {
		return
	}
	if n.queued == nil {
		n.queued = make(map[Observable]struct{})
	}
	n.queued[source] = struct{}{}
	n.pauseQueue = append(n.pauseQueue, source)
}

// Meta returns the node metadata for a wrapped value, or nil if subject is
// not wrapped. This is the read side of the reserved metadata slot.
func Meta(subject any) *Node {
	if obs, ok := asObservable(subject); ok {
		return obs.Meta()
	}
	return nil
}

func isMetaKey(key any) bool {
	s, ok := key.(string)
	return ok && s == MetaKey
}
