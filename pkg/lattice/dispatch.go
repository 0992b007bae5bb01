package lattice

// notify delivers a change on obs originating at source: obs's own
// listeners first, then every ancestor chain through the parent graph.
func notify(obs Observable, source Observable) {
	hookNotify()
	dispatch(obs, source, make(map[*Node]struct{}))
}

// dispatch walks one notification pass. seen guards diamond-shaped parent
// graphs (and accidental cycles): a node's listeners run at most once per
// pass even when reachable along several paths.
func dispatch(obs Observable, source Observable, seen map[*Node]struct{}) {
	n := obs.Meta()
	if n.paused {
		n.enqueue(source)
		return
	}
	if _, visited := seen[n]; visited {
		return
	}
	seen[n] = struct{}{}

	for _, e := range n.listenerSnapshot() {
		if e.filter == nil {
			e.listener.Notify(obs, source)
			hookListenerFired()
			continue
		}
		val, resolved := resolvePath(obs, e.filter)
		h := absentHash
		if resolved {
			h = canonicalHash(val)
		}
		prev, observed := n.prevHash(e.listener.ID())
		if !observed || prev != h {
			e.listener.Notify(val, source)
			hookListenerFired()
		}
		// Recorded whether or not the listener fired.
		n.setPrevHash(e.listener.ID(), h)
	}

	for _, p := range n.parentSnapshot() {
		dispatch(p, source, seen)
	}
}

// resolvePath walks a filter path from a wrapped root. A missing segment
// makes the whole path absent.
func resolvePath(root Observable, path []any) (any, bool) {
	var cur any = root
	for _, key := range path {
		switch c := cur.(type) {
		case *Object:
			if isMetaKey(key) {
				return nil, false
			}
			v, ok := c.Get(key)
			if !ok {
				return nil, false
			}
			cur = v
		case *List:
			idx, ok := toIndex(key)
			if !ok || idx < 0 || idx >= len(c.items) {
				return nil, false
			}
			cur = c.items[idx]
		default:
			return nil, false
		}
	}
	return cur, true
}

func toIndex(key any) (int, bool) {
	f, ok := toFloat(key)
	if !ok || f != float64(int(f)) {
		return 0, false
	}
	return int(f), true
}

// Pause suspends notification dispatch for a wrapped subject. Mutations
// still apply immediately; dispatch is deferred and the dirty sources are
// queued in first-added order. Pause is idempotent and flat — there is no
// nesting count.
func Pause(subject any) error {
	obs, ok := asObservable(subject)
	if !ok {
		return ErrNotWrapped
	}
	obs.Meta().pause()
	return nil
}

// Resume ends a pause scope: the queue is detached and one notification is
// replayed per accumulated source, in the order first added. Resuming a
// subject that is not paused is a no-op. Because pausing is flat, the
// first Resume flushes regardless of how many times Pause was called.
func Resume(subject any) error {
	obs, ok := asObservable(subject)
	if !ok {
		return ErrNotWrapped
	}
	n := obs.Meta()
	if !n.paused {
		return nil
	}
	queue := n.pauseQueue
	n.paused = false
	n.pauseQueue = nil
	n.queued = nil
	for _, src := range queue {
		notify(obs, src)
	}
	return nil
}

// beginTx opens a collapsing notification transaction on obs, the batching
// discipline used by the bulk sequence mutators and by the reconcile and
// merge engines. The returned func closes the scope: it reports whether
// the scope saw any change (directly, or through a child's notification
// landing in the pause queue) and — when this scope owns the pause —
// emits exactly one notification on change and none otherwise.
//
// When obs is already paused by an enclosing scope, the enclosing scope
// keeps ownership: the close func only records obs as dirty, and nothing
// flushes early.
func beginTx(obs Observable) func(changed bool) bool {
	n := obs.Meta()
	if n.paused {
		mark := len(n.pauseQueue)
		return func(changed bool) bool {
			dirty := changed || len(n.pauseQueue) > mark
			if changed {
				n.enqueue(obs)
			}
			return dirty
		}
	}
	n.pause()
	return func(changed bool) bool {
		dirty := changed || len(n.pauseQueue) > 0
		n.paused = false
		n.pauseQueue = nil
		n.queued = nil
		if dirty {
			notify(obs, obs)
		}
		return dirty
	}
}
