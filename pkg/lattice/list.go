package lattice

import "fmt"

// List is a wrapped ordered sequence. The index-shifting mutators (Push,
// Pop, Shift, Unshift, Splice) are intercepted explicitly and run as one
// batched transaction each, because the underlying element shifts would
// otherwise fire a redundant notification per moved element.
type List struct {
	node  *Node
	items []any
}

func newList() *List {
	l := &List{}
	l.node = newNode(l)
	hookWrap()
	return l
}

// Meta returns the node metadata.
func (l *List) Meta() *Node { return l.node }

func (l *List) shapeName() string { return "sequence" }

// Len returns the number of elements.
func (l *List) Len() int { return len(l.items) }

// Get returns the element at index i.
func (l *List) Get(i int) (any, bool) {
	if i < 0 || i >= len(l.items) {
		return nil, false
	}
	return l.items[i], true
}

// Items returns a copy of the current elements.
func (l *List) Items() []any {
	out := make([]any, len(l.items))
	copy(out, l.items)
	return out
}

// Set replaces the element at index i. Out-of-range indices fail with
// ErrInvalidArgument. Listeners fire only when the stored element changes.
func (l *List) Set(i int, value any) error {
	if i < 0 || i >= len(l.items) {
		return fmt.Errorf("%w: index %d out of range [0,%d)", ErrInvalidArgument, i, len(l.items))
	}
	wrapped, err := wrapChild(value, l)
	if err != nil {
		return err
	}
	old := l.items[i]
	changed := !sameStored(old, wrapped)
	l.items[i] = wrapped
	l.detachIfOrphaned(old)
	if changed {
		notify(l, l)
	}
	return nil
}

// Push appends elements to the end of the sequence.
func (l *List) Push(values ...any) error {
	_, err := l.Splice(len(l.items), 0, values...)
	return err
}

// Unshift inserts elements at the front of the sequence.
func (l *List) Unshift(values ...any) error {
	_, err := l.Splice(0, 0, values...)
	return err
}

// Pop removes and returns the last element, or nil on an empty sequence.
// An empty pop does not notify.
func (l *List) Pop() any {
	if len(l.items) == 0 {
		return nil
	}
	removed, _ := l.Splice(len(l.items)-1, 1)
	return removed[0]
}

// Shift removes and returns the first element, or nil on an empty
// sequence. An empty shift does not notify.
func (l *List) Shift() any {
	if len(l.items) == 0 {
		return nil
	}
	removed, _ := l.Splice(0, 1)
	return removed[0]
}

// Splice removes deleteCount elements at start, inserts values in their
// place, and returns the removed elements. Bounds are clamped. The whole
// operation emits a single notification; newly inserted structured values
// are wrapped with this sequence as parent, and removed wrapped elements
// lose the parent link unless still present elsewhere in the sequence.
func (l *List) Splice(start, deleteCount int, values ...any) ([]any, error) {
	if start < 0 {
		start = 0
	}
	if start > len(l.items) {
		start = len(l.items)
	}
	if deleteCount < 0 {
		deleteCount = 0
	}
	if deleteCount > len(l.items)-start {
		deleteCount = len(l.items) - start
	}
	if deleteCount == 0 && len(values) == 0 {
		return nil, nil
	}

	// Validate before mutating: an element cannot contain its own sequence.
	for _, v := range values {
		if obs, ok := asObservable(v); ok && obs == Observable(l) {
			return nil, ErrSelfParent
		}
	}

	end := beginTx(l)
	wrapped := make([]any, len(values))
	for i, v := range values {
		w, err := wrapChild(v, l)
		if err != nil {
			// Unreachable after the self-parent check above, but keep the
			// transaction balanced.
			end(false)
			return nil, err
		}
		wrapped[i] = w
	}

	removed := make([]any, deleteCount)
	copy(removed, l.items[start:start+deleteCount])

	next := make([]any, 0, len(l.items)-deleteCount+len(wrapped))
	next = append(next, l.items[:start]...)
	next = append(next, wrapped...)
	next = append(next, l.items[start+deleteCount:]...)
	l.items = next

	for _, r := range removed {
		l.detachIfOrphaned(r)
	}
	end(true)
	return removed, nil
}

// replaceAll swaps the entire contents for values while preserving this
// sequence's wrapped identity. Used by the merge engine for wholesale
// sequence replacement.
func (l *List) replaceAll(values []any) error {
	_, err := l.Splice(0, len(l.items), values...)
	return err
}

// detachIfOrphaned removes this list from old's parent set, unless old is
// still present at another index.
func (l *List) detachIfOrphaned(old any) {
	obs, ok := asObservable(old)
	if !ok {
		return
	}
	for _, v := range l.items {
		if held, isObs := asObservable(v); isObs && held == obs {
			return
		}
	}
	obs.Meta().removeParent(l)
}
