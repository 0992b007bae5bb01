package lattice

import (
	"fmt"
	"time"
)

// CompareFunc decides whether a destination element matches a source
// element during ordered-sequence reconciliation.
type CompareFunc func(destCandidate, srcElement any) bool

// defaultCompare matches on scalar forms with loose equality: scalars
// compare directly (numbers across types, numeric strings against
// numbers), structured values compare by canonical string.
func defaultCompare(destCandidate, srcElement any) bool {
	return looseEqual(scalarForm(destCandidate), scalarForm(srcElement))
}

// Reconcile performs a deep "set": it rewrites dest's contents to
// structurally match src while preserving listener registrations on
// matching sub-values and emitting at most one notification per modified
// level — and none at all for a level that did not actually change.
//
// dest must be structured (ErrInvalidArgument otherwise); it is wrapped if
// it is not already. A non-structured src is returned as-is: there is
// nothing to reconcile and the caller receives the scalar. When the
// collection-ness of the two sides disagrees, dest's shape is discarded
// and a fresh wrapped copy of src is returned, with no listener carryover.
//
// An optional comparator overrides element matching in ordered sequences;
// a nil comparator fails with ErrInvalidArgument.
func Reconcile(dest, src any, compare ...CompareFunc) (any, error) {
	cmp := CompareFunc(defaultCompare)
	if len(compare) > 0 {
		if compare[0] == nil {
			return nil, fmt.Errorf("%w: comparator must not be nil", ErrInvalidArgument)
		}
		cmp = compare[0]
	}
	if !isStructured(dest) {
		return nil, fmt.Errorf("%w: reconcile destination must be a map or sequence", ErrInvalidArgument)
	}
	if !isStructured(src) {
		return src, nil
	}

	d, _ := asObservable(Wrap(dest))
	start := time.Now()
	if !sameShape(d, src) {
		fresh := Wrap(Snapshot(src))
		hookReconcile(ShapeOf(src), true, time.Since(start))
		return fresh, nil
	}
	changed := reconcileValue(d, src, cmp)
	hookReconcile(d.shapeName(), changed, time.Since(start))
	return d, nil
}

func reconcileValue(dst Observable, src any, cmp CompareFunc) bool {
	switch t := dst.(type) {
	case *Object:
		return reconcileObject(t, src, cmp)
	case *List:
		return reconcileList(t, src, cmp)
	}
	return false
}

// reconcileObject rewrites o's key set to exactly equal src's. Keys whose
// existing value is shape-compatible with the incoming value reconcile in
// place, keeping the wrapped sub-value's identity and listeners; other
// keys are installed fresh. The whole level is one collapsing transaction.
func reconcileObject(o *Object, src any, cmp CompareFunc) bool {
	end := beginTx(o)

	keys, get, _ := mapEntriesOf(src)
	srcKeys := make(map[any]struct{}, len(keys))
	type pendingEntry struct{ key, value any }
	pending := make([]pendingEntry, 0, len(keys))

	for _, k := range keys {
		if isMetaKey(k) || !isComparableKey(k) {
			continue
		}
		srcKeys[k] = struct{}{}
		sv := get(k)
		if !isStructured(sv) {
			pending = append(pending, pendingEntry{k, sv})
			continue
		}
		existing, has := o.entries[k]
		if exObs, isObs := asObservable(existing); has && isObs && sameShape(exObs, sv) {
			// In-place: the sub-value fires at most one notification of
			// its own, which lands in o's pause queue via the parent link.
			reconcileValue(exObs, sv, cmp)
			pending = append(pending, pendingEntry{k, exObs})
			continue
		}
		pending = append(pending, pendingEntry{k, Wrap(Snapshot(sv))})
	}

	for _, k := range o.Keys() {
		if _, keep := srcKeys[k]; !keep {
			_ = o.Delete(k)
		}
	}
	for _, e := range pending {
		_ = o.Set(e.key, e.value)
	}
	return end(false)
}

// reconcileList rebuilds l's contents in source order. Each source element
// claims the first unmatched original element the comparator accepts;
// matched structured elements keep their wrapped identity — listeners and
// all — and take the source's fields by deep merge, matched scalars take
// the source value, and unmatched source elements enter fresh. A result
// identical to the current contents installs silently.
func reconcileList(l *List, src any, cmp CompareFunc) bool {
	end := beginTx(l)

	srcItems, _ := seqItemsOf(src)
	orig := l.Items()
	used := make([]bool, len(orig))
	result := make([]any, 0, len(srcItems))

	for _, se := range srcItems {
		match := -1
		for i, de := range orig {
			if !used[i] && cmp(de, se) {
				match = i
				break
			}
		}
		if match < 0 {
			result = append(result, freshEntry(se))
			continue
		}
		used[match] = true
		de := orig[match]
		deObs, isObs := asObservable(de)
		switch {
		case isObs && isStructured(se) && sameShape(deObs, se):
			switch t := deObs.(type) {
			case *Object:
				mergeObjectDeep(t, se)
			case *List:
				reconcileList(t, se, cmp)
			}
			result = append(result, de)
		case !isObs && !isStructured(se):
			result = append(result, se)
		default:
			result = append(result, freshEntry(se))
		}
	}

	same := len(orig) == len(result)
	if same {
		for i := range orig {
			if !sameStored(orig[i], result[i]) {
				same = false
				break
			}
		}
	}
	if same {
		return end(false)
	}

	l.items = result
	for _, v := range result {
		if obs, ok := asObservable(v); ok {
			obs.Meta().addParent(l)
		}
	}
	for _, de := range orig {
		l.detachIfOrphaned(de)
	}
	return end(true)
}

func freshEntry(src any) any {
	if isStructured(src) {
		return Wrap(Snapshot(src))
	}
	return src
}
