package lattice

import (
	"fmt"
	"reflect"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"
)

// Observable is implemented by the wrapped container types Object and List.
// Every Observable carries Node metadata reachable through Meta.
type Observable interface {
	// Meta returns the node metadata for this wrapped value.
	Meta() *Node

	// shapeName reports "map" or "sequence".
	shapeName() string
}

// ShapeOf classifies a value as "map", "sequence", or "scalar".
// Wrapped and raw containers classify the same way.
func ShapeOf(v any) string {
	switch {
	case isMapShaped(v):
		return "map"
	case isSeqShaped(v):
		return "sequence"
	default:
		return "scalar"
	}
}

// asObservable returns v as an Observable if it is a wrapped value.
func asObservable(v any) (Observable, bool) {
	switch t := v.(type) {
	case *Object:
		return t, t != nil
	case *List:
		return t, t != nil
	}
	return nil, false
}

// isStructured reports whether v is a value the wrapper engine operates on:
// a wrapped container, or a raw dynamic map/sequence that is not excluded.
// Scalars, nil, dates, and excluded singletons are never structured.
func isStructured(v any) bool {
	switch v.(type) {
	case *Object, *List:
		return true
	case map[string]any, map[any]any, []any:
		return !IsExcluded(v)
	case time.Time, *time.Time:
		return false
	}
	return false
}

func isMapShaped(v any) bool {
	switch v.(type) {
	case *Object, map[string]any, map[any]any:
		return isStructured(v)
	}
	return false
}

func isSeqShaped(v any) bool {
	switch v.(type) {
	case *List, []any:
		return isStructured(v)
	}
	return false
}

// sameShape reports whether src has the same collection-ness as dst.
func sameShape(dst Observable, src any) bool {
	switch dst.(type) {
	case *Object:
		return isMapShaped(src)
	case *List:
		return isSeqShaped(src)
	}
	return false
}

// isComparableKey guards map access against runtime panics on
// uncomparable key types.
func isComparableKey(key any) bool {
	if key == nil {
		return true
	}
	return reflect.TypeOf(key).Comparable()
}

// mapEntriesOf provides uniform, deterministic iteration over the entries
// of a map-shaped value, wrapped or raw. Wrapped objects iterate in
// insertion order; raw maps iterate in canonical key order.
func mapEntriesOf(v any) (keys []any, get func(any) any, ok bool) {
	switch t := v.(type) {
	case *Object:
		keys = t.Keys()
		return keys, func(k any) any { return t.entries[k] }, true
	case map[string]any:
		ks := make([]string, 0, len(t))
		for k := range t {
			ks = append(ks, k)
		}
		sort.Strings(ks)
		for _, k := range ks {
			keys = append(keys, k)
		}
		return keys, func(k any) any {
			s, isStr := k.(string)
			if !isStr {
				return nil
			}
			return t[s]
		}, true
	case map[any]any:
		for k := range t {
			keys = append(keys, k)
		}
		sort.Slice(keys, func(i, j int) bool {
			return keyOrder(keys[i]) < keyOrder(keys[j])
		})
		return keys, func(k any) any { return t[k] }, true
	}
	return nil, nil, false
}

// seqItemsOf returns a copy of the elements of a sequence-shaped value,
// wrapped or raw.
func seqItemsOf(v any) ([]any, bool) {
	switch t := v.(type) {
	case *List:
		return t.Items(), true
	case []any:
		out := make([]any, len(t))
		copy(out, t)
		return out, true
	}
	return nil, false
}

// looseEqual compares two scalar values the way the wrapper's change
// detection does: numeric values compare across types, numeric strings
// compare against numbers, and everything else falls back to deep equality.
func looseEqual(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	if af, aok := toFloat(a); aok {
		if bf, bok := toFloat(b); bok {
			return af == bf
		}
		if bs, bok := b.(string); bok {
			if f, err := strconv.ParseFloat(bs, 64); err == nil {
				return af == f
			}
		}
		return false
	}
	if as, aok := a.(string); aok {
		if bs, bok := b.(string); bok {
			return as == bs
		}
		if bf, bok := toFloat(b); bok {
			if f, err := strconv.ParseFloat(as, 64); err == nil {
				return f == bf
			}
		}
		return false
	}
	return reflect.DeepEqual(a, b)
}

func toFloat(v any) (float64, bool) {
	switch t := v.(type) {
	case int:
		return float64(t), true
	case int8:
		return float64(t), true
	case int16:
		return float64(t), true
	case int32:
		return float64(t), true
	case int64:
		return float64(t), true
	case uint:
		return float64(t), true
	case uint8:
		return float64(t), true
	case uint16:
		return float64(t), true
	case uint32:
		return float64(t), true
	case uint64:
		return float64(t), true
	case float32:
		return float64(t), true
	case float64:
		return t, true
	}
	return 0, false
}

// scalarForm reduces a value to the form the default reconcile comparator
// matches on, mirroring primitive coercion: every keyed map coerces to the
// same opaque marker, a sequence coerces to its elements' forms joined by
// commas, and scalars pass through.
func scalarForm(v any) any {
	switch {
	case isMapShaped(v):
		return "[object]"
	case isSeqShaped(v):
		items, _ := seqItemsOf(v)
		parts := make([]string, len(items))
		for i, el := range items {
			parts[i] = fmt.Sprintf("%v", scalarForm(el))
		}
		return strings.Join(parts, ",")
	}
	return v
}

// sameStored compares two stored property values for change detection:
// identity for wrapped values, loose equality for scalars. Never a deep
// comparison.
func sameStored(old, new any) bool {
	oldObs, oldOK := asObservable(old)
	newObs, newOK := asObservable(new)
	if oldOK || newOK {
		return oldOK && newOK && oldObs == newObs
	}
	return looseEqual(old, new)
}

// Snapshot returns a plain deep copy of v with all wrappers stripped.
// Maps come back as map[string]any when every key is a string, otherwise
// map[any]any. Cycles through shared substructure are cut with nil.
func Snapshot(v any) any {
	return snapshotValue(v, make(map[Observable]bool))
}

func snapshotValue(v any, seen map[Observable]bool) any {
	switch t := v.(type) {
	case *Object:
		if seen[t] {
			return nil
		}
		seen[t] = true
		defer delete(seen, t)
		return snapshotMap(t.Keys(), func(k any) any { return t.entries[k] }, seen)
	case *List:
		if seen[t] {
			return nil
		}
		seen[t] = true
		defer delete(seen, t)
		out := make([]any, len(t.items))
		for i, el := range t.items {
			out[i] = snapshotValue(el, seen)
		}
		return out
	case map[string]any:
		keys, get, _ := mapEntriesOf(t)
		return snapshotMap(keys, get, seen)
	case map[any]any:
		keys, get, _ := mapEntriesOf(t)
		return snapshotMap(keys, get, seen)
	case []any:
		out := make([]any, len(t))
		for i, el := range t {
			out[i] = snapshotValue(el, seen)
		}
		return out
	}
	return v
}

func snapshotMap(keys []any, get func(any) any, seen map[Observable]bool) any {
	allStrings := true
	for _, k := range keys {
		if _, isStr := k.(string); !isStr {
			allStrings = false
			break
		}
	}
	if allStrings {
		out := make(map[string]any, len(keys))
		for _, k := range keys {
			out[k.(string)] = snapshotValue(get(k), seen)
		}
		return out
	}
	out := make(map[any]any, len(keys))
	for _, k := range keys {
		out[k] = snapshotValue(get(k), seen)
	}
	return out
}

// =============================================================================
// Exclusion registry
// =============================================================================

// exclusionKey gives excluded values a collision-free registry key:
// reference types register by identity, comparable scalars by value.
type exclusionKey struct {
	byIdentity bool
	k          any
}

var (
	exclusionMu sync.RWMutex
	exclusions  = make(map[exclusionKey]struct{})
)

// Exclude registers process-wide singleton values that must never be
// wrapped, even when passed directly. Intended to be called once at
// initialization with environment-like globals.
func Exclude(values ...any) {
	exclusionMu.Lock()
	defer exclusionMu.Unlock()
	for _, v := range values {
		exclusions[identityKey(v)] = struct{}{}
	}
}

// IsExcluded reports whether v was registered with Exclude.
func IsExcluded(v any) bool {
	exclusionMu.RLock()
	defer exclusionMu.RUnlock()
	if len(exclusions) == 0 {
		return false
	}
	_, ok := exclusions[identityKey(v)]
	return ok
}

func identityKey(v any) exclusionKey {
	if v == nil {
		return exclusionKey{k: nil}
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Map, reflect.Slice, reflect.Ptr, reflect.Chan, reflect.Func, reflect.UnsafePointer:
		return exclusionKey{byIdentity: true, k: rv.Pointer()}
	}
	if !rv.Comparable() {
		return exclusionKey{byIdentity: true, k: reflect.ValueOf(&v).Pointer()}
	}
	return exclusionKey{k: v}
}
