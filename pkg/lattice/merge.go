package lattice

import (
	"fmt"
	"time"
)

// Merge shallow-combines keyed-map sources into dest, in argument order,
// as one batched transaction: at most one notification escapes per
// affected ancestor chain. dest is wrapped if it is not already and must
// be map-shaped; so must every source (ErrInvalidArgument otherwise).
//
// Sequence-valued properties are replaced wholesale — when dest already
// holds a wrapped sequence at the key, its contents are spliced out and
// the source's spliced in, preserving the sequence's wrapped identity.
func Merge(dest any, sources ...any) (any, error) {
	return mergeInto(dest, sources, false)
}

// MergeDeep combines like Merge, but when both the existing value and the
// incoming value at a key are keyed maps it recurses instead of
// overwriting. Sequences are still replaced wholesale.
func MergeDeep(dest any, sources ...any) (any, error) {
	return mergeInto(dest, sources, true)
}

func mergeInto(dest any, sources []any, deep bool) (any, error) {
	if !isMapShaped(dest) {
		return nil, fmt.Errorf("%w: merge destination must be a keyed map", ErrInvalidArgument)
	}
	for i, s := range sources {
		if !isMapShaped(s) {
			return nil, fmt.Errorf("%w: merge source %d must be a keyed map", ErrInvalidArgument, i)
		}
	}
	o, _ := asObservable(Wrap(dest))
	obj := o.(*Object)

	// Validate self-assignment before any mutation.
	for _, s := range sources {
		keys, get, _ := mapEntriesOf(s)
		for _, k := range keys {
			if sv, ok := asObservable(get(k)); ok && sv == o {
				return nil, ErrSelfParent
			}
		}
	}

	start := time.Now()
	end := beginTx(obj)
	for _, s := range sources {
		mergeEntries(obj, s, deep)
	}
	dirty := end(false)
	hookMerge(deep, dirty, time.Since(start))
	return obj, nil
}

func mergeEntries(o *Object, src any, deep bool) {
	keys, get, _ := mapEntriesOf(src)
	for _, k := range keys {
		if isMetaKey(k) || !isComparableKey(k) {
			continue
		}
		sv := get(k)
		existing, has := o.entries[k]

		if deep && has && isMapShaped(existing) && isMapShaped(sv) {
			if exObj, ok := existing.(*Object); ok {
				mergeObjectDeep(exObj, sv)
				continue
			}
		}
		if isSeqShaped(sv) {
			if exList, ok := existing.(*List); has && ok {
				items, _ := seqItemsOf(sv)
				_ = exList.replaceAll(items)
				continue
			}
		}
		_ = o.Set(k, sv)
	}
}

// mergeObjectDeep recursively mixes src into o inside its own collapsing
// transaction, so the sub-value emits at most one notification.
func mergeObjectDeep(o *Object, src any) bool {
	end := beginTx(o)
	mergeEntries(o, src, true)
	return end(false)
}
