package lattice

import (
	"bytes"
	"fmt"
	"sort"

	"github.com/cespare/xxhash/v2"
	jsoniter "github.com/json-iterator/go"
)

// scalarJSON encodes scalar leaves for the canonical form. ConfigFastest is
// fine here: the output only needs to be stable, not standards-pretty.
var scalarJSON = jsoniter.ConfigFastest

// absentHash is the recorded hash when a filter path does not resolve.
var absentHash = xxhash.Sum64String("\x00lattice:absent\x00")

// canonicalHash returns a stable hash of v's canonical string form. Used to
// gate filtered listeners: fire iff the canonical value changed.
func canonicalHash(v any) uint64 {
	return xxhash.Sum64String(canonicalString(v))
}

// canonicalString renders v in a stable, key-order-independent textual
// form. Wrapped and raw containers with the same contents render the same.
func canonicalString(v any) string {
	var buf bytes.Buffer
	writeCanonical(&buf, v, make(map[Observable]bool))
	return buf.String()
}

func writeCanonical(buf *bytes.Buffer, v any, seen map[Observable]bool) {
	if obs, ok := asObservable(v); ok {
		if seen[obs] {
			buf.WriteString("<cycle>")
			return
		}
		seen[obs] = true
		defer delete(seen, obs)
	}

	switch {
	case isMapShaped(v):
		keys, get, _ := mapEntriesOf(v)
		type pair struct {
			ks string
			k  any
		}
		pairs := make([]pair, len(keys))
		for i, k := range keys {
			pairs[i] = pair{ks: keyOrder(k), k: k}
		}
		sort.Slice(pairs, func(i, j int) bool { return pairs[i].ks < pairs[j].ks })
		buf.WriteByte('{')
		for i, p := range pairs {
			if i > 0 {
				buf.WriteByte(',')
			}
			buf.WriteString(p.ks)
			buf.WriteByte(':')
			writeCanonical(buf, get(p.k), seen)
		}
		buf.WriteByte('}')

	case isSeqShaped(v):
		items, _ := seqItemsOf(v)
		buf.WriteByte('[')
		for i, el := range items {
			if i > 0 {
				buf.WriteByte(',')
			}
			writeCanonical(buf, el, seen)
		}
		buf.WriteByte(']')

	default:
		b, err := scalarJSON.Marshal(v)
		if err != nil {
			fmt.Fprintf(buf, "%T(%v)", v, v)
			return
		}
		buf.Write(b)
	}
}

// keyOrder renders a map key in a stable, type-qualified form so that keys
// of different types never collide and raw maps iterate deterministically.
func keyOrder(k any) string {
	if s, ok := k.(string); ok {
		return "s:" + s
	}
	return fmt.Sprintf("%T:%v", k, k)
}
