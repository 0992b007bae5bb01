package lattice

import "testing"

func TestCanonicalHashKeyOrderIndependent(t *testing.T) {
	a := mustObject(t, Wrap(map[string]any{}))
	a.Set("x", 1)
	a.Set("y", 2)

	b := mustObject(t, Wrap(map[string]any{}))
	b.Set("y", 2)
	b.Set("x", 1)

	if canonicalHash(a) != canonicalHash(b) {
		t.Error("insertion order must not affect the canonical hash")
	}
}

func TestCanonicalHashWrappedMatchesRaw(t *testing.T) {
	raw := map[string]any{"a": 1, "b": []any{"x", map[string]any{"c": true}}}
	wrapped := Wrap(map[string]any{"a": 1, "b": []any{"x", map[string]any{"c": true}}})

	if canonicalHash(raw) != canonicalHash(wrapped) {
		t.Error("wrapped and raw values with equal contents must hash alike")
	}
}

func TestCanonicalHashSequenceOrderMatters(t *testing.T) {
	if canonicalHash([]any{1, 2}) == canonicalHash([]any{2, 1}) {
		t.Error("sequence order must affect the canonical hash")
	}
}

func TestCanonicalHashDistinguishesAbsent(t *testing.T) {
	if canonicalHash(nil) == absentHash {
		t.Error("a stored nil must hash differently from an unresolvable path")
	}
}

func TestCanonicalHashKeyTypesDistinct(t *testing.T) {
	m1 := map[any]any{1: "v"}
	m2 := map[any]any{"1": "v"}
	if canonicalHash(m1) == canonicalHash(m2) {
		t.Error("integer and string keys must not collide")
	}
}

func TestCanonicalHashCycleSafe(t *testing.T) {
	a := mustObject(t, Wrap(map[string]any{}))
	b := mustObject(t, Wrap(map[string]any{}))
	a.Set("b", b)
	b.Set("a", a)

	h1 := canonicalHash(a)
	h2 := canonicalHash(a)
	if h1 != h2 {
		t.Error("cyclic structures must hash deterministically")
	}
}

func TestLooseScalarEquality(t *testing.T) {
	cases := []struct {
		a, b any
		want bool
	}{
		{1, 1.0, true},
		{"2", 2, true},
		{2, "2", true},
		{"x", "x", true},
		{true, true, true},
		{1, 2, false},
		{"x", "y", false},
		{true, 1, false},
	}
	for _, c := range cases {
		if got := looseEqual(c.a, c.b); got != c.want {
			t.Errorf("looseEqual(%v, %v) = %v, want %v", c.a, c.b, got, c.want)
		}
	}
}

func TestScalarFormOfStructuredValues(t *testing.T) {
	if scalarForm(map[string]any{"a": 1}) != "[object]" {
		t.Error("keyed maps should coerce to the constant object form")
	}
	if scalarForm(Wrap(map[string]any{"a": 1})) != "[object]" {
		t.Error("wrapped maps should coerce the same way as raw maps")
	}
	if scalarForm([]any{1, "a", 2}) != "1,a,2" {
		t.Errorf("unexpected sequence form %q", scalarForm([]any{1, "a", 2}))
	}
}
