package lattice

import (
	"errors"
	"testing"
)

func TestMergeInvalidArguments(t *testing.T) {
	if _, err := Merge(42, map[string]any{}); !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("scalar destination: expected ErrInvalidArgument, got %v", err)
	}
	if _, err := Merge(map[string]any{}, 42); !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("scalar source: expected ErrInvalidArgument, got %v", err)
	}
	if _, err := Merge(map[string]any{}, []any{1}); !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("sequence source: expected ErrInvalidArgument, got %v", err)
	}
}

func TestMergeAppliesSourcesInOrder(t *testing.T) {
	a := mustObject(t, Wrap(map[string]any{"a": 1}))
	l := newTestListener()
	Watch(a, l)

	got, err := Merge(a,
		map[string]any{"a": 2, "b": 1},
		map[string]any{"b": 3},
	)
	if err != nil {
		t.Fatalf("merge failed: %v", err)
	}
	if got != any(a) {
		t.Error("merge should return the destination")
	}
	if v, _ := a.Get("a"); !looseEqual(v, 2) {
		t.Errorf("a = %v", v)
	}
	if v, _ := a.Get("b"); !looseEqual(v, 3) {
		t.Errorf("later sources win, b = %v", v)
	}
	if l.count != 1 {
		t.Errorf("a multi-source merge notifies once, got %d", l.count)
	}
}

func TestMergeNoEffectiveChangeIsSilent(t *testing.T) {
	a := mustObject(t, Wrap(map[string]any{"a": 1}))
	l := newTestListener()
	Watch(a, l)

	if _, err := Merge(a, map[string]any{"a": 1.0}); err != nil {
		t.Fatalf("merge failed: %v", err)
	}
	if l.count != 0 {
		t.Errorf("merge without effective change must not notify, got %d", l.count)
	}
}

func TestMergeShallowReplacesNestedMaps(t *testing.T) {
	a := mustObject(t, Wrap(map[string]any{
		"cfg": map[string]any{"x": 1, "y": 2},
	}))
	cv, _ := a.Get("cfg")
	oldCfg := mustObject(t, cv)

	if _, err := Merge(a, map[string]any{"cfg": map[string]any{"y": 3}}); err != nil {
		t.Fatalf("merge failed: %v", err)
	}

	nv, _ := a.Get("cfg")
	newCfg := mustObject(t, nv)
	if newCfg == oldCfg {
		t.Error("shallow merge should replace the nested map wholesale")
	}
	if newCfg.Has("x") {
		t.Error("shallow replacement must not retain old keys")
	}
	if oldCfg.Meta().ParentCount() != 0 {
		t.Errorf("replaced value should be detached, got %d parents", oldCfg.Meta().ParentCount())
	}
}

func TestMergeDeepRecursesIntoMaps(t *testing.T) {
	a := mustObject(t, Wrap(map[string]any{
		"cfg": map[string]any{"x": 1, "y": 2},
	}))
	cv, _ := a.Get("cfg")
	cfg := mustObject(t, cv)

	cfgL := newTestListener()
	Watch(cfg, cfgL)
	rootL := newTestListener()
	Watch(a, rootL)

	if _, err := MergeDeep(a, map[string]any{"cfg": map[string]any{"y": 3}}); err != nil {
		t.Fatalf("merge failed: %v", err)
	}

	nv, _ := a.Get("cfg")
	if nv != any(cfg) {
		t.Fatal("deep merge must keep the nested wrapper identity")
	}
	if v, _ := cfg.Get("x"); !looseEqual(v, 1) {
		t.Errorf("untouched key lost, x = %v", v)
	}
	if v, _ := cfg.Get("y"); !looseEqual(v, 3) {
		t.Errorf("y = %v", v)
	}
	if cfgL.count != 1 {
		t.Errorf("nested level notifies once, got %d", cfgL.count)
	}
	if rootL.count != 1 {
		t.Errorf("root level notifies once, got %d", rootL.count)
	}
}

func TestMergeReplacesSequencesWholesale(t *testing.T) {
	a := mustObject(t, Wrap(map[string]any{"tags": []any{"x", "y"}}))
	tv, _ := a.Get("tags")
	tags := mustList(t, tv)

	if _, err := MergeDeep(a, map[string]any{"tags": []any{"z"}}); err != nil {
		t.Fatalf("merge failed: %v", err)
	}

	nv, _ := a.Get("tags")
	if nv != any(tags) {
		t.Fatal("sequence replacement must keep the wrapped sequence's identity")
	}
	if tags.Len() != 1 {
		t.Fatalf("expected 1 element, got %d", tags.Len())
	}
	if v, _ := tags.Get(0); v != "z" {
		t.Errorf("got %v", v)
	}
}

func TestMergeSelfAssignmentRejectedBeforeMutation(t *testing.T) {
	a := mustObject(t, Wrap(map[string]any{"a": 1}))
	_, err := Merge(a, map[string]any{"b": 2, "self": a})
	if !errors.Is(err, ErrSelfParent) {
		t.Fatalf("expected ErrSelfParent, got %v", err)
	}
	if a.Has("b") {
		t.Error("failed merge must not leave partial mutation")
	}
}

func TestMergeSharedWrappedSourceGainsParent(t *testing.T) {
	child := mustObject(t, Wrap(map[string]any{"v": 1}))
	other := mustObject(t, Wrap(map[string]any{}))
	other.Set("c", child)

	a := mustObject(t, Wrap(map[string]any{}))
	if _, err := Merge(a, map[string]any{"c": child}); err != nil {
		t.Fatalf("merge failed: %v", err)
	}

	stored, _ := a.Get("c")
	if stored != any(child) {
		t.Fatal("an already-wrapped source value merges by reference")
	}
	if child.Meta().ParentCount() != 2 {
		t.Errorf("expected 2 parents after merge, got %d", child.Meta().ParentCount())
	}

	l := newTestListener()
	Watch(a, l)
	child.Set("v", 2)
	if l.count != 1 {
		t.Errorf("shared child should propagate into the merge destination, got %d", l.count)
	}
}

func TestMergeWrapsRawDestination(t *testing.T) {
	got, err := Merge(map[string]any{"a": 1}, map[string]any{"b": 2})
	if err != nil {
		t.Fatalf("merge failed: %v", err)
	}
	o := mustObject(t, got)
	if !o.Has("a") || !o.Has("b") {
		t.Error("wrapped destination should hold both keys")
	}
}
