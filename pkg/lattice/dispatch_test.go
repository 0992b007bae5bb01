package lattice

import (
	"errors"
	"testing"
)

func TestParentPropagation(t *testing.T) {
	root := mustObject(t, Wrap(map[string]any{
		"mid": map[string]any{"leaf": map[string]any{"v": 1}},
	}))
	midV, _ := root.Get("mid")
	mid := mustObject(t, midV)
	leafV, _ := mid.Get("leaf")
	leaf := mustObject(t, leafV)

	rl := newTestListener()
	ml := newTestListener()
	Watch(root, rl)
	Watch(mid, ml)

	leaf.Set("v", 2)

	if ml.count != 1 {
		t.Errorf("mid listener expected 1 fire, got %d", ml.count)
	}
	if rl.count != 1 {
		t.Errorf("root listener expected 1 fire, got %d", rl.count)
	}
	if rl.sources[0] != Observable(leaf) {
		t.Errorf("source should be the originating value, got %T", rl.sources[0])
	}
	if rl.values[0] != Observable(root) {
		t.Errorf("value should be the watched value, got %T", rl.values[0])
	}
}

func TestDiamondGraphSingleFire(t *testing.T) {
	root := mustObject(t, Wrap(map[string]any{}))
	left := mustObject(t, Wrap(map[string]any{}))
	right := mustObject(t, Wrap(map[string]any{}))
	shared := mustObject(t, Wrap(map[string]any{"v": 1}))

	root.Set("left", left)
	root.Set("right", right)
	left.Set("c", shared)
	right.Set("c", shared)

	if shared.Meta().ParentCount() != 2 {
		t.Fatalf("shared value expected 2 parents, got %d", shared.Meta().ParentCount())
	}

	l := newTestListener()
	Watch(root, l)

	shared.Set("v", 2)
	if l.count != 1 {
		t.Errorf("diamond propagation should fire once per dispatch, got %d", l.count)
	}
}

func TestPauseQueuesAndResumeReplaysInOrder(t *testing.T) {
	root := mustObject(t, Wrap(map[string]any{
		"x": map[string]any{},
		"y": map[string]any{},
	}))
	xv, _ := root.Get("x")
	x := mustObject(t, xv)

	l := newTestListener()
	Watch(root, l)

	if err := Pause(root); err != nil {
		t.Fatalf("pause failed: %v", err)
	}

	x.Set("k", 1) // queues source x
	root.Set("d", 1)
	x.Set("k", 2) // deduped: x already queued

	if l.count != 0 {
		t.Fatalf("paused subject must not dispatch, got %d", l.count)
	}
	// Mutations apply immediately even while paused.
	if v, _ := x.Get("k"); v != 2 {
		t.Errorf("mutation should be visible while paused, got %v", v)
	}

	if err := Resume(root); err != nil {
		t.Fatalf("resume failed: %v", err)
	}
	if l.count != 2 {
		t.Fatalf("expected one replay per distinct source, got %d", l.count)
	}
	if l.sources[0] != Observable(x) {
		t.Errorf("first replay should carry the first-added source, got %T", l.sources[0])
	}
	if l.sources[1] != Observable(root) {
		t.Errorf("second replay should carry root, got %T", l.sources[1])
	}
}

func TestPauseIsFlatNotRefCounted(t *testing.T) {
	w := mustObject(t, Wrap(map[string]any{}))
	l := newTestListener()
	Watch(w, l)

	Pause(w)
	Pause(w) // idempotent, no nesting count
	w.Set("a", 1)

	Resume(w)
	if l.count != 1 {
		t.Fatalf("first resume should flush, got %d", l.count)
	}

	// Further resumes are no-ops.
	Resume(w)
	if l.count != 1 {
		t.Errorf("resume without pause should be a no-op, got %d", l.count)
	}

	// Dispatch is live again.
	w.Set("a", 2)
	if l.count != 2 {
		t.Errorf("expected live dispatch after resume, got %d", l.count)
	}
}

func TestPauseRequiresWrapped(t *testing.T) {
	if err := Pause(7); !errors.Is(err, ErrNotWrapped) {
		t.Errorf("expected ErrNotWrapped, got %v", err)
	}
	if err := Resume("nope"); !errors.Is(err, ErrNotWrapped) {
		t.Errorf("expected ErrNotWrapped, got %v", err)
	}
}

func TestListenerMutatingRegistryDuringDispatch(t *testing.T) {
	w := mustObject(t, Wrap(map[string]any{}))

	removed := newTestListener()
	first := NewListener(func(value, source any) {
		Unwatch(w, removed)
	})
	Watch(w, first)
	Watch(w, removed)

	// Must not panic, and must visit the listeners of this pass.
	w.Set("a", 1)

	w.Set("a", 2)
	if removed.count > 1 {
		t.Errorf("removed listener should not fire after removal, got %d", removed.count)
	}
}
