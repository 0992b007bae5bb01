package instrument

import (
	"context"
	"errors"
	"testing"

	"github.com/lattice-dev/lattice/pkg/lattice"
)

func TestTracerReconcilePassesThrough(t *testing.T) {
	tr := NewTracer(WithTracerName("test"))

	w := lattice.Wrap(map[string]any{"a": 1})
	got, err := tr.Reconcile(context.Background(), w, map[string]any{"a": 2})
	if err != nil {
		t.Fatalf("reconcile failed: %v", err)
	}
	obj, ok := got.(*lattice.Object)
	if !ok {
		t.Fatalf("expected *lattice.Object, got %T", got)
	}
	if v, _ := obj.Get("a"); v != 2 {
		t.Errorf("a = %v", v)
	}
}

func TestTracerPropagatesErrors(t *testing.T) {
	tr := NewTracer()

	if _, err := tr.Reconcile(context.Background(), 42, map[string]any{}); !errors.Is(err, lattice.ErrInvalidArgument) {
		t.Errorf("expected ErrInvalidArgument, got %v", err)
	}
	if _, err := tr.Merge(context.Background(), 42, map[string]any{}); !errors.Is(err, lattice.ErrInvalidArgument) {
		t.Errorf("expected ErrInvalidArgument, got %v", err)
	}
	if _, err := tr.MergeDeep(context.Background(), map[string]any{}, 42); !errors.Is(err, lattice.ErrInvalidArgument) {
		t.Errorf("expected ErrInvalidArgument, got %v", err)
	}
}
