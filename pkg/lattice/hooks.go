package lattice

import "time"

// Hooks receives instrumentation callbacks from the engine. All fields are
// optional; a nil hook set disables instrumentation entirely. Hooks run
// synchronously on the mutating goroutine and must be cheap.
type Hooks struct {
	// OnWrap fires once per wrapper constructed.
	OnWrap func()

	// OnNotify fires once per notification pass (one mutation's dispatch
	// through the parent graph).
	OnNotify func()

	// OnListenerFired fires once per listener invocation.
	OnListenerFired func()

	// OnReconcile fires after each top-level Reconcile call with the
	// destination shape, whether anything changed, and the elapsed time.
	OnReconcile func(shape string, changed bool, elapsed time.Duration)

	// OnMerge fires after each top-level Merge/MergeDeep call.
	OnMerge func(deep bool, changed bool, elapsed time.Duration)
}

var activeHooks *Hooks

// SetHooks installs process-wide instrumentation hooks. Pass nil to remove
// them. Intended to be called once at initialization.
func SetHooks(h *Hooks) { activeHooks = h }

func hookWrap() {
	if activeHooks != nil && activeHooks.OnWrap != nil {
		activeHooks.OnWrap()
	}
}

func hookNotify() {
	if activeHooks != nil && activeHooks.OnNotify != nil {
		activeHooks.OnNotify()
	}
}

func hookListenerFired() {
	if activeHooks != nil && activeHooks.OnListenerFired != nil {
		activeHooks.OnListenerFired()
	}
}

func hookReconcile(shape string, changed bool, elapsed time.Duration) {
	if activeHooks != nil && activeHooks.OnReconcile != nil {
		activeHooks.OnReconcile(shape, changed, elapsed)
	}
}

func hookMerge(deep bool, changed bool, elapsed time.Duration) {
	if activeHooks != nil && activeHooks.OnMerge != nil {
		activeHooks.OnMerge(deep, changed, elapsed)
	}
}
