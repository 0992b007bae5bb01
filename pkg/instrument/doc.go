// Package instrument connects the lattice engine hooks to Prometheus
// metrics and OpenTelemetry traces.
//
// The Prometheus side produces a lattice.Hooks value to install with
// lattice.SetHooks; the OpenTelemetry side wraps the reconcile and merge
// engines in per-call spans.
package instrument
