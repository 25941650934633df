// Package otel binds pawnAuth session metrics to OpenTelemetry instruments.
//
// [New] registers an Int64ObservableCounter per session counter and an
// Int64ObservableGauge per cumulative latency bucket. One callback reads
// the manager snapshot on each collection cycle.
//
// # What this package must NOT do
//
//   - Own the MeterProvider; callers supply the Meter.
//   - Mutate manager state.
package otel
