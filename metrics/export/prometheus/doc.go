// Package prometheus renders pawnAuth session metrics in Prometheus text
// exposition format.
//
// [New] accepts a [*pawnAuth.Manager] (or any [Source]) and [Exporter.Handler]
// serves the pawnauth_*_total counters and the
// pawnauth_remote_auth_latency_seconds histogram.
//
// # What this package must NOT do
//
//   - Register in a global registry; callers mount the Handler.
//   - Mutate manager state.
package prometheus
