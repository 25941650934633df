// Package internal holds helpers private to pawnAuth.
//
//   - broadcast: replay-latest values with unbounded per-subscriber queues,
//     used for readiness and the current-user stream.
package internal
