// Package storage provides the durable key/value adapters that let a session
// survive process restarts.
//
// # Adapters
//
//   - [Memory] is a mutex-guarded map, the analogue of browser local storage when
//     several managers share one process.
//   - [Redis] is a go-redis backed adapter with key prefix and optional TTL.
//
// An execution context without durable storage is modelled by passing no
// adapter at all; callers branch on that and never call through a nil Adapter.
//
// # Architecture boundaries
//
// This package stores opaque strings. It does NOT decode tokens, interpret
// profiles or decide expiry; those belong to the session manager.
//
// # What this package must NOT do
//
//   - Import pawnAuth or jwt (no upward imports).
//   - Retry failed operations; callers degrade to in-memory operation instead.
package storage
