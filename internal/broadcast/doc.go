// Package broadcast implements the replay-latest publish/subscribe primitive
// behind the tokenReady and currentUser channels.
//
// # Delivery contract
//
// A new subscriber first receives the value current at subscription time, then
// every subsequent Set in publication order. Each subscriber owns an unbounded
// queue drained by its own goroutine, so a slow consumer delays only itself and
// never causes a transition to be skipped.
//
// # What this package must NOT do
//
//   - Import pawnAuth or any sibling package.
//   - Coalesce or deduplicate values (false -> true -> false is delivered as is).
package broadcast
