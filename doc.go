// Package pawnAuth manages the operator session of the pawn-shop back office:
// which user is signed in, with what bearer token, and whether that token is
// still usable.
//
// A [Manager] is built once per process through [Builder.Build], which hydrates
// it from the configured durable storage. Callers then read the session through
// [Manager.GetToken], [Manager.IsAuthenticated] and [Manager.GetCurrentUser],
// and change it through [Manager.SignIn], [Manager.LogIn] and [Manager.Logout].
// Manager methods are safe to call from multiple goroutines.
//
// # Readiness
//
// [Manager.TokenReady] and [Manager.CurrentUser] are replay-latest
// subscriptions: a new subscriber receives the current value immediately and
// every later change in order. Code that needs an authoritative answer right
// after startup or right after a log-in waits for readiness first
// ([Manager.WaitReady]); the HTTP guard in package middleware does not.
//
// # Failure policy
//
// Expired, malformed and missing tokens are absorbed: reads fail closed to
// "not authenticated" and never return errors. Durable storage failures
// degrade the call to in-memory operation and are logged. Only the remote
// authenticator's failures leave the package, wrapped in [ErrRemoteAuth].
//
// # What this package must NOT do
//
//   - Verify token signatures. Only the exp claim is read; verification belongs
//     to the remote authenticator.
//   - Assume durable storage exists. A nil adapter is a supported mode.
//   - Import middleware, remote or any exporter package (no import cycles).
package pawnAuth
