// Package middleware exposes route guards backed by a pawnAuth session.
//
// # Guards
//
//   - [Guard] wraps an http.Handler and redirects unauthenticated requests.
//   - [RequirePrefixes] applies [Guard] to selected path prefixes only.
//   - [CanActivate] is the router-agnostic form used by non-HTTP navigation.
//
// Each guard asks [SessionChecker.IsAuthenticated] synchronously and never
// waits on readiness; the answer is the best one available at call time.
//
// # What this package must NOT do
//
//   - Parse tokens or read storage (the session manager owns both).
//   - Authenticate users or call the remote authenticator.
package middleware
