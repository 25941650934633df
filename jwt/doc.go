// Package jwt reads the expiry claim of bearer credentials and, for the
// development authenticator and tests, issues signed tokens.
//
// # Validation model
//
// The session manager never verifies signatures: that is the remote
// authenticator's job. [Validator] decodes the claims segment with
// golang-jwt's unverified parser and compares the exp claim against an
// injectable clock. Undecodable tokens and tokens without exp are classified
// as expired (fail closed).
//
// # What this package must NOT do
//
//   - Import pawnAuth or storage (no upward imports).
//   - Perform I/O or read the wall clock other than through Validator.Now.
package jwt
