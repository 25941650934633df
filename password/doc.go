// Package password hashes and verifies passwords with Argon2id.
//
// Hashes are PHC strings:
//
//	$argon2id$v=19$m=<memory>,t=<time>,p=<threads>$<salt>$<hash>
//
// [Argon2.NeedsUpgrade] reports hashes made with weaker parameters so a
// caller can re-hash after the next successful verification.
//
// The session manager never sees passwords at rest; this package serves the
// development authenticator in cmd/authstub.
package password
