package pawnAuth

import "errors"

var (
	// ErrInvalidCredentials is returned by SignIn and LogIn when the e-mail or
	// password is empty. The remote authenticator is not called.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrUnauthorized is reported by authenticators when the remote side rejects
	// the credentials (HTTP 401/403).
	ErrUnauthorized = errors.New("unauthorized")
	// ErrRemoteAuth wraps every failure of the remote authenticator call.
	ErrRemoteAuth = errors.New("remote authentication failed")
	// ErrInvalidResponse is returned when the authenticator answered without a
	// token, or with one that is already expired or undecodable.
	ErrInvalidResponse = errors.New("invalid authentication response")
	// ErrAuthenticatorMissing is returned by SignIn and LogIn on a manager built
	// without an [Authenticator].
	ErrAuthenticatorMissing = errors.New("authenticator not configured")
	// ErrClosed is returned by operations on a closed manager.
	ErrClosed = errors.New("session manager closed")
	// ErrBuilderUsed is returned by a second call to Build.
	ErrBuilderUsed = errors.New("builder already used")
)
