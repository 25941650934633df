// Package remote implements the pawn-shop authentication API client.
//
// [Client] posts {"email","password"} to {BaseURL}/signin and
// {BaseURL}/login and decodes {"token","user"}. Non-2xx answers become
// [*StatusError]; 401 and 403 match [ErrUnauthorized] with errors.Is.
// With RemoteConfig.Instrument set, requests are traced through otelhttp.
//
// # What this package must NOT do
//
//   - Store tokens or publish readiness (the session manager does).
//   - Validate token expiry.
package remote
