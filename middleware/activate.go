package middleware

import (
	"context"

	pawnAuth "github.com/MrEthical07/pawnAuth"
)

// CanActivate returns a router-agnostic guard. It reports true while the
// session is authenticated; otherwise it navigates to redirectPath and
// reports false. path is the route being entered and is not inspected.
func CanActivate(auth SessionChecker, nav pawnAuth.Navigator, redirectPath string) func(ctx context.Context, path string) bool {
	redirectPath = normalizeRedirect(redirectPath)
	return func(ctx context.Context, _ string) bool {
		if allow(ctx, auth) {
			return true
		}
		if nav != nil {
			nav.NavigateTo(redirectPath)
		}
		return false
	}
}
