package middleware

import (
	"context"
	"net/http"

	pawnAuth "github.com/MrEthical07/pawnAuth"
)

// DefaultRedirectPath is used when a guard is built with an empty redirect.
const DefaultRedirectPath = "/login"

// SessionChecker is the part of [pawnAuth.Manager] the guards consult.
type SessionChecker interface {
	IsAuthenticated(ctx context.Context) bool
	GetCurrentUser(ctx context.Context) *pawnAuth.UserProfile
}

// guardObserver is implemented by checkers that count guard decisions.
type guardObserver interface {
	ObserveGuard(allowed bool)
}

type userContextKey struct{}

// UserFromContext returns the profile attached by [Guard], if any.
func UserFromContext(ctx context.Context) (*pawnAuth.UserProfile, bool) {
	user, ok := ctx.Value(userContextKey{}).(*pawnAuth.UserProfile)
	return user, ok && user != nil
}

// Guard admits requests while the session is authenticated and redirects
// everything else to redirectPath with 303 See Other.
func Guard(auth SessionChecker, redirectPath string) func(http.Handler) http.Handler {
	redirectPath = normalizeRedirect(redirectPath)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !allow(r.Context(), auth) {
				http.Redirect(w, r, redirectPath, http.StatusSeeOther)
				return
			}

			ctx := r.Context()
			if user := auth.GetCurrentUser(ctx); user != nil {
				ctx = context.WithValue(ctx, userContextKey{}, user)
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func allow(ctx context.Context, auth SessionChecker) bool {
	if auth == nil {
		return false
	}
	ok := auth.IsAuthenticated(ctx)
	if obs, has := auth.(guardObserver); has {
		obs.ObserveGuard(ok)
	}
	return ok
}

func normalizeRedirect(path string) string {
	if path == "" {
		return DefaultRedirectPath
	}
	return path
}
