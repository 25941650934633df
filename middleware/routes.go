package middleware

import (
	"net/http"
	"strings"
)

// ProtectedRoutes are the application sections that require a session.
var ProtectedRoutes = []string{"/client", "/pawnTransaction", "/itemCategory"}

// RequirePrefixes guards only requests whose path is one of prefixes or lies
// beneath one. Other requests pass through without consulting auth. With no
// prefixes, [ProtectedRoutes] is used.
func RequirePrefixes(auth SessionChecker, redirectPath string, prefixes ...string) func(http.Handler) http.Handler {
	if len(prefixes) == 0 {
		prefixes = ProtectedRoutes
	}
	prefixes = append([]string(nil), prefixes...)
	guard := Guard(auth, redirectPath)

	return func(next http.Handler) http.Handler {
		guarded := guard(next)
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if matchesPrefix(r.URL.Path, prefixes) {
				guarded.ServeHTTP(w, r)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func matchesPrefix(path string, prefixes []string) bool {
	for _, p := range prefixes {
		p = strings.TrimSuffix(p, "/")
		if p == "" {
			return true
		}
		if path == p || strings.HasPrefix(path, p+"/") {
			return true
		}
	}
	return false
}
