package middleware

import "net/http"

// AdminMiddleware guards the admin surface with a shared key. When no key
// is configured the surface is disabled entirely.
type AdminMiddleware struct {
	key string
}

func NewAdminMiddleware(key string) *AdminMiddleware {
	return &AdminMiddleware{key: key}
}

func (m *AdminMiddleware) Require(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if m.key == "" {
			http.Error(w, "admin endpoints disabled", http.StatusForbidden)
			return
		}
		if r.Header.Get("X-Admin-Key") != m.key {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}
