package middleware

import (
	"log/slog"
	"net/http"
)

// Recovery turns handler panics into 500 responses instead of dropped
// connections.
func Recovery(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				slog.Error("handler panic", "panic", rec, "method", r.Method, "path", r.URL.Path)
				http.Error(w, `{"success":false,"error":{"code":"INTERNAL_ERROR","message":"An unexpected error occurred"}}`, http.StatusInternalServerError)
			}
		}()
		next.ServeHTTP(w, r)
	})
}
