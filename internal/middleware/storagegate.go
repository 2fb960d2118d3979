package middleware

import (
	"net/http"

	"go.uber.org/zap"
)

// Readiness reports whether a dependency can serve requests.
type Readiness interface {
	Ready() bool
}

// StorageGate answers 503 while storage is not connected so routes that
// need it never see a half-initialised client.
func StorageGate(storage Readiness, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !storage.Ready() {
				w.Header().Set("Retry-After", "5")
				respondErrorJSON(w, r, http.StatusServiceUnavailable, "Service Unavailable", "storage is not available yet", logger)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
