package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"go.uber.org/zap"
)

type fakeReadiness bool

func (f fakeReadiness) Ready() bool { return bool(f) }

func TestStorageGate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		ready      bool
		wantStatus int
	}{
		{"storage ready", true, http.StatusOK},
		{"storage down", false, http.StatusServiceUnavailable},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			handler := StorageGate(fakeReadiness(tt.ready), zap.NewNop())(okHandler())
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, httptest.NewRequest("GET", "/api/orders/me", nil))

			if w.Code != tt.wantStatus {
				t.Errorf("Expected status %d, got %d", tt.wantStatus, w.Code)
			}
			if !tt.ready && w.Header().Get("Retry-After") == "" {
				t.Error("Expected Retry-After header while storage is down")
			}
		})
	}
}
