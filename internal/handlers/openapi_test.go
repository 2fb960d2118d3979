package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/benvon/bobbys-store/api/openapi"
)

func TestOpenAPIHandler(t *testing.T) {
	t.Parallel()

	h := NewOpenAPIHandler(openapi.Document)

	w := httptest.NewRecorder()
	h.ServeYAML(w, httptest.NewRequest("GET", "/api/openapi.yaml", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "/api/ping") {
		t.Error("Expected YAML document to describe /api/ping")
	}

	w = httptest.NewRecorder()
	h.ServeJSON(w, httptest.NewRequest("GET", "/api/openapi.json", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}

	var doc map[string]any
	if err := json.NewDecoder(w.Body).Decode(&doc); err != nil {
		t.Fatalf("Failed to decode JSON document: %v", err)
	}
	paths, ok := doc["paths"].(map[string]any)
	if !ok {
		t.Fatalf("Expected paths object, got %T", doc["paths"])
	}
	if _, ok := paths["/readyz"]; !ok {
		t.Error("Expected /readyz in document paths")
	}
}

func TestOpenAPIHandler_Missing(t *testing.T) {
	t.Parallel()

	h := NewOpenAPIHandler(nil)

	for _, serve := range []http.HandlerFunc{h.ServeYAML, h.ServeJSON} {
		w := httptest.NewRecorder()
		serve(w, httptest.NewRequest("GET", "/api/openapi", nil))
		if w.Code != http.StatusNotFound {
			t.Errorf("Expected status 404, got %d", w.Code)
		}
	}
}
