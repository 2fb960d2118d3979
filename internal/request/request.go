package request

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
)

type contextKey string

const (
	requestIDContextKey contextKey = "request_id"
	jsonBodyContextKey  contextKey = "json_body"
)

// RequestIDHeader carries the per-request correlation ID.
const RequestIDHeader = "X-Request-ID"

// ClientIP extracts the client IP from the request, respecting X-Forwarded-For and X-Real-IP.
func ClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		parts := strings.Split(xff, ",")
		if len(parts) > 0 {
			return strings.TrimSpace(parts[0])
		}
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return strings.TrimSpace(xri)
	}
	return r.RemoteAddr
}

// WithRequestID returns a context carrying the request ID.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDContextKey, id)
}

// RequestID returns the request ID, or "" when none was assigned.
func RequestID(r *http.Request) string {
	id, _ := r.Context().Value(requestIDContextKey).(string)
	return id
}

// WithJSONBody returns a context carrying an already validated JSON document.
func WithJSONBody(ctx context.Context, body json.RawMessage) context.Context {
	return context.WithValue(ctx, jsonBodyContextKey, body)
}

// JSONBody returns the parsed JSON body and whether the request carried one.
func JSONBody(r *http.Request) (json.RawMessage, bool) {
	body, ok := r.Context().Value(jsonBodyContextKey).(json.RawMessage)
	return body, ok
}

// DecodeJSONBody unmarshals the parsed JSON body into v. Requests without
// a JSON content type decode as an empty object.
func DecodeJSONBody(r *http.Request, v any) error {
	body, ok := JSONBody(r)
	if !ok {
		body = json.RawMessage("{}")
	}
	return json.Unmarshal(body, v)
}
