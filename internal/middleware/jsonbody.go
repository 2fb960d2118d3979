package middleware

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"mime"
	"net/http"
	"strings"

	logpkg "github.com/benvon/bobbys-store/internal/logger"
	"github.com/benvon/bobbys-store/internal/request"
	"go.uber.org/zap"
)

// DefaultJSONBodyLimit is the default maximum JSON body size (100kb)
const DefaultJSONBodyLimit int64 = 100 << 10

var emptyObject = json.RawMessage("{}")

// JSONBody parses application/json request bodies before they reach any
// route. The validated document is available through request.JSONBody and
// the body stream is rewound for handlers that decode it themselves.
//
// Only objects and arrays are accepted at the top level. An empty body reads
// as {}. Malformed input is answered with 400 and the route is never called.
func JSONBody(limit int64, logger *zap.Logger) func(http.Handler) http.Handler {
	if limit <= 0 {
		limit = DefaultJSONBodyLimit
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			mediaType, params, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
			if err != nil || mediaType != "application/json" {
				next.ServeHTTP(w, r)
				return
			}

			if charset := strings.ToLower(params["charset"]); charset != "" && !strings.HasPrefix(charset, "utf-") {
				respondErrorJSON(w, r, http.StatusUnsupportedMediaType, "Unsupported Media Type", "unsupported charset \""+strings.ToUpper(charset)+"\"", logger)
				return
			}

			if !hasBody(r) {
				next.ServeHTTP(w, r.WithContext(request.WithJSONBody(r.Context(), emptyObject)))
				return
			}

			if r.ContentLength > limit {
				respondErrorJSON(w, r, http.StatusRequestEntityTooLarge, "Payload Too Large", "request entity too large", logger)
				return
			}

			data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, limit))
			if err != nil {
				var tooLarge *http.MaxBytesError
				if errors.As(err, &tooLarge) {
					respondErrorJSON(w, r, http.StatusRequestEntityTooLarge, "Payload Too Large", "request entity too large", logger)
					return
				}
				respondErrorJSON(w, r, http.StatusBadRequest, "Bad Request", "failed to read request body", logger)
				return
			}

			body, err := parseStrictJSON(data)
			if err != nil {
				logger.Debug("json_body_rejected",
					zap.String("path", logpkg.SanitizePath(r.URL.Path)),
					zap.String("method", r.Method),
					zap.String("error", err.Error()),
				)
				respondErrorJSON(w, r, http.StatusBadRequest, "Bad Request", err.Error(), logger)
				return
			}

			r.Body = io.NopCloser(bytes.NewReader(data))
			r.ContentLength = int64(len(data))
			next.ServeHTTP(w, r.WithContext(request.WithJSONBody(r.Context(), body)))
		})
	}
}

var (
	errNotObjectOrArray = errors.New("JSON body must be an object or array")
	errMalformedJSON    = errors.New("malformed JSON body")
)

func parseStrictJSON(data []byte) (json.RawMessage, error) {
	if len(data) == 0 {
		return emptyObject, nil
	}
	trimmed := bytes.TrimLeft(data, " \t\n\r")
	if len(trimmed) == 0 || (trimmed[0] != '{' && trimmed[0] != '[') {
		return nil, errNotObjectOrArray
	}
	if !json.Valid(trimmed) {
		return nil, errMalformedJSON
	}
	return json.RawMessage(trimmed), nil
}

// hasBody mirrors the usual rule: a body exists when the request is chunked
// or declares a non-zero length.
func hasBody(r *http.Request) bool {
	if r.Body == nil || r.Body == http.NoBody {
		return false
	}
	return len(r.TransferEncoding) > 0 || r.ContentLength != 0
}
