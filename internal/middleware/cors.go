package middleware

import (
	"net/http"
	"sort"
	"strings"

	"github.com/benvon/bobbys-store/internal/config"
	"github.com/rs/cors"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// CORS applies the configured cross-origin policy to every request. Every
// OPTIONS request is answered here with 204 and never reaches the router;
// when the origin is accepted the response carries the full configured
// method and header lists. Requests from other origins are still served,
// just without Access-Control headers.
func CORS(policy config.CORSConfig, logger *zap.Logger) func(http.Handler) http.Handler {
	opts := cors.Options{
		AllowedOrigins:     []string{policy.Origin},
		AllowCredentials:   policy.Credentials,
		AllowedMethods:     policy.Methods,
		AllowedHeaders:     policy.AllowedHeaders,
		MaxAge:             policy.MaxAge,
		OptionsPassthrough: true,
	}
	if logger.Core().Enabled(zapcore.DebugLevel) {
		opts.Debug = true
		opts.Logger = zap.NewStdLog(logger.Named("cors"))
	}

	logger.Info("cors_policy_configured",
		zap.String("origin", policy.Origin),
		zap.Bool("credentials", policy.Credentials),
		zap.Strings("methods", policy.Methods),
		zap.Strings("allowed_headers", policy.AllowedHeaders),
	)

	c := cors.New(opts)
	allowMethods := strings.Join(policy.Methods, ",")
	allowHeaders := strings.Join(policy.AllowedHeaders, ",")

	return func(next http.Handler) http.Handler {
		handler := c.Handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodOptions {
				next.ServeHTTP(w, r)
				return
			}
			h := w.Header()
			if h.Get("Access-Control-Allow-Origin") != "" {
				h.Set("Access-Control-Allow-Methods", allowMethods)
				if allowHeaders != "" {
					h.Set("Access-Control-Allow-Headers", allowHeaders)
				}
			}
			w.WriteHeader(http.StatusNoContent)
		}))

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if requested := r.Header.Values("Access-Control-Request-Headers"); len(requested) > 0 {
				r.Header.Set("Access-Control-Request-Headers", normalizeRequestHeaders(requested))
			}
			handler.ServeHTTP(w, r)
		})
	}
}

// normalizeRequestHeaders rewrites a requested header list into the sorted
// lowercase form browsers send, which is the only form the preflight
// matcher accepts.
func normalizeRequestHeaders(values []string) string {
	var names []string
	for _, v := range values {
		for _, name := range strings.Split(v, ",") {
			if name = strings.ToLower(strings.TrimSpace(name)); name != "" {
				names = append(names, name)
			}
		}
	}
	sort.Strings(names)
	return strings.Join(names, ",")
}
