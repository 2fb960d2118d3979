package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/benvon/bobbys-store/internal/validation"
	"github.com/go-playground/validator/v10"
)

// ErrMissingMongoURI is returned when MONGODB_URI is not set. There is no
// built-in fallback: credentials must be injected by the environment.
var ErrMissingMongoURI = errors.New("MONGODB_URI is required")

const (
	DefaultPort           = 3000
	DefaultHost           = "0.0.0.0"
	DefaultCORSOrigin     = "https://bobbys-store.web.app"
	DefaultMongoDatabase  = "test"
	DefaultJSONBodyLimit  = 100 << 10 // 100kb
	DefaultRequestTimeout = 30 * time.Second
)

// CORSConfig is the cross-origin policy applied to every request.
type CORSConfig struct {
	Origin         string   `validate:"required,url"`
	Credentials    bool
	Methods        []string `validate:"required,dive,oneof=GET HEAD POST PUT PATCH DELETE OPTIONS"`
	AllowedHeaders []string `validate:"dive,required"`
	MaxAge         int      `validate:"min=0"`
}

// MongoConfig holds document store settings.
type MongoConfig struct {
	URI              string        `validate:"required,mongo_uri"`
	Database         string        `validate:"required"`
	ConnectTimeout   time.Duration `validate:"gt=0"`
	MaxRetries       int           `validate:"min=0"`
	RetryMaxInterval time.Duration `validate:"gt=0"`
}

// Config holds application configuration
type Config struct {
	Port            int    `validate:"min=1,max=65535"`
	Host            string `validate:"required"`
	Mongo           MongoConfig
	CORS            CORSConfig
	JSONBodyLimit   int64         `validate:"gt=0"`
	RequestTimeout  time.Duration `validate:"gt=0"`
	RateLimit       string        `validate:"omitempty,rate"`
	RedisURL        string
	EnableHSTS      bool
	ServerDebugMode bool
	OTELEnabled     bool
	OTELEndpoint    string
}

// Addr returns the listen address in host:port form.
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	port, err := getEnvInt("PORT", DefaultPort)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		Port: port,
		Host: getEnv("HOST", DefaultHost),
		Mongo: MongoConfig{
			URI:              getEnv("MONGODB_URI", ""),
			Database:         getEnv("MONGODB_DATABASE", DefaultMongoDatabase),
			ConnectTimeout:   getEnvDuration("MONGODB_CONNECT_TIMEOUT", 10*time.Second),
			MaxRetries:       getEnvIntOrDefault("MONGODB_MAX_RETRIES", 5),
			RetryMaxInterval: getEnvDuration("MONGODB_RETRY_MAX_INTERVAL", 30*time.Second),
		},
		CORS: CORSConfig{
			Origin:         getEnv("CORS_ORIGIN", DefaultCORSOrigin),
			Credentials:    getEnvBool("CORS_CREDENTIALS", true),
			Methods:        getEnvList("CORS_METHODS", []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}),
			AllowedHeaders: getEnvList("CORS_ALLOWED_HEADERS", []string{"Content-Type", "Authorization"}),
			MaxAge:         getEnvIntOrDefault("CORS_MAX_AGE", 0),
		},
		JSONBodyLimit:   int64(getEnvIntOrDefault("JSON_BODY_LIMIT", DefaultJSONBodyLimit)),
		RequestTimeout:  getEnvDuration("REQUEST_TIMEOUT", DefaultRequestTimeout),
		RateLimit:       getEnv("RATE_LIMIT", ""),
		RedisURL:        getEnv("REDIS_URL", ""),
		EnableHSTS:      getEnvBool("ENABLE_HSTS", false),
		ServerDebugMode: getEnvBool("SERVER_DEBUG_MODE", false),
		OTELEnabled:     getEnvBool("OTEL_ENABLED", false),
		OTELEndpoint:    getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
	}

	if cfg.Mongo.URI == "" {
		return nil, ErrMissingMongoURI
	}

	for i, m := range cfg.CORS.Methods {
		cfg.CORS.Methods[i] = strings.ToUpper(m)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks field constraints.
func (c *Config) Validate() error {
	if err := validation.Validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return fmt.Errorf("invalid configuration: %s failed %q", verrs[0].Namespace(), verrs[0].Tag())
		}
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		return value == "true" || value == "1" || value == "yes"
	}
	return defaultValue
}

// getEnvInt is strict: a set but unparseable value is an error.
func getEnvInt(key string, defaultValue int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	intValue, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer, got %q", key, value)
	}
	return intValue, nil
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

// getEnvList splits a comma-separated value, dropping blanks.
func getEnvList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return append([]string(nil), defaultValue...)
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if s := strings.TrimSpace(part); s != "" {
			out = append(out, s)
		}
	}
	if len(out) == 0 {
		return append([]string(nil), defaultValue...)
	}
	return out
}

// RedactURI strips the password from a connection string so it can be logged.
func RedactURI(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return "<redacted>"
	}
	if u.User != nil {
		if _, hasPassword := u.User.Password(); hasPassword {
			u.User = url.UserPassword(u.User.Username(), "xxxxx")
		}
	}
	return u.String()
}
