package commands

import (
	"fmt"
	"io"
	"strings"

	"github.com/benvon/bobbys-store/internal/config"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// resolvedConfig is the printable view of config.Config. Secrets are redacted.
type resolvedConfig struct {
	Addr    string            `yaml:"addr"`
	MongoDB resolvedMongo     `yaml:"mongodb"`
	CORS    resolvedCORS      `yaml:"cors"`
	HTTP    resolvedHTTP      `yaml:"http"`
	Tracing resolvedTracing   `yaml:"tracing"`
	Limits  resolvedRateLimit `yaml:"rate_limit"`
}

type resolvedMongo struct {
	URI              string `yaml:"uri"`
	Database         string `yaml:"database"`
	ConnectTimeout   string `yaml:"connect_timeout"`
	MaxRetries       int    `yaml:"max_retries"`
	RetryMaxInterval string `yaml:"retry_max_interval"`
}

type resolvedCORS struct {
	Origin         string   `yaml:"origin"`
	Credentials    bool     `yaml:"credentials"`
	Methods        []string `yaml:"methods"`
	AllowedHeaders []string `yaml:"allowed_headers"`
	MaxAge         int      `yaml:"max_age"`
}

type resolvedHTTP struct {
	JSONBodyLimit  int64  `yaml:"json_body_limit"`
	RequestTimeout string `yaml:"request_timeout"`
	EnableHSTS     bool   `yaml:"enable_hsts"`
	DebugMode      bool   `yaml:"debug_mode"`
}

type resolvedTracing struct {
	Enabled  bool   `yaml:"enabled"`
	Endpoint string `yaml:"endpoint,omitempty"`
}

type resolvedRateLimit struct {
	Rate     string `yaml:"rate,omitempty"`
	RedisURL string `yaml:"redis_url,omitempty"`
}

func newResolvedConfig(cfg *config.Config) resolvedConfig {
	redis := ""
	if cfg.RedisURL != "" {
		redis = config.RedactURI(cfg.RedisURL)
	}
	return resolvedConfig{
		Addr: cfg.Addr(),
		MongoDB: resolvedMongo{
			URI:              config.RedactURI(cfg.Mongo.URI),
			Database:         cfg.Mongo.Database,
			ConnectTimeout:   cfg.Mongo.ConnectTimeout.String(),
			MaxRetries:       cfg.Mongo.MaxRetries,
			RetryMaxInterval: cfg.Mongo.RetryMaxInterval.String(),
		},
		CORS: resolvedCORS{
			Origin:         cfg.CORS.Origin,
			Credentials:    cfg.CORS.Credentials,
			Methods:        cfg.CORS.Methods,
			AllowedHeaders: cfg.CORS.AllowedHeaders,
			MaxAge:         cfg.CORS.MaxAge,
		},
		HTTP: resolvedHTTP{
			JSONBodyLimit:  cfg.JSONBodyLimit,
			RequestTimeout: cfg.RequestTimeout.String(),
			EnableHSTS:     cfg.EnableHSTS,
			DebugMode:      cfg.ServerDebugMode,
		},
		Tracing: resolvedTracing{
			Enabled:  cfg.OTELEnabled,
			Endpoint: cfg.OTELEndpoint,
		},
		Limits: resolvedRateLimit{
			Rate:     cfg.RateLimit,
			RedisURL: redis,
		},
	}
}

// NewConfigCmd creates the config command with the show subcommand.
func NewConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect server configuration",
	}
	cmd.AddCommand(newConfigShowCmd())
	return cmd
}

func newConfigShowCmd() *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "show",
		Short: "Print the configuration the server would start with",
		Long:  "Resolve configuration from the environment exactly as the server does and print it with credentials redacted.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			return writeConfig(cmd.OutOrStdout(), newResolvedConfig(cfg), output)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "text", "Output format (text|yaml)")
	return cmd
}

func writeConfig(w io.Writer, rc resolvedConfig, output string) error {
	switch output {
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(rc); err != nil {
			return fmt.Errorf("encode yaml: %w", err)
		}
		return enc.Close()
	case "text":
		fmt.Fprintf(w, "Listen address: %s\n", rc.Addr)
		fmt.Fprintln(w, "MongoDB:")
		fmt.Fprintf(w, "  URI: %s\n", rc.MongoDB.URI)
		fmt.Fprintf(w, "  Database: %s\n", rc.MongoDB.Database)
		fmt.Fprintf(w, "  Connect timeout: %s\n", rc.MongoDB.ConnectTimeout)
		fmt.Fprintf(w, "  Max retries: %d\n", rc.MongoDB.MaxRetries)
		fmt.Fprintln(w, "CORS:")
		fmt.Fprintf(w, "  Origin: %s\n", rc.CORS.Origin)
		fmt.Fprintf(w, "  Credentials: %v\n", rc.CORS.Credentials)
		fmt.Fprintf(w, "  Methods: %s\n", strings.Join(rc.CORS.Methods, ", "))
		fmt.Fprintf(w, "  Allowed headers: %s\n", strings.Join(rc.CORS.AllowedHeaders, ", "))
		fmt.Fprintf(w, "JSON body limit: %d bytes\n", rc.HTTP.JSONBodyLimit)
		fmt.Fprintf(w, "Request timeout: %s\n", rc.HTTP.RequestTimeout)
		if rc.Limits.Rate != "" {
			fmt.Fprintf(w, "Rate limit: %s\n", rc.Limits.Rate)
		} else {
			fmt.Fprintln(w, "Rate limit: disabled")
		}
		return nil
	default:
		return fmt.Errorf("unknown output format %q (want text or yaml)", output)
	}
}
