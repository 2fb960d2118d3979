package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/benvon/bobbys-store/internal/config"
	"github.com/benvon/bobbys-store/internal/database"
	"github.com/benvon/bobbys-store/internal/handlers"
	"github.com/benvon/bobbys-store/internal/logger"
	"github.com/benvon/bobbys-store/internal/middleware"
	"github.com/benvon/bobbys-store/internal/routes"
	"github.com/benvon/bobbys-store/internal/server"
	"github.com/benvon/bobbys-store/internal/telemetry"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	debugFlag := flag.Bool("debug", false, "Enable debug logging")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	debugMode := cfg.ServerDebugMode || *debugFlag

	zapLogger, err := logger.New(debugMode)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer func() {
		_ = logger.Sync(zapLogger)
	}()

	zapLogger.Info("starting_server",
		zap.String("version", version),
		zap.Bool("debug_mode", debugMode),
		zap.String("addr", cfg.Addr()),
		zap.String("mongodb_uri", config.RedactURI(cfg.Mongo.URI)),
		zap.String("cors_origin", cfg.CORS.Origin),
		zap.Bool("otel_enabled", cfg.OTELEnabled),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var opts []server.Option
	opts = append(opts, server.WithVersion(version))

	if cfg.OTELEnabled {
		if cfg.OTELEndpoint == "" {
			zapLogger.Warn("otel_enabled_but_endpoint_not_configured")
		} else {
			tp, err := telemetry.InitTracer(ctx, logger.ServiceName, version, cfg.OTELEndpoint)
			if err != nil {
				zapLogger.Warn("failed_to_initialize_otel_tracer", zap.Error(err))
			} else {
				zapLogger.Info("otel_tracer_initialized", zap.String("endpoint", cfg.OTELEndpoint))
				opts = append(opts, server.WithTracing(logger.ServiceName))
				defer func() {
					shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
					defer cancel()
					if err := telemetry.Shutdown(shutdownCtx, tp); err != nil {
						zapLogger.Error("failed_to_shutdown_otel_tracer", zap.Error(err))
					}
				}()
			}
		}
	}

	store := database.NewStore(cfg.Mongo, zapLogger)

	groupOpts := []routes.Option{routes.WithStorageGate(store, zapLogger)}
	if cfg.RateLimit != "" {
		var redisClient *redis.Client
		if cfg.RedisURL != "" {
			redisClient, err = middleware.NewRedisClient(ctx, cfg.RedisURL)
			if err != nil {
				zapLogger.Fatal("failed_to_connect_to_redis", zap.Error(err))
			}
			defer func() {
				if err := redisClient.Close(); err != nil {
					zapLogger.Warn("failed_to_close_redis_connection", zap.Error(err))
				}
			}()
			zapLogger.Info("connected_to_redis")
			opts = append(opts, server.WithCheck("redis", handlers.CheckFunc(func(ctx context.Context) error {
				return redisClient.Ping(ctx).Err()
			})))
		}

		rateLimitMW, err := middleware.RateLimit(cfg.RateLimit, redisClient)
		if err != nil {
			zapLogger.Fatal("failed_to_create_rate_limiter", zap.Error(err))
		}
		groupOpts = append(groupOpts, routes.WithMiddleware(rateLimitMW))
		zapLogger.Info("rate_limiting_enabled",
			zap.String("rate", cfg.RateLimit),
			zap.Bool("shared_store", redisClient != nil),
		)
	}

	opts = append(opts, server.WithRoutes(routes.NewSet(groupOpts...)))

	if err := server.New(cfg, store, zapLogger, opts...).Run(ctx); err != nil {
		zapLogger.Error("server_stopped_with_error", zap.Error(err))
		_ = logger.Sync(zapLogger)
		os.Exit(1)
	}
}
