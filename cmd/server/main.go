package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/redis/go-redis/v9"
	"github.com/remindly/remind-api/internal/config"
	"github.com/remindly/remind-api/internal/database"
	"github.com/remindly/remind-api/internal/handlers"
	"github.com/remindly/remind-api/internal/logger"
	"github.com/remindly/remind-api/internal/middleware"
	"github.com/remindly/remind-api/internal/notify"
	"github.com/remindly/remind-api/internal/recurrence"
	"github.com/remindly/remind-api/internal/scheduler"
	"github.com/remindly/remind-api/internal/services/ai"
	"github.com/remindly/remind-api/internal/services/auth"
	"github.com/remindly/remind-api/internal/telemetry"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gorilla/mux/otelmux"
	"go.uber.org/zap"
)

const serviceName = "remind-api"

func main() {
	debugFlag := flag.Bool("debug", false, "Enable debug mode for LLM API logging")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	debugMode := cfg.ServerDebugMode || *debugFlag

	zapLogger, err := logger.NewProductionLogger(debugMode)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer func() {
		_ = logger.Sync(zapLogger)
	}()

	zapLogger.Info("starting_server",
		zap.Bool("debug_mode", debugMode),
		zap.String("server_port", cfg.ServerPort),
		zap.Duration("check_interval", cfg.CheckInterval),
		zap.Duration("detection_window", cfg.DetectionWindow),
		zap.Bool("otel_enabled", cfg.OTELEnabled),
	)

	// OpenTelemetry (optional)
	if cfg.OTELEnabled {
		if cfg.OTELEndpoint == "" {
			zapLogger.Warn("otel_enabled_but_endpoint_not_configured")
		} else {
			tp, err := telemetry.InitTracer(context.Background(), serviceName, cfg.OTELEndpoint)
			if err != nil {
				zapLogger.Warn("failed_to_initialize_otel_tracer", zap.Error(err))
			} else {
				zapLogger.Info("otel_tracer_initialized", zap.String("endpoint", cfg.OTELEndpoint))
				defer func() {
					shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
					defer shutdownCancel()
					if err := telemetry.Shutdown(shutdownCtx, tp); err != nil {
						zapLogger.Error("failed_to_shutdown_otel_tracer", zap.Error(err))
					}
				}()
			}
		}
	}

	// Database
	db, err := database.New(cfg.DatabaseURL)
	if err != nil {
		zapLogger.Fatal("failed_to_connect_to_database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			zapLogger.Warn("failed_to_close_database_connection", zap.Error(err))
		}
	}()
	zapLogger.Info("connected_to_database")

	taskRepo := database.NewTaskRepository(db)

	// Notification tracker. Redis when configured so multiple instances share
	// dedup state, in-memory otherwise.
	var tracker scheduler.Tracker
	var redisTracker *scheduler.RedisTracker
	if cfg.RedisURL != "" {
		redisTracker, err = scheduler.NewRedisTracker(cfg.RedisURL, scheduler.DefaultTrackerRetention)
		if err != nil {
			zapLogger.Fatal("failed_to_connect_to_redis", zap.Error(err))
		}
		defer func() {
			if err := redisTracker.Close(); err != nil {
				zapLogger.Warn("failed_to_close_redis_connection", zap.Error(err))
			}
		}()
		tracker = redisTracker
		zapLogger.Info("connected_to_redis")
	} else {
		tracker = scheduler.NewMemoryTracker(scheduler.DefaultTrackerRetention)
	}

	// AI parser (optional)
	var parser ai.Parser
	if cfg.OpenAIKey != "" {
		parser = ai.NewOpenAIParserWithLogger(cfg.OpenAIKey, cfg.AIBaseURL, cfg.AIModel, zapLogger, debugMode)
		zapLogger.Info("ai_parser_initialized", zap.String("model", cfg.AIModel))
	} else {
		zapLogger.Warn("openai_key_not_configured_free_text_parsing_disabled")
	}

	// Notification channels
	channels, err := config.LoadChannels(cfg.ChannelsFile)
	if err != nil {
		zapLogger.Fatal("failed_to_load_notification_channels", zap.Error(err))
	}
	notifyHandlers := notify.Build(cfg, channels, zapLogger)
	if len(notifyHandlers) == 0 {
		zapLogger.Warn("no_notification_channels_configured")
	}

	// Scheduling engine, running in-process alongside the API
	clock := recurrence.SystemClock()
	controller := recurrence.NewController(taskRepo, clock, zapLogger)
	scanner := scheduler.NewScanner(taskRepo, cfg.DetectionWindow)
	dispatcher := scheduler.NewDispatcher(notifyHandlers, tracker, cfg.HandlerTimeout, zapLogger)
	loop := scheduler.NewLoop(scanner, dispatcher, taskRepo, clock, cfg.CheckInterval, zapLogger)

	loopCtx, loopCancel := context.WithCancel(context.Background())
	defer loopCancel()
	if err := loop.Start(loopCtx); err != nil {
		zapLogger.Fatal("failed_to_start_scheduler_loop", zap.Error(err))
	}
	zapLogger.Info("scheduler_loop_started",
		zap.Duration("interval", cfg.CheckInterval),
		zap.Duration("window", cfg.DetectionWindow),
	)

	// Handlers
	taskHandler := handlers.NewTaskHandler(taskRepo, controller, parser, clock, zapLogger)
	healthChecker := handlers.NewHealthChecker(db)

	// Auth: verify bearer tokens against JWKS when configured, otherwise a
	// header-based dev identity.
	var authMW func(http.Handler) http.Handler
	if cfg.JWKSURL != "" {
		verifier := auth.NewVerifier(auth.NewJWKSManager(), cfg.JWKSURL, cfg.JWTIssuer)
		authMW = middleware.Auth(verifier, zapLogger)
		zapLogger.Info("jwt_auth_enabled", zap.String("issuer", cfg.JWTIssuer))
	} else {
		authMW = middleware.DevAuth("")
		zapLogger.Warn("jwks_url_not_configured_using_dev_auth")
	}

	var limiterRedis *redis.Client
	if redisTracker != nil {
		limiterRedis = redisTracker.Client()
	}
	rateLimitMW, err := middleware.RateLimit(limiterRedis, "")
	if err != nil {
		zapLogger.Fatal("failed_to_create_rate_limiter", zap.Error(err))
	}

	// Router
	r := mux.NewRouter()
	if cfg.OTELEnabled {
		r.Use(otelmux.Middleware(serviceName))
	}
	r.Use(middleware.CORSFromEnv(cfg.FrontendURL))
	r.Use(middleware.MaxRequestSize(middleware.DefaultMaxRequestSize))
	r.Use(middleware.ContentType)
	r.Use(middleware.Timeout(middleware.DefaultRequestTimeout))
	r.Use(middleware.ErrorHandler(zapLogger))

	// The request logger sits inside auth on API routes so log lines carry
	// the resolved owner; the unauthenticated endpoints wrap it directly.
	logMW := middleware.Logging(zapLogger)
	r.Handle("/healthz", logMW(http.HandlerFunc(healthChecker.HealthCheck))).Methods("GET")
	r.Handle("/version", logMW(http.HandlerFunc(versionInfo))).Methods("GET")

	apiRouter := r.PathPrefix("/api/v1").Subrouter()
	tasksRouter := apiRouter.PathPrefix("/tasks").Subrouter()
	tasksRouter.Use(authMW)
	tasksRouter.Use(rateLimitMW)
	tasksRouter.Use(logMW)
	taskHandler.RegisterRoutes(tasksRouter)

	r.Methods("OPTIONS").HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	srv := &http.Server{
		Addr:           ":" + cfg.ServerPort,
		Handler:        r,
		ReadTimeout:    15 * time.Second,
		WriteTimeout:   15 * time.Second,
		IdleTimeout:    60 * time.Second,
		MaxHeaderBytes: 1 << 20,
	}

	go func() {
		zapLogger.Info("server_starting", zap.String("port", cfg.ServerPort))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zapLogger.Fatal("server_failed_to_start", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	zapLogger.Info("server_shutting_down")
	loop.Stop()
	loopCancel()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		zapLogger.Fatal("server_forced_to_shutdown", zap.Error(err))
	}

	zapLogger.Info("server_exited")
}

func versionInfo(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = fmt.Fprintf(w, `{"version":"1.0.0","timestamp":"%s"}`, time.Now().UTC().Format(time.RFC3339))
}
