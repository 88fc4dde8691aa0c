package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/rueidis"
	"go.uber.org/zap"

	"github.com/GreaterLondonAuthority/dfl-ckanext/internal/clicklog"
	"github.com/GreaterLondonAuthority/dfl-ckanext/internal/config"
	"github.com/GreaterLondonAuthority/dfl-ckanext/internal/facet"
	logpkg "github.com/GreaterLondonAuthority/dfl-ckanext/internal/logger"
	"github.com/GreaterLondonAuthority/dfl-ckanext/internal/metrics"
	"github.com/GreaterLondonAuthority/dfl-ckanext/internal/query"
	"github.com/GreaterLondonAuthority/dfl-ckanext/internal/repository/orgtitle"
	"github.com/GreaterLondonAuthority/dfl-ckanext/internal/solr"
	chiTransport "github.com/GreaterLondonAuthority/dfl-ckanext/internal/transport/chi"
	searchuc "github.com/GreaterLondonAuthority/dfl-ckanext/internal/usecase/search"
	"github.com/GreaterLondonAuthority/dfl-ckanext/internal/version"
)

func main() {
	env := config.GetEnv()

	cfg, err := config.Load(env)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	logger, err := logpkg.NewLogger(env, cfg.Logging.Level)
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting search gateway",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.String("engine_url", cfg.Engine.URL),
	)

	metrics.RegisterSearchMetrics()

	// Boost config is validated at load time; a bad spec never makes
	// it past startup.
	boosts, err := cfg.BoostSpecs()
	if err != nil {
		logger.Fatal("Invalid boost configuration", zap.Error(err))
	}
	builder := query.NewBuilder(boosts)

	engineClient, err := solr.NewClient(solr.Config{
		BaseURL: cfg.Engine.URL,
		Timeout: time.Duration(cfg.Engine.TimeoutSec) * time.Second,
	}, logger)
	if err != nil {
		logger.Fatal("Failed to create engine client", zap.Error(err))
	}

	executor := solr.NewExecutor(
		engineClient,
		cfg.Engine.SiteID,
		cfg.Search.ResultFields,
		cfg.Search.FacetLimit,
		solr.HighlightParams{
			Fields:           cfg.Search.HighlightFields,
			FragSize:         cfg.Search.FragSize,
			MaxAnalyzedChars: cfg.Search.MaxAnalyzedChars,
		},
	)

	// Redis backs the title cache and the click stream; both are
	// optional.
	var redisClient rueidis.Client
	if len(cfg.Redis.Addrs) > 0 {
		redisClient, err = rueidis.NewClient(rueidis.ClientOption{
			InitAddress: cfg.Redis.Addrs,
			Password:    cfg.Redis.Password,
		})
		if err != nil {
			logger.Fatal("Failed to create redis client", zap.Error(err))
		}
		defer redisClient.Close()
	}

	var titles searchuc.TitleResolver
	if redisClient != nil {
		titles = orgtitle.New(redisClient, orgtitle.DefaultKey, logger)
	}

	var clicks clicklog.Logger = clicklog.Nop{}
	switch cfg.ClickLog.Driver {
	case "redis":
		clicks = clicklog.NewRedisLogger(redisClient, cfg.ClickLog.Stream, cfg.Search.PageSize, logger)
	case "csv":
		clicks = clicklog.NewCSVLogger(cfg.ClickLog.CSVPath, cfg.Search.PageSize, logger)
	}

	searchSvc := searchuc.New(executor, builder, titles, searchuc.Options{
		KnownFacets:     cfg.Search.KnownFacets,
		FormatGroups:    facet.NewGroups(cfg.Search.FormatGroups),
		HighlightFields: cfg.Search.HighlightFields,
		SnippetLength:   cfg.Search.SnippetLength,
		DefaultSort:     cfg.Search.DefaultSort,
	})

	server := chiTransport.NewServer(searchSvc, clicks, cfg.Search.KnownFacets, logger)

	r := chi.NewRouter()
	r.Use(jsonRecoverer(logger))
	r.Use(chiMiddleware.RequestID)
	r.Use(wideEventMiddleware(logger))
	r.Use(metrics.Middleware())
	server.Routes(r)
	r.Handle("/metrics", promhttp.Handler())
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	addr := fmt.Sprintf(":%d", cfg.HTTP.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(cfg.HTTP.WriteTimeoutSec) * time.Second,
	}

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info("Starting HTTP server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	<-quit
	logger.Info("Received shutdown signal")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.HTTP.ShutdownSec)*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error during shutdown", zap.Error(err))
	}

	logger.Info("Server stopped gracefully")
}

// jsonRecoverer is a recovery middleware that returns JSON instead of
// a plain text stacktrace.
func jsonRecoverer(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rvr := recover(); rvr != nil {
					logger.Error("panic recovered",
						zap.Any("panic", rvr),
						zap.Stack("stacktrace"),
					)
					w.Header().Set("Content-Type", "application/json")
					w.WriteHeader(http.StatusInternalServerError)
					_ = json.NewEncoder(w).Encode(map[string]string{
						"code":    "internal_error",
						"message": "internal error",
					})
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// wideEventMiddleware emits a canonical log line per request and
// propagates X-Request-ID.
func wideEventMiddleware(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			requestID := chiMiddleware.GetReqID(r.Context())
			if requestID != "" {
				w.Header().Set("X-Request-ID", requestID)
			}

			reqLogger := logger.With(zap.String("request_id", requestID))
			ctx := logpkg.ContextWithLogger(r.Context(), reqLogger)

			ww := chiMiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r.WithContext(ctx))

			reqLogger.Info("http_request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Duration("latency", time.Since(start)),
				zap.String("ip", r.RemoteAddr),
				zap.Int64("content_length", r.ContentLength),
				zap.String("user_agent", r.UserAgent()),
				zap.Int("response_bytes", ww.BytesWritten()),
			)
		})
	}
}
