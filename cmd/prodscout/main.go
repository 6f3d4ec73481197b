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
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/meridian-ai/prodscout/internal/config"
	"github.com/meridian-ai/prodscout/internal/domain"
	"github.com/meridian-ai/prodscout/internal/kv"
	kvMemory "github.com/meridian-ai/prodscout/internal/kv/memory"
	kvRedis "github.com/meridian-ai/prodscout/internal/kv/redis"
	logpkg "github.com/meridian-ai/prodscout/internal/logger"
	"github.com/meridian-ai/prodscout/internal/metrics"
	catalogrepo "github.com/meridian-ai/prodscout/internal/repository/catalog"
	"github.com/meridian-ai/prodscout/internal/repository/embcache"
	"github.com/meridian-ai/prodscout/internal/repository/resultcache"
	chiTransport "github.com/meridian-ai/prodscout/internal/transport/chi"
	openaiT "github.com/meridian-ai/prodscout/internal/transport/openai"
	"github.com/meridian-ai/prodscout/internal/usecase/decompose"
	healthuc "github.com/meridian-ai/prodscout/internal/usecase/health"
	researchuc "github.com/meridian-ai/prodscout/internal/usecase/research"
	retrievaluc "github.com/meridian-ai/prodscout/internal/usecase/retrieval"
	"github.com/meridian-ai/prodscout/internal/usecase/synthesis"
	"github.com/meridian-ai/prodscout/internal/version"
)

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

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

	logger.Info("Starting prodscout API server",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.String("kv_driver", cfg.KV.Driver),
		zap.Strings("kv_addrs", cfg.KV.Addrs),
	)

	// Create the key-value store based on driver
	var store kv.Store
	switch cfg.KV.Driver {
	case "memory":
		store = kvMemory.NewStore()
	case "redis":
		store, err = kvRedis.NewStore(kvRedis.Config{
			Addrs:    cfg.KV.Addrs,
			Password: cfg.KV.Password,
		})
		if err != nil {
			logger.Fatal("Failed to create kv store", zap.Error(err))
		}
	default:
		logger.Fatal("Unknown kv driver", zap.String("driver", cfg.KV.Driver))
	}
	defer store.Close()

	ctx := context.Background()
	if err := store.WaitForReady(ctx, time.Duration(cfg.KV.ReadinessTimeout)*time.Second); err != nil {
		logger.Fatal("KV store not ready", zap.Error(err))
	}
	logger.Info("Connected to kv store")

	// Register provider metrics explicitly (no init())
	metrics.RegisterProviderMetrics()

	// Catalog: always load the seed file; with the redis driver the items are
	// pushed into the shared store so multiple instances see one catalog.
	memCatalog, err := catalogrepo.LoadFile(cfg.Catalog.Path)
	if err != nil {
		logger.Fatal("Failed to load catalog", zap.String("path", cfg.Catalog.Path), zap.Error(err))
	}
	var catalog retrievaluc.Catalog = memCatalog
	if cfg.KV.Driver == "redis" {
		redisCatalog := catalogrepo.NewRedisRepo(store, cfg.Catalog.KeyPrefix, logger)
		items, err := memCatalog.List(ctx, domain.Filter{})
		if err != nil {
			logger.Fatal("Failed to read seed catalog", zap.Error(err))
		}
		if err := redisCatalog.Seed(ctx, items); err != nil {
			logger.Fatal("Failed to seed catalog", zap.Error(err))
		}
		catalog = redisCatalog
	}
	logger.Info("Catalog loaded",
		zap.String("path", cfg.Catalog.Path),
		zap.Int("items", memCatalog.Len()),
	)

	// Embedder chain: OpenAI -> cached. The cache is what keeps exhaustive
	// scans affordable: item embeddings are computed once per catalog text.
	baseEmbedder := openaiT.NewEmbedder(&openaiT.EmbedderConfig{
		APIKey:     cfg.Embedding.APIKey,
		BaseURL:    cfg.Embedding.BaseURL,
		Model:      cfg.Embedding.Model,
		Dimensions: cfg.Embedding.Dimensions,
		Logger:     logger,
	})
	embedder := embcache.New(
		baseEmbedder, store, cfg.Catalog.KeyPrefix,
		time.Duration(cfg.Embedding.CacheTTL)*time.Second,
		metrics.EmbeddingCacheTotal, logger,
	)

	completer := openaiT.NewCompleter(&openaiT.CompleterConfig{
		APIKey:      cfg.Completion.APIKey,
		BaseURL:     cfg.Completion.BaseURL,
		Model:       cfg.Completion.Model,
		Temperature: cfg.Completion.Temperature,
		MaxTokens:   cfg.Completion.MaxTokens,
		Timeout:     time.Duration(cfg.Completion.TimeoutSec) * time.Second,
		Logger:      logger,
	})

	// Retrieval service with optional result caching
	retriever := retrievaluc.New(catalog, embedder)
	if cfg.Cache.ResultTTLSec > 0 {
		retriever = retriever.WithCache(resultcache.New(
			store, cfg.Catalog.KeyPrefix,
			time.Duration(cfg.Cache.ResultTTLSec)*time.Second,
			metrics.ResultCacheTotal, logger,
		))
	}

	// Deep-research pipeline
	researcher := researchuc.NewResearcher(retriever, completer, logger).
		WithLimits(cfg.Research.PerQuestionTopK, cfg.Research.MinSimilarity).
		WithTaskTimeout(time.Duration(cfg.Research.TaskTimeoutSec) * time.Second)
	researchSvc := researchuc.New(
		decompose.New(completer, logger),
		researchuc.NewOrchestrator(researcher, logger),
		synthesis.New(completer, logger),
		logger,
	).WithMaxSubQuestions(cfg.Research.MaxSubQuestions)

	healthSvc := healthuc.New(store, baseEmbedder, memCatalog)

	server := chiTransport.NewServer(retriever, researchSvc, healthSvc, chiTransport.Limits{
		DefaultTopK:     cfg.Retrieval.DefaultTopK,
		MaxTopK:         cfg.Retrieval.MaxTopK,
		MinSimilarity:   cfg.Retrieval.MinSimilarity,
		MaxSubQuestions: cfg.Research.MaxSubQuestions,
	}, logger)

	r := chi.NewRouter()
	r.Use(jsonRecoverer(logger))
	r.Use(chiMiddleware.RequestID)
	r.Use(wideEventMiddleware(logger))
	r.Use(chiTransport.BearerAuthMiddleware(cfg.Auth.APIKeys))
	r.Use(metrics.Middleware())
	server.Register(r)

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

// jsonRecoverer is a recovery middleware that returns JSON instead of a plain text stacktrace.
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

// wideEventMiddleware emits a canonical log line per request and propagates X-Request-ID.
func wideEventMiddleware(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			// chi.middleware.RequestID already placed request_id in context
			requestID := chiMiddleware.GetReqID(r.Context())

			// Set X-Request-ID in response header
			if requestID != "" {
				w.Header().Set("X-Request-ID", requestID)
			}

			// Per-request logger with request_id
			reqLogger := logger.With(zap.String("request_id", requestID))
			ctx := logpkg.ContextWithLogger(r.Context(), reqLogger)

			ww := chiMiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r.WithContext(ctx))

			// Canonical log line — one line per request
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
