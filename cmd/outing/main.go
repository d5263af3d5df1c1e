package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/outing/internal/config"
	"github.com/kailas-cloud/outing/internal/db"
	dbRedis "github.com/kailas-cloud/outing/internal/db/redis"
	"github.com/kailas-cloud/outing/internal/domain"
	"github.com/kailas-cloud/outing/internal/domain/search/mode"
	logpkg "github.com/kailas-cloud/outing/internal/logger"
	"github.com/kailas-cloud/outing/internal/metrics"
	"github.com/kailas-cloud/outing/internal/repository/embcache"
	facilityrepo "github.com/kailas-cloud/outing/internal/repository/facility"
	sessionrepo "github.com/kailas-cloud/outing/internal/repository/session"
	chiTransport "github.com/kailas-cloud/outing/internal/transport/chi"
	"github.com/kailas-cloud/outing/internal/transport/kma"
	openaiTransport "github.com/kailas-cloud/outing/internal/transport/openai"
	"github.com/kailas-cloud/outing/internal/transport/rerank"
	"github.com/kailas-cloud/outing/internal/transport/synthetic"
	chatuc "github.com/kailas-cloud/outing/internal/usecase/chat"
	"github.com/kailas-cloud/outing/internal/usecase/classify"
	"github.com/kailas-cloud/outing/internal/usecase/compose"
	embeddinguc "github.com/kailas-cloud/outing/internal/usecase/embedding"
	healthuc "github.com/kailas-cloud/outing/internal/usecase/health"
	searchuc "github.com/kailas-cloud/outing/internal/usecase/search"
	weatheruc "github.com/kailas-cloud/outing/internal/usecase/weather"
	"github.com/kailas-cloud/outing/internal/version"
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

	logger.Info("Starting outing API server",
		zap.String("build", version.String()),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.String("db_driver", cfg.Database.Driver),
		zap.Strings("db_addrs", cfg.Database.Addrs),
		zap.String("embedding_mode", cfg.Embedding.Mode),
		zap.String("generation_mode", cfg.Generation.Mode),
		zap.String("session_backend", cfg.Session.Backend),
	)

	store, err := dbRedis.NewStore(dbRedis.Config{
		Addrs:      cfg.Database.Addrs,
		Password:   cfg.Database.Password,
		Flavor:     dbRedis.Flavor(cfg.Database.Driver),
		ClientName: logpkg.Service,
	})
	if err != nil {
		logger.Fatal("Failed to create database store", zap.Error(err))
	}
	defer store.Close()

	ctx := context.Background()
	if err := store.WaitForReady(ctx, time.Duration(cfg.Database.ReadinessTimeout)*time.Second); err != nil {
		logger.Fatal("Database not ready", zap.Error(err))
	}
	logger.Info("Connected to database", zap.String("flavor", string(store.Flavor())))

	metrics.RegisterHTTPMetrics()
	metrics.RegisterEmbeddingMetrics()
	metrics.RegisterPipelineMetrics()

	embedder, embedChecker := buildEmbedder(cfg.Embedding, store, logger)

	indexCfg := domain.DefaultIndexConfig()
	indexCfg.Name = cfg.Search.IndexName
	indexCfg.Prefix = cfg.Search.KeyPrefix
	indexCfg.Algorithm = cfg.Search.Algorithm
	indexCfg.Dimensions = cfg.Embedding.Dimensions
	indexCfg.QueryInstruction = cfg.Embedding.QueryInstruction
	facilities := facilityrepo.New(store, indexCfg)
	if err := facilities.EnsureIndex(ctx); err != nil {
		logger.Fatal("Failed to ensure facility index", zap.Error(err))
	}

	healthOpts := []healthuc.Option{healthuc.WithIndex(facilities)}
	searchOpts := []searchuc.Option{searchuc.WithLogger(logger)}

	if cfg.Rerank.URL != "" {
		rr := rerank.New(rerank.Config{BaseURL: cfg.Rerank.URL, Timeout: config.Millis(cfg.Rerank.TimeoutMs)})
		searchOpts = append(searchOpts, searchuc.WithReranker(rr))
		healthOpts = append(healthOpts, healthuc.WithChecker("rerank", rr))
	}

	var generator domain.Generator
	if cfg.Generation.Mode == config.ModeLive {
		gen := openaiTransport.NewGenerator(&openaiTransport.ChatConfig{
			APIKey:      cfg.Generation.Provider.APIKey,
			BaseURL:     cfg.Generation.Provider.BaseURL,
			Model:       cfg.Generation.Model,
			Temperature: cfg.Generation.Temperature,
			MaxTokens:   cfg.Generation.MaxTokens,
			Timeout:     config.Millis(cfg.Generation.TimeoutMs),
			Logger:      logger,
		})
		generator = gen
		healthOpts = append(healthOpts, healthuc.WithChecker("generation", gen))

		if cfg.Search.MultiQuery {
			expandGen := openaiTransport.NewGenerator(&openaiTransport.ChatConfig{
				APIKey:      cfg.Generation.Provider.APIKey,
				BaseURL:     cfg.Generation.Provider.BaseURL,
				Model:       cfg.Generation.Model,
				Temperature: cfg.Generation.Temperature,
				MaxTokens:   cfg.Generation.MaxTokens,
				Purpose:     openaiTransport.PurposeExpand,
				Timeout:     config.Millis(cfg.Generation.TimeoutMs),
				Logger:      logger,
			})
			searchOpts = append(searchOpts, searchuc.WithExpander(openaiTransport.NewExpander(expandGen)))
		}
	}

	var weatherProvider weatheruc.Provider
	if cfg.Weather.APIKey != "" {
		weatherProvider = kma.New(kma.Config{
			APIKey:     cfg.Weather.APIKey,
			BaseURL:    cfg.Weather.BaseURL,
			Timeout:    config.Millis(cfg.Weather.TimeoutMs),
			RatePerSec: cfg.Weather.RatePerSec,
		})
	}

	sessions := buildSessionStore(cfg.Session, store, logger)

	searchSvc := searchuc.New(facilities, embedder, searchuc.Config{
		CandidateK:          cfg.Search.CandidateK,
		RerankTopK:          cfg.Search.RerankTopK,
		SimilarityThreshold: cfg.Search.SimilarityThreshold,
		MultiQuery:          cfg.Search.MultiQuery,
		NumSubQueries:       cfg.Search.NumSubQueries,
		Diversity:           mode.Diversity(cfg.Search.Diversity),
		MMRLambda:           cfg.Search.MMRLambda,
		Timeout:             config.Millis(cfg.Search.TimeoutMs),
	}, searchOpts...)
	weatherSvc := weatheruc.New(weatherProvider, logger)
	composer := compose.New(generator, logger)
	chatSvc := chatuc.New(
		sessions,
		classify.New(cfg.Session.HistoryWindow),
		searchSvc,
		weatherSvc,
		composer,
		chatuc.Config{TopK: cfg.Search.TopK, TurnTimeout: config.Millis(cfg.Session.TurnTimeoutMs)},
		logger,
	)
	healthSvc := healthuc.New(store, embedChecker, healthOpts...)

	server := chiTransport.NewServer(chatSvc, searchSvc, weatherSvc, healthSvc, logger)
	handler := chiTransport.NewRouter(server, cfg.Auth.APIKeys, logger)

	addr := fmt.Sprintf(":%d", cfg.HTTP.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      handler,
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

// buildEmbedder assembles the decorator chain: provider -> Cached -> Instrumented -> Instruction.
// The second return value is the provider itself, used for health checks.
func buildEmbedder(
	cfg config.EmbeddingConfig,
	store db.Store,
	logger *zap.Logger,
) (domain.Embedder, healthuc.Checker) {
	var (
		base     domain.Embedder
		checker  healthuc.Checker
		provider string
	)
	switch cfg.Mode {
	case config.ModeLive:
		e := openaiTransport.NewEmbedder(&openaiTransport.Config{
			APIKey:            cfg.Provider.APIKey,
			BaseURL:           cfg.Provider.BaseURL,
			Model:             cfg.Model,
			Dimensions:        cfg.Dimensions,
			RequestDimensions: cfg.SendDimensions,
			Timeout:           config.Millis(cfg.TimeoutMs),
			Logger:            logger,
		})
		base, checker, provider = e, e, "openai"
	default:
		e := synthetic.NewHashEmbedder(cfg.Dimensions)
		base, checker, provider = e, e, config.ModeSynthetic
	}

	embedder := base
	if cfg.Cache.Enabled {
		embedder = embcache.New(base, store, cfg.Model, config.Millis(cfg.Cache.TTLMinutes*60*1000),
			metrics.EmbeddingCacheTotal, logger)
	}

	embedder = embeddinguc.NewInstrumentedEmbedder(embedder, provider, cfg.Model, logger)

	// Instruction prefix is outermost so the cache key includes it
	if cfg.QueryInstruction != "" {
		embedder = domain.NewInstructionEmbedder(embedder, cfg.QueryInstruction)
	}

	logger.Info("Embedder created",
		zap.String("provider", provider),
		zap.String("model", cfg.Model),
		zap.Int("dimensions", cfg.Dimensions),
		zap.Bool("cache", cfg.Cache.Enabled),
	)
	return embedder, checker
}

func buildSessionStore(cfg config.SessionConfig, store db.Store, logger *zap.Logger) chatuc.SessionStore {
	ttl := time.Duration(cfg.TTLMinutes) * time.Minute
	if cfg.Backend == config.BackendRedis {
		s, err := sessionrepo.NewRedis(store, cfg.MaxSessions, ttl)
		if err != nil {
			logger.Fatal("Failed to create session store", zap.Error(err))
		}
		return s
	}
	return sessionrepo.NewMemory(cfg.MaxSessions, ttl)
}
