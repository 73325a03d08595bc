package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"sjsage522/rentcalc/config"
	"sjsage522/rentcalc/helpers"
	"sjsage522/rentcalc/internal/api"
	"sjsage522/rentcalc/internal/api/handlers"
	"sjsage522/rentcalc/internal/estimator"
	"sjsage522/rentcalc/internal/listing"
	"sjsage522/rentcalc/logger"
	apperrors "sjsage522/rentcalc/pkg/errors"
	"sjsage522/rentcalc/services/analysis"
	"sjsage522/rentcalc/services/cache"
	"sjsage522/rentcalc/services/publisher"

	"github.com/joho/godotenv"
)

const shutdownTimeout = 10 * time.Second

func main() {
	// Load environment variables
	godotenv.Load()

	// Initialize logger first
	logger.Init()
	log := logger.Default

	// Load and validate configuration
	cfg := config.LoadConfig()
	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(apperrors.NewConfiguration("invalid configuration", err)).Msg("Invalid configuration")
	}

	log.Info().
		Str("environment", cfg.Environment).
		Str("port", cfg.Port).
		Bool("publishing", cfg.PublishingEnabled()).
		Msg("Starting application")

	// Set up context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Set up signal handling
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	// Initialize services
	services, err := initializeServices(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize services")
	}
	defer services.Cleanup()

	tables, err := loadTables(cfg.RatesFile)
	if err != nil {
		log.Fatal().Err(err).Str("file", cfg.RatesFile).Msg("Failed to load rate tables")
	}

	registry := listing.DefaultRegistry()
	fetcher := helpers.NewFetcher(helpers.NewHTTPClient(cfg.FetchTimeout), services.Cache, cfg.RateLimitBlock)
	analyzer := analysis.NewAnalyzer(registry, fetcher, estimator.New(tables), services.Publisher)

	router := api.NewRouter(handlers.NewPropertyHandler(analyzer, registry), api.Options{
		AllowedOrigin:     cfg.AllowedOrigin,
		RequestsPerSecond: cfg.RequestsPerSecond,
		RequestBurst:      cfg.RequestBurst,
	})

	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	if cfg.PublishingEnabled() {
		go analyzer.StartTrimming(ctx, cfg.StreamTrimInterval)
	}

	// Start server in a goroutine
	serverDone := make(chan error, 1)
	go func() {
		log.Info().Str("addr", server.Addr).Msg("Server listening")
		serverDone <- server.ListenAndServe()
	}()

	// Wait for shutdown signal or server error
	select {
	case sig := <-sigChan:
		log.Info().
			Str("signal", sig.String()).
			Msg("Received shutdown signal")
	case err := <-serverDone:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("Server exited with error")
		}
	}

	// Graceful shutdown
	log.Info().Msg("Shutting down gracefully...")
	if err := shutdown(server, cancel, shutdownTimeout); err != nil {
		log.Error().Err(err).Msg("Server shutdown failed")
	}
}

// shutdown drains in-flight requests before cancelling the service context,
// which the Redis publisher shares
func shutdown(server *http.Server, cancel context.CancelFunc, timeout time.Duration) error {
	defer cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), timeout)
	defer shutdownCancel()
	return server.Shutdown(shutdownCtx)
}

// Services holds all the initialized services
type Services struct {
	Cache     cache.CacheService
	Publisher publisher.Publisher
}

// Cleanup cleans up all services
func (s *Services) Cleanup() {
	if s.Publisher != nil {
		s.Publisher.Close()
	}
}

// initializeServices initializes the cache and the publisher. Memcache and Redis are
// optional; without them an in-process cache is used and publishing is disabled.
func initializeServices(ctx context.Context, cfg *config.Config) (*Services, error) {
	services := &Services{}

	if cfg.MemcacheAddr != "" {
		memcacheService := cache.NewMemcacheService(cfg.MemcacheAddr)
		if err := memcacheService.Ping(); err != nil {
			return nil, apperrors.NewCache("failed to connect to memcache at "+cfg.MemcacheAddr, err)
		}
		services.Cache = memcacheService
		logger.ForCache().Info().Str("addr", cfg.MemcacheAddr).Msg("Connected to Memcache")
	} else {
		services.Cache = cache.NewMemoryService(time.Minute)
		logger.ForCache().Info().Msg("MEMCACHE_ADDR not set, using in-memory cache")
	}

	if cfg.PublishingEnabled() {
		redisPublisher := publisher.NewRedisPublisher(
			ctx,
			cfg.RedisAddr,
			cfg.RedisDB,
			cfg.RedisStream,
			cfg.RedisStreamCount,
			cfg.RedisStreamMaxLength,
		)
		if err := redisPublisher.Ping(); err != nil {
			redisPublisher.Close()
			return nil, apperrors.NewPublisher("failed to connect to redis at "+cfg.RedisAddr, err)
		}
		services.Publisher = redisPublisher
		logger.ForPublisher().Info().
			Str("addr", cfg.RedisAddr).
			Int("db", cfg.RedisDB).
			Str("stream", cfg.RedisStream).
			Msg("Connected to Redis")
	} else {
		services.Publisher = publisher.NoopPublisher{}
		logger.Info("REDIS_ADDR not set, estimate events are not published")
	}

	return services, nil
}

// loadTables returns the rate tables from path, or the built-in tables when path is empty
func loadTables(path string) (estimator.Tables, error) {
	if path == "" {
		return estimator.DefaultTables(), nil
	}
	return estimator.LoadTablesFile(path)
}
