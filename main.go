package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"sjsage522/recruitcrawler/config"
	"sjsage522/recruitcrawler/helpers"
	"sjsage522/recruitcrawler/internal"
	"sjsage522/recruitcrawler/internal/crawler"
	"sjsage522/recruitcrawler/logger"
	"sjsage522/recruitcrawler/services/cache"
	"sjsage522/recruitcrawler/services/publisher"
	"sjsage522/recruitcrawler/services/worker"

	"github.com/joho/godotenv"
)

func main() {
	// Load environment variables
	godotenv.Load()

	// Initialize logger first
	logger.Init()
	log := logger.Default

	// Load and validate configuration
	cfg := config.LoadConfig()
	if err := config.OverlaySources(cfg, cfg.SourcesFile); err != nil {
		log.Fatal().Err(err).Msg("Failed to read sources file")
	}
	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("Invalid configuration")
	}

	log.Info().
		Str("environment", cfg.Environment).
		Strs("sources", cfg.Sources).
		Str("output_dir", cfg.OutputDir).
		Msg("Starting application")

	// Cancel the run on SIGINT/SIGTERM
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	services := initializeServices(ctx, cfg)
	defer services.Cleanup()

	deps := internal.Dependencies{
		Cache:     services.Cache,
		Publisher: services.Publisher,
		Errors:    helpers.NewLogger(cfg.ErrorLogFile),
	}

	crawlers := crawler.CreateCrawlers(cfg, deps)
	if len(crawlers) == 0 {
		log.Fatal().Msg("No crawlers were created")
	}

	w := worker.NewWorker(crawlers, deps.Publisher, deps.Errors)
	log.Info().Str("run_id", w.RunID()).Int("crawler_count", len(crawlers)).Msg("Starting crawl run")

	results, err := w.Run(ctx)
	for _, r := range results {
		ev := log.Info()
		if r.Err != nil {
			ev = log.Error().Err(r.Err)
		}
		ev.Str("crawler", r.Name).Int("records", r.Records).Dur("elapsed", r.Elapsed).Msg("Crawler result")
	}
	if err != nil {
		services.Cleanup()
		log.Error().Err(err).Msg("Run finished with failures")
		os.Exit(1)
	}
	log.Info().Msg("Run finished")
}

// Services holds the optional services of a run
type Services struct {
	Cache     cache.CacheService
	Publisher publisher.Publisher
}

// Cleanup closes the services. It is safe to call more than once.
func (s *Services) Cleanup() {
	if s.Publisher != nil {
		s.Publisher.Close()
		s.Publisher = nil
	}
}

// initializeServices connects the services that are configured. An
// unreachable service is logged and left disabled.
func initializeServices(ctx context.Context, cfg *config.Config) *Services {
	services := &Services{}

	if cfg.MemcacheAddr != "" {
		mc := cache.NewMemcacheService(cfg.MemcacheAddr, "recruitcrawler:")
		if err := mc.Ping(); err != nil {
			logger.LogError("cache", err, "Memcache at %s unreachable, rate limit blocking disabled", cfg.MemcacheAddr)
		} else {
			services.Cache = mc
			logger.Info("Connected to Memcache at %s", cfg.MemcacheAddr)
		}
	}

	if cfg.RedisAddr != "" {
		rp := publisher.NewRedisPublisher(
			cfg.RedisAddr,
			cfg.RedisDB,
			cfg.RedisStream,
			cfg.RedisStreamCount,
			cfg.RedisStreamMaxLength,
		)
		if err := rp.Ping(ctx); err != nil {
			logger.LogError("publisher", err, "Redis at %s unreachable, publishing disabled", cfg.RedisAddr)
			rp.Close()
		} else {
			services.Publisher = rp
			logger.Info("Connected to Redis at %s (DB: %d, Stream: %s)",
				cfg.RedisAddr, cfg.RedisDB, cfg.RedisStream)
		}
	}

	return services
}
