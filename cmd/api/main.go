package main

import (
	"context"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"levelforge/internal/dispatch"
	"levelforge/internal/generator"
	"levelforge/internal/guard"
	"levelforge/internal/http/handlers"
	"levelforge/internal/http/httpapi"
	"levelforge/internal/infra"
	"levelforge/internal/infra/geoip"
	"levelforge/internal/middleware"
	"levelforge/internal/orchestrator"
	"levelforge/internal/ratelimit"
	"levelforge/internal/statuscache"
)

func main() {
	_ = godotenv.Load()

	cfg, err := infra.LoadConfig()
	if err != nil {
		panic(err)
	}
	logger := infra.NewLogger(cfg.AppEnv)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Optional client-country resolution for request logs.
	resolver, err := geoip.NewResolver(cfg.GeoIPDBPath)
	if err != nil {
		logger.Warn().Err(err).Msg("geoip disabled")
	}
	var lookup middleware.CountryLookup
	if resolver != nil {
		lookup = resolver.CountryCode
	}

	g := guard.New(cfg.MaxTextLength, cfg.MaxConfigBytes, cfg.MaxJSONDepth, cfg.GuardDenylist)

	limiter := ratelimit.New(cfg.RateLimitWindow, map[ratelimit.Class]int{
		ratelimit.ClassGenerate: cfg.RateLimitGenerate,
		ratelimit.ClassRead:     cfg.RateLimitRead,
	})
	limiter.StartJanitor(ctx, cfg.RateLimitWindow)

	cache := statuscache.New(statuscache.Config{
		SingleTTL:  cfg.JobTTL,
		BatchTTL:   cfg.BatchJobTTL,
		SlidingTTL: cfg.CacheSliding,
		MaxEntries: cfg.CacheMaxSize,
	})
	cache.StartSweeper(ctx, cfg.CacheSweep, logger)

	gen := generator.NewStatic()

	orch := orchestrator.New(orchestrator.Config{
		PoolSize: cfg.WorkerPoolSize,
		Limits: orchestrator.Limits{
			MaxTotalLevels:        cfg.MaxBatchLevels,
			MaxValuesPerVariation: cfg.MaxValuesPerVariation,
			MaxVariations:         cfg.MaxVariations,
		},
	}, cache, gen, logger)
	orch.Start(ctx)

	router := dispatch.New(dispatch.Thresholds{
		Tiles:      cfg.AsyncTileThreshold,
		Entities:   cfg.AsyncEntityThreshold,
		Parameters: cfg.AsyncParamThreshold,
	})

	app := handlers.NewApp(g, router, orch, cache, gen, logger, cfg.DefaultLocale)
	handler := httpapi.NewRouter(app, limiter, cfg, lookup)

	server := infra.NewHTTPServer(cfg, handler)

	go func() {
		logger.Info().Msgf("API listening on :%s", cfg.Port)
		if err := server.Start(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("http server failed")
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTPIdleTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("failed to shutdown server")
	}
	if closer, ok := resolver.(io.Closer); ok {
		_ = closer.Close()
	}
	logger.Info().Msg("server stopped")
}
