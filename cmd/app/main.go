package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"foodvision/internal/config"
	"foodvision/internal/domain/ports/adapter"
	"foodvision/internal/domain/ports/repository"
	aiAdapters "foodvision/internal/infra/adapters/ai"
	"foodvision/internal/infra/adapters/nutrition"
	"foodvision/internal/infra/adapters/segment"
	pg "foodvision/internal/infra/db/postgres"
	"foodvision/internal/infra/db/sqlite"
	"foodvision/internal/infra/logging"
	"foodvision/internal/infra/metrics"
	red "foodvision/internal/infra/redis"
	"foodvision/internal/infra/web"
	"foodvision/internal/infra/worker"
	"foodvision/internal/jobs"
	"foodvision/internal/usecase"
)

var (
	version = "dev"
	commit  = "none"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ---- CLI flags ----
	cfgPath := flag.String("config", "config.yaml", "path to YAML config file")
	devMode := flag.Bool("dev", false, "enable developer mode (console logging, noop vision)")
	flag.Parse()

	cfg, err := config.LoadConfig(*cfgPath, *devMode)
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger := logging.New(cfg.Log, cfg.Runtime.Dev)
	metrics.MustRegister()
	metrics.SetBuildInfo(version, commit)

	// ---- Storage ----
	var foodCache repository.FoodCacheRepository
	var meals repository.MealRepository
	switch cfg.Database.Driver {
	case "postgres":
		pool, err := pg.Connect(ctx, cfg.Database.URL)
		if err != nil {
			logger.Fatal().Err(err).Msg("postgres connect failed")
		}
		defer pool.Close()
		foodCache = pg.NewFoodCacheRepo(pool)
		meals = pg.NewMealRepo(pool)
	case "sqlite":
		db, err := sqlite.Open(ctx, cfg.Database.Path)
		if err != nil {
			logger.Fatal().Err(err).Msg("sqlite open failed")
		}
		defer db.Close()
		foodCache = sqlite.NewFoodCacheRepo(db)
		meals = sqlite.NewMealRepo(db)
	default:
		logger.Fatal().Str("driver", cfg.Database.Driver).Msg("unknown database driver")
	}

	// ---- Redis hot cache (optional) ----
	if cfg.Redis.URL != "" {
		redisClient, err := red.NewClient(ctx, &cfg.Redis)
		if err != nil {
			logger.Fatal().Err(err).Msg("redis connect failed")
		}
		defer redisClient.Close()
		foodCache = red.NewFoodCacheDecorator(foodCache, redisClient, cfg.Redis.TTL, logger)
		logger.Info().Str("addr", cfg.Redis.URL).Msg("redis food cache enabled")
	}

	// ---- Vision adapter (OpenRouter -> Gemini -> noop) ----
	var vision adapter.VisionLabeler
	switch {
	case cfg.Runtime.Dev:
		vision = aiAdapters.NewNoopVisionAdapter()
		logger.Warn().Msg("vision adapter: noop (dev mode)")
	case cfg.Vision.OpenRouterKey != "":
		vision, err = aiAdapters.NewOpenRouterAdapter(cfg.Vision.OpenRouterKey, cfg.Vision.OpenRouterBaseURL, cfg.Vision.FastModel)
		if err != nil {
			logger.Fatal().Err(err).Msg("openrouter adapter failed")
		}
		logger.Info().Str("base", cfg.Vision.OpenRouterBaseURL).Str("model", cfg.Vision.FastModel).Msg("vision adapter: OpenRouter")
	case cfg.Vision.GeminiKey != "":
		vision, err = aiAdapters.NewGeminiAdapter(ctx, cfg.Vision.GeminiKey, cfg.Vision.GeminiURL, cfg.Vision.FastModel)
		if err != nil {
			logger.Fatal().Err(err).Msg("gemini adapter failed")
		}
		logger.Info().Str("model", cfg.Vision.FastModel).Msg("vision adapter: Gemini")
	default:
		logger.Fatal().Msgf("no vision provider configured: set vision.openrouter_key or vision.gemini_key in %s", *cfgPath)
	}

	// ---- Segmenter (optional; absence disables deep scan) ----
	var segmenter adapter.Segmenter
	if cfg.Segmenter.URL != "" {
		seg, err := segment.NewClient(cfg.Segmenter.URL, cfg.Segmenter.Timeout, logger)
		if err != nil {
			logger.Fatal().Err(err).Msg("segmenter client failed")
		}
		segmenter = seg
		logger.Info().Str("url", cfg.Segmenter.URL).Msg("deep scan enabled")
	} else {
		logger.Warn().Msg("segmenter.url not set; deep scan disabled")
	}

	// ---- Crop worker pool ----
	crops := worker.NewPool(cfg.Jobs.CropWorkers)
	crops.Start(ctx)
	defer crops.Stop()

	// ---- Job registry ----
	registry := jobs.NewRegistry(cfg.Jobs.Retention, logger)
	go registry.Sweep(ctx, cfg.Jobs.SweepInterval)

	// ---- Use cases ----
	usda := nutrition.NewUSDAClient(cfg.Nutrition.USDAKey, cfg.Nutrition.BaseURL)
	nutritionUC := usecase.NewNutritionUseCase(foodCache, usda, logger)
	mealUC := usecase.NewMealUseCase(meals, nutritionUC, logger)
	models := adapter.ModelHints{Fast: cfg.Vision.FastModel, Deep: cfg.Vision.DeepModel}
	pipelineUC := usecase.NewPipelineUseCase(vision, segmenter, nutritionUC, crops, models, logger)
	scanUC := usecase.NewScanUseCase(registry, pipelineUC, mealUC, logger)

	// ---- HTTP server ----
	srv := web.NewServer(cfg, scanUC, mealUC, segmenter != nil, logger)
	go func() {
		if err := srv.Start(); err != nil && err != http.ErrServerClosed {
			logger.Error().Err(err).Msg("http server stopped")
		}
	}()

	// ---- Graceful shutdown ----
	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)
	<-sigc
	logger.Info().Msg("shutdown requested")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("http shutdown failed")
	}
	cancel()
}
