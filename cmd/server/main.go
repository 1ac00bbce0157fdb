package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/bobby-s-dev/agri-copilot/internal/api"
	"github.com/bobby-s-dev/agri-copilot/internal/config"
	"github.com/bobby-s-dev/agri-copilot/internal/models"
	"github.com/bobby-s-dev/agri-copilot/internal/scheduler"
	"github.com/bobby-s-dev/agri-copilot/internal/services"
	"github.com/bobby-s-dev/agri-copilot/internal/synonyms"
	"github.com/bobby-s-dev/agri-copilot/pkg/client"
)

func newLogger(level string) *zap.Logger {
	cfg := zap.NewProductionConfig()
	if lvl, err := zapcore.ParseLevel(level); err == nil {
		cfg.Level = zap.NewAtomicLevelAt(lvl)
	}
	logger, err := cfg.Build()
	if err != nil {
		logger, _ = zap.NewProduction()
	}
	return logger
}

func newBackend(ctx context.Context, cfg *config.Config, clientCfg client.ClientConfig, logger *zap.Logger) services.ReasoningBackend {
	switch cfg.Reasoning.Provider {
	case "gemini":
		backend, err := client.NewGeminiBackend(ctx, cfg.Reasoning.GeminiAPIKey, cfg.Reasoning.GeminiBaseURL, cfg.Reasoning.GeminiModel,
			cfg.Timeouts.Reasoning, logger)
		if err != nil {
			logger.Error("Gemini backend unavailable, answers will use the fallback text", zap.Error(err))
			return nil
		}
		return backend
	default:
		return client.NewOpenAIBackend(cfg.Reasoning.OpenAIAPIKey, cfg.Reasoning.OpenAIBaseURL, cfg.Reasoning.OpenAIModel,
			clientCfg.WithReadTimeout(cfg.Timeouts.Reasoning), logger)
	}
}

func newApp(cfg *config.Config) *fiber.App {
	return fiber.New(fiber.Config{
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		BodyLimit:    cfg.Server.BodyLimit,
		ErrorHandler: api.ErrorHandler,
	})
}

func main() {
	// Load configuration before the logger so LOG_LEVEL applies
	cfg, err := config.LoadConfig()
	if err != nil {
		zap.L().Fatal("Failed to load configuration", zap.Error(err))
	}

	logger := newLogger(cfg.Server.LogLevel)
	defer logger.Sync()

	zap.ReplaceGlobals(logger)
	logger.Info("Starting agri copilot service")

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	clientCfg := client.ClientConfig{
		ConnectTimeout: cfg.Timeouts.Connect,
		Threshold:      cfg.CircuitBreaker.Threshold,
		BreakerTimeout: cfg.CircuitBreaker.Timeout,
	}

	// Provider clients
	weatherCfg := clientCfg.WithReadTimeout(cfg.Timeouts.Weather)
	weatherNow := client.NewKMANowProvider(cfg.Providers.KMAAPIKey, cfg.Providers.KMABaseURL, weatherCfg, logger)
	weatherForecast := client.NewKMAForecastProvider(cfg.Providers.KMAAPIKey, cfg.Providers.KMABaseURL, weatherCfg, logger)
	plantID := client.NewPlantIDClient(cfg.Providers.PlantIDAPIKey, cfg.Providers.PlantIDURL, clientCfg.WithReadTimeout(cfg.Timeouts.PlantID), logger)
	nongsaro := client.NewNongsaroClient(cfg.Providers.NongsaroAPIKey, cfg.Providers.NongsaroBaseURL, clientCfg.WithReadTimeout(cfg.Timeouts.Nongsaro), logger)
	telemetry := client.NewTelemetryClient(cfg.Providers.SmartfarmAPIKey, clientCfg.WithReadTimeout(cfg.Timeouts.Smartfarm), logger)
	geolocation := client.NewGeolocationClient(cfg.Providers.GeolocationURL, clientCfg.WithReadTimeout(cfg.Timeouts.Geolocation), logger)
	translator := client.NewTranslator(cfg.Providers.TranslateURL, clientCfg.WithReadTimeout(cfg.Timeouts.Translate), logger)

	// Synonym table
	table := synonyms.NewTable(synonyms.DefaultRules())
	if path := cfg.Synonyms.Path; path != "" {
		rules, err := synonyms.Load(path)
		if err != nil {
			logger.Fatal("Failed to load synonym table", zap.String("path", path), zap.Error(err))
		}
		table.Replace(rules)
		if _, err := table.Watch(ctx, path, logger); err != nil {
			logger.Warn("Synonym table will not reload", zap.String("path", path), zap.Error(err))
		}
		logger.Info("Synonym table loaded", zap.String("path", path), zap.Int("rules", len(rules)))
	}

	resolver := services.NewCategorySearchResolver(nongsaro, translator, table, logger)
	aggregator := services.NewContextAggregator(services.Providers{
		WeatherNow:      weatherNow,
		WeatherForecast: weatherForecast,
		Diagnosis:       plantID,
		Variety:         resolver,
		Telemetry:       telemetry,
	}, logger)

	backend := newBackend(ctx, cfg, clientCfg, logger)
	assistant := services.NewAssistant(aggregator, backend, logger)

	categories := services.NewCategoryService(nongsaro, cfg.Cache.CategoryTTL, logger)
	location := services.NewLocationService(geolocation, models.GeoCoordinate{
		Latitude:  cfg.Defaults.Latitude,
		Longitude: cfg.Defaults.Longitude,
	}, cfg.Cache.LocationTTL, logger)
	sessions := services.NewSessionStore(cfg.Session.TTL, logger)

	// Maintenance jobs
	jobs := scheduler.NewScheduler(logger)
	if err := jobs.Register("category-refresh", cfg.Scheduler.CategoryRefreshSpec, cfg.Timeouts.Nongsaro*4, categories.Refresh); err != nil {
		logger.Fatal("Failed to register job", zap.Error(err))
	}
	if err := jobs.Register("session-sweep", cfg.Scheduler.SessionSweepSpec, 0, func(context.Context) error {
		sessions.Sweep()
		return nil
	}); err != nil {
		logger.Fatal("Failed to register job", zap.Error(err))
	}

	app := newApp(cfg)

	handler := api.NewHandler(api.HandlerDeps{
		Assistant:  assistant,
		Aggregator: aggregator,
		Sessions:   sessions,
		Categories: categories,
		Location:   location,
		Scheduler:  jobs,
		Breakers:   []api.BreakerReporter{weatherNow, weatherForecast, plantID, nongsaro, telemetry, geolocation, translator},
		Defaults: api.ToolDefaults{
			Weather:          cfg.Defaults.Weather,
			PlantDiagnosis:   cfg.Defaults.PlantDiagnosis,
			VarietyReference: cfg.Defaults.VarietyReference,
			Telemetry:        cfg.Defaults.Telemetry,
		},
	}, logger)
	api.SetupRoutes(app, handler, logger)

	jobs.Start()

	go func() {
		addr := ":" + cfg.Server.Port
		logger.Info("Starting server", zap.String("address", addr))

		if err := app.Listen(addr); err != nil {
			logger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		logger.Error("Server shutdown failed", zap.Error(err))
	}

	jobs.Stop()
	categories.Stop()
	location.Stop()
	stop()

	logger.Info("Server stopped")
}
