package config

import (
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

type Config struct {
	Server struct {
		Port         string
		ReadTimeout  time.Duration
		WriteTimeout time.Duration
		BodyLimit    int
		LogLevel     string
	}

	Providers struct {
		KMAAPIKey       string
		KMABaseURL      string
		PlantIDAPIKey   string
		PlantIDURL      string
		NongsaroAPIKey  string
		NongsaroBaseURL string
		SmartfarmAPIKey string
		GeolocationURL  string
		TranslateURL    string
	}

	// Timeouts bound each provider call: a short connect phase, then a
	// provider-specific read phase.
	Timeouts struct {
		Connect     time.Duration
		Weather     time.Duration
		PlantID     time.Duration
		Nongsaro    time.Duration
		Smartfarm   time.Duration
		Geolocation time.Duration
		Translate   time.Duration
		Reasoning   time.Duration
	}

	Reasoning struct {
		Provider      string // openai | gemini
		OpenAIAPIKey  string
		OpenAIBaseURL string
		OpenAIModel   string
		GeminiAPIKey  string
		GeminiBaseURL string
		GeminiModel   string
	}

	Cache struct {
		CategoryTTL time.Duration
		LocationTTL time.Duration
	}

	CircuitBreaker struct {
		Threshold int
		Timeout   time.Duration
	}

	Scheduler struct {
		CategoryRefreshSpec string
		SessionSweepSpec    string
	}

	Session struct {
		TTL time.Duration
	}

	Defaults struct {
		Latitude         float64
		Longitude        float64
		Weather          bool
		PlantDiagnosis   bool
		VarietyReference bool
		Telemetry        bool
	}

	Synonyms struct {
		Path string
	}
}

func LoadConfig() (*Config, error) {
	// Load .env file if exists
	if err := godotenv.Load(); err != nil {
		zap.L().Info("No .env file found, using environment variables")
	}

	cfg := &Config{}

	// Server configuration
	cfg.Server.Port = getEnv("FIBER_PORT", "8080")
	cfg.Server.ReadTimeout = parseDuration(getEnv("FIBER_READ_TIMEOUT", "10s"))
	cfg.Server.WriteTimeout = parseDuration(getEnv("FIBER_WRITE_TIMEOUT", "90s"))
	cfg.Server.BodyLimit = parseInt(getEnv("FIBER_BODY_LIMIT", "16777216"))
	cfg.Server.LogLevel = getEnv("LOG_LEVEL", "info")

	// Provider credentials and endpoints
	cfg.Providers.KMAAPIKey = getSecret("KMA_API_KEY")
	cfg.Providers.KMABaseURL = getEnv("KMA_BASE_URL", "")
	cfg.Providers.PlantIDAPIKey = getSecret("PLANT_ID_API_KEY")
	cfg.Providers.PlantIDURL = getEnv("PLANT_ID_URL", "")
	cfg.Providers.NongsaroAPIKey = getSecret("NONGSARO_API_KEY")
	cfg.Providers.NongsaroBaseURL = getEnv("NONGSARO_BASE_URL", "")
	cfg.Providers.SmartfarmAPIKey = getSecret("SMARTFARM_KOREA_API_KEY")
	cfg.Providers.GeolocationURL = getEnv("GEOLOCATION_URL", "")
	cfg.Providers.TranslateURL = getEnv("TRANSLATE_URL", "")

	// Timeouts
	cfg.Timeouts.Connect = parseDuration(getEnv("CONNECT_TIMEOUT", "5s"))
	cfg.Timeouts.Weather = parseDuration(getEnv("KMA_READ_TIMEOUT", "15s"))
	cfg.Timeouts.PlantID = parseDuration(getEnv("PLANT_ID_READ_TIMEOUT", "30s"))
	cfg.Timeouts.Nongsaro = parseDuration(getEnv("NONGSARO_READ_TIMEOUT", "15s"))
	cfg.Timeouts.Smartfarm = parseDuration(getEnv("SMARTFARM_READ_TIMEOUT", "15s"))
	cfg.Timeouts.Geolocation = parseDuration(getEnv("GEOLOCATION_TIMEOUT", "5s"))
	cfg.Timeouts.Translate = parseDuration(getEnv("TRANSLATE_TIMEOUT", "5s"))
	cfg.Timeouts.Reasoning = parseDuration(getEnv("REASONING_TIMEOUT", "60s"))

	// Reasoning backend
	cfg.Reasoning.Provider = strings.ToLower(getEnv("REASONING_PROVIDER", "openai"))
	cfg.Reasoning.OpenAIAPIKey = getSecret("OPENAI_API_KEY")
	cfg.Reasoning.OpenAIBaseURL = getEnv("OPENAI_BASE_URL", "")
	cfg.Reasoning.OpenAIModel = getEnv("OPENAI_MODEL", "gpt-5-mini")
	cfg.Reasoning.GeminiAPIKey = getSecret("GEMINI_API_KEY")
	cfg.Reasoning.GeminiBaseURL = getEnv("GEMINI_BASE_URL", "")
	cfg.Reasoning.GeminiModel = getEnv("GEMINI_MODEL", "")

	// Cache configuration
	cfg.Cache.CategoryTTL = parseDuration(getEnv("CATEGORY_CACHE_TTL", "168h"))
	cfg.Cache.LocationTTL = parseDuration(getEnv("LOCATION_CACHE_TTL", "24h"))

	// Circuit breaker configuration
	cfg.CircuitBreaker.Threshold = parseInt(getEnv("CIRCUIT_BREAKER_THRESHOLD", "5"))
	cfg.CircuitBreaker.Timeout = parseDuration(getEnv("CIRCUIT_BREAKER_TIMEOUT", "30s"))

	// Scheduler configuration
	cfg.Scheduler.CategoryRefreshSpec = getEnv("CATEGORY_REFRESH_SPEC", "@every 6h")
	cfg.Scheduler.SessionSweepSpec = getEnv("SESSION_SWEEP_SPEC", "@every 10m")

	cfg.Session.TTL = parseDuration(getEnv("SESSION_TTL", "2h"))

	// Defaults: Cheongju, with weather and variety reference on
	cfg.Defaults.Latitude = parseFloat(getEnv("DEFAULT_LATITUDE", "36.628956"))
	cfg.Defaults.Longitude = parseFloat(getEnv("DEFAULT_LONGITUDE", "127.462127"))
	cfg.Defaults.Weather = parseBool(getEnv("DEFAULT_USE_WEATHER", "true"))
	cfg.Defaults.PlantDiagnosis = parseBool(getEnv("DEFAULT_USE_PLANT_ID", "true"))
	cfg.Defaults.VarietyReference = parseBool(getEnv("DEFAULT_USE_NONGSARO", "true"))
	cfg.Defaults.Telemetry = parseBool(getEnv("DEFAULT_USE_SMARTFARM", "false"))

	cfg.Synonyms.Path = getEnv("SYNONYM_TABLE_PATH", "")

	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getSecret reads a credential. data.go.kr distributes URL-encoded service keys,
// so values containing '%' are unescaped once.
func getSecret(key string) string {
	value := strings.TrimSpace(os.Getenv(key))
	if strings.Contains(value, "%") {
		decoded, err := url.QueryUnescape(value)
		if err != nil {
			zap.L().Warn("Failed to unescape secret", zap.String("key", key), zap.Error(err))
			return value
		}
		return decoded
	}
	return value
}

func parseDuration(value string) time.Duration {
	duration, err := time.ParseDuration(value)
	if err != nil {
		zap.L().Warn("Failed to parse duration", zap.String("value", value), zap.Error(err))
		return 0
	}
	return duration
}

func parseInt(value string) int {
	intValue, err := strconv.Atoi(value)
	if err != nil {
		zap.L().Warn("Failed to parse int", zap.String("value", value), zap.Error(err))
		return 0
	}
	return intValue
}

func parseFloat(value string) float64 {
	floatValue, err := strconv.ParseFloat(value, 64)
	if err != nil {
		zap.L().Warn("Failed to parse float", zap.String("value", value), zap.Error(err))
		return 0
	}
	return floatValue
}

func parseBool(value string) bool {
	boolValue, err := strconv.ParseBool(value)
	if err != nil {
		zap.L().Warn("Failed to parse bool", zap.String("value", value), zap.Error(err))
		return false
	}
	return boolValue
}
