package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Port    string
	GinMode string

	DBDriver string
	DBDSN    string

	RedisAddr       string
	RedisPassword   string
	RedisDB         int
	HistoryCacheTTL time.Duration

	// rabbitMQ
	RabbitURL         string
	RabbitQueue       string
	WorkerConcurrency int
	WorkerMaxAttempts int
	WorkerRetryDelay  time.Duration

	// AI provider
	LLMPrimaryProvider  string
	LLMFallbackProvider string
	LLMCallTimeout      time.Duration
	LLMTotalTimeout     time.Duration
	LLMTemperature      float64
	LLMMaxTokens        int

	OpenAIBaseURL string
	OpenAIAPIKey  string
	OpenAIModel   string

	GeminiBaseURL string
	GeminiAPIKey  string
	GeminiModel   string

	OpenRouterBaseURL string
	OpenRouterAPIKey  string
	OpenRouterModel   string
	OpenRouterSiteURL string
	OpenRouterAppName string

	OllamaBaseURL string
	OllamaModel   string

	CORSOrigins       []string
	RateLimitRequests int
	RateLimitWindow   time.Duration
	AdminJWTSecret    string

	LogLevel string
	LogFile  string
}

var defaults = map[string]any{
	"PORT":     "8000",
	"GIN_MODE": "release",

	"DB_DRIVER": "sqlite",
	"DB_DSN":    "healthcare_symptom_checker.db",

	"REDIS_DB":          0,
	"HISTORY_CACHE_TTL": "10m",

	"RABBIT_QUEUE":        "history_pending",
	"WORKER_CONCURRENCY":  2,
	"WORKER_MAX_ATTEMPTS": 5,
	"WORKER_RETRY_DELAY":  "30s",

	"LLM_PRIMARY_PROVIDER":  "openai",
	"LLM_FALLBACK_PROVIDER": "gemini",
	"LLM_CALL_TIMEOUT":      "25s",
	"LLM_TOTAL_TIMEOUT":     "45s",
	"LLM_TEMPERATURE":       "0.1",
	"LLM_MAX_TOKENS":        1500,

	"OPENAI_BASE_URL":     "https://api.openai.com/v1",
	"OPENAI_MODEL":        "gpt-4o-mini",
	"GEMINI_BASE_URL":     "https://generativelanguage.googleapis.com/v1beta",
	"GEMINI_MODEL":        "gemini-1.5-pro",
	"OPENROUTER_BASE_URL": "https://openrouter.ai/api/v1",
	"OPENROUTER_MODEL":    "openrouter/auto",
	"OLLAMA_BASE_URL":     "http://localhost:11434",
	"OLLAMA_MODEL":        "llama3:latest",

	"CORS_ORIGINS":        "http://localhost:3000,http://127.0.0.1:3000",
	"RATE_LIMIT_REQUESTS": 30,
	"RATE_LIMIT_WINDOW":   "1m",

	"LOG_LEVEL": "info",
}

// Load reads an optional .env file and then the process environment.
func Load() (Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.AutomaticEnv()
	for k, val := range defaults {
		v.SetDefault(k, val)
	}

	cfg := Config{
		Port:    v.GetString("PORT"),
		GinMode: v.GetString("GIN_MODE"),

		DBDriver: strings.ToLower(strings.TrimSpace(v.GetString("DB_DRIVER"))),
		DBDSN:    v.GetString("DB_DSN"),

		RedisAddr:     v.GetString("REDIS_ADDR"),
		RedisPassword: v.GetString("REDIS_PASSWORD"),

		RabbitURL:   v.GetString("RABBIT_URL"),
		RabbitQueue: v.GetString("RABBIT_QUEUE"),

		LLMPrimaryProvider:  strings.ToLower(strings.TrimSpace(v.GetString("LLM_PRIMARY_PROVIDER"))),
		LLMFallbackProvider: strings.ToLower(strings.TrimSpace(v.GetString("LLM_FALLBACK_PROVIDER"))),

		OpenAIBaseURL: v.GetString("OPENAI_BASE_URL"),
		OpenAIAPIKey:  v.GetString("OPENAI_API_KEY"),
		OpenAIModel:   v.GetString("OPENAI_MODEL"),

		GeminiBaseURL: v.GetString("GEMINI_BASE_URL"),
		GeminiAPIKey:  v.GetString("GEMINI_API_KEY"),
		GeminiModel:   v.GetString("GEMINI_MODEL"),

		OpenRouterBaseURL: v.GetString("OPENROUTER_BASE_URL"),
		OpenRouterAPIKey:  v.GetString("OPENROUTER_API_KEY"),
		OpenRouterModel:   v.GetString("OPENROUTER_MODEL"),
		OpenRouterSiteURL: v.GetString("OPENROUTER_SITE_URL"),
		OpenRouterAppName: v.GetString("OPENROUTER_APP_NAME"),

		OllamaBaseURL: v.GetString("OLLAMA_BASE_URL"),
		OllamaModel:   v.GetString("OLLAMA_MODEL"),

		CORSOrigins:    splitList(v.GetString("CORS_ORIGINS")),
		AdminJWTSecret: v.GetString("ADMIN_JWT_SECRET"),

		LogLevel: strings.ToLower(v.GetString("LOG_LEVEL")),
		LogFile:  v.GetString("LOG_FILE"),
	}

	var err error
	if cfg.RedisDB, err = intValue(v, "REDIS_DB"); err != nil {
		return Config{}, err
	}
	if cfg.WorkerConcurrency, err = intValue(v, "WORKER_CONCURRENCY"); err != nil {
		return Config{}, err
	}
	if cfg.WorkerMaxAttempts, err = intValue(v, "WORKER_MAX_ATTEMPTS"); err != nil {
		return Config{}, err
	}
	if cfg.WorkerRetryDelay, err = durationValue(v, "WORKER_RETRY_DELAY"); err != nil {
		return Config{}, err
	}
	if cfg.LLMMaxTokens, err = intValue(v, "LLM_MAX_TOKENS"); err != nil {
		return Config{}, err
	}
	if cfg.RateLimitRequests, err = intValue(v, "RATE_LIMIT_REQUESTS"); err != nil {
		return Config{}, err
	}
	if cfg.HistoryCacheTTL, err = durationValue(v, "HISTORY_CACHE_TTL"); err != nil {
		return Config{}, err
	}
	if cfg.LLMCallTimeout, err = durationValue(v, "LLM_CALL_TIMEOUT"); err != nil {
		return Config{}, err
	}
	if cfg.LLMTotalTimeout, err = durationValue(v, "LLM_TOTAL_TIMEOUT"); err != nil {
		return Config{}, err
	}
	if cfg.RateLimitWindow, err = durationValue(v, "RATE_LIMIT_WINDOW"); err != nil {
		return Config{}, err
	}
	if cfg.LLMTemperature, err = strconv.ParseFloat(strings.TrimSpace(v.GetString("LLM_TEMPERATURE")), 64); err != nil {
		return Config{}, fmt.Errorf("LLM_TEMPERATURE: %w", err)
	}

	if cfg.LLMFallbackProvider == "none" || cfg.LLMFallbackProvider == cfg.LLMPrimaryProvider {
		cfg.LLMFallbackProvider = ""
	}
	if cfg.LLMPrimaryProvider == "" {
		return Config{}, fmt.Errorf("LLM_PRIMARY_PROVIDER is required")
	}
	if cfg.LLMTotalTimeout < cfg.LLMCallTimeout {
		return Config{}, fmt.Errorf("LLM_TOTAL_TIMEOUT (%s) must not be shorter than LLM_CALL_TIMEOUT (%s)", cfg.LLMTotalTimeout, cfg.LLMCallTimeout)
	}
	switch cfg.DBDriver {
	case "sqlite", "mysql", "postgres":
	default:
		return Config{}, fmt.Errorf("unsupported DB_DRIVER=%q", cfg.DBDriver)
	}

	return cfg, nil
}

// ProviderChain returns the configured provider names in attempt order.
func (c Config) ProviderChain() []string {
	chain := []string{c.LLMPrimaryProvider}
	if c.LLMFallbackProvider != "" {
		chain = append(chain, c.LLMFallbackProvider)
	}
	return chain
}

func intValue(v *viper.Viper, key string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(v.GetString(key)))
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return n, nil
}

func durationValue(v *viper.Viper, key string) (time.Duration, error) {
	d, err := time.ParseDuration(strings.TrimSpace(v.GetString(key)))
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("%s: must be positive", key)
	}
	return d, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
