package infra

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config represents application configuration loaded from environment variables.
type Config struct {
	AppEnv           string
	Port             string
	DatabaseURL      string
	RedisAddr        string
	RedisPassword    string
	QueueKey         string
	StoragePath      string
	StorageBaseURL   string
	SynthesisAPIKey  string
	SynthesisModel   string
	SynthesisBaseURL string
	AnalysisAPIKey   string
	AnalysisModel    string
	AnalysisBaseURL  string
	BatchSize        int
	HTTPReadTimeout  time.Duration
	HTTPWriteTimeout time.Duration
	HTTPIdleTimeout  time.Duration
	RateLimitPerMin  int
}

// LoadConfig loads configuration from environment variables and applies defaults where needed.
func LoadConfig() (*Config, error) {
	cfg := &Config{
		AppEnv:           getEnv("APP_ENV", "development"),
		Port:             getEnv("PORT", "8080"),
		DatabaseURL:      os.Getenv("DATABASE_URL"),
		RedisAddr:        getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword:    os.Getenv("REDIS_PASSWORD"),
		QueueKey:         getEnv("QUEUE_KEY", ""),
		StoragePath:      getEnv("STORAGE_PATH", "./data/storage"),
		StorageBaseURL:   getEnv("STORAGE_BASE_URL", "http://localhost:8080/static"),
		SynthesisAPIKey:  os.Getenv("SYNTHESIS_API_KEY"),
		SynthesisModel:   getEnv("SYNTHESIS_MODEL", "photoshoot-xl"),
		SynthesisBaseURL: getEnv("SYNTHESIS_BASE_URL", "https://api.synthesis.example.com"),
		AnalysisAPIKey:   os.Getenv("ANALYSIS_API_KEY"),
		AnalysisModel:    getEnv("ANALYSIS_MODEL", "vision-check-1"),
		AnalysisBaseURL:  getEnv("ANALYSIS_BASE_URL", "https://api.analysis.example.com"),
		BatchSize:        getEnvInt("GENERATION_BATCH_SIZE", 30),
		HTTPReadTimeout:  time.Second * time.Duration(getEnvInt("HTTP_READ_TIMEOUT_SECONDS", 15)),
		HTTPWriteTimeout: time.Second * time.Duration(getEnvInt("HTTP_WRITE_TIMEOUT_SECONDS", 30)),
		HTTPIdleTimeout:  time.Second * time.Duration(getEnvInt("HTTP_IDLE_TIMEOUT_SECONDS", 60)),
		RateLimitPerMin:  getEnvInt("RATE_LIMIT_PER_MINUTE", 30),
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	if cfg.SynthesisAPIKey == "" {
		return nil, fmt.Errorf("SYNTHESIS_API_KEY is required")
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}
