package common

import (
	"os"
	"strconv"
	"time"
)

// Config holds all application configuration
type Config struct {
	LLM   LLMConfig
	Batch BatchConfig
	Dicts DictConfig
}

// LLMConfig holds model-endpoint configuration
type LLMConfig struct {
	BaseURL     string
	APIKey      string
	Model       string
	Temperature float32
	TopP        float32
	MaxTokens   int
	Timeout     time.Duration
}

// BatchConfig holds defaults for the batch engine; CLI flags override these.
type BatchConfig struct {
	Workers       int
	MaxChars      int
	Retries       int
	RetryWait     time.Duration
	Backoff       float64
	ProgressEvery int
}

// DictConfig holds reference-dictionary paths.
type DictConfig struct {
	CountryPath  string
	PathogenPath string
	HostPath     string
}

// LoadConfig loads configuration from environment variables
func LoadConfig() *Config {
	return &Config{
		LLM: LLMConfig{
			BaseURL:     getEnv("LLM_BASE_URL", "http://localhost:8000/v1"),
			APIKey:      getEnv("LLM_API_KEY", ""),
			Model:       getEnv("LLM_MODEL", "Deepseek-V3"),
			Temperature: getEnvAsFloat32("LLM_TEMPERATURE", 0.1),
			TopP:        getEnvAsFloat32("LLM_TOP_P", 0.8),
			MaxTokens:   getEnvAsInt("LLM_MAX_TOKENS", 1024),
			Timeout:     getEnvAsDuration("LLM_TIMEOUT", 120*time.Second),
		},
		Batch: BatchConfig{
			Workers:       getEnvAsInt("BATCH_WORKERS", 2),
			MaxChars:      getEnvAsInt("BATCH_MAX_CHARS", 12000),
			Retries:       getEnvAsInt("BATCH_RETRIES", 1),
			RetryWait:     getEnvAsDuration("BATCH_RETRY_WAIT", 1500*time.Millisecond),
			Backoff:       getEnvAsFloat64("BATCH_BACKOFF", 1.0),
			ProgressEvery: getEnvAsInt("BATCH_PROGRESS_EVERY", 100),
		},
		Dicts: DictConfig{
			CountryPath:  getEnv("DICT_COUNTRY_PATH", "dicts/dict_country_global_all.xlsx"),
			PathogenPath: getEnv("DICT_PATHOGEN_PATH", "dicts/dict_pathogen_feature.xlsx"),
			HostPath:     getEnv("DICT_HOST_PATH", "dicts/dict_host_tag.xlsx"),
		},
	}
}

// Helper functions for environment variable parsing
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsFloat32(key string, defaultValue float32) float32 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 32); err == nil {
			return float32(floatVal)
		}
	}
	return defaultValue
}

func getEnvAsFloat64(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 64); err == nil {
			return floatVal
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

// Validate validates the loaded configuration
func (c *Config) Validate() error {
	if c.LLM.BaseURL == "" {
		return NewAppError("CONFIG_ERROR", "LLM_BASE_URL is required", ErrInvalidInput)
	}
	if c.Batch.Workers < 1 {
		return NewAppError("CONFIG_ERROR", "BATCH_WORKERS must be at least 1", ErrInvalidInput)
	}
	if c.Batch.Retries < 0 {
		return NewAppError("CONFIG_ERROR", "BATCH_RETRIES must not be negative", ErrInvalidInput)
	}
	return nil
}
