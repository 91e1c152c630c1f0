package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	// Server
	Port string
	Env  string

	// Ollama
	OllamaBaseURL        string
	DefaultModel         string
	ModelConfigPath      string
	ProbeTimeout         time.Duration
	GenerateTimeout      time.Duration
	OllamaConcurrentReqs int

	// Redis (optional: jobs and chat history are disabled without it)
	RedisURL    string
	WorkerCount int

	// HTTP
	FrontendURL        string
	RateLimitPerMinute int

	// Logging
	LogLevel  string
	LogFormat string
	LogOutput string
	LogFile   string
}

func Load() *Config {
	// Load .env file if it exists
	godotenv.Load()

	cfg := &Config{
		Port:                 getEnvOrDefault("PORT", "8080"),
		Env:                  getEnvOrDefault("ENV", "development"),
		OllamaBaseURL:        getEnvOrDefault("OLLAMA_BASE_URL", "http://localhost:11434"),
		DefaultModel:         getEnvOrDefault("OLLAMA_DEFAULT_MODEL", "glm-4.7:cloud"),
		ModelConfigPath:      getEnvOrDefault("MODEL_CONFIG_PATH", "app_config.json"),
		ProbeTimeout:         getEnvAsDurationOrDefault("OLLAMA_PROBE_TIMEOUT", 5*time.Second),
		GenerateTimeout:      getEnvAsDurationOrDefault("OLLAMA_GENERATE_TIMEOUT", 10*time.Minute),
		OllamaConcurrentReqs: getEnvAsIntOrDefault("OLLAMA_CONCURRENT_REQUESTS", 2),
		RedisURL:             getEnvOrDefault("REDIS_URL", ""),
		WorkerCount:          getEnvAsIntOrDefault("WORKER_COUNT", 2),
		FrontendURL:          getEnvOrDefault("FRONTEND_URL", "http://localhost:5173"),
		RateLimitPerMinute:   getEnvAsIntOrDefault("RATE_LIMIT_PER_MINUTE", 60),
		LogLevel:             getEnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:            getEnvOrDefault("LOG_FORMAT", "console"),
		LogOutput:            getEnvOrDefault("LOG_OUTPUT", "console"),
		LogFile:              getEnvOrDefault("LOG_FILE", "logs/studymate.log"),
	}

	return cfg
}

// Validate reports the first setting that would make the server unusable.
func (c *Config) Validate() error {
	u, err := url.Parse(c.OllamaBaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("OLLAMA_BASE_URL must be an http(s) URL, got %q", c.OllamaBaseURL)
	}
	if c.DefaultModel == "" {
		return fmt.Errorf("OLLAMA_DEFAULT_MODEL must not be empty")
	}
	if c.OllamaConcurrentReqs <= 0 {
		return fmt.Errorf("OLLAMA_CONCURRENT_REQUESTS must be positive, got %d", c.OllamaConcurrentReqs)
	}
	if c.WorkerCount <= 0 {
		return fmt.Errorf("WORKER_COUNT must be positive, got %d", c.WorkerCount)
	}
	if c.RateLimitPerMinute <= 0 {
		return fmt.Errorf("RATE_LIMIT_PER_MINUTE must be positive, got %d", c.RateLimitPerMinute)
	}
	return nil
}

// RedisEnabled reports whether background jobs and chat history are available.
func (c *Config) RedisEnabled() bool {
	return c.RedisURL != ""
}

func getEnvOrDefault(key, defaultVal string) string {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	return val
}

func getEnvAsIntOrDefault(key string, defaultVal int) int {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		return defaultVal
	}
	return n
}

func getEnvAsDurationOrDefault(key string, defaultVal time.Duration) time.Duration {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(val)
	if err != nil || d <= 0 {
		return defaultVal
	}
	return d
}
