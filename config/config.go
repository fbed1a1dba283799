package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Storage backend names accepted in STORAGE_BACKEND.
const (
	BackendMemory   = "memory"
	BackendFile     = "file"
	BackendRedis    = "redis"
	BackendPostgres = "postgres"
)

type Config struct {
	Addr           string
	Env            string
	APIBaseURL     string
	RequestTimeout time.Duration

	StorageBackend string
	StateFile      string
	RedisURL       string
	PostgresDSN    string

	SessionTTL    time.Duration
	SweepInterval time.Duration

	RateLimitPerMinute int
	RateLimitBurst     int
}

// Load reads configuration from .env (when present) and the environment.
func Load() Config {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	return Config{
		Addr:               getEnv("STOREFRONT_ADDR", ":8080"),
		Env:                getEnv("APP_ENV", "development"),
		APIBaseURL:         getEnv("API_BASE_URL", "http://localhost:8000/api/v1"),
		RequestTimeout:     getDuration("REQUEST_TIMEOUT", 10*time.Second),
		StorageBackend:     getEnv("STORAGE_BACKEND", BackendMemory),
		StateFile:          getEnv("STATE_FILE", "client-state.json"),
		RedisURL:           getEnv("REDIS_URL", "redis://localhost:6379"),
		PostgresDSN:        getEnv("POSTGRES_DSN", ""),
		SessionTTL:         getDuration("SESSION_TTL", 24*time.Hour),
		SweepInterval:      getDuration("SWEEP_INTERVAL", 10*time.Minute),
		RateLimitPerMinute: getInt("RATE_LIMIT_PER_MINUTE", 300),
		RateLimitBurst:     getInt("RATE_LIMIT_BURST", 50),
	}
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getDuration(key string, defaultVal time.Duration) time.Duration {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(val)
	if err != nil {
		log.Printf("invalid %s=%q, using default %s", key, val, defaultVal)
		return defaultVal
	}
	return d
}

func getInt(key string, defaultVal int) int {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		log.Printf("invalid %s=%q, using default %d", key, val, defaultVal)
		return defaultVal
	}
	return n
}
