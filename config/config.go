package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config represents the application configuration
type Config struct {
	// HTTP server configuration
	Port              string
	AllowedOrigin     string
	RequestsPerSecond float64
	RequestBurst      int

	// Redis configuration
	RedisAddr            string
	RedisDB              int
	RedisStream          string
	RedisStreamCount     int
	RedisStreamMaxLength int
	StreamTrimInterval   time.Duration

	// Memcache configuration
	MemcacheAddr string

	// Fetcher configuration
	FetchTimeout   time.Duration
	RateLimitBlock time.Duration

	// Estimator configuration
	RatesFile string

	// Environment
	Environment string
}

// LoadConfig loads the configuration from environment variables with defaults
func LoadConfig() *Config {
	redisDB, _ := strconv.Atoi(getEnv("REDIS_DB", "0"))
	streamCount, _ := strconv.Atoi(getEnv("REDIS_STREAM_COUNT", "1"))
	streamMaxLength, _ := strconv.Atoi(getEnv("REDIS_STREAM_MAX_LENGTH", "1000"))
	trimInterval, _ := strconv.Atoi(getEnv("STREAM_TRIM_INTERVAL_SECONDS", "300"))
	fetchTimeout, _ := strconv.Atoi(getEnv("FETCH_TIMEOUT_SECONDS", "0"))
	blockSeconds, _ := strconv.Atoi(getEnv("RATE_LIMIT_BLOCK_SECONDS", "500"))
	rps, _ := strconv.ParseFloat(getEnv("REQUESTS_PER_SECOND", "10"), 64)
	burst, _ := strconv.Atoi(getEnv("REQUEST_BURST", "30"))

	return &Config{
		Port:                 getEnv("PORT", "5000"),
		AllowedOrigin:        getEnv("ALLOWED_ORIGIN", "http://localhost:8080"),
		RequestsPerSecond:    rps,
		RequestBurst:         burst,
		RedisAddr:            os.Getenv("REDIS_ADDR"),
		RedisDB:              redisDB,
		RedisStream:          getEnv("REDIS_STREAM", "rent_estimates"),
		RedisStreamCount:     streamCount,
		RedisStreamMaxLength: streamMaxLength,
		StreamTrimInterval:   time.Duration(trimInterval) * time.Second,
		MemcacheAddr:         os.Getenv("MEMCACHE_ADDR"),
		FetchTimeout:         time.Duration(fetchTimeout) * time.Second,
		RateLimitBlock:       time.Duration(blockSeconds) * time.Second,
		RatesFile:            os.Getenv("RATES_FILE"),
		Environment:          getEnv("RENTCALC_ENVIRONMENT", "development"),
	}
}

// Validate checks the configuration for values the server cannot run with
func (c *Config) Validate() error {
	if port, err := strconv.Atoi(c.Port); err != nil || port <= 0 || port > 65535 {
		return fmt.Errorf("invalid PORT %q", c.Port)
	}
	if c.RequestsPerSecond <= 0 {
		return fmt.Errorf("REQUESTS_PER_SECOND must be positive")
	}
	if c.RequestBurst <= 0 {
		return fmt.Errorf("REQUEST_BURST must be positive")
	}
	if c.RedisAddr != "" {
		if c.RedisStream == "" {
			return fmt.Errorf("REDIS_STREAM must be set when REDIS_ADDR is set")
		}
		if c.RedisStreamCount <= 0 {
			return fmt.Errorf("REDIS_STREAM_COUNT must be positive")
		}
		if c.RedisStreamMaxLength <= 0 {
			return fmt.Errorf("REDIS_STREAM_MAX_LENGTH must be positive")
		}
	}
	if c.FetchTimeout < 0 || c.RateLimitBlock < 0 {
		return fmt.Errorf("durations must not be negative")
	}
	return nil
}

// PublishingEnabled reports whether estimate events should be published to Redis
func (c *Config) PublishingEnabled() bool {
	return c.RedisAddr != ""
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}
