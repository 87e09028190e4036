package config

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	Port        string
	DatabaseURL string

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	AnalyticsFreshFor time.Duration
	AnalyticsCacheTTL time.Duration

	BulkBatchSize int
	BulkMaxItems  int

	RateLimitPerMinute     int
	RateLimitBurst         int
	ShopRateLimitPerMinute int
	ShopRateLimitBurst     int
}

func Load() Config {
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	redisAddr := os.Getenv("REDIS_ADDR")
	if redisAddr == "" {
		redisAddr = "localhost:6379"
	}

	return Config{
		Port:        port,
		DatabaseURL: os.Getenv("DB_DSN"),

		RedisAddr:     redisAddr,
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
		RedisDB:       readInt("REDIS_DB", 0),

		AnalyticsFreshFor: readDurationSeconds("ANALYTICS_FRESH_SECONDS", 300),
		AnalyticsCacheTTL: readDurationSeconds("ANALYTICS_CACHE_TTL_SECONDS", 300),

		BulkBatchSize: readInt("BULK_BATCH_SIZE", 10),
		BulkMaxItems:  readInt("BULK_MAX_ITEMS", 100),

		RateLimitPerMinute:     readInt("RATE_LIMIT_PER_MIN", 120),
		RateLimitBurst:         readInt("RATE_LIMIT_BURST", 30),
		ShopRateLimitPerMinute: readInt("SHOP_RATE_LIMIT_PER_MIN", 600),
		ShopRateLimitBurst:     readInt("SHOP_RATE_LIMIT_BURST", 120),
	}
}

func readDurationSeconds(key string, fallback int) time.Duration {
	value := readInt(key, fallback)
	if value <= 0 {
		return 0
	}
	return time.Duration(value) * time.Second
}

func readInt(key string, fallback int) int {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return value
}
