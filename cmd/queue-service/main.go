package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	goredis "github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"shopqueue/queue-service/internal/analytics"
	"shopqueue/queue-service/internal/bulk"
	rediscache "shopqueue/queue-service/internal/cache/redis"
	"shopqueue/queue-service/internal/config"
	"shopqueue/queue-service/internal/httpapi"
	"shopqueue/queue-service/internal/queue"
	"shopqueue/queue-service/internal/store/postgres"
	"shopqueue/queue-service/internal/telemetry"
)

func main() {
	cfg := config.Load()

	shutdownTracing := telemetry.Setup("queue-service")

	pool, err := pgxpool.New(context.Background(), cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("db connect: %v", err)
	}
	defer pool.Close()

	redisClient := goredis.NewClient(&goredis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	defer redisClient.Close()

	queueStore := postgres.NewStore(pool)
	snapshotCache := rediscache.NewCache(redisClient)

	queueService := queue.NewService(queueStore)
	bulkEngine := bulk.NewEngine(queueStore, bulk.Options{
		BatchSize: cfg.BulkBatchSize,
		MaxItems:  cfg.BulkMaxItems,
	})
	analyticsEngine := analytics.NewEngine(queueStore, snapshotCache, analytics.Options{
		FreshFor: cfg.AnalyticsFreshFor,
		CacheTTL: cfg.AnalyticsCacheTTL,
	})

	handler := httpapi.NewHandler(queueService, bulkEngine, analyticsEngine, queueStore)
	limiter := httpapi.NewRateLimiter(httpapi.RateLimitConfig{
		IPPerMinute:   cfg.RateLimitPerMinute,
		IPBurst:       cfg.RateLimitBurst,
		ShopPerMinute: cfg.ShopRateLimitPerMinute,
		ShopBurst:     cfg.ShopRateLimitBurst,
	})

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.Handle("/", otelhttp.NewHandler(limiter.Middleware(httpapi.LoggingMiddleware(handler.Routes())), "queue-service"))

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      mux,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("queue-service listening on %s", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.Printf("shutdown error: %v", err)
	}
	if err := shutdownTracing(ctx); err != nil {
		log.Printf("tracing shutdown error: %v", err)
	}
}
