package main

import (
	"context"
	"database/sql"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"lifelink/internal/donation/cache"
	"lifelink/internal/donation/handler"
	donationmetrics "lifelink/internal/donation/metrics"
	"lifelink/internal/donation/service"
	"lifelink/internal/donation/store"
	"lifelink/internal/events"
	"lifelink/internal/platform/config"
	"lifelink/internal/platform/health"
	"lifelink/internal/platform/httpserver"
	"lifelink/internal/platform/logger"
	platformmetrics "lifelink/internal/platform/metrics"
	"lifelink/internal/platform/redis"
)

// main wires high-level dependencies, exposes the HTTP router, and keeps the
// server lifecycle small. Business logic lives in internal services packages.
func main() {
	cfg := config.FromEnv()
	log := logger.New()

	db, err := sql.Open("postgres", cfg.Postgres.URL)
	if err != nil {
		log.Error("failed to open postgres", "error", err.Error())
		os.Exit(1)
	}
	db.SetMaxOpenConns(cfg.Postgres.MaxOpenConns)
	db.SetMaxIdleConns(cfg.Postgres.MaxIdleConns)
	if err := db.PingContext(context.Background()); err != nil {
		log.Error("failed to ping postgres", "error", err.Error())
		os.Exit(1)
	}
	defer db.Close()

	redisClient, err := redis.New(cfg.Redis)
	if err != nil {
		log.Error("failed to connect to redis", "error", err.Error())
		os.Exit(1)
	}
	if redisClient != nil {
		defer redisClient.Close()
	}

	publisher, err := events.NewPublisher(context.Background(), cfg.Kafka.Brokers, log)
	if err != nil {
		log.Error("failed to connect to kafka", "error", err.Error())
		os.Exit(1)
	}

	readStore := store.NewPostgres(db)
	opts := []service.Option{
		service.WithMetrics(donationmetrics.New()),
	}
	if redisClient != nil {
		opts = append(opts, service.WithCacheInvalidator(cache.NewInvalidator(redisClient.Client)))
	}
	if publisher != nil {
		opts = append(opts, service.WithEventPublisher(publisher))
	}
	donationService := service.New(newDonationPostgresTx(db), readStore, log, opts...)

	checker := health.NewChecker()
	checker.Register("postgres", readStore.Ping)
	if redisClient != nil {
		checker.Register("redis", redisClient.Health)
	}

	httpMetrics := platformmetrics.New()
	router := chi.NewRouter()
	handler.New(donationService, log, httpMetrics).Register(router)
	router.Get("/healthz", checker.Handler())
	router.Handle("/metrics", promhttp.Handler())

	srv := httpserver.New(cfg.Addr, router)

	log.Info("starting lifelink", "addr", cfg.Addr)

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("server error", "error", err.Error())
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error("graceful shutdown failed", "error", err.Error())
	}
	if publisher != nil {
		publisher.Close(ctx)
	}
}
