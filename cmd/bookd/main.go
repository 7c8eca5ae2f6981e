package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"log/slog"

	"bookd/internal/book"
	"bookd/internal/cache"
	"bookd/internal/config"
	"bookd/internal/events"
	"bookd/internal/handlers"
	"bookd/internal/registry"
	"bookd/internal/storage"
	"bookd/libs/health"
	"bookd/libs/httpmiddleware"
	"bookd/libs/kafka"
	"bookd/libs/logging"
	"bookd/libs/metrics"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
)

const shutdownGrace = 10 * time.Second

func main() {
	configPath := flag.String("config", "", "path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}

	logger := logging.NewLogger(cfg.App.LogLevel, cfg.App.ServiceName, cfg.App.Env)
	slog.SetDefault(logger)

	if err := run(cfg, logger); err != nil {
		logger.Error("service exited", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	registryProm := prometheus.NewRegistry()
	registryProm.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	metrics.Register(registryProm)
	serviceMetrics := handlers.NewMetrics(registryProm)
	producerMetrics := kafka.NewProducerMetrics(registryProm)

	pool, err := pgxpool.New(ctx, cfg.DB.DSN)
	if err != nil {
		return fmt.Errorf("create pg pool: %w", err)
	}
	defer pool.Close()
	if err := pool.Ping(ctx); err != nil {
		return fmt.Errorf("ping postgres: %w", err)
	}

	store := storage.New(pool)
	if cfg.DB.BootstrapSchema {
		if err := store.InitSchema(ctx); err != nil {
			logger.Warn("schema bootstrap failed", "error", err)
		}
	}

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer redisClient.Close()
	if err := redisClient.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("ping redis: %w", err)
	}
	viewCache := cache.New(redisClient, logger)

	var producer kafka.Publisher
	if cfg.Kafka.Enabled {
		sync, err := kafka.NewSyncProducer(cfg.Kafka.Brokers, logger, producerMetrics)
		if err != nil {
			return fmt.Errorf("create kafka producer: %w", err)
		}
		defer sync.Close()
		producer = sync
	}
	fanout := events.NewFanout(viewCache, producer, cfg.Kafka.TradesTopic, logger)

	shards := make(map[string]registry.Shard, len(cfg.Symbols))
	for _, symbol := range cfg.Symbols {
		shards[symbol] = book.New(symbol)
	}
	reg := registry.New(shards)
	logger.Info("order books initialized", "symbols", cfg.Symbols)

	handler := handlers.New(reg, viewCache, store, fanout, logger, serviceMetrics)

	healthMgr := health.NewManager(false)

	if cfg.App.Env == "prod" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.UseRawPath = true
	router.Use(
		httpmiddleware.RequestID(),
		httpmiddleware.Logger(logger),
		httpmiddleware.Recovery(logger),
	)
	router.GET("/healthz", health.LivenessHandler)
	router.GET("/readyz", health.ReadinessHandler(healthMgr))
	router.GET(cfg.App.MetricsPath, gin.WrapH(metrics.Handler(registryProm)))
	handler.Register(router)

	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.App.HTTP.Host, cfg.App.HTTP.Port),
		Handler:      router,
		ReadTimeout:  cfg.App.HTTP.ReadTimeout,
		WriteTimeout: cfg.App.HTTP.WriteTimeout,
		IdleTimeout:  cfg.App.HTTP.IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("http server listening", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	healthMgr.SetReady(true)

	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	}

	healthMgr.SetReady(false)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown http server: %w", err)
	}

	logger.Info("service stopped")
	return nil
}
