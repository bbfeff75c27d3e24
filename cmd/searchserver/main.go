package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Adithya-Monish-Kumar-K/search-server/internal/analytics"
	aggregatorstore "github.com/Adithya-Monish-Kumar-K/search-server/internal/analytics/aggregator"
	"github.com/Adithya-Monish-Kumar-K/search-server/internal/indexer"
	"github.com/Adithya-Monish-Kumar-K/search-server/internal/indexer/index"
	"github.com/Adithya-Monish-Kumar-K/search-server/internal/ingestion/consumer"
	ingesthandler "github.com/Adithya-Monish-Kumar-K/search-server/internal/ingestion/handler"
	"github.com/Adithya-Monish-Kumar-K/search-server/internal/ingestion/loader"
	"github.com/Adithya-Monish-Kumar-K/search-server/internal/ingestion/publisher"
	"github.com/Adithya-Monish-Kumar-K/search-server/internal/ratelimit"
	"github.com/Adithya-Monish-Kumar-K/search-server/internal/searcher/cache"
	"github.com/Adithya-Monish-Kumar-K/search-server/internal/searcher/handler"
	"github.com/Adithya-Monish-Kumar-K/search-server/pkg/config"
	"github.com/Adithya-Monish-Kumar-K/search-server/pkg/health"
	"github.com/Adithya-Monish-Kumar-K/search-server/pkg/kafka"
	"github.com/Adithya-Monish-Kumar-K/search-server/pkg/logger"
	"github.com/Adithya-Monish-Kumar-K/search-server/pkg/metrics"
	"github.com/Adithya-Monish-Kumar-K/search-server/pkg/middleware"
	"github.com/Adithya-Monish-Kumar-K/search-server/pkg/postgres"
	pkgredis "github.com/Adithya-Monish-Kumar-K/search-server/pkg/redis"
	"github.com/Adithya-Monish-Kumar-K/search-server/pkg/resilience"
	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/errgroup"
)

func main() {
	configPath := flag.String("config", "", "path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	logger.Setup(cfg.Logging.Level, cfg.Logging.Format)

	if err := run(cfg); err != nil {
		slog.Error("search server failed", "error", err)
		os.Exit(1)
	}
	slog.Info("search server stopped")
}

func run(cfg *config.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	slog.Info("starting search server",
		"port", cfg.Server.Port,
		"bucket_count", cfg.Index.BucketCount,
		"stop_words", len(cfg.Index.StopWords),
	)

	defaultStatus, err := index.ParseStatus(cfg.Search.DefaultStatus)
	if err != nil {
		return fmt.Errorf("search.defaultStatus: %w", err)
	}
	idx, err := index.New(cfg.Index.StopWords,
		index.WithBucketCount(cfg.Index.BucketCount),
		index.WithParallelism(cfg.Index.Parallelism),
		index.WithMaxResults(cfg.Index.MaxResults),
	)
	if err != nil {
		return fmt.Errorf("building index: %w", err)
	}

	m := metrics.New(prometheus.DefaultRegisterer)
	if cfg.Metrics.Enabled {
		shutdownMetrics := metrics.StartServer(cfg.Metrics.Port)
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = shutdownMetrics(shutdownCtx)
		}()
	}

	checker := health.NewChecker()

	var queryCache *cache.QueryCache
	if cfg.Redis.Enabled {
		redisClient, err := pkgredis.NewClient(ctx, cfg.Redis)
		if err != nil {
			slog.Warn("redis unavailable, search caching disabled", "error", err)
		} else {
			defer redisClient.Close()
			breaker := cache.NewBreaker(func(_, to resilience.State) {
				m.CacheBreakerState.Set(float64(to))
			})
			queryCache = cache.New(cache.Guard(redisClient, breaker, cfg.Redis.OpTimeout), cfg.Redis.CacheTTL)
			checker.Register("redis", health.PingCheck(redisClient.Ping, true))
			slog.Info("search cache enabled", "addr", cfg.Redis.Addr, "ttl", cfg.Redis.CacheTTL)
		}
	}

	var db *postgres.Client
	if cfg.Postgres.Enabled {
		db, err = postgres.New(ctx, cfg.Postgres)
		if err != nil {
			return fmt.Errorf("connecting to postgres: %w", err)
		}
		defer db.Close()
		checker.Register("postgres", health.PingCheck(db.Ping, true))
	}

	aggregator := analytics.NewAggregator()
	var eventPublisher analytics.Publisher
	if cfg.Kafka.Enabled {
		producer := kafka.NewProducer(cfg.Kafka, cfg.Kafka.Topics.AnalyticsEvents)
		defer producer.Close()
		eventPublisher = producer
	}
	collector := analytics.NewCollector(eventPublisher, aggregator,
		cfg.Analytics.BufferSize, cfg.Analytics.BatchSize, cfg.Analytics.FlushInterval)
	collector.Start(ctx)
	defer collector.Close()

	engine := indexer.NewEngine(idx, indexer.Options{
		Cache:            queryCache,
		Collector:        collector,
		Aggregator:       aggregator,
		Metrics:          m,
		ZeroResultWindow: cfg.Search.ZeroResultWindow,
		BatchParallelism: cfg.Index.Parallelism,
	})
	checker.Register("index", func(ctx context.Context) health.ComponentHealth {
		s := engine.Stats()
		return health.ComponentHealth{
			Status:  health.StatusUp,
			Message: fmt.Sprintf("%d documents, %d words", s.Documents, s.Words),
		}
	})

	if db != nil {
		if _, err := loader.New(db, engine).Load(ctx); err != nil {
			return fmt.Errorf("loading documents: %w", err)
		}
	}

	mux := http.NewServeMux()
	handler.New(engine, defaultStatus, cfg.Search.PageSize, cfg.Search.MaxBatchQueries).Register(mux)
	mux.HandleFunc("GET /health/live", checker.LiveHandler())
	mux.HandleFunc("GET /health/ready", checker.ReadyHandler())

	// Background loops are joined before the deferred closes run, so nothing
	// feeds the collector or the index once they are torn down.
	var background errgroup.Group

	var snapshots analytics.SnapshotLister
	if db != nil && cfg.Analytics.SnapshotInterval > 0 {
		store := aggregatorstore.NewStore(db.DB)
		snapshots = store
		background.Go(func() error {
			aggregatorstore.RunPeriodic(ctx, store, aggregator, cfg.Analytics.SnapshotInterval)
			return nil
		})
	}
	analytics.NewHandler(aggregator, snapshots).Register(mux)

	if cfg.Kafka.Enabled {
		kafkaConsumer := kafka.NewConsumer(cfg.Kafka, cfg.Kafka.Topics.DocumentIngest, consumer.HandleMessage(engine, m))
		defer kafkaConsumer.Close()
		ingest := consumer.New(kafkaConsumer)
		background.Go(func() error {
			if err := ingest.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
				slog.Error("ingest consumer stopped", "error", err)
			}
			return nil
		})

		ingestProducer := kafka.NewProducer(cfg.Kafka, cfg.Kafka.Topics.DocumentIngest)
		defer ingestProducer.Close()
		var store publisher.DocumentStore
		if db != nil {
			store = publisher.NewPostgresStore(db)
		}
		ingesthandler.New(publisher.New(store, ingestProducer, m)).Register(mux)
	}

	var chain http.Handler = mux
	chain = middleware.Timeout(cfg.Server.RequestTimeout)(chain)
	chain = middleware.Tracing(cfg.Server.SlowRequest)(chain)
	chain = middleware.Metrics(m)(chain)
	if cfg.Server.RateLimit.Enabled {
		limiter := ratelimit.New(cfg.Server.RateLimit.Requests, cfg.Server.RateLimit.Window)
		background.Go(func() error {
			limiter.Run(ctx)
			return nil
		})
		chain = middleware.RateLimit(limiter, m)(chain)
	}
	chain = middleware.CORS(cfg.Server.CORSOrigins)(chain)
	chain = middleware.RequestID(chain)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      chain,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	shutdownDone := make(chan struct{})
	go func() {
		defer close(shutdownDone)
		<-ctx.Done()
		slog.Info("shutdown signal received")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("server shutdown error", "error", err)
		}
	}()

	slog.Info("search server listening", "addr", server.Addr)
	serveErr := server.ListenAndServe()
	if errors.Is(serveErr, http.ErrServerClosed) {
		serveErr = nil
	}
	// ListenAndServe returns as soon as Shutdown starts; wait for in-flight
	// requests and background loops before the deferred closes run.
	stop()
	<-shutdownDone
	_ = background.Wait()
	return serveErr
}
