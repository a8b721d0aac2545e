package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"example.com/mealplan/internal/api"
	"example.com/mealplan/internal/auth"
	"example.com/mealplan/internal/catalog"
	"example.com/mealplan/internal/config"
	"example.com/mealplan/internal/domain"
	"example.com/mealplan/internal/logger"
	"example.com/mealplan/internal/observability"
	"example.com/mealplan/internal/outbox"
	"example.com/mealplan/internal/persistence/memory"
	"example.com/mealplan/internal/persistence/postgres"
	httptransport "example.com/mealplan/internal/transport/http"
)

// store is what the API needs from a backing store.
type store interface {
	catalog.Store
	domain.WorkoutSource
	domain.PlanStore
}

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	log, err := logger.New(cfg.LogMode)
	if err != nil {
		panic(err)
	}
	defer log.Sync()
	log = log.With("service", "mealplan-api", "version", cfg.ServiceVersion)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := observability.InitTracing(ctx, log, observability.TracingConfig{
		Enabled:     cfg.OTelEnabled,
		ServiceName: "mealplan-api",
		Version:     cfg.ServiceVersion,
		Endpoint:    cfg.OTelEndpoint,
	})
	if err != nil {
		log.Fatal("tracing init failed", "error", err)
	}

	var (
		backing    store
		dispatcher *outbox.Dispatcher
	)
	if cfg.PostgresURL != "" {
		pool, err := pgxpool.New(ctx, cfg.PostgresURL)
		if err != nil {
			log.Fatal("failed to connect to postgres", "error", err)
		}
		defer pool.Close()
		backing = postgres.NewRepository(pool)

		if cfg.OutboxEnabled {
			producer := outbox.NewKafkaProducer(cfg.Brokers())
			defer producer.Close()
			registry := outbox.NewSchemaRegistryClient(cfg.SchemaRegistryURL)
			dispatcher = outbox.NewDispatcher(pool, producer, registry, cfg.OutboxPollInterval, cfg.OutboxBatchSize, outbox.WithLogger(log))
			go dispatcher.Start(ctx)
		}
	} else {
		log.Warn("POSTGRES_URL not set, using in-memory store")
		backing = memory.NewStore()
	}

	var foods catalog.Store = backing
	if cfg.RedisAddr != "" {
		rdb, err := catalog.NewRedisClient(ctx, cfg.RedisAddr)
		if err != nil {
			log.Fatal("failed to connect to redis", "addr", cfg.RedisAddr, "error", err)
		}
		defer rdb.Close()
		foods = catalog.NewCachedCatalog(backing, catalog.NewRedisCache(rdb, "mealplan:"), cfg.CatalogCacheTTL, log)
	}

	src, err := catalogSource(ctx, cfg)
	if err != nil {
		log.Fatal("catalog source init failed", "error", err)
	}
	seeded, err := catalog.Seed(ctx, src, foods)
	if err != nil {
		log.Fatal("catalog seed failed", "error", err)
	}
	log.Info("catalog seeded", "foods", seeded)

	service := domain.NewService(foods, backing, backing, nil,
		domain.WithLogger(log),
		domain.WithWorkoutWindow(cfg.WorkoutWindow),
		domain.WithWorkoutContextRequired(cfg.RequireWorkoutContext),
	)

	mux := http.NewServeMux()
	api.NewHandler(service, log).RegisterRoutes(mux)
	mux.Handle("/metrics", promhttp.Handler())

	authMiddleware := auth.NewMiddleware(auth.Config{Secret: cfg.JWTSecret, Issuer: cfg.JWTIssuer}, nil)
	handler := httptransport.Chain(mux,
		httptransport.RequestLogger(log),
		httptransport.CORS(cfg.Origins()...),
		authMiddleware.Wrap,
	)
	server := httptransport.NewServer(httptransport.DefaultServerConfig(cfg.HTTPAddress), handler)

	go func() {
		log.Info("mealplan api listening", "addr", cfg.HTTPAddress)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server error", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	log.Info("shutdown requested")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("graceful shutdown failed", "error", err)
	}
	if dispatcher != nil {
		dispatcher.Wait()
	}
	if err := shutdownTracing(shutdownCtx); err != nil {
		log.Warn("tracing shutdown failed", "error", err)
	}
}

// catalogSource picks the seed document: S3 when a bucket is configured, then a local file,
// then the built-in catalog.
func catalogSource(ctx context.Context, cfg config.Config) (catalog.Source, error) {
	switch {
	case cfg.CatalogS3Bucket != "":
		awsCfg, err := awsconfig.LoadDefaultConfig(ctx)
		if err != nil {
			return nil, err
		}
		return catalog.NewS3Source(s3.NewFromConfig(awsCfg), cfg.CatalogS3Bucket, cfg.CatalogS3Key), nil
	case cfg.CatalogPath != "":
		if _, err := os.Stat(cfg.CatalogPath); err != nil {
			return nil, err
		}
		return catalog.NewFileSource(cfg.CatalogPath), nil
	default:
		return catalog.StaticSource{}, nil
	}
}
