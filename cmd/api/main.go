package main

import (
	"context"
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/disburse-labs/disburser-backend/api/routes"
	internalbatches "github.com/disburse-labs/disburser-backend/internal/batches"
	"github.com/disburse-labs/disburser-backend/internal/disbursement"
	"github.com/disburse-labs/disburser-backend/internal/entities"
	"github.com/disburse-labs/disburser-backend/internal/ingestion"
	"github.com/disburse-labs/disburser-backend/internal/reports"
	"github.com/disburse-labs/disburser-backend/pkg/config"
	"github.com/disburse-labs/disburser-backend/pkg/db"
	"github.com/disburse-labs/disburser-backend/pkg/logger"
	"github.com/disburse-labs/disburser-backend/pkg/method"
	"github.com/disburse-labs/disburser-backend/pkg/metrics"
	"github.com/disburse-labs/disburser-backend/pkg/migrate"
	"github.com/disburse-labs/disburser-backend/pkg/redis"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	methodClient, err := method.NewClient(context.Background(), cfg.Method, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap payment network client", err)
		os.Exit(1)
	}

	metricsCollector := metrics.NewDisbursementMetrics(prometheus.DefaultRegisterer)

	batchRepo := internalbatches.NewRepository(dbClient.DB())

	batchService, err := internalbatches.NewService(batchRepo, dbClient, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create batches service", err)
		os.Exit(1)
	}

	ingestionService, err := ingestion.NewService(batchRepo, dbClient, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create ingestion service", err)
		os.Exit(1)
	}

	entitiesService, err := entities.NewService(entities.NewRepository(dbClient.DB()), methodClient, logg, metricsCollector)
	if err != nil {
		logg.Error(context.Background(), "failed to create entities service", err)
		os.Exit(1)
	}
	if err := entitiesService.Warm(context.Background()); err != nil {
		logg.Error(context.Background(), "failed to warm entity caches", err)
		os.Exit(1)
	}

	disbursementService, err := disbursement.NewService(
		disbursement.NewRepository(dbClient.DB()),
		methodClient,
		entitiesService,
		batchService,
		dbClient,
		cfg.Disbursement,
		logg,
		metricsCollector,
	)
	if err != nil {
		logg.Error(context.Background(), "failed to create disbursement service", err)
		os.Exit(1)
	}

	reportsService, err := reports.NewService(reports.NewRepository(dbClient.DB()), batchService)
	if err != nil {
		logg.Error(context.Background(), "failed to create reports service", err)
		os.Exit(1)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	id := os.Getenv("DYNO")
	if id == "" {
		id = "local"
	}
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":      cfg.App.Env,
		"addr":     addr,
		"instance": id,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(
			cfg,
			logg,
			dbClient,
			redisClient,
			redisClient,
			redisClient,
			ingestionService,
			batchService,
			disbursementService,
			reportsService,
		),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}
