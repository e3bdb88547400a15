package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/disburse-labs/disburser-backend/api/controllers"
	"github.com/disburse-labs/disburser-backend/api/middleware"
	internalbatches "github.com/disburse-labs/disburser-backend/internal/batches"
	"github.com/disburse-labs/disburser-backend/internal/disbursement"
	"github.com/disburse-labs/disburser-backend/internal/ingestion"
	"github.com/disburse-labs/disburser-backend/internal/reports"
	"github.com/disburse-labs/disburser-backend/pkg/config"
	"github.com/disburse-labs/disburser-backend/pkg/db"
	"github.com/disburse-labs/disburser-backend/pkg/logger"
	pkgredis "github.com/disburse-labs/disburser-backend/pkg/redis"
)

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP db.Pinger,
	redisP pkgredis.Pinger,
	idempotencyStore pkgredis.IdempotencyStore,
	rateLimiter pkgredis.RateLimiter,
	ingestionService ingestion.Service,
	batchService internalbatches.Service,
	disbursementService disbursement.Service,
	reportsService reports.Service,
) http.Handler {
	r := chi.NewRouter()

	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, dbP, redisP))
	})

	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/public", func(r chi.Router) {
		r.Get("/ping", controllers.PublicPing())
	})

	r.Route("/api/v1/batches", func(r chi.Router) {
		r.Use(middleware.RateLimit(rateLimiter, cfg.RateLimit, logg))
		r.Use(middleware.Idempotency(idempotencyStore, logg))

		r.Post("/upload", controllers.UploadBatch(ingestionService, logg))
		r.Get("/", controllers.ListBatches(batchService, logg))

		r.Route("/{batchId}", func(r chi.Router) {
			r.Get("/", controllers.GetBatch(batchService, logg))
			r.Get("/payment-requests", controllers.ListBatchPaymentRequests(batchService, logg))
			r.Get("/payments", controllers.ListBatchPayments(disbursementService, logg))
			r.Get("/reports/{reportType}", controllers.BatchReport(reportsService, logg))

			r.Post("/approve", controllers.ApproveBatch(batchService, logg))
			r.Post("/process", controllers.ProcessBatch(disbursementService, logg))
			r.Post("/discard", controllers.DiscardBatch(batchService, logg))
		})
	})

	return r
}
