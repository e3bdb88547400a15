package controllers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/disburse-labs/disburser-backend/api/responses"
	"github.com/disburse-labs/disburser-backend/api/validators"
	internalbatches "github.com/disburse-labs/disburser-backend/internal/batches"
	"github.com/disburse-labs/disburser-backend/internal/disbursement"
	"github.com/disburse-labs/disburser-backend/internal/ingestion"
	"github.com/disburse-labs/disburser-backend/pkg/db/models"
	pkgerrors "github.com/disburse-labs/disburser-backend/pkg/errors"
	"github.com/disburse-labs/disburser-backend/pkg/logger"
)

const (
	maxUploadBytes     = 8 << 20
	defaultRequestPage = 500
	maxRequestPage     = 2000
)

type uploadForm struct {
	FileName string `json:"file_name" validate:"required,max=255"`
}

type uploadResponse struct {
	Batch        *models.Batch `json:"batch"`
	RequestCount int           `json:"request_count"`
}

// UploadBatch accepts a multipart payroll file and stages it as an
// unapproved batch.
func UploadBatch(svc ingestion.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "ingestion service unavailable"))
			return
		}

		if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid multipart payload"))
			return
		}

		file, header, err := r.FormFile("file")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "file field is required"))
			return
		}
		defer file.Close()

		form := uploadForm{FileName: strings.TrimSpace(header.Filename)}
		if err := validators.ValidateStruct(&form); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		batch, count, err := svc.Ingest(r.Context(), form.FileName, file)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, uploadResponse{Batch: batch, RequestCount: count})
	}
}

func ListBatches(svc internalbatches.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "batches service unavailable"))
			return
		}

		list, err := svc.ListBatches(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, list)
	}
}

func GetBatch(svc internalbatches.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "batches service unavailable"))
			return
		}

		batchID, err := parseBatchID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		batch, err := svc.GetBatch(r.Context(), batchID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, batch)
	}
}

func ListBatchPaymentRequests(svc internalbatches.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "batches service unavailable"))
			return
		}

		batchID, err := parseBatchID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		limit, err := validators.ParseQueryInt(r, "limit", defaultRequestPage, 1, maxRequestPage)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		list, err := svc.ListPaymentRequests(r.Context(), batchID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if len(list) > limit {
			list = list[:limit]
		}
		responses.WriteSuccess(w, list)
	}
}

func ApproveBatch(svc internalbatches.Service, logg *logger.Logger) http.HandlerFunc {
	return batchTransitionHandler(svc, logg, func(r *http.Request, batchID uuid.UUID) (*models.Batch, error) {
		return svc.Approve(r.Context(), batchID)
	})
}

func DiscardBatch(svc internalbatches.Service, logg *logger.Logger) http.HandlerFunc {
	return batchTransitionHandler(svc, logg, func(r *http.Request, batchID uuid.UUID) (*models.Batch, error) {
		return svc.Discard(r.Context(), batchID)
	})
}

func batchTransitionHandler(svc internalbatches.Service, logg *logger.Logger, transition func(*http.Request, uuid.UUID) (*models.Batch, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "batches service unavailable"))
			return
		}

		batchID, err := parseBatchID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		batch, err := transition(r, batchID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, batch)
	}
}

// ProcessBatch runs the disbursement synchronously and reports per-request
// outcomes. A rate-limit abort surfaces as 429 with the partial summary lost;
// the batch itself stays in processing for a later retry.
func ProcessBatch(svc disbursement.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "disbursement service unavailable"))
			return
		}

		batchID, err := parseBatchID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		summary, err := svc.ProcessBatch(r.Context(), batchID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, summary)
	}
}

func ListBatchPayments(svc disbursement.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "disbursement service unavailable"))
			return
		}

		batchID, err := parseBatchID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		payments, err := svc.ListPayments(r.Context(), batchID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, payments)
	}
}

func parseBatchID(r *http.Request) (uuid.UUID, error) {
	raw := strings.TrimSpace(chi.URLParam(r, "batchId"))
	if raw == "" {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeValidation, "batch id is required")
	}
	batchID, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid batch id")
	}
	return batchID, nil
}
