package batches

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/disburse-labs/disburser-backend/pkg/db/models"
	"github.com/disburse-labs/disburser-backend/pkg/enums"
)

// Repository is the persistence surface for batches and their payment requests.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	CreateBatch(ctx context.Context, batch *models.Batch) (*models.Batch, error)
	CreatePaymentRequests(ctx context.Context, requests []models.PaymentRequest) error
	FindBatchByID(ctx context.Context, id uuid.UUID) (*models.Batch, error)
	ListBatches(ctx context.Context) ([]models.Batch, error)
	ListPaymentRequestsByBatch(ctx context.Context, batchID uuid.UUID) ([]models.PaymentRequest, error)
	ListPaymentRequestsByStatus(ctx context.Context, batchID uuid.UUID, status enums.PaymentRequestStatus) ([]models.PaymentRequest, error)
	CountPaymentRequestsByStatus(ctx context.Context, batchID uuid.UUID, status enums.PaymentRequestStatus) (int64, error)
	UpdateBatchStatus(ctx context.Context, batchID uuid.UUID, status enums.BatchStatus) error
	UpdatePaymentRequestOutcome(ctx context.Context, requestID uuid.UUID, status enums.PaymentRequestStatus, message string) error
	DiscardUnprocessedRequests(ctx context.Context, batchID uuid.UUID) (int64, error)
}
