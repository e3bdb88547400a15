package disbursement

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/disburse-labs/disburser-backend/internal/entities"
	"github.com/disburse-labs/disburser-backend/pkg/db/models"
	"github.com/disburse-labs/disburser-backend/pkg/enums"
	"github.com/disburse-labs/disburser-backend/pkg/method"
)

// Repository is the persistence surface the orchestrator needs: unprocessed
// request reads, outcome writes, and the append-only payment audit log.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	ListUnprocessedRequests(ctx context.Context, batchID uuid.UUID) ([]models.PaymentRequest, error)
	UpdateRequestOutcome(ctx context.Context, requestID uuid.UUID, status enums.PaymentRequestStatus, message string) error
	CreatePayment(ctx context.Context, payment *models.Payment) (*models.Payment, error)
	ListPaymentsByBatch(ctx context.Context, batchID uuid.UUID) ([]models.Payment, error)
}

// PaymentGateway is the slice of the network client that submits payments.
type PaymentGateway interface {
	CreatePayment(ctx context.Context, params method.PaymentParams) (*method.Payment, error)
}

// Resolver provisions the gateway resources a payment request depends on.
type Resolver interface {
	RefreshMerchants(ctx context.Context) (int, error)
	Resolve(ctx context.Context, req *models.PaymentRequest) (*entities.Resolution, error)
}

// Lifecycle is the slice of the batch service that moves batch status.
type Lifecycle interface {
	BeginProcessing(ctx context.Context, batchID uuid.UUID) (*models.Batch, error)
	CompleteProcessing(ctx context.Context, batchID uuid.UUID) (*models.Batch, error)
}
