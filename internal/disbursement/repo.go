package disbursement

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/disburse-labs/disburser-backend/pkg/db/models"
	"github.com/disburse-labs/disburser-backend/pkg/enums"
)

type repository struct {
	db *gorm.DB
}

// NewRepository builds a disbursement repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) ListUnprocessedRequests(ctx context.Context, batchID uuid.UUID) ([]models.PaymentRequest, error) {
	var requests []models.PaymentRequest
	err := r.db.WithContext(ctx).
		Where("batch_id = ? AND status = ?", batchID, enums.PaymentRequestStatusUnprocessed).
		Order("created_at ASC").
		Find(&requests).Error
	if err != nil {
		return nil, err
	}
	return requests, nil
}

func (r *repository) UpdateRequestOutcome(ctx context.Context, requestID uuid.UUID, status enums.PaymentRequestStatus, message string) error {
	return r.db.WithContext(ctx).
		Model(&models.PaymentRequest{}).
		Where("id = ?", requestID).
		Updates(map[string]any{"status": status, "message": message}).Error
}

func (r *repository) CreatePayment(ctx context.Context, payment *models.Payment) (*models.Payment, error) {
	if err := r.db.WithContext(ctx).Create(payment).Error; err != nil {
		return nil, err
	}
	return payment, nil
}

func (r *repository) ListPaymentsByBatch(ctx context.Context, batchID uuid.UUID) ([]models.Payment, error) {
	var payments []models.Payment
	err := r.db.WithContext(ctx).
		Where("batch_id = ?", batchID).
		Order("created_at ASC").
		Find(&payments).Error
	if err != nil {
		return nil, err
	}
	return payments, nil
}
