package batches

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/disburse-labs/disburser-backend/pkg/db/models"
	"github.com/disburse-labs/disburser-backend/pkg/enums"
)

const bulkInsertChunkSize = 500

type repository struct {
	db *gorm.DB
}

// NewRepository builds a batches repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) CreateBatch(ctx context.Context, batch *models.Batch) (*models.Batch, error) {
	if err := r.db.WithContext(ctx).Create(batch).Error; err != nil {
		return nil, err
	}
	return batch, nil
}

func (r *repository) CreatePaymentRequests(ctx context.Context, requests []models.PaymentRequest) error {
	if len(requests) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).CreateInBatches(&requests, bulkInsertChunkSize).Error
}

func (r *repository) FindBatchByID(ctx context.Context, id uuid.UUID) (*models.Batch, error) {
	var batch models.Batch
	err := r.db.WithContext(ctx).
		Where("id = ?", id).
		First(&batch).Error
	if err != nil {
		return nil, err
	}
	return &batch, nil
}

func (r *repository) ListBatches(ctx context.Context) ([]models.Batch, error) {
	var batches []models.Batch
	err := r.db.WithContext(ctx).
		Order("uploaded_at DESC").
		Find(&batches).Error
	if err != nil {
		return nil, err
	}
	return batches, nil
}

func (r *repository) ListPaymentRequestsByBatch(ctx context.Context, batchID uuid.UUID) ([]models.PaymentRequest, error) {
	var requests []models.PaymentRequest
	err := r.db.WithContext(ctx).
		Where("batch_id = ?", batchID).
		Order("created_at ASC").
		Find(&requests).Error
	if err != nil {
		return nil, err
	}
	return requests, nil
}

func (r *repository) ListPaymentRequestsByStatus(ctx context.Context, batchID uuid.UUID, status enums.PaymentRequestStatus) ([]models.PaymentRequest, error) {
	var requests []models.PaymentRequest
	err := r.db.WithContext(ctx).
		Where("batch_id = ? AND status = ?", batchID, status).
		Order("created_at ASC").
		Find(&requests).Error
	if err != nil {
		return nil, err
	}
	return requests, nil
}

func (r *repository) CountPaymentRequestsByStatus(ctx context.Context, batchID uuid.UUID, status enums.PaymentRequestStatus) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.PaymentRequest{}).
		Where("batch_id = ? AND status = ?", batchID, status).
		Count(&count).Error
	if err != nil {
		return 0, err
	}
	return count, nil
}

func (r *repository) UpdateBatchStatus(ctx context.Context, batchID uuid.UUID, status enums.BatchStatus) error {
	return r.db.WithContext(ctx).
		Model(&models.Batch{}).
		Where("id = ?", batchID).
		Update("status", status).Error
}

func (r *repository) UpdatePaymentRequestOutcome(ctx context.Context, requestID uuid.UUID, status enums.PaymentRequestStatus, message string) error {
	return r.db.WithContext(ctx).
		Model(&models.PaymentRequest{}).
		Where("id = ?", requestID).
		Updates(map[string]any{"status": status, "message": message}).Error
}

func (r *repository) DiscardUnprocessedRequests(ctx context.Context, batchID uuid.UUID) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&models.PaymentRequest{}).
		Where("batch_id = ? AND status = ?", batchID, enums.PaymentRequestStatusUnprocessed).
		Update("status", enums.PaymentRequestStatusDiscarded)
	if res.Error != nil {
		return 0, res.Error
	}
	return res.RowsAffected, nil
}
