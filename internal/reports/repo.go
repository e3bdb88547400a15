package reports

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/disburse-labs/disburser-backend/pkg/enums"
)

type repository struct {
	db *gorm.DB
}

// NewRepository builds a reports repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) SourceTotals(ctx context.Context, batchID uuid.UUID) ([]SourceTotal, error) {
	var totals []SourceTotal
	err := r.db.WithContext(ctx).
		Table("payments").
		Select("payor_id, SUM(amount) AS total").
		Where("batch_id = ? AND status = ?", batchID, enums.PaymentStatusPending).
		Group("payor_id").
		Order("payor_id ASC").
		Scan(&totals).Error
	if err != nil {
		return nil, err
	}
	return totals, nil
}

func (r *repository) BranchTotals(ctx context.Context, batchID uuid.UUID) ([]BranchTotal, error) {
	var totals []BranchTotal
	err := r.db.WithContext(ctx).
		Table("payments").
		Select("payment_requests.employee_branch AS branch, SUM(payments.amount) AS total").
		Joins("JOIN payment_requests ON payment_requests.id = payments.payment_request_id").
		Where("payments.batch_id = ? AND payments.status = ?", batchID, enums.PaymentStatusPending).
		Group("payment_requests.employee_branch").
		Order("branch ASC").
		Scan(&totals).Error
	if err != nil {
		return nil, err
	}
	return totals, nil
}

func (r *repository) StatusEntries(ctx context.Context, batchID uuid.UUID) ([]StatusEntry, error) {
	var entries []StatusEntry
	err := r.db.WithContext(ctx).
		Table("payments").
		Select("id AS payment_id, external_payment_id, employee_id, payor_id, amount, status, message, created_at").
		Where("batch_id = ?", batchID).
		Order("created_at ASC").
		Scan(&entries).Error
	if err != nil {
		return nil, err
	}
	return entries, nil
}
