package reports

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// SourceTotal is the disbursed amount per funding source over pending
// payments.
type SourceTotal struct {
	PayorID string          `json:"payor_id" gorm:"column:payor_id"`
	Total   decimal.Decimal `json:"total" gorm:"column:total"`
}

// BranchTotal is the disbursed amount per employee branch over pending
// payments.
type BranchTotal struct {
	Branch string          `json:"branch" gorm:"column:branch"`
	Total  decimal.Decimal `json:"total" gorm:"column:total"`
}

// StatusEntry is one payment's final disposition inside a batch.
type StatusEntry struct {
	PaymentID         uuid.UUID       `json:"payment_id" gorm:"column:payment_id"`
	ExternalPaymentID *string         `json:"external_payment_id" gorm:"column:external_payment_id"`
	EmployeeID        string          `json:"employee_id" gorm:"column:employee_id"`
	PayorID           string          `json:"payor_id" gorm:"column:payor_id"`
	Amount            decimal.Decimal `json:"amount" gorm:"column:amount"`
	Status            string          `json:"status" gorm:"column:status"`
	Message           string          `json:"message" gorm:"column:message"`
	CreatedAt         time.Time       `json:"created_at" gorm:"column:created_at"`
}

// Repository runs the reporting aggregations.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	SourceTotals(ctx context.Context, batchID uuid.UUID) ([]SourceTotal, error)
	BranchTotals(ctx context.Context, batchID uuid.UUID) ([]BranchTotal, error)
	StatusEntries(ctx context.Context, batchID uuid.UUID) ([]StatusEntry, error)
}
