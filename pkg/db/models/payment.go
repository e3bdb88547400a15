package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/disburse-labs/disburser-backend/pkg/enums"
)

// Payment is the immutable audit record of one external submission attempt.
// Exactly one row is written per processing attempt, success or failure; the
// external payment id is nil when the submission was rejected.
type Payment struct {
	ID               uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	BatchID          uuid.UUID `gorm:"column:batch_id;type:uuid;not null;index"`
	PaymentRequestID uuid.UUID `gorm:"column:payment_request_id;type:uuid;not null;index"`

	ExternalPaymentID *string `gorm:"column:external_payment_id"`

	EmployeeID string `gorm:"column:employee_id;not null"`
	PayorID    string `gorm:"column:payor_id;not null"`

	CorporateEntityID  *string `gorm:"column:corporate_entity_id"`
	IndividualEntityID *string `gorm:"column:individual_entity_id"`
	PayorAccountID     *string `gorm:"column:payor_account_id"`
	PayeeAccountID     *string `gorm:"column:payee_account_id"`

	Amount  decimal.Decimal     `gorm:"column:amount;type:numeric(12,2);not null"`
	Status  enums.PaymentStatus `gorm:"column:status;type:payment_status;not null"`
	Message string              `gorm:"column:message;not null;default:''"`

	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
}
