package models

import (
	"time"

	"github.com/google/uuid"
)

// PayeeAccount is a liability (loan) account for an individual entity, keyed by
// the provider's plaid id. Payee accounts are not verifiable server-side; the
// payee leg is verified through a separate interactive workflow.
type PayeeAccount struct {
	ID        uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	AccountID string    `gorm:"column:account_id;not null"`
	PlaidID   string    `gorm:"column:plaid_id;not null;uniqueIndex"`
	EntityID  string    `gorm:"column:entity_id;not null"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
}
