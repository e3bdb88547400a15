package models

import (
	"time"

	"github.com/google/uuid"
)

// Merchant maps an external provider (plaid) id to the payment network's
// merchant id. Reference data refreshed from the network's merchant directory.
type Merchant struct {
	ID         uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	MerchantID string    `gorm:"column:merchant_id;not null"`
	PlaidID    string    `gorm:"column:plaid_id;not null;uniqueIndex"`
	CreatedAt  time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt  time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
