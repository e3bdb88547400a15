package models

import (
	"time"

	"github.com/google/uuid"
)

// CorporateEntity maps a payor's EIN to the payment network's entity reference.
// One row exists per unique EIN and is reused across batches.
type CorporateEntity struct {
	ID        uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	EntityID  string    `gorm:"column:entity_id;not null"`
	EIN       string    `gorm:"column:ein;not null;uniqueIndex"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
}
