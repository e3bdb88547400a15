package models

import (
	"time"

	"github.com/google/uuid"
)

// PayorAccount is a verified ACH funding account for a corporate entity. Rows
// are persisted only after bank verification succeeds.
type PayorAccount struct {
	ID        uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	AccountID string    `gorm:"column:account_id;not null"`
	PayorID   string    `gorm:"column:payor_id;not null;uniqueIndex"`
	EntityID  string    `gorm:"column:entity_id;not null"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
}
