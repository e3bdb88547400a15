package models

import (
	"time"

	"github.com/google/uuid"
)

// IndividualEntity maps an internal employee identifier to the payment
// network's entity reference.
type IndividualEntity struct {
	ID         uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	EntityID   string    `gorm:"column:entity_id;not null"`
	EmployeeID string    `gorm:"column:employee_id;not null;uniqueIndex"`
	Branch     string    `gorm:"column:branch;not null"`
	CreatedAt  time.Time `gorm:"column:created_at;autoCreateTime"`
}
