package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/disburse-labs/disburser-backend/pkg/enums"
)

// Batch is one uploaded payroll file's worth of payment instructions. Batches
// are never deleted, only transitioned to discarded.
type Batch struct {
	ID         uuid.UUID         `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	FileName   string            `gorm:"column:file_name;not null"`
	Status     enums.BatchStatus `gorm:"column:status;type:batch_status;not null;default:'unapproved'"`
	UploadedAt time.Time         `gorm:"column:uploaded_at;not null"`
	CreatedAt  time.Time         `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt  time.Time         `gorm:"column:updated_at;autoUpdateTime"`
}
