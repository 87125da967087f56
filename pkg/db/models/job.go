package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/kerjalink/kerjalink-backend/pkg/enums"
	"github.com/kerjalink/kerjalink-backend/pkg/money"
)

// Job carries the fields the ledger core reads and mutates. Posting,
// search and the rest of the job workflow live outside this service.
type Job struct {
	ID                 uuid.UUID       `gorm:"column:id;type:uuid;primaryKey"`
	ProviderID         uuid.UUID       `gorm:"column:provider_id;type:uuid;not null"`
	WorkerID           *uuid.UUID      `gorm:"column:worker_id;type:uuid"`
	CompensationAmount money.Money     `gorm:"column:compensation_amount;type:numeric(18,2);not null"`
	Status             enums.JobStatus `gorm:"column:status;type:job_status_enum;not null;default:OPEN"`
	RejectionCount     int             `gorm:"column:rejection_count;not null;default:0"`
	CompletedAt        *time.Time      `gorm:"column:completed_at"`
	CreatedAt          time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt          time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}
