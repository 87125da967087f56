package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/kerjalink/kerjalink-backend/pkg/enums"
)

// JobApplication links a worker to a job posting. Acceptance is what
// triggers the escrow hold; competing open applications are rejected in
// the same transaction.
type JobApplication struct {
	ID        uuid.UUID               `gorm:"column:id;type:uuid;primaryKey"`
	JobID     uuid.UUID               `gorm:"column:job_id;type:uuid;not null;index"`
	WorkerID  uuid.UUID               `gorm:"column:worker_id;type:uuid;not null"`
	Status    enums.ApplicationStatus `gorm:"column:status;type:application_status_enum;not null;default:PENDING"`
	CreatedAt time.Time               `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time               `gorm:"column:updated_at;autoUpdateTime"`
}
