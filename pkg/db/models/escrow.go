package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/kerjalink/kerjalink-backend/pkg/enums"
	"github.com/kerjalink/kerjalink-backend/pkg/money"
)

// Escrow pins the compensation of an assigned job. One row per job,
// created when an application is accepted. While HELD the amount has
// already left the provider wallet and belongs to no wallet; RELEASED
// means net has gone to the worker and the fee to the platform.
type Escrow struct {
	ID         uuid.UUID          `gorm:"column:id;type:uuid;primaryKey"`
	JobID      uuid.UUID          `gorm:"column:job_id;type:uuid;not null;uniqueIndex"`
	Amount     money.Money        `gorm:"column:amount;type:numeric(18,2);not null"`
	Status     enums.EscrowStatus `gorm:"column:status;type:escrow_status_enum;not null;default:HELD"`
	ProviderID uuid.UUID          `gorm:"column:provider_id;type:uuid;not null"`
	WorkerID   uuid.UUID          `gorm:"column:worker_id;type:uuid;not null"`
	ReleasedAt *time.Time         `gorm:"column:released_at"`
	CreatedAt  time.Time          `gorm:"column:created_at;autoCreateTime"`
}
