package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/kerjalink/kerjalink-backend/pkg/enums"
	"github.com/kerjalink/kerjalink-backend/pkg/money"
)

// WithdrawRequest tracks the admin workflow for a user withdrawal. The
// wallet is debited at creation; TransactionID references the PENDING
// WITHDRAWAL transaction so Send can complete exactly that row. Requests
// are never deleted; terminal statuses close them for audit.
type WithdrawRequest struct {
	ID              uuid.UUID            `gorm:"column:id;type:uuid;primaryKey"`
	UserID          uuid.UUID            `gorm:"column:user_id;type:uuid;not null;index"`
	MethodID        uuid.UUID            `gorm:"column:method_id;type:uuid;not null"`
	TransactionID   uuid.UUID            `gorm:"column:transaction_id;type:uuid;not null"`
	Amount          money.Money          `gorm:"column:amount;type:numeric(18,2);not null"`
	Status          enums.WithdrawStatus `gorm:"column:status;type:withdraw_status_enum;not null;default:PENDING"`
	AdminLockedBy   *uuid.UUID           `gorm:"column:admin_locked_by;type:uuid"`
	AdminNote       *string              `gorm:"column:admin_note"`
	TransferReceipt *string              `gorm:"column:transfer_receipt"`
	AdminApprovedBy *uuid.UUID           `gorm:"column:admin_approved_by;type:uuid"`
	AdminRejectedBy *uuid.UUID           `gorm:"column:admin_rejected_by;type:uuid"`
	CreatedAt       time.Time            `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time            `gorm:"column:updated_at;autoUpdateTime"`

	Method *WithdrawMethod `gorm:"foreignKey:MethodID"`
}
