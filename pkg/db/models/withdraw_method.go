package models

import (
	"time"

	"github.com/google/uuid"
)

// WithdrawMethod is a payout destination owned by a user. AccountNumber
// is stored encrypted and decrypted only at the point of display/payout.
type WithdrawMethod struct {
	ID            uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	UserID        uuid.UUID `gorm:"column:user_id;type:uuid;not null;index"`
	Method        string    `gorm:"column:method;not null"`
	Provider      string    `gorm:"column:provider;not null"`
	AccountName   string    `gorm:"column:account_name;not null"`
	AccountNumber string    `gorm:"column:account_number;not null"`
	IsActive      bool      `gorm:"column:is_active;not null;default:true"`
	CreatedAt     time.Time `gorm:"column:created_at;autoCreateTime"`
}
