package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/kerjalink/kerjalink-backend/pkg/enums"
	"github.com/kerjalink/kerjalink-backend/pkg/money"
)

// Wallet holds a user's spendable balance. The balance is only ever moved
// by relative credit/debit updates inside a transaction; it never goes
// negative (enforced by the conditional debit and a CHECK constraint).
type Wallet struct {
	ID        uuid.UUID          `gorm:"column:id;type:uuid;primaryKey"`
	UserID    uuid.UUID          `gorm:"column:user_id;type:uuid;not null;uniqueIndex"`
	Balance   money.Money        `gorm:"column:balance;type:numeric(18,2);not null;default:0"`
	Status    enums.WalletStatus `gorm:"column:status;type:wallet_status_enum;not null;default:ACTIVE"`
	CreatedAt time.Time          `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time          `gorm:"column:updated_at;autoUpdateTime"`
}
