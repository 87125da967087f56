package models

import (
	"time"

	"github.com/kerjalink/kerjalink-backend/pkg/money"
)

// PlatformWallet is the single row that accumulates platform fees.
type PlatformWallet struct {
	ID        int64       `gorm:"column:id;primaryKey"`
	Balance   money.Money `gorm:"column:balance;type:numeric(18,2);not null;default:0"`
	UpdatedAt time.Time   `gorm:"column:updated_at;autoUpdateTime"`
}
