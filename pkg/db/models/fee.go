package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/kerjalink/kerjalink-backend/pkg/enums"
)

// Fee is admin-managed configuration resolved by name at charge time.
// The ledger core reads fees; it never mutates them.
type Fee struct {
	ID        uuid.UUID       `gorm:"column:id;type:uuid;primaryKey"`
	Name      string          `gorm:"column:name;not null;uniqueIndex"`
	Value     decimal.Decimal `gorm:"column:value;type:numeric(18,2);not null"`
	FeeType   enums.FeeType   `gorm:"column:fee_type;type:fee_type_enum;not null"`
	Active    bool            `gorm:"column:active;not null;default:true"`
	CreatedAt time.Time       `gorm:"column:created_at;autoCreateTime"`
}
