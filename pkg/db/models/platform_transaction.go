package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/kerjalink/kerjalink-backend/pkg/enums"
	"github.com/kerjalink/kerjalink-backend/pkg/money"
)

// PlatformTransaction records a fee credited to the platform wallet.
type PlatformTransaction struct {
	ID          uuid.UUID                     `gorm:"column:id;type:uuid;primaryKey"`
	Amount      money.Money                   `gorm:"column:amount;type:numeric(18,2);not null"`
	Type        enums.PlatformTransactionType `gorm:"column:type;type:platform_transaction_type_enum;not null"`
	Description string                        `gorm:"column:description"`
	ReferenceID *uuid.UUID                    `gorm:"column:reference_id;type:uuid"`
	CreatedAt   time.Time                     `gorm:"column:created_at;autoCreateTime"`
}
