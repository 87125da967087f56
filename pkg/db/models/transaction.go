package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/kerjalink/kerjalink-backend/pkg/enums"
	"github.com/kerjalink/kerjalink-backend/pkg/money"
)

// Transaction is an append-oriented record of a balance movement. The id
// doubles as the gateway order id for FUNDING topups.
type Transaction struct {
	ID                  uuid.UUID               `gorm:"column:id;type:uuid;primaryKey"`
	Amount              money.Money             `gorm:"column:amount;type:numeric(18,2);not null"`
	Type                enums.TransactionType   `gorm:"column:transaction_type;type:transaction_type_enum;not null"`
	Status              enums.TransactionStatus `gorm:"column:status;type:transaction_status_enum;not null;default:PENDING"`
	SourceWalletID      *uuid.UUID              `gorm:"column:source_wallet_id;type:uuid"`
	DestinationWalletID *uuid.UUID              `gorm:"column:destination_wallet_id;type:uuid"`
	JobID               *uuid.UUID              `gorm:"column:job_id;type:uuid"`
	CreatedAt           time.Time               `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt           time.Time               `gorm:"column:updated_at;autoUpdateTime"`
}
