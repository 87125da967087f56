package reports

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/kerjalink/kerjalink-backend/pkg/db/models"
	"github.com/kerjalink/kerjalink-backend/pkg/enums"
	pkgerrors "github.com/kerjalink/kerjalink-backend/pkg/errors"
	"github.com/kerjalink/kerjalink-backend/pkg/money"
)

func setupReportsDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file:reportsrepo?mode=memory&cache=shared"), &gorm.Config{})
	require.NoError(t, err)

	statements := []string{
		`CREATE TABLE IF NOT EXISTS transactions (
  id TEXT PRIMARY KEY,
  amount NUMERIC NOT NULL,
  transaction_type TEXT NOT NULL,
  status TEXT NOT NULL DEFAULT 'PENDING',
  source_wallet_id TEXT,
  destination_wallet_id TEXT,
  job_id TEXT,
  created_at DATETIME,
  updated_at DATETIME
);`,
		`CREATE TABLE IF NOT EXISTS platform_transactions (
  id TEXT PRIMARY KEY,
  amount NUMERIC NOT NULL,
  type TEXT NOT NULL,
  description TEXT,
  reference_id TEXT,
  created_at DATETIME
);`,
		`CREATE TABLE IF NOT EXISTS platform_wallets (
  id INTEGER PRIMARY KEY,
  balance NUMERIC NOT NULL DEFAULT 0,
  updated_at DATETIME
);`,
		`CREATE TABLE IF NOT EXISTS escrows (
  id TEXT PRIMARY KEY,
  job_id TEXT NOT NULL UNIQUE,
  amount NUMERIC NOT NULL,
  status TEXT NOT NULL DEFAULT 'HELD',
  provider_id TEXT NOT NULL,
  worker_id TEXT NOT NULL,
  released_at DATETIME,
  created_at DATETIME
);`,
		`CREATE TABLE IF NOT EXISTS withdraw_requests (
  id TEXT PRIMARY KEY,
  user_id TEXT NOT NULL,
  method_id TEXT NOT NULL,
  transaction_id TEXT NOT NULL,
  amount NUMERIC NOT NULL,
  status TEXT NOT NULL DEFAULT 'PENDING',
  admin_locked_by TEXT,
  admin_note TEXT,
  transfer_receipt TEXT,
  admin_approved_by TEXT,
  admin_rejected_by TEXT,
  created_at DATETIME,
  updated_at DATETIME
);`,
	}
	for _, stmt := range statements {
		require.NoError(t, db.Exec(stmt).Error)
	}
	for _, table := range []string{"transactions", "platform_transactions", "platform_wallets", "escrows", "withdraw_requests"} {
		require.NoError(t, db.Exec("DELETE FROM "+table).Error)
	}
	return db
}

func seedTransaction(t *testing.T, db *gorm.DB, transactionType enums.TransactionType, status enums.TransactionStatus, amount int64, createdAt time.Time) {
	t.Helper()
	walletID := uuid.New()
	require.NoError(t, db.Create(&models.Transaction{
		ID:                  uuid.New(),
		Amount:              money.FromInt(amount),
		Type:                transactionType,
		Status:              status,
		DestinationWalletID: &walletID,
		CreatedAt:           createdAt,
	}).Error)
}

func TestDashboardSummaryAggregates(t *testing.T) {
	db := setupReportsDB(t)
	repo := NewRepository(db)
	svc, err := NewService(repo)
	require.NoError(t, err)
	ctx := context.Background()

	from := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 1, 0)
	inPeriod := from.Add(24 * time.Hour)

	seedTransaction(t, db, enums.TransactionTypeFunding, enums.TransactionStatusCompleted, 50000, inPeriod)
	seedTransaction(t, db, enums.TransactionTypeFunding, enums.TransactionStatusCompleted, 25000, inPeriod)
	// Pending rows and rows outside the window stay out of the sums.
	seedTransaction(t, db, enums.TransactionTypeFunding, enums.TransactionStatusPending, 99999, inPeriod)
	seedTransaction(t, db, enums.TransactionTypeFunding, enums.TransactionStatusCompleted, 11111, to.Add(time.Hour))
	seedTransaction(t, db, enums.TransactionTypeWithdrawal, enums.TransactionStatusCompleted, 15000, inPeriod)
	seedTransaction(t, db, enums.TransactionTypeEscrowRelease, enums.TransactionStatusCompleted, 47500, inPeriod)

	require.NoError(t, db.Create(&models.PlatformWallet{ID: 1, Balance: money.FromInt(7000)}).Error)
	refID := uuid.New()
	require.NoError(t, db.Create(&models.PlatformTransaction{
		ID:          uuid.New(),
		Amount:      money.FromInt(2500),
		Type:        enums.PlatformTransactionTypeEscrowFee,
		ReferenceID: &refID,
		CreatedAt:   inPeriod,
	}).Error)
	require.NoError(t, db.Create(&models.Escrow{
		ID:         uuid.New(),
		JobID:      uuid.New(),
		Amount:     money.FromInt(50000),
		Status:     enums.EscrowStatusHeld,
		ProviderID: uuid.New(),
		WorkerID:   uuid.New(),
	}).Error)
	require.NoError(t, db.Create(&models.WithdrawRequest{
		ID:            uuid.New(),
		UserID:        uuid.New(),
		MethodID:      uuid.New(),
		TransactionID: uuid.New(),
		Amount:        money.FromInt(15000),
		Status:        enums.WithdrawStatusPending,
	}).Error)
	require.NoError(t, db.Create(&models.WithdrawRequest{
		ID:            uuid.New(),
		UserID:        uuid.New(),
		MethodID:      uuid.New(),
		TransactionID: uuid.New(),
		Amount:        money.FromInt(8000),
		Status:        enums.WithdrawStatusSent,
	}).Error)

	summary, err := svc.DashboardSummary(ctx, from, to)
	require.NoError(t, err)
	assert.True(t, summary.FundingInflow.Equal(money.FromInt(75000)), "inflow %s", summary.FundingInflow)
	assert.True(t, summary.WithdrawalOutflow.Equal(money.FromInt(15000)), "withdrawals %s", summary.WithdrawalOutflow)
	assert.True(t, summary.EscrowOutflow.Equal(money.FromInt(47500)), "escrow %s", summary.EscrowOutflow)
	assert.True(t, summary.PlatformFees.Equal(money.FromInt(2500)), "fees %s", summary.PlatformFees)
	assert.True(t, summary.PlatformBalance.Equal(money.FromInt(7000)), "platform %s", summary.PlatformBalance)
	assert.True(t, summary.HeldEscrowTotal.Equal(money.FromInt(50000)), "held %s", summary.HeldEscrowTotal)
	assert.True(t, summary.OpenWithdrawTotals.Equal(money.FromInt(15000)), "open withdraws %s", summary.OpenWithdrawTotals)
}

func TestDashboardSummaryEmptyPeriod(t *testing.T) {
	db := setupReportsDB(t)
	svc, err := NewService(NewRepository(db))
	require.NoError(t, err)

	from := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	summary, err := svc.DashboardSummary(context.Background(), from, from.AddDate(0, 1, 0))
	require.NoError(t, err)
	assert.True(t, summary.FundingInflow.IsZero())
	assert.True(t, summary.PlatformFees.IsZero())
	assert.True(t, summary.HeldEscrowTotal.IsZero())
}

func TestDashboardSummaryValidatesPeriod(t *testing.T) {
	db := setupReportsDB(t)
	svc, err := NewService(NewRepository(db))
	require.NoError(t, err)

	now := time.Now().UTC()
	_, err = svc.DashboardSummary(context.Background(), now, now)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	_, err = svc.DashboardSummary(context.Background(), time.Time{}, now)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}
