package ledger

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
	"github.com/kerjalink/kerjalink-backend/pkg/pagination"
)

func setupLedgerTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file:ledgerrepo?mode=memory&cache=shared"), &gorm.Config{})
	require.NoError(t, err)

	transactions := `
CREATE TABLE IF NOT EXISTS transactions (
  id TEXT PRIMARY KEY,
  amount NUMERIC NOT NULL,
  transaction_type TEXT NOT NULL,
  status TEXT NOT NULL DEFAULT 'PENDING',
  source_wallet_id TEXT,
  destination_wallet_id TEXT,
  job_id TEXT,
  created_at DATETIME,
  updated_at DATETIME
);`
	platformTransactions := `
CREATE TABLE IF NOT EXISTS platform_transactions (
  id TEXT PRIMARY KEY,
  amount NUMERIC NOT NULL,
  type TEXT NOT NULL,
  description TEXT,
  reference_id TEXT,
  created_at DATETIME
);`
	require.NoError(t, db.Exec(transactions).Error)
	require.NoError(t, db.Exec(platformTransactions).Error)
	require.NoError(t, db.Exec(`DELETE FROM transactions`).Error)
	require.NoError(t, db.Exec(`DELETE FROM platform_transactions`).Error)
	return db
}

func newPendingTransaction(walletID uuid.UUID) *models.Transaction {
	return &models.Transaction{
		Amount:              money.FromInt(50000),
		Type:                enums.TransactionTypeFunding,
		Status:              enums.TransactionStatusPending,
		DestinationWalletID: &walletID,
	}
}

func TestCreateAssignsID(t *testing.T) {
	db := setupLedgerTestDB(t)
	repo := NewRepository(db)

	transaction := newPendingTransaction(uuid.New())
	require.NoError(t, repo.Create(context.Background(), transaction))
	assert.NotEqual(t, uuid.Nil, transaction.ID)
}

func TestMarkCompletedIsSingleShot(t *testing.T) {
	db := setupLedgerTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	transaction := newPendingTransaction(uuid.New())
	require.NoError(t, repo.Create(ctx, transaction))

	require.NoError(t, repo.MarkCompleted(ctx, transaction.ID))

	err := repo.MarkCompleted(ctx, transaction.ID)
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeInvalidTransition))

	found, err := repo.FindByID(ctx, transaction.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.TransactionStatusCompleted, found.Status)
}

func TestMarkCompletedMissingTransaction(t *testing.T) {
	db := setupLedgerTestDB(t)
	repo := NewRepository(db)

	err := repo.MarkCompleted(context.Background(), uuid.New())
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
}

func TestListByWalletPaginates(t *testing.T) {
	db := setupLedgerTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()
	walletID := uuid.New()

	base := time.Now().Add(-time.Hour)
	for i := 0; i < 5; i++ {
		transaction := &models.Transaction{
			ID:                  uuid.New(),
			Amount:              money.FromInt(int64(1000 * (i + 1))),
			Type:                enums.TransactionTypeFunding,
			Status:              enums.TransactionStatusCompleted,
			DestinationWalletID: &walletID,
			CreatedAt:           base.Add(time.Duration(i) * time.Minute),
		}
		require.NoError(t, db.Create(transaction).Error)
	}
	// A transaction for another wallet must not appear.
	otherWallet := uuid.New()
	require.NoError(t, db.Create(newPendingTransaction(otherWallet)).Error)

	page, cursor, err := repo.ListByWallet(ctx, walletID, pagination.Params{Limit: 3})
	require.NoError(t, err)
	require.Len(t, page, 3)
	require.NotEmpty(t, cursor)
	assert.True(t, page[0].CreatedAt.After(page[1].CreatedAt))

	rest, next, err := repo.ListByWallet(ctx, walletID, pagination.Params{Limit: 3, Cursor: cursor})
	require.NoError(t, err)
	assert.Len(t, rest, 2)
	assert.Empty(t, next)

	for _, transaction := range append(page, rest...) {
		require.NotNil(t, transaction.DestinationWalletID)
		assert.Equal(t, walletID, *transaction.DestinationWalletID)
	}
}

func TestListByWalletRejectsBadCursor(t *testing.T) {
	db := setupLedgerTestDB(t)
	repo := NewRepository(db)

	_, _, err := repo.ListByWallet(context.Background(), uuid.New(), pagination.Params{Cursor: "not-base64!!"})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}

func TestCreatePlatform(t *testing.T) {
	db := setupLedgerTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	ref := uuid.New()
	transaction := &models.PlatformTransaction{
		Amount:      money.FromInt(2500),
		Type:        enums.PlatformTransactionTypeEscrowFee,
		Description: "escrow release fee",
		ReferenceID: &ref,
	}
	require.NoError(t, repo.CreatePlatform(ctx, transaction))
	assert.NotEqual(t, uuid.Nil, transaction.ID)

	var count int64
	require.NoError(t, db.Model(&models.PlatformTransaction{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}
