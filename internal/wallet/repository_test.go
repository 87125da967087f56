package wallet

import (
	"context"
	"sync"
	"testing"

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

func setupWalletTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file:walletrepo?mode=memory&cache=shared"), &gorm.Config{})
	require.NoError(t, err)

	wallets := `
CREATE TABLE IF NOT EXISTS wallets (
  id TEXT PRIMARY KEY,
  user_id TEXT NOT NULL UNIQUE,
  balance NUMERIC NOT NULL DEFAULT 0,
  status TEXT NOT NULL DEFAULT 'ACTIVE',
  created_at DATETIME,
  updated_at DATETIME
);`
	platformWallets := `
CREATE TABLE IF NOT EXISTS platform_wallets (
  id INTEGER PRIMARY KEY,
  balance NUMERIC NOT NULL DEFAULT 0,
  updated_at DATETIME
);`
	require.NoError(t, db.Exec(wallets).Error)
	require.NoError(t, db.Exec(platformWallets).Error)
	require.NoError(t, db.Exec(`DELETE FROM wallets`).Error)
	require.NoError(t, db.Exec(`DELETE FROM platform_wallets`).Error)
	return db
}

func seedWallet(t *testing.T, db *gorm.DB, balance int64) *models.Wallet {
	t.Helper()
	wallet := &models.Wallet{
		UserID:  uuid.New(),
		Balance: money.FromInt(balance),
		Status:  enums.WalletStatusActive,
	}
	require.NoError(t, NewRepository(db).Create(context.Background(), wallet))
	return wallet
}

func TestCreateAssignsID(t *testing.T) {
	db := setupWalletTestDB(t)
	wallet := seedWallet(t, db, 0)
	assert.NotEqual(t, uuid.Nil, wallet.ID)
}

func TestCreateRefusesSecondWalletForUser(t *testing.T) {
	db := setupWalletTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	wallet := seedWallet(t, db, 0)

	err := repo.Create(ctx, &models.Wallet{
		UserID: wallet.UserID,
		Status: enums.WalletStatusActive,
	})
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeConflict))
}

func TestFindByUserID(t *testing.T) {
	db := setupWalletTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	wallet := seedWallet(t, db, 1000)

	found, err := repo.FindByUserID(ctx, wallet.UserID)
	require.NoError(t, err)
	assert.Equal(t, wallet.ID, found.ID)
	assert.True(t, found.Balance.Equal(money.FromInt(1000)))

	_, err = repo.FindByUserID(ctx, uuid.New())
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
}

func TestCreditAndDebitMoveBalance(t *testing.T) {
	db := setupWalletTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	wallet := seedWallet(t, db, 0)

	require.NoError(t, repo.Credit(ctx, wallet.ID, money.FromInt(50000)))
	require.NoError(t, repo.Debit(ctx, wallet.ID, money.FromInt(20000)))

	found, err := repo.FindByID(ctx, wallet.ID)
	require.NoError(t, err)
	assert.True(t, found.Balance.Equal(money.FromInt(30000)), "got %s", found.Balance)
}

func TestDebitRefusesOverdraft(t *testing.T) {
	db := setupWalletTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	wallet := seedWallet(t, db, 10000)

	err := repo.Debit(ctx, wallet.ID, money.FromInt(10001))
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeInsufficientFunds))

	// The first covering debit wins; a second identical one must fail.
	require.NoError(t, repo.Debit(ctx, wallet.ID, money.FromInt(10000)))
	err = repo.Debit(ctx, wallet.ID, money.FromInt(10000))
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeInsufficientFunds))

	found, err := repo.FindByID(ctx, wallet.ID)
	require.NoError(t, err)
	assert.True(t, found.Balance.IsZero())
}

func TestConcurrentDebitsNeverOverdraw(t *testing.T) {
	db := setupWalletTestDB(t)

	// A single pooled connection keeps SQLite from surfacing busy errors
	// while the debits still race at the call site.
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	repo := NewRepository(db)
	ctx := context.Background()

	wallet := seedWallet(t, db, 50000)
	debit := money.FromInt(10000)

	const attempts = 10
	results := make(chan error, attempts)
	var wg sync.WaitGroup
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results <- repo.Debit(ctx, wallet.ID, debit)
		}()
	}
	wg.Wait()
	close(results)

	succeeded := 0
	for err := range results {
		if err == nil {
			succeeded++
			continue
		}
		require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeInsufficientFunds), "unexpected error: %v", err)
	}
	// Exactly the covered debits win: 50,000 funds five of the ten.
	assert.Equal(t, 5, succeeded)

	found, err := repo.FindByID(ctx, wallet.ID)
	require.NoError(t, err)
	assert.False(t, found.Balance.IsNegative(), "balance went negative: %s", found.Balance)
	assert.True(t, found.Balance.IsZero(), "balance %s", found.Balance)
}

func TestDebitMissingWallet(t *testing.T) {
	db := setupWalletTestDB(t)
	repo := NewRepository(db)

	err := repo.Debit(context.Background(), uuid.New(), money.FromInt(100))
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
}

func TestDebitRejectsNonPositiveAmount(t *testing.T) {
	db := setupWalletTestDB(t)
	repo := NewRepository(db)
	wallet := seedWallet(t, db, 100)

	err := repo.Debit(context.Background(), wallet.ID, money.Zero())
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	err = repo.Credit(context.Background(), wallet.ID, money.Zero())
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}

func TestPlatformRepositoryCredit(t *testing.T) {
	db := setupWalletTestDB(t)
	repo := NewPlatformRepository(db)
	ctx := context.Background()

	// Not seeded yet.
	_, err := repo.Get(ctx)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeInternal))

	require.NoError(t, db.Create(&models.PlatformWallet{ID: 1}).Error)

	require.NoError(t, repo.Credit(ctx, money.FromInt(2500)))
	require.NoError(t, repo.Credit(ctx, money.FromInt(4500)))

	wallet, err := repo.Get(ctx)
	require.NoError(t, err)
	assert.True(t, wallet.Balance.Equal(money.FromInt(7000)), "got %s", wallet.Balance)
}
