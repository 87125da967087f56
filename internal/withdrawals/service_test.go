package withdrawals

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/kerjalink/kerjalink-backend/internal/fees"
	"github.com/kerjalink/kerjalink-backend/internal/ledger"
	"github.com/kerjalink/kerjalink-backend/internal/wallet"
	"github.com/kerjalink/kerjalink-backend/pkg/config"
	"github.com/kerjalink/kerjalink-backend/pkg/db/models"
	"github.com/kerjalink/kerjalink-backend/pkg/enums"
	pkgerrors "github.com/kerjalink/kerjalink-backend/pkg/errors"
	"github.com/kerjalink/kerjalink-backend/pkg/logger"
	"github.com/kerjalink/kerjalink-backend/pkg/money"
	"github.com/kerjalink/kerjalink-backend/pkg/security"
)

type gormTxRunner struct {
	db *gorm.DB
}

func (r *gormTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return r.db.WithContext(ctx).Transaction(fn)
}

type withdrawFixture struct {
	db       *gorm.DB
	svc      Service
	wallets  wallet.Repository
	platform wallet.PlatformRepository
	ledger   ledger.Repository
	requests RequestRepository
}

func setupWithdrawServiceDB(t *testing.T) *withdrawFixture {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file:withdrawsvc?mode=memory&cache=shared"), &gorm.Config{})
	require.NoError(t, err)

	statements := []string{
		`CREATE TABLE IF NOT EXISTS wallets (
  id TEXT PRIMARY KEY,
  user_id TEXT NOT NULL UNIQUE,
  balance NUMERIC NOT NULL DEFAULT 0,
  status TEXT NOT NULL DEFAULT 'ACTIVE',
  created_at DATETIME,
  updated_at DATETIME
);`,
		`CREATE TABLE IF NOT EXISTS platform_wallets (
  id INTEGER PRIMARY KEY,
  balance NUMERIC NOT NULL DEFAULT 0,
  updated_at DATETIME
);`,
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
		`CREATE TABLE IF NOT EXISTS fees (
  id TEXT PRIMARY KEY,
  name TEXT NOT NULL UNIQUE,
  value NUMERIC NOT NULL,
  fee_type TEXT NOT NULL,
  active INTEGER NOT NULL DEFAULT 1,
  created_at DATETIME
);`,
		`CREATE TABLE IF NOT EXISTS withdraw_methods (
  id TEXT PRIMARY KEY,
  user_id TEXT NOT NULL,
  method TEXT NOT NULL,
  provider TEXT NOT NULL,
  account_name TEXT NOT NULL,
  account_number TEXT NOT NULL,
  is_active INTEGER NOT NULL DEFAULT 1,
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
	for _, table := range []string{"wallets", "platform_wallets", "transactions", "platform_transactions", "fees", "withdraw_methods", "withdraw_requests"} {
		require.NoError(t, db.Exec("DELETE FROM "+table).Error)
	}

	walletRepo := wallet.NewRepository(db)
	platformRepo := wallet.NewPlatformRepository(db)
	ledgerRepo := ledger.NewRepository(db)
	methodRepo := NewMethodRepository(db)
	requestRepo := NewRequestRepository(db)
	feeRepo := fees.NewRepository(db)
	feeEngine, err := fees.NewEngine(feeRepo)
	require.NoError(t, err)

	cipher, err := security.NewCipher(config.EncryptionConfig{
		Passphrase: "test-passphrase",
		Salt:       "test-salt",
	})
	require.NoError(t, err)

	svc, err := NewService(ServiceParams{
		TxRunner:          &gormTxRunner{db: db},
		Methods:           methodRepo,
		Requests:          requestRepo,
		Wallets:           walletRepo,
		Platform:          platformRepo,
		Transactions:      ledgerRepo,
		Fees:              feeEngine,
		Cipher:            cipher,
		Logger:            logger.New(logger.Options{ServiceName: "test"}),
		MaxMethodsPerUser: 5,
	})
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, db.Create(&models.PlatformWallet{ID: 1}).Error)
	require.NoError(t, feeRepo.Create(ctx, &models.Fee{
		Name:    fees.WithdrawFeeName,
		Value:   decimal.NewFromInt(4500),
		FeeType: enums.FeeTypeFixed,
		Active:  true,
	}))

	return &withdrawFixture{
		db:       db,
		svc:      svc,
		wallets:  walletRepo,
		platform: platformRepo,
		ledger:   ledgerRepo,
		requests: requestRepo,
	}
}

func seedUserWithMethod(t *testing.T, f *withdrawFixture, balance int64) (uuid.UUID, *MethodView) {
	t.Helper()
	ctx := context.Background()

	userID := uuid.New()
	require.NoError(t, f.wallets.Create(ctx, &models.Wallet{
		UserID:  userID,
		Balance: money.FromInt(balance),
		Status:  enums.WalletStatusActive,
	}))

	method, err := f.svc.AddMethod(ctx, AddMethodInput{
		UserID:        userID,
		Method:        "BANK_TRANSFER",
		Provider:      "BCA",
		AccountName:   "Budi Santoso",
		AccountNumber: "1234567890",
	})
	require.NoError(t, err)
	return userID, method
}

func TestAddMethodEncryptsAndMasks(t *testing.T) {
	f := setupWithdrawServiceDB(t)
	ctx := context.Background()

	userID, method := seedUserWithMethod(t, f, 0)
	assert.Equal(t, "******7890", method.AccountNumber)

	// The stored row never holds plaintext.
	var stored models.WithdrawMethod
	require.NoError(t, f.db.First(&stored, "id = ?", method.ID).Error)
	assert.NotEqual(t, "1234567890", stored.AccountNumber)

	views, err := f.svc.ListMethods(ctx, userID)
	require.NoError(t, err)
	require.Len(t, views, 1)
	assert.Equal(t, "******7890", views[0].AccountNumber)
}

func TestAddMethodEnforcesLimit(t *testing.T) {
	f := setupWithdrawServiceDB(t)
	ctx := context.Background()

	userID, _ := seedUserWithMethod(t, f, 0)
	for i := 0; i < 4; i++ {
		_, err := f.svc.AddMethod(ctx, AddMethodInput{
			UserID:        userID,
			Method:        "E_WALLET",
			Provider:      "GOPAY",
			AccountName:   "Budi Santoso",
			AccountNumber: "0811000000",
		})
		require.NoError(t, err)
	}

	_, err := f.svc.AddMethod(ctx, AddMethodInput{
		UserID:        userID,
		Method:        "E_WALLET",
		Provider:      "OVO",
		AccountName:   "Budi Santoso",
		AccountNumber: "0811000001",
	})
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeConflict))
}

func TestCreateRequestDebitsWalletAndLinksTransaction(t *testing.T) {
	f := setupWithdrawServiceDB(t)
	ctx := context.Background()

	userID, method := seedUserWithMethod(t, f, 20000)
	request, err := f.svc.CreateRequest(ctx, CreateRequestInput{
		UserID:   userID,
		MethodID: method.ID,
		Amount:   money.FromInt(15000),
	})
	require.NoError(t, err)
	assert.Equal(t, enums.WithdrawStatusPending, request.Status)

	userWallet, err := f.wallets.FindByUserID(ctx, userID)
	require.NoError(t, err)
	assert.True(t, userWallet.Balance.Equal(money.FromInt(5000)), "balance %s", userWallet.Balance)

	transaction, err := f.ledger.FindByID(ctx, request.TransactionID)
	require.NoError(t, err)
	assert.Equal(t, enums.TransactionTypeWithdrawal, transaction.Type)
	assert.Equal(t, enums.TransactionStatusPending, transaction.Status)
	require.NotNil(t, transaction.SourceWalletID)
	assert.Equal(t, userWallet.ID, *transaction.SourceWalletID)
}

func TestCreateRequestInsufficientFunds(t *testing.T) {
	f := setupWithdrawServiceDB(t)
	ctx := context.Background()

	userID, method := seedUserWithMethod(t, f, 5000)
	_, err := f.svc.CreateRequest(ctx, CreateRequestInput{
		UserID:   userID,
		MethodID: method.ID,
		Amount:   money.FromInt(15000),
	})
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeInsufficientFunds))

	// Nothing persisted: no request, no transaction, balance intact.
	var requestCount int64
	require.NoError(t, f.db.Model(&models.WithdrawRequest{}).Where("user_id = ?", userID).Count(&requestCount).Error)
	assert.Zero(t, requestCount)

	userWallet, err := f.wallets.FindByUserID(ctx, userID)
	require.NoError(t, err)
	assert.True(t, userWallet.Balance.Equal(money.FromInt(5000)))
}

func TestCreateRequestRefusesForeignMethod(t *testing.T) {
	f := setupWithdrawServiceDB(t)
	ctx := context.Background()

	_, method := seedUserWithMethod(t, f, 20000)
	otherID, _ := seedUserWithMethod(t, f, 20000)

	_, err := f.svc.CreateRequest(ctx, CreateRequestInput{
		UserID:   otherID,
		MethodID: method.ID,
		Amount:   money.FromInt(1000),
	})
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeForbidden))
}

func TestRejectRefundsFullAmount(t *testing.T) {
	f := setupWithdrawServiceDB(t)
	ctx := context.Background()

	userID, method := seedUserWithMethod(t, f, 20000)
	request, err := f.svc.CreateRequest(ctx, CreateRequestInput{
		UserID:   userID,
		MethodID: method.ID,
		Amount:   money.FromInt(15000),
	})
	require.NoError(t, err)

	adminID := uuid.New()
	require.NoError(t, f.svc.Lock(ctx, request.ID, adminID))
	require.NoError(t, f.svc.Reject(ctx, request.ID, adminID, "name mismatch"))

	userWallet, err := f.wallets.FindByUserID(ctx, userID)
	require.NoError(t, err)
	assert.True(t, userWallet.Balance.Equal(money.FromInt(20000)), "balance %s", userWallet.Balance)

	rejected, err := f.requests.FindByID(ctx, request.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.WithdrawStatusRejected, rejected.Status)

	// The original withdrawal stays pending; the refund is a separate
	// completed funding entry.
	original, err := f.ledger.FindByID(ctx, request.TransactionID)
	require.NoError(t, err)
	assert.Equal(t, enums.TransactionStatusPending, original.Status)

	var refundCount int64
	require.NoError(t, f.db.Model(&models.Transaction{}).
		Where("transaction_type = ? AND status = ? AND destination_wallet_id = ?",
			enums.TransactionTypeFunding, enums.TransactionStatusCompleted, userWallet.ID).
		Count(&refundCount).Error)
	assert.Equal(t, int64(1), refundCount)
}

func TestApproveReturnsDecryptedPayoutDetails(t *testing.T) {
	f := setupWithdrawServiceDB(t)
	ctx := context.Background()

	userID, method := seedUserWithMethod(t, f, 20000)
	request, err := f.svc.CreateRequest(ctx, CreateRequestInput{
		UserID:   userID,
		MethodID: method.ID,
		Amount:   money.FromInt(15000),
	})
	require.NoError(t, err)

	adminID := uuid.New()
	require.NoError(t, f.svc.Lock(ctx, request.ID, adminID))

	details, err := f.svc.Approve(ctx, request.ID, adminID, "verified")
	require.NoError(t, err)
	assert.Equal(t, "1234567890", details.AccountNumber)
	assert.Equal(t, "Budi Santoso", details.AccountName)
	assert.Equal(t, "BCA", details.Provider)
	assert.True(t, details.Amount.Equal(money.FromInt(15000)))
	assert.True(t, details.FeeAmount.Equal(money.FromInt(4500)), "fee %s", details.FeeAmount)
	assert.True(t, details.NetAmount.Equal(money.FromInt(10500)), "net %s", details.NetAmount)

	// Approval moves no money.
	userWallet, err := f.wallets.FindByUserID(ctx, userID)
	require.NoError(t, err)
	assert.True(t, userWallet.Balance.Equal(money.FromInt(5000)))
}

func TestApproveFailureLeavesRequestProcessing(t *testing.T) {
	f := setupWithdrawServiceDB(t)
	ctx := context.Background()

	userID, method := seedUserWithMethod(t, f, 20000)
	request, err := f.svc.CreateRequest(ctx, CreateRequestInput{
		UserID:   userID,
		MethodID: method.ID,
		Amount:   money.FromInt(15000),
	})
	require.NoError(t, err)

	adminID := uuid.New()
	require.NoError(t, f.svc.Lock(ctx, request.ID, adminID))

	// The fee is deactivated between lock and approve; the approval must
	// fail without moving the request out of PROCESSING.
	require.NoError(t, f.db.Exec("UPDATE fees SET active = 0 WHERE name = ?", fees.WithdrawFeeName).Error)

	_, err = f.svc.Approve(ctx, request.ID, adminID, "")
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeFeeUnavailable))

	stuck, err := f.requests.FindByID(ctx, request.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.WithdrawStatusProcessing, stuck.Status)

	// Once the fee is back the same admin can retry.
	require.NoError(t, f.db.Exec("UPDATE fees SET active = 1 WHERE name = ?", fees.WithdrawFeeName).Error)
	details, err := f.svc.Approve(ctx, request.ID, adminID, "")
	require.NoError(t, err)
	assert.Equal(t, "1234567890", details.AccountNumber)
}

func TestApproveWithoutLockFails(t *testing.T) {
	f := setupWithdrawServiceDB(t)
	ctx := context.Background()

	userID, method := seedUserWithMethod(t, f, 20000)
	request, err := f.svc.CreateRequest(ctx, CreateRequestInput{
		UserID:   userID,
		MethodID: method.ID,
		Amount:   money.FromInt(15000),
	})
	require.NoError(t, err)

	_, err = f.svc.Approve(ctx, request.ID, uuid.New(), "")
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeInvalidTransition))
}

func TestSendCompletesTransactionAndChargesFee(t *testing.T) {
	f := setupWithdrawServiceDB(t)
	ctx := context.Background()

	userID, method := seedUserWithMethod(t, f, 20000)
	request, err := f.svc.CreateRequest(ctx, CreateRequestInput{
		UserID:   userID,
		MethodID: method.ID,
		Amount:   money.FromInt(15000),
	})
	require.NoError(t, err)

	adminID := uuid.New()
	require.NoError(t, f.svc.Lock(ctx, request.ID, adminID))
	_, err = f.svc.Approve(ctx, request.ID, adminID, "")
	require.NoError(t, err)

	require.NoError(t, f.svc.Send(ctx, request.ID, adminID, "TRX-20250301-001"))

	sent, err := f.requests.FindByID(ctx, request.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.WithdrawStatusSent, sent.Status)
	require.NotNil(t, sent.TransferReceipt)
	assert.Equal(t, "TRX-20250301-001", *sent.TransferReceipt)

	transaction, err := f.ledger.FindByID(ctx, request.TransactionID)
	require.NoError(t, err)
	assert.Equal(t, enums.TransactionStatusCompleted, transaction.Status)

	platformWallet, err := f.platform.Get(ctx)
	require.NoError(t, err)
	assert.True(t, platformWallet.Balance.Equal(money.FromInt(4500)), "platform balance %s", platformWallet.Balance)

	var feeCount int64
	require.NoError(t, f.db.Model(&models.PlatformTransaction{}).
		Where("type = ?", enums.PlatformTransactionTypeWithdrawFee).
		Count(&feeCount).Error)
	assert.Equal(t, int64(1), feeCount)

	// A second send is refused and books no second fee.
	err = f.svc.Send(ctx, request.ID, adminID, "TRX-20250301-002")
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeInvalidTransition))
	platformWallet, err = f.platform.Get(ctx)
	require.NoError(t, err)
	assert.True(t, platformWallet.Balance.Equal(money.FromInt(4500)))
}
