package topup

import (
	"context"
	"crypto/sha512"
	"encoding/hex"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/kerjalink/kerjalink-backend/internal/ledger"
	"github.com/kerjalink/kerjalink-backend/internal/wallet"
	"github.com/kerjalink/kerjalink-backend/pkg/db/models"
	"github.com/kerjalink/kerjalink-backend/pkg/enums"
	pkgerrors "github.com/kerjalink/kerjalink-backend/pkg/errors"
	"github.com/kerjalink/kerjalink-backend/pkg/logger"
	"github.com/kerjalink/kerjalink-backend/pkg/midtrans"
	"github.com/kerjalink/kerjalink-backend/pkg/money"
)

const fakeServerKey = "test-server-key"

type gormTxRunner struct {
	db *gorm.DB
}

func (r *gormTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return r.db.WithContext(ctx).Transaction(fn)
}

// fakeGateway mimics the Snap client: it hands out tokens and verifies
// the same keyed digest the real client does.
type fakeGateway struct {
	failNext bool
	calls    int
}

func (g *fakeGateway) CreateSnapTransaction(_ context.Context, params midtrans.SnapParams) (*midtrans.SnapSession, error) {
	g.calls++
	if g.failNext {
		g.failNext = false
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "payment gateway returned status 503")
	}
	return &midtrans.SnapSession{
		Token:       "snap-token-" + params.OrderID,
		RedirectURL: "https://app.sandbox.midtrans.com/snap/v4/redirection/" + params.OrderID,
	}, nil
}

func (g *fakeGateway) VerifySignature(orderID, statusCode, grossAmount, signature string) bool {
	sum := sha512.Sum512([]byte(orderID + statusCode + grossAmount + fakeServerKey))
	return hex.EncodeToString(sum[:]) == signature
}

func signPayload(orderID, statusCode, grossAmount string) string {
	sum := sha512.Sum512([]byte(orderID + statusCode + grossAmount + fakeServerKey))
	return hex.EncodeToString(sum[:])
}

type topupFixture struct {
	db      *gorm.DB
	svc     Service
	gateway *fakeGateway
	wallets wallet.Repository
	ledger  ledger.Repository
}

func setupTopupServiceDB(t *testing.T) *topupFixture {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file:topupsvc?mode=memory&cache=shared"), &gorm.Config{})
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
	}
	for _, stmt := range statements {
		require.NoError(t, db.Exec(stmt).Error)
	}
	for _, table := range []string{"wallets", "transactions"} {
		require.NoError(t, db.Exec("DELETE FROM "+table).Error)
	}

	walletRepo := wallet.NewRepository(db)
	ledgerRepo := ledger.NewRepository(db)
	gateway := &fakeGateway{}

	svc, err := NewService(ServiceParams{
		TxRunner:     &gormTxRunner{db: db},
		Gateway:      gateway,
		Wallets:      walletRepo,
		Transactions: ledgerRepo,
		Logger:       logger.New(logger.Options{ServiceName: "test"}),
	})
	require.NoError(t, err)

	return &topupFixture{
		db:      db,
		svc:     svc,
		gateway: gateway,
		wallets: walletRepo,
		ledger:  ledgerRepo,
	}
}

func seedWallet(t *testing.T, f *topupFixture, balance int64) (uuid.UUID, *models.Wallet) {
	t.Helper()
	userID := uuid.New()
	w := &models.Wallet{
		UserID:  userID,
		Balance: money.FromInt(balance),
		Status:  enums.WalletStatusActive,
	}
	require.NoError(t, f.wallets.Create(context.Background(), w))
	return userID, w
}

func TestCreateIntentRecordsPendingTransactionFirst(t *testing.T) {
	f := setupTopupServiceDB(t)
	ctx := context.Background()

	userID, w := seedWallet(t, f, 0)
	intent, err := f.svc.CreateIntent(ctx, IntentInput{
		UserID: userID,
		Amount: money.FromInt(50000),
	})
	require.NoError(t, err)
	assert.Equal(t, "snap-token-"+intent.TransactionID.String(), intent.Token)
	assert.NotEmpty(t, intent.RedirectURL)

	transaction, err := f.ledger.FindByID(ctx, intent.TransactionID)
	require.NoError(t, err)
	assert.Equal(t, enums.TransactionTypeFunding, transaction.Type)
	assert.Equal(t, enums.TransactionStatusPending, transaction.Status)
	require.NotNil(t, transaction.DestinationWalletID)
	assert.Equal(t, w.ID, *transaction.DestinationWalletID)

	// The wallet is untouched until the gateway settles.
	current, err := f.wallets.FindByID(ctx, w.ID)
	require.NoError(t, err)
	assert.True(t, current.Balance.IsZero())
}

func TestCreateIntentGatewayFailureLeavesPendingRow(t *testing.T) {
	f := setupTopupServiceDB(t)
	ctx := context.Background()

	userID, w := seedWallet(t, f, 0)
	f.gateway.failNext = true

	_, err := f.svc.CreateIntent(ctx, IntentInput{UserID: userID, Amount: money.FromInt(50000)})
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeDependency))

	// The pending row stays; it never settles and never credits.
	var count int64
	require.NoError(t, f.db.Model(&models.Transaction{}).
		Where("destination_wallet_id = ? AND status = ?", w.ID, enums.TransactionStatusPending).
		Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestHandleCallbackSettlesOnce(t *testing.T) {
	f := setupTopupServiceDB(t)
	ctx := context.Background()

	userID, w := seedWallet(t, f, 0)
	intent, err := f.svc.CreateIntent(ctx, IntentInput{UserID: userID, Amount: money.FromInt(50000)})
	require.NoError(t, err)

	payload := CallbackPayload{
		OrderID:           intent.TransactionID.String(),
		StatusCode:        "200",
		GrossAmount:       "50000.00",
		TransactionStatus: "settlement",
	}
	payload.SignatureKey = signPayload(payload.OrderID, payload.StatusCode, payload.GrossAmount)

	require.NoError(t, f.svc.HandleCallback(ctx, payload))

	current, err := f.wallets.FindByID(ctx, w.ID)
	require.NoError(t, err)
	assert.True(t, current.Balance.Equal(money.FromInt(50000)), "balance %s", current.Balance)

	// Replay: no second credit.
	require.NoError(t, f.svc.HandleCallback(ctx, payload))
	current, err = f.wallets.FindByID(ctx, w.ID)
	require.NoError(t, err)
	assert.True(t, current.Balance.Equal(money.FromInt(50000)), "balance %s", current.Balance)

	transaction, err := f.ledger.FindByID(ctx, intent.TransactionID)
	require.NoError(t, err)
	assert.Equal(t, enums.TransactionStatusCompleted, transaction.Status)
}

func TestHandleCallbackRejectsBadSignature(t *testing.T) {
	f := setupTopupServiceDB(t)
	ctx := context.Background()

	userID, w := seedWallet(t, f, 0)
	intent, err := f.svc.CreateIntent(ctx, IntentInput{UserID: userID, Amount: money.FromInt(50000)})
	require.NoError(t, err)

	err = f.svc.HandleCallback(ctx, CallbackPayload{
		OrderID:           intent.TransactionID.String(),
		StatusCode:        "200",
		GrossAmount:       "50000.00",
		SignatureKey:      "deadbeef",
		TransactionStatus: "settlement",
	})
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeUnauthorized))

	current, err := f.wallets.FindByID(ctx, w.ID)
	require.NoError(t, err)
	assert.True(t, current.Balance.IsZero())
}

func TestHandleCallbackIgnoresNonSettlement(t *testing.T) {
	f := setupTopupServiceDB(t)
	ctx := context.Background()

	userID, w := seedWallet(t, f, 0)
	intent, err := f.svc.CreateIntent(ctx, IntentInput{UserID: userID, Amount: money.FromInt(50000)})
	require.NoError(t, err)

	payload := CallbackPayload{
		OrderID:           intent.TransactionID.String(),
		StatusCode:        "201",
		GrossAmount:       "50000.00",
		TransactionStatus: "pending",
	}
	payload.SignatureKey = signPayload(payload.OrderID, payload.StatusCode, payload.GrossAmount)

	require.NoError(t, f.svc.HandleCallback(ctx, payload))
	current, err := f.wallets.FindByID(ctx, w.ID)
	require.NoError(t, err)
	assert.True(t, current.Balance.IsZero())
}

func TestAddBalanceCreditsAndRecords(t *testing.T) {
	f := setupTopupServiceDB(t)
	ctx := context.Background()

	userID, w := seedWallet(t, f, 10000)
	funded, err := f.svc.AddBalance(ctx, AddBalanceInput{
		UserID:  userID,
		Amount:  money.FromInt(25000),
		AdminID: uuid.New(),
	})
	require.NoError(t, err)
	assert.True(t, funded.Balance.Equal(money.FromInt(35000)), "balance %s", funded.Balance)

	var count int64
	require.NoError(t, f.db.Model(&models.Transaction{}).
		Where("destination_wallet_id = ? AND transaction_type = ? AND status = ?",
			w.ID, enums.TransactionTypeFunding, enums.TransactionStatusCompleted).
		Count(&count).Error)
	assert.Equal(t, int64(1), count)
}
