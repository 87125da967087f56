package topup

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
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

// Gateway is the payment-session slice of the Snap client.
type Gateway interface {
	CreateSnapTransaction(ctx context.Context, params midtrans.SnapParams) (*midtrans.SnapSession, error)
	VerifySignature(orderID, statusCode, grossAmount, signature string) bool
}

// TxRunner executes a function inside a database transaction.
type TxRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service funds wallets through the payment gateway and reconciles the
// gateway's settlement callbacks against the ledger.
type Service interface {
	CreateIntent(ctx context.Context, input IntentInput) (*Intent, error)
	HandleCallback(ctx context.Context, payload CallbackPayload) error
	CompleteTopup(ctx context.Context, transactionID uuid.UUID) error
	AddBalance(ctx context.Context, input AddBalanceInput) (*models.Wallet, error)
}

// IntentInput starts a topup.
type IntentInput struct {
	UserID        uuid.UUID
	Amount        money.Money
	CustomerName  string
	CustomerEmail string
}

// Intent hands the client what it needs to open the payment page. The
// transaction id doubles as the gateway order id.
type Intent struct {
	TransactionID uuid.UUID   `json:"transaction_id"`
	Amount        money.Money `json:"amount"`
	Token         string      `json:"token"`
	RedirectURL   string      `json:"redirect_url"`
}

// CallbackPayload is the subset of the gateway notification the
// reconciler acts on.
type CallbackPayload struct {
	OrderID           string `json:"order_id"`
	StatusCode        string `json:"status_code"`
	GrossAmount       string `json:"gross_amount"`
	SignatureKey      string `json:"signature_key"`
	TransactionStatus string `json:"transaction_status"`
}

// AddBalanceInput is a direct admin credit.
type AddBalanceInput struct {
	UserID  uuid.UUID
	Amount  money.Money
	AdminID uuid.UUID
}

// ServiceParams wires the topup service dependencies.
type ServiceParams struct {
	TxRunner     TxRunner
	Gateway      Gateway
	Wallets      wallet.Repository
	Transactions ledger.Repository
	Logger       *logger.Logger
}

type service struct {
	txRunner     TxRunner
	gateway      Gateway
	wallets      wallet.Repository
	transactions ledger.Repository
	logger       *logger.Logger
}

// NewService validates dependencies and returns the topup service.
func NewService(params ServiceParams) (Service, error) {
	if params.TxRunner == nil {
		return nil, fmt.Errorf("tx runner required")
	}
	if params.Gateway == nil {
		return nil, fmt.Errorf("payment gateway required")
	}
	if params.Wallets == nil {
		return nil, fmt.Errorf("wallet repository required")
	}
	if params.Transactions == nil {
		return nil, fmt.Errorf("transaction repository required")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{
		txRunner:     params.TxRunner,
		gateway:      params.Gateway,
		wallets:      params.Wallets,
		transactions: params.Transactions,
		logger:       params.Logger,
	}, nil
}

// CreateIntent records the pending funding transaction first, then asks
// the gateway for a session. The gateway call stays outside any database
// transaction; if it fails the pending row simply never settles.
func (s *service) CreateIntent(ctx context.Context, input IntentInput) (*Intent, error) {
	if input.UserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}
	if !input.Amount.IsPositive() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "topup amount must be positive")
	}

	userWallet, err := s.wallets.FindByUserID(ctx, input.UserID)
	if err != nil {
		return nil, err
	}

	transaction := &models.Transaction{
		Amount:              input.Amount,
		Type:                enums.TransactionTypeFunding,
		Status:              enums.TransactionStatusPending,
		DestinationWalletID: &userWallet.ID,
	}
	if err := s.transactions.Create(ctx, transaction); err != nil {
		return nil, err
	}

	session, err := s.gateway.CreateSnapTransaction(ctx, midtrans.SnapParams{
		OrderID:       transaction.ID.String(),
		Amount:        input.Amount,
		CustomerName:  input.CustomerName,
		CustomerEmail: input.CustomerEmail,
	})
	if err != nil {
		return nil, err
	}

	logCtx := s.logger.WithUserID(ctx, input.UserID.String())
	s.logger.Info(logCtx, "topup intent created")

	return &Intent{
		TransactionID: transaction.ID,
		Amount:        input.Amount,
		Token:         session.Token,
		RedirectURL:   session.RedirectURL,
	}, nil
}

// HandleCallback authenticates the gateway notification and settles the
// order. A bad signature is UNAUTHORIZED without revealing whether the
// order exists.
func (s *service) HandleCallback(ctx context.Context, payload CallbackPayload) error {
	if !s.gateway.VerifySignature(payload.OrderID, payload.StatusCode, payload.GrossAmount, payload.SignatureKey) {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid callback signature")
	}

	status := strings.ToLower(payload.TransactionStatus)
	if status != "settlement" && status != "capture" {
		logCtx := s.logger.WithField(ctx, "transaction_status", status)
		s.logger.Info(logCtx, "payment callback ignored")
		return nil
	}

	transactionID, err := uuid.Parse(payload.OrderID)
	if err != nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "order id is not a transaction id")
	}
	return s.CompleteTopup(ctx, transactionID)
}

// CompleteTopup credits the destination wallet at most once. Replayed
// callbacks find the transaction COMPLETED and return nil.
func (s *service) CompleteTopup(ctx context.Context, transactionID uuid.UUID) error {
	if transactionID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "transaction id is required")
	}

	err := s.txRunner.WithTx(ctx, func(tx *gorm.DB) error {
		txLedger := s.transactions.WithTx(tx)

		transaction, err := txLedger.FindByID(ctx, transactionID)
		if err != nil {
			return err
		}
		if transaction.Status == enums.TransactionStatusCompleted {
			return nil
		}
		if transaction.Type != enums.TransactionTypeFunding || transaction.DestinationWalletID == nil {
			return pkgerrors.New(pkgerrors.CodeValidation, "transaction is not a wallet funding")
		}

		if err := txLedger.MarkCompleted(ctx, transaction.ID); err != nil {
			return err
		}
		return s.wallets.WithTx(tx).Credit(ctx, *transaction.DestinationWalletID, transaction.Amount)
	})
	if err != nil {
		return err
	}

	logCtx := s.logger.WithField(ctx, "transaction_id", transactionID.String())
	s.logger.Info(logCtx, "topup settled")
	return nil
}

// AddBalance is the admin escape hatch: an immediate credit recorded as
// a completed funding transaction.
func (s *service) AddBalance(ctx context.Context, input AddBalanceInput) (*models.Wallet, error) {
	if input.UserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}
	if !input.Amount.IsPositive() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "amount must be positive")
	}

	var funded *models.Wallet
	err := s.txRunner.WithTx(ctx, func(tx *gorm.DB) error {
		txWallets := s.wallets.WithTx(tx)

		userWallet, err := txWallets.FindByUserID(ctx, input.UserID)
		if err != nil {
			return err
		}
		if err := txWallets.Credit(ctx, userWallet.ID, input.Amount); err != nil {
			return err
		}

		transaction := &models.Transaction{
			Amount:              input.Amount,
			Type:                enums.TransactionTypeFunding,
			Status:              enums.TransactionStatusCompleted,
			DestinationWalletID: &userWallet.ID,
		}
		if err := s.transactions.WithTx(tx).Create(ctx, transaction); err != nil {
			return err
		}

		funded, err = txWallets.FindByID(ctx, userWallet.ID)
		return err
	})
	if err != nil {
		return nil, err
	}

	logCtx := s.logger.WithUserID(ctx, input.UserID.String())
	if input.AdminID != uuid.Nil {
		logCtx = s.logger.WithAdminID(logCtx, input.AdminID.String())
	}
	s.logger.Info(logCtx, "wallet funded by admin")
	return funded, nil
}
