package withdrawals

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/kerjalink/kerjalink-backend/internal/fees"
	"github.com/kerjalink/kerjalink-backend/internal/ledger"
	"github.com/kerjalink/kerjalink-backend/internal/wallet"
	"github.com/kerjalink/kerjalink-backend/pkg/db/models"
	"github.com/kerjalink/kerjalink-backend/pkg/enums"
	pkgerrors "github.com/kerjalink/kerjalink-backend/pkg/errors"
	"github.com/kerjalink/kerjalink-backend/pkg/logger"
	"github.com/kerjalink/kerjalink-backend/pkg/money"
	"github.com/kerjalink/kerjalink-backend/pkg/pagination"
	"github.com/kerjalink/kerjalink-backend/pkg/security"
)

const defaultMaxMethodsPerUser = 5

// TxRunner executes a function inside a database transaction.
type TxRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service drives payout methods and the withdraw request workflow.
type Service interface {
	AddMethod(ctx context.Context, input AddMethodInput) (*MethodView, error)
	ListMethods(ctx context.Context, userID uuid.UUID) ([]MethodView, error)
	RemoveMethod(ctx context.Context, userID, methodID uuid.UUID) error

	CreateRequest(ctx context.Context, input CreateRequestInput) (*models.WithdrawRequest, error)
	GetRequest(ctx context.Context, id uuid.UUID, userID uuid.UUID) (*models.WithdrawRequest, error)
	ListRequests(ctx context.Context, userID uuid.UUID, params pagination.Params) ([]models.WithdrawRequest, string, error)
	ListQueue(ctx context.Context, status enums.WithdrawStatus, params pagination.Params) ([]models.WithdrawRequest, string, error)

	Lock(ctx context.Context, requestID, adminID uuid.UUID) error
	Unlock(ctx context.Context, requestID, adminID uuid.UUID) error
	Approve(ctx context.Context, requestID, adminID uuid.UUID, note string) (*PayoutDetails, error)
	Reject(ctx context.Context, requestID, adminID uuid.UUID, note string) error
	Send(ctx context.Context, requestID, adminID uuid.UUID, receipt string) error
}

// AddMethodInput registers a payout destination for a user.
type AddMethodInput struct {
	UserID        uuid.UUID
	Method        string
	Provider      string
	AccountName   string
	AccountNumber string
}

// CreateRequestInput starts a withdrawal.
type CreateRequestInput struct {
	UserID   uuid.UUID
	MethodID uuid.UUID
	Amount   money.Money
}

// MethodView is a payout destination with the account number masked for
// display.
type MethodView struct {
	ID            uuid.UUID `json:"id"`
	Method        string    `json:"method"`
	Provider      string    `json:"provider"`
	AccountName   string    `json:"account_name"`
	AccountNumber string    `json:"account_number"`
}

// PayoutDetails is what an approving admin needs for the manual
// transfer. The account number is decrypted only here.
type PayoutDetails struct {
	RequestID     uuid.UUID   `json:"request_id"`
	Amount        money.Money `json:"amount"`
	FeeAmount     money.Money `json:"fee_amount"`
	NetAmount     money.Money `json:"net_amount"`
	Method        string      `json:"method"`
	Provider      string      `json:"provider"`
	AccountName   string      `json:"account_name"`
	AccountNumber string      `json:"account_number"`
}

// ServiceParams wires the withdrawals service dependencies.
type ServiceParams struct {
	TxRunner          TxRunner
	Methods           MethodRepository
	Requests          RequestRepository
	Wallets           wallet.Repository
	Platform          wallet.PlatformRepository
	Transactions      ledger.Repository
	Fees              fees.Engine
	Cipher            *security.Cipher
	Logger            *logger.Logger
	MaxMethodsPerUser int
}

type service struct {
	txRunner     TxRunner
	methods      MethodRepository
	requests     RequestRepository
	wallets      wallet.Repository
	platform     wallet.PlatformRepository
	transactions ledger.Repository
	fees         fees.Engine
	cipher       *security.Cipher
	logger       *logger.Logger
	maxMethods   int
}

// NewService validates dependencies and returns the withdrawals service.
func NewService(params ServiceParams) (Service, error) {
	if params.TxRunner == nil {
		return nil, fmt.Errorf("tx runner required")
	}
	if params.Methods == nil {
		return nil, fmt.Errorf("method repository required")
	}
	if params.Requests == nil {
		return nil, fmt.Errorf("request repository required")
	}
	if params.Wallets == nil {
		return nil, fmt.Errorf("wallet repository required")
	}
	if params.Platform == nil {
		return nil, fmt.Errorf("platform wallet repository required")
	}
	if params.Transactions == nil {
		return nil, fmt.Errorf("transaction repository required")
	}
	if params.Fees == nil {
		return nil, fmt.Errorf("fee engine required")
	}
	if params.Cipher == nil {
		return nil, fmt.Errorf("cipher required")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	maxMethods := params.MaxMethodsPerUser
	if maxMethods <= 0 {
		maxMethods = defaultMaxMethodsPerUser
	}
	return &service{
		txRunner:     params.TxRunner,
		methods:      params.Methods,
		requests:     params.Requests,
		wallets:      params.Wallets,
		platform:     params.Platform,
		transactions: params.Transactions,
		fees:         params.Fees,
		cipher:       params.Cipher,
		logger:       params.Logger,
		maxMethods:   maxMethods,
	}, nil
}

func (s *service) AddMethod(ctx context.Context, input AddMethodInput) (*MethodView, error) {
	if input.UserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}
	if strings.TrimSpace(input.Method) == "" || strings.TrimSpace(input.Provider) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "method and provider are required")
	}
	if strings.TrimSpace(input.AccountName) == "" || strings.TrimSpace(input.AccountNumber) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "account name and number are required")
	}

	count, err := s.methods.CountActiveByUser(ctx, input.UserID)
	if err != nil {
		return nil, err
	}
	if count >= int64(s.maxMethods) {
		return nil, pkgerrors.New(pkgerrors.CodeConflict,
			fmt.Sprintf("at most %d withdraw methods per user", s.maxMethods))
	}

	encrypted, err := s.cipher.Encrypt(input.AccountNumber)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encrypt account number")
	}

	method := &models.WithdrawMethod{
		UserID:        input.UserID,
		Method:        input.Method,
		Provider:      input.Provider,
		AccountName:   input.AccountName,
		AccountNumber: encrypted,
		IsActive:      true,
	}
	if err := s.methods.Create(ctx, method); err != nil {
		return nil, err
	}

	view := s.methodView(method, input.AccountNumber)
	return &view, nil
}

func (s *service) ListMethods(ctx context.Context, userID uuid.UUID) ([]MethodView, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}
	methods, err := s.methods.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	views := make([]MethodView, 0, len(methods))
	for i := range methods {
		plain, err := s.cipher.Decrypt(methods[i].AccountNumber)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "decrypt account number")
		}
		views = append(views, s.methodView(&methods[i], plain))
	}
	return views, nil
}

func (s *service) RemoveMethod(ctx context.Context, userID, methodID uuid.UUID) error {
	if userID == uuid.Nil || methodID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "user id and method id are required")
	}
	return s.methods.Delete(ctx, methodID, userID)
}

func (s *service) CreateRequest(ctx context.Context, input CreateRequestInput) (*models.WithdrawRequest, error) {
	if input.UserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}
	if !input.Amount.IsPositive() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "withdraw amount must be positive")
	}

	method, err := s.methods.FindByID(ctx, input.MethodID)
	if err != nil {
		return nil, err
	}
	if method.UserID != input.UserID {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "withdraw method belongs to another user")
	}
	if !method.IsActive {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "withdraw method is inactive")
	}

	var request *models.WithdrawRequest
	err = s.txRunner.WithTx(ctx, func(tx *gorm.DB) error {
		txWallets := s.wallets.WithTx(tx)

		userWallet, err := txWallets.FindByUserID(ctx, input.UserID)
		if err != nil {
			return err
		}
		if err := txWallets.Debit(ctx, userWallet.ID, input.Amount); err != nil {
			return err
		}

		transaction := &models.Transaction{
			Amount:         input.Amount,
			Type:           enums.TransactionTypeWithdrawal,
			Status:         enums.TransactionStatusPending,
			SourceWalletID: &userWallet.ID,
		}
		if err := s.transactions.WithTx(tx).Create(ctx, transaction); err != nil {
			return err
		}

		request = &models.WithdrawRequest{
			UserID:        input.UserID,
			MethodID:      method.ID,
			TransactionID: transaction.ID,
			Amount:        input.Amount,
			Status:        enums.WithdrawStatusPending,
		}
		return s.requests.WithTx(tx).Create(ctx, request)
	})
	if err != nil {
		return nil, err
	}

	logCtx := s.logger.WithUserID(ctx, input.UserID.String())
	s.logger.Info(logCtx, "withdraw request created")
	return request, nil
}

func (s *service) GetRequest(ctx context.Context, id uuid.UUID, userID uuid.UUID) (*models.WithdrawRequest, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "request id is required")
	}
	request, err := s.requests.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if userID != uuid.Nil && request.UserID != userID {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "withdraw request not found")
	}
	return request, nil
}

func (s *service) ListRequests(ctx context.Context, userID uuid.UUID, params pagination.Params) ([]models.WithdrawRequest, string, error) {
	if userID == uuid.Nil {
		return nil, "", pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}
	return s.requests.ListByUser(ctx, userID, params)
}

func (s *service) ListQueue(ctx context.Context, status enums.WithdrawStatus, params pagination.Params) ([]models.WithdrawRequest, string, error) {
	if status != "" && !status.IsValid() {
		return nil, "", pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid withdraw status %q", status))
	}
	return s.requests.ListByStatus(ctx, status, params)
}

func (s *service) Lock(ctx context.Context, requestID, adminID uuid.UUID) error {
	if requestID == uuid.Nil || adminID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "request id and admin id are required")
	}
	if err := s.requests.Lock(ctx, requestID, adminID); err != nil {
		return err
	}
	logCtx := s.logger.WithAdminID(ctx, adminID.String())
	s.logger.Info(logCtx, "withdraw request locked")
	return nil
}

func (s *service) Unlock(ctx context.Context, requestID, adminID uuid.UUID) error {
	if requestID == uuid.Nil || adminID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "request id and admin id are required")
	}
	return s.requests.Unlock(ctx, requestID, adminID)
}

// Approve marks the request APPROVED and hands the admin decrypted
// payout details for the manual transfer. No money moves here. The
// payout details are assembled before the transition so a failed
// lookup, decrypt, or fee quote cannot strand the request in APPROVED
// with nothing left to show the admin.
func (s *service) Approve(ctx context.Context, requestID, adminID uuid.UUID, note string) (*PayoutDetails, error) {
	if requestID == uuid.Nil || adminID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "request id and admin id are required")
	}

	request, err := s.requests.FindByID(ctx, requestID)
	if err != nil {
		return nil, err
	}
	method := request.Method
	if method == nil {
		found, err := s.methods.FindByID(ctx, request.MethodID)
		if err != nil {
			return nil, err
		}
		method = found
	}

	accountNumber, err := s.cipher.Decrypt(method.AccountNumber)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "decrypt account number")
	}

	quote, err := s.fees.Quote(ctx, fees.WithdrawFeeName, request.Amount)
	if err != nil {
		return nil, err
	}

	if err := s.requests.Approve(ctx, requestID, adminID, note); err != nil {
		return nil, err
	}

	logCtx := s.logger.WithAdminID(ctx, adminID.String())
	s.logger.Info(logCtx, "withdraw request approved")

	return &PayoutDetails{
		RequestID:     request.ID,
		Amount:        request.Amount,
		FeeAmount:     quote.Charge,
		NetAmount:     quote.Net,
		Method:        method.Method,
		Provider:      method.Provider,
		AccountName:   method.AccountName,
		AccountNumber: accountNumber,
	}, nil
}

// Reject returns the full amount to the user's wallet and records the
// refund as a completed funding movement, all in one transaction.
func (s *service) Reject(ctx context.Context, requestID, adminID uuid.UUID, note string) error {
	if requestID == uuid.Nil || adminID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "request id and admin id are required")
	}

	// The request is re-read inside the transaction so the refunded
	// amount is serialized with the status change.
	err := s.txRunner.WithTx(ctx, func(tx *gorm.DB) error {
		txRequests := s.requests.WithTx(tx)
		txWallets := s.wallets.WithTx(tx)

		request, err := txRequests.FindByID(ctx, requestID)
		if err != nil {
			return err
		}

		if err := txRequests.Reject(ctx, requestID, adminID, note); err != nil {
			return err
		}

		userWallet, err := txWallets.FindByUserID(ctx, request.UserID)
		if err != nil {
			return err
		}
		if err := txWallets.Credit(ctx, userWallet.ID, request.Amount); err != nil {
			return err
		}

		refund := &models.Transaction{
			Amount:              request.Amount,
			Type:                enums.TransactionTypeFunding,
			Status:              enums.TransactionStatusCompleted,
			DestinationWalletID: &userWallet.ID,
		}
		return s.transactions.WithTx(tx).Create(ctx, refund)
	})
	if err != nil {
		return err
	}

	logCtx := s.logger.WithAdminID(ctx, adminID.String())
	s.logger.Info(logCtx, "withdraw request rejected and refunded")
	return nil
}

// Send finalizes an approved request: stores the transfer receipt,
// completes the originating withdrawal transaction, and books the
// withdraw fee to the platform wallet.
func (s *service) Send(ctx context.Context, requestID, adminID uuid.UUID, receipt string) error {
	if requestID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "request id is required")
	}
	if strings.TrimSpace(receipt) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "transfer receipt is required")
	}

	request, err := s.requests.FindByID(ctx, requestID)
	if err != nil {
		return err
	}

	quote, err := s.fees.Quote(ctx, fees.WithdrawFeeName, request.Amount)
	if err != nil {
		return err
	}

	err = s.txRunner.WithTx(ctx, func(tx *gorm.DB) error {
		txLedger := s.transactions.WithTx(tx)

		if err := s.requests.WithTx(tx).MarkSent(ctx, requestID, receipt); err != nil {
			return err
		}
		if err := txLedger.MarkCompleted(ctx, request.TransactionID); err != nil {
			return err
		}

		if quote.Charge.IsPositive() {
			if err := s.platform.WithTx(tx).Credit(ctx, quote.Charge); err != nil {
				return err
			}
			refID := request.ID
			platformTransaction := &models.PlatformTransaction{
				Amount:      quote.Charge,
				Type:        enums.PlatformTransactionTypeWithdrawFee,
				Description: "withdraw transfer fee",
				ReferenceID: &refID,
			}
			if err := txLedger.CreatePlatform(ctx, platformTransaction); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	logCtx := ctx
	if adminID != uuid.Nil {
		logCtx = s.logger.WithAdminID(ctx, adminID.String())
	}
	s.logger.Info(logCtx, "withdraw request sent")
	return nil
}

func (s *service) methodView(method *models.WithdrawMethod, plainAccountNumber string) MethodView {
	return MethodView{
		ID:            method.ID,
		Method:        method.Method,
		Provider:      method.Provider,
		AccountName:   method.AccountName,
		AccountNumber: maskAccountNumber(plainAccountNumber),
	}
}

func maskAccountNumber(value string) string {
	if len(value) <= 4 {
		return value
	}
	return strings.Repeat("*", len(value)-4) + value[len(value)-4:]
}
