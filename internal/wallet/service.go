package wallet

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/kerjalink/kerjalink-backend/pkg/db/models"
	"github.com/kerjalink/kerjalink-backend/pkg/enums"
	pkgerrors "github.com/kerjalink/kerjalink-backend/pkg/errors"
	"github.com/kerjalink/kerjalink-backend/pkg/pagination"
)

// TransactionLister is the slice of the transaction store the wallet
// statement needs.
type TransactionLister interface {
	ListByWallet(ctx context.Context, walletID uuid.UUID, params pagination.Params) ([]models.Transaction, string, error)
}

// Service exposes wallet reads and provisioning.
type Service interface {
	GetByUser(ctx context.Context, userID uuid.UUID) (*models.Wallet, error)
	CreateForUser(ctx context.Context, userID uuid.UUID) (*models.Wallet, error)
	Statement(ctx context.Context, userID uuid.UUID, params pagination.Params) (*StatementResult, error)
	GetPlatform(ctx context.Context) (*models.PlatformWallet, error)
}

// StatementResult is one page of a wallet's transaction history.
type StatementResult struct {
	WalletID     uuid.UUID            `json:"wallet_id"`
	Transactions []models.Transaction `json:"transactions"`
	NextCursor   string               `json:"next_cursor,omitempty"`
}

// ServiceParams wires the wallet service dependencies.
type ServiceParams struct {
	Repo         Repository
	PlatformRepo PlatformRepository
	Transactions TransactionLister
}

type service struct {
	repo         Repository
	platformRepo PlatformRepository
	transactions TransactionLister
}

// NewService validates dependencies and returns the wallet service.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("wallet repository required")
	}
	if params.PlatformRepo == nil {
		return nil, fmt.Errorf("platform wallet repository required")
	}
	if params.Transactions == nil {
		return nil, fmt.Errorf("transaction lister required")
	}
	return &service{
		repo:         params.Repo,
		platformRepo: params.PlatformRepo,
		transactions: params.Transactions,
	}, nil
}

func (s *service) GetByUser(ctx context.Context, userID uuid.UUID) (*models.Wallet, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}
	return s.repo.FindByUserID(ctx, userID)
}

func (s *service) CreateForUser(ctx context.Context, userID uuid.UUID) (*models.Wallet, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}
	if existing, err := s.repo.FindByUserID(ctx, userID); err == nil {
		return existing, nil
	} else if !pkgerrors.IsCode(err, pkgerrors.CodeNotFound) {
		return nil, err
	}

	wallet := &models.Wallet{
		UserID: userID,
		Status: enums.WalletStatusActive,
	}
	if err := s.repo.Create(ctx, wallet); err != nil {
		return nil, err
	}
	return wallet, nil
}

func (s *service) Statement(ctx context.Context, userID uuid.UUID, params pagination.Params) (*StatementResult, error) {
	wallet, err := s.GetByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	transactions, nextCursor, err := s.transactions.ListByWallet(ctx, wallet.ID, params)
	if err != nil {
		return nil, err
	}
	return &StatementResult{
		WalletID:     wallet.ID,
		Transactions: transactions,
		NextCursor:   nextCursor,
	}, nil
}

func (s *service) GetPlatform(ctx context.Context) (*models.PlatformWallet, error) {
	return s.platformRepo.Get(ctx)
}
