package ledger

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/kerjalink/kerjalink-backend/pkg/db/models"
	"github.com/kerjalink/kerjalink-backend/pkg/enums"
	pkgerrors "github.com/kerjalink/kerjalink-backend/pkg/errors"
	"github.com/kerjalink/kerjalink-backend/pkg/money"
	"github.com/kerjalink/kerjalink-backend/pkg/pagination"
)

// Service records balance movements and exposes transaction reads.
type Service interface {
	Record(ctx context.Context, input RecordInput) (*models.Transaction, error)
	RecordPlatform(ctx context.Context, input RecordPlatformInput) (*models.PlatformTransaction, error)
	Complete(ctx context.Context, id uuid.UUID) error
	Get(ctx context.Context, id uuid.UUID) (*models.Transaction, error)
	ListByWallet(ctx context.Context, walletID uuid.UUID, params pagination.Params) ([]models.Transaction, string, error)
}

// RecordInput captures the immutable data a transaction requires.
type RecordInput struct {
	Amount              money.Money             `json:"amount"`
	Type                enums.TransactionType   `json:"type"`
	Status              enums.TransactionStatus `json:"status"`
	SourceWalletID      *uuid.UUID              `json:"source_wallet_id"`
	DestinationWalletID *uuid.UUID              `json:"destination_wallet_id"`
	JobID               *uuid.UUID              `json:"job_id"`
}

// RecordPlatformInput captures a fee credited to the platform wallet.
type RecordPlatformInput struct {
	Amount      money.Money                   `json:"amount"`
	Type        enums.PlatformTransactionType `json:"type"`
	Description string                        `json:"description"`
	ReferenceID *uuid.UUID                    `json:"reference_id"`
}

type service struct {
	repo Repository
}

// NewService wires a ledger service with the provided repository.
func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("ledger repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) Record(ctx context.Context, input RecordInput) (*models.Transaction, error) {
	if !input.Amount.IsPositive() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "transaction amount must be positive")
	}
	if !input.Type.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid transaction type %q", input.Type))
	}
	if input.SourceWalletID == nil && input.DestinationWalletID == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "transaction needs a source or destination wallet")
	}

	status := input.Status
	if status == "" {
		status = enums.TransactionStatusPending
	}
	if !status.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid transaction status %q", status))
	}

	transaction := &models.Transaction{
		Amount:              input.Amount,
		Type:                input.Type,
		Status:              status,
		SourceWalletID:      input.SourceWalletID,
		DestinationWalletID: input.DestinationWalletID,
		JobID:               input.JobID,
	}
	if err := s.repo.Create(ctx, transaction); err != nil {
		return nil, err
	}
	return transaction, nil
}

func (s *service) RecordPlatform(ctx context.Context, input RecordPlatformInput) (*models.PlatformTransaction, error) {
	if !input.Amount.IsPositive() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "platform transaction amount must be positive")
	}
	if !input.Type.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid platform transaction type %q", input.Type))
	}

	transaction := &models.PlatformTransaction{
		Amount:      input.Amount,
		Type:        input.Type,
		Description: input.Description,
		ReferenceID: input.ReferenceID,
	}
	if err := s.repo.CreatePlatform(ctx, transaction); err != nil {
		return nil, err
	}
	return transaction, nil
}

func (s *service) Complete(ctx context.Context, id uuid.UUID) error {
	if id == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "transaction id is required")
	}
	return s.repo.MarkCompleted(ctx, id)
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*models.Transaction, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "transaction id is required")
	}
	return s.repo.FindByID(ctx, id)
}

func (s *service) ListByWallet(ctx context.Context, walletID uuid.UUID, params pagination.Params) ([]models.Transaction, string, error) {
	if walletID == uuid.Nil {
		return nil, "", pkgerrors.New(pkgerrors.CodeValidation, "wallet id is required")
	}
	return s.repo.ListByWallet(ctx, walletID, params)
}
