package escrow

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/kerjalink/kerjalink-backend/internal/fees"
	"github.com/kerjalink/kerjalink-backend/internal/jobs"
	"github.com/kerjalink/kerjalink-backend/internal/ledger"
	"github.com/kerjalink/kerjalink-backend/internal/wallet"
	"github.com/kerjalink/kerjalink-backend/pkg/db/models"
	"github.com/kerjalink/kerjalink-backend/pkg/enums"
	pkgerrors "github.com/kerjalink/kerjalink-backend/pkg/errors"
	"github.com/kerjalink/kerjalink-backend/pkg/logger"
	"github.com/kerjalink/kerjalink-backend/pkg/money"
)

// TxRunner executes a function inside a database transaction.
type TxRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service orchestrates the escrow lifecycle: funds are held when a
// provider accepts an application and released when the work is
// approved. Both paths run as single database transactions.
type Service interface {
	Hold(ctx context.Context, input HoldInput) (*models.Escrow, error)
	Release(ctx context.Context, input ReleaseInput) (*ReleaseResult, error)
	CompleteJob(ctx context.Context, jobID, workerID uuid.UUID) error
	RejectJob(ctx context.Context, jobID, providerID uuid.UUID) error
	HandleJobClosed(ctx context.Context, jobID uuid.UUID) error
	GetByJob(ctx context.Context, jobID uuid.UUID) (*models.Escrow, error)
}

// HoldInput identifies the accepted application. ProviderID enforces that
// only the posting provider can accept; uuid.Nil skips the check for
// internal callers.
type HoldInput struct {
	ApplicationID uuid.UUID
	ProviderID    uuid.UUID
}

// ReleaseInput identifies the approved job. ApprovedBy is recorded in
// logs; auto-approval passes uuid.Nil.
type ReleaseInput struct {
	JobID      uuid.UUID
	ApprovedBy uuid.UUID
}

// ReleaseResult reports where the held amount went.
type ReleaseResult struct {
	Escrow       *models.Escrow `json:"escrow"`
	NetAmount    money.Money    `json:"net_amount"`
	FeeAmount    money.Money    `json:"fee_amount"`
	WorkerWallet uuid.UUID      `json:"worker_wallet_id"`
}

// ServiceParams wires the escrow service dependencies.
type ServiceParams struct {
	TxRunner     TxRunner
	Repo         Repository
	Wallets      wallet.Repository
	Platform     wallet.PlatformRepository
	Transactions ledger.Repository
	Jobs         jobs.Repository
	Fees         fees.Engine
	Logger       *logger.Logger
}

type service struct {
	txRunner     TxRunner
	repo         Repository
	wallets      wallet.Repository
	platform     wallet.PlatformRepository
	transactions ledger.Repository
	jobs         jobs.Repository
	fees         fees.Engine
	logger       *logger.Logger
}

// NewService validates dependencies and returns the escrow service.
func NewService(params ServiceParams) (Service, error) {
	if params.TxRunner == nil {
		return nil, fmt.Errorf("tx runner required")
	}
	if params.Repo == nil {
		return nil, fmt.Errorf("escrow repository required")
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
	if params.Jobs == nil {
		return nil, fmt.Errorf("job repository required")
	}
	if params.Fees == nil {
		return nil, fmt.Errorf("fee engine required")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{
		txRunner:     params.TxRunner,
		repo:         params.Repo,
		wallets:      params.Wallets,
		platform:     params.Platform,
		transactions: params.Transactions,
		jobs:         params.Jobs,
		fees:         params.Fees,
		logger:       params.Logger,
	}, nil
}

func (s *service) Hold(ctx context.Context, input HoldInput) (*models.Escrow, error) {
	if input.ApplicationID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "application id is required")
	}

	application, err := s.jobs.FindApplicationByID(ctx, input.ApplicationID)
	if err != nil {
		return nil, err
	}
	job, err := s.jobs.FindByID(ctx, application.JobID)
	if err != nil {
		return nil, err
	}
	if input.ProviderID != uuid.Nil && job.ProviderID != input.ProviderID {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "only the posting provider can accept an application")
	}

	var held *models.Escrow
	err = s.txRunner.WithTx(ctx, func(tx *gorm.DB) error {
		txJobs := s.jobs.WithTx(tx)
		txWallets := s.wallets.WithTx(tx)

		if err := txJobs.Assign(ctx, job.ID, application.WorkerID); err != nil {
			return err
		}
		if err := txJobs.AcceptApplication(ctx, application.ID); err != nil {
			return err
		}
		if err := txJobs.RejectOpenApplications(ctx, job.ID, application.ID); err != nil {
			return err
		}

		providerWallet, err := txWallets.FindByUserID(ctx, job.ProviderID)
		if err != nil {
			return err
		}
		if err := txWallets.Debit(ctx, providerWallet.ID, job.CompensationAmount); err != nil {
			return err
		}

		workerWallet, err := s.ensureWallet(ctx, txWallets, application.WorkerID)
		if err != nil {
			return err
		}

		held = &models.Escrow{
			JobID:      job.ID,
			Amount:     job.CompensationAmount,
			Status:     enums.EscrowStatusHeld,
			ProviderID: job.ProviderID,
			WorkerID:   application.WorkerID,
		}
		if err := s.repo.WithTx(tx).Create(ctx, held); err != nil {
			return err
		}

		jobID := job.ID
		transaction := &models.Transaction{
			Amount:              job.CompensationAmount,
			Type:                enums.TransactionTypeEscrowRelease,
			Status:              enums.TransactionStatusPending,
			SourceWalletID:      &providerWallet.ID,
			DestinationWalletID: &workerWallet.ID,
			JobID:               &jobID,
		}
		return s.transactions.WithTx(tx).Create(ctx, transaction)
	})
	if err != nil {
		return nil, err
	}

	logCtx := s.logger.WithJobID(ctx, job.ID.String())
	s.logger.Info(logCtx, "escrow held for accepted application")
	return held, nil
}

func (s *service) Release(ctx context.Context, input ReleaseInput) (*ReleaseResult, error) {
	if input.JobID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "job id is required")
	}

	var result *ReleaseResult
	err := s.txRunner.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)
		txWallets := s.wallets.WithTx(tx)
		txLedger := s.transactions.WithTx(tx)

		if err := s.jobs.WithTx(tx).MarkApproved(ctx, input.JobID); err != nil {
			return err
		}

		held, err := txRepo.FindByJobID(ctx, input.JobID)
		if err != nil {
			return err
		}
		releasedAt := time.Now().UTC()
		if err := txRepo.MarkReleased(ctx, held.ID, releasedAt); err != nil {
			return err
		}

		quote, err := s.fees.Quote(ctx, fees.EscrowFeeName, held.Amount)
		if err != nil {
			return err
		}

		workerWallet, err := txWallets.FindByUserID(ctx, held.WorkerID)
		if err != nil {
			return err
		}
		if quote.Net.IsPositive() {
			if err := txWallets.Credit(ctx, workerWallet.ID, quote.Net); err != nil {
				return err
			}
		}

		if quote.Charge.IsPositive() {
			if err := s.platform.WithTx(tx).Credit(ctx, quote.Charge); err != nil {
				return err
			}
			jobID := input.JobID
			platformTransaction := &models.PlatformTransaction{
				Amount:      quote.Charge,
				Type:        enums.PlatformTransactionTypeEscrowFee,
				Description: "escrow release fee",
				ReferenceID: &jobID,
			}
			if err := txLedger.CreatePlatform(ctx, platformTransaction); err != nil {
				return err
			}
		}

		pending, err := txLedger.FindPendingByJob(ctx, input.JobID, enums.TransactionTypeEscrowRelease)
		if err != nil {
			return err
		}
		if err := txLedger.MarkCompleted(ctx, pending.ID); err != nil {
			return err
		}

		held.Status = enums.EscrowStatusReleased
		held.ReleasedAt = &releasedAt
		result = &ReleaseResult{
			Escrow:       held,
			NetAmount:    quote.Net,
			FeeAmount:    quote.Charge,
			WorkerWallet: workerWallet.ID,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	logCtx := s.logger.WithJobID(ctx, input.JobID.String())
	if input.ApprovedBy != uuid.Nil {
		logCtx = s.logger.WithAdminID(logCtx, input.ApprovedBy.String())
	}
	s.logger.Info(logCtx, "escrow released")
	return result, nil
}

func (s *service) CompleteJob(ctx context.Context, jobID, workerID uuid.UUID) error {
	job, err := s.jobs.FindByID(ctx, jobID)
	if err != nil {
		return err
	}
	if workerID != uuid.Nil && (job.WorkerID == nil || *job.WorkerID != workerID) {
		return pkgerrors.New(pkgerrors.CodeForbidden, "only the assigned worker can complete the job")
	}
	return s.jobs.MarkCompleted(ctx, jobID, time.Now().UTC())
}

func (s *service) RejectJob(ctx context.Context, jobID, providerID uuid.UUID) error {
	job, err := s.jobs.FindByID(ctx, jobID)
	if err != nil {
		return err
	}
	if providerID != uuid.Nil && job.ProviderID != providerID {
		return pkgerrors.New(pkgerrors.CodeForbidden, "only the posting provider can reject the job")
	}
	return s.jobs.MarkRejected(ctx, jobID)
}

// HandleJobClosed cancels a job that never reached escrow. Funds held for
// an assigned job can only leave through Release.
func (s *service) HandleJobClosed(ctx context.Context, jobID uuid.UUID) error {
	if jobID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "job id is required")
	}
	held, err := s.repo.FindByJobID(ctx, jobID)
	if err != nil && !pkgerrors.IsCode(err, pkgerrors.CodeNotFound) {
		return err
	}
	if held != nil && held.Status == enums.EscrowStatusHeld {
		return pkgerrors.New(pkgerrors.CodeInvalidTransition, "job with held escrow cannot be closed")
	}
	return s.jobs.MarkCancelled(ctx, jobID)
}

func (s *service) GetByJob(ctx context.Context, jobID uuid.UUID) (*models.Escrow, error) {
	if jobID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "job id is required")
	}
	return s.repo.FindByJobID(ctx, jobID)
}

func (s *service) ensureWallet(ctx context.Context, wallets wallet.Repository, userID uuid.UUID) (*models.Wallet, error) {
	existing, err := wallets.FindByUserID(ctx, userID)
	if err == nil {
		return existing, nil
	}
	if !pkgerrors.IsCode(err, pkgerrors.CodeNotFound) {
		return nil, err
	}
	created := &models.Wallet{UserID: userID, Status: enums.WalletStatusActive}
	if err := wallets.Create(ctx, created); err != nil {
		return nil, err
	}
	return created, nil
}
