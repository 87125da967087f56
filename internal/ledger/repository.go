package ledger

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/kerjalink/kerjalink-backend/pkg/db/models"
	"github.com/kerjalink/kerjalink-backend/pkg/enums"
	pkgerrors "github.com/kerjalink/kerjalink-backend/pkg/errors"
	"github.com/kerjalink/kerjalink-backend/pkg/pagination"
)

// Repository manages persistence for transactions and platform
// transactions. Rows are append-oriented: amounts and endpoints never
// change after creation, only PENDING status can move to COMPLETED.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, transaction *models.Transaction) error
	CreatePlatform(ctx context.Context, transaction *models.PlatformTransaction) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Transaction, error)
	FindPendingByJob(ctx context.Context, jobID uuid.UUID, transactionType enums.TransactionType) (*models.Transaction, error)
	MarkCompleted(ctx context.Context, id uuid.UUID) error
	ListByWallet(ctx context.Context, walletID uuid.UUID, params pagination.Params) ([]models.Transaction, string, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a transaction repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, transaction *models.Transaction) error {
	if transaction.ID == uuid.Nil {
		transaction.ID = uuid.New()
	}
	return r.db.WithContext(ctx).Create(transaction).Error
}

func (r *repository) CreatePlatform(ctx context.Context, transaction *models.PlatformTransaction) error {
	if transaction.ID == uuid.Nil {
		transaction.ID = uuid.New()
	}
	return r.db.WithContext(ctx).Create(transaction).Error
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Transaction, error) {
	var transaction models.Transaction
	err := r.db.WithContext(ctx).First(&transaction, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "transaction not found")
	}
	if err != nil {
		return nil, err
	}
	return &transaction, nil
}

func (r *repository) FindPendingByJob(ctx context.Context, jobID uuid.UUID, transactionType enums.TransactionType) (*models.Transaction, error) {
	var transaction models.Transaction
	err := r.db.WithContext(ctx).
		First(&transaction, "job_id = ? AND transaction_type = ? AND status = ?",
			jobID, transactionType, enums.TransactionStatusPending).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "pending transaction not found for job")
	}
	if err != nil {
		return nil, err
	}
	return &transaction, nil
}

// MarkCompleted flips a PENDING transaction to COMPLETED. The guard on
// the current status makes completion single-shot under concurrency.
func (r *repository) MarkCompleted(ctx context.Context, id uuid.UUID) error {
	res := r.db.WithContext(ctx).
		Model(&models.Transaction{}).
		Where("id = ? AND status = ?", id, enums.TransactionStatusPending).
		Update("status", enums.TransactionStatusCompleted)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		existing, err := r.FindByID(ctx, id)
		if err != nil {
			return err
		}
		return pkgerrors.NewInvalidTransition("transaction",
			string(enums.TransactionStatusPending), string(existing.Status))
	}
	return nil
}

func (r *repository) ListByWallet(ctx context.Context, walletID uuid.UUID, params pagination.Params) ([]models.Transaction, string, error) {
	limit := pagination.LimitWithBuffer(params.Limit)

	query := r.db.WithContext(ctx).
		Where("source_wallet_id = ? OR destination_wallet_id = ?", walletID, walletID).
		Order("created_at DESC, id DESC").
		Limit(limit)

	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, "", pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}
	if cursor != nil {
		query = query.Where(
			"created_at < ? OR (created_at = ? AND id < ?)",
			cursor.CreatedAt, cursor.CreatedAt, cursor.ID,
		)
	}

	var transactions []models.Transaction
	if err := query.Find(&transactions).Error; err != nil {
		return nil, "", err
	}

	nextCursor := ""
	if len(transactions) == limit {
		transactions = transactions[:limit-1]
		last := transactions[len(transactions)-1]
		nextCursor = pagination.EncodeCursor(pagination.Cursor{
			CreatedAt: last.CreatedAt,
			ID:        last.ID,
		})
	}
	return transactions, nextCursor, nil
}
