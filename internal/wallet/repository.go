package wallet

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	pkgdb "github.com/kerjalink/kerjalink-backend/pkg/db"
	"github.com/kerjalink/kerjalink-backend/pkg/db/models"
	pkgerrors "github.com/kerjalink/kerjalink-backend/pkg/errors"
	"github.com/kerjalink/kerjalink-backend/pkg/money"
)

// Repository manages persistence for user wallets. Balance movements are
// single conditional UPDATEs so concurrent spenders serialize on the row
// and the non-negative invariant holds without a read-modify-write.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, wallet *models.Wallet) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Wallet, error)
	FindByUserID(ctx context.Context, userID uuid.UUID) (*models.Wallet, error)
	Credit(ctx context.Context, walletID uuid.UUID, amount money.Money) error
	Debit(ctx context.Context, walletID uuid.UUID, amount money.Money) error
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a wallet repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, wallet *models.Wallet) error {
	if wallet.ID == uuid.Nil {
		wallet.ID = uuid.New()
	}
	if err := r.db.WithContext(ctx).Create(wallet).Error; err != nil {
		// One wallet per user, enforced by the unique index.
		if pkgdb.IsUniqueViolation(err, "user_id") {
			return pkgerrors.New(pkgerrors.CodeConflict, "wallet already exists for this user")
		}
		return err
	}
	return nil
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Wallet, error) {
	var wallet models.Wallet
	err := r.db.WithContext(ctx).First(&wallet, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "wallet not found")
	}
	if err != nil {
		return nil, err
	}
	return &wallet, nil
}

func (r *repository) FindByUserID(ctx context.Context, userID uuid.UUID) (*models.Wallet, error) {
	var wallet models.Wallet
	err := r.db.WithContext(ctx).First(&wallet, "user_id = ?", userID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "wallet not found")
	}
	if err != nil {
		return nil, err
	}
	return &wallet, nil
}

func (r *repository) Credit(ctx context.Context, walletID uuid.UUID, amount money.Money) error {
	if !amount.IsPositive() {
		return pkgerrors.New(pkgerrors.CodeValidation, "credit amount must be positive")
	}
	res := r.db.WithContext(ctx).
		Model(&models.Wallet{}).
		Where("id = ?", walletID).
		Update("balance", gorm.Expr("balance + ?", amount))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return pkgerrors.New(pkgerrors.CodeNotFound, "wallet not found")
	}
	return nil
}

func (r *repository) Debit(ctx context.Context, walletID uuid.UUID, amount money.Money) error {
	if !amount.IsPositive() {
		return pkgerrors.New(pkgerrors.CodeValidation, "debit amount must be positive")
	}
	res := r.db.WithContext(ctx).
		Model(&models.Wallet{}).
		Where("id = ? AND balance >= ?", walletID, amount).
		Update("balance", gorm.Expr("balance - ?", amount))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		// Distinguish a missing wallet from an uncovered balance.
		if _, err := r.FindByID(ctx, walletID); err != nil {
			return err
		}
		return pkgerrors.New(pkgerrors.CodeInsufficientFunds, "wallet balance cannot cover the amount")
	}
	return nil
}
