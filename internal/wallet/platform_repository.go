package wallet

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/kerjalink/kerjalink-backend/pkg/db/models"
	pkgerrors "github.com/kerjalink/kerjalink-backend/pkg/errors"
	"github.com/kerjalink/kerjalink-backend/pkg/money"
)

// platformWalletID is the single row seeded by migrations.
const platformWalletID = int64(1)

// PlatformRepository manages the platform fee wallet.
type PlatformRepository interface {
	WithTx(tx *gorm.DB) PlatformRepository
	Get(ctx context.Context) (*models.PlatformWallet, error)
	Credit(ctx context.Context, amount money.Money) error
}

type platformRepository struct {
	db *gorm.DB
}

// NewPlatformRepository returns the platform wallet repository.
func NewPlatformRepository(db *gorm.DB) PlatformRepository {
	return &platformRepository{db: db}
}

func (r *platformRepository) WithTx(tx *gorm.DB) PlatformRepository {
	if tx == nil {
		return r
	}
	return &platformRepository{db: tx}
}

func (r *platformRepository) Get(ctx context.Context) (*models.PlatformWallet, error) {
	var wallet models.PlatformWallet
	err := r.db.WithContext(ctx).First(&wallet, "id = ?", platformWalletID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "platform wallet is not seeded")
	}
	if err != nil {
		return nil, err
	}
	return &wallet, nil
}

func (r *platformRepository) Credit(ctx context.Context, amount money.Money) error {
	if !amount.IsPositive() {
		return pkgerrors.New(pkgerrors.CodeValidation, "credit amount must be positive")
	}
	res := r.db.WithContext(ctx).
		Model(&models.PlatformWallet{}).
		Where("id = ?", platformWalletID).
		Update("balance", gorm.Expr("balance + ?", amount))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return pkgerrors.New(pkgerrors.CodeInternal, "platform wallet is not seeded")
	}
	return nil
}
