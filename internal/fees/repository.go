package fees

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/kerjalink/kerjalink-backend/pkg/db/models"
	pkgerrors "github.com/kerjalink/kerjalink-backend/pkg/errors"
)

// Repository reads admin-managed fee configuration.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	FindActiveByName(ctx context.Context, name string) (*models.Fee, error)
	List(ctx context.Context) ([]models.Fee, error)
	Create(ctx context.Context, fee *models.Fee) error
	SetActive(ctx context.Context, name string, active bool) error
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a fee repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) FindActiveByName(ctx context.Context, name string) (*models.Fee, error) {
	var fee models.Fee
	err := r.db.WithContext(ctx).First(&fee, "name = ? AND active = ?", name, true).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.New(pkgerrors.CodeFeeUnavailable, "no active fee named "+name)
	}
	if err != nil {
		return nil, err
	}
	return &fee, nil
}

func (r *repository) List(ctx context.Context) ([]models.Fee, error) {
	var fees []models.Fee
	if err := r.db.WithContext(ctx).Order("name ASC").Find(&fees).Error; err != nil {
		return nil, err
	}
	return fees, nil
}

func (r *repository) Create(ctx context.Context, fee *models.Fee) error {
	if fee.ID == uuid.Nil {
		fee.ID = uuid.New()
	}
	return r.db.WithContext(ctx).Create(fee).Error
}

func (r *repository) SetActive(ctx context.Context, name string, active bool) error {
	res := r.db.WithContext(ctx).
		Model(&models.Fee{}).
		Where("name = ?", name).
		Update("active", active)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return pkgerrors.New(pkgerrors.CodeNotFound, "fee not found")
	}
	return nil
}
