package withdrawals

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/kerjalink/kerjalink-backend/pkg/db/models"
	pkgerrors "github.com/kerjalink/kerjalink-backend/pkg/errors"
)

// MethodRepository manages payout destinations. Account numbers arrive
// already encrypted; this layer never sees plaintext.
type MethodRepository interface {
	WithTx(tx *gorm.DB) MethodRepository
	Create(ctx context.Context, method *models.WithdrawMethod) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.WithdrawMethod, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]models.WithdrawMethod, error)
	CountActiveByUser(ctx context.Context, userID uuid.UUID) (int64, error)
	Delete(ctx context.Context, id, userID uuid.UUID) error
}

type methodRepository struct {
	db *gorm.DB
}

// NewMethodRepository returns a withdraw method repository.
func NewMethodRepository(db *gorm.DB) MethodRepository {
	return &methodRepository{db: db}
}

func (r *methodRepository) WithTx(tx *gorm.DB) MethodRepository {
	if tx == nil {
		return r
	}
	return &methodRepository{db: tx}
}

func (r *methodRepository) Create(ctx context.Context, method *models.WithdrawMethod) error {
	if method.ID == uuid.Nil {
		method.ID = uuid.New()
	}
	return r.db.WithContext(ctx).Create(method).Error
}

func (r *methodRepository) FindByID(ctx context.Context, id uuid.UUID) (*models.WithdrawMethod, error) {
	var method models.WithdrawMethod
	err := r.db.WithContext(ctx).First(&method, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "withdraw method not found")
	}
	if err != nil {
		return nil, err
	}
	return &method, nil
}

func (r *methodRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]models.WithdrawMethod, error) {
	var methods []models.WithdrawMethod
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND is_active = ?", userID, true).
		Order("created_at DESC").
		Find(&methods).Error
	if err != nil {
		return nil, err
	}
	return methods, nil
}

func (r *methodRepository) CountActiveByUser(ctx context.Context, userID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.WithdrawMethod{}).
		Where("user_id = ? AND is_active = ?", userID, true).
		Count(&count).Error
	return count, err
}

// Delete removes a method. Requests keep their method reference for
// audit, so rows referenced by a request are deactivated instead.
func (r *methodRepository) Delete(ctx context.Context, id, userID uuid.UUID) error {
	var referenced int64
	if err := r.db.WithContext(ctx).
		Model(&models.WithdrawRequest{}).
		Where("method_id = ?", id).
		Count(&referenced).Error; err != nil {
		return err
	}

	if referenced > 0 {
		res := r.db.WithContext(ctx).
			Model(&models.WithdrawMethod{}).
			Where("id = ? AND user_id = ?", id, userID).
			Update("is_active", false)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return pkgerrors.New(pkgerrors.CodeNotFound, "withdraw method not found")
		}
		return nil
	}

	res := r.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, userID).
		Delete(&models.WithdrawMethod{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return pkgerrors.New(pkgerrors.CodeNotFound, "withdraw method not found")
	}
	return nil
}
