package reports

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/kerjalink/kerjalink-backend/pkg/db/models"
	"github.com/kerjalink/kerjalink-backend/pkg/enums"
	"github.com/kerjalink/kerjalink-backend/pkg/money"
)

// Repository runs the read-only aggregate queries behind the admin
// dashboard.
type Repository interface {
	SumCompletedByType(ctx context.Context, transactionType enums.TransactionType, from, to time.Time) (money.Money, error)
	SumPlatformFees(ctx context.Context, from, to time.Time) (money.Money, error)
	PlatformBalance(ctx context.Context) (money.Money, error)
	SumHeldEscrow(ctx context.Context) (money.Money, error)
	SumOpenWithdrawRequests(ctx context.Context) (money.Money, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a reporting repository.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) SumCompletedByType(ctx context.Context, transactionType enums.TransactionType, from, to time.Time) (money.Money, error) {
	var total money.Money
	err := r.db.WithContext(ctx).
		Model(&models.Transaction{}).
		Select("COALESCE(SUM(amount), 0)").
		Where("transaction_type = ? AND status = ?", transactionType, enums.TransactionStatusCompleted).
		Where("created_at >= ? AND created_at < ?", from, to).
		Row().Scan(&total)
	if err != nil {
		return money.Zero(), err
	}
	return total, nil
}

func (r *repository) SumPlatformFees(ctx context.Context, from, to time.Time) (money.Money, error) {
	var total money.Money
	err := r.db.WithContext(ctx).
		Model(&models.PlatformTransaction{}).
		Select("COALESCE(SUM(amount), 0)").
		Where("created_at >= ? AND created_at < ?", from, to).
		Row().Scan(&total)
	if err != nil {
		return money.Zero(), err
	}
	return total, nil
}

func (r *repository) PlatformBalance(ctx context.Context) (money.Money, error) {
	var total money.Money
	err := r.db.WithContext(ctx).
		Model(&models.PlatformWallet{}).
		Select("COALESCE(SUM(balance), 0)").
		Row().Scan(&total)
	if err != nil {
		return money.Zero(), err
	}
	return total, nil
}

func (r *repository) SumHeldEscrow(ctx context.Context) (money.Money, error) {
	var total money.Money
	err := r.db.WithContext(ctx).
		Model(&models.Escrow{}).
		Select("COALESCE(SUM(amount), 0)").
		Where("status = ?", enums.EscrowStatusHeld).
		Row().Scan(&total)
	if err != nil {
		return money.Zero(), err
	}
	return total, nil
}

func (r *repository) SumOpenWithdrawRequests(ctx context.Context) (money.Money, error) {
	var total money.Money
	err := r.db.WithContext(ctx).
		Model(&models.WithdrawRequest{}).
		Select("COALESCE(SUM(amount), 0)").
		Where("status IN ?", []enums.WithdrawStatus{
			enums.WithdrawStatusPending,
			enums.WithdrawStatusProcessing,
		}).
		Row().Scan(&total)
	if err != nil {
		return money.Zero(), err
	}
	return total, nil
}
