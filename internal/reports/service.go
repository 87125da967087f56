package reports

import (
	"context"
	"time"

	"github.com/kerjalink/kerjalink-backend/pkg/enums"
	pkgerrors "github.com/kerjalink/kerjalink-backend/pkg/errors"
	"github.com/kerjalink/kerjalink-backend/pkg/money"
)

// DashboardSummary is the admin financial overview for a period.
type DashboardSummary struct {
	From               time.Time   `json:"from"`
	To                 time.Time   `json:"to"`
	FundingInflow      money.Money `json:"funding_inflow"`
	WithdrawalOutflow  money.Money `json:"withdrawal_outflow"`
	EscrowOutflow      money.Money `json:"escrow_outflow"`
	PlatformFees       money.Money `json:"platform_fees"`
	PlatformBalance    money.Money `json:"platform_balance"`
	HeldEscrowTotal    money.Money `json:"held_escrow_total"`
	OpenWithdrawTotals money.Money `json:"open_withdraw_total"`
}

// Service aggregates ledger data for reporting. All reads, no writes.
type Service interface {
	DashboardSummary(ctx context.Context, from, to time.Time) (*DashboardSummary, error)
}

type service struct {
	repo Repository
}

// NewService returns the reporting service.
func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "report repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) DashboardSummary(ctx context.Context, from, to time.Time) (*DashboardSummary, error) {
	if from.IsZero() || to.IsZero() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "period bounds are required")
	}
	if !from.Before(to) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "period start must precede period end")
	}

	inflow, err := s.repo.SumCompletedByType(ctx, enums.TransactionTypeFunding, from, to)
	if err != nil {
		return nil, err
	}
	withdrawals, err := s.repo.SumCompletedByType(ctx, enums.TransactionTypeWithdrawal, from, to)
	if err != nil {
		return nil, err
	}
	escrowReleases, err := s.repo.SumCompletedByType(ctx, enums.TransactionTypeEscrowRelease, from, to)
	if err != nil {
		return nil, err
	}
	platformFees, err := s.repo.SumPlatformFees(ctx, from, to)
	if err != nil {
		return nil, err
	}
	platformBalance, err := s.repo.PlatformBalance(ctx)
	if err != nil {
		return nil, err
	}
	heldEscrow, err := s.repo.SumHeldEscrow(ctx)
	if err != nil {
		return nil, err
	}
	openWithdraws, err := s.repo.SumOpenWithdrawRequests(ctx)
	if err != nil {
		return nil, err
	}

	return &DashboardSummary{
		From:               from,
		To:                 to,
		FundingInflow:      inflow,
		WithdrawalOutflow:  withdrawals,
		EscrowOutflow:      escrowReleases,
		PlatformFees:       platformFees,
		PlatformBalance:    platformBalance,
		HeldEscrowTotal:    heldEscrow,
		OpenWithdrawTotals: openWithdraws,
	}, nil
}
