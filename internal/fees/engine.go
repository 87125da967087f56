package fees

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/kerjalink/kerjalink-backend/pkg/db/models"
	"github.com/kerjalink/kerjalink-backend/pkg/enums"
	pkgerrors "github.com/kerjalink/kerjalink-backend/pkg/errors"
	"github.com/kerjalink/kerjalink-backend/pkg/money"
)

// Fee names resolved by the ledger flows.
const (
	EscrowFeeName   = "escrow_fee"
	WithdrawFeeName = "withdraw_fee"
)

var oneHundred = decimal.NewFromInt(100)

// Quote is a fee applied to a gross amount. Charge + Net always equals
// the gross amount it was computed from.
type Quote struct {
	Fee    models.Fee  `json:"fee"`
	Gross  money.Money `json:"gross"`
	Charge money.Money `json:"charge"`
	Net    money.Money `json:"net"`
}

// Engine resolves named fees and applies them to amounts.
type Engine interface {
	Quote(ctx context.Context, name string, gross money.Money) (*Quote, error)
	ListFees(ctx context.Context) ([]models.Fee, error)
}

type engine struct {
	repo Repository
}

// NewEngine wires a fee engine with the provided repository.
func NewEngine(repo Repository) (Engine, error) {
	if repo == nil {
		return nil, fmt.Errorf("fee repository required")
	}
	return &engine{repo: repo}, nil
}

func (e *engine) Quote(ctx context.Context, name string, gross money.Money) (*Quote, error) {
	if !gross.IsPositive() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "gross amount must be positive")
	}

	fee, err := e.repo.FindActiveByName(ctx, name)
	if err != nil {
		return nil, err
	}

	charge, err := computeCharge(fee, gross)
	if err != nil {
		return nil, err
	}

	return &Quote{
		Fee:    *fee,
		Gross:  gross,
		Charge: charge,
		Net:    gross.Sub(charge),
	}, nil
}

func (e *engine) ListFees(ctx context.Context) ([]models.Fee, error) {
	return e.repo.List(ctx)
}

func computeCharge(fee *models.Fee, gross money.Money) (money.Money, error) {
	if fee.Value.IsNegative() {
		return money.Money{}, pkgerrors.New(pkgerrors.CodeFeeMisconfigured, "fee value is negative")
	}

	switch fee.FeeType {
	case enums.FeeTypePercentage:
		if fee.Value.GreaterThan(oneHundred) {
			return money.Money{}, pkgerrors.New(pkgerrors.CodeFeeMisconfigured, "percentage fee exceeds 100")
		}
		return gross.Percent(fee.Value), nil

	case enums.FeeTypeFixed:
		// A fixed fee never takes more than the gross amount.
		return money.FromDecimal(fee.Value).Min(gross), nil

	default:
		return money.Money{}, pkgerrors.New(pkgerrors.CodeFeeMisconfigured, "unknown fee type "+string(fee.FeeType))
	}
}
