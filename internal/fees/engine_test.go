package fees

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/kerjalink/kerjalink-backend/pkg/db/models"
	"github.com/kerjalink/kerjalink-backend/pkg/enums"
	pkgerrors "github.com/kerjalink/kerjalink-backend/pkg/errors"
	"github.com/kerjalink/kerjalink-backend/pkg/money"
)

type stubFeeRepo struct {
	fees map[string]*models.Fee
}

func (s *stubFeeRepo) WithTx(*gorm.DB) Repository { return s }

func (s *stubFeeRepo) FindActiveByName(_ context.Context, name string) (*models.Fee, error) {
	if fee, ok := s.fees[name]; ok && fee.Active {
		return fee, nil
	}
	return nil, pkgerrors.New(pkgerrors.CodeFeeUnavailable, "no active fee named "+name)
}

func (s *stubFeeRepo) List(context.Context) ([]models.Fee, error) {
	var out []models.Fee
	for _, fee := range s.fees {
		out = append(out, *fee)
	}
	return out, nil
}

func (s *stubFeeRepo) Create(context.Context, *models.Fee) error     { return nil }
func (s *stubFeeRepo) SetActive(context.Context, string, bool) error { return nil }

func newEngineWith(t *testing.T, fees ...*models.Fee) Engine {
	t.Helper()
	repo := &stubFeeRepo{fees: map[string]*models.Fee{}}
	for _, fee := range fees {
		repo.fees[fee.Name] = fee
	}
	eng, err := NewEngine(repo)
	require.NoError(t, err)
	return eng
}

func TestQuotePercentageFee(t *testing.T) {
	eng := newEngineWith(t, &models.Fee{
		Name:    EscrowFeeName,
		Value:   decimal.NewFromInt(5),
		FeeType: enums.FeeTypePercentage,
		Active:  true,
	})

	quote, err := eng.Quote(context.Background(), EscrowFeeName, money.FromInt(50000))
	require.NoError(t, err)
	assert.True(t, quote.Charge.Equal(money.FromInt(2500)), "charge %s", quote.Charge)
	assert.True(t, quote.Net.Equal(money.FromInt(47500)), "net %s", quote.Net)
	assert.True(t, quote.Charge.Add(quote.Net).Equal(quote.Gross))
}

func TestQuoteFixedFee(t *testing.T) {
	eng := newEngineWith(t, &models.Fee{
		Name:    WithdrawFeeName,
		Value:   decimal.NewFromInt(4500),
		FeeType: enums.FeeTypeFixed,
		Active:  true,
	})

	quote, err := eng.Quote(context.Background(), WithdrawFeeName, money.FromInt(20000))
	require.NoError(t, err)
	assert.True(t, quote.Charge.Equal(money.FromInt(4500)))
	assert.True(t, quote.Net.Equal(money.FromInt(15500)))
}

func TestQuoteFixedFeeCappedAtGross(t *testing.T) {
	eng := newEngineWith(t, &models.Fee{
		Name:    WithdrawFeeName,
		Value:   decimal.NewFromInt(4500),
		FeeType: enums.FeeTypeFixed,
		Active:  true,
	})

	quote, err := eng.Quote(context.Background(), WithdrawFeeName, money.FromInt(3000))
	require.NoError(t, err)
	assert.True(t, quote.Charge.Equal(money.FromInt(3000)))
	assert.True(t, quote.Net.IsZero())
}

func TestQuoteRoundsHalfUp(t *testing.T) {
	eng := newEngineWith(t, &models.Fee{
		Name:    EscrowFeeName,
		Value:   decimal.NewFromInt(5),
		FeeType: enums.FeeTypePercentage,
		Active:  true,
	})

	// 5% of 101.11 = 5.0555 -> 5.06
	quote, err := eng.Quote(context.Background(), EscrowFeeName, money.MustParse("101.11"))
	require.NoError(t, err)
	assert.Equal(t, "5.06", quote.Charge.String())
	assert.Equal(t, "96.05", quote.Net.String())
	assert.True(t, quote.Charge.Add(quote.Net).Equal(quote.Gross))
}

func TestQuoteMissingFee(t *testing.T) {
	eng := newEngineWith(t)

	_, err := eng.Quote(context.Background(), EscrowFeeName, money.FromInt(100))
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeFeeUnavailable))
}

func TestQuoteInactiveFee(t *testing.T) {
	eng := newEngineWith(t, &models.Fee{
		Name:    EscrowFeeName,
		Value:   decimal.NewFromInt(5),
		FeeType: enums.FeeTypePercentage,
		Active:  false,
	})

	_, err := eng.Quote(context.Background(), EscrowFeeName, money.FromInt(100))
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeFeeUnavailable))
}

func TestQuoteMisconfiguredFee(t *testing.T) {
	eng := newEngineWith(t, &models.Fee{
		Name:    EscrowFeeName,
		Value:   decimal.NewFromInt(150),
		FeeType: enums.FeeTypePercentage,
		Active:  true,
	})

	_, err := eng.Quote(context.Background(), EscrowFeeName, money.FromInt(100))
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeFeeMisconfigured))
}

func TestQuoteRejectsNonPositiveGross(t *testing.T) {
	eng := newEngineWith(t)

	_, err := eng.Quote(context.Background(), EscrowFeeName, money.Zero())
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}
