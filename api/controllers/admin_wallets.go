package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/kerjalink/kerjalink-backend/api/responses"
	"github.com/kerjalink/kerjalink-backend/api/validators"
	"github.com/kerjalink/kerjalink-backend/internal/topup"
	pkgerrors "github.com/kerjalink/kerjalink-backend/pkg/errors"
	"github.com/kerjalink/kerjalink-backend/pkg/logger"
	"github.com/kerjalink/kerjalink-backend/pkg/money"
)

type addBalanceRequest struct {
	Amount money.Money `json:"amount" validate:"required"`
}

// AddWalletBalance credits a user's wallet directly. Admin only.
func AddWalletBalance(svc topup.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		admin, err := adminID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		userID, err := uuid.Parse(chi.URLParam(r, "userID"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid user id"))
			return
		}

		var body addBalanceRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		funded, err := svc.AddBalance(r.Context(), topup.AddBalanceInput{
			UserID:  userID,
			Amount:  body.Amount,
			AdminID: admin,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, funded)
	}
}
