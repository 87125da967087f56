package controllers

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/kerjalink/kerjalink-backend/api/middleware"
	"github.com/kerjalink/kerjalink-backend/api/responses"
	"github.com/kerjalink/kerjalink-backend/api/validators"
	"github.com/kerjalink/kerjalink-backend/internal/topup"
	"github.com/kerjalink/kerjalink-backend/internal/wallet"
	pkgerrors "github.com/kerjalink/kerjalink-backend/pkg/errors"
	"github.com/kerjalink/kerjalink-backend/pkg/logger"
	"github.com/kerjalink/kerjalink-backend/pkg/money"
)

func authenticatedUserID(r *http.Request) (uuid.UUID, error) {
	raw := middleware.UserIDFromContext(r.Context())
	if raw == "" {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials")
	}
	userID, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid user id")
	}
	return userID, nil
}

// GetWallet returns the authenticated user's wallet.
func GetWallet(svc wallet.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := authenticatedUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		resp, err := svc.GetByUser(r.Context(), userID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, resp)
	}
}

// GetWalletStatement returns a paginated transaction history for the
// authenticated user's wallet.
func GetWalletStatement(svc wallet.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := authenticatedUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		params, err := validators.ParsePagination(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		resp, err := svc.Statement(r.Context(), userID, params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, resp)
	}
}

type topupRequest struct {
	Amount        money.Money `json:"amount" validate:"required"`
	CustomerName  string      `json:"customer_name"`
	CustomerEmail string      `json:"customer_email" validate:"omitempty,email"`
}

// CreateTopup starts a payment-gateway funding session for the
// authenticated user's wallet.
func CreateTopup(svc topup.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := authenticatedUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body topupRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		intent, err := svc.CreateIntent(r.Context(), topup.IntentInput{
			UserID:        userID,
			Amount:        body.Amount,
			CustomerName:  body.CustomerName,
			CustomerEmail: body.CustomerEmail,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, intent)
	}
}
