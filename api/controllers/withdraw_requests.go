package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/kerjalink/kerjalink-backend/api/responses"
	"github.com/kerjalink/kerjalink-backend/api/validators"
	"github.com/kerjalink/kerjalink-backend/internal/withdrawals"
	pkgerrors "github.com/kerjalink/kerjalink-backend/pkg/errors"
	"github.com/kerjalink/kerjalink-backend/pkg/logger"
	"github.com/kerjalink/kerjalink-backend/pkg/money"
)

type createWithdrawRequest struct {
	MethodID uuid.UUID   `json:"method_id" validate:"required"`
	Amount   money.Money `json:"amount" validate:"required"`
}

// CreateWithdrawRequest debits the user's wallet and queues a manual
// payout.
func CreateWithdrawRequest(svc withdrawals.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := authenticatedUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body createWithdrawRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		request, err := svc.CreateRequest(r.Context(), withdrawals.CreateRequestInput{
			UserID:   userID,
			MethodID: body.MethodID,
			Amount:   body.Amount,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, request)
	}
}

// ListWithdrawRequests returns the user's withdraw history.
func ListWithdrawRequests(svc withdrawals.Service, logg *logger.Logger) http.HandlerFunc {
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

		requests, nextCursor, err := svc.ListRequests(r.Context(), userID, params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{
			"requests":    requests,
			"next_cursor": nextCursor,
		})
	}
}

// GetWithdrawRequest returns one of the user's withdraw requests.
func GetWithdrawRequest(svc withdrawals.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := authenticatedUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		requestID, err := uuid.Parse(chi.URLParam(r, "requestID"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid request id"))
			return
		}

		request, err := svc.GetRequest(r.Context(), requestID, userID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, request)
	}
}
