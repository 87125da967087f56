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
)

type addMethodRequest struct {
	Method        string `json:"method" validate:"required"`
	Provider      string `json:"provider" validate:"required"`
	AccountName   string `json:"account_name" validate:"required"`
	AccountNumber string `json:"account_number" validate:"required,min=4"`
}

// AddWithdrawMethod registers a payout destination for the
// authenticated user.
func AddWithdrawMethod(svc withdrawals.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := authenticatedUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body addMethodRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		method, err := svc.AddMethod(r.Context(), withdrawals.AddMethodInput{
			UserID:        userID,
			Method:        body.Method,
			Provider:      body.Provider,
			AccountName:   body.AccountName,
			AccountNumber: body.AccountNumber,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, method)
	}
}

// ListWithdrawMethods returns the user's active payout destinations
// with masked account numbers.
func ListWithdrawMethods(svc withdrawals.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := authenticatedUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		methods, err := svc.ListMethods(r.Context(), userID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, methods)
	}
}

// RemoveWithdrawMethod deletes (or deactivates) one of the user's
// payout destinations.
func RemoveWithdrawMethod(svc withdrawals.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := authenticatedUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		methodID, err := uuid.Parse(chi.URLParam(r, "methodID"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid method id"))
			return
		}

		if err := svc.RemoveMethod(r.Context(), userID, methodID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "deleted"})
	}
}
