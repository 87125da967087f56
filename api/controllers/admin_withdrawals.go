package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/kerjalink/kerjalink-backend/api/middleware"
	"github.com/kerjalink/kerjalink-backend/api/responses"
	"github.com/kerjalink/kerjalink-backend/api/validators"
	"github.com/kerjalink/kerjalink-backend/internal/withdrawals"
	"github.com/kerjalink/kerjalink-backend/pkg/enums"
	pkgerrors "github.com/kerjalink/kerjalink-backend/pkg/errors"
	"github.com/kerjalink/kerjalink-backend/pkg/logger"
)

func adminID(r *http.Request) (uuid.UUID, error) {
	raw := middleware.UserIDFromContext(r.Context())
	if raw == "" {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials")
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid admin id")
	}
	return id, nil
}

func withdrawRequestID(r *http.Request) (uuid.UUID, error) {
	id, err := uuid.Parse(chi.URLParam(r, "requestID"))
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid request id")
	}
	return id, nil
}

// ListWithdrawQueue returns withdraw requests for admin review,
// optionally filtered by status.
func ListWithdrawQueue(svc withdrawals.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		params, err := validators.ParsePagination(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		status := enums.WithdrawStatus(r.URL.Query().Get("status"))
		requests, nextCursor, err := svc.ListQueue(r.Context(), status, params)
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

// LockWithdrawRequest claims a pending request for the calling admin.
func LockWithdrawRequest(svc withdrawals.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		admin, err := adminID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		requestID, err := withdrawRequestID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.Lock(r.Context(), requestID, admin); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "locked"})
	}
}

// UnlockWithdrawRequest returns a claimed request to the queue.
func UnlockWithdrawRequest(svc withdrawals.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		admin, err := adminID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		requestID, err := withdrawRequestID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.Unlock(r.Context(), requestID, admin); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "unlocked"})
	}
}

type adminNoteRequest struct {
	Note string `json:"note"`
}

// ApproveWithdrawRequest approves a claimed request and returns the
// decrypted payout details for the manual transfer.
func ApproveWithdrawRequest(svc withdrawals.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		admin, err := adminID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		requestID, err := withdrawRequestID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body adminNoteRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		details, err := svc.Approve(r.Context(), requestID, admin, body.Note)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, details)
	}
}

// RejectWithdrawRequest rejects a claimed request and refunds the user.
func RejectWithdrawRequest(svc withdrawals.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		admin, err := adminID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		requestID, err := withdrawRequestID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body adminNoteRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.Reject(r.Context(), requestID, admin, body.Note); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "rejected"})
	}
}

type sendWithdrawRequest struct {
	Receipt string `json:"receipt" validate:"required"`
}

// SendWithdrawRequest records the transfer receipt and finalizes the
// payout.
func SendWithdrawRequest(svc withdrawals.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		admin, err := adminID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		requestID, err := withdrawRequestID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body sendWithdrawRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.Send(r.Context(), requestID, admin, body.Receipt); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "sent"})
	}
}
