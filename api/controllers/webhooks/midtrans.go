package webhooks

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/kerjalink/kerjalink-backend/api/responses"
	"github.com/kerjalink/kerjalink-backend/internal/topup"
	pkgerrors "github.com/kerjalink/kerjalink-backend/pkg/errors"
	"github.com/kerjalink/kerjalink-backend/pkg/logger"
)

const maxCallbackBody = 64 << 10

// MidtransCallback receives payment notifications from the gateway.
// The signature inside the payload authenticates the caller; the route
// itself is public.
func MidtransCallback(svc topup.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			io.Copy(io.Discard, r.Body)
		}()

		var payload topup.CallbackPayload
		decoder := json.NewDecoder(io.LimitReader(r.Body, maxCallbackBody))
		if err := decoder.Decode(&payload); err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid callback body"))
			return
		}

		if err := svc.HandleCallback(r.Context(), payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "ok"})
	}
}
