package controllers

import (
	"net/http"
	"strings"
	"time"

	"github.com/kerjalink/kerjalink-backend/api/responses"
	"github.com/kerjalink/kerjalink-backend/internal/reports"
	pkgerrors "github.com/kerjalink/kerjalink-backend/pkg/errors"
	"github.com/kerjalink/kerjalink-backend/pkg/logger"
)

const defaultReportWindow = 30 * 24 * time.Hour

// GetDashboardReport returns the admin financial summary. The period
// defaults to the last 30 days when from/to are omitted.
func GetDashboardReport(svc reports.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		now := time.Now().UTC()
		from := now.Add(-defaultReportWindow)
		to := now

		if raw := strings.TrimSpace(r.URL.Query().Get("from")); raw != "" {
			parsed, err := time.Parse(time.RFC3339, raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid from timestamp"))
				return
			}
			from = parsed
		}
		if raw := strings.TrimSpace(r.URL.Query().Get("to")); raw != "" {
			parsed, err := time.Parse(time.RFC3339, raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid to timestamp"))
				return
			}
			to = parsed
		}

		summary, err := svc.DashboardSummary(r.Context(), from, to)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, summary)
	}
}
