package validators

import (
	"net/http"
	"strconv"
	"strings"

	pkgerrors "github.com/kerjalink/kerjalink-backend/pkg/errors"
	"github.com/kerjalink/kerjalink-backend/pkg/pagination"
)

// ParsePagination reads the limit/cursor query parameters.
func ParsePagination(r *http.Request) (pagination.Params, error) {
	params := pagination.Params{}

	if limitStr := strings.TrimSpace(r.URL.Query().Get("limit")); limitStr != "" {
		value, err := strconv.Atoi(limitStr)
		if err != nil || value <= 0 {
			return params, pkgerrors.New(pkgerrors.CodeValidation, "limit must be a positive integer")
		}
		params.Limit = value
	}

	params.Cursor = strings.TrimSpace(r.URL.Query().Get("cursor"))
	return params, nil
}
