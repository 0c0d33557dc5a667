package handler

import (
	"errors"
	"net/http"

	"github.com/jackc/pgx/v5"

	"github.com/edvin/compute/internal/api/response"
	"github.com/edvin/compute/internal/core"
)

// writeServiceError maps core errors to HTTP status codes. Quota and
// placement rejections are 403, billing shortfalls 402, bad amounts 400
// and missing rows 404; anything else is a 500.
func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, pgx.ErrNoRows):
		response.WriteError(w, http.StatusNotFound, "not found")
	case errors.Is(err, core.ErrNodeNotAllowed),
		errors.Is(err, core.ErrInstanceQuotaExceeded),
		errors.Is(err, core.ErrCPUQuotaExceeded),
		errors.Is(err, core.ErrMemoryQuotaExceeded):
		response.WriteError(w, http.StatusForbidden, err.Error())
	case errors.Is(err, core.ErrInsufficientCredits),
		errors.Is(err, core.ErrNoBalance):
		response.WriteError(w, http.StatusPaymentRequired, err.Error())
	case errors.Is(err, core.ErrInvalidAmount):
		response.WriteError(w, http.StatusBadRequest, err.Error())
	default:
		response.WriteError(w, http.StatusInternalServerError, err.Error())
	}
}
