package handler

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"

	"github.com/edvin/compute/internal/core"
)

func TestWriteServiceError_StatusMapping(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
	}{
		{"not found", pgx.ErrNoRows, http.StatusNotFound},
		{"wrapped not found", fmt.Errorf("getting tenant: %w", pgx.ErrNoRows), http.StatusNotFound},
		{"node not allowed", core.ErrNodeNotAllowed, http.StatusForbidden},
		{"instance quota", core.ErrInstanceQuotaExceeded, http.StatusForbidden},
		{"cpu quota", core.ErrCPUQuotaExceeded, http.StatusForbidden},
		{"memory quota", core.ErrMemoryQuotaExceeded, http.StatusForbidden},
		{"insufficient credits", core.ErrInsufficientCredits, http.StatusPaymentRequired},
		{"no balance", core.ErrNoBalance, http.StatusPaymentRequired},
		{"invalid amount", core.ErrInvalidAmount, http.StatusBadRequest},
		{"unknown", fmt.Errorf("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			writeServiceError(rec, tt.err)
			assert.Equal(t, tt.status, rec.Code)
		})
	}
}
