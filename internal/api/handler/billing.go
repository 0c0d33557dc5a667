package handler

import (
	"net/http"

	"github.com/edvin/compute/internal/api/response"
	"github.com/edvin/compute/internal/core"
)

type Billing struct {
	svc *core.BillingService
}

func NewBilling(svc *core.BillingService) *Billing {
	return &Billing{svc: svc}
}

// RunSweep triggers a billing sweep outside the hourly schedule. The
// billing watermark makes an extra run safe.
func (h *Billing) RunSweep(w http.ResponseWriter, r *http.Request) {
	result, err := h.svc.RunSweep(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}

	response.WriteJSON(w, http.StatusOK, result)
}
