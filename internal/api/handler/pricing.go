package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/edvin/compute/internal/api/request"
	"github.com/edvin/compute/internal/api/response"
	"github.com/edvin/compute/internal/core"
	"github.com/edvin/compute/internal/model"
)

type Pricing struct {
	svc *core.PricingService
}

func NewPricing(svc *core.PricingService) *Pricing {
	return &Pricing{svc: svc}
}

func (h *Pricing) List(w http.ResponseWriter, r *http.Request) {
	tiers, err := h.svc.List(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}

	response.WriteJSON(w, http.StatusOK, tiers)
}

func (h *Pricing) Create(w http.ResponseWriter, r *http.Request) {
	var req request.CreatePricingTier
	if err := request.Decode(r, &req); err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	tier := &model.PricingTier{
		Name:          req.Name,
		Description:   req.Description,
		CPUHourly:     req.CPUHourly,
		MemoryHourly:  req.MemoryHourly,
		DiskHourly:    req.DiskHourly,
		CPUMonthly:    req.CPUMonthly,
		MemoryMonthly: req.MemoryMonthly,
		DiskMonthly:   req.DiskMonthly,
		IsDefault:     req.IsDefault,
	}
	if err := h.svc.Create(r.Context(), tier); err != nil {
		writeServiceError(w, err)
		return
	}

	response.WriteJSON(w, http.StatusCreated, tier)
}

func (h *Pricing) Get(w http.ResponseWriter, r *http.Request) {
	id, err := request.RequireID(chi.URLParam(r, "id"))
	if err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	tier, err := h.svc.Get(r.Context(), id)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	response.WriteJSON(w, http.StatusOK, tier)
}

func (h *Pricing) Deactivate(w http.ResponseWriter, r *http.Request) {
	id, err := request.RequireID(chi.URLParam(r, "id"))
	if err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.svc.Deactivate(r.Context(), id); err != nil {
		writeServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Pricing) Estimate(w http.ResponseWriter, r *http.Request) {
	var req request.Estimate
	if err := request.Decode(r, &req); err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	estimate, err := h.svc.Estimate(r.Context(), req.Cores, req.MemoryMB, req.DiskGB)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	response.WriteJSON(w, http.StatusOK, estimate)
}
