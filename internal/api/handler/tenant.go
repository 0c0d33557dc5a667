package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/edvin/compute/internal/api/request"
	"github.com/edvin/compute/internal/api/response"
	"github.com/edvin/compute/internal/core"
	"github.com/edvin/compute/internal/model"
)

type Tenant struct {
	svc *core.TenantService
}

func NewTenant(svc *core.TenantService) *Tenant {
	return &Tenant{svc: svc}
}

func (h *Tenant) List(w http.ResponseWriter, r *http.Request) {
	p := request.ParsePagination(r)

	tenants, hasMore, err := h.svc.List(r.Context(), p.Limit, p.Cursor)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	nextCursor := ""
	if hasMore && len(tenants) > 0 {
		nextCursor = tenants[len(tenants)-1].ID
	}
	response.WritePaginated(w, http.StatusOK, tenants, nextCursor, hasMore)
}

func (h *Tenant) Create(w http.ResponseWriter, r *http.Request) {
	var req request.CreateTenant
	if err := request.Decode(r, &req); err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	tenant := &model.Tenant{
		Name:         req.Name,
		MaxCPU:       req.MaxCPU,
		MaxMemoryMB:  req.MaxMemoryMB,
		MaxInstances: req.MaxInstances,
		MaxDiskGB:    req.MaxDiskGB,
		AllowedNodes: req.AllowedNodes,
	}
	if err := h.svc.Create(r.Context(), tenant); err != nil {
		writeServiceError(w, err)
		return
	}

	response.WriteJSON(w, http.StatusCreated, tenant)
}

func (h *Tenant) Get(w http.ResponseWriter, r *http.Request) {
	id, err := request.RequireID(chi.URLParam(r, "id"))
	if err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	tenant, err := h.svc.Get(r.Context(), id)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	response.WriteJSON(w, http.StatusOK, tenant)
}

func (h *Tenant) Update(w http.ResponseWriter, r *http.Request) {
	id, err := request.RequireID(chi.URLParam(r, "id"))
	if err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	var req request.UpdateTenant
	if err := request.Decode(r, &req); err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	tenant := &model.Tenant{
		ID:           id,
		Name:         req.Name,
		MaxCPU:       req.MaxCPU,
		MaxMemoryMB:  req.MaxMemoryMB,
		MaxInstances: req.MaxInstances,
		MaxDiskGB:    req.MaxDiskGB,
		AllowedNodes: req.AllowedNodes,
	}
	if err := h.svc.UpdateQuotas(r.Context(), tenant); err != nil {
		writeServiceError(w, err)
		return
	}

	response.WriteJSON(w, http.StatusOK, tenant)
}

func (h *Tenant) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := request.RequireID(chi.URLParam(r, "id"))
	if err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.svc.Delete(r.Context(), id); err != nil {
		writeServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
