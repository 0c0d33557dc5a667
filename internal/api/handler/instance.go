package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/edvin/compute/internal/api/request"
	"github.com/edvin/compute/internal/api/response"
	"github.com/edvin/compute/internal/core"
)

type Instance struct {
	svc     *core.InstanceService
	tenants *core.TenantService
}

func NewInstance(svc *core.InstanceService, tenants *core.TenantService) *Instance {
	return &Instance{svc: svc, tenants: tenants}
}

func (h *Instance) ListByTenant(w http.ResponseWriter, r *http.Request) {
	tenantID, err := request.RequireID(chi.URLParam(r, "tenantID"))
	if err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	p := request.ParsePagination(r)

	instances, hasMore, err := h.svc.List(r.Context(), tenantID, p.Limit, p.Cursor)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	nextCursor := ""
	if hasMore && len(instances) > 0 {
		nextCursor = instances[len(instances)-1].ID
	}
	response.WritePaginated(w, http.StatusOK, instances, nextCursor, hasMore)
}

// Create admits and queues an instance. Provisioning is asynchronous:
// the response is 202 and the instance starts out pending.
func (h *Instance) Create(w http.ResponseWriter, r *http.Request) {
	tenantID, err := request.RequireID(chi.URLParam(r, "tenantID"))
	if err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	var req request.CreateInstance
	if err := request.Decode(r, &req); err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	tenant, err := h.tenants.Get(r.Context(), tenantID)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	instance, decision, err := h.svc.Create(r.Context(), tenant, core.CreateInstanceParams{
		Node:         req.Node,
		TemplateVMID: req.TemplateVMID,
		Type:         req.Type,
		Name:         req.Name,
		Cores:        req.Cores,
		MemoryMB:     req.MemoryMB,
		DiskGB:       req.DiskGB,
		BillingMode:  req.BillingMode,
		Credentials: core.CredentialParams{
			CloudInitUser:     req.CloudInitUser,
			CloudInitPassword: req.CloudInitPassword,
			RootPassword:      req.RootPassword,
			SSHPublicKeys:     req.SSHPublicKeys,
		},
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}

	response.WriteJSON(w, http.StatusAccepted, map[string]any{
		"instance":  instance,
		"admission": decision,
	})
}

func (h *Instance) Get(w http.ResponseWriter, r *http.Request) {
	tenantID, err := request.RequireID(chi.URLParam(r, "tenantID"))
	if err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	id, err := request.RequireID(chi.URLParam(r, "id"))
	if err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	instance, err := h.svc.Get(r.Context(), tenantID, id)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	response.WriteJSON(w, http.StatusOK, instance)
}

func (h *Instance) Delete(w http.ResponseWriter, r *http.Request) {
	tenantID, err := request.RequireID(chi.URLParam(r, "tenantID"))
	if err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	id, err := request.RequireID(chi.URLParam(r, "id"))
	if err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.svc.Delete(r.Context(), tenantID, id); err != nil {
		writeServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusAccepted)
}
