package handler

import (
	"net/http"

	"github.com/edvin/compute/internal/api/response"
	"github.com/edvin/compute/internal/hypervisor"
)

type Hypervisor struct {
	provider *hypervisor.Provider
}

func NewHypervisor(provider *hypervisor.Provider) *Hypervisor {
	return &Hypervisor{provider: provider}
}

// Status reports hypervisor reachability. It never fails the request;
// an unreachable hypervisor is a result, not an error.
func (h *Hypervisor) Status(w http.ResponseWriter, r *http.Request) {
	status := h.provider.Client().TestConnection(r.Context())
	response.WriteJSON(w, http.StatusOK, status)
}
