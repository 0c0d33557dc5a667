package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/edvin/compute/internal/api/request"
	"github.com/edvin/compute/internal/api/response"
	"github.com/edvin/compute/internal/core"
	"github.com/edvin/compute/internal/model"
)

type APIKey struct {
	svc *core.APIKeyService
}

func NewAPIKey(svc *core.APIKeyService) *APIKey {
	return &APIKey{svc: svc}
}

func (h *APIKey) List(w http.ResponseWriter, r *http.Request) {
	keys, err := h.svc.List(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}

	response.WriteJSON(w, http.StatusOK, keys)
}

type createdAPIKey struct {
	Key    string        `json:"key"`
	APIKey *model.APIKey `json:"api_key"`
}

func (h *APIKey) Create(w http.ResponseWriter, r *http.Request) {
	var req request.CreateAPIKey
	if err := request.Decode(r, &req); err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	plaintext, key, err := h.svc.Create(r.Context(), req.Name)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	// The plaintext key appears in this response only.
	response.WriteJSON(w, http.StatusCreated, createdAPIKey{Key: plaintext, APIKey: key})
}

func (h *APIKey) Revoke(w http.ResponseWriter, r *http.Request) {
	id, err := request.RequireID(chi.URLParam(r, "id"))
	if err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.svc.Revoke(r.Context(), id); err != nil {
		writeServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
