package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/edvin/compute/internal/api/request"
	"github.com/edvin/compute/internal/api/response"
	"github.com/edvin/compute/internal/core"
	"github.com/edvin/compute/internal/model"
)

type Credit struct {
	svc *core.CreditService
}

func NewCredit(svc *core.CreditService) *Credit {
	return &Credit{svc: svc}
}

func (h *Credit) Balance(w http.ResponseWriter, r *http.Request) {
	tenantID, err := request.RequireID(chi.URLParam(r, "tenantID"))
	if err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	balance, err := h.svc.Balance(r.Context(), tenantID)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	response.WriteJSON(w, http.StatusOK, balance)
}

type ledgerResult struct {
	Balance     *model.CreditBalance `json:"balance"`
	Transaction *model.Transaction   `json:"transaction"`
}

func (h *Credit) Credit(w http.ResponseWriter, r *http.Request) {
	tenantID, err := request.RequireID(chi.URLParam(r, "tenantID"))
	if err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	var req request.Credit
	if err := request.Decode(r, &req); err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	balance, tx, err := h.svc.Credit(r.Context(), tenantID, req.Amount, req.Description, req.Metadata)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	response.WriteJSON(w, http.StatusCreated, ledgerResult{Balance: balance, Transaction: tx})
}

func (h *Credit) Adjust(w http.ResponseWriter, r *http.Request) {
	tenantID, err := request.RequireID(chi.URLParam(r, "tenantID"))
	if err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	var req request.Adjust
	if err := request.Decode(r, &req); err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	balance, tx, err := h.svc.Adjust(r.Context(), tenantID, req.Amount, req.Description, req.Metadata)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	response.WriteJSON(w, http.StatusCreated, ledgerResult{Balance: balance, Transaction: tx})
}

func (h *Credit) Refund(w http.ResponseWriter, r *http.Request) {
	tenantID, err := request.RequireID(chi.URLParam(r, "tenantID"))
	if err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	var req request.Refund
	if err := request.Decode(r, &req); err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	balance, tx, err := h.svc.Refund(r.Context(), tenantID, req.Amount, req.Description, req.Metadata)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	response.WriteJSON(w, http.StatusCreated, ledgerResult{Balance: balance, Transaction: tx})
}

func (h *Credit) Transactions(w http.ResponseWriter, r *http.Request) {
	tenantID, err := request.RequireID(chi.URLParam(r, "tenantID"))
	if err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	p := request.ParsePagination(r)

	txs, hasMore, err := h.svc.Transactions(r.Context(), tenantID, p.Limit, p.Cursor)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	nextCursor := ""
	if hasMore && len(txs) > 0 {
		nextCursor = txs[len(txs)-1].ID
	}
	response.WritePaginated(w, http.StatusOK, txs, nextCursor, hasMore)
}
