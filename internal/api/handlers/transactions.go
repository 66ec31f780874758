package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/baharkarakas/autotopup-backend/internal/api/httpx"
	"github.com/baharkarakas/autotopup-backend/internal/services"
)

type TransactionHandler struct {
	Svc *services.TransactionService
}

func (h *TransactionHandler) List(w http.ResponseWriter, r *http.Request) {
	txs, err := h.Svc.List(r.Context(), r.URL.Query().Get("account_id"))
	if err != nil {
		httpx.Fail(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, nonNil(txs))
}

func (h *TransactionHandler) Get(w http.ResponseWriter, r *http.Request) {
	tx, err := h.Svc.GetByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httpx.Fail(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, tx)
}

// Create honours an optional Idempotency-Key header, scoped to the account.
func (h *TransactionHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req services.SubmitRequest
	if !httpx.Decode(w, r, &req) {
		return
	}
	req.IdempotencyKey = r.Header.Get("Idempotency-Key")

	tx, err := h.Svc.Submit(r.Context(), req)
	if err != nil {
		httpx.Fail(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, tx)
}
