package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/baharkarakas/autotopup-backend/internal/api/httpx"
	"github.com/baharkarakas/autotopup-backend/internal/services"
)

type AccountHandler struct {
	Svc *services.AccountService
}

func (h *AccountHandler) List(w http.ResponseWriter, r *http.Request) {
	accts, err := h.Svc.List(r.Context())
	if err != nil {
		httpx.Fail(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, nonNil(accts))
}

func (h *AccountHandler) Get(w http.ResponseWriter, r *http.Request) {
	a, err := h.Svc.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httpx.Fail(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, a)
}

func (h *AccountHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req services.CreateAccountRequest
	if !httpx.Decode(w, r, &req) {
		return
	}
	a, err := h.Svc.Create(r.Context(), req)
	if err != nil {
		httpx.Fail(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, a)
}

// nonNil keeps empty lists as [] on the wire.
func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
