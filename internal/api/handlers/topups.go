package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/baharkarakas/autotopup-backend/internal/api/httpx"
	"github.com/baharkarakas/autotopup-backend/internal/api/validate"
	"github.com/baharkarakas/autotopup-backend/internal/services"
)

type TopUpHandler struct {
	Svc *services.TopUpService
}

func (h *TopUpHandler) ListRules(w http.ResponseWriter, r *http.Request) {
	rules, err := h.Svc.ListRules(r.Context(), r.URL.Query().Get("account_id"))
	if err != nil {
		httpx.Fail(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, nonNil(rules))
}

func (h *TopUpHandler) CreateRule(w http.ResponseWriter, r *http.Request) {
	var req services.CreateRuleRequest
	if !httpx.Decode(w, r, &req) {
		return
	}
	rule, err := h.Svc.CreateRule(r.Context(), req)
	if err != nil {
		httpx.Fail(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, rule)
}

type patchRuleReq struct {
	Enabled *bool `json:"enabled"`
}

func (h *TopUpHandler) PatchRule(w http.ResponseWriter, r *http.Request) {
	var req patchRuleReq
	if !httpx.Decode(w, r, &req) {
		return
	}
	if req.Enabled == nil {
		httpx.Fail(w, r, validate.Errs{{Field: "enabled", Msg: "required"}})
		return
	}
	rule, err := h.Svc.SetEnabled(r.Context(), chi.URLParam(r, "id"), *req.Enabled)
	if err != nil {
		httpx.Fail(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, rule)
}

func (h *TopUpHandler) ListEvents(w http.ResponseWriter, r *http.Request) {
	evs, err := h.Svc.ListEvents(r.Context(), r.URL.Query().Get("account_id"))
	if err != nil {
		httpx.Fail(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, nonNil(evs))
}

func (h *TopUpHandler) Trigger(w http.ResponseWriter, r *http.Request) {
	res, err := h.Svc.Trigger(r.Context(), r.URL.Query().Get("account_id"))
	if err != nil {
		httpx.Fail(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, res)
}
