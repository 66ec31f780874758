package handlers

import (
	"net/http"

	"github.com/baharkarakas/autotopup-backend/internal/api/httpx"
	"github.com/baharkarakas/autotopup-backend/internal/middleware"
	"github.com/baharkarakas/autotopup-backend/internal/models"
	"github.com/baharkarakas/autotopup-backend/internal/services"
)

type AuthHandler struct {
	Users    *services.UserService
	Accounts *services.AccountService
}

type signupResp struct {
	User   models.User        `json:"user"`
	Tokens services.TokenPair `json:"tokens"`
}

func (h *AuthHandler) Signup(w http.ResponseWriter, r *http.Request) {
	var req services.SignupRequest
	if !httpx.Decode(w, r, &req) {
		return
	}
	u, pair, err := h.Users.Signup(r.Context(), req)
	if err != nil {
		httpx.Fail(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, signupResp{User: u, Tokens: pair})
}

type loginReq struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginReq
	if !httpx.Decode(w, r, &req) {
		return
	}
	pair, err := h.Users.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		httpx.Fail(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, pair)
}

type refreshReq struct {
	RefreshToken string `json:"refresh_token"`
}

func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	var req refreshReq
	if !httpx.Decode(w, r, &req) {
		return
	}
	pair, err := h.Users.Refresh(r.Context(), req.RefreshToken)
	if err != nil {
		httpx.Fail(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, pair)
}

// MyAccounts lists the caller's accounts; it sits behind the bearer middleware.
func (h *AuthHandler) MyAccounts(w http.ResponseWriter, r *http.Request) {
	uid, ok := middleware.UserID(r.Context())
	if !ok {
		httpx.WriteError(w, http.StatusUnauthorized, "unauthorized", "missing user", nil)
		return
	}
	accts, err := h.Accounts.ListByOwner(r.Context(), uid)
	if err != nil {
		httpx.Fail(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, nonNil(accts))
}
