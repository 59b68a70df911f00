package auth

import (
	"net/http"

	"github.com/sirupsen/logrus"

	"taskhub/internal/services"
	"taskhub/internal/utils"
)

type LoginHandler struct {
	Accounts *services.AccountService
	Log      logrus.FieldLogger
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// ServeHTTP handles POST /users/login
func (h *LoginHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := utils.DecodeJSON(r, &req); err != nil {
		utils.Error(w, h.Log, err)
		return
	}

	tokens, err := h.Accounts.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		utils.Error(w, h.Log, err)
		return
	}

	utils.OK(w, http.StatusOK, "Login successful", tokens)
}

type RefreshHandler struct {
	Accounts *services.AccountService
	Log      logrus.FieldLogger
}

type RefreshRequest struct {
	Refresh string `json:"refresh"`
}

// ServeHTTP handles POST /users/token/refresh
func (h *RefreshHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var req RefreshRequest
	if err := utils.DecodeJSON(r, &req); err != nil {
		utils.Error(w, h.Log, err)
		return
	}

	access, err := h.Accounts.RefreshToken(r.Context(), req.Refresh)
	if err != nil {
		utils.Error(w, h.Log, err)
		return
	}

	utils.OK(w, http.StatusOK, "Token refreshed", map[string]string{"access": access})
}
