package user

import (
	"net/http"

	"github.com/sirupsen/logrus"

	"taskhub/internal/common"
	"taskhub/internal/middleware"
	"taskhub/internal/services"
	"taskhub/internal/utils"
)

type MeHandler struct {
	Log logrus.FieldLogger
}

// ServeHTTP handles GET /users/me
func (h *MeHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	u, ok := middleware.UserFrom(r.Context())
	if !ok {
		utils.Error(w, h.Log, common.ErrUnauthorized)
		return
	}
	utils.OK(w, http.StatusOK, "User details retrieved successfully", u)
}

type UpdateMeHandler struct {
	Accounts *services.AccountService
	Log      logrus.FieldLogger
}

// ServeHTTP handles PUT /users/update-me
func (h *UpdateMeHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	u, ok := middleware.UserFrom(r.Context())
	if !ok {
		utils.Error(w, h.Log, common.ErrUnauthorized)
		return
	}
	var req services.ProfileInput
	if err := utils.DecodeJSON(r, &req); err != nil {
		utils.Error(w, h.Log, err)
		return
	}
	updated, err := h.Accounts.UpdateMe(r.Context(), u, req)
	if err != nil {
		utils.Error(w, h.Log, err)
		return
	}
	utils.OK(w, http.StatusOK, "User updated successfully", updated)
}

type ChangePasswordHandler struct {
	Accounts *services.AccountService
	Log      logrus.FieldLogger
}

// ServeHTTP handles POST /users/change-password
func (h *ChangePasswordHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	u, ok := middleware.UserFrom(r.Context())
	if !ok {
		utils.Error(w, h.Log, common.ErrUnauthorized)
		return
	}
	var req services.ChangePasswordInput
	if err := utils.DecodeJSON(r, &req); err != nil {
		utils.Error(w, h.Log, err)
		return
	}
	if err := h.Accounts.ChangePassword(r.Context(), u, req); err != nil {
		utils.Error(w, h.Log, err)
		return
	}
	utils.OK(w, http.StatusOK, "password changed successfully", nil)
}

type ChangeEmailHandler struct {
	Accounts *services.AccountService
	Log      logrus.FieldLogger
}

// ServeHTTP handles POST /users/change-email
func (h *ChangeEmailHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	u, ok := middleware.UserFrom(r.Context())
	if !ok {
		utils.Error(w, h.Log, common.ErrUnauthorized)
		return
	}
	var req services.ChangeEmailInput
	if err := utils.DecodeJSON(r, &req); err != nil {
		utils.Error(w, h.Log, err)
		return
	}
	if _, err := h.Accounts.ChangeEmail(r.Context(), u, req); err != nil {
		utils.Error(w, h.Log, err)
		return
	}
	utils.OK(w, http.StatusOK, "email changed successfully", nil)
}
