package auth

import (
	"net/http"

	"github.com/sirupsen/logrus"

	"taskhub/internal/services"
	"taskhub/internal/utils"
)

type ResetPasswordHandler struct {
	Accounts *services.AccountService
	Log      logrus.FieldLogger
}

// ServeHTTP handles POST /users/reset_password
func (h *ResetPasswordHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email string `json:"email"`
	}
	if err := utils.DecodeJSON(r, &req); err != nil {
		utils.Error(w, h.Log, err)
		return
	}
	if err := h.Accounts.RequestPasswordReset(r.Context(), req.Email); err != nil {
		utils.Error(w, h.Log, err)
		return
	}
	utils.OK(w, http.StatusOK, "we have sent you a link to reset your password", nil)
}

type CheckTokenHandler struct {
	Accounts *services.AccountService
	Log      logrus.FieldLogger
}

// ServeHTTP handles POST /users/check_token
func (h *CheckTokenHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var req struct {
		UID   string `json:"uuid"`
		Token string `json:"token"`
	}
	if err := utils.DecodeJSON(r, &req); err != nil {
		utils.Error(w, h.Log, err)
		return
	}
	if err := h.Accounts.CheckToken(r.Context(), req.UID, req.Token); err != nil {
		utils.Error(w, h.Log, err)
		return
	}
	utils.OK(w, http.StatusOK, "token is valid", nil)
}

type SetNewPasswordHandler struct {
	Accounts *services.AccountService
	Log      logrus.FieldLogger
}

// ServeHTTP handles POST /users/set_new_password
func (h *SetNewPasswordHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var req services.SetNewPasswordInput
	if err := utils.DecodeJSON(r, &req); err != nil {
		utils.Error(w, h.Log, err)
		return
	}
	if err := h.Accounts.ConfirmPasswordReset(r.Context(), req); err != nil {
		utils.Error(w, h.Log, err)
		return
	}
	utils.OK(w, http.StatusOK, "password reset successfully", nil)
}

type ValidateMailHandler struct {
	Accounts *services.AccountService
	Log      logrus.FieldLogger
}

// ServeHTTP handles GET /users/validate_mail?uidb64=&token=
func (h *ValidateMailHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	if err := h.Accounts.VerifyEmail(r.Context(), q.Get("uidb64"), q.Get("token")); err != nil {
		utils.Error(w, h.Log, err)
		return
	}
	utils.OK(w, http.StatusOK, "Email successfully confirmed", nil)
}
