package auth

import (
	"net/http"

	"github.com/sirupsen/logrus"

	"taskhub/internal/services"
	"taskhub/internal/utils"
)

type SignupHandler struct {
	Accounts *services.AccountService
	Log      logrus.FieldLogger
}

// ServeHTTP handles POST /users
func (h *SignupHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var req services.RegisterInput
	if err := utils.DecodeJSON(r, &req); err != nil {
		utils.Error(w, h.Log, err)
		return
	}

	user, err := h.Accounts.Register(r.Context(), req)
	if err != nil {
		utils.Error(w, h.Log, err)
		return
	}

	utils.OK(w, http.StatusCreated, "User registered successfully", user)
}
