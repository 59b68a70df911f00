package user

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/sirupsen/logrus"

	"taskhub/internal/common"
	"taskhub/internal/models"
	"taskhub/internal/repositories/users"
	"taskhub/internal/services"
	"taskhub/internal/utils"
)

// Admin handlers sit behind the superuser requirement in the router.

type ListHandler struct {
	Accounts *services.AccountService
	Log      logrus.FieldLogger
}

// ServeHTTP handles GET /users
func (h *ListHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	page, err := utils.PageRequest(r)
	if err != nil {
		utils.Error(w, h.Log, err)
		return
	}
	f, err := parseFilter(r)
	if err != nil {
		utils.Error(w, h.Log, err)
		return
	}
	list, err := h.Accounts.ListUsers(r.Context(), f, page)
	if err != nil {
		utils.Error(w, h.Log, err)
		return
	}
	utils.OK(w, http.StatusOK, "", list)
}

func parseFilter(r *http.Request) (users.Filter, error) {
	q := r.URL.Query()
	f := users.Filter{Search: q.Get("search"), OrderBy: q.Get("order_by")}
	v := common.NewValidationError()
	f.StartDate = parseTime(v, "start_date", q.Get("start_date"))
	f.EndDate = parseTime(v, "end_date", q.Get("end_date"))
	return f, v.OrNil()
}

// parseTime accepts RFC 3339 timestamps and bare dates.
func parseTime(v *common.ValidationError, field, raw string) *time.Time {
	if raw == "" {
		return nil
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return &t
	}
	if d, err := models.ParseDate(raw); err == nil {
		return &d.Time
	}
	v.Add(field, "Enter a valid date/time.")
	return nil
}

type RetrieveHandler struct {
	Accounts *services.AccountService
	Log      logrus.FieldLogger
}

// ServeHTTP handles GET /users/{id}
func (h *RetrieveHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	u, err := h.Accounts.GetUser(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		utils.Error(w, h.Log, err)
		return
	}
	utils.OK(w, http.StatusOK, "", u.Summary())
}

type UpdateHandler struct {
	Accounts *services.AccountService
	Log      logrus.FieldLogger
}

// ServeHTTP handles PUT /users/{id}
func (h *UpdateHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var req services.ProfileInput
	if err := utils.DecodeJSON(r, &req); err != nil {
		utils.Error(w, h.Log, err)
		return
	}
	u, err := h.Accounts.UpdateUser(r.Context(), chi.URLParam(r, "id"), req)
	if err != nil {
		utils.Error(w, h.Log, err)
		return
	}
	utils.OK(w, http.StatusOK, "User updated successfully", u)
}

type PartialUpdateHandler struct {
	Accounts *services.AccountService
	Log      logrus.FieldLogger
}

// ServeHTTP handles PATCH /users/{id}
func (h *PartialUpdateHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var req services.AdminPatchInput
	if err := utils.DecodeJSON(r, &req); err != nil {
		utils.Error(w, h.Log, err)
		return
	}
	u, err := h.Accounts.PartialUpdateUser(r.Context(), chi.URLParam(r, "id"), req)
	if err != nil {
		utils.Error(w, h.Log, err)
		return
	}
	utils.OK(w, http.StatusOK, "User updated successfully", u)
}

type DestroyHandler struct {
	Accounts *services.AccountService
	Log      logrus.FieldLogger
}

// ServeHTTP handles DELETE /users/{id}
func (h *DestroyHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if err := h.Accounts.DeleteUser(r.Context(), chi.URLParam(r, "id")); err != nil {
		utils.Error(w, h.Log, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
