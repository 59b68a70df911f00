package task

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/sirupsen/logrus"

	"taskhub/internal/middleware"
	"taskhub/internal/services"
	"taskhub/internal/utils"
)

type RetrieveTaskHandler struct {
	Tasks *services.TaskService
	Log   logrus.FieldLogger
}

// ServeHTTP handles GET /tasks/{id}
func (h *RetrieveTaskHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	task, err := h.Tasks.Get(r.Context(), middleware.CallerFrom(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		utils.Error(w, h.Log, err)
		return
	}
	utils.OK(w, http.StatusOK, "", task)
}

// UpdateTaskHandler serves PUT and, with Partial set, PATCH.
type UpdateTaskHandler struct {
	Tasks   *services.TaskService
	Log     logrus.FieldLogger
	Partial bool
}

// ServeHTTP handles PUT|PATCH /tasks/{id}
func (h *UpdateTaskHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var req services.TaskInput
	if err := utils.DecodeJSON(r, &req); err != nil {
		utils.Error(w, h.Log, err)
		return
	}

	update := h.Tasks.Update
	if h.Partial {
		update = h.Tasks.PartialUpdate
	}
	task, err := update(r.Context(), middleware.CallerFrom(r.Context()), chi.URLParam(r, "id"), req)
	if err != nil {
		utils.Error(w, h.Log, err)
		return
	}
	utils.OK(w, http.StatusOK, "Task updated", task)
}

type DeleteTaskHandler struct {
	Tasks *services.TaskService
	Log   logrus.FieldLogger
}

// ServeHTTP handles DELETE /tasks/{id}
func (h *DeleteTaskHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if err := h.Tasks.Delete(r.Context(), middleware.CallerFrom(r.Context()), chi.URLParam(r, "id")); err != nil {
		utils.Error(w, h.Log, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
