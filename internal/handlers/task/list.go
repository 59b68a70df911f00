package task

import (
	"net/http"

	"github.com/sirupsen/logrus"

	"taskhub/internal/middleware"
	"taskhub/internal/models"
	"taskhub/internal/repositories/tasks"
	"taskhub/internal/services"
	"taskhub/internal/utils"
)

type TaskListHandler struct {
	Tasks *services.TaskService
	Log   logrus.FieldLogger
}

// ServeHTTP handles GET /tasks?status=&title=&page=&page_size=
func (h *TaskListHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	page, err := utils.PageRequest(r)
	if err != nil {
		utils.Error(w, h.Log, err)
		return
	}
	q := r.URL.Query()
	f := tasks.Filter{Status: models.TaskStatus(q.Get("status")), Title: q.Get("title")}

	list, err := h.Tasks.List(r.Context(), middleware.CallerFrom(r.Context()), f, page)
	if err != nil {
		utils.Error(w, h.Log, err)
		return
	}
	utils.OK(w, http.StatusOK, "", list)
}

type DashboardHandler struct {
	Tasks *services.TaskService
	Log   logrus.FieldLogger
}

// ServeHTTP handles GET /tasks/dashboard
func (h *DashboardHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	d, err := h.Tasks.Dashboard(r.Context(), middleware.CallerFrom(r.Context()))
	if err != nil {
		utils.Error(w, h.Log, err)
		return
	}
	utils.OK(w, http.StatusOK, "", d)
}
