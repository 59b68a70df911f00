package task

import (
	"net/http"

	"github.com/sirupsen/logrus"

	"taskhub/internal/middleware"
	"taskhub/internal/services"
	"taskhub/internal/utils"
)

type CreateTaskHandler struct {
	Tasks *services.TaskService
	Log   logrus.FieldLogger
}

// ServeHTTP handles POST /tasks
func (h *CreateTaskHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var req services.TaskInput
	if err := utils.DecodeJSON(r, &req); err != nil {
		utils.Error(w, h.Log, err)
		return
	}

	task, err := h.Tasks.Create(r.Context(), middleware.CallerFrom(r.Context()), req)
	if err != nil {
		utils.Error(w, h.Log, err)
		return
	}

	utils.OK(w, http.StatusCreated, "Task created", task)
}
