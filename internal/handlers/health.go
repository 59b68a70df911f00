package handlers

import (
	"context"
	"database/sql"
	"net/http"
	"time"

	"taskhub/internal/utils"
)

type HealthHandler struct {
	DB *sql.DB
}

// ServeHTTP handles GET /health
func (h *HealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := h.DB.PingContext(ctx); err != nil {
		utils.JSON(w, http.StatusServiceUnavailable, utils.APIResponse{
			Success: false,
			Message: "database unavailable",
			Data:    map[string]string{"status": "degraded"},
		})
		return
	}
	utils.OK(w, http.StatusOK, "", map[string]string{"status": "ok"})
}
