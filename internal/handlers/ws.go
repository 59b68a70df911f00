package handlers

import (
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"taskhub/internal/common"
	"taskhub/internal/middleware"
	"taskhub/internal/policy"
	"taskhub/internal/utils"
	"taskhub/internal/ws"
)

var upgrader = websocket.Upgrader{
	// browsers cannot set an Authorization header here; the access token in
	// the query string is what authenticates the feed
	CheckOrigin: func(r *http.Request) bool { return true },
}

// TaskEventsHandler streams the caller's task events over a websocket.
type TaskEventsHandler struct {
	Auth middleware.Authenticator
	Hub  *ws.Hub
	Log  logrus.FieldLogger
}

// ServeHTTP handles GET /ws/tasks?token=
func (h *TaskEventsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		utils.Error(w, h.Log, common.ErrUnauthorized)
		return
	}
	u, err := h.Auth.Authenticate(r.Context(), token)
	if err != nil {
		utils.Error(w, h.Log, err)
		return
	}
	if err := policy.Allow(policy.TaskEvents, policy.CallerOf(u)); err != nil {
		utils.Error(w, h.Log, err)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already replied to the client
		h.Log.WithError(err).Warn("websocket upgrade failed")
		return
	}

	c := ws.NewConnection(conn, u.ID)
	if !h.Hub.Register(c) {
		conn.Close()
		return
	}
	go c.StartWrite()
	c.StartRead(h.Hub)
}
