package ws

import (
	"context"
	"encoding/json"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"taskhub/internal/models"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = pongWait * 9 / 10
	sendBuffer = 32
)

// Connection is one websocket client following the task feed of a user.
type Connection struct {
	Conn   *websocket.Conn
	Send   chan []byte
	UserID string
}

func NewConnection(conn *websocket.Conn, userID string) *Connection {
	return &Connection{Conn: conn, Send: make(chan []byte, sendBuffer), UserID: userID}
}

type ownerMessage struct {
	ownerID string
	payload []byte
}

// Hub fans task events out to every open connection of the task owner.
type Hub struct {
	conns      map[string]map[*Connection]bool
	register   chan *Connection
	unregister chan *Connection
	broadcast  chan ownerMessage
	done       chan struct{}
	log        logrus.FieldLogger
}

func NewHub(log logrus.FieldLogger) *Hub {
	return &Hub{
		conns:      make(map[string]map[*Connection]bool),
		register:   make(chan *Connection),
		unregister: make(chan *Connection),
		broadcast:  make(chan ownerMessage, 256),
		done:       make(chan struct{}),
		log:        log,
	}
}

// Run owns the connection registry until ctx is canceled.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case c := <-h.register:
			if h.conns[c.UserID] == nil {
				h.conns[c.UserID] = make(map[*Connection]bool)
			}
			h.conns[c.UserID][c] = true
			h.log.WithField("user_id", c.UserID).Debug("task feed joined")
		case c := <-h.unregister:
			h.remove(c)
		case msg := <-h.broadcast:
			for c := range h.conns[msg.ownerID] {
				select {
				case c.Send <- msg.payload:
				default:
					// slow consumer
					h.remove(c)
				}
			}
		case <-ctx.Done():
			for _, set := range h.conns {
				for c := range set {
					close(c.Send)
				}
			}
			h.conns = nil
			return
		}
	}
}

func (h *Hub) remove(c *Connection) {
	set, ok := h.conns[c.UserID]
	if !ok || !set[c] {
		return
	}
	delete(set, c)
	close(c.Send)
	if len(set) == 0 {
		delete(h.conns, c.UserID)
	}
	h.log.WithField("user_id", c.UserID).Debug("task feed left")
}

func (h *Hub) Register(c *Connection) bool {
	select {
	case h.register <- c:
		return true
	case <-h.done:
		return false
	}
}

func (h *Hub) Unregister(c *Connection) {
	select {
	case h.unregister <- c:
	case <-h.done:
	}
}

// Publish queues ev for the owner's connections. It never blocks the caller;
// events are dropped when the queue is full.
func (h *Hub) Publish(ownerID string, ev models.TaskEvent) {
	b, err := json.Marshal(ev)
	if err != nil {
		h.log.WithError(err).Error("marshal task event")
		return
	}
	select {
	case h.broadcast <- ownerMessage{ownerID: ownerID, payload: b}:
	default:
		h.log.WithField("user_id", ownerID).Warn("task event dropped")
	}
}

// StartRead consumes client frames until the peer goes away. Clients only
// listen, so frames are discarded.
func (c *Connection) StartRead(hub *Hub) {
	defer func() {
		hub.Unregister(c)
		c.Conn.Close()
	}()
	c.Conn.SetReadLimit(512)
	_ = c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error {
		return c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := c.Conn.ReadMessage(); err != nil {
			return
		}
	}
}

// StartWrite writes queued events and keeps the connection alive with pings.
func (c *Connection) StartWrite() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()
	for {
		select {
		case msg, ok := <-c.Send:
			_ = c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.Conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
