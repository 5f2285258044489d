package notification

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const maxInboundFrame = 4096

// CourierLookup resolves the courier behind an upgrade request from its
// session. ok is false for anonymous connections, which bind with an auth frame.
type CourierLookup func(r *http.Request) (courierID string, ok bool)

type inboundFrame struct {
	Type      string `json:"type"`
	CourierID string `json:"courierId"`
}

type Handler struct {
	hub      *Hub
	lookup   CourierLookup
	upgrader websocket.Upgrader
	logger   *zap.Logger
}

func NewHandler(hub *Hub, lookup CourierLookup, logger *zap.Logger) *Handler {
	return &Handler{
		hub:    hub,
		lookup: lookup,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// The session cookie is SameSite=Lax; cross-site pages never carry it.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		logger: logger,
	}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already written an HTTP error.
		h.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}

	c := h.hub.register()

	if h.lookup != nil {
		if courierID, ok := h.lookup(r); ok {
			if err := h.hub.pin(c.id, courierID); err != nil {
				h.logger.Warn("failed to bind authenticated client", zap.String("clientId", c.id), zap.Error(err))
			}
		}
	}

	go h.writePump(conn, c)
	h.readPump(conn, c)
}

func (h *Handler) pongWait() time.Duration {
	return h.hub.pingInterval + h.hub.writeTimeout
}

func (h *Handler) readPump(conn *websocket.Conn, c *client) {
	defer h.hub.Unregister(c.id)

	conn.SetReadLimit(maxInboundFrame)
	if h.hub.pingInterval > 0 {
		_ = conn.SetReadDeadline(time.Now().Add(h.pongWait()))
		conn.SetPongHandler(func(string) error {
			return conn.SetReadDeadline(time.Now().Add(h.pongWait()))
		})
	}

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				h.logger.Info("websocket read failed", zap.String("clientId", c.id), zap.Error(err))
			}
			return
		}
		h.handleFrame(c, data)
	}
}

func (h *Handler) handleFrame(c *client, data []byte) {
	var frame inboundFrame
	if err := json.Unmarshal(data, &frame); err != nil {
		h.logger.Warn("ignoring malformed websocket frame", zap.String("clientId", c.id), zap.Error(err))
		return
	}

	switch frame.Type {
	case "auth":
		if frame.CourierID == "" {
			h.logger.Warn("ignoring auth frame without courierId", zap.String("clientId", c.id))
			return
		}
		if err := h.hub.Bind(c.id, frame.CourierID); err != nil {
			h.logger.Warn("rejected websocket bind", zap.String("clientId", c.id), zap.Error(err))
		}
	case "ping":
		h.hub.reply(c, PongFrame{Type: kindPong})
	default:
		h.logger.Debug("ignoring unknown websocket frame", zap.String("clientId", c.id), zap.String("type", frame.Type))
	}
}

// writePump owns every write to conn and closes it when the client is dropped.
func (h *Handler) writePump(conn *websocket.Conn, c *client) {
	var ping <-chan time.Time
	if h.hub.pingInterval > 0 {
		ticker := time.NewTicker(h.hub.pingInterval)
		defer ticker.Stop()
		ping = ticker.C
	}
	defer conn.Close()

	for {
		select {
		case payload := <-c.send:
			if err := conn.SetWriteDeadline(h.writeDeadline()); err != nil {
				h.hub.Unregister(c.id)
				return
			}
			if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				h.logger.Info("websocket write failed", zap.String("clientId", c.id), zap.Error(err))
				h.hub.Unregister(c.id)
				return
			}
		case <-ping:
			if err := conn.WriteControl(websocket.PingMessage, nil, h.writeDeadline()); err != nil {
				h.logger.Info("websocket ping failed", zap.String("clientId", c.id), zap.Error(err))
				h.hub.Unregister(c.id)
				return
			}
		case <-c.done:
			_ = conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
				h.writeDeadline())
			return
		}
	}
}

func (h *Handler) writeDeadline() time.Time {
	if h.hub.writeTimeout <= 0 {
		return time.Time{}
	}
	return time.Now().Add(h.hub.writeTimeout)
}
