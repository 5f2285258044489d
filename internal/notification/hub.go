package notification

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"courierhub/internal/config"
	"courierhub/internal/domain"
	"courierhub/internal/dto"
	"courierhub/internal/infrastructure/metrics"
)

const (
	EventNewOrder    = "new_order"
	EventOrderUpdate = "order_update"

	kindNotification = "notification"
	kindChat         = "chat_message"
	kindConnected    = "connected"
	kindPong         = "pong"
)

type ConnectedFrame struct {
	Type     string `json:"type"`
	ClientID string `json:"clientId"`
}

type PongFrame struct {
	Type string `json:"type"`
}

type NotificationData struct {
	Type    string            `json:"type"`
	Title   string            `json:"title"`
	Message string            `json:"message"`
	Order   dto.OrderResponse `json:"order"`
}

type NotificationFrame struct {
	Type      string           `json:"type"`
	Data      NotificationData `json:"data"`
	Timestamp time.Time        `json:"timestamp"`
}

type ChatFrame struct {
	Type      string              `json:"type"`
	OrderID   string              `json:"orderId"`
	Message   dto.MessageResponse `json:"message"`
	Timestamp time.Time           `json:"timestamp"`
}

// client is one live connection. send is never closed; done is closed exactly
// once when the hub drops the client, which stops its writer.
type client struct {
	id        string
	send      chan []byte
	done      chan struct{}
	closeOnce sync.Once

	// courierID and pinned are guarded by the hub mutex.
	courierID string
	pinned    bool
}

func (c *client) close() {
	c.closeOnce.Do(func() { close(c.done) })
}

// Hub tracks live connections and the courier each one is bound to. Delivery is
// at most once: a client whose buffer is full is dropped, never waited on.
type Hub struct {
	mu        sync.RWMutex
	clients   map[string]*client
	byCourier map[string]map[string]struct{}

	sendBuffer   int
	writeTimeout time.Duration
	pingInterval time.Duration
	logger       *zap.Logger
	now          func() time.Time
}

func NewHub(cfg config.HubConfig, logger *zap.Logger) *Hub {
	sendBuffer := cfg.SendBuffer
	if sendBuffer < 1 {
		sendBuffer = 1
	}
	return &Hub{
		clients:      make(map[string]*client),
		byCourier:    make(map[string]map[string]struct{}),
		sendBuffer:   sendBuffer,
		writeTimeout: cfg.WriteTimeout,
		pingInterval: cfg.PingInterval,
		logger:       logger,
		now:          time.Now,
	}
}

// register adds a new unbound client and queues its connected frame.
func (h *Hub) register() *client {
	c := &client{
		id:   uuid.New().String(),
		send: make(chan []byte, h.sendBuffer),
		done: make(chan struct{}),
	}

	payload, _ := json.Marshal(ConnectedFrame{Type: kindConnected, ClientID: c.id})
	c.send <- payload

	h.mu.Lock()
	h.clients[c.id] = c
	h.mu.Unlock()

	metrics.ConnectionOpened()
	h.logger.Info("websocket client connected", zap.String("clientId", c.id))
	return c
}

// Bind associates the client with courierID, replacing any previous binding.
// A pinned client keeps the courier it was authenticated as.
func (h *Hub) Bind(clientID, courierID string) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	c, ok := h.clients[clientID]
	if !ok {
		return fmt.Errorf("client %s is not connected", clientID)
	}
	if c.pinned && c.courierID != courierID {
		return fmt.Errorf("client %s is bound to another courier", clientID)
	}

	h.unbindLocked(c)
	c.courierID = courierID
	set, ok := h.byCourier[courierID]
	if !ok {
		set = make(map[string]struct{})
		h.byCourier[courierID] = set
	}
	set[clientID] = struct{}{}

	h.logger.Info("websocket client bound", zap.String("clientId", clientID), zap.String("courierId", courierID))
	return nil
}

// pin binds the client and forbids rebinding it to another courier.
func (h *Hub) pin(clientID, courierID string) error {
	if err := h.Bind(clientID, courierID); err != nil {
		return err
	}
	h.mu.Lock()
	if c, ok := h.clients[clientID]; ok {
		c.pinned = true
	}
	h.mu.Unlock()
	return nil
}

// Unregister drops the client. It is safe to call more than once.
func (h *Hub) Unregister(clientID string) {
	h.mu.Lock()
	c, ok := h.clients[clientID]
	if ok {
		h.removeLocked(c)
	}
	h.mu.Unlock()

	if ok {
		h.logger.Info("websocket client disconnected", zap.String("clientId", clientID))
	}
}

// Shutdown drops every client, which closes their connections.
func (h *Hub) Shutdown() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, c := range h.clients {
		h.removeLocked(c)
	}
}

func (h *Hub) ConnectionCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

func (h *Hub) CourierConnectionCount(courierID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.byCourier[courierID])
}

func (h *Hub) NotifyNewOrder(order domain.Order) {
	h.notifyCourier(order, EventNewOrder, "New order!",
		fmt.Sprintf("Order #%s from %s", order.OrderNumber, order.RestaurantName))
}

func (h *Hub) NotifyOrderUpdated(order domain.Order) {
	h.notifyCourier(order, EventOrderUpdate, "Order update",
		fmt.Sprintf("Order #%s status changed", order.OrderNumber))
}

// BroadcastChatMessage pushes the message to every connection. Clients filter
// by order id.
func (h *Hub) BroadcastChatMessage(msg domain.Message) {
	payload, err := json.Marshal(ChatFrame{
		Type:      kindChat,
		OrderID:   msg.OrderID,
		Message:   dto.NewMessageResponse(msg),
		Timestamp: h.now().UTC(),
	})
	if err != nil {
		h.logger.Error("failed to encode chat frame", zap.String("orderId", msg.OrderID), zap.Error(err))
		return
	}

	h.mu.RLock()
	targets := make([]*client, 0, len(h.clients))
	for _, c := range h.clients {
		targets = append(targets, c)
	}
	h.mu.RUnlock()

	h.deliver(kindChat, targets, payload)
}

func (h *Hub) notifyCourier(order domain.Order, event, title, message string) {
	if order.CourierID == nil {
		metrics.RecordHubEvent(kindNotification, "no_recipient")
		return
	}

	payload, err := json.Marshal(NotificationFrame{
		Type: kindNotification,
		Data: NotificationData{
			Type:    event,
			Title:   title,
			Message: message,
			Order:   dto.NewOrderResponse(order),
		},
		Timestamp: h.now().UTC(),
	})
	if err != nil {
		h.logger.Error("failed to encode notification", zap.String("orderId", order.ID), zap.Error(err))
		return
	}

	h.mu.RLock()
	ids := h.byCourier[*order.CourierID]
	targets := make([]*client, 0, len(ids))
	for id := range ids {
		targets = append(targets, h.clients[id])
	}
	h.mu.RUnlock()

	if len(targets) == 0 {
		metrics.RecordHubEvent(kindNotification, "no_recipient")
		h.logger.Debug("no connection for courier", zap.String("courierId", *order.CourierID), zap.String("event", event))
		return
	}

	h.deliver(kindNotification, targets, payload)
}

// deliver enqueues payload on every target without blocking. Targets whose
// buffer is full are dropped before deliver returns.
func (h *Hub) deliver(kind string, targets []*client, payload []byte) {
	var slow []*client
	for _, c := range targets {
		select {
		case <-c.done:
			continue
		default:
		}

		select {
		case c.send <- payload:
			metrics.RecordHubEvent(kind, "delivered")
		default:
			metrics.RecordHubEvent(kind, "evicted")
			slow = append(slow, c)
		}
	}

	for _, c := range slow {
		h.logger.Warn("evicting slow websocket client", zap.String("clientId", c.id))
		h.Unregister(c.id)
	}
}

// reply queues a frame for a single client, dropping it if the buffer is full.
func (h *Hub) reply(c *client, frame any) {
	payload, err := json.Marshal(frame)
	if err != nil {
		h.logger.Error("failed to encode reply", zap.String("clientId", c.id), zap.Error(err))
		return
	}
	h.deliver(kindPong, []*client{c}, payload)
}

func (h *Hub) unbindLocked(c *client) {
	if c.courierID == "" {
		return
	}
	if set, ok := h.byCourier[c.courierID]; ok {
		delete(set, c.id)
		if len(set) == 0 {
			delete(h.byCourier, c.courierID)
		}
	}
	c.courierID = ""
}

func (h *Hub) removeLocked(c *client) {
	h.unbindLocked(c)
	delete(h.clients, c.id)
	c.close()
	metrics.ConnectionClosed()
}
