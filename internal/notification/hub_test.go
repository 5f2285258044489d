package notification

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"courierhub/internal/config"
	"courierhub/internal/domain"
)

func newTestHub(buffer int) *Hub {
	h := NewHub(config.HubConfig{SendBuffer: buffer, WriteTimeout: time.Second, PingInterval: time.Minute}, zap.NewNop())
	h.now = func() time.Time { return time.Date(2024, 3, 13, 10, 0, 0, 0, time.UTC) }
	return h
}

func testOrder(courierID string) domain.Order {
	return domain.Order{
		ID:             "o-1",
		OrderNumber:    "A-1",
		CourierID:      &courierID,
		RestaurantName: "Pizza Place",
		Status:         domain.OrderStatusNew,
	}
}

// drain returns every frame queued for c.
func drain(c *client) [][]byte {
	var frames [][]byte
	for {
		select {
		case p := <-c.send:
			frames = append(frames, p)
		default:
			return frames
		}
	}
}

func TestRegister_QueuesConnectedFrame(t *testing.T) {
	h := newTestHub(4)

	c := h.register()

	frames := drain(c)
	require.Len(t, frames, 1)
	var frame ConnectedFrame
	require.NoError(t, json.Unmarshal(frames[0], &frame))
	assert.Equal(t, "connected", frame.Type)
	assert.Equal(t, c.id, frame.ClientID)
	assert.Equal(t, 1, h.ConnectionCount())
}

func TestNotifyNewOrder_OnlyBoundCourier(t *testing.T) {
	h := newTestHub(4)
	mine := h.register()
	other := h.register()
	anonymous := h.register()
	drain(mine)
	drain(other)
	drain(anonymous)

	require.NoError(t, h.Bind(mine.id, "c-1"))
	require.NoError(t, h.Bind(other.id, "c-2"))

	h.NotifyNewOrder(testOrder("c-1"))

	frames := drain(mine)
	require.Len(t, frames, 1)
	var frame NotificationFrame
	require.NoError(t, json.Unmarshal(frames[0], &frame))
	assert.Equal(t, "notification", frame.Type)
	assert.Equal(t, "new_order", frame.Data.Type)
	assert.Equal(t, "New order!", frame.Data.Title)
	assert.Equal(t, "Order #A-1 from Pizza Place", frame.Data.Message)
	assert.Equal(t, "o-1", frame.Data.Order.ID)
	assert.False(t, frame.Timestamp.IsZero())

	assert.Empty(t, drain(other))
	assert.Empty(t, drain(anonymous))
}

func TestNotifyOrderUpdated_EveryConnectionOfCourier(t *testing.T) {
	h := newTestHub(4)
	phone := h.register()
	tablet := h.register()
	drain(phone)
	drain(tablet)
	require.NoError(t, h.Bind(phone.id, "c-1"))
	require.NoError(t, h.Bind(tablet.id, "c-1"))
	assert.Equal(t, 2, h.CourierConnectionCount("c-1"))

	h.NotifyOrderUpdated(testOrder("c-1"))

	for _, c := range []*client{phone, tablet} {
		frames := drain(c)
		require.Len(t, frames, 1)
		var frame NotificationFrame
		require.NoError(t, json.Unmarshal(frames[0], &frame))
		assert.Equal(t, "order_update", frame.Data.Type)
		assert.Equal(t, "Order update", frame.Data.Title)
		assert.Equal(t, "Order #A-1 status changed", frame.Data.Message)
	}
}

func TestNotify_UnassignedOrderGoesNowhere(t *testing.T) {
	h := newTestHub(4)
	c := h.register()
	drain(c)
	require.NoError(t, h.Bind(c.id, "c-1"))

	order := testOrder("c-1")
	order.CourierID = nil
	h.NotifyNewOrder(order)

	assert.Empty(t, drain(c))
}

func TestBroadcastChatMessage_AllConnections(t *testing.T) {
	h := newTestHub(4)
	bound := h.register()
	anonymous := h.register()
	drain(bound)
	drain(anonymous)
	require.NoError(t, h.Bind(bound.id, "c-1"))

	h.BroadcastChatMessage(domain.Message{
		ID:         "m-1",
		OrderID:    "o-1",
		SenderID:   "customer-9",
		SenderType: domain.SenderCustomer,
		Content:    "I'm at the door",
	})

	for _, c := range []*client{bound, anonymous} {
		frames := drain(c)
		require.Len(t, frames, 1)
		var frame ChatFrame
		require.NoError(t, json.Unmarshal(frames[0], &frame))
		assert.Equal(t, "chat_message", frame.Type)
		assert.Equal(t, "o-1", frame.OrderID)
		assert.Equal(t, "I'm at the door", frame.Message.Content)
		assert.Equal(t, "customer", frame.Message.SenderType)
	}
}

func TestDeliver_FullBufferEvictsSynchronously(t *testing.T) {
	h := newTestHub(1)
	slow := h.register()
	// the connected frame already fills the buffer
	require.NoError(t, h.Bind(slow.id, "c-1"))

	h.NotifyNewOrder(testOrder("c-1"))

	assert.Equal(t, 0, h.ConnectionCount())
	assert.Equal(t, 0, h.CourierConnectionCount("c-1"))
	select {
	case <-slow.done:
	default:
		t.Fatal("evicted client was not closed")
	}

	// later events skip the dropped client without panicking
	assert.NotPanics(t, func() {
		h.NotifyNewOrder(testOrder("c-1"))
		h.BroadcastChatMessage(domain.Message{OrderID: "o-1"})
	})
}

func TestBind_Rebinds(t *testing.T) {
	h := newTestHub(4)
	c := h.register()

	require.NoError(t, h.Bind(c.id, "c-1"))
	require.NoError(t, h.Bind(c.id, "c-2"))

	assert.Equal(t, 0, h.CourierConnectionCount("c-1"))
	assert.Equal(t, 1, h.CourierConnectionCount("c-2"))
}

func TestBind_UnknownClient(t *testing.T) {
	h := newTestHub(4)

	assert.Error(t, h.Bind("missing", "c-1"))
}

func TestPin_RejectsOtherCourier(t *testing.T) {
	h := newTestHub(4)
	c := h.register()

	require.NoError(t, h.pin(c.id, "c-1"))
	assert.Error(t, h.Bind(c.id, "c-2"))
	assert.NoError(t, h.Bind(c.id, "c-1"))
	assert.Equal(t, 1, h.CourierConnectionCount("c-1"))
}

func TestUnregister_Idempotent(t *testing.T) {
	h := newTestHub(4)
	c := h.register()
	require.NoError(t, h.Bind(c.id, "c-1"))

	h.Unregister(c.id)
	h.Unregister(c.id)

	assert.Equal(t, 0, h.ConnectionCount())
	assert.Equal(t, 0, h.CourierConnectionCount("c-1"))
}

func TestShutdown_ClosesEveryClient(t *testing.T) {
	h := newTestHub(4)
	a := h.register()
	b := h.register()

	h.Shutdown()

	assert.Equal(t, 0, h.ConnectionCount())
	for _, c := range []*client{a, b} {
		select {
		case <-c.done:
		default:
			t.Fatal("client still open after shutdown")
		}
	}
}
