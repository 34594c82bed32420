package events

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"residency/internal/domain"

	"github.com/gorilla/websocket"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10

	// Events a slow client cannot drain in time are dropped, not queued
	// without bound; dashboards refetch on reconnect anyway.
	sendBuffer = 64
)

const (
	EventBookingCreated   = "booking.created"
	EventBookingApproved  = "booking.approved"
	EventBookingRejected  = "booking.rejected"
	EventBookingCancelled = "booking.cancelled"
)

// BookingEvent is pushed to connected dashboards on every lifecycle
// transition; clients use it to invalidate their cached booking lists.
type BookingEvent struct {
	Type    string          `json:"type"`
	Booking *domain.Booking `json:"booking"`
	At      time.Time       `json:"at"`
}

// client is one connected dashboard socket. Every frame goes through the
// send channel so the write pump is the connection's only writer.
type client struct {
	userID int64
	conn   *websocket.Conn
	send   chan []byte
}

// Hub fans booking events out to connected websocket clients. One
// connection per user; a reconnect replaces the previous socket.
type Hub struct {
	mu      sync.RWMutex
	clients map[int64]*client
}

func NewHub() *Hub {
	return &Hub{
		clients: make(map[int64]*client),
	}
}

// Register wires the connection into the hub and starts its write pump.
func (h *Hub) Register(userID int64, conn *websocket.Conn) {
	c := &client{
		userID: userID,
		conn:   conn,
		send:   make(chan []byte, sendBuffer),
	}

	h.mu.Lock()
	if old, exists := h.clients[userID]; exists {
		close(old.send)
	}
	h.clients[userID] = c
	h.mu.Unlock()

	go c.writePump()
}

// Unregister drops the connection. The conn parameter guards against a
// reconnect race: only the socket still registered for the user is removed.
func (h *Hub) Unregister(userID int64, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if c, exists := h.clients[userID]; exists && c.conn == conn {
		close(c.send)
		delete(h.clients, userID)
	}
}

// Broadcast queues the event for every connected client. Clients whose
// buffer is full skip the event.
func (h *Hub) Broadcast(event BookingEvent) {
	data, err := json.Marshal(event)
	if err != nil {
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, c := range h.clients {
		select {
		case c.send <- data:
		default:
			// Client too slow — skip
		}
	}
}

func (h *Hub) OnlineCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	return len(h.clients)
}

func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for userID, c := range h.clients {
		close(c.send)
		delete(h.clients, userID)
	}
}

func (c *client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// NotifyBookingCreated implements booking.EventSink.
func (h *Hub) NotifyBookingCreated(_ context.Context, b *domain.Booking) error {
	h.Broadcast(BookingEvent{Type: EventBookingCreated, Booking: b, At: time.Now()})
	return nil
}

// NotifyBookingReviewed implements booking.EventSink.
func (h *Hub) NotifyBookingReviewed(_ context.Context, b *domain.Booking) error {
	eventType := EventBookingApproved
	if b.Status == domain.BookingRejected {
		eventType = EventBookingRejected
	}
	h.Broadcast(BookingEvent{Type: eventType, Booking: b, At: time.Now()})
	return nil
}

// NotifyBookingCancelled implements booking.EventSink.
func (h *Hub) NotifyBookingCancelled(_ context.Context, b *domain.Booking) error {
	h.Broadcast(BookingEvent{Type: EventBookingCancelled, Booking: b, At: time.Now()})
	return nil
}
