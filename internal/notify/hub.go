// Package notify pushes moderation events to connected websocket clients.
package notify

import (
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"toilet_finder/internal/metrics"
	"toilet_finder/internal/models"
)

const (
	EventToiletSubmitted = "toilet.submitted"
	EventToiletApproved  = "toilet.approved"
	EventToiletRejected  = "toilet.rejected"
)

const writeWait = 10 * time.Second

// Event is the JSON frame sent to clients.
type Event struct {
	Type   string      `json:"type"`
	Data   interface{} `json:"data"`
	Reason string      `json:"reason,omitempty"`
	SentAt time.Time   `json:"sent_at"`
}

type client struct {
	conn   *websocket.Conn
	userID string
	role   string
	// gorilla connections allow one concurrent writer.
	writeMu sync.Mutex
}

type delivery struct {
	event        Event
	toModerators bool
	userID       string
}

// Hub tracks connected clients and fans events out to them from a single
// goroutine.
type Hub struct {
	clients   map[*websocket.Conn]*client
	broadcast chan delivery
	done      chan struct{}
	closeOnce sync.Once
	mu        sync.Mutex
}

// NewHub creates a hub and starts its broadcast loop.
func NewHub() *Hub {
	h := &Hub{
		clients:   make(map[*websocket.Conn]*client),
		broadcast: make(chan delivery, 100),
		done:      make(chan struct{}),
	}
	go h.run()
	return h
}

func (h *Hub) run() {
	for {
		select {
		case d := <-h.broadcast:
			for _, c := range h.recipients(d) {
				go h.send(c, d.event)
			}
		case <-h.done:
			return
		}
	}
}

func (h *Hub) recipients(d delivery) []*client {
	h.mu.Lock()
	defer h.mu.Unlock()

	var out []*client
	for _, c := range h.clients {
		if d.toModerators && models.CanModerate(c.role) {
			out = append(out, c)
		} else if d.userID != "" && c.userID == d.userID {
			out = append(out, c)
		}
	}
	return out
}

func (h *Hub) send(c *client, event Event) {
	c.writeMu.Lock()
	_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	err := c.conn.WriteJSON(event)
	c.writeMu.Unlock()

	if err != nil {
		logrus.WithError(err).WithFields(logrus.Fields{
			"user_id":  c.userID,
			"conn_ptr": fmt.Sprintf("%p", c.conn),
		}).Info("Failed to deliver notification, unregistering client")
		h.Unregister(c.conn)
		c.conn.Close()
		return
	}
	metrics.WSMessagesSent.Inc()
}

// Register adds an upgraded connection for the given user.
func (h *Hub) Register(conn *websocket.Conn, userID, role string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[conn]; ok {
		return
	}
	h.clients[conn] = &client{conn: conn, userID: userID, role: role}
	metrics.WSConnections.Inc()
	logrus.WithFields(logrus.Fields{
		"user_id":  userID,
		"role":     role,
		"conn_ptr": fmt.Sprintf("%p", conn),
	}).Info("Client registered with notification hub")
}

// Unregister removes a connection. It is safe to call more than once.
func (h *Hub) Unregister(conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	c, ok := h.clients[conn]
	if !ok {
		return
	}
	delete(h.clients, conn)
	metrics.WSConnections.Dec()
	logrus.WithFields(logrus.Fields{
		"user_id":  c.userID,
		"conn_ptr": fmt.Sprintf("%p", conn),
	}).Info("Client unregistered from notification hub")
}

// ConnectedClients returns the number of registered connections.
func (h *Hub) ConnectedClients() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// NotifyModerators queues an event for every connected moderator and admin.
func (h *Hub) NotifyModerators(event Event) {
	h.publish(delivery{event: event, toModerators: true})
}

// NotifyUser queues an event for every connection of userID.
func (h *Hub) NotifyUser(userID string, event Event) {
	h.publish(delivery{event: event, userID: userID})
}

func (h *Hub) publish(d delivery) {
	if d.event.SentAt.IsZero() {
		d.event.SentAt = time.Now().UTC()
	}
	select {
	case h.broadcast <- d:
	default:
		metrics.WSDroppedMessages.Inc()
		logrus.WithField("type", d.event.Type).Warn("Notification channel full, dropping message")
	}
}

// Close stops the broadcast loop and closes every client connection.
func (h *Hub) Close() {
	h.closeOnce.Do(func() {
		close(h.done)
		h.mu.Lock()
		defer h.mu.Unlock()
		for conn := range h.clients {
			conn.Close()
			delete(h.clients, conn)
			metrics.WSConnections.Dec()
		}
	})
}
