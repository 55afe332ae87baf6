package stream

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"tradecontrol/src/controlplane"

	"github.com/gorilla/websocket"
	logger "github.com/sirupsen/logrus"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4096
	sendBuffer     = 16
)

const MessageTypeSnapshot = "snapshot"

// Message is the envelope written to every dashboard connection.
type Message struct {
	Type string                `json:"type"`
	Data controlplane.Snapshot `json:"data"`
}

type gauge interface {
	StreamOpened()
	StreamClosed()
}

// Hub fans control plane snapshots out to every open connection of the
// owning user. It implements controlplane.Notifier.
type Hub struct {
	mu       sync.RWMutex
	clients  map[string]map[*client]struct{}
	upgrader websocket.Upgrader
	gauge    gauge
	dropped  int64
}

func NewHub(origins *OriginChecker, g gauge) *Hub {
	if origins == nil {
		origins = NewOriginChecker(nil)
	}
	return &Hub{
		clients: make(map[string]map[*client]struct{}),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			CheckOrigin: func(r *http.Request) bool {
				return origins.Check(r.Header.Get("Origin"))
			},
		},
		gauge: g,
	}
}

// Publish sends snap to the user's connections without blocking. A client
// whose buffer is full is disconnected; it will get a fresh snapshot on reconnect.
func (h *Hub) Publish(userID string, snap controlplane.Snapshot) {
	payload, err := json.Marshal(Message{Type: MessageTypeSnapshot, Data: snap})
	if err != nil {
		logger.WithError(err).WithField("user_id", userID).Error("failed to encode snapshot")
		return
	}

	h.mu.RLock()
	var slow []*client
	for c := range h.clients[userID] {
		select {
		case c.send <- payload:
		default:
			slow = append(slow, c)
		}
	}
	h.mu.RUnlock()

	for _, c := range slow {
		h.mu.Lock()
		h.dropped++
		h.mu.Unlock()
		h.unregister(c)
	}
}

// Serve upgrades the request and streams snapshots for userID. The client is
// registered before current is read, so a mutation racing the handshake is
// either in the first snapshot or delivered after it.
func (h *Hub) Serve(w http.ResponseWriter, r *http.Request, userID string, current func() controlplane.Snapshot) error {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return err
	}

	c := &client{hub: h, userID: userID, conn: conn, send: make(chan []byte, sendBuffer)}
	h.register(c)
	go c.writePump()
	go c.readPump()

	payload, err := json.Marshal(Message{Type: MessageTypeSnapshot, Data: current()})
	if err != nil {
		logger.WithError(err).WithField("user_id", userID).Error("failed to encode snapshot")
		return nil
	}
	if !h.enqueue(c, payload) {
		h.unregister(c)
	}
	return nil
}

// enqueue queues payload for c if it is still registered. It reports false
// when the client buffer is full.
func (h *Hub) enqueue(c *client, payload []byte) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if _, ok := h.clients[c.userID][c]; !ok {
		return true
	}
	select {
	case c.send <- payload:
		return true
	default:
		return false
	}
}

// ClientCount returns the number of open connections for userID.
func (h *Hub) ClientCount(userID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[userID])
}

// DroppedClients counts connections closed for falling behind.
func (h *Hub) DroppedClients() int64 {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.dropped
}

// Close disconnects every client.
func (h *Hub) Close() {
	h.mu.Lock()
	var all []*client
	for _, set := range h.clients {
		for c := range set {
			all = append(all, c)
		}
	}
	h.mu.Unlock()

	for _, c := range all {
		h.unregister(c)
	}
}

func (h *Hub) register(c *client) {
	h.mu.Lock()
	set, ok := h.clients[c.userID]
	if !ok {
		set = make(map[*client]struct{})
		h.clients[c.userID] = set
	}
	set[c] = struct{}{}
	h.mu.Unlock()

	if h.gauge != nil {
		h.gauge.StreamOpened()
	}
	logger.WithFields(map[string]interface{}{
		"component": "stream",
		"user_id":   c.userID,
	}).Debug("dashboard connected")
}

func (h *Hub) unregister(c *client) {
	h.mu.Lock()
	set, ok := h.clients[c.userID]
	if ok {
		if _, ok = set[c]; ok {
			delete(set, c)
			close(c.send)
			if len(set) == 0 {
				delete(h.clients, c.userID)
			}
		}
	}
	h.mu.Unlock()

	if ok && h.gauge != nil {
		h.gauge.StreamClosed()
	}
}

type client struct {
	hub    *Hub
	userID string
	conn   *websocket.Conn
	send   chan []byte
}

// readPump only services control frames; dashboards never send commands here.
func (c *client) readPump() {
	defer func() {
		c.hub.unregister(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				logger.WithError(err).WithField("user_id", c.userID).Warn("websocket read failed")
			}
			return
		}
	}
}

func (c *client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case payload, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
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
