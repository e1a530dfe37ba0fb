package bridge

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/1broseidon/queuelip/internal/monitoring"
)

const (
	sendBuffer   = 16
	writeTimeout = 5 * time.Second
)

// Event is the message pushed to a window's websocket subscribers.
type Event struct {
	Label   string    `json:"label"`
	Event   string    `json:"event"`
	Payload string    `json:"payload"`
	Time    time.Time `json:"time"`
}

type client struct {
	label string
	conn  *websocket.Conn
	send  chan []byte
}

// Hub fans context notifications out to the websocket clients of each
// window label. It satisfies shell.Notifier.
type Hub struct {
	mu      sync.Mutex
	clients map[string]map[*client]struct{}
	closed  bool
	logger  *zap.Logger
	metrics *monitoring.Metrics
}

func NewHub(logger *zap.Logger, metrics *monitoring.Metrics) *Hub {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Hub{
		clients: make(map[string]map[*client]struct{}),
		logger:  logger,
		metrics: metrics,
	}
}

// Notify queues an event for every subscriber of label. A label with no
// subscribers is not an error; a subscriber whose buffer is full is.
func (h *Hub) Notify(label, event, payload string) error {
	data, err := json.Marshal(Event{Label: label, Event: event, Payload: payload, Time: time.Now()})
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	var errs []error
	for c := range h.clients[label] {
		select {
		case c.send <- data:
		default:
			errs = append(errs, fmt.Errorf("bridge client for %q is not keeping up", label))
		}
	}
	return errors.Join(errs...)
}

// Clients returns the number of subscribers for label.
func (h *Hub) Clients(label string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients[label])
}

// Close disconnects every client. Later connections are refused.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closed = true
	for _, set := range h.clients {
		for c := range set {
			c.conn.Close()
		}
	}
}

// serve runs one websocket subscription until the peer goes away.
func (h *Hub) serve(conn *websocket.Conn, label string) {
	c := &client{label: label, conn: conn, send: make(chan []byte, sendBuffer)}
	if !h.add(c) {
		conn.Close()
		return
	}
	h.logger.Debug("bridge client connected", zap.String("label", label))

	go c.writeLoop()
	c.readLoop()

	h.remove(c)
	h.logger.Debug("bridge client disconnected", zap.String("label", label))
}

func (h *Hub) add(c *client) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return false
	}
	set, ok := h.clients[c.label]
	if !ok {
		set = make(map[*client]struct{})
		h.clients[c.label] = set
	}
	set[c] = struct{}{}
	h.metrics.SetBridgeClients(h.countLocked())
	return true
}

func (h *Hub) remove(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	set := h.clients[c.label]
	if _, ok := set[c]; !ok {
		return
	}
	delete(set, c)
	if len(set) == 0 {
		delete(h.clients, c.label)
	}
	close(c.send)
	h.metrics.SetBridgeClients(h.countLocked())
}

func (h *Hub) countLocked() int {
	n := 0
	for _, set := range h.clients {
		n += len(set)
	}
	return n
}

// readLoop discards inbound frames; it only exists to notice the close.
func (c *client) readLoop() {
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (c *client) writeLoop() {
	defer c.conn.Close()
	for msg := range c.send {
		c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
		if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
			return
		}
	}
	c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
}
