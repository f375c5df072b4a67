// Package broadcast implements the dashboard WebSocket push described in
// spec.md §6 ("/ws/opportunities"): a server-side hub that accepts inbound
// dashboard connections and pushes each completed scan result to every
// connected client. It reuses the ping/pong keepalive shape of the
// teacher's client-dialing pkg/websocket.Manager, inverted: instead of
// dialing out and reconnecting to a single upstream feed, the Hub accepts
// many inbound connections and never redials — a dropped client is simply
// unregistered.
package broadcast

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// Config controls keepalive timing and per-client buffering.
type Config struct {
	PongTimeout       time.Duration
	PingInterval      time.Duration
	MessageBufferSize int
	Logger            *zap.Logger
}

// client is one dashboard connection registered with the Hub.
type client struct {
	conn *websocket.Conn
	send chan []byte
}

// Hub fans out serialized scan results to every connected dashboard client.
type Hub struct {
	cfg        Config
	logger     *zap.Logger
	mu         sync.Mutex
	clients    map[*client]struct{}
	register   chan *client
	unregister chan *client
	broadcast  chan []byte
	done       chan struct{}
}

// New builds a Hub. Call Run in its own goroutine to start the dispatch
// loop.
func New(cfg Config) *Hub {
	if cfg.MessageBufferSize == 0 {
		cfg.MessageBufferSize = 16
	}
	return &Hub{
		cfg:        cfg,
		logger:     cfg.Logger,
		clients:    make(map[*client]struct{}),
		register:   make(chan *client),
		unregister: make(chan *client),
		broadcast:  make(chan []byte, 64),
		done:       make(chan struct{}),
	}
}

// Run drives registration and fan-out until Stop is called. It must run in
// its own goroutine; the Hub is otherwise inert.
func (h *Hub) Run() {
	for {
		select {
		case <-h.done:
			h.mu.Lock()
			for c := range h.clients {
				close(c.send)
			}
			h.clients = make(map[*client]struct{})
			h.mu.Unlock()
			return

		case c := <-h.register:
			h.mu.Lock()
			h.clients[c] = struct{}{}
			ActiveClients.Set(float64(len(h.clients)))
			h.mu.Unlock()

		case c := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[c]; ok {
				delete(h.clients, c)
				close(c.send)
				ActiveClients.Set(float64(len(h.clients)))
			}
			h.mu.Unlock()

		case msg := <-h.broadcast:
			h.mu.Lock()
			for c := range h.clients {
				select {
				case c.send <- msg:
					MessagesSentTotal.Inc()
				default:
					MessagesDroppedTotal.WithLabelValues("buffer-full").Inc()
				}
			}
			h.mu.Unlock()
		}
	}
}

// Stop shuts down the hub and closes every registered client's send
// channel.
func (h *Hub) Stop() {
	close(h.done)
}

// Broadcast queues a message for delivery to every connected client. It
// never blocks the caller beyond the internal buffer; a full buffer drops
// the message and is counted, not logged per-message, to avoid log storms
// during a scan burst.
func (h *Hub) Broadcast(msg []byte) {
	select {
	case h.broadcast <- msg:
	default:
		MessagesDroppedTotal.WithLabelValues("hub-buffer-full").Inc()
	}
}

// writePump drains a client's send channel to its connection and pings it
// on the configured interval, mirroring the teacher's pingLoop.
func (h *Hub) writePump(c *client) {
	ticker := time.NewTicker(h.cfg.PingInterval)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				h.logger.Debug("broadcast-client-write-failed", zap.Error(err))
				return
			}
		case <-ticker.C:
			if err := c.conn.WriteControl(websocket.PingMessage, []byte{}, time.Now().Add(time.Second)); err != nil {
				h.logger.Debug("broadcast-client-ping-failed", zap.Error(err))
				return
			}
		}
	}
}

// readPump discards client-originated frames but is required to process
// control frames (pong, close) and detect disconnects, mirroring
// gorilla/websocket's documented read-loop requirement.
func (h *Hub) readPump(c *client) {
	defer func() {
		h.unregister <- c
	}()

	c.conn.SetReadDeadline(time.Now().Add(h.cfg.PongTimeout))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(h.cfg.PongTimeout))
		return nil
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}
