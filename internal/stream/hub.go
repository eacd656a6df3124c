// Package stream broadcasts per-tick body positions to websocket clients.
package stream

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/san-kum/orbitsim/internal/sim"
	"golang.org/x/time/rate"
)

const (
	writeWait  = 5 * time.Second
	sendBuffer = 16
)

type BodyFrame struct {
	Name     string     `json:"name"`
	Position [3]float64 `json:"position"`
}

// Frame is one committed tick as sent on the wire.
type Frame struct {
	Step   uint64      `json:"step"`
	Time   float64     `json:"time"`
	Bodies []BodyFrame `json:"bodies"`
}

// NewFrame converts scheduler samples; dt maps steps to simulated time.
func NewFrame(step uint64, dt float64, samples []sim.BodySample) Frame {
	f := Frame{Step: step, Time: float64(step) * dt, Bodies: make([]BodyFrame, len(samples))}
	for i, s := range samples {
		p := s.Point.Position
		f.Bodies[i] = BodyFrame{Name: s.Name, Position: [3]float64{p.X, p.Y, p.Z}}
	}
	return f
}

type client struct {
	conn *websocket.Conn
	send chan []byte
}

// Hub fans frames out to every connected client. Frames beyond the rate
// limit are dropped, as are frames for clients whose buffer is full.
type Hub struct {
	upgrader websocket.Upgrader
	limiter  *rate.Limiter
	dt       float64
	logger   *slog.Logger

	mu      sync.Mutex
	clients map[*client]struct{}
	last    []byte
	closed  bool
}

var _ sim.Observer = (*Hub)(nil)

// NewHub limits broadcasts to maxFPS frames per second; zero means no limit.
func NewHub(dt, maxFPS float64, logger *slog.Logger) *Hub {
	if logger == nil {
		logger = slog.Default()
	}
	limit := rate.Inf
	if maxFPS > 0 {
		limit = rate.Limit(maxFPS)
	}
	return &Hub{
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		limiter: rate.NewLimiter(limit, 1),
		dt:      dt,
		logger:  logger,
		clients: make(map[*client]struct{}),
	}
}

// OnTick publishes the tick's samples.
func (h *Hub) OnTick(step uint64, samples []sim.BodySample) {
	if err := h.Publish(NewFrame(step, h.dt, samples)); err != nil {
		h.logger.Warn("frame not published", "step", step, "err", err)
	}
}

// Publish encodes f once and queues it for every client.
func (h *Hub) Publish(f Frame) error {
	if !h.limiter.Allow() {
		return nil
	}
	msg, err := json.Marshal(f)
	if err != nil {
		return err
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return nil
	}
	h.last = msg
	for c := range h.clients {
		select {
		case c.send <- msg:
		default:
			h.logger.Debug("client lagging, frame dropped", "remote", c.conn.RemoteAddr().String(), "step", f.Step)
		}
	}
	return nil
}

// Clients is the number of connected clients.
func (h *Hub) Clients() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// ServeHTTP upgrades the connection and streams frames until the client
// goes away. A new client first receives the latest frame.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", "remote", r.RemoteAddr, "err", err)
		return
	}
	c := &client{conn: conn, send: make(chan []byte, sendBuffer)}

	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		conn.Close()
		return
	}
	h.clients[c] = struct{}{}
	if h.last != nil {
		c.send <- h.last
	}
	h.mu.Unlock()
	h.logger.Info("client connected", "remote", conn.RemoteAddr().String())

	go h.writePump(c)
	h.readPump(c)
}

// readPump discards client messages and unregisters on close.
func (h *Hub) readPump(c *client) {
	defer h.remove(c)
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (h *Hub) writePump(c *client) {
	defer c.conn.Close()
	for msg := range c.send {
		c.conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
			h.logger.Debug("write failed", "remote", c.conn.RemoteAddr().String(), "err", err)
			return
		}
	}
	c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
}

func (h *Hub) remove(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[c]; !ok {
		return
	}
	delete(h.clients, c)
	close(c.send)
	h.logger.Info("client disconnected", "remote", c.conn.RemoteAddr().String())
}

// Close disconnects every client and stops accepting new ones.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closed = true
	for c := range h.clients {
		delete(h.clients, c)
		close(c.send)
	}
}
